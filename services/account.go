package services

import (
	"context"
	"errors"
	"strings"

	"restaurant-crm-api/apperr"
	"restaurant-crm-api/models"
	"restaurant-crm-api/tokens"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const passwordCost = 10

type AccountService struct {
	db     *gorm.DB
	tokens *tokens.Service
	cost   int
}

func NewAccountService(db *gorm.DB, tokenService *tokens.Service) *AccountService {
	return &AccountService{db: db, tokens: tokenService, cost: passwordCost}
}

type RegisterInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required"`
}

type ChangePasswordInput struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	Password    string `json:"password" validate:"required,min=6"`
}

// AccountSummary is the public listing shape of an account
type AccountSummary struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.Account, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Role = strings.TrimSpace(in.Role)
	if blank(in.Name, in.Email, in.Password, in.Role) {
		return nil, apperr.InvalidInput("All fields are required")
	}
	if err := validate.Struct(in); err != nil {
		return nil, apperr.InvalidInput("A valid email and a password of at least 6 characters are required")
	}

	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.Account{}).Where("email = ?", in.Email).Count(&count).Error; err != nil {
		return nil, apperr.Internal("Something went wrong while creating user", err)
	}
	if count > 0 {
		return nil, apperr.Conflict("User with same email already exist")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, apperr.Internal("Something went wrong while creating user", err)
	}
	account := models.Account{
		Name:         in.Name,
		Email:        in.Email,
		Role:         in.Role,
		PasswordHash: string(hash),
	}
	if err := db.Create(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("User with same email already exist")
		}
		return nil, apperr.Internal("Something went wrong while creating user", err)
	}
	return &account, nil
}

// Login checks credentials and starts a new session, replacing any previous one
func (s *AccountService) Login(ctx context.Context, email, password string) (*models.Account, tokens.Pair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, tokens.Pair{}, apperr.InvalidInput("Email and password are required")
	}

	var account models.Account
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&account).Error; err != nil {
		return nil, tokens.Pair{}, storeError(err, "User does not exist", "Something went wrong while logging in")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, tokens.Pair{}, apperr.Unauthorized("Incorrect credentials")
	}

	pair, err := s.tokens.IssuePair(ctx, &account)
	if err != nil {
		return nil, tokens.Pair{}, err
	}
	return &account, pair, nil
}

func (s *AccountService) Logout(ctx context.Context, accountID uint) error {
	return s.tokens.Revoke(ctx, accountID)
}

func (s *AccountService) Refresh(ctx context.Context, refreshToken string) (tokens.Pair, error) {
	return s.tokens.Rotate(ctx, refreshToken)
}

func (s *AccountService) ChangePassword(ctx context.Context, accountID uint, in ChangePasswordInput) error {
	if in.OldPassword == "" || in.Password == "" {
		return apperr.InvalidInput("Old password and new password are required")
	}
	if err := validate.Struct(in); err != nil {
		return apperr.InvalidInput("New password must be at least 6 characters")
	}

	db := s.db.WithContext(ctx)
	var account models.Account
	if err := db.Select("id", "password_hash").First(&account, accountID).Error; err != nil {
		return storeError(err, "User does not exist", "Something went wrong while changing password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(in.OldPassword)); err != nil {
		return apperr.InvalidInput("Wrong old password")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return apperr.Internal("Something went wrong while changing password", err)
	}
	res := db.Model(&models.Account{}).Where("id = ?", accountID).Update("password_hash", string(hash))
	if res.Error != nil {
		return apperr.Internal("Something went wrong while changing password", res.Error)
	}
	if res.RowsAffected != 1 {
		return apperr.Internal("Something went wrong while changing password", errors.New("password not updated"))
	}
	return nil
}

func (s *AccountService) Get(ctx context.Context, accountID uint) (*models.Account, error) {
	var account models.Account
	if err := s.db.WithContext(ctx).First(&account, accountID).Error; err != nil {
		return nil, storeError(err, "User does not exist", "Something went wrong while fetching user")
	}
	return &account, nil
}

// Exists reports whether the account row is still present
func (s *AccountService) Exists(ctx context.Context, accountID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Account{}).Where("id = ?", accountID).Count(&count).Error
	return count > 0, err
}

func (s *AccountService) List(ctx context.Context) ([]AccountSummary, error) {
	accounts := []AccountSummary{}
	if err := s.db.WithContext(ctx).Model(&models.Account{}).Select("id", "name").Order("id").Scan(&accounts).Error; err != nil {
		return nil, apperr.Internal("Something went wrong while fetching users", err)
	}
	return accounts, nil
}
