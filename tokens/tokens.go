package tokens

import (
	"context"
	"errors"
	"time"

	"restaurant-crm-api/apperr"
	"restaurant-crm-api/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	typeAccess  = "access"
	typeRefresh = "refresh"
)

// Claims is shared by both token kinds; Email is only set on access tokens
type Claims struct {
	AccountID uint   `json:"id"`
	Email     string `json:"email,omitempty"`
	Type      string `json:"typ"`
	jwt.RegisteredClaims
}

type Pair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Service issues and verifies session tokens. The refresh token last issued
// to an account is stored on it; any other refresh token is rejected.
type Service struct {
	db         *gorm.DB
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

type Option func(*Service)

// WithClock overrides the time source used for issuing and verifying tokens
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(db *gorm.DB, secret []byte, accessTTL, refreshTTL time.Duration, opts ...Option) *Service {
	s := &Service{
		db:         db,
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IssuePair mints a new pair and makes its refresh token the only valid one
func (s *Service) IssuePair(ctx context.Context, account *models.Account) (Pair, error) {
	pair, err := s.mint(account)
	if err != nil {
		return Pair{}, err
	}
	res := s.db.WithContext(ctx).Model(&models.Account{}).
		Where("id = ?", account.ID).
		Update("refresh_token", pair.RefreshToken)
	if res.Error != nil {
		return Pair{}, apperr.Internal("Something went wrong while generating access and refresh token", res.Error)
	}
	if res.RowsAffected == 0 {
		return Pair{}, apperr.Internal("Something went wrong while generating access and refresh token", gorm.ErrRecordNotFound)
	}
	return pair, nil
}

// VerifyAccess returns the account id carried by a valid access token
func (s *Service) VerifyAccess(token string) (uint, error) {
	if token == "" {
		return 0, apperr.Unauthorized("Unauthorized request")
	}
	claims, err := s.parse(token, typeAccess)
	if err != nil {
		return 0, apperr.Unauthorized("Invalid access token")
	}
	return claims.AccountID, nil
}

// Rotate exchanges a refresh token for a new pair. The presented token must
// be the one currently stored; it stops working as soon as this succeeds.
func (s *Service) Rotate(ctx context.Context, refreshToken string) (Pair, error) {
	if refreshToken == "" {
		return Pair{}, apperr.Unauthorized("Unauthorized request")
	}
	claims, err := s.parse(refreshToken, typeRefresh)
	if err != nil {
		return Pair{}, apperr.Unauthorized("Invalid refresh token")
	}

	var account models.Account
	if err := s.db.WithContext(ctx).First(&account, claims.AccountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Pair{}, apperr.Unauthorized("Invalid refresh token")
		}
		return Pair{}, apperr.Internal("Something went wrong while refreshing token", err)
	}
	if account.RefreshToken == "" || account.RefreshToken != refreshToken {
		return Pair{}, apperr.Unauthorized("Refresh token is expired or used")
	}

	pair, err := s.mint(&account)
	if err != nil {
		return Pair{}, err
	}
	// compare-and-swap so two concurrent rotations cannot both win
	res := s.db.WithContext(ctx).Model(&models.Account{}).
		Where("id = ? AND refresh_token = ?", account.ID, refreshToken).
		Update("refresh_token", pair.RefreshToken)
	if res.Error != nil {
		return Pair{}, apperr.Internal("Something went wrong while refreshing token", res.Error)
	}
	if res.RowsAffected == 0 {
		return Pair{}, apperr.Unauthorized("Refresh token is expired or used")
	}
	return pair, nil
}

// Revoke clears the stored refresh token so no outstanding one can rotate
func (s *Service) Revoke(ctx context.Context, accountID uint) error {
	err := s.db.WithContext(ctx).Model(&models.Account{}).
		Where("id = ?", accountID).
		Update("refresh_token", "").Error
	if err != nil {
		return apperr.Internal("Something went wrong while logging out", err)
	}
	return nil
}

func (s *Service) mint(account *models.Account) (Pair, error) {
	now := s.now()
	access, err := s.sign(Claims{
		AccountID:        account.ID,
		Email:            account.Email,
		Type:             typeAccess,
		RegisteredClaims: s.registered(now, s.accessTTL),
	})
	if err != nil {
		return Pair{}, apperr.Internal("Something went wrong while generating access and refresh token", err)
	}
	refresh, err := s.sign(Claims{
		AccountID:        account.ID,
		Type:             typeRefresh,
		RegisteredClaims: s.registered(now, s.refreshTTL),
	})
	if err != nil {
		return Pair{}, apperr.Internal("Something went wrong while generating access and refresh token", err)
	}
	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *Service) registered(now time.Time, ttl time.Duration) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (s *Service) sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *Service) parse(tokenStr, wantType string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.Type != wantType || claims.AccountID == 0 {
		return nil, errors.New("token rejected")
	}
	return claims, nil
}
