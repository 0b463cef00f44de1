package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"restaurant-crm-api/apperr"
	"restaurant-crm-api/middleware"
	"restaurant-crm-api/services"

	"github.com/gin-gonic/gin"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Register creates a new account
func (h *Handler) Register(c *gin.Context) {
	var req services.RegisterInput
	if !bind(c, &req) {
		return
	}
	account, err := h.accounts.Register(c.Request.Context(), req)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"user": account}, "User created successfully")
}

// Login authenticates an account and starts a session
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if !bind(c, &req) {
		return
	}

	if h.loginLimiter != nil {
		key := c.ClientIP() + ":" + strings.ToLower(strings.TrimSpace(req.Email))
		decision := h.loginLimiter.Allow(c.Request.Context(), key)
		if !decision.Allowed {
			retry := int(time.Until(decision.ResetAt).Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(retry))
			middleware.Abort(c, apperr.RateLimited("Too many login attempts, try again later"))
			return
		}
	}

	account, pair, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	h.setSessionCookies(c, pair)
	respond(c, http.StatusOK, gin.H{
		"user":         account,
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	}, "User logged in")
}

// Logout revokes the caller's refresh token and clears the session cookies
func (h *Handler) Logout(c *gin.Context) {
	if err := h.accounts.Logout(c.Request.Context(), middleware.GetAccountID(c)); err != nil {
		middleware.Abort(c, err)
		return
	}
	h.clearSessionCookies(c)
	respond(c, http.StatusOK, nil, "User logged out")
}

// RefreshToken rotates the session; the cookie takes precedence over the body
func (h *Handler) RefreshToken(c *gin.Context) {
	token, _ := c.Cookie(middleware.RefreshTokenCookie)
	if token == "" && c.Request.ContentLength != 0 {
		var req RefreshRequest
		if !bind(c, &req) {
			return
		}
		token = req.RefreshToken
	}

	pair, err := h.accounts.Refresh(c.Request.Context(), token)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	h.setSessionCookies(c, pair)
	respond(c, http.StatusOK, gin.H{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	}, "Access token refreshed")
}

func (h *Handler) ChangePassword(c *gin.Context) {
	var req services.ChangePasswordInput
	if !bind(c, &req) {
		return
	}
	if err := h.accounts.ChangePassword(c.Request.Context(), middleware.GetAccountID(c), req); err != nil {
		middleware.Abort(c, err)
		return
	}
	respond(c, http.StatusOK, nil, "Password changed successfully")
}

// GetUser returns the authenticated account
func (h *Handler) GetUser(c *gin.Context) {
	account, err := h.accounts.Get(c.Request.Context(), middleware.GetAccountID(c))
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"user": account}, "User data fetched successfully")
}

func (h *Handler) GetUsers(c *gin.Context) {
	users, err := h.accounts.List(c.Request.Context())
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"users": users}, "Users fetched successfully")
}
