package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/neurobridge/portal-api/internal/auth"
	"github.com/neurobridge/portal-api/internal/models"
	"github.com/neurobridge/portal-api/internal/notify"
	"github.com/neurobridge/portal-api/internal/repository"
)

// AuthHandler serves the only public endpoints: parent signup and login.
type AuthHandler struct {
	accounts  repository.AccountRepository
	notifier  notify.Notifier
	jwtSecret string
	tokenTTL  time.Duration
	logger    *zap.Logger
}

func NewAuthHandler(
	accounts repository.AccountRepository,
	notifier notify.Notifier,
	jwtSecret string,
	tokenTTL time.Duration,
	logger *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		accounts:  accounts,
		notifier:  notifier,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		logger:    logger,
	}
}

type signupRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type authResponse struct {
	Token string          `json:"token"`
	User  *models.Account `json:"user"`
}

// Signup handles POST /api/auth/signup — parent self-service registration.
// Therapist and admin accounts are provisioned administratively.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("hash password", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "signup failed"})
		return
	}

	account := &models.Account{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         models.RoleParent,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}

	if err := h.accounts.Create(c.Request.Context(), account); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
			return
		}
		h.logger.Error("create parent account", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "signup failed"})
		return
	}

	h.notifier.SendEmail(c.Request.Context(), notify.Email{
		To:      account.Email,
		Subject: "Welcome to NeuroBridge",
		Body:    "Hi " + account.Name + ", your parent account is ready.",
	})

	token, err := auth.GenerateToken(account.ID, account.Role, account.Email, h.jwtSecret, h.tokenTTL)
	if err != nil {
		h.logger.Error("generate token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "signup failed"})
		return
	}

	c.JSON(http.StatusCreated, authResponse{Token: token, User: account})
}

// Login handles POST /api/auth/login for every role. The email is probed
// therapist → parent → admin, the same priority order the identity
// resolver uses for ids, so an email can never log into two roles.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var account *models.Account
	for _, role := range []string{models.RoleTherapist, models.RoleParent, models.RoleAdmin} {
		found, err := h.accounts.FindByEmail(c.Request.Context(), role, req.Email)
		if err != nil {
			h.logger.Error("find account by email", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
			return
		}
		if found != nil {
			account = found
			break
		}
	}

	// One generic message for unknown email and wrong password: login
	// must not reveal which emails are registered.
	if account == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}
	if !account.IsActive {
		c.JSON(http.StatusForbidden, gin.H{"error": "account is deactivated", "error_code": "account_deactivated"})
		return
	}

	token, err := auth.GenerateToken(account.ID, account.Role, account.Email, h.jwtSecret, h.tokenTTL)
	if err != nil {
		h.logger.Error("generate token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	c.JSON(http.StatusOK, authResponse{Token: token, User: account})
}
