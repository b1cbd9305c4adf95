package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	iauth "github.com/buildhive/buildhive/internal/auth"
	"github.com/buildhive/buildhive/internal/models"
	appErrors "github.com/buildhive/buildhive/pkg/errors"
	"github.com/buildhive/buildhive/pkg/metrics"
	"github.com/buildhive/buildhive/pkg/response"
)

// AuthHandler issues access tokens for valid credentials.
type AuthHandler struct {
	db  *gorm.DB
	jwt *iauth.JWTService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, jwt *iauth.JWTService) (*AuthHandler, error) {
	if db == nil {
		return nil, errors.New("auth handler: db is required")
	}
	if jwt == nil {
		return nil, errors.New("auth handler: jwt service is required")
	}
	return &AuthHandler{db: db, jwt: jwt}, nil
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	AccessToken string       `json:"access_token"`
	User        *models.User `json:"user"`
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var body loginRequest
	if !bindAndValidate(c, &body) {
		return
	}

	email := strings.ToLower(strings.TrimSpace(body.Email))

	var user models.User
	err := h.db.WithContext(requestContext(c)).First(&user, "email = ?", email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.AuthAttempts.WithLabelValues("failure").Inc()
			response.Error(c, appErrors.ErrInvalidCredentials)
			return
		}
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	if !user.IsActive || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(body.Password)) != nil {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		response.Error(c, appErrors.ErrInvalidCredentials)
		return
	}

	token, err := h.jwt.GenerateAccessToken(iauth.AccessTokenInput{
		UserID:   user.ID,
		TenantID: user.TenantID,
	})
	if err != nil {
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	now := time.Now()
	user.LastLoginAt = &now
	// Login should not fail on a bookkeeping write.
	_ = h.db.WithContext(requestContext(c)).Model(&user).Update("last_login_at", now).Error

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	response.Success(c, http.StatusOK, loginResponse{AccessToken: token, User: &user})
}
