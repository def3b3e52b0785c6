package app

import (
	"errors"
	"net/http"
	"strings"

	"platefeed/internal/service"
	"platefeed/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type AuthHandler struct {
	authService service.AuthService
	jwtSecret   string
}

func NewAuthHandler(authService service.AuthService, jwtSecret string) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		jwtSecret:   jwtSecret,
	}
}

// Register handles user registration
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// Parse validation errors and provide user-friendly messages
		var validationErr validator.ValidationErrors
		if errors.As(err, &validationErr) {
			for _, fieldErr := range validationErr {
				switch fieldErr.Field() {
				case "Password":
					util.BadRequest(c, "Password must be at least 8 characters")
					return
				case "Email":
					util.BadRequest(c, "A valid email address is required")
					return
				case "DisplayName":
					util.BadRequest(c, "Display name is required")
					return
				}
			}
		}
		util.BadRequest(c, err.Error())
		return
	}

	user, token, err := h.authService.Register(req)
	if err != nil {
		util.FailFromError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusCreated, "Registration successful", gin.H{
		"user":  user.Public(),
		"token": token,
	})
}

// Login handles user login
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	user, token, err := h.authService.Login(req)
	if err != nil {
		util.Unauthorized(c, "Invalid email or password")
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Login successful", gin.H{
		"user":  user.Public(),
		"token": token,
	})
}

// AuthMiddleware validates JWT token
func (h *AuthHandler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			util.Unauthorized(c, "Authorization header required")
			c.Abort()
			return
		}

		claims, err := util.ValidateToken(token, h.jwtSecret)
		if err != nil {
			util.Unauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set("userID", claims.UserID)
		c.Set("email", claims.Email)
		c.Next()
	}
}

// OptionalAuthMiddleware sets the user identity when a valid token is
// present and lets anonymous requests through untouched
func (h *AuthHandler) OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			if claims, err := util.ValidateToken(token, h.jwtSecret); err == nil {
				c.Set("userID", claims.UserID)
				c.Set("email", claims.Email)
			}
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

// viewerID returns the authenticated user id, or "" for anonymous requests
func viewerID(c *gin.Context) string {
	if v, exists := c.Get("userID"); exists {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
