package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AtRiskMedia/cmi-charts/internal/application/services"
	"github.com/AtRiskMedia/cmi-charts/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/cmi-charts/internal/presentation/http/middleware"
)

// CookieSettings controls the session cookie attributes.
type CookieSettings struct {
	Path   string
	Secure bool
}

// AuthHandlers contains all authentication-related HTTP handlers
type AuthHandlers struct {
	authService *services.AuthService
	cookie      CookieSettings
	logger      *logging.ChanneledLogger
}

// NewAuthHandlers creates auth handlers with injected dependencies
func NewAuthHandlers(authService *services.AuthService, cookie CookieSettings, logger *logging.ChanneledLogger) *AuthHandlers {
	if cookie.Path == "" {
		cookie.Path = "/"
	}
	return &AuthHandlers{
		authService: authService,
		cookie:      cookie,
		logger:      logger,
	}
}

type loginRequest struct {
	Mail     string `json:"mail" form:"mail"`
	Password string `json:"password" form:"password"`
}

type loginResponse struct {
	Mail      string    `json:"mail"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// PostLogin handles POST /autenticazione - mail and password login
func (h *AuthHandlers) PostLogin(c *gin.Context) {
	start := time.Now()
	h.logger.Auth().Debug("Received login request", "method", c.Request.Method, "path", c.Request.URL.Path)

	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		h.logger.Auth().Debug("Login request binding failed", "error", err.Error())
		respondFailure(c, services.ErrInvalidCredentials)
		return
	}

	result, err := h.authService.Login(req.Mail, req.Password, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		if !errors.Is(err, services.ErrInvalidCredentials) {
			h.logger.Auth().Error("Login failed", "error", err.Error(), "duration", time.Since(start))
			respondFailure(c, errors.New("errore interno"))
			return
		}
		h.logger.Auth().Warn("Login attempt failed", "remoteAddr", c.ClientIP(), "duration", time.Since(start))
		respondFailure(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		middleware.SessionCookie,
		result.Token,
		int(h.authService.Lifetime().Seconds()),
		h.cookie.Path,
		"",
		h.cookie.Secure,
		true,
	)

	h.logger.Auth().Info("Login successful", "userId", result.User.ID, "duration", time.Since(start))
	respondValue(c, loginResponse{Mail: result.User.Mail, ExpiresAt: result.ExpiresAt})
}

// GetLogout handles GET /disconnessione - records the logout, clears the
// cookie and goes back to the dashboard
func (h *AuthHandlers) GetLogout(c *gin.Context) {
	if session, ok := middleware.GetSession(c); ok {
		if err := h.authService.Logout(session, c.ClientIP(), c.Request.UserAgent()); err != nil {
			h.logger.Auth().Error("Failed to record logout", "userId", session.UserID, "error", err.Error())
		}
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, "", -1, h.cookie.Path, "", h.cookie.Secure, true)
	c.Redirect(http.StatusFound, strings.TrimRight(h.cookie.Path, "/")+"/")
}
