package handlers

import (
	"net/http"
	"time"

	"todo-api/backend/internal/services"

	"github.com/gin-gonic/gin"
)

// CookieConfig describes the session cookie. SameSite defaults to strict;
// SameSiteNoneMode always sets Secure.
type CookieConfig struct {
	Name     string
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

type AuthHandler struct {
	authService services.AuthService
	cookie      CookieConfig
}

func NewAuthHandler(authService services.AuthService, cookie CookieConfig) *AuthHandler {
	if cookie.Name == "" {
		cookie.Name = "token"
	}
	if cookie.SameSite == 0 || cookie.SameSite == http.SameSiteDefaultMode {
		cookie.SameSite = http.SameSiteStrictMode
	}
	if cookie.SameSite == http.SameSiteNoneMode {
		cookie.Secure = true
	}
	return &AuthHandler{authService: authService, cookie: cookie}
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, session *services.Session) {
	maxAge := int(time.Until(session.ExpiresAt).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	c.SetSameSite(h.cookie.SameSite)
	c.SetCookie(h.cookie.Name, session.Token, maxAge, "/", h.cookie.Domain, h.cookie.Secure, true)
}

func (h *AuthHandler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(h.cookie.SameSite)
	c.SetCookie(h.cookie.Name, "", -1, "/", h.cookie.Domain, h.cookie.Secure, true)
}

func (h *AuthHandler) Register(c *gin.Context) {
	var input services.RegisterInput
	if !bindJSON(c, &input) {
		return
	}

	result, err := h.authService.Register(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}

	h.setSessionCookie(c, result.Session)
	c.JSON(http.StatusCreated, gin.H{
		"message": "Signed in successfully",
		"success": true,
		"user":    result.User,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var input services.LoginInput
	if !bindJSON(c, &input) {
		return
	}

	result, err := h.authService.Login(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}

	h.setSessionCookie(c, result.Session)
	c.JSON(http.StatusOK, gin.H{
		"message": "Logged in successfully",
		"success": true,
		"user":    result.User,
	})
}

// Logout always clears the cookie. A revocation failure is recorded on the
// context for the request log but does not change the response.
func (h *AuthHandler) Logout(c *gin.Context) {
	if token, err := c.Cookie(h.cookie.Name); err == nil && token != "" {
		if err := h.authService.Logout(c.Request.Context(), token); err != nil {
			_ = c.Error(err)
		}
	}

	h.clearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully",
		"success": true,
	})
}
