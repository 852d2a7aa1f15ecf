// Package handler serves the auth routes over HTTP, translating requests into AuthService calls
// and service errors into the response envelope.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"phone-otp-auth/internal/identity/service"
	"phone-otp-auth/internal/security"
	"phone-otp-auth/internal/server/middleware"
	"phone-otp-auth/internal/server/response"
)

// AuthService is the subset of service.AuthService the handler calls.
type AuthService interface {
	RequestCode(ctx context.Context, phoneNumber, countryCode string) (*service.RequestCodeResult, error)
	Login(ctx context.Context, phoneNumber, countryCode, code string) (*security.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*security.TokenPair, error)
	IssueAnonymousToken(ctx context.Context, callerIsAnonymous bool) (*security.AnonymousToken, error)
	Logout(ctx context.Context, isAuthenticated bool) error
}

// Handler serves /v1 auth routes.
type Handler struct {
	svc AuthService
}

// New returns a handler backed by svc.
func New(svc AuthService) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the auth routes on g. preAuth guards the routes that need an anonymous token.
func (h *Handler) Register(g *gin.RouterGroup, preAuth gin.HandlerFunc) {
	g.POST("/verification-code/get", preAuth, h.RequestCode)
	g.POST("/login/login", preAuth, h.Login)
	g.POST("/login/logout", h.Logout)
	g.GET("/anonymous/generate-token", h.GenerateAnonymousToken)
	g.POST("/token/refresh", preAuth, h.Refresh)
}

type requestCodeRequest struct {
	PhoneNumber string `json:"phone_number" binding:"required"`
	CountryCode string `json:"country_code" binding:"required"`
}

type loginRequest struct {
	PhoneNumber      string `json:"phone_number" binding:"required"`
	CountryCode      string `json:"country_code" binding:"required"`
	VerificationCode string `json:"verification_code" binding:"required"`
}

type refreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

type tokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type anonymousTokenResponse struct {
	AnonymousToken string    `json:"anonymous_token"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// RequestCode handles POST /v1/verification-code/get.
func (h *Handler) RequestCode(c *gin.Context) {
	var req requestCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, service.ErrInvalidInput)
		return
	}
	res, err := h.svc.RequestCode(c.Request.Context(), req.PhoneNumber, req.CountryCode)
	if err != nil {
		writeError(c, err)
		return
	}
	if res.Registered {
		response.OK(c, http.StatusCreated, "user registered", nil)
		return
	}
	response.OK(c, http.StatusOK, "verification code sent", nil)
}

// Login handles POST /v1/login/login.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, service.ErrInvalidInput)
		return
	}
	pair, err := h.svc.Login(c.Request.Context(), req.PhoneNumber, req.CountryCode, req.VerificationCode)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, http.StatusOK, "user logged in", tokenPairResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

// Logout handles POST /v1/login/logout.
func (h *Handler) Logout(c *gin.Context) {
	if err := h.svc.Logout(c.Request.Context(), middleware.IsAuthenticated(c.Request.Context())); err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, http.StatusOK, "user logged out", nil)
}

// GenerateAnonymousToken handles GET /v1/anonymous/generate-token.
func (h *Handler) GenerateAnonymousToken(c *gin.Context) {
	tok, err := h.svc.IssueAnonymousToken(c.Request.Context(), middleware.IsAnonymous(c.Request.Context()))
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, http.StatusOK, "anonymous token created", anonymousTokenResponse{AnonymousToken: tok.Token, ExpiresAt: tok.ExpiresAt})
}

// Refresh handles POST /v1/token/refresh.
func (h *Handler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, service.ErrInvalidInput)
		return
	}
	pair, err := h.svc.Refresh(c.Request.Context(), req.Refresh)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, http.StatusOK, "token refreshed", tokenPairResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}
