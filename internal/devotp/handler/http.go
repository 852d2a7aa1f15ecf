// Package handler serves the dev-only code lookup route.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"phone-otp-auth/internal/devotp"
	"phone-otp-auth/internal/phone"
)

const devOTPNote = "DEV MODE ONLY"

// Handler reads delivered codes from the dev store. Only registered when dev OTP mode is enabled
// and the environment is not production.
type Handler struct {
	store devotp.Store
}

// New returns a handler that reads codes from store.
func New(store devotp.Store) *Handler {
	return &Handler{store: store}
}

// Register mounts GET /dev/otp on r.
func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/dev/otp", h.GetOTP)
}

// GetOTP returns the last code delivered to ?phone_number=&country_code=.
func (h *Handler) GetOTP(c *gin.Context) {
	normalized, err := phone.Normalize(c.Query("phone_number"), c.Query("country_code"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "phone_number and country_code are required and must be valid"})
		return
	}
	code, ok := h.store.Get(c.Request.Context(), normalized)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "OTP not found or expired"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"otp": code, "phone_number": normalized, "note": devOTPNote})
}
