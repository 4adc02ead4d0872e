package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"devicegate/internal/services"
)

type VerifyHandler struct {
	Service *services.VerificationService
}

func NewVerifyHandler(s *services.VerificationService) *VerifyHandler {
	return &VerifyHandler{Service: s}
}

type verifyRequest struct {
	UserID              string   `json:"user_id"`
	Bot                 string   `json:"bot"`
	BotHash             string   `json:"bot_hash"`
	DeviceID            string   `json:"device_id"`
	UserAgent           *string  `json:"user_agent"`
	Platform            *string  `json:"platform"`
	Language            *string  `json:"language"`
	Timezone            *string  `json:"timezone"`
	HardwareConcurrency *int     `json:"hardware_concurrency"`
	DeviceMemory        *float64 `json:"device_memory"`
	ScreenResolution    *string  `json:"screen_resolution"`
}

func (h *VerifyHandler) Verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid json body"})
		return
	}

	result, err := h.Service.Verify(services.VerifyRequest{
		UserID:              req.UserID,
		Bot:                 req.Bot,
		BotHash:             req.BotHash,
		DeviceID:            req.DeviceID,
		UserAgent:           req.UserAgent,
		Platform:            req.Platform,
		Language:            req.Language,
		Timezone:            req.Timezone,
		HardwareConcurrency: req.HardwareConcurrency,
		DeviceMemory:        req.DeviceMemory,
		ScreenResolution:    req.ScreenResolution,
	})
	if err != nil {
		var vErr *services.ValidationError
		switch {
		case errors.As(err, &vErr):
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Missing field: " + vErr.Field})
		case errors.Is(err, services.ErrDeviceConflict):
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "This device is already verified with another account"})
		default:
			log.Printf("[verify] failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Verification failed due to server error"})
		}
		return
	}

	if result.AlreadyVerified {
		c.JSON(http.StatusOK, gin.H{
			"status":  "continue",
			"message": "User already verified",
			"attempt": result.Verification.Attempts,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       "success",
		"message":      "Device verified successfully",
		"verification": result.Verification,
	})
}

func (h *VerifyHandler) List(c *gin.Context) {
	verifications, err := h.Service.List()
	if err != nil {
		log.Printf("[verify] list failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"verifications": verifications,
		"total":         len(verifications),
	})
}

func (h *VerifyHandler) Stats(c *gin.Context) {
	stats, err := h.Service.Stats()
	if err != nil {
		log.Printf("[verify] stats failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, stats)
}
