package controllers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/peochain/peochain-api/services"
	"github.com/peochain/peochain-api/utils"
)

// WaitlistController handles the public signup flow
type WaitlistController struct {
	service *services.WaitlistService
}

// NewWaitlistController creates a new WaitlistController
func NewWaitlistController(service *services.WaitlistService) *WaitlistController {
	return &WaitlistController{service: service}
}

// JoinWaitlistRequest is the signup request body. Website is a honeypot:
// humans never see the field, so any value means a bot filled the form.
type JoinWaitlistRequest struct {
	FullName   string                 `json:"fullName"`
	Email      string                 `json:"email"`
	ReferredBy string                 `json:"referredBy"`
	UserType   string                 `json:"userType"`
	Metadata   map[string]interface{} `json:"metadata"`
	Website    string                 `json:"website"`
}

// Join handles POST /api/waitlist
func (wc *WaitlistController) Join(c *gin.Context) {
	utils.LogInfo("Join waitlist called")

	var req JoinWaitlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError("Invalid signup request body: %v", err)
		utils.BadRequest(c, "Invalid request body", err.Error())
		return
	}

	if req.Website != "" {
		// Honeypot tripped: answer like a success so the bot learns
		// nothing, store nothing
		utils.LogInfo("Honeypot tripped from %s, dropping signup", c.ClientIP())
		utils.Created(c, "You're on the waitlist!", nil)
		return
	}

	result, err := wc.service.JoinWaitlist(c.Request.Context(), services.SignupRequest{
		FullName:   req.FullName,
		Email:      req.Email,
		ReferredBy: req.ReferredBy,
		UserType:   req.UserType,
		Metadata:   req.Metadata,
	})
	if err != nil {
		var fieldErr *services.FieldError
		switch {
		case errors.As(err, &fieldErr):
			utils.LogDebug("Signup validation failed: %v", fieldErr)
			utils.BadRequest(c, fieldErr.Message, gin.H{"field": fieldErr.Field})
		case errors.Is(err, services.ErrDuplicateEmail):
			utils.LogDebug("Duplicate signup attempt from %s", c.ClientIP())
			utils.Conflict(c, "This email is already on the waitlist", nil)
		default:
			utils.LogError("Signup failed: %v", err)
			utils.InternalServerError(c, "Something went wrong. Please try again later.", nil)
		}
		return
	}

	utils.Created(c, "You're on the waitlist!", result)
}

// Count handles GET /api/waitlist/count for the landing-page counter
func (wc *WaitlistController) Count(c *gin.Context) {
	count, err := wc.service.Count(c.Request.Context())
	if err != nil {
		utils.LogError("Failed to count waitlist entries: %v", err)
		utils.InternalServerError(c, "Failed to load waitlist count", nil)
		return
	}
	utils.Success(c, "Waitlist count retrieved", gin.H{"count": count})
}

// Referrer handles GET /api/waitlist/referral/:code for the referral
// landing page
func (wc *WaitlistController) Referrer(c *gin.Context) {
	code := c.Param("code")

	entry, err := wc.service.GetByReferralCode(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, services.ErrEntryNotFound) {
			utils.NotFound(c, "Referral code not found")
			return
		}
		utils.LogError("Failed to resolve referral code %s: %v", code, err)
		utils.InternalServerError(c, "Failed to look up referral code", nil)
		return
	}

	utils.Success(c, "Referrer retrieved", gin.H{
		"full_name":      entry.FullName,
		"referral_code":  entry.ReferralCode,
		"referral_count": entry.ReferralCount,
	})
}
