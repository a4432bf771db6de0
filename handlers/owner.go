package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bookline/models"
)

// RegisterOwner creates a business owner.
func RegisterOwner(c *gin.Context) {
	var input struct {
		Name     string `json:"name" binding:"required"`
		Phone    string `json:"phone" binding:"required"`
		Timezone string `json:"timezone" binding:"required"`
		Intent   string `json:"intent"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	if _, err := time.LoadLocation(input.Timezone); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown timezone"})
		return
	}
	intent := input.Intent
	if intent == "" {
		intent = models.IntentBalanced
	}
	if !models.ValidIntent(intent) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown intent"})
		return
	}

	existing, err := OwnerRepo.GetOwnerByPhone(input.Phone)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "an owner with this phone already exists"})
		return
	}

	owner := &models.Owner{
		ID:       uuid.NewString(),
		Name:     input.Name,
		Phone:    input.Phone,
		Timezone: input.Timezone,
		Intent:   intent,
	}
	if err := OwnerRepo.CreateOwner(owner); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, owner)
}

// CreateService adds a bookable offering for an owner.
func CreateService(c *gin.Context) {
	var input struct {
		OwnerID     string `json:"owner_id" binding:"required"`
		Name        string `json:"name" binding:"required"`
		DurationMin int    `json:"duration_min" binding:"required"`
		BufferMin   int    `json:"buffer_min"`
		PriceCents  int    `json:"price_cents"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	if input.DurationMin <= 0 || input.BufferMin < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "duration must be positive and buffer non-negative"})
		return
	}

	svc := &models.Service{
		ID:          uuid.NewString(),
		OwnerID:     input.OwnerID,
		Name:        input.Name,
		DurationMin: input.DurationMin,
		BufferMin:   input.BufferMin,
		PriceCents:  input.PriceCents,
		Active:      true,
	}
	if err := OwnerRepo.CreateService(svc); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, svc)
}

// ListServices lists an owner's active services.
func ListServices(c *gin.Context) {
	services, err := OwnerRepo.ListServices(c.Param("ownerID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"services": services})
}

// RetireService soft-toggles a service off without touching history.
func RetireService(c *gin.Context) {
	svc, err := OwnerRepo.GetServiceByID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if svc == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "service not found"})
		return
	}
	svc.Active = false
	if err := OwnerRepo.UpdateService(svc); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, svc)
}

// RegisterClient creates a customer record for an owner.
func RegisterClient(c *gin.Context) {
	var input struct {
		OwnerID          string `json:"owner_id" binding:"required"`
		Phone            string `json:"phone" binding:"required"`
		Name             string `json:"name"`
		Tier             int    `json:"tier"`
		OptInMoveEarlier bool   `json:"opt_in_move_earlier"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	existing, err := OwnerRepo.GetClientByPhone(input.OwnerID, input.Phone)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if existing != nil {
		c.JSON(http.StatusOK, existing)
		return
	}

	client := &models.Client{
		ID:               uuid.NewString(),
		OwnerID:          input.OwnerID,
		Phone:            input.Phone,
		Name:             input.Name,
		Tier:             input.Tier,
		OptInMoveEarlier: input.OptInMoveEarlier,
	}
	if err := OwnerRepo.CreateClient(client); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, client)
}

// UpsertSettings saves an owner's scheduling policy.
func UpsertSettings(c *gin.Context) {
	var settings models.Settings
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	settings.OwnerID = c.Param("ownerID")
	if settings.DayEndMin <= settings.DayStartMin {
		c.JSON(http.StatusBadRequest, gin.H{"error": "day end must be after day start"})
		return
	}
	if err := OwnerRepo.UpsertSettings(&settings); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, settings)
}

// SwitchIntent changes the owner's optimization intent.
func SwitchIntent(c *gin.Context) {
	var input struct {
		Intent string `json:"intent" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	if err := SchedulingSvc.SwitchIntent(c.Request.Context(), c.Param("ownerID"), input.Intent); err != nil {
		respondSchedulingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"intent": input.Intent})
}

// GetAuditTrail returns the owner's most recent engine actions.
func GetAuditTrail(c *gin.Context) {
	entries, err := OwnerRepo.ListAudit(c.Param("ownerID"), 100)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
