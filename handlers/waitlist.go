package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bookline/models"
)

// EnqueueWaitlist adds a standing request for a service and window.
func EnqueueWaitlist(c *gin.Context) {
	var input struct {
		OwnerID   string          `json:"owner_id" binding:"required"`
		ClientID  string          `json:"client_id" binding:"required"`
		ServiceID string          `json:"service_id" binding:"required"`
		Window    models.Interval `json:"window" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	if !input.Window.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "window end must be after start"})
		return
	}

	entry := &models.WaitlistEntry{
		OwnerID:   input.OwnerID,
		ClientID:  input.ClientID,
		ServiceID: input.ServiceID,
		Window:    input.Window,
	}
	if err := WaitlistMgr.Enqueue(c.Request.Context(), entry); err != nil {
		respondSchedulingError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// ClaimOffer books the held interval of an offered entry.
func ClaimOffer(c *gin.Context) {
	result, err := SchedulingSvc.ClaimOffer(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondSchedulingError(c, err)
		return
	}
	scheduleReminders(result.Appointment)
	c.JSON(http.StatusOK, result)
}

// WithdrawWaitlist removes a client's standing request.
func WithdrawWaitlist(c *gin.Context) {
	if err := WaitlistMgr.Withdraw(c.Request.Context(), c.Param("id")); err != nil {
		respondSchedulingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": models.WaitlistWithdrawn})
}

// ListClientWaitlist returns a client's live entries with an owner.
func ListClientWaitlist(c *gin.Context) {
	entries, err := WaitlistMgr.ListForClient(c.Request.Context(), c.Param("ownerID"), c.Param("clientID"))
	if err != nil {
		respondSchedulingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
