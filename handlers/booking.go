package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	appointmentRepo "bookline/database/repository/appointment"
	ownerRepo "bookline/database/repository/owner"
	waitlistRepo "bookline/database/repository/waitlist"
	"bookline/models"
	"bookline/services/notification"
	"bookline/services/scheduling"
	"bookline/services/tasks"
)

var (
	SchedulingSvc scheduling.SchedulingService
	WaitlistMgr   scheduling.WaitlistManager
	OwnerRepo     ownerRepo.OwnerRepository
	ApptRepo      appointmentRepo.AppointmentRepository
	NotifSvc      notification.NotificationService
)

// Init wires the handler package once storage is up.
func Init() {
	OwnerRepo = ownerRepo.NewCachedOwnerRepo(ownerRepo.NewMongoOwnerRepo())
	ApptRepo = appointmentRepo.NewMongoAppointmentRepo()
	wlRepo := waitlistRepo.NewMongoWaitlistRepo()
	holds := scheduling.NewRedisHoldStore()
	NotifSvc = notification.NewDefaultNotificationService(nil)

	svc := scheduling.NewDefaultSchedulingService(OwnerRepo, ApptRepo, wlRepo, holds, NotifSvc)
	SchedulingSvc = svc
	WaitlistMgr = svc.Waitlist
}

// respondSchedulingError translates the engine's typed failures to HTTP.
func respondSchedulingError(c *gin.Context, err error) {
	var (
		notFound  *scheduling.NotFoundError
		policy    *scheduling.PolicyViolation
		conflict  *scheduling.ConflictError
		noSlot    *scheduling.NoFeasibleSlot
		duplicate *scheduling.DuplicateEntry
		wlExpired *scheduling.WaitlistExpired
	)
	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &policy):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "reason": policy.Reason})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &noSlot):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "alternatives": noSlot.Alternatives})
	case errors.As(err, &duplicate):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "entry_id": duplicate.EntryID})
	case errors.As(err, &wlExpired):
		c.JSON(http.StatusGone, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// BookAppointment finds and reserves the best slot for the request.
func BookAppointment(c *gin.Context) {
	var req models.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	result, err := SchedulingSvc.Book(c.Request.Context(), req)
	if err != nil {
		respondSchedulingError(c, err)
		return
	}
	scheduleReminders(result.Appointment)
	c.JSON(http.StatusCreated, result)
}

// CancelAppointment cancels and runs the gap-fill pass.
func CancelAppointment(c *gin.Context) {
	var req models.CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	result, err := SchedulingSvc.Cancel(c.Request.Context(), req)
	if err != nil {
		respondSchedulingError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// RescheduleAppointment moves an appointment into a new window.
func RescheduleAppointment(c *gin.Context) {
	var req models.RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	result, err := SchedulingSvc.Reschedule(c.Request.Context(), req)
	if err != nil {
		respondSchedulingError(c, err)
		return
	}
	scheduleReminders(result.Appointment)
	c.JSON(http.StatusOK, result)
}

// CompleteAppointment marks an appointment completed.
func CompleteAppointment(c *gin.Context) {
	if err := SchedulingSvc.Complete(c.Request.Context(), c.Param("id")); err != nil {
		respondSchedulingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": models.StatusCompleted})
}

// MarkNoShow records a client no-show.
func MarkNoShow(c *gin.Context) {
	if err := SchedulingSvc.MarkNoShow(c.Request.Context(), c.Param("id")); err != nil {
		respondSchedulingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": models.StatusNoShow})
}

// GetDaySchedule lists an owner's appointments for one local day.
func GetDaySchedule(c *gin.Context) {
	day, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
		return
	}
	appts, err := SchedulingSvc.DaySchedule(c.Request.Context(), c.Param("ownerID"), day)
	if err != nil {
		respondSchedulingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointments": appts})
}

// ListClientAppointments returns a client's upcoming appointments with
// an owner.
func ListClientAppointments(c *gin.Context) {
	appts, err := ApptRepo.ListActiveByClient(c.Param("ownerID"), c.Param("clientID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointments": appts})
}

// scheduleReminders enqueues reminder tasks per the owner's settings.
func scheduleReminders(appt models.Appointment) {
	settings, err := OwnerRepo.GetSettings(appt.OwnerID)
	if err != nil || settings == nil || len(settings.ReminderHours) == 0 {
		return
	}
	tasks.ScheduleReminders(appt, settings.ReminderHours)
}
