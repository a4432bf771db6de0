package tasks

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bookline/config"
	"bookline/models"
	"bookline/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const TypeSendReminder = "reminder:send"

// NewReminderTask builds a reminder task that fires at the given time.
func NewReminderTask(payload models.ReminderPayload, fireAt time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeSendReminder, b)
	// A stable task ID makes enqueueing idempotent: the backstop scan
	// can re-submit without doubling up pending reminders.
	opts := []asynq.Option{asynq.ProcessAt(fireAt), asynq.TaskID(TaskID(payload))}

	return task, opts, nil
}

// Client is the shared asynq client for enqueueing tasks.
var Client *asynq.Client

// InitClient creates the asynq client on the queue DB.
func InitClient() {
	Client = asynq.NewClient(asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	})
}

// ScheduleReminders enqueues one reminder task per configured offset
// for the appointment, skipping offsets already in the past.
func ScheduleReminders(appt models.Appointment, hoursBefore []int) {
	if Client == nil {
		return
	}
	logger := utils.GetLogger()
	now := time.Now()
	for _, h := range hoursBefore {
		fireAt := appt.Start.Add(-time.Duration(h) * time.Hour)
		if fireAt.Before(now) {
			continue
		}
		payload := models.ReminderPayload{AppointmentID: appt.ID, HoursBefore: h}
		task, opts, err := NewReminderTask(payload, fireAt)
		if err != nil {
			logger.Warn("failed to build reminder task",
				zap.String("appointment_id", appt.ID), zap.Error(err))
			continue
		}
		if _, err := Client.Enqueue(task, opts...); err != nil {
			if errors.Is(err, asynq.ErrTaskIDConflict) {
				continue
			}
			logger.Warn("failed to enqueue reminder task",
				zap.String("appointment_id", appt.ID),
				zap.Int("hours_before", h),
				zap.Error(err))
		}
	}
}

// TaskID renders the stable task identifier, also used in logs.
func TaskID(p models.ReminderPayload) string {
	return fmt.Sprintf("%s@-%dh", p.AppointmentID, p.HoursBefore)
}
