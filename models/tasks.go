package models

// ReminderPayload is the body of a scheduled reminder task.
type ReminderPayload struct {
	AppointmentID string `json:"appointment_id"`
	HoursBefore   int    `json:"hours_before"`
}
