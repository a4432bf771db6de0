package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"bookline/config"
	appointmentRepo "bookline/database/repository/appointment"
	ownerRepo "bookline/database/repository/owner"
	"bookline/models"
	"bookline/services/notification"
	"bookline/services/scheduling"
	"bookline/services/tasks"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
)

const (
	TypeWaitlistSweep    = "waitlist:sweep"
	TypeReminderBackstop = "reminder:backstop"
)

// backstopHorizon bounds how far ahead the reminder backstop scans.
const backstopHorizon = 48 * time.Hour

// InitWorker runs the background worker: scheduled reminder tasks, the
// periodic waitlist hold sweep, and the reminder backstop.
func InitWorker(notifSvc notification.NotificationService, appts appointmentRepo.AppointmentRepository, owners ownerRepo.OwnerRepository, waitlist scheduling.WaitlistManager) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeSendReminder, handleReminderTask(notifSvc, appts))
	mux.HandleFunc(TypeWaitlistSweep, handleSweepTask(waitlist))
	mux.HandleFunc(TypeReminderBackstop, handleBackstopTask(appts, owners))

	// Start Redis health monitor
	go monitorRedisConnection()

	go runScheduler(redisOpts)

	// Start async worker with retry logic
	go func() {
		log.Println("[Worker] Starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[Worker] Attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[Worker] Max retry attempts reached. Exiting.")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second) // Exponential backoff
			} else {
				break
			}
		}
	}()
}

// runScheduler registers the periodic sweep so abandoned offers cannot
// wedge a slot between cancellations.
func runScheduler(redisOpts asynq.RedisClientOpt) {
	scheduler := asynq.NewScheduler(redisOpts, nil)
	spec := fmt.Sprintf("@every %s", config.SweepInterval())
	if _, err := scheduler.Register(spec, asynq.NewTask(TypeWaitlistSweep, nil)); err != nil {
		log.Printf("[Worker] Failed to register sweep task: %v", err)
		return
	}
	if _, err := scheduler.Register("@every 30m", asynq.NewTask(TypeReminderBackstop, nil)); err != nil {
		log.Printf("[Worker] Failed to register reminder backstop: %v", err)
		return
	}
	if err := scheduler.Run(); err != nil {
		log.Printf("[Worker] Scheduler stopped: %v", err)
	}
}

func handleReminderTask(notifSvc notification.NotificationService, appts appointmentRepo.AppointmentRepository) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.ReminderPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			log.Printf("[ReminderHandler] Invalid payload: %v", err)
			return err
		}

		appt, err := appts.GetByID(p.AppointmentID)
		if err != nil {
			return err
		}
		// The appointment may have been cancelled or rescheduled since
		// the task was enqueued.
		if appt == nil || !appt.IsActive() {
			log.Printf("[ReminderHandler] Skipping %s: appointment no longer active", tasks.TaskID(p))
			return nil
		}

		notifSvc.Reminder(ctx, *appt, p.HoursBefore)
		return nil
	}
}

// handleBackstopTask re-enqueues reminders for upcoming appointments,
// catching any that were booked while the queue was unreachable. Task
// IDs keep already-queued reminders from doubling up.
func handleBackstopTask(appts appointmentRepo.AppointmentRepository, owners ownerRepo.OwnerRepository) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		now := time.Now()
		upcoming, err := appts.ListStartingBetween(now, now.Add(backstopHorizon))
		if err != nil {
			log.Printf("[BackstopHandler] Failed to list upcoming appointments: %v", err)
			return err
		}
		for _, appt := range upcoming {
			settings, err := owners.GetSettings(appt.OwnerID)
			if err != nil || settings == nil || len(settings.ReminderHours) == 0 {
				continue
			}
			tasks.ScheduleReminders(appt, settings.ReminderHours)
		}
		return nil
	}
}

func handleSweepTask(waitlist scheduling.WaitlistManager) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		reverted, err := waitlist.Sweep(ctx)
		if err != nil {
			log.Printf("[SweepHandler] Sweep failed: %v", err)
			return err
		}
		if reverted > 0 {
			log.Printf("[SweepHandler] Reverted %d lapsed offers", reverted)
		}
		return nil
	}
}

// monitorRedisConnection pings Redis periodically to detect failures at runtime.
func monitorRedisConnection() {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	})

	ctx := context.Background()

	for {
		if err := client.Ping(ctx).Err(); err != nil {
			log.Printf("[Worker] Redis connection lost: %v", err)
		}
		time.Sleep(10 * time.Second)
	}
}
