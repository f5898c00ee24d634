package reminder

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/example/studydeck/internal/database"
	"github.com/example/studydeck/internal/scheduler"
)

// Default notification window
const (
	DefaultStartHour = 8  // Earliest hour reminders go out
	DefaultEndHour   = 22 // Latest hour reminders go out
)

// Notifier interface for sending notifications
type Notifier interface {
	SendReminders(userID int64, count int) error
}

// Daemon periodically checks for users with due cards and pushes
// reminders through the notifier. The scheduling core stays pull-based;
// the daemon only reads it.
type Daemon struct {
	cron     *gocron.Scheduler
	study    *scheduler.Scheduler
	notifier Notifier
	users    *database.UserRepository
}

// New creates a reminder daemon
func New(study *scheduler.Scheduler, notifier Notifier) *Daemon {
	return &Daemon{
		cron:     gocron.NewScheduler(time.UTC),
		study:    study,
		notifier: notifier,
		users:    database.NewUserRepository(),
	}
}

// Start begins the hourly reminder check without blocking
func (d *Daemon) Start() {
	d.cron.Every(1).Hour().Do(d.checkAndSendReminders)
	d.cron.StartAsync()
}

// Stop terminates all scheduled checks
func (d *Daemon) Stop() {
	d.cron.Stop()
}

// checkAndSendReminders notifies every user whose reminder hour is now
// and who has cards waiting.
func (d *Daemon) checkAndSendReminders() {
	currentHour := time.Now().UTC().Hour()

	startHour := hourFromEnv("NOTIFICATION_START_HOUR", DefaultStartHour)
	endHour := hourFromEnv("NOTIFICATION_END_HOUR", DefaultEndHour)
	if currentHour < startHour || currentHour > endHour {
		log.Printf("Current hour %d is outside notification hours (%d-%d), skipping reminders",
			currentHour, startHour, endHour)
		return
	}

	ctx := context.Background()
	users, err := d.users.GetUsersForNotification(ctx, currentHour)
	if err != nil {
		log.Printf("Error getting users for notification: %v", err)
		return
	}

	for _, user := range users {
		due, err := d.study.CardsDueNow(ctx, user.ID)
		if err != nil {
			log.Printf("Error getting due cards for user %d: %v", user.ID, err)
			continue
		}
		if len(due) == 0 {
			continue
		}
		if err := d.notifier.SendReminders(user.ID, len(due)); err != nil {
			log.Printf("Error sending reminder to user %d: %v", user.ID, err)
		}
	}
}

// RunManualCheck forces a reminder check for a specific user
func (d *Daemon) RunManualCheck(ctx context.Context, userID int64) error {
	due, err := d.study.CardsDueNow(ctx, userID)
	if err != nil {
		return err
	}
	if len(due) > 0 {
		return d.notifier.SendReminders(userID, len(due))
	}
	return nil
}

// hourFromEnv reads an hour override from the environment
func hourFromEnv(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if h, err := strconv.Atoi(s); err == nil && h >= 0 && h <= 23 {
			return h
		}
	}
	return fallback
}
