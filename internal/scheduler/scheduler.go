// Package scheduler runs the periodic study-reminder job.
package scheduler

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/example/legendas/internal/database"
)

// Default quiet-hours window: reminders only go out between these hours.
const (
	DefaultReminderStartHour = 8
	DefaultReminderEndHour   = 22
)

// Notifier delivers a reminder to a user's chat.
type Notifier interface {
	SendReminder(chatID int64, dueCount int) error
}

// Scheduler manages the application's recurring jobs.
type Scheduler struct {
	scheduler *gocron.Scheduler
	notifier  Notifier
	users     *database.UserRepository
	log       *zap.SugaredLogger
}

// New creates a scheduler instance.
func New(notifier Notifier, log *zap.SugaredLogger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		notifier:  notifier,
		users:     database.NewUserRepository(),
		log:       log,
	}
}

// Start schedules the hourly reminder check and runs it in the background.
func (s *Scheduler) Start() {
	s.scheduler.Every(1).Hour().Do(s.checkAndSendReminders)
	s.scheduler.StartAsync()
}

// Stop terminates all scheduled jobs.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) checkAndSendReminders() {
	currentHour := time.Now().UTC().Hour()
	startHour := hourFromEnv("REMINDER_START_HOUR", DefaultReminderStartHour)
	endHour := hourFromEnv("REMINDER_END_HOUR", DefaultReminderEndHour)

	if currentHour < startHour || currentHour > endHour {
		s.log.Debugw("outside reminder hours, skipping",
			"hour", currentHour, "start", startHour, "end", endHour)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	users, err := s.users.GetWithTelegram(ctx)
	if err != nil {
		s.log.Errorw("failed to load users for reminders", "error", err)
		return
	}

	now := time.Now().UTC()
	for _, user := range users {
		count, err := s.users.CountDueCards(ctx, user.ID, now)
		if err != nil {
			s.log.Errorw("failed to count due cards", "user_id", user.ID, "error", err)
			continue
		}
		if count == 0 {
			continue
		}
		if err := s.notifier.SendReminder(user.TelegramChatID, count); err != nil {
			s.log.Errorw("failed to send reminder", "user_id", user.ID, "error", err)
		}
	}
}

// RunManualCheck sends a reminder to one user immediately if they have
// due cards.
func (s *Scheduler) RunManualCheck(ctx context.Context, userID int64) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.TelegramChatID == 0 {
		return nil
	}
	count, err := s.users.CountDueCards(ctx, userID, time.Now().UTC())
	if err != nil {
		return err
	}
	if count == 0 {
		return nil
	}
	return s.notifier.SendReminder(user.TelegramChatID, count)
}

func hourFromEnv(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if h, err := strconv.Atoi(v); err == nil && h >= 0 && h <= 23 {
			return h
		}
	}
	return fallback
}
