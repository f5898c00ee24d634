package bot

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/studydeck/internal/database"
	"github.com/example/studydeck/internal/scheduler"
	"github.com/example/studydeck/pkg/models"
)

// Bot is the Telegram delivery surface: a few read-only study commands
// plus reminder pushes from the daemon.
type Bot struct {
	api       *tgbotapi.BotAPI
	scheduler *scheduler.Scheduler
	users     *database.UserRepository
	config    *BotConfig
}

// New creates a new bot instance
func New(token string, sched *scheduler.Scheduler) (*Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token is empty")
	}
	if database.DB == nil {
		return nil, fmt.Errorf("database connection is not established")
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	return &Bot{
		api:       api,
		scheduler: sched,
		users:     database.NewUserRepository(),
		config:    DefaultConfig(),
	}, nil
}

// Start begins polling for updates until the context is cancelled
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = b.config.UpdateTimeoutSeconds

	updates := b.api.GetUpdatesChan(updateConfig)
	log.Printf("Bot authorized as @%s", b.api.Self.UserName)

	for {
		select {
		case update := <-updates:
			b.handleUpdate(ctx, update)
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		}
	}
}

// SendReminders notifies a user about due cards
func (b *Bot) SendReminders(userID int64, count int) error {
	text := fmt.Sprintf("You have %d cards due for review. Send /today to see the plan.", count)
	if count == 1 {
		text = "You have 1 card due for review. Send /today to see the plan."
	}
	msg := tgbotapi.NewMessage(userID, text)
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send reminder: %w", err)
	}
	return nil
}

// handleUpdate dispatches a single Telegram update
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil || update.Message.From == nil || !update.Message.IsCommand() {
		return
	}
	message := update.Message

	switch message.Command() {
	case "start":
		b.handleStart(ctx, message)
	case "due":
		b.handleDue(ctx, message)
	case "today":
		b.handlePlan(ctx, message, time.Now().UTC())
	case "preview":
		b.handlePreview(ctx, message)
	default:
		b.reply(message.Chat.ID, "Unknown command. Try /due, /today or /preview <days>.")
	}
}

func (b *Bot) handleStart(ctx context.Context, message *tgbotapi.Message) {
	user := &models.User{
		ID:                  message.From.ID,
		Username:            message.From.UserName,
		NotificationEnabled: true,
		NotificationHour:    b.config.DefaultNotificationHour,
	}
	if err := b.users.CreateIfAbsent(ctx, user); err != nil {
		log.Printf("Error registering user %d: %v", message.From.ID, err)
		b.reply(message.Chat.ID, "Something went wrong, please try again.")
		return
	}
	b.reply(message.Chat.ID, "Welcome! Your study reminders are on. Use /due to see how many cards are waiting.")
}

func (b *Bot) handleDue(ctx context.Context, message *tgbotapi.Message) {
	due, err := b.scheduler.CardsDueNow(ctx, message.From.ID)
	if err != nil {
		log.Printf("Error getting due cards for user %d: %v", message.From.ID, err)
		b.reply(message.Chat.ID, "Something went wrong, please try again.")
		return
	}
	if len(due) == 0 {
		b.reply(message.Chat.ID, "Nothing due right now. 🎉")
		return
	}
	b.reply(message.Chat.ID, fmt.Sprintf("%d cards are due right now.", len(due)))
}

func (b *Bot) handlePreview(ctx context.Context, message *tgbotapi.Message) {
	days, err := strconv.Atoi(strings.TrimSpace(message.CommandArguments()))
	if err != nil || days < 0 {
		b.reply(message.Chat.ID, "Usage: /preview <days ahead>")
		return
	}
	b.handlePlan(ctx, message, time.Now().UTC().AddDate(0, 0, days))
}

func (b *Bot) handlePlan(ctx context.Context, message *tgbotapi.Message, date time.Time) {
	reviews, err := b.scheduler.TopicsDue(ctx, message.From.ID, date)
	if err != nil {
		log.Printf("Error getting review plan for user %d: %v", message.From.ID, err)
		b.reply(message.Chat.ID, "Something went wrong, please try again.")
		return
	}
	if len(reviews) == 0 {
		b.reply(message.Chat.ID, "No topics to review on that day.")
		return
	}

	var text strings.Builder
	fmt.Fprintf(&text, "Review plan for %s:\n", date.Format("Mon, 2 Jan"))
	for _, r := range reviews {
		fmt.Fprintf(&text, "• %s — %d cards (~%s)\n",
			r.Topic.Title, r.CardsCount, approxDuration(r.ApproxTime))
	}
	b.reply(message.Chat.ID, text.String())
}

// reply sends a plain text message, logging failures
func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Error sending message to chat %d: %v", chatID, err)
	}
}

// approxDuration renders an estimated answer time in whole minutes
func approxDuration(seconds float64) string {
	d := time.Duration(seconds) * time.Second
	if d < time.Minute {
		return "1 min"
	}
	return fmt.Sprintf("%d min", int(d.Round(time.Minute).Minutes()))
}
