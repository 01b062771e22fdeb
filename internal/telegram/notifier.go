package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"openward/shared/reminders"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// Sender is the part of the Telegram bot API the notifier uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier posts overdue reminders to the ward chat.
type Notifier struct {
	sender   Sender
	chatID   int64
	wardName string
	location *time.Location
	logger   *zerolog.Logger
}

var _ reminders.Notifier = (*Notifier)(nil)

// NewBot connects to Telegram with token.
func NewBot(token string, debug bool) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	bot.Debug = debug
	return bot, nil
}

// NewNotifier sends alerts for wardName to chatID. Times are shown in loc.
func NewNotifier(sender Sender, chatID int64, wardName string, loc *time.Location, logger *zerolog.Logger) *Notifier {
	if loc == nil {
		loc = time.Local
	}
	return &Notifier{
		sender:   sender,
		chatID:   chatID,
		wardName: wardName,
		location: loc,
		logger:   logger,
	}
}

// SendAlert sends one overdue reminder. Telegram API failures are returned
// as *reminders.DeliveryError so the alert sender can apply its retry rules.
func (n *Notifier) SendAlert(ctx context.Context, r reminders.Reminder) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(n.chatID, FormatAlert(n.wardName, r, n.location))
	msg.DisableWebPagePreview = true

	if _, err := n.sender.Send(msg); err != nil {
		return toDeliveryError(err)
	}

	n.logger.Debug().
		Str("reminder_id", r.ID).
		Int64("chat_id", n.chatID).
		Msg("telegram alert delivered")
	return nil
}

func toDeliveryError(err error) error {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		return &reminders.DeliveryError{
			Code:       apiErr.Code,
			Message:    apiErr.Message,
			RetryAfter: apiErr.RetryAfter,
		}
	}
	var valErr tgbotapi.Error
	if errors.As(err, &valErr) {
		return &reminders.DeliveryError{
			Code:       valErr.Code,
			Message:    valErr.Message,
			RetryAfter: valErr.RetryAfter,
		}
	}
	return err
}

// FormatAlert renders the alert text for r.
func FormatAlert(wardName string, r reminders.Reminder, loc *time.Location) string {
	var b strings.Builder

	switch r.Kind {
	case reminders.ReminderKindMedication:
		fmt.Fprintf(&b, "⚠️ Overdue medication: %s\n", r.Title)
	case reminders.ReminderKindMeal:
		fmt.Fprintf(&b, "⚠️ %s not logged\n", r.Title)
	default:
		fmt.Fprintf(&b, "⚠️ Overdue: %s\n", r.Title)
	}

	fmt.Fprintf(&b, "Patient: %s (bed %s)\n", r.PatientName, r.BedNumber)
	if r.Kind == reminders.ReminderKindMedication {
		if r.Detail != "" {
			fmt.Fprintf(&b, "Dose: %s\n", r.Detail)
		}
		fmt.Fprintf(&b, "Since: %s\n", r.Time.In(loc).Format("02 Jan 15:04"))
	}
	if wardName != "" {
		fmt.Fprintf(&b, "Ward: %s", wardName)
	}

	return strings.TrimRight(b.String(), "\n")
}
