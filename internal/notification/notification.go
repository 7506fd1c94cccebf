package notification

import (
	"context"
	"log/slog"
	"strings"
)

const (
	// KindTopUp indicates a completed top-up.
	KindTopUp = "topup_completed"
	// KindBonus indicates a granted bonus.
	KindBonus = "bonus_granted"
	// KindSpend indicates a completed spend.
	KindSpend = "spend_completed"
)

// KindForTransaction maps a transaction kind to a notification kind.
func KindForTransaction(txKind string) string {
	switch strings.ToUpper(txKind) {
	case "TOP_UP":
		return KindTopUp
	case "BONUS":
		return KindBonus
	default:
		return KindSpend
	}
}

// Message describes a notification payload.
type Message struct {
	Kind        string
	Destination string
	Body        string
}

// Notifier delivers notifications to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier is a stub implementation that writes notifications to the logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier stub.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification", "kind", message.Kind, "destination", message.Destination, "body", message.Body)
	return nil
}
