package lark

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/garyjia/evidence-check/internal/domain/entity"
)

// ErrNoChat is returned when no chat is configured to receive verdicts
var ErrNoChat = errors.New("lark chat id is not configured")

// TextPoster posts a text message to a chat. Implemented by ChatMessenger.
type TextPoster interface {
	PostText(ctx context.Context, chatID, text string) (string, error)
}

// Notifier implements port.VerdictNotifier by posting a text summary of the
// audit to a Lark group chat
type Notifier struct {
	poster TextPoster
	chatID string
	logger *zap.Logger
}

// NewNotifier creates a new verdict notifier
func NewNotifier(poster TextPoster, chatID string, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{poster: poster, chatID: chatID, logger: logger}
}

// NotifyVerdict posts the audit summary to the configured chat
func (n *Notifier) NotifyVerdict(ctx context.Context, requestID string, report *entity.AuditReport) error {
	if n.chatID == "" {
		return ErrNoChat
	}
	if report == nil {
		return fmt.Errorf("report cannot be nil")
	}

	messageID, err := n.poster.PostText(ctx, n.chatID, BuildSummary(requestID, report))
	if err != nil {
		return fmt.Errorf("failed to notify verdict: %w", err)
	}

	n.logger.Info("Verdict posted to Lark",
		zap.String("request_id", requestID),
		zap.String("message_id", messageID),
		zap.Int("score", report.Score))
	return nil
}

// BuildSummary renders an audit report as plain chat text
func BuildSummary(requestID string, report *entity.AuditReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Evidence audit %s\n", requestID)
	fmt.Fprintf(&b, "Status: %s\n", report.Status)
	fmt.Fprintf(&b, "Score: %d/%d\n", report.Score, report.MaxScore)
	if !report.CollisionConfirmed() {
		b.WriteString("Time and severity were not checked.\n")
	}

	for _, f := range report.Findings {
		fmt.Fprintf(&b, "\n[%s] %s\n", f.Result, f.ClaimType)
		fmt.Fprintf(&b, "  reported: %s | observed: %s\n", f.ClaimValue, f.ObservedValue)
		if f.Note != "" {
			fmt.Fprintf(&b, "  %s\n", f.Note)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}
