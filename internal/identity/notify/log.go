package notify

import (
	"context"
	"log/slog"

	"github.com/aussiebroadwan/identity/pkg/cryptox"
)

// LogMailer writes mail to the log instead of delivering it. Development only:
// verification links end up in the log output.
type LogMailer struct {
	sender
}

func NewLogMailer(logger *slog.Logger, subjects Subjects) *LogMailer {
	return &LogMailer{sender: sender{
		subjects: subjects,
		send: func(ctx context.Context, m Message) error {
			logger.InfoContext(ctx, "mail",
				slog.String("kind", string(m.Kind)),
				slog.String("to", cryptox.MaskEmail(m.To)),
				slog.String("subject", m.Subject),
				slog.String("link", m.Link),
			)
			return nil
		},
	}}
}
