// Package notify renders and delivers the single per-batch notification.
// Only the contract and a logging reference delivery exist here; real push
// transport belongs to the surrounding application.
package notify

import (
	"context"
	"log"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Swappnil85/Drishti-V2-sub003/internal/services/calc/domain"
)

// Localizer is the minimal message-printer contract required by Render.
type Localizer interface {
	Sprintf(key message.Reference, args ...any) string
}

// Output is localized copy for one settled batch.
type Output struct {
	Title string
	Body  string
}

// Render returns localized batch-settled copy for the user's locale.
func Render(loc Localizer, summary domain.Summary, status domain.Status) Output {
	if status == domain.StatusTimedOut {
		return Output{
			Title: loc.Sprintf("batch.timed_out.title"),
			Body:  loc.Sprintf("batch.timed_out.body", summary.Successful, summary.Total),
		}
	}
	if summary.Failed > 0 {
		return Output{
			Title: loc.Sprintf("batch.completed.title"),
			Body:  loc.Sprintf("batch.completed_with_failures.body", summary.Successful, summary.Total, summary.Failed),
		}
	}
	return Output{
		Title: loc.Sprintf("batch.completed.title"),
		Body:  loc.Sprintf("batch.completed.body", summary.Successful, summary.Total),
	}
}

// LogNotifier delivers batch notifications to the process log. It stands in
// for a push gateway in deployments that have none.
type LogNotifier struct {
	printer *message.Printer
	logf    func(format string, args ...any)
}

// LogNotifierOption customizes a LogNotifier.
type LogNotifierOption func(*LogNotifier)

// WithLanguage sets the render locale. Unknown tags fall back to English.
func WithLanguage(tag language.Tag) LogNotifierOption {
	return func(n *LogNotifier) {
		n.printer = message.NewPrinter(tag)
	}
}

// WithLogf overrides the log sink.
func WithLogf(logf func(format string, args ...any)) LogNotifierOption {
	return func(n *LogNotifier) {
		if logf != nil {
			n.logf = logf
		}
	}
}

// NewLogNotifier creates a logging notifier rendering English copy by default.
func NewLogNotifier(opts ...LogNotifierOption) *LogNotifier {
	n := &LogNotifier{
		printer: message.NewPrinter(language.English),
		logf:    log.Printf,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// BatchSettled logs one localized notification for the settled batch.
func (n *LogNotifier) BatchSettled(_ context.Context, userID string, summary domain.Summary, status domain.Status) {
	if n == nil {
		return
	}
	out := Render(n.printer, summary, status)
	n.logf("notify user=%s status=%s title=%q body=%q", userID, status, out.Title, out.Body)
}
