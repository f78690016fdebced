// Package notify delivers failed-fetch messages to operators and subscribers.
package notify

import (
	"context"
	"sync"
	"time"

	"catalogview/internal/collection"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type ctxKey string

const ctxSession ctxKey = "session_id"

// WithSession tags ctx with the list-view session a notification belongs to
func WithSession(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxSession, id)
}

// SessionID returns the id stored by WithSession
func SessionID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxSession).(string)
	return v, ok
}

// LogNotifier writes each message as a zerolog error event
type LogNotifier struct {
	logger zerolog.Logger
}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{logger: log.Logger}
}

// WithLogger returns a copy writing to l
func (n *LogNotifier) WithLogger(l zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: l}
}

func (n *LogNotifier) Report(ctx context.Context, message string) {
	ev := n.logger.Error().Str("detail", message)
	if id, ok := SessionID(ctx); ok {
		ev = ev.Str("session_id", id)
	}
	ev.Msg("collection fetch failed")
}

// Multi fans a message out to every notifier in order
type Multi []collection.Notifier

func (m Multi) Report(ctx context.Context, message string) {
	for _, n := range m {
		if n != nil {
			n.Report(ctx, message)
		}
	}
}

// Notification is one reported message
type Notification struct {
	Session string    `json:"session,omitempty"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Recorder keeps every notification in memory
type Recorder struct {
	mu    sync.Mutex
	items []Notification
	now   func() time.Time
}

func NewRecorder() *Recorder {
	return &Recorder{now: time.Now}
}

func (r *Recorder) Report(ctx context.Context, message string) {
	id, _ := SessionID(ctx)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, Notification{Session: id, Message: message, At: r.now().UTC()})
}

// Notifications returns a copy of what was recorded so far
func (r *Recorder) Notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.items...)
}

// Messages returns the recorded messages only
func (r *Recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.items))
	for _, it := range r.items {
		out = append(out, it.Message)
	}
	return out
}
