package service

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-console/internal/models"
	"github.com/noah-isme/sma-adp-console/pkg/bulkaction"
)

const defaultToastCapacity = 50

// ToastFeed buffers toasts for one session until the dashboard drains them.
// When full, the oldest toast is dropped.
type ToastFeed struct {
	mu       sync.Mutex
	capacity int
	toasts   []models.Toast
	now      func() time.Time
}

// NewToastFeed returns an empty feed.
func NewToastFeed(capacity int) *ToastFeed {
	if capacity <= 0 {
		capacity = defaultToastCapacity
	}
	return &ToastFeed{capacity: capacity, now: time.Now}
}

// Notify implements bulkaction.Notifier.
func (f *ToastFeed) Notify(level bulkaction.Level, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.toasts) == f.capacity {
		f.toasts = f.toasts[1:]
	}
	f.toasts = append(f.toasts, models.Toast{
		ID:        uuid.NewString(),
		Level:     string(level),
		Message:   message,
		CreatedAt: f.now().UTC(),
	})
}

// Drain returns pending toasts oldest first and empties the feed.
func (f *ToastFeed) Drain() []models.Toast {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.toasts
	f.toasts = nil
	if out == nil {
		out = []models.Toast{}
	}
	return out
}

// Len reports the number of pending toasts.
func (f *ToastFeed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.toasts)
}

// LogNotifier mirrors toasts into the structured log.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier builds a notifier tagging entries with the session id.
func NewLogNotifier(logger *zap.Logger, sessionID string) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger.With(zap.String("session_id", sessionID))}
}

// Notify implements bulkaction.Notifier.
func (n *LogNotifier) Notify(level bulkaction.Level, message string) {
	switch level {
	case bulkaction.LevelError:
		n.logger.Warn("toast", zap.String("level", string(level)), zap.String("message", message))
	default:
		n.logger.Info("toast", zap.String("level", string(level)), zap.String("message", message))
	}
}
