// Package conversation stores chat turns in process memory.
package conversation

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	domconv "github.com/kailas-cloud/civicdex/internal/domain/conversation"
)

// DefaultHistoryLimit bounds the log when no limit is configured.
const DefaultHistoryLimit = 1000

// Log is an append-only, mutex-guarded conversation log.
// When full, the oldest messages are evicted first.
type Log struct {
	mu       sync.Mutex
	messages []domconv.Message
	limit    int
	now      func() time.Time
	newID    func() string
}

// Option configures a Log.
type Option func(*Log)

// WithClock injects the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *Log) { l.now = now }
}

// WithIDGenerator injects the message ID source.
func WithIDGenerator(gen func() string) Option {
	return func(l *Log) { l.newID = gen }
}

// WithLimit sets the retention cap. Values <= 0 use DefaultHistoryLimit.
func WithLimit(n int) Option {
	return func(l *Log) { l.limit = n }
}

// New creates an empty log.
func New(opts ...Option) *Log {
	l := &Log{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, o := range opts {
		o(l)
	}
	if l.limit <= 0 {
		l.limit = DefaultHistoryLimit
	}
	return l
}

// Append records a turn and returns it.
func (l *Log) Append(role domconv.Role, text string, sourceCount int) (domconv.Message, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg, err := domconv.New(l.newID(), role, text, sourceCount, l.now())
	if err != nil {
		return domconv.Message{}, fmt.Errorf("append message: %w", err)
	}
	l.messages = append(l.messages, msg)
	if over := len(l.messages) - l.limit; over > 0 {
		l.messages = append(l.messages[:0:0], l.messages[over:]...)
	}
	return msg, nil
}

// Recent returns up to limit of the newest messages, oldest first.
// limit <= 0 returns everything.
func (l *Log) Recent(limit int) []domconv.Message {
	l.mu.Lock()
	defer l.mu.Unlock()

	start := 0
	if limit > 0 && limit < len(l.messages) {
		start = len(l.messages) - limit
	}
	out := make([]domconv.Message, len(l.messages)-start)
	copy(out, l.messages[start:])
	return out
}

// Clear drops every message and returns how many were removed.
func (l *Log) Clear() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := len(l.messages)
	l.messages = nil
	return n
}

// Len returns the number of stored messages.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.messages)
}
