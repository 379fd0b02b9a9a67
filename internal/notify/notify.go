// Package notify delivers transient user-facing notifications.
package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"smilegift/internal/observability"
)

// Notifier shows short-lived messages to the user.
type Notifier interface {
	Success(msg string)
	Error(msg string)
	Info(msg string)
}

// Level of a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Notification is a single recorded message.
type Notification struct {
	Level   Level
	Message string
}

// Recorder keeps every notification; used by page controllers and tests.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Success(msg string) { r.add(LevelSuccess, msg) }
func (r *Recorder) Error(msg string)   { r.add(LevelError, msg) }
func (r *Recorder) Info(msg string)    { r.add(LevelInfo, msg) }

func (r *Recorder) add(level Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, Notification{Level: level, Message: msg})
}

// All returns the recorded notifications, oldest first.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.items...)
}

// Last returns the most recent notification.
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.items) == 0 {
		return Notification{}, false
	}
	return r.items[len(r.items)-1], true
}

// Drain returns and forgets the recorded notifications.
func (r *Recorder) Drain() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := r.items
	r.items = nil
	return items
}

// Log writes notifications to the global structured logger.
type Log struct{}

func (Log) Success(msg string) { emit(slog.LevelInfo, LevelSuccess, msg) }
func (Log) Error(msg string)   { emit(slog.LevelWarn, LevelError, msg) }
func (Log) Info(msg string)    { emit(slog.LevelInfo, LevelInfo, msg) }

func emit(level slog.Level, kind Level, msg string) {
	observability.GlobalLogger.Log(context.Background(), level, "notification",
		slog.String("kind", string(kind)),
		slog.String("message", msg),
	)
}

// Writer prints notifications as single lines.
type Writer struct {
	mu  sync.Mutex
	out io.Writer
}

func NewWriter(out io.Writer) *Writer { return &Writer{out: out} }

func (w *Writer) Success(msg string) { w.print("✓", msg) }
func (w *Writer) Error(msg string)   { w.print("✗", msg) }
func (w *Writer) Info(msg string)    { w.print("i", msg) }

func (w *Writer) print(prefix, msg string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, _ = fmt.Fprintf(w.out, "%s %s\n", prefix, msg)
}

// Multi fans a notification out to several notifiers.
type Multi []Notifier

func (m Multi) Success(msg string) {
	for _, n := range m {
		n.Success(msg)
	}
}

func (m Multi) Error(msg string) {
	for _, n := range m {
		n.Error(msg)
	}
}

func (m Multi) Info(msg string) {
	for _, n := range m {
		n.Info(msg)
	}
}
