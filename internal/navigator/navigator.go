// Package navigator models the client's current view and the hand-off of
// external links (UPI intents) to the operating system.
package navigator

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// LoginPath is the path of the login view.
const LoginPath = "/login"

// Navigator tracks the current location of the client.
type Navigator interface {
	Location() string
	Navigate(path string)
	// OpenExternal hands url to an application outside this process.
	OpenExternal(ctx context.Context, url string) error
}

// Memory is a Navigator that records history in memory.
type Memory struct {
	mu       sync.Mutex
	location string
	history  []string
	external []string
}

// NewMemory creates a Memory navigator positioned at start.
func NewMemory(start string) *Memory {
	if start == "" {
		start = "/"
	}
	return &Memory{location: start, history: []string{start}}
}

func (m *Memory) Location() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.location
}

func (m *Memory) Navigate(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.location = path
	m.history = append(m.history, path)
}

func (m *Memory) OpenExternal(_ context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.external = append(m.external, url)
	return nil
}

// History returns every location visited, oldest first.
func (m *Memory) History() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.history...)
}

// External returns the links handed off with OpenExternal.
func (m *Memory) External() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.external...)
}

// Terminal is a Navigator for the command line. External links are printed
// for the user to open on their device.
type Terminal struct {
	*Memory
	out io.Writer
}

func NewTerminal(out io.Writer) *Terminal {
	return &Terminal{Memory: NewMemory("/"), out: out}
}

func (t *Terminal) OpenExternal(ctx context.Context, url string) error {
	if err := t.Memory.OpenExternal(ctx, url); err != nil {
		return err
	}
	_, err := fmt.Fprintf(t.out, "Open this link on your phone to pay:\n  %s\n", url)
	return err
}
