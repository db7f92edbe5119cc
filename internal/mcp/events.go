// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package mcp

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mikedesigns-nvisia/asmbli/internal/log"
)

// EventType represents the type of server lifecycle event.
type EventType string

const (
	// EventStarted indicates a server reached the ready state.
	EventStarted EventType = "started"
	// EventStopped indicates a server was shut down on request.
	EventStopped EventType = "stopped"
	// EventFailed indicates a server exited or failed to start.
	EventFailed EventType = "failed"
	// EventDegraded indicates a server stopped answering pings.
	EventDegraded EventType = "degraded"
	// EventRecovered indicates a degraded server answered a ping again.
	EventRecovered EventType = "recovered"
)

// Event is one server lifecycle transition.
type Event struct {
	// ID uniquely identifies this event.
	ID string `json:"id"`

	// Type is the event type.
	Type EventType `json:"type"`

	// Server is the name of the server the event concerns.
	Server string `json:"server"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// Message is an optional human-readable message.
	Message string `json:"message,omitempty"`
}

// EventObserver receives lifecycle events as they happen. Observers
// must not block.
type EventObserver func(Event)

// EventEmitter logs lifecycle events and fans them out to observers.
type EventEmitter struct {
	logger *slog.Logger

	mu        sync.Mutex
	observers []EventObserver
}

// NewEventEmitter creates a new event emitter.
func NewEventEmitter(logger *slog.Logger) *EventEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventEmitter{logger: logger}
}

// Subscribe registers an observer for all future events.
func (e *EventEmitter) Subscribe(fn EventObserver) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observers = append(e.observers, fn)
}

// Emit logs an event and notifies observers.
func (e *EventEmitter) Emit(eventType EventType, server, message string) {
	event := Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Server:    server,
		Timestamp: time.Now(),
		Message:   message,
	}

	attrs := []any{
		slog.String(log.ServerKey, server),
		slog.String(log.EventKey, string(eventType)),
	}
	if message != "" {
		attrs = append(attrs, slog.String("message", message))
	}
	e.logger.Info("server event", attrs...)

	e.mu.Lock()
	observers := make([]EventObserver, len(e.observers))
	copy(observers, e.observers)
	e.mu.Unlock()

	for _, fn := range observers {
		fn(event)
	}
}
