// Package notify turns scheduling domain events into client SMS messages.
// It is a side channel: the scheduling engine never calls into it, it only
// consumes published events.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
)

// Message is one outbound SMS.
type Message struct {
	To   string
	Body string
}

// Dispatcher sends SMS messages to a provider.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg Message) error
}

// ClientDirectory resolves a client's phone number. Returns "", nil when the
// client has no number on file.
type ClientDirectory interface {
	PhoneFor(ctx context.Context, clientID uuid.UUID) (string, error)
}

// StaticDirectory is a fixed in-memory ClientDirectory for local mode and
// tests.
type StaticDirectory struct {
	phones map[uuid.UUID]string
}

// NewStaticDirectory creates a directory over a fixed phone map.
func NewStaticDirectory(phones map[uuid.UUID]string) *StaticDirectory {
	if phones == nil {
		phones = make(map[uuid.UUID]string)
	}
	return &StaticDirectory{phones: phones}
}

func (d *StaticDirectory) PhoneFor(_ context.Context, clientID uuid.UUID) (string, error) {
	return d.phones[clientID], nil
}

// LoadDirectory reads a JSON file mapping client IDs to phone numbers, e.g.
// {"9b2e...": "+44700900123"}. Client records live outside this engine, so
// the directory is provisioned as a file rather than a table.
func LoadDirectory(path string) (*StaticDirectory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read phone directory: %w", err)
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse phone directory: %w", err)
	}

	phones := make(map[uuid.UUID]string, len(raw))
	for id, phone := range raw {
		clientID, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("parse phone directory: client %q: %w", id, err)
		}
		phones[clientID] = phone
	}
	return NewStaticDirectory(phones), nil
}
