package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/yusukeinoue-jpg/lime-tool/internal/models"
)

// ErrSessionNotFound is returned by a Store for unknown or expired IDs
var ErrSessionNotFound = errors.New("session not found")

// Session is the per-browser context handed to every handler
type Session struct {
	ID            string                 `json:"id"`
	Authenticated bool                   `json:"authenticated"`
	CreatedAt     time.Time              `json:"created_at"`
	Ports         []models.ReferencePort `json:"ports"`
}

// NewSession starts an unauthenticated session holding its own copy of ports
func NewSession(ports []models.ReferencePort) *Session {
	return &Session{
		ID:        uuid.New().String(),
		CreatedAt: time.Now(),
		Ports:     append([]models.ReferencePort(nil), ports...),
	}
}

// Store persists sessions by ID
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}
