package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"plantar/internal/domain"
	"plantar/internal/observability/metrics"
	"plantar/internal/observability/middleware"

	"github.com/google/uuid"
)

// SessionManager owns the session state machine. It is the only writer of
// Session.Status and Session.EndedAt.
type SessionManager struct {
	sessions SessionStore
	now      func() time.Time
}

// NewSessionManager returns a manager using now as the server clock (time.Now if nil).
func NewSessionManager(sessions SessionStore, now func() time.Time) *SessionManager {
	if now == nil {
		now = time.Now
	}
	return &SessionManager{sessions: sessions, now: now}
}

func (m *SessionManager) Create(ctx context.Context, caller domain.Caller, note string) (*domain.Session, error) {
	if err := validateNote(note); err != nil {
		return nil, err
	}
	now := m.now().UTC()
	s := &domain.Session{
		ID:        uuid.New(),
		OwnerID:   caller.UserID,
		Status:    domain.SessionActive,
		StartedAt: now,
		EndedAt:   nil,
		Note:      note,
		Version:   1,
		UpdatedAt: now,
	}
	if err := m.sessions.Create(ctx, s); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	slog.Info("session created",
		"session_id", s.ID,
		"owner_id", s.OwnerID,
		"request_id", middleware.RequestIDFromContext(ctx),
		"trace_id", middleware.TraceIDFromContext(ctx),
	)
	return s, nil
}

// Get returns the session if the caller owns it or is an administrator.
func (m *SessionManager) Get(ctx context.Context, caller domain.Caller, id uuid.UUID) (*domain.Session, error) {
	s, err := m.sessions.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: session %s", domain.ErrNotFound, id)
		}
		return nil, err
	}
	if !caller.CanAccess(s.OwnerID) {
		return nil, fmt.Errorf("%w: session %s belongs to another user", domain.ErrForbidden, id)
	}
	return s, nil
}

// List returns the caller's sessions newest first. Administrators may list another
// owner's sessions, or everyone's with uuid.Nil.
func (m *SessionManager) List(ctx context.Context, caller domain.Caller, owner uuid.UUID, page domain.Page) ([]domain.Session, domain.Page, error) {
	owner, err := scopeOwner(caller, owner)
	if err != nil {
		return nil, domain.Page{}, err
	}
	page = domain.NewPage(page.Limit, page.Offset, domain.MaxPageLimit)
	out, err := m.sessions.List(ctx, owner, page)
	if err != nil {
		return nil, domain.Page{}, err
	}
	return out, page, nil
}

// Transition applies patch to the session. Ended sessions reject every patch with
// domain.ErrConflict, and a transition to ended always stamps EndedAt with the server clock.
func (m *SessionManager) Transition(ctx context.Context, caller domain.Caller, id uuid.UUID, patch domain.SessionPatch) (*domain.Session, error) {
	target := "none"
	if patch.Status != nil {
		target = string(*patch.Status)
	}
	result := "success"
	defer func() {
		metrics.SessionTransitionsTotal.WithLabelValues(target, result).Inc()
	}()

	if patch.Empty() {
		result = "invalid"
		return nil, domain.FieldError("status", "at least one of status or note is required")
	}
	if patch.Note != nil {
		if err := validateNote(*patch.Note); err != nil {
			result = "invalid"
			return nil, err
		}
	}

	s, err := m.Get(ctx, caller, id)
	if err != nil {
		result = "failure"
		return nil, err
	}
	if s.Status.Terminal() {
		result = "conflict"
		return nil, fmt.Errorf("%w: session %s has ended", domain.ErrConflict, id)
	}

	prev := s.Version
	from := s.Status
	now := m.now().UTC()
	if patch.Status != nil {
		to := *patch.Status
		if !from.CanTransition(to) {
			result = "conflict"
			return nil, fmt.Errorf("%w: cannot move session from %s to %s", domain.ErrConflict, from, to)
		}
		s.Status = to
		if to == domain.SessionEnded {
			endedAt := now
			s.EndedAt = &endedAt
		}
	}
	if patch.Note != nil {
		s.Note = *patch.Note
	}
	s.UpdatedAt = now

	if err := m.sessions.Update(ctx, s, prev); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			result = "conflict"
		} else {
			result = "failure"
		}
		return nil, err
	}

	slog.Info("session updated",
		"session_id", s.ID,
		"from", from,
		"to", s.Status,
		"version", s.Version,
		"request_id", middleware.RequestIDFromContext(ctx),
		"trace_id", middleware.TraceIDFromContext(ctx),
	)
	return s, nil
}

func validateNote(note string) error {
	if utf8.RuneCountInString(note) > domain.MaxNoteLength {
		return domain.FieldError("note", fmt.Sprintf("must be at most %d characters", domain.MaxNoteLength))
	}
	return nil
}

// scopeOwner narrows a list filter to what the caller may see.
func scopeOwner(caller domain.Caller, owner uuid.UUID) (uuid.UUID, error) {
	if caller.IsAdmin() {
		return owner, nil
	}
	if owner != uuid.Nil && owner != caller.UserID {
		return uuid.Nil, fmt.Errorf("%w: cannot list another user's records", domain.ErrForbidden)
	}
	return caller.UserID, nil
}
