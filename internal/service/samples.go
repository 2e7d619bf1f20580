package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"plantar/internal/domain"
	"plantar/internal/observability/metrics"
	"plantar/internal/observability/middleware"

	"github.com/google/uuid"
)

// Ingestion sources, used as a metrics label.
const (
	SourceDevice  = "device"
	SourceMQTT    = "mqtt"
	SourceSession = "session"
)

type SampleService struct {
	samples  SampleStore
	sessions *SessionManager
	now      func() time.Time
}

func NewSampleService(samples SampleStore, sessions *SessionManager, now func() time.Time) *SampleService {
	if now == nil {
		now = time.Now
	}
	return &SampleService{samples: samples, sessions: sessions, now: now}
}

// Ingest appends a device-supplied sample. Devices are not users, so no ownership is
// checked here; the store still rejects unknown and ended sessions.
func (s *SampleService) Ingest(ctx context.Context, in domain.SampleInput, source string) (*domain.Sample, error) {
	result := "success"
	defer func() {
		metrics.SamplesIngestedTotal.WithLabelValues(source, result).Inc()
	}()

	if in.SessionID == uuid.Nil {
		result = "invalid"
		return nil, domain.FieldError("session_id", "is required")
	}

	now := s.now().UTC()
	capturedAt := now
	if in.CapturedAt != nil && !in.CapturedAt.IsZero() {
		capturedAt = in.CapturedAt.UTC()
	}
	foot := in.Foot
	if foot == "" {
		foot = domain.FootBoth
	}

	sample := &domain.Sample{
		ID:         uuid.New(),
		SessionID:  in.SessionID,
		Foot:       foot,
		GridWidth:  in.Pressure.Width,
		GridHeight: in.Pressure.Height,
		Pressure:   in.Pressure,
		Stats:      in.Stats,
		CapturedAt: capturedAt,
		CreatedAt:  now,
	}
	if err := s.samples.Append(ctx, sample); err != nil {
		result = "failure"
		return nil, fmt.Errorf("append sample: %w", err)
	}

	slog.Info("sample ingested",
		"sample_id", sample.ID,
		"session_id", sample.SessionID,
		"source", source,
		"grid", fmt.Sprintf("%dx%d", sample.GridWidth, sample.GridHeight),
		"request_id", middleware.RequestIDFromContext(ctx),
		"trace_id", middleware.TraceIDFromContext(ctx),
	)
	return sample, nil
}

// AppendToSession appends a sample on behalf of a user who must own the session.
func (s *SampleService) AppendToSession(ctx context.Context, caller domain.Caller, sessionID uuid.UUID, in domain.SampleInput) (*domain.Sample, error) {
	sess, err := s.sessions.Get(ctx, caller, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status.Terminal() {
		return nil, fmt.Errorf("%w: session %s has ended", domain.ErrConflict, sessionID)
	}
	in.SessionID = sessionID
	return s.Ingest(ctx, in, SourceSession)
}

// List returns a page of the session's samples, newest first, never more than
// domain.MaxSamplePage at a time.
func (s *SampleService) List(ctx context.Context, caller domain.Caller, sessionID uuid.UUID, page domain.Page) ([]domain.Sample, domain.Page, error) {
	if _, err := s.sessions.Get(ctx, caller, sessionID); err != nil {
		return nil, domain.Page{}, err
	}
	page = page.SamplePage()
	out, err := s.samples.ListBySession(ctx, sessionID, page)
	if err != nil {
		return nil, domain.Page{}, err
	}
	return out, page, nil
}

// Count returns how many samples the session holds.
func (s *SampleService) Count(ctx context.Context, caller domain.Caller, sessionID uuid.UUID) (int64, error) {
	if _, err := s.sessions.Get(ctx, caller, sessionID); err != nil {
		return 0, err
	}
	return s.samples.CountBySession(ctx, sessionID)
}
