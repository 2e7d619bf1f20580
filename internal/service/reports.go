package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"plantar/internal/domain"
	"plantar/internal/observability/metrics"
	"plantar/internal/observability/middleware"

	"github.com/google/uuid"
)

// SubmitInput is a precomputed report. Confidence is already on the 0-100 scale.
type SubmitInput struct {
	SessionID    *uuid.UUID
	Condition    string
	Confidence   int
	ModelVersion string
}

type ReportService struct {
	reports  ReportStore
	sessions *SessionManager
	now      func() time.Time
}

func NewReportService(reports ReportStore, sessions *SessionManager, now func() time.Time) *ReportService {
	if now == nil {
		now = time.Now
	}
	return &ReportService{reports: reports, sessions: sessions, now: now}
}

func (s *ReportService) Submit(ctx context.Context, caller domain.Caller, in SubmitInput) (*domain.Report, error) {
	verr := domain.NewValidationError()
	condition := strings.TrimSpace(in.Condition)
	if condition == "" {
		verr.Add("condition", "is required")
	}
	if in.Confidence < domain.MinConfidence || in.Confidence > domain.MaxConfidence {
		verr.Add("confidence", fmt.Sprintf("must be between %d and %d", domain.MinConfidence, domain.MaxConfidence))
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	if in.SessionID != nil {
		if _, err := s.sessions.Get(ctx, caller, *in.SessionID); err != nil {
			return nil, err
		}
	}
	version := strings.TrimSpace(in.ModelVersion)
	if version == "" {
		version = domain.ManualModelVersion
	}

	report := &domain.Report{
		ID:             uuid.New(),
		UserID:         caller.UserID,
		SessionID:      in.SessionID,
		Condition:      condition,
		Confidence:     in.Confidence,
		ModelVersion:   version,
		Recommendation: domain.Recommend(condition),
		Source:         domain.SourceSubmitted,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.reports.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("persist report: %w", err)
	}
	metrics.ReportsCreatedTotal.WithLabelValues(string(domain.SourceSubmitted)).Inc()
	slog.Info("report submitted",
		"report_id", report.ID,
		"user_id", report.UserID,
		"request_id", middleware.RequestIDFromContext(ctx),
		"trace_id", middleware.TraceIDFromContext(ctx),
	)
	return report, nil
}

func (s *ReportService) Get(ctx context.Context, caller domain.Caller, id uuid.UUID) (*domain.Report, error) {
	r, err := s.reports.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: report %s", domain.ErrNotFound, id)
		}
		return nil, err
	}
	if !caller.CanAccess(r.UserID) {
		return nil, fmt.Errorf("%w: report %s belongs to another user", domain.ErrForbidden, id)
	}
	return r, nil
}

func (s *ReportService) List(ctx context.Context, caller domain.Caller, owner uuid.UUID, page domain.Page) ([]domain.Report, domain.Page, error) {
	owner, err := scopeOwner(caller, owner)
	if err != nil {
		return nil, domain.Page{}, err
	}
	page = domain.NewPage(page.Limit, page.Offset, domain.MaxPageLimit)
	out, err := s.reports.List(ctx, owner, page)
	if err != nil {
		return nil, domain.Page{}, err
	}
	return out, page, nil
}
