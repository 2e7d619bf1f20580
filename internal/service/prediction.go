package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"plantar/internal/domain"
	"plantar/internal/observability/metrics"
	"plantar/internal/observability/middleware"
	"plantar/internal/predict"

	"github.com/google/uuid"
)

// Predictor is the external condition model.
type Predictor interface {
	Predict(ctx context.Context, in predict.Request) (predict.Result, error)
}

type PredictInput struct {
	SessionID *uuid.UUID
	Metadata  map[string]any
	Pressure  json.RawMessage
}

// Outcome is the model (or fallback) decision before it is persisted.
type Outcome struct {
	Condition    string
	Confidence   int
	ModelVersion string
	Source       domain.ReportSource
}

func FallbackOutcome() Outcome {
	return Outcome{
		Condition:    domain.FallbackCondition,
		Confidence:   domain.FallbackConfidence,
		ModelVersion: domain.FallbackModelVersion,
		Source:       domain.SourceFallback,
	}
}

// PredictionPipeline turns telemetry into a Report. The model is optional: without
// one, or when it fails or times out, the fallback outcome is used.
type PredictionPipeline struct {
	model    Predictor
	reports  ReportStore
	sessions *SessionManager
	timeout  time.Duration
	now      func() time.Time
}

// NewPredictionPipeline builds a pipeline. model may be nil. timeout bounds each model call.
func NewPredictionPipeline(model Predictor, reports ReportStore, sessions *SessionManager, timeout time.Duration, now func() time.Time) *PredictionPipeline {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if now == nil {
		now = time.Now
	}
	return &PredictionPipeline{model: model, reports: reports, sessions: sessions, timeout: timeout, now: now}
}

// Predict runs the model (or fallback) and persists exactly one report. It only
// fails for invalid input, access errors, caller cancellation, or a store failure.
func (p *PredictionPipeline) Predict(ctx context.Context, caller domain.Caller, in PredictInput) (*domain.Report, error) {
	if in.Metadata == nil {
		return nil, domain.FieldError("metadata", "is required")
	}
	if in.SessionID != nil {
		if _, err := p.sessions.Get(ctx, caller, *in.SessionID); err != nil {
			return nil, err
		}
	}

	outcome, err := p.infer(ctx, in)
	if err != nil {
		return nil, err
	}

	report := &domain.Report{
		ID:             uuid.New(),
		UserID:         caller.UserID,
		SessionID:      in.SessionID,
		Condition:      outcome.Condition,
		Confidence:     outcome.Confidence,
		ModelVersion:   outcome.ModelVersion,
		Recommendation: domain.Recommend(outcome.Condition),
		Source:         outcome.Source,
		CreatedAt:      p.now().UTC(),
	}
	if err := p.reports.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("persist report: %w", err)
	}
	metrics.PredictionsTotal.WithLabelValues(string(outcome.Source)).Inc()
	metrics.ReportsCreatedTotal.WithLabelValues(string(outcome.Source)).Inc()

	slog.Info("prediction report created",
		"report_id", report.ID,
		"user_id", report.UserID,
		"session_id", report.SessionID,
		"condition", report.Condition,
		"confidence", report.Confidence,
		"source", report.Source,
		"request_id", middleware.RequestIDFromContext(ctx),
		"trace_id", middleware.TraceIDFromContext(ctx),
	)
	return report, nil
}

// infer returns the fallback on any model failure. The only error it returns is the
// caller's own context error.
func (p *PredictionPipeline) infer(ctx context.Context, in PredictInput) (Outcome, error) {
	if p.model == nil {
		return FallbackOutcome(), nil
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	res, err := p.model.Predict(callCtx, predict.Request{
		SessionID: in.SessionID,
		Metadata:  in.Metadata,
		Pressure:  in.Pressure,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			metrics.ModelRequestDurationSeconds.WithLabelValues("canceled").Observe(time.Since(start).Seconds())
			return Outcome{}, ctxErr
		}
		label := "error"
		if errors.Is(err, context.DeadlineExceeded) {
			label = "timeout"
		}
		metrics.ModelRequestDurationSeconds.WithLabelValues(label).Observe(time.Since(start).Seconds())
		slog.Warn("prediction model unavailable, using fallback",
			"error", err,
			"request_id", middleware.RequestIDFromContext(ctx),
			"trace_id", middleware.TraceIDFromContext(ctx),
		)
		return FallbackOutcome(), nil
	}
	metrics.ModelRequestDurationSeconds.WithLabelValues("success").Observe(time.Since(start).Seconds())
	return adoptResult(ctx, res), nil
}

// adoptResult takes the model fields as given, substituting fallback defaults for
// missing ones. Confidence must already be an integer percentage in 0-100; fractions
// and out-of-range values count as missing.
func adoptResult(ctx context.Context, res predict.Result) Outcome {
	out := FallbackOutcome()
	out.Source = domain.SourceModel
	if c := strings.TrimSpace(res.Condition); c != "" {
		out.Condition = c
	}
	if v := strings.TrimSpace(res.ModelVersion); v != "" {
		out.ModelVersion = v
	}
	if res.Confidence != nil {
		if pct, err := domain.ConfidencePercent(*res.Confidence); err == nil {
			out.Confidence = pct
		} else {
			slog.Warn("model confidence is not an integer in 0-100, using default",
				"confidence", *res.Confidence,
				"request_id", middleware.RequestIDFromContext(ctx),
			)
		}
	}
	if len(res.Dropped) > 0 {
		slog.Warn("model response fields ignored",
			"fields", res.Dropped,
			"request_id", middleware.RequestIDFromContext(ctx),
		)
	}
	return out
}
