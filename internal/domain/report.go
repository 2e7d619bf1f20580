package domain

import (
	"fmt"
	"math"
	"time"
)

type ReportSource string

const (
	SourceModel     ReportSource = "model"
	SourceFallback  ReportSource = "fallback"
	SourceSubmitted ReportSource = "submitted"
)

const (
	ConditionNormal = "normal"

	FallbackCondition    = ConditionNormal
	FallbackConfidence   = 50
	FallbackModelVersion = "fallback"
	ManualModelVersion   = "manual"

	MinConfidence = 0
	MaxConfidence = 100
)

const (
	recommendationRoutine = "No significant pressure anomalies detected. Continue routine foot care and your scheduled monitoring."
	recommendationConsult = "The pressure pattern suggests %s. Please consult a clinician for a detailed assessment."
)

// Recommend derives the advisory text from a condition label.
func Recommend(condition string) string {
	if condition == ConditionNormal {
		return recommendationRoutine
	}
	return fmt.Sprintf(recommendationConsult, condition)
}

// ConfidencePercent validates a confidence value on the canonical integer 0-100 scale.
func ConfidencePercent(v float64) (int, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: confidence is not a finite number", ErrValidation)
	}
	if v != math.Trunc(v) {
		return 0, fmt.Errorf("%w: confidence must be an integer percentage, got %v", ErrValidation, v)
	}
	if v < MinConfidence || v > MaxConfidence {
		return 0, fmt.Errorf("%w: confidence %v out of range [%d,%d]", ErrValidation, v, MinConfidence, MaxConfidence)
	}
	return int(v), nil
}

// Report is an immutable prediction outcome.
type Report struct {
	ID             ReportID     `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         UserID       `gorm:"type:uuid;not null;index:idx_reports_user_created,priority:1" json:"user_id"`
	SessionID      *SessionID   `gorm:"type:uuid;index" json:"session_id"`
	Condition      string       `gorm:"type:text;not null" json:"condition"`
	Confidence     int          `gorm:"not null" json:"confidence"`
	ModelVersion   string       `gorm:"type:text;not null" json:"model_version"`
	Recommendation string       `gorm:"type:text;not null" json:"recommendation"`
	Source         ReportSource `gorm:"type:text;not null" json:"source"`
	CreatedAt      time.Time    `gorm:"not null;index:idx_reports_user_created,priority:2" json:"created_at"`
}

func (Report) TableName() string { return "reports" }
