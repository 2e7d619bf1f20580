package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type Foot string

const (
	FootLeft  Foot = "left"
	FootRight Foot = "right"
	FootBoth  Foot = "both"
)

func ParseFoot(s string) (Foot, error) {
	switch f := Foot(s); f {
	case FootLeft, FootRight, FootBoth:
		return f, nil
	case "":
		return FootBoth, nil
	}
	return "", fmt.Errorf("%w: foot must be one of left, right, both", ErrValidation)
}

// Stats is an optional numeric summary sent alongside a frame (e.g. peak, mean).
type Stats map[string]float64

func (s Stats) Value() (driver.Value, error) {
	if s == nil {
		return []byte("null"), nil
	}
	return json.Marshal(map[string]float64(s))
}

func (s *Stats) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*s = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("domain.Stats: unsupported scan type %T", value)
	}
	var m map[string]float64
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*s = m
	return nil
}

// Sample is one append-only pressure frame. Samples are never updated or deleted.
type Sample struct {
	ID         SampleID  `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID  SessionID `gorm:"type:uuid;not null;index:idx_samples_session_captured,priority:1" json:"session_id"`
	Foot       Foot      `gorm:"type:text;not null" json:"foot"`
	GridWidth  int       `gorm:"not null" json:"grid_width"`
	GridHeight int       `gorm:"not null" json:"grid_height"`
	Pressure   Grid      `gorm:"type:jsonb;not null" json:"pressure"`
	Stats      Stats     `gorm:"type:jsonb" json:"stats,omitempty"`
	CapturedAt time.Time `gorm:"not null;index:idx_samples_session_captured,priority:2" json:"captured_at"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
}

func (Sample) TableName() string { return "samples" }

// SampleInput is a validated frame ready to be appended.
type SampleInput struct {
	SessionID  SessionID
	Foot       Foot
	Pressure   Grid
	Stats      Stats
	CapturedAt *time.Time
}
