package schema

import (
	"encoding/json"
	"fmt"

	"plantar/internal/domain"

	"github.com/google/uuid"
)

// DecodeSample validates a pressure frame payload. When sessionID is non-nil it is
// used as the frame's session and any session_id in the body is ignored; otherwise
// session_id is required in the body.
func DecodeSample(data []byte, sessionID *uuid.UUID) (domain.SampleInput, error) {
	obj, err := decodeObject(data, false)
	if err != nil {
		return domain.SampleInput{}, err
	}
	verr := domain.NewValidationError()
	var in domain.SampleInput

	if sessionID != nil {
		in.SessionID = *sessionID
	} else if raw, ok := obj.get("session_id"); !ok {
		verr.Add("session_id", "is required")
	} else if id, msg := asUUID(raw); msg != "" {
		verr.Add("session_id", msg)
	} else {
		in.SessionID = id
	}

	in.Foot = domain.FootBoth
	if raw, ok := obj.get("foot"); ok {
		s, isStr := asString(raw)
		foot, ferr := domain.ParseFoot(s)
		if !isStr || ferr != nil {
			verr.Add("foot", "must be one of left, right, both")
		} else {
			in.Foot = foot
		}
	}

	width := gridSide(obj, "grid_width", verr)
	height := gridSide(obj, "grid_height", verr)
	rows := pressureRows(obj, verr)

	if width > 0 && height > 0 && rows != nil {
		if msg := shapeMismatch(width, height, rows); msg != "" {
			verr.Add("pressure", msg)
		} else if grid, gerr := domain.NewGrid(width, height, rows); gerr != nil {
			verr.Add("pressure", gerr.Error())
		} else {
			in.Pressure = grid
		}
	}

	if raw, ok := obj.get("stats"); ok {
		var stats map[string]*float64
		if err := json.Unmarshal(raw, &stats); err != nil {
			verr.Add("stats", "must be an object of numbers")
		} else {
			in.Stats = make(domain.Stats, len(stats))
			for k, v := range stats {
				if v == nil {
					verr.Add("stats", fmt.Sprintf("%q must be a number", k))
					continue
				}
				in.Stats[k] = *v
			}
		}
	}

	if raw, ok := obj.get("captured_at"); ok {
		t, tok := asTime(raw)
		if !tok {
			verr.Add("captured_at", "must be an RFC 3339 timestamp")
		} else {
			in.CapturedAt = &t
		}
	}

	if err := verr.OrNil(); err != nil {
		return domain.SampleInput{}, err
	}
	return in, nil
}

func gridSide(obj object, key string, verr *domain.ValidationError) int {
	raw, ok := obj.get(key)
	if !ok {
		verr.Add(key, "is required")
		return 0
	}
	n, isInt := asInt(raw)
	if !isInt || n < domain.MinGridSide || n > domain.MaxGridSide {
		verr.Add(key, rangeMsg(domain.MinGridSide, domain.MaxGridSide))
		return 0
	}
	return n
}

// pressureRows decodes a non-empty two-dimensional array of numbers.
func pressureRows(obj object, verr *domain.ValidationError) [][]float64 {
	raw, ok := obj.get("pressure")
	if !ok {
		verr.Add("pressure", "is required")
		return nil
	}
	var cells [][]*float64
	if err := json.Unmarshal(raw, &cells); err != nil {
		verr.Add("pressure", "must be a two-dimensional array of numbers")
		return nil
	}
	if len(cells) == 0 {
		verr.Add("pressure", "must not be empty")
		return nil
	}
	rows := make([][]float64, len(cells))
	for i, row := range cells {
		if len(row) == 0 {
			verr.Add("pressure", fmt.Sprintf("row %d must not be empty", i))
			return nil
		}
		rows[i] = make([]float64, len(row))
		for j, v := range row {
			if v == nil {
				verr.Add("pressure", fmt.Sprintf("value at [%d][%d] must be a number", i, j))
				return nil
			}
			rows[i][j] = *v
		}
	}
	return rows
}

func shapeMismatch(width, height int, rows [][]float64) string {
	if len(rows) != height {
		return fmt.Sprintf("has %d rows, grid_height is %d", len(rows), height)
	}
	for i, row := range rows {
		if len(row) != width {
			return fmt.Sprintf("row %d has %d values, grid_width is %d", i, len(row), width)
		}
	}
	return ""
}
