package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
)

const (
	MinGridSide = 1
	MaxGridSide = 64
)

// Grid is a pressure frame of Height rows by Width columns stored row-major.
type Grid struct {
	Width  int
	Height int
	Cells  []float64
}

// NewGrid builds a Grid from rows and rejects any shape that does not match width x height.
func NewGrid(width, height int, rows [][]float64) (Grid, error) {
	if width < MinGridSide || width > MaxGridSide {
		return Grid{}, fmt.Errorf("%w: grid width %d out of range [%d,%d]", ErrValidation, width, MinGridSide, MaxGridSide)
	}
	if height < MinGridSide || height > MaxGridSide {
		return Grid{}, fmt.Errorf("%w: grid height %d out of range [%d,%d]", ErrValidation, height, MinGridSide, MaxGridSide)
	}
	if len(rows) != height {
		return Grid{}, fmt.Errorf("%w: expected %d rows, got %d", ErrValidation, height, len(rows))
	}
	cells := make([]float64, 0, width*height)
	for i, row := range rows {
		if len(row) != width {
			return Grid{}, fmt.Errorf("%w: row %d has %d values, expected %d", ErrValidation, i, len(row), width)
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return Grid{}, fmt.Errorf("%w: value at [%d][%d] is not finite", ErrValidation, i, j)
			}
		}
		cells = append(cells, row...)
	}
	return Grid{Width: width, Height: height, Cells: cells}, nil
}

// At returns the value at row r, column c.
func (g Grid) At(r, c int) float64 { return g.Cells[r*g.Width+c] }

func (g Grid) Rows() [][]float64 {
	rows := make([][]float64, g.Height)
	for r := range rows {
		rows[r] = append([]float64(nil), g.Cells[r*g.Width:(r+1)*g.Width]...)
	}
	return rows
}

func (g Grid) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.Rows())
}

func (g *Grid) UnmarshalJSON(data []byte) error {
	var rows [][]float64
	if err := json.Unmarshal(data, &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("%w: empty pressure grid", ErrValidation)
	}
	parsed, err := NewGrid(len(rows[0]), len(rows), rows)
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

// Value implements driver.Valuer; the column holds the row-major JSON array.
func (g Grid) Value() (driver.Value, error) {
	return g.MarshalJSON()
}

// Scan implements sql.Scanner.
func (g *Grid) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		return g.UnmarshalJSON(v)
	case string:
		return g.UnmarshalJSON([]byte(v))
	case nil:
		*g = Grid{}
		return nil
	default:
		return fmt.Errorf("domain.Grid: unsupported scan type %T", value)
	}
}
