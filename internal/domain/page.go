package domain

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
	// MaxSamplePage bounds per-session sample listing regardless of the general limit,
	// since every sample carries a full pressure grid.
	MaxSamplePage = 50
)

type Page struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// NewPage clamps limit into [1, max] and offset to >= 0.
func NewPage(limit, offset, max int) Page {
	if limit < 1 {
		limit = 1
	}
	if limit > max {
		limit = max
	}
	if offset < 0 {
		offset = 0
	}
	return Page{Limit: limit, Offset: offset}
}

// SamplePage narrows p to the sample listing bound.
func (p Page) SamplePage() Page {
	return NewPage(p.Limit, p.Offset, MaxSamplePage)
}
