package schema

import (
	"net/url"
	"strconv"
	"strings"

	"plantar/internal/domain"

	"github.com/google/uuid"
)

// ParsePage reads limit and offset from a query string. Missing or non-numeric
// values fall back to the defaults; numeric values are clamped, never rejected.
func ParsePage(q url.Values, defaultLimit, maxLimit int) domain.Page {
	limit := defaultLimit
	if n, err := strconv.Atoi(strings.TrimSpace(q.Get("limit"))); err == nil {
		limit = n
	}
	offset := 0
	if n, err := strconv.Atoi(strings.TrimSpace(q.Get("offset"))); err == nil {
		offset = n
	}
	return domain.NewPage(limit, offset, maxLimit)
}

// ParseOwnerFilter reads the optional owner_id query parameter. An absent value
// returns uuid.Nil.
func ParseOwnerFilter(q url.Values) (uuid.UUID, error) {
	raw := strings.TrimSpace(q.Get("owner_id"))
	if raw == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.FieldError("owner_id", "must be a valid id")
	}
	return id, nil
}

// ParseID parses a path id, reporting failures against field.
func ParseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, domain.FieldError(field, "must be a valid id")
	}
	return id, nil
}
