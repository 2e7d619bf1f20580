// Package schema decodes untrusted JSON request bodies into validated inputs,
// reporting every problem as a field-level domain.ValidationError.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"plantar/internal/domain"

	"github.com/google/uuid"
)

type object map[string]json.RawMessage

// decodeObject parses data as a JSON object. Empty input decodes as an empty object
// when allowEmpty is set.
func decodeObject(data []byte, allowEmpty bool) (object, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		if allowEmpty {
			return object{}, nil
		}
		return nil, domain.FieldError("body", "must be a JSON object")
	}
	var obj object
	if err := json.Unmarshal(data, &obj); err != nil || obj == nil {
		return nil, domain.FieldError("body", "must be a JSON object")
	}
	return obj, nil
}

// get returns the raw value for key, treating JSON null as absent.
func (o object) get(key string) (json.RawMessage, bool) {
	raw, ok := o[key]
	if !ok || isNull(raw) {
		return nil, false
	}
	return raw, true
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func asString(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func asNumber(raw json.RawMessage) (float64, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return 0, false
	}
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	f, err := n.Float64()
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

func asInt(raw json.RawMessage) (int, bool) {
	f, ok := asNumber(raw)
	if !ok || f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}

func asUUID(raw json.RawMessage) (uuid.UUID, string) {
	s, ok := asString(raw)
	if !ok {
		return uuid.Nil, "must be a string"
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return uuid.Nil, "must not be empty"
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, "must be a valid id"
	}
	return id, ""
}

func asTime(raw json.RawMessage) (time.Time, bool) {
	s, ok := asString(raw)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// optionalUUID decodes an optional id field into verr.
func optionalUUID(o object, key string, verr *domain.ValidationError) *uuid.UUID {
	raw, ok := o.get(key)
	if !ok {
		return nil
	}
	id, msg := asUUID(raw)
	if msg != "" {
		verr.Add(key, msg)
		return nil
	}
	return &id
}

func rangeMsg(min, max int) string {
	return fmt.Sprintf("must be an integer between %d and %d", min, max)
}
