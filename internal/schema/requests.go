package schema

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"plantar/internal/domain"
	"plantar/internal/service"
)

// DecodeSessionCreate accepts an empty body or {"note": "..."}.
func DecodeSessionCreate(data []byte) (string, error) {
	obj, err := decodeObject(data, true)
	if err != nil {
		return "", err
	}
	raw, ok := obj.get("note")
	if !ok {
		return "", nil
	}
	note, isStr := asString(raw)
	if !isStr {
		return "", domain.FieldError("note", "must be a string")
	}
	if utf8.RuneCountInString(note) > domain.MaxNoteLength {
		return "", domain.FieldError("note", fmt.Sprintf("must be at most %d characters", domain.MaxNoteLength))
	}
	return note, nil
}

// DecodeSessionPatch reads status and note. ended_at is owned by the server and any
// client value is dropped here.
func DecodeSessionPatch(data []byte) (domain.SessionPatch, error) {
	obj, err := decodeObject(data, false)
	if err != nil {
		return domain.SessionPatch{}, err
	}
	verr := domain.NewValidationError()
	var patch domain.SessionPatch

	if raw, ok := obj.get("status"); ok {
		s, isStr := asString(raw)
		st, perr := domain.ParseSessionStatus(s)
		if !isStr || perr != nil {
			verr.Add("status", "must be one of active, paused, ended")
		} else {
			patch.Status = &st
		}
	}
	if raw, ok := obj.get("note"); ok {
		note, isStr := asString(raw)
		switch {
		case !isStr:
			verr.Add("note", "must be a string")
		case utf8.RuneCountInString(note) > domain.MaxNoteLength:
			verr.Add("note", fmt.Sprintf("must be at most %d characters", domain.MaxNoteLength))
		default:
			patch.Note = &note
		}
	}
	if err := verr.OrNil(); err != nil {
		return domain.SessionPatch{}, err
	}
	if patch.Empty() {
		return domain.SessionPatch{}, domain.FieldError("body", "must set status or note")
	}
	return patch, nil
}

// DecodePredict reads a prediction request. pressure is passed through untouched.
func DecodePredict(data []byte) (service.PredictInput, error) {
	obj, err := decodeObject(data, false)
	if err != nil {
		return service.PredictInput{}, err
	}
	verr := domain.NewValidationError()
	var in service.PredictInput

	in.SessionID = optionalUUID(obj, "session_id", verr)
	if raw, ok := obj.get("metadata"); !ok {
		verr.Add("metadata", "is required")
	} else {
		var md map[string]any
		if err := json.Unmarshal(raw, &md); err != nil || md == nil {
			verr.Add("metadata", "must be an object")
		} else {
			in.Metadata = md
		}
	}
	if raw, ok := obj.get("pressure"); ok {
		in.Pressure = append(json.RawMessage(nil), raw...)
	}

	if err := verr.OrNil(); err != nil {
		return service.PredictInput{}, err
	}
	return in, nil
}

// DecodeReportSubmit reads a precomputed report. confidence must already be an
// integer percentage.
func DecodeReportSubmit(data []byte) (service.SubmitInput, error) {
	obj, err := decodeObject(data, false)
	if err != nil {
		return service.SubmitInput{}, err
	}
	verr := domain.NewValidationError()
	var in service.SubmitInput

	in.SessionID = optionalUUID(obj, "session_id", verr)
	if raw, ok := obj.get("condition"); !ok {
		verr.Add("condition", "is required")
	} else if s, isStr := asString(raw); !isStr {
		verr.Add("condition", "must be a string")
	} else {
		in.Condition = s
	}
	if raw, ok := obj.get("confidence"); !ok {
		verr.Add("confidence", "is required")
	} else if f, isNum := asNumber(raw); !isNum {
		verr.Add("confidence", "must be a number")
	} else if pct, cerr := domain.ConfidencePercent(f); cerr != nil {
		verr.Add("confidence", rangeMsg(domain.MinConfidence, domain.MaxConfidence))
	} else {
		in.Confidence = pct
	}
	if raw, ok := obj.get("model_version"); ok {
		s, isStr := asString(raw)
		if !isStr {
			verr.Add("model_version", "must be a string")
		} else {
			in.ModelVersion = s
		}
	}

	if err := verr.OrNil(); err != nil {
		return service.SubmitInput{}, err
	}
	return in, nil
}
