package schema

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"plantar/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr), "expected validation error, got %v", err)
	return verr.Fields
}

func TestDecodeSampleDefaultsFoot(t *testing.T) {
	sid := uuid.New()
	body := fmt.Sprintf(`{"session_id":%q,"grid_width":3,"grid_height":3,"pressure":[[0,1,2],[3,4,5],[6,7,8]]}`, sid)

	in, err := DecodeSample([]byte(body), nil)
	require.NoError(t, err)
	assert.Equal(t, sid, in.SessionID)
	assert.Equal(t, domain.FootBoth, in.Foot)
	assert.Equal(t, 3, in.Pressure.Width)
	assert.Equal(t, 8.0, in.Pressure.At(2, 2))
	assert.Nil(t, in.CapturedAt)
	assert.Nil(t, in.Stats)
}

func TestDecodeSampleOptionalFields(t *testing.T) {
	sid := uuid.New()
	body := fmt.Sprintf(`{"session_id":%q,"foot":"left","grid_width":2,"grid_height":1,
		"pressure":[[1.5,2]],"stats":{"peak":2,"mean":1.75},"captured_at":"2024-03-01T10:00:00Z"}`, sid)

	in, err := DecodeSample([]byte(body), nil)
	require.NoError(t, err)
	assert.Equal(t, domain.FootLeft, in.Foot)
	assert.Equal(t, domain.Stats{"peak": 2, "mean": 1.75}, in.Stats)
	require.NotNil(t, in.CapturedAt)
	assert.True(t, in.CapturedAt.Equal(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)))
}

func TestDecodeSampleFieldErrors(t *testing.T) {
	cases := map[string]struct {
		body  string
		field string
	}{
		"missing session":   {`{"grid_width":1,"grid_height":1,"pressure":[[1]]}`, "session_id"},
		"bad session":       {`{"session_id":"nope","grid_width":1,"grid_height":1,"pressure":[[1]]}`, "session_id"},
		"bad foot":          {`{"session_id":"%s","foot":"middle","grid_width":1,"grid_height":1,"pressure":[[1]]}`, "foot"},
		"width too large":   {`{"session_id":"%s","grid_width":65,"grid_height":1,"pressure":[[1]]}`, "grid_width"},
		"height fractional": {`{"session_id":"%s","grid_width":1,"grid_height":1.5,"pressure":[[1]]}`, "grid_height"},
		"rows mismatch":     {`{"session_id":"%s","grid_width":2,"grid_height":3,"pressure":[[1,2],[3,4]]}`, "pressure"},
		"cols mismatch":     {`{"session_id":"%s","grid_width":3,"grid_height":2,"pressure":[[1,2,3],[4,5]]}`, "pressure"},
		"empty pressure":    {`{"session_id":"%s","grid_width":1,"grid_height":1,"pressure":[]}`, "pressure"},
		"not numeric":       {`{"session_id":"%s","grid_width":1,"grid_height":1,"pressure":[["a"]]}`, "pressure"},
		"null cell":         {`{"session_id":"%s","grid_width":1,"grid_height":1,"pressure":[[null]]}`, "pressure"},
		"bad stats":         {`{"session_id":"%s","grid_width":1,"grid_height":1,"pressure":[[1]],"stats":[1]}`, "stats"},
		"bad captured_at":   {`{"session_id":"%s","grid_width":1,"grid_height":1,"pressure":[[1]],"captured_at":"yesterday"}`, "captured_at"},
	}
	sid := uuid.NewString()
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			body := tc.body
			if strings.Contains(body, "%s") {
				body = fmt.Sprintf(body, sid)
			}
			_, err := DecodeSample([]byte(body), nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Contains(t, fieldsOf(t, err), tc.field)
		})
	}
}

func TestDecodeSampleReportsEveryField(t *testing.T) {
	_, err := DecodeSample([]byte(`{"foot":"x","grid_width":0}`), nil)
	fields := fieldsOf(t, err)
	for _, f := range []string{"session_id", "foot", "grid_width", "grid_height", "pressure"} {
		assert.Contains(t, fields, f)
	}
}

func TestDecodeSamplePathSessionWins(t *testing.T) {
	pathID := uuid.New()
	body := fmt.Sprintf(`{"session_id":%q,"grid_width":1,"grid_height":1,"pressure":[[1]]}`, uuid.New())
	in, err := DecodeSample([]byte(body), &pathID)
	require.NoError(t, err)
	assert.Equal(t, pathID, in.SessionID)

	in, err = DecodeSample([]byte(`{"grid_width":1,"grid_height":1,"pressure":[[1]]}`), &pathID)
	require.NoError(t, err)
	assert.Equal(t, pathID, in.SessionID)
}

func TestDecodeSampleNotAnObject(t *testing.T) {
	for _, body := range []string{``, `[]`, `"x"`, `{`} {
		_, err := DecodeSample([]byte(body), nil)
		assert.Contains(t, fieldsOf(t, err), "body", "body %q", body)
	}
}
