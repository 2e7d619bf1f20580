package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"plantar/internal/domain"
	"plantar/internal/predict"
	"plantar/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubModel records calls and returns a canned result.
type stubModel struct {
	calls  atomic.Int32
	result predict.Result
	err    error
	block  bool
}

func (m *stubModel) Predict(ctx context.Context, _ predict.Request) (predict.Result, error) {
	m.calls.Add(1)
	if m.block {
		<-ctx.Done()
		return predict.Result{}, ctx.Err()
	}
	return m.result, m.err
}

func pipeline(e *env, model service.Predictor, timeout time.Duration) *service.PredictionPipeline {
	return service.NewPredictionPipeline(model, e.store.Reports(), e.sessions, timeout, e.clock.Now)
}

func metadata() map[string]any { return map[string]any{"age": 61, "weight_kg": 80} }

func TestPredictWithoutModelFallsBack(t *testing.T) {
	e := setup(t)
	caller := patient()

	r, err := pipeline(e, nil, time.Second).Predict(context.Background(), caller, service.PredictInput{Metadata: metadata()})
	require.NoError(t, err)
	assert.Equal(t, domain.ConditionNormal, r.Condition)
	assert.Equal(t, 50, r.Confidence)
	assert.Equal(t, "fallback", r.ModelVersion)
	assert.Equal(t, domain.SourceFallback, r.Source)
	assert.Equal(t, domain.Recommend(domain.ConditionNormal), r.Recommendation)
	assert.Equal(t, caller.UserID, r.UserID)
	assert.Equal(t, int64(1), countRows(t, e.db, &domain.Report{}))
}

func TestPredictAdoptsModelResult(t *testing.T) {
	e := setup(t)
	var got predict.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"condition":"flat foot","confidence":87,"model_version":"v3"}`))
	}))
	defer srv.Close()

	caller := patient()
	s, err := e.sessions.Create(context.Background(), caller, "")
	require.NoError(t, err)

	p := pipeline(e, predict.NewClient(srv.URL, time.Second), time.Second)
	r, err := p.Predict(context.Background(), caller, service.PredictInput{
		SessionID: &s.ID,
		Metadata:  metadata(),
		Pressure:  json.RawMessage(`[[1,2],[3,4]]`),
	})
	require.NoError(t, err)
	assert.Equal(t, "flat foot", r.Condition)
	assert.Equal(t, 87, r.Confidence)
	assert.Equal(t, "v3", r.ModelVersion)
	assert.Equal(t, domain.SourceModel, r.Source)
	assert.Contains(t, r.Recommendation, "consult a clinician")
	require.NotNil(t, r.SessionID)
	assert.Equal(t, s.ID, *r.SessionID)

	require.NotNil(t, got.SessionID)
	assert.Equal(t, s.ID, *got.SessionID)
	assert.Equal(t, float64(61), got.Metadata["age"])
	assert.JSONEq(t, `[[1,2],[3,4]]`, string(got.Pressure))
}

func TestPredictPartialModelResult(t *testing.T) {
	e := setup(t)
	model := &stubModel{result: predict.Result{Condition: "high arch"}}
	r, err := pipeline(e, model, time.Second).Predict(context.Background(), patient(), service.PredictInput{Metadata: metadata()})
	require.NoError(t, err)
	assert.Equal(t, "high arch", r.Condition)
	assert.Equal(t, 50, r.Confidence)
	assert.Equal(t, "fallback", r.ModelVersion)
	assert.Equal(t, domain.SourceModel, r.Source)

	out := 140.0
	model.result = predict.Result{Condition: "normal", Confidence: &out, ModelVersion: "v1"}
	r, err = pipeline(e, model, time.Second).Predict(context.Background(), patient(), service.PredictInput{Metadata: metadata()})
	require.NoError(t, err)
	assert.Equal(t, 50, r.Confidence)
}

func modelReturning(t *testing.T, body string) *predict.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return predict.NewClient(srv.URL, time.Second)
}

func TestPredictFractionalConfidenceIsNotRescaled(t *testing.T) {
	e := setup(t)
	model := modelReturning(t, `{"condition":"flat foot","confidence":0.87,"model_version":"v3"}`)

	r, err := pipeline(e, model, time.Second).Predict(context.Background(), patient(), service.PredictInput{Metadata: metadata()})
	require.NoError(t, err)
	assert.Equal(t, "flat foot", r.Condition)
	assert.Equal(t, 50, r.Confidence)
	assert.Equal(t, "v3", r.ModelVersion)
	assert.Equal(t, domain.SourceModel, r.Source)

	model = modelReturning(t, `{"condition":"flat foot","confidence":87.4}`)
	r, err = pipeline(e, model, time.Second).Predict(context.Background(), patient(), service.PredictInput{Metadata: metadata()})
	require.NoError(t, err)
	assert.Equal(t, 50, r.Confidence)
}

func TestPredictMistypedFieldOnlyDropsItself(t *testing.T) {
	e := setup(t)
	model := modelReturning(t, `{"condition":"flat foot","confidence":"87","model_version":"v3"}`)

	r, err := pipeline(e, model, time.Second).Predict(context.Background(), patient(), service.PredictInput{Metadata: metadata()})
	require.NoError(t, err)
	assert.Equal(t, "flat foot", r.Condition)
	assert.Equal(t, 50, r.Confidence)
	assert.Equal(t, "v3", r.ModelVersion)
	assert.Equal(t, domain.SourceModel, r.Source)
	assert.Contains(t, r.Recommendation, "consult a clinician")
}

func TestPredictModelFailureFallsBack(t *testing.T) {
	e := setup(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	r, err := pipeline(e, predict.NewClient(srv.URL, time.Second), time.Second).
		Predict(context.Background(), patient(), service.PredictInput{Metadata: metadata()})
	require.NoError(t, err)
	assert.Equal(t, domain.SourceFallback, r.Source)
	assert.Equal(t, 50, r.Confidence)

	r, err = pipeline(e, &stubModel{err: errors.New("connection refused")}, time.Second).
		Predict(context.Background(), patient(), service.PredictInput{Metadata: metadata()})
	require.NoError(t, err)
	assert.Equal(t, domain.SourceFallback, r.Source)
}

func TestPredictTimeoutFallsBack(t *testing.T) {
	e := setup(t)
	model := &stubModel{block: true}

	start := time.Now()
	r, err := pipeline(e, model, 50*time.Millisecond).Predict(context.Background(), patient(), service.PredictInput{Metadata: metadata()})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, domain.SourceFallback, r.Source)
	assert.Equal(t, "fallback", r.ModelVersion)
}

func TestPredictCallerCancelWritesNothing(t *testing.T) {
	e := setup(t)
	model := &stubModel{block: true}
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := pipeline(e, model, 5*time.Second).Predict(ctx, patient(), service.PredictInput{Metadata: metadata()})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(0), countRows(t, e.db, &domain.Report{}))
}

func TestPredictRejectsBeforeCallingModel(t *testing.T) {
	e := setup(t)
	model := &stubModel{}
	p := pipeline(e, model, time.Second)

	_, err := p.Predict(context.Background(), patient(), service.PredictInput{})
	assert.ErrorIs(t, err, domain.ErrValidation)

	owner := patient()
	s, err := e.sessions.Create(context.Background(), owner, "")
	require.NoError(t, err)
	_, err = p.Predict(context.Background(), patient(), service.PredictInput{SessionID: &s.ID, Metadata: metadata()})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	missing := uuid.New()
	_, err = p.Predict(context.Background(), owner, service.PredictInput{SessionID: &missing, Metadata: metadata()})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Equal(t, int32(0), model.calls.Load())
	assert.Equal(t, int64(0), countRows(t, e.db, &domain.Report{}))
}
