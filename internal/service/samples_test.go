package service_test

import (
	"context"
	"testing"
	"time"

	"plantar/internal/domain"
	"plantar/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngestDefaultsAndIntegrity(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	caller := patient()
	s, err := e.sessions.Create(ctx, caller, "")
	require.NoError(t, err)

	sample, err := e.samples.Ingest(ctx, domain.SampleInput{SessionID: s.ID, Pressure: grid(t, 3, 3)}, service.SourceDevice)
	require.NoError(t, err)
	assert.Equal(t, domain.FootBoth, sample.Foot)
	assert.Equal(t, e.clock.Now(), sample.CapturedAt)
	assert.Equal(t, 3, sample.GridWidth)
	assert.Equal(t, 3, sample.GridHeight)

	captured := time.Date(2024, 6, 1, 11, 59, 0, 0, time.UTC)
	sample, err = e.samples.Ingest(ctx, domain.SampleInput{SessionID: s.ID, Foot: domain.FootRight, Pressure: grid(t, 2, 1), CapturedAt: &captured}, service.SourceDevice)
	require.NoError(t, err)
	assert.Equal(t, captured, sample.CapturedAt)

	_, err = e.samples.Ingest(ctx, domain.SampleInput{SessionID: uuid.New(), Pressure: grid(t, 1, 1)}, service.SourceDevice)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = e.samples.Ingest(ctx, domain.SampleInput{Pressure: grid(t, 1, 1)}, service.SourceDevice)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = e.sessions.Transition(ctx, caller, s.ID, domain.SessionPatch{Status: statusPtr(domain.SessionEnded)})
	require.NoError(t, err)
	_, err = e.samples.Ingest(ctx, domain.SampleInput{SessionID: s.ID, Pressure: grid(t, 1, 1)}, service.SourceDevice)
	assert.ErrorIs(t, err, domain.ErrConflict)

	assert.Equal(t, int64(2), countRows(t, e.db, &domain.Sample{}))
}

func TestAppendToSessionRequiresOwner(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	owner := patient()
	s, err := e.sessions.Create(ctx, owner, "")
	require.NoError(t, err)

	_, err = e.samples.AppendToSession(ctx, patient(), s.ID, domain.SampleInput{Pressure: grid(t, 1, 1)})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	sample, err := e.samples.AppendToSession(ctx, owner, s.ID, domain.SampleInput{SessionID: uuid.New(), Pressure: grid(t, 1, 1)})
	require.NoError(t, err)
	assert.Equal(t, s.ID, sample.SessionID)

	_, err = e.sessions.Transition(ctx, owner, s.ID, domain.SessionPatch{Status: statusPtr(domain.SessionEnded)})
	require.NoError(t, err)
	_, err = e.samples.AppendToSession(ctx, owner, s.ID, domain.SampleInput{Pressure: grid(t, 1, 1)})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestListSamplesBounded(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	owner := patient()
	s, err := e.sessions.Create(ctx, owner, "")
	require.NoError(t, err)

	for i := 0; i < 55; i++ {
		e.clock.Advance(time.Second)
		_, err := e.samples.Ingest(ctx, domain.SampleInput{SessionID: s.ID, Pressure: grid(t, 1, 1)}, service.SourceDevice)
		require.NoError(t, err)
	}

	items, page, err := e.samples.List(ctx, owner, s.ID, domain.Page{Limit: 100})
	require.NoError(t, err)
	assert.Equal(t, domain.MaxSamplePage, page.Limit)
	require.Len(t, items, domain.MaxSamplePage)
	assert.True(t, items[0].CapturedAt.After(items[1].CapturedAt))

	n, err := e.samples.Count(ctx, owner, s.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(55), n)

	_, _, err = e.samples.List(ctx, patient(), s.ID, domain.Page{Limit: 10})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
