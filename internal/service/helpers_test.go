package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"plantar/internal/domain"
	"plantar/internal/service"
	"plantar/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fixedClock is a settable server clock.
type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type env struct {
	db       *gorm.DB
	store    *store.Store
	clock    *fixedClock
	sessions *service.SessionManager
	samples  *service.SampleService
	reports  *service.ReportService
}

func setup(t *testing.T) *env {
	t.Helper()

	db, err := store.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()), false)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	st := store.New(db)
	require.NoError(t, st.AutoMigrate(context.Background()))

	clock := &fixedClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	sessions := service.NewSessionManager(st.Sessions(), clock.Now)
	return &env{
		db:       db,
		store:    st,
		clock:    clock,
		sessions: sessions,
		samples:  service.NewSampleService(st.Samples(), sessions, clock.Now),
		reports:  service.NewReportService(st.Reports(), sessions, clock.Now),
	}
}

func patient() domain.Caller {
	return domain.Caller{UserID: uuid.New(), Role: domain.RolePatient}
}

func admin() domain.Caller {
	return domain.Caller{UserID: uuid.New(), Role: domain.RoleAdmin}
}

func statusPtr(s domain.SessionStatus) *domain.SessionStatus { return &s }

func strPtr(s string) *string { return &s }

func grid(t *testing.T, w, h int) domain.Grid {
	t.Helper()
	rows := make([][]float64, h)
	for i := range rows {
		rows[i] = make([]float64, w)
	}
	g, err := domain.NewGrid(w, h, rows)
	require.NoError(t, err)
	return g
}

func countRows(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}
