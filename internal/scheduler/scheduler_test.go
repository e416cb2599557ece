package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Starship01-akaSniper/youtube-shorts-automation/internal/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memScheduleStore struct {
	schedules []persistence.Schedule
	touched   []int64
}

func (m *memScheduleStore) ListSchedules(_ context.Context, activeOnly bool) ([]persistence.Schedule, error) {
	if !activeOnly {
		return m.schedules, nil
	}
	active := make([]persistence.Schedule, 0, len(m.schedules))
	for _, s := range m.schedules {
		if s.Active {
			active = append(active, s)
		}
	}
	return active, nil
}

func (m *memScheduleStore) SetScheduleNextRun(_ context.Context, id int64, nextRun time.Time) error {
	for i := range m.schedules {
		if m.schedules[i].ID == id {
			m.schedules[i].NextRun = &nextRun
		}
	}
	return nil
}

func (m *memScheduleStore) TouchSchedule(_ context.Context, id int64, lastRun, nextRun time.Time) error {
	m.touched = append(m.touched, id)
	for i := range m.schedules {
		if m.schedules[i].ID == id {
			m.schedules[i].LastRun = &lastRun
			m.schedules[i].NextRun = &nextRun
		}
	}
	return nil
}

type recordingSubmitter struct {
	scripts []string
	titles  []string
	uploads []bool
}

func (r *recordingSubmitter) Submit(_ context.Context, script, title, _ string, autoUpload bool) (int64, int64, error) {
	r.scripts = append(r.scripts, script)
	r.titles = append(r.titles, title)
	r.uploads = append(r.uploads, autoUpload)
	return 1, 1, nil
}

func writeScript(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestScheduler(store Store, submitter Submitter, now time.Time) *Scheduler {
	s := New(store, submitter)
	s.now = func() time.Time { return now }
	return s
}

func TestTick_InitializesNextRunWithoutFiring(t *testing.T) {
	store := &memScheduleStore{schedules: []persistence.Schedule{
		{ID: 1, Name: "Morning facts", Frequency: "daily", TimeOfDay: "09:00", Active: true, ScriptSource: writeScript(t, "a script")},
	}}
	submitter := &recordingSubmitter{}

	s := newTestScheduler(store, submitter, time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC))
	require.NoError(t, s.Tick(context.Background()))

	assert.Empty(t, submitter.scripts)
	require.NotNil(t, store.schedules[0].NextRun)
	assert.Equal(t, time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC), store.schedules[0].NextRun.UTC())
}

func TestTick_FiresDueSchedule(t *testing.T) {
	due := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)
	store := &memScheduleStore{schedules: []persistence.Schedule{
		{ID: 1, Name: "Morning facts", Frequency: "daily", TimeOfDay: "09:00", Active: true, AutoUpload: true,
			NextRun: &due, ScriptSource: writeScript(t, "honey never spoils")},
	}}
	submitter := &recordingSubmitter{}

	now := time.Date(2026, 8, 31, 9, 0, 30, 0, time.UTC)
	s := newTestScheduler(store, submitter, now)
	require.NoError(t, s.Tick(context.Background()))

	require.Len(t, submitter.scripts, 1)
	assert.Equal(t, "honey never spoils", submitter.scripts[0])
	assert.Equal(t, "Morning facts - 2026-08-31", submitter.titles[0])
	assert.Equal(t, []bool{true}, submitter.uploads)

	assert.Equal(t, []int64{1}, store.touched)
	require.NotNil(t, store.schedules[0].NextRun)
	assert.Equal(t, time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC), store.schedules[0].NextRun.UTC())
}

func TestTick_DirectoryScriptSourcePicksNewest(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "old.txt"), []byte("stale"), 0o644))
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "old.txt"), past, past))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.txt"), []byte("fresh script"), 0o644))

	due := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)
	store := &memScheduleStore{schedules: []persistence.Schedule{
		{ID: 1, Name: "Batch", Frequency: "daily", TimeOfDay: "09:00", Active: true,
			NextRun: &due, ScriptSource: dir},
	}}
	submitter := &recordingSubmitter{}

	s := newTestScheduler(store, submitter, due.Add(time.Minute))
	require.NoError(t, s.Tick(context.Background()))

	require.Len(t, submitter.scripts, 1)
	assert.Equal(t, "fresh script", submitter.scripts[0])
}

func TestTick_SkipsNotYetDueAndInactive(t *testing.T) {
	future := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	store := &memScheduleStore{schedules: []persistence.Schedule{
		{ID: 1, Frequency: "daily", TimeOfDay: "09:00", Active: true, NextRun: &future, ScriptSource: writeScript(t, "x")},
		{ID: 2, Frequency: "daily", TimeOfDay: "09:00", Active: false, ScriptSource: writeScript(t, "y")},
	}}
	submitter := &recordingSubmitter{}

	s := newTestScheduler(store, submitter, time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC))
	require.NoError(t, s.Tick(context.Background()))
	assert.Empty(t, submitter.scripts)
	assert.Empty(t, store.touched)
}

func TestCronExpr(t *testing.T) {
	tests := []struct {
		name     string
		schedule persistence.Schedule
		expected string
		wantErr  bool
	}{
		{name: "daily", schedule: persistence.Schedule{Frequency: "daily", TimeOfDay: "09:30"}, expected: "0 30 9 * * *"},
		{name: "daily default time", schedule: persistence.Schedule{Frequency: "daily"}, expected: "0 0 9 * * *"},
		{name: "weekly with days", schedule: persistence.Schedule{Frequency: "weekly", TimeOfDay: "18:00", Days: "mon,wed,fri"}, expected: "0 0 18 * * mon,wed,fri"},
		{name: "weekly default day", schedule: persistence.Schedule{Frequency: "weekly", TimeOfDay: "18:00"}, expected: "0 0 18 * * sun"},
		{name: "unknown frequency", schedule: persistence.Schedule{Frequency: "hourly"}, wantErr: true},
		{name: "bad time", schedule: persistence.Schedule{Frequency: "daily", TimeOfDay: "25:00"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, err := CronExpr(tt.schedule)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, expr)
		})
	}
}
