package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ndavault/internal/core/domain"
)

func TestSchedulerStore_SaveAndGet(t *testing.T) {
	store := setupTestStore(t).SchedulerStore()
	ctx := context.Background()

	task, err := store.GetTask(ctx, domain.TaskIDExpirationScan)
	require.NoError(t, err)
	assert.Nil(t, task)

	next := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, store.SaveTask(ctx, &domain.ScheduledTask{
		ID:       domain.TaskIDExpirationScan,
		Name:     "Expiration scan",
		Interval: 24 * time.Hour,
		NextRun:  next,
		Enabled:  true,
	}))

	task, err = store.GetTask(ctx, domain.TaskIDExpirationScan)
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, 24*time.Hour, task.Interval)
	assert.True(t, next.Equal(task.NextRun))
	assert.True(t, task.LastRun.IsZero())
	assert.True(t, task.Enabled)

	task.LastError = "inbox missing"
	require.NoError(t, store.SaveTask(ctx, task))
	require.NoError(t, store.SaveTask(ctx, &domain.ScheduledTask{ID: domain.TaskIDInboxRescan, Name: "Inbox"}))

	tasks, err := store.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, domain.TaskIDExpirationScan, tasks[0].ID)
	assert.Equal(t, "inbox missing", tasks[0].LastError)

	assert.ErrorIs(t, store.SaveTask(ctx, nil), domain.ErrInvalidInput)
}

func TestSchedulerStore_History(t *testing.T) {
	store := setupTestStore(t).SchedulerStore()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		start := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, store.RecordResult(ctx, &domain.TaskResult{
			TaskID:         "t",
			StartedAt:      start,
			EndedAt:        start.Add(time.Second),
			Success:        i%2 == 0,
			Error:          map[bool]string{true: "", false: "failed"}[i%2 == 0],
			ItemsProcessed: i,
		}))
	}

	history, err := store.GetTaskHistory(ctx, "t", 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 4, history[0].ItemsProcessed)
	assert.True(t, history[0].Success)
	assert.Equal(t, "failed", history[1].Error)

	require.NoError(t, store.PruneHistory(ctx, 3))
	history, err = store.GetTaskHistory(ctx, "t", 0)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, 2, history[2].ItemsProcessed)
	assert.True(t, base.Add(2*time.Minute).Equal(history[2].StartedAt))
}

func TestSchedulerStore_ExpirationScanCounts(t *testing.T) {
	store := setupTestStore(t).SchedulerStore()
	ctx := context.Background()
	start := time.Date(2026, 10, 1, 6, 0, 0, 0, time.UTC)

	require.NoError(t, store.RecordResult(ctx, &domain.TaskResult{
		TaskID:         domain.TaskIDExpirationScan,
		StartedAt:      start,
		EndedAt:        start.Add(time.Second),
		Success:        true,
		ItemsProcessed: 3,
		Counts: map[string]int{
			domain.ExpirationPassed.String(): 1,
			domain.ExpirationNear.String():   2,
			domain.ExpirationActive.String(): 7,
		},
	}))
	require.NoError(t, store.RecordResult(ctx, &domain.TaskResult{
		TaskID:    domain.TaskIDInboxRescan,
		StartedAt: start,
		EndedAt:   start,
		Success:   true,
	}))

	history, err := store.GetTaskHistory(ctx, domain.TaskIDExpirationScan, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 2, history[0].Counts[domain.ExpirationNear.String()])
	assert.Equal(t, 7, history[0].Counts[domain.ExpirationActive.String()])

	history, err = store.GetTaskHistory(ctx, domain.TaskIDInboxRescan, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Nil(t, history[0].Counts)
}

func TestSchedulerStore_PruneKeepsLastSuccess(t *testing.T) {
	store := setupTestStore(t).SchedulerStore()
	ctx := context.Background()
	base := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	last, err := store.LastSuccessfulResult(ctx, domain.TaskIDExpirationScan)
	require.NoError(t, err)
	assert.Nil(t, last)

	record := func(day int, success bool) {
		start := base.AddDate(0, 0, day)
		result := &domain.TaskResult{
			TaskID:         domain.TaskIDExpirationScan,
			StartedAt:      start,
			EndedAt:        start.Add(time.Minute),
			Success:        success,
			ItemsProcessed: day,
		}
		if !success {
			result.Error = "database is locked"
		}
		require.NoError(t, store.RecordResult(ctx, result))
	}
	record(0, true)
	record(1, true)
	for day := 2; day < 7; day++ {
		record(day, false)
	}

	require.NoError(t, store.PruneHistory(ctx, 2))

	history, err := store.GetTaskHistory(ctx, domain.TaskIDExpirationScan, 0)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, []int{6, 5, 1}, []int{history[0].ItemsProcessed, history[1].ItemsProcessed, history[2].ItemsProcessed})

	last, err = store.LastSuccessfulResult(ctx, domain.TaskIDExpirationScan)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, 1, last.ItemsProcessed)
	assert.True(t, base.AddDate(0, 0, 1).Equal(last.StartedAt))
}
