package cli

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
)

func TestQueueCmd_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range queueCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"list", "stats", "requeue", "recover"} {
		assert.True(t, names[want], want)
	}
}

func TestQueueListCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.Queue.Entries = []domain.QueueEntry{
		{ID: 9, DocumentID: 1, SegmentID: 4, Status: domain.QueueStatusFailed, Attempts: 1, LastError: "timeout"},
	}

	out, _, err := execute("queue", "list", "--status", "failed", "-n", "5")

	require.NoError(t, err)
	assert.Equal(t, domain.QueueStatusFailed, ts.Queue.GotStatus)
	assert.Equal(t, 5, ts.Queue.GotLimit)
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "attempts 1")
	assert.Contains(t, out, "error: timeout")
}

func TestQueueListCmd_Empty(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, _, err := execute("queue", "list")

	require.NoError(t, err)
	assert.Equal(t, domain.QueueStatus(""), ts.Queue.GotStatus)
	assert.Equal(t, 50, ts.Queue.GotLimit)
	assert.Contains(t, out, "Queue is empty.")
}

func TestQueueStatsCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.Queue.StatsValue = domain.QueueStats{Pending: 3, Processing: 1, Completed: 10, Failed: 2}

	out, _, err := execute("queue", "stats")

	require.NoError(t, err)
	assert.Contains(t, out, "[Queue]")
	assert.Contains(t, out, "Pending:    3")
	assert.Contains(t, out, "Processing: 1")
	assert.Contains(t, out, "Completed:  10")
	assert.Contains(t, out, "Failed:     2")
}

func TestQueueRequeueCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.Queue.RequeueCount = 4

	out, _, err := execute("queue", "requeue", "--document", "2", "-g", "work")

	require.NoError(t, err)
	assert.Equal(t, []int64{2}, ts.Queue.GotScope.DocumentIDs)
	assert.Equal(t, []string{"work"}, ts.Queue.GotScope.Groups)
	assert.Contains(t, out, "Requeued 4 failed entries.")
}

func TestQueueRecoverCmd_DefaultsToSettings(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	settings := domain.DefaultAppSettings()
	settings.Queue.StaleAfter = 30 * time.Minute
	ts.Settings.Settings = &settings
	ts.Queue.RecoverCount = 2

	out, _, err := execute("queue", "recover")

	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, ts.Queue.GotOlderThan)
	assert.Contains(t, out, "Recovered 2 stranded entries.")
}

func TestQueueRecoverCmd_OlderThanFlag(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	_, _, err := execute("queue", "recover", "--older-than", "5m")

	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, ts.Queue.GotOlderThan)
}

func TestQueueCmd_ServiceError(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.Queue.Err = errors.New("database locked")

	_, _, err := execute("queue", "stats")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "database locked")
}

func TestQueueCmd_ServiceNotConfigured(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	queueService = nil

	for _, sub := range []string{"list", "stats", "requeue", "recover"} {
		_, _, err := execute("queue", sub)
		require.Error(t, err, sub)
		assert.Contains(t, err.Error(), "queue service not configured", sub)
	}
}
