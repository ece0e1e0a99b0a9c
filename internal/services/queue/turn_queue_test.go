package queue

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/guialv3s/InfinityAIRPG/pkg/character"
	"github.com/guialv3s/InfinityAIRPG/pkg/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	client, err := NewClient("redis://"+mr.Addr(), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

var testKey = character.Key{PlayerID: "p1", CampaignID: "c1"}

func TestTurnQueue_FIFO(t *testing.T) {
	client, _ := setupTestRedis(t)
	q := NewTurnQueue(client)
	ctx := context.Background()

	first := queue.NewTurnRequest(testKey, "first")
	second := queue.NewTurnRequest(testKey, "second")
	require.NoError(t, q.EnqueueRequest(ctx, first))
	require.NoError(t, q.EnqueueRequest(ctx, second))

	depth, err := q.RequestQueueDepth(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, depth)

	got, err := q.DequeueRequest(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.RequestID, got.RequestID)
	assert.Equal(t, testKey, got.Key())

	got, err = q.BlockingDequeueRequest(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "second", got.Message)

	got, err = q.DequeueRequest(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestTurnQueue_BlockingDequeueTimesOut(t *testing.T) {
	client, _ := setupTestRedis(t)
	q := NewTurnQueue(client)

	got, err := q.BlockingDequeueRequest(context.Background(), 100*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestTurnQueue_MalformedEntry(t *testing.T) {
	client, mr := setupTestRedis(t)
	q := NewTurnQueue(client)

	_, err := mr.RPush(RequestsKey, "not json")
	require.NoError(t, err)

	_, err = q.DequeueRequest(context.Background())
	assert.Error(t, err)
}

func TestNewClient_BadURL(t *testing.T) {
	_, err := NewClient("://bad", slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}
