package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/guialv3s/InfinityAIRPG/pkg/queue"
	"github.com/redis/go-redis/v9"
)

// RequestsKey is the global Redis list holding pending requests.
const RequestsKey = "requests"

// TurnQueue is the FIFO of turn and admin requests shared by the API and
// the workers.
type TurnQueue struct {
	client *Client
}

func NewTurnQueue(client *Client) *TurnQueue {
	return &TurnQueue{
		client: client,
	}
}

// EnqueueRequest adds a request to the end of the global queue
func (q *TurnQueue) EnqueueRequest(ctx context.Context, req *queue.Request) error {
	data, err := req.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize request: %w", err)
	}
	if err := q.client.rdb.RPush(ctx, RequestsKey, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue request: %w", err)
	}
	return nil
}

// DequeueRequest removes and returns the next request from the global queue.
// Returns nil if the queue is empty.
func (q *TurnQueue) DequeueRequest(ctx context.Context) (*queue.Request, error) {
	result, err := q.client.rdb.LPop(ctx, RequestsKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Queue is empty
		}
		return nil, fmt.Errorf("failed to dequeue request: %w", err)
	}
	return parse(result)
}

// BlockingDequeueRequest waits up to timeout for a request. It returns
// nil, nil when the timeout passes or ctx is cancelled.
func (q *TurnQueue) BlockingDequeueRequest(ctx context.Context, timeout time.Duration) (*queue.Request, error) {
	result, err := q.client.rdb.BLPop(ctx, timeout, RequestsKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || ctx.Err() != nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to dequeue request: %w", err)
	}

	// BLPop returns [key, value]
	if len(result) != 2 {
		return nil, fmt.Errorf("unexpected BLPop result: %v", result)
	}
	return parse(result[1])
}

// RequestQueueDepth returns the number of requests in the global queue
func (q *TurnQueue) RequestQueueDepth(ctx context.Context) (int, error) {
	count, err := q.client.rdb.LLen(ctx, RequestsKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get request queue depth: %w", err)
	}
	return int(count), nil
}

func parse(data string) (*queue.Request, error) {
	req, err := queue.FromJSON([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return req, nil
}
