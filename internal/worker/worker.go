package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/guialv3s/InfinityAIRPG/internal/services/events"
	"github.com/guialv3s/InfinityAIRPG/internal/services/queue"
	"github.com/guialv3s/InfinityAIRPG/pkg/character"
	queuePkg "github.com/guialv3s/InfinityAIRPG/pkg/queue"
	"github.com/redis/go-redis/v9"
)

const (
	workerTimeout = 5 * time.Second
	lockTTL       = 30 * time.Second
	// lockRenewInterval keeps the lock alive while a turn outlasts lockTTL.
	lockRenewInterval = lockTTL / 3
)

// releaseScript deletes the lock only if this worker still owns it.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// renewScript extends the lock only if this worker still owns it.
var renewScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("pexpire", KEYS[1], ARGV[2])
	else
		return 0
	end
`)

// LockKey is the Redis key that serialises turns for one character.
func LockKey(key character.Key) string {
	return "character-lock:" + key.String()
}

// Worker processes requests from the turn queue
type Worker struct {
	id          string
	queue       *queue.TurnQueue
	processor   *TurnProcessor
	broadcaster *events.Broadcaster
	redisClient *redis.Client
	log         *slog.Logger
	renewEvery  time.Duration
	ctx         context.Context
	cancel      context.CancelFunc
}

// New creates a new worker instance
func New(turnQueue *queue.TurnQueue, processor *TurnProcessor, redisClient *redis.Client, log *slog.Logger, workerID string) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	if workerID == "" {
		workerID = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
	}

	return &Worker{
		id:          workerID,
		queue:       turnQueue,
		processor:   processor,
		broadcaster: events.NewBroadcaster(redisClient, log),
		redisClient: redisClient,
		log:         log,
		renewEvery:  lockRenewInterval,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// ID returns the worker's lock owner id.
func (w *Worker) ID() string {
	return w.id
}

// Start begins processing requests from the queue
func (w *Worker) Start() error {
	w.log.Info("Worker starting", "worker_id", w.id)

	for {
		select {
		case <-w.ctx.Done():
			w.log.Info("Worker shutting down", "worker_id", w.id)
			return nil
		default:
			if err := w.processNextRequest(); err != nil {
				w.log.Error("Error processing request", "error", err, "worker_id", w.id)
				// Continue processing even on error
				time.Sleep(1 * time.Second)
			}
		}
	}
}

// Stop gracefully shuts down the worker
func (w *Worker) Stop() {
	w.log.Info("Worker stop requested", "worker_id", w.id)
	w.cancel()
}

// processNextRequest pulls the next request from the queue and processes it
func (w *Worker) processNextRequest() error {
	// Block waiting for next request (timeout lets Start notice shutdown)
	ctx, cancel := context.WithTimeout(w.ctx, workerTimeout+time.Second)
	defer cancel()

	req, err := w.queue.BlockingDequeueRequest(ctx, workerTimeout)
	if err != nil {
		return fmt.Errorf("failed to dequeue request: %w", err)
	}
	if req == nil {
		return nil
	}

	key := req.Key()
	w.log.Info("Received request from queue",
		"worker_id", w.id,
		"request_id", req.RequestID,
		"type", req.Type,
		"character", key.String(),
	)

	locked, err := w.acquireLock(key)
	if err != nil {
		return fmt.Errorf("failed to acquire character lock: %w", err)
	}
	if !locked {
		// Another worker holds this character; put the request at the back
		w.log.Info("Character already locked, re-queueing request",
			"worker_id", w.id,
			"request_id", req.RequestID,
			"character", key.String(),
		)
		if err := w.queue.EnqueueRequest(w.ctx, req); err != nil {
			return fmt.Errorf("failed to re-queue request: %w", err)
		}
		return nil
	}

	defer w.releaseLock(key)

	// the turn is cancelled if the lock is lost, so it never saves unlocked
	turnCtx, cancelTurn := context.WithCancel(w.ctx)
	defer cancelTurn()
	go w.holdLock(turnCtx, key, cancelTurn)

	return w.processRequest(turnCtx, req)
}

// acquireLock returns true if the lock was taken, false if already held.
func (w *Worker) acquireLock(key character.Key) (bool, error) {
	return w.redisClient.SetNX(w.ctx, LockKey(key), w.id, lockTTL).Result()
}

// renewLock resets the lock TTL and reports whether this worker still owns it.
func (w *Worker) renewLock(ctx context.Context, key character.Key) (bool, error) {
	n, err := renewScript.Run(ctx, w.redisClient, []string{LockKey(key)}, w.id, lockTTL.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// holdLock renews the lock until ctx ends. It cancels the turn when another
// owner has taken the lock.
func (w *Worker) holdLock(ctx context.Context, key character.Key, cancelTurn context.CancelFunc) {
	ticker := time.NewTicker(w.renewEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			owned, err := w.renewLock(ctx, key)
			if err != nil {
				if ctx.Err() == nil {
					w.log.Error("Failed to renew character lock", "error", err, "character", key.String())
				}
				continue
			}
			if !owned {
				w.log.Warn("Character lock lost, cancelling turn", "worker_id", w.id, "character", key.String())
				cancelTurn()
				return
			}
		}
	}
}

func (w *Worker) releaseLock(key character.Key) {
	if err := releaseScript.Run(w.ctx, w.redisClient, []string{LockKey(key)}, w.id).Err(); err != nil {
		w.log.Error("Failed to release character lock", "error", err, "character", key.String())
	}
}

// processRequest runs the turn under ctx. Events go out on the worker's
// context so a cancelled turn still reports its failure.
func (w *Worker) processRequest(ctx context.Context, req *queuePkg.Request) error {
	key := req.Key()
	start := time.Now()

	if err := w.broadcaster.PublishRequestProcessing(w.ctx, key, req.RequestID, string(req.Type), req.Message); err != nil {
		w.log.Error("Failed to publish processing event", "error", err)
		// Don't fail the request just because event publishing failed
	}

	resp, err := w.processor.Process(ctx, req)
	if err != nil {
		w.log.Error("Failed to process request",
			"error", err,
			"request_id", req.RequestID,
			"character", key.String(),
		)
		if pubErr := w.broadcaster.PublishRequestFailed(w.ctx, key, req.RequestID, err.Error()); pubErr != nil {
			w.log.Error("Failed to publish failure event", "error", pubErr)
		}
		return fmt.Errorf("failed to process request: %w", err)
	}

	w.log.Info("Request processed successfully",
		"worker_id", w.id,
		"request_id", req.RequestID,
		"changed", resp.Changed,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if err := w.broadcaster.PublishRequestCompleted(w.ctx, key, req.RequestID, resp); err != nil {
		w.log.Error("Failed to publish completion event", "error", err)
	}

	if resp.Changed {
		c, err := w.processor.storage.LoadCharacter(w.ctx, key)
		if err != nil {
			w.log.Error("Failed to load character for update event", "error", err)
		} else if c != nil {
			if err := w.broadcaster.PublishCharacterUpdated(w.ctx, key, c.Level, c.Resources.Health); err != nil {
				w.log.Error("Failed to publish character update", "error", err)
			}
		}
	}
	return nil
}
