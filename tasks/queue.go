package tasks

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/sirupsen/logrus"

	"github.com/crollins/chorus/models"
)

// Resolver resolves the registered follower inboxes of a community
type Resolver interface {
	FollowerInboxes(ctx context.Context, communityID int64) ([]url.URL, error)
}

// Queue fans locally authored activities out to destination inboxes.
// Delivery is at-least-once: each inbox has its own FIFO worker, so a
// failing destination can neither block nor reorder deliveries to others.
// Failed attempts are retried with exponential backoff up to a bounded
// count, then abandoned and reported; abandoning a delivery never rolls
// back the local state change that produced the activity.
type Queue struct {
	resolver    Resolver
	client      *http.Client
	signer      Signer
	maxAttempts int
	baseBackoff time.Duration
	log         *logrus.Entry

	mu      sync.Mutex
	inboxes map[string]chan Task
	closed  bool
	done    chan struct{}

	senders sync.WaitGroup
	wg      sync.WaitGroup
}

// NewQueue creates a delivery queue. maxAttempts bounds tries per inbox;
// baseBackoff is the wait before the second attempt and doubles per retry.
func NewQueue(resolver Resolver, client *http.Client, signer Signer, maxAttempts int, baseBackoff time.Duration, log *logrus.Entry) *Queue {
	return &Queue{
		resolver:    resolver,
		client:      client,
		signer:      signer,
		maxAttempts: maxAttempts,
		baseBackoff: baseBackoff,
		log:         log,
		inboxes:     make(map[string]chan Task),
		done:        make(chan struct{}),
	}
}

// SendToCommunity queues payload to the union of the community's follower
// inboxes and the explicit extra recipients, deduplicated by inbox URI.
// Follower resolution already prefers shared inboxes, so one instance
// hosting many followers receives a single copy.
func (q *Queue) SendToCommunity(ctx context.Context, activityID string, payload []byte, community *models.Community, extra []url.URL) error {
	followers, err := q.resolver.FollowerInboxes(ctx, community.ID)
	if err != nil {
		return fmt.Errorf("could not resolve follower inboxes for community %d: %w", community.ID, err)
	}

	seen := make(map[string]bool)
	for _, inbox := range append(followers, extra...) {
		key := inbox.String()
		if seen[key] {
			continue
		}
		seen[key] = true

		taskID, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("could not generate delivery task id: %v", err)
		}

		q.enqueue(key, &Deliver{
			TaskID:     taskID,
			ActivityID: activityID,
			Activity:   payload,
			Inbox:      inbox,
			Client:     q.client,
			Signer:     q.signer,
		})
	}
	return nil
}

func (q *Queue) enqueue(inbox string, task Task) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		q.log.WithField("inbox", inbox).Warn("queue closed, dropping delivery")
		return
	}
	q.senders.Add(1)
	ch, ok := q.inboxes[inbox]
	if !ok {
		ch = make(chan Task, 64)
		q.inboxes[inbox] = ch
		q.wg.Add(1)
		go q.worker(inbox, ch)
	}
	q.mu.Unlock()
	defer q.senders.Done()

	// The worker channel is only closed after every registered sender has
	// returned, so this send can never hit a closed channel. A send still
	// blocked when shutdown starts drops its delivery instead.
	select {
	case ch <- task:
	case <-q.done:
		q.log.WithField("inbox", inbox).Warn("queue closed, dropping delivery")
	}
}

// worker drains one inbox's queue in order
func (q *Queue) worker(inbox string, ch chan Task) {
	defer q.wg.Done()

	for task := range ch {
		q.attempt(inbox, task)
	}
}

func (q *Queue) attempt(inbox string, task Task) {
	log := q.log.WithFields(logrus.Fields{
		"inbox": inbox,
		"task":  task.ID(),
	})

	for try := 0; try < q.maxAttempts; try++ {
		if try > 0 {
			time.Sleep(q.baseBackoff << (try - 1))
		}

		start := time.Now()
		err := task.Run(context.Background())
		attemptDuration.Observe(time.Since(start).Seconds())

		if err == nil {
			deliveredCounter.Inc()
			log.WithField("attempt", try+1).Debug("delivery succeeded")
			return
		}

		attemptFailedCounter.Inc()
		log.WithField("attempt", try+1).WithError(err).Warn("delivery attempt failed")
	}

	abandonedCounter.Inc()
	log.Error("abandoning delivery after exhausting retries")
}

// Close stops accepting deliveries and waits for in-flight workers to
// drain their queues. Deliveries still waiting for buffer room when Close
// is called are dropped and reported rather than sent.
func (q *Queue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.done)
	}
	q.mu.Unlock()

	// Wait out in-flight enqueues before closing their channels.
	q.senders.Wait()

	q.mu.Lock()
	for inbox, ch := range q.inboxes {
		close(ch)
		delete(q.inboxes, inbox)
	}
	q.mu.Unlock()

	q.wg.Wait()
}
