// Package workers hosts the background goroutines behind write
// paths: currently the cache revalidation worker.
package workers

import (
	"context"
	"sync"
	"time"

	"artlink_backend/internal/cache"
	"artlink_backend/internal/logger"
)

// revalidateRequest is one queued invalidation.
type revalidateRequest struct {
	tags     []string
	attempts int
}

// Revalidator drains a queue of cache invalidation requests. The
// whole path is best-effort: transient failures retry with backoff,
// terminal failures are logged and dropped, a full queue drops the
// request. Nothing here ever surfaces to the write that enqueued it.
type Revalidator struct {
	pages   *cache.PageCache
	queue   chan revalidateRequest
	retries int
	backoff time.Duration

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewRevalidator builds a worker over the page cache.
func NewRevalidator(pages *cache.PageCache, queueSize, retries int) *Revalidator {
	if queueSize <= 0 {
		queueSize = 256
	}
	if retries <= 0 {
		retries = 3
	}
	return &Revalidator{
		pages:   pages,
		queue:   make(chan revalidateRequest, queueSize),
		retries: retries,
		backoff: 200 * time.Millisecond,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start launches the drain loop.
func (r *Revalidator) Start() {
	go r.run()
}

// Stop shuts the worker down after the in-flight request finishes.
func (r *Revalidator) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
	<-r.done
}

// EnqueueInvalidation queues the standard tag set for a profile plus
// any extra tags. Implements the services invalidator contract.
func (r *Revalidator) EnqueueInvalidation(profileID, handle string, tags ...string) {
	all := make([]string, 0, len(tags)+3)
	if profileID != "" {
		all = append(all, cache.ProfileTag(profileID))
	}
	if handle != "" {
		all = append(all, cache.HandleTag(handle))
	}
	all = append(all, cache.DiscoveryTag)
	all = append(all, tags...)
	r.EnqueueTags(all...)
}

// EnqueueTags queues raw tags, dropping the request when the queue is
// full.
func (r *Revalidator) EnqueueTags(tags ...string) {
	if len(tags) == 0 {
		return
	}
	select {
	case r.queue <- revalidateRequest{tags: tags}:
	default:
		logger.Warn("revalidate queue full, dropping request", "tags", tags)
	}
}

func (r *Revalidator) run() {
	defer close(r.done)
	for {
		select {
		case <-r.stop:
			return
		case req := <-r.queue:
			r.process(req)
		}
	}
}

func (r *Revalidator) process(req revalidateRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err := r.pages.Invalidate(ctx, req.tags...)
	cancel()

	if err == nil {
		logger.WorkerLog("revalidate", "invalidate", nil)
		return
	}

	req.attempts++
	if req.attempts >= r.retries {
		logger.WorkerLog("revalidate", "invalidate", err)
		return
	}

	// Transient failure: retry after a short backoff unless we are
	// shutting down.
	select {
	case <-r.stop:
	case <-time.After(r.backoff * time.Duration(req.attempts)):
		select {
		case r.queue <- req:
		default:
			logger.WorkerLog("revalidate", "requeue", err)
		}
	}
}
