package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/fieldops/contractor-api/internal/api/metrics"
	"github.com/fieldops/contractor-api/internal/core/domain"
	"github.com/fieldops/contractor-api/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 128
)

// Dispatcher delivers post-signup events to a fixed set of workers, sharded
// by identity ID so the creation event and any redelivery for the same
// identity are processed in order. Delivery is at-least-once; the
// provisioning service deduplicates.
type Dispatcher struct {
	workers []chan domain.Identity
	service ports.ProvisioningService
	wg      sync.WaitGroup
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, service ports.ProvisioningService, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.Identity, numWorkers),
		service: service,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.Identity, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers drain until ctx is
// cancelled; Wait blocks until they exit.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has stopped.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Enqueue hands a finalised identity to the worker responsible for it.
func (d *Dispatcher) Enqueue(id domain.Identity) {
	i := d.shardIndex(id.ID)
	d.workers[i] <- id
	metrics.SignupQueueDepth.WithLabelValues(strconv.Itoa(i)).Set(float64(len(d.workers[i])))
}

// shardIndex maps an identity ID deterministically to a worker index.
func (d *Dispatcher) shardIndex(identityID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(identityID))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.Identity) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case identity, ok := <-ch:
			if !ok {
				return
			}
			metrics.SignupQueueDepth.WithLabelValues(strconv.Itoa(id)).Set(float64(len(ch)))
			if err := d.service.CompleteSignup(ctx, identity); err != nil {
				metrics.ProvisioningErrorsTotal.WithLabelValues("post_signup").Inc()
				d.log.Error().Err(err).
					Str("identity_id", identity.ID).
					Int("worker_id", id).
					Msg("post-signup processing failed")
				continue
			}
			metrics.ProvisioningTotal.WithLabelValues(pathLabel(identity.Claims)).Inc()
		}
	}
}

func pathLabel(c domain.Claims) string {
	switch {
	case c.TenantID != "":
		return "member"
	case c.EffectiveRole() == domain.RoleOwner:
		return "owner_bootstrap"
	default:
		return "inconsistent"
	}
}
