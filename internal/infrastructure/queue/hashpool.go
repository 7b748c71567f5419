package queue

import (
	"context"
	"errors"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/andamios/andamios-api/internal/pkg/metrics"
)

const channelBuffer = 256

// ErrPoolStopped is returned for work submitted after the pool has shut down.
var ErrPoolStopped = errors.New("hash pool stopped")

// Hasher is the synchronous, CPU-bound hashing primitive run by the pool.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

type job struct {
	ctx  context.Context
	op   string
	run  func()
	done chan struct{}
}

// HashPool runs password hashing on a fixed set of workers so that slow
// bcrypt calls cannot occupy more CPUs than configured, however many
// requests arrive at once. Callers block until their job has run or their
// context ends.
type HashPool struct {
	jobs    chan job
	hasher  Hasher
	workers int
	log     zerolog.Logger

	startOnce sync.Once
	stopped   chan struct{}
}

// NewHashPool creates a HashPool with numWorkers workers.
// If numWorkers <= 0, runtime.NumCPU() is used.
func NewHashPool(numWorkers int, hasher Hasher, log zerolog.Logger) *HashPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &HashPool{
		jobs:    make(chan job, channelBuffer),
		hasher:  hasher,
		workers: numWorkers,
		log:     log,
		stopped: make(chan struct{}),
	}
}

// Start launches the workers. They stop when ctx is cancelled; pending and
// later submissions then fail with ErrPoolStopped.
func (p *HashPool) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		var wg sync.WaitGroup
		for i := 0; i < p.workers; i++ {
			wg.Add(1)
			go func(id int) {
				defer wg.Done()
				p.runWorker(ctx, id)
			}(i)
		}
		go func() {
			wg.Wait()
			close(p.stopped)
		}()
		p.log.Debug().Int("workers", p.workers).Msg("hash pool started")
	})
}

func (p *HashPool) Workers() int { return p.workers }

// Hash hashes plaintext on a pool worker.
func (p *HashPool) Hash(ctx context.Context, plaintext string) (string, error) {
	var (
		hash string
		err  error
	)
	if subErr := p.submit(ctx, "hash", func() {
		hash, err = p.hasher.Hash(plaintext)
	}); subErr != nil {
		return "", subErr
	}
	return hash, err
}

// Verify checks plaintext against hash on a pool worker. The error is only
// set when the job could not run.
func (p *HashPool) Verify(ctx context.Context, plaintext, hash string) (bool, error) {
	var ok bool
	if err := p.submit(ctx, "verify", func() {
		ok = p.hasher.Verify(plaintext, hash)
	}); err != nil {
		return false, err
	}
	return ok, nil
}

func (p *HashPool) submit(ctx context.Context, op string, run func()) error {
	j := job{ctx: ctx, op: op, run: run, done: make(chan struct{})}

	select {
	case p.jobs <- j:
		metrics.HashQueueDepth.Set(float64(len(p.jobs)))
	case <-ctx.Done():
		return ctx.Err()
	case <-p.stopped:
		return ErrPoolStopped
	}

	select {
	case <-j.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.stopped:
		return ErrPoolStopped
	}
}

func (p *HashPool) runWorker(ctx context.Context, id int) {
	worker := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-p.jobs:
			metrics.HashQueueDepth.Set(float64(len(p.jobs)))
			// The caller already gave up; skip the expensive work.
			if j.ctx.Err() != nil {
				close(j.done)
				continue
			}
			start := time.Now()
			j.run()
			metrics.HashDuration.WithLabelValues(j.op).Observe(time.Since(start).Seconds())
			p.log.Trace().Str("worker_id", worker).Str("op", j.op).Dur("took", time.Since(start)).Msg("hash job done")
			close(j.done)
		}
	}
}
