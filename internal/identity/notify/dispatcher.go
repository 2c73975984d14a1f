package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aussiebroadwan/identity/pkg/cryptox"
	"github.com/aussiebroadwan/identity/pkg/retry"
)

type DispatcherConfig struct {
	Workers     int
	QueueSize   int
	SendTimeout time.Duration
	Policy      retry.Policy
}

type job struct {
	kind Kind
	to   string
	send func(ctx context.Context) error
}

// Dispatcher sends best-effort notices in the background. A notice that
// still fails after the retry policy is logged and dropped. Enqueueing never
// blocks the caller: when the queue is full the notice is dropped.
type Dispatcher struct {
	mailer Mailer
	logger *slog.Logger
	cfg    DispatcherConfig

	queue  chan job
	stopCh chan struct{}
	wg     sync.WaitGroup

	// mu orders enqueues against Stop so nothing lands after the final drain.
	mu      sync.RWMutex
	stopped bool

	startOnce sync.Once
	stopOnce  sync.Once
}

func NewDispatcher(mailer Mailer, logger *slog.Logger, cfg DispatcherConfig) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 30 * time.Second
	}
	if cfg.Policy.Attempts <= 0 {
		cfg.Policy = retry.Outbound
	}
	return &Dispatcher{
		mailer: mailer,
		logger: logger,
		cfg:    cfg,
		queue:  make(chan job, cfg.QueueSize),
		stopCh: make(chan struct{}),
	}
}

// Start launches the workers. It is non-blocking.
func (d *Dispatcher) Start() {
	d.startOnce.Do(func() {
		for range d.cfg.Workers {
			d.wg.Add(1)
			go d.run()
		}
		d.logger.Info("notification dispatcher started", slog.Int("workers", d.cfg.Workers))
	})
}

// Stop refuses new notices, lets the workers drain what is queued and waits
// for them to finish.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		d.mu.Lock()
		d.stopped = true
		close(d.stopCh)
		d.mu.Unlock()

		d.wg.Wait()
		d.logger.Info("notification dispatcher stopped")
	})
}

// Approval queues the approval notice for to.
func (d *Dispatcher) Approval(to string) bool {
	return d.enqueue(job{kind: KindApproval, to: to, send: func(ctx context.Context) error {
		return d.mailer.SendApproval(ctx, to)
	}})
}

// Rejection queues the rejection notice for to.
func (d *Dispatcher) Rejection(to, reason string) bool {
	return d.enqueue(job{kind: KindRejection, to: to, send: func(ctx context.Context) error {
		return d.mailer.SendRejection(ctx, to, reason)
	}})
}

func (d *Dispatcher) enqueue(j job) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.stopped {
		d.logger.Warn("notification dropped, dispatcher stopped",
			slog.String("kind", string(j.kind)), slog.String("to", cryptox.MaskEmail(j.to)))
		return false
	}

	select {
	case d.queue <- j:
		return true
	default:
		d.logger.Warn("notification dropped, queue full",
			slog.String("kind", string(j.kind)), slog.String("to", cryptox.MaskEmail(j.to)))
		return false
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for {
		select {
		case j := <-d.queue:
			d.deliver(j)
		case <-d.stopCh:
			for {
				select {
				case j := <-d.queue:
					d.deliver(j)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) deliver(j job) {
	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.SendTimeout)
	defer cancel()

	if err := retry.Do(ctx, d.cfg.Policy, j.send); err != nil {
		d.logger.Error("notification delivery failed",
			slog.String("kind", string(j.kind)),
			slog.String("to", cryptox.MaskEmail(j.to)),
			slog.Any("error", err),
		)
		return
	}
	d.logger.Debug("notification delivered",
		slog.String("kind", string(j.kind)), slog.String("to", cryptox.MaskEmail(j.to)))
}
