package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// TreeConfig holds supervisor tree configuration.
type TreeConfig struct {
	// FailureThreshold is the number of failures before entering backoff.
	FailureThreshold float64
	// FailureDecay is the rate at which failures decay in seconds.
	FailureDecay float64
	// FailureBackoff is the duration to wait when threshold is exceeded.
	FailureBackoff time.Duration
	// ShutdownTimeout is the maximum time to wait for a service to stop.
	ShutdownTimeout time.Duration
}

// Supervisor is the process supervisor tree. Workers and front-end services
// live in separate branches so a crashing transport never stalls syncing.
type Supervisor struct {
	root     *suture.Supervisor
	workers  *suture.Supervisor
	frontend *suture.Supervisor
}

// NewSupervisor builds the tree. Zero config fields fall back to suture's defaults.
func NewSupervisor(log *slog.Logger, config TreeConfig) *Supervisor {
	if config.FailureThreshold == 0 {
		config.FailureThreshold = 5
	}
	if config.FailureDecay == 0 {
		config.FailureDecay = 30
	}
	if config.FailureBackoff == 0 {
		config.FailureBackoff = 15 * time.Second
	}
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = 10 * time.Second
	}

	child := suture.Spec{
		FailureThreshold: config.FailureThreshold,
		FailureDecay:     config.FailureDecay,
		FailureBackoff:   config.FailureBackoff,
		Timeout:          config.ShutdownTimeout,
	}
	rootSpec := child
	rootSpec.EventHook = (&sutureslog.Handler{Logger: log}).MustHook()

	s := &Supervisor{
		root:     suture.New("match-bot", rootSpec),
		workers:  suture.New("workers", child),
		frontend: suture.New("frontend", child),
	}
	s.root.Add(s.workers)
	s.root.Add(s.frontend)
	return s
}

// AddWorker adds a periodic job to the workers branch.
func (s *Supervisor) AddWorker(svc suture.Service) suture.ServiceToken {
	return s.workers.Add(svc)
}

// AddFrontend adds a transport or HTTP service to the frontend branch.
func (s *Supervisor) AddFrontend(svc suture.Service) suture.ServiceToken {
	return s.frontend.Add(svc)
}

// Serve runs the tree until ctx is cancelled.
func (s *Supervisor) Serve(ctx context.Context) error {
	return s.root.Serve(ctx)
}

// StartWorkers runs the tree in the background. The channel receives the
// tree's result once it stops.
func (s *Supervisor) StartWorkers(ctx context.Context) <-chan error {
	return s.root.ServeBackground(ctx)
}
