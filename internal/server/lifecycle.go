// Package server runs the simulator's long-lived services and shuts them
// down in order on a signal, a failure, or the end of a finite run.
package server

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Service is a long-running component. Start blocks until the service is
// stopped or fails; Stop must make a blocked Start return.
type Service interface {
	Start() error
	Stop()
}

// FuncService adapts a start/stop function pair into the Service interface.
type FuncService struct {
	StartFn func() error
	StopFn  func()
}

// Start calls the underlying start function.
func (f *FuncService) Start() error { return f.StartFn() }

// Stop calls the underlying stop function.
func (f *FuncService) Stop() { f.StopFn() }

// ContextService adapts a context-driven loop into a single-use Service.
// Stop cancels the loop's context and waits for it to return.
type ContextService struct {
	run    func(ctx context.Context) error
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	started bool
}

// NewContextService wraps run.
func NewContextService(run func(ctx context.Context) error) *ContextService {
	ctx, cancel := context.WithCancel(context.Background())
	return &ContextService{run: run, ctx: ctx, cancel: cancel, done: make(chan struct{})}
}

// Start runs the loop until Stop is called or the loop returns.
func (c *ContextService) Start() error {
	c.mu.Lock()
	c.started = true
	c.mu.Unlock()
	defer close(c.done)
	return c.run(c.ctx)
}

// Stop cancels the loop and waits for a running Start to return.
func (c *ContextService) Stop() {
	c.cancel()
	c.mu.Lock()
	started := c.started
	c.mu.Unlock()
	if started {
		<-c.done
	}
}

// Lifecycle starts services in registration order and stops them in reverse.
type Lifecycle struct {
	logger   *zap.Logger
	mu       sync.Mutex
	services []namedService
}

type namedService struct {
	name     string
	service  Service
	critical bool
}

// NewLifecycle creates a Lifecycle.
//
// Precondition: logger must be non-nil.
func NewLifecycle(logger *zap.Logger) *Lifecycle {
	return &Lifecycle{logger: logger}
}

// Add registers a supporting service. Only its failure triggers shutdown.
//
// Precondition: name must be non-empty; svc must be non-nil.
func (l *Lifecycle) Add(name string, svc Service) {
	l.add(namedService{name: name, service: svc})
}

// AddCritical registers a service whose return, with or without an error,
// shuts the whole lifecycle down. A finite simulation run is critical.
func (l *Lifecycle) AddCritical(name string, svc Service) {
	l.add(namedService{name: name, service: svc, critical: true})
}

func (l *Lifecycle) add(ns namedService) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.services = append(l.services, ns)
}

type exit struct {
	name string
	err  error
}

// Run starts all services and blocks until SIGINT/SIGTERM, ctx cancellation,
// a service failure, or a critical service returning.
//
// Postcondition: every service has been stopped; returns the first service
// error, if any.
func (l *Lifecycle) Run(ctx context.Context) error {
	start := time.Now()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	l.mu.Lock()
	services := append([]namedService(nil), l.services...)
	l.mu.Unlock()

	exits := make(chan exit, len(services))
	var wg sync.WaitGroup
	for _, ns := range services {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.logger.Info("starting service", zap.String("service", ns.name))
			err := ns.service.Start()
			if err != nil {
				l.logger.Error("service failed", zap.String("service", ns.name), zap.Error(err))
				exits <- exit{ns.name, fmt.Errorf("service %s: %w", ns.name, err)}
				return
			}
			l.logger.Info("service returned", zap.String("service", ns.name))
			if ns.critical {
				exits <- exit{name: ns.name}
			}
		}()
	}
	l.logger.Info("all services started", zap.Int("count", len(services)))

	var runErr error
	select {
	case <-ctx.Done():
		l.logger.Info("shutting down", zap.NamedError("cause", context.Cause(ctx)))
	case e := <-exits:
		runErr = e.err
		l.logger.Info("shutting down", zap.String("trigger", e.name))
	}

	l.shutdown(services)
	wg.Wait()
	close(exits)
	for e := range exits {
		runErr = errors.Join(runErr, e.err)
	}
	l.logger.Info("shutdown complete", zap.Duration("uptime", time.Since(start)))
	return runErr
}

func (l *Lifecycle) shutdown(services []namedService) {
	for i := len(services) - 1; i >= 0; i-- {
		ns := services[i]
		began := time.Now()
		ns.service.Stop()
		l.logger.Info("service stopped",
			zap.String("service", ns.name),
			zap.Duration("elapsed", time.Since(began)),
		)
	}
}
