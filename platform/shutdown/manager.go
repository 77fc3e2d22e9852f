package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Manager runs registered cleanup steps when the process gets SIGINT or SIGTERM.
// Steps run in reverse registration order, each under its own timeout.
type Manager struct {
	timeout time.Duration
	logger  *zap.Logger
	mu      sync.Mutex
	steps   []step
}

type step struct {
	name string
	fn   func(context.Context) error
}

// New creates a Manager whose steps each get timeout to finish.
func New(timeout time.Duration, logger *zap.Logger) *Manager {
	return &Manager{
		timeout: timeout,
		logger:  logger,
	}
}

// Add registers a named cleanup step. The last one added runs first.
func (m *Manager) Add(name string, fn func(context.Context) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps = append(m.steps, step{name: name, fn: fn})
}

// Wait blocks until a termination signal arrives, then runs Shutdown.
func (m *Manager) Wait() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	sig := <-sigChan
	m.logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	m.Shutdown()
}

// Shutdown runs every step in reverse order. Failures are logged and do not stop the remaining steps.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	steps := make([]step, len(m.steps))
	copy(steps, m.steps)
	m.mu.Unlock()

	for i := len(steps) - 1; i >= 0; i-- {
		s := steps[i]
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		start := time.Now()
		err := s.fn(ctx)
		cancel()

		if err != nil {
			m.logger.Error("shutdown step failed",
				zap.String("name", s.name),
				zap.Error(err),
				zap.Duration("duration", time.Since(start)))
			continue
		}
		m.logger.Info("shutdown step completed",
			zap.String("name", s.name),
			zap.Duration("duration", time.Since(start)))
	}

	m.logger.Info("graceful shutdown completed")
}

// ShutdownHTTPServer adapts http.Server.Shutdown.
func ShutdownHTTPServer(srv interface {
	Shutdown(context.Context) error
}) func(context.Context) error {
	return func(ctx context.Context) error {
		return srv.Shutdown(ctx)
	}
}

// DisconnectMongo adapts mongo.Client.Disconnect.
func DisconnectMongo(client interface {
	Disconnect(context.Context) error
}) func(context.Context) error {
	return func(ctx context.Context) error {
		return client.Disconnect(ctx)
	}
}

// ClosePool adapts pools with a bare Close, such as pgxpool.Pool.
func ClosePool(pool interface {
	Close()
}) func(context.Context) error {
	return func(ctx context.Context) error {
		pool.Close()
		return nil
	}
}

// CloseCloser adapts io.Closer values (redis clients, kafka readers and writers).
func CloseCloser(c interface {
	Close() error
}) func(context.Context) error {
	return func(ctx context.Context) error {
		return c.Close()
	}
}
