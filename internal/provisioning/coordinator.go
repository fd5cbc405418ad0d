// Package provisioning creates a user's identity, linked account, default workspace and owner
// membership as one unit. When the document store supports transactions the unit is atomic;
// otherwise the steps run in order on a plain session and a failure leaves earlier writes behind.
package provisioning

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"teamhub/backend/internal/apperror"
	"teamhub/backend/internal/docstore"
	"teamhub/backend/internal/logger"
)

// Mode reports how a Run executed.
type Mode string

const (
	// ModeTransactional means every step ran inside one atomic scope.
	ModeTransactional Mode = "transactional"
	// ModeDegraded means the store could not open an atomic scope and steps ran one by one.
	ModeDegraded Mode = "degraded"
)

// Step is one unit of work. It must only read and write through sess.
type Step func(ctx context.Context, sess docstore.Session) error

// Coordinator runs steps inside an atomic scope when the store allows it.
type Coordinator struct {
	store docstore.Store
	runs  metric.Int64Counter
}

// Option configures a Coordinator.
type Option func(*coordinatorOptions)

type coordinatorOptions struct {
	meterProvider metric.MeterProvider
}

// WithMeterProvider records run counts on mp instead of the global provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *coordinatorOptions) { o.meterProvider = mp }
}

// NewCoordinator returns a Coordinator over store.
func NewCoordinator(store docstore.Store, opts ...Option) *Coordinator {
	o := coordinatorOptions{meterProvider: otel.GetMeterProvider()}
	for _, opt := range opts {
		opt(&o)
	}
	runs, err := o.meterProvider.Meter("teamhub/provisioning").Int64Counter(
		"provisioning.runs",
		metric.WithDescription("Provisioning runs by execution mode and outcome."),
	)
	if err != nil {
		logger.L().Warn("provisioning: create runs counter", zap.Error(err))
	}
	return &Coordinator{store: store, runs: runs}
}

// Run executes steps in order. The capability probe happens on every call, so a store that
// gains or loses transaction support is picked up without a restart.
//
// Transactional: a step error aborts the scope and is returned unchanged; a commit error is
// returned as an Internal error. Degraded: the first step error stops the run and writes made
// by earlier steps remain.
func (c *Coordinator) Run(ctx context.Context, steps ...Step) (Mode, error) {
	ok, err := c.store.SupportsTransactions(ctx)
	if err != nil {
		return "", apperror.Internal(err)
	}
	if ok {
		tx, err := c.store.Begin(ctx)
		if err == nil {
			err = c.runAtomic(ctx, tx, steps)
			c.count(ctx, ModeTransactional, err)
			return ModeTransactional, err
		}
		if !errors.Is(err, docstore.ErrTransactionsUnsupported) {
			c.count(ctx, ModeTransactional, err)
			return ModeTransactional, apperror.Internal(err)
		}
		// capability went away between the probe and Begin
	}
	logger.From(ctx).Warn("provisioning: store does not support transactions; running steps without atomicity")
	err = c.runSequential(ctx, steps)
	c.count(ctx, ModeDegraded, err)
	return ModeDegraded, err
}

func (c *Coordinator) runAtomic(ctx context.Context, tx docstore.Tx, steps []Step) error {
	// Cleanup must run even when the request context is already cancelled.
	cleanupCtx := context.WithoutCancel(ctx)
	defer tx.End(cleanupCtx)

	for _, step := range steps {
		if err := step(ctx, tx); err != nil {
			if abortErr := tx.Abort(cleanupCtx); abortErr != nil {
				logger.From(ctx).Error("provisioning: abort failed", zap.Error(abortErr), zap.NamedError("cause", err))
			}
			return err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return apperror.Internal(err)
	}
	return nil
}

func (c *Coordinator) runSequential(ctx context.Context, steps []Step) error {
	sess := c.store.Session()
	for _, step := range steps {
		if err := step(ctx, sess); err != nil {
			return err
		}
	}
	return nil
}

func (c *Coordinator) count(ctx context.Context, mode Mode, err error) {
	if c.runs == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.runs.Add(context.WithoutCancel(ctx), 1, metric.WithAttributes(
		attribute.String("mode", string(mode)),
		attribute.String("outcome", outcome),
	))
}
