package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/libintegration/cachingsvc/cache"
	"github.com/libintegration/cachingsvc/coalesce"
	"github.com/libintegration/cachingsvc/observe"
	"github.com/libintegration/cachingsvc/payload"
	"github.com/libintegration/cachingsvc/store"
	"github.com/libintegration/cachingsvc/transform"
)

// Sentinel errors for controller operations.
var (
	// ErrNotFound is returned by Fetch when no entry exists for the id.
	ErrNotFound = errors.New("controller: payload id not found")

	// ErrInvariantViolation is returned when a tier reports a conflicting
	// write for an existing id. The coalescing guarantee was broken
	// elsewhere; this is surfaced for operator attention, never recovered.
	ErrInvariantViolation = errors.New("controller: conflicting write for existing id")
)

// Config configures the controller and supplies its collaborators.
// Nil collaborators get in-memory or noop defaults.
type Config struct {
	// Deriver computes payload identifiers.
	// Default: payload.NewSHA256Deriver()
	Deriver payload.Deriver

	// Fast is the low-latency lookup tier.
	// Default: cache.NewMemoryCache()
	Fast cache.FastCache

	// Store is the durable system of record.
	// Default: store.NewMemoryStore()
	Store store.DurableStore

	// Transform is the pure payload transform.
	// Default: transform.Interleave
	Transform transform.Func

	// Coalesce configures single-flight behavior.
	Coalesce coalesce.Config

	// Logger, Metrics, and Tracer instrument the controller.
	// Defaults: noop.
	Logger  observe.Logger
	Metrics observe.Metrics
	Tracer  observe.Tracer
}

// Controller is the cache orchestration layer. Construct once at process
// start and share by reference across all request-handling goroutines;
// concurrent access is mediated through the fast cache's atomic primitive.
type Controller struct {
	deriver   payload.Deriver
	fast      cache.FastCache
	store     store.DurableStore
	coalescer *coalesce.Coalescer
	transform transform.Func
	logger    observe.Logger
	metrics   observe.Metrics
	tracer    observe.Tracer
}

// New creates a Controller, applying defaults for absent collaborators.
func New(cfg Config) *Controller {
	if cfg.Deriver == nil {
		cfg.Deriver = payload.NewSHA256Deriver()
	}
	if cfg.Fast == nil {
		cfg.Fast = cache.NewMemoryCache()
	}
	if cfg.Store == nil {
		cfg.Store = store.NewMemoryStore()
	}
	if cfg.Transform == nil {
		cfg.Transform = transform.Interleave
	}
	if cfg.Logger == nil {
		cfg.Logger = observe.NopLogger()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observe.NopMetrics()
	}
	if cfg.Tracer == nil {
		cfg.Tracer = observe.NopTracer()
	}

	return &Controller{
		deriver:   cfg.Deriver,
		fast:      cfg.Fast,
		store:     cfg.Store,
		coalescer: coalesce.New(cfg.Fast, cfg.Coalesce),
		transform: cfg.Transform,
		logger:    cfg.Logger.WithComponent("controller"),
		metrics:   cfg.Metrics,
		tracer:    cfg.Tracer,
	}
}

// Resolve derives the identifier for the payload, computes and persists
// its output if never seen before, and returns the identifier. Repeated
// calls with the same payload return the same id with no recomputation;
// concurrent calls for the same never-seen payload run the transform
// exactly once.
func (c *Controller) Resolve(ctx context.Context, p payload.Payload) (id string, err error) {
	start := time.Now()

	// Malformed payloads are rejected before any cache state is touched.
	if err := p.Validate(); err != nil {
		return "", err
	}

	id = c.deriver.Derive(p)

	ctx, span := c.tracer.StartSpan(ctx, observe.Operation{Name: "resolve", PayloadID: id})
	defer func() { c.tracer.EndSpan(span, err) }()

	// Hit in either tier means the id is already known; re-submission of
	// a known payload is free.
	if _, ok := c.fast.TryGetOutput(ctx, id); ok {
		c.logger.Debug(ctx, "resolve hit in fast tier", observe.String("payload.id", id))
		c.metrics.RecordResolve(ctx, observe.OutcomeHitFast, time.Since(start))
		return id, nil
	}

	exists, err := c.store.Exists(ctx, id)
	if err != nil {
		c.metrics.RecordResolve(ctx, observe.OutcomeError, time.Since(start))
		return "", fmt.Errorf("controller: check store: %w", err)
	}
	if exists {
		c.logger.Debug(ctx, "resolve hit in durable store", observe.String("payload.id", id))
		c.metrics.RecordResolve(ctx, observe.OutcomeHitStore, time.Since(start))
		return id, nil
	}

	// Never-seen payload: compute under single-flight. computed is set
	// only when this call's closure ran as the owning computation.
	computed := false
	_, err = c.coalescer.Do(ctx, id, func(ctx context.Context) (string, error) {
		computed = true
		return c.computeAndPersist(ctx, id, p)
	})
	if err != nil {
		switch {
		case errors.Is(err, coalesce.ErrWaitTimeout):
			c.logger.Warn(ctx, "resolve timed out waiting for in-flight computation",
				observe.String("payload.id", id))
			c.metrics.RecordResolve(ctx, observe.OutcomeTimeout, time.Since(start))
		default:
			c.metrics.RecordResolve(ctx, observe.OutcomeError, time.Since(start))
		}
		return "", err
	}

	outcome := observe.OutcomeCoalesced
	if computed {
		outcome = observe.OutcomeComputed
	}
	c.metrics.RecordResolve(ctx, outcome, time.Since(start))
	return id, nil
}

// computeAndPersist runs as the owning computation: transform, persist to
// the durable store, then populate the fast tier. The durable write comes
// first; a crash between the two leaves the fast tier cold and the read
// path repopulates it.
func (c *Controller) computeAndPersist(ctx context.Context, id string, p payload.Payload) (string, error) {
	transformStart := time.Now()
	out, err := c.transform(p)
	c.metrics.RecordTransform(ctx, time.Since(transformStart), err)
	if err != nil {
		c.logger.Error(ctx, "transform failed",
			observe.String("payload.id", id), observe.Err(err))
		return "", fmt.Errorf("controller: transform: %w", err)
	}

	entry := store.Entry{
		ID:        id,
		Input:     p,
		Output:    out,
		CreatedAt: time.Now().UTC(),
	}
	if err := c.store.Put(ctx, entry); err != nil {
		if errors.Is(err, store.ErrConflict) {
			c.logger.Error(ctx, "durable store reports conflicting entry",
				observe.String("payload.id", id))
			return "", fmt.Errorf("%w: %v", ErrInvariantViolation, err)
		}
		return "", fmt.Errorf("controller: persist entry: %w", err)
	}

	if err := c.fast.PutOutput(ctx, id, out); err != nil {
		if errors.Is(err, cache.ErrOutputConflict) {
			c.logger.Error(ctx, "fast tier reports conflicting output",
				observe.String("payload.id", id))
			return "", fmt.Errorf("%w: %v", ErrInvariantViolation, err)
		}
		// The entry is durable; a cold fast tier heals on the read path.
		c.logger.Warn(ctx, "failed to populate fast tier",
			observe.String("payload.id", id), observe.Err(err))
	}

	c.logger.Info(ctx, "computed and persisted payload",
		observe.String("payload.id", id),
		observe.Int("pairs", p.Len()))
	return out, nil
}

// Fetch returns the output for a previously resolved id, reading through
// to the durable store and repopulating the fast tier on a cold hit.
// Returns ErrNotFound for an unknown id.
func (c *Controller) Fetch(ctx context.Context, id string) (out string, err error) {
	start := time.Now()

	ctx, span := c.tracer.StartSpan(ctx, observe.Operation{Name: "fetch", PayloadID: id})
	defer func() { c.tracer.EndSpan(span, err) }()

	if out, ok := c.fast.TryGetOutput(ctx, id); ok {
		c.metrics.RecordFetch(ctx, observe.OutcomeHitFast, time.Since(start))
		return out, nil
	}

	entry, err := c.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.logger.Debug(ctx, "fetch miss", observe.String("payload.id", id))
			c.metrics.RecordFetch(ctx, observe.OutcomeMiss, time.Since(start))
			return "", fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		c.metrics.RecordFetch(ctx, observe.OutcomeError, time.Since(start))
		return "", fmt.Errorf("controller: read store: %w", err)
	}

	// Read-through population.
	if err := c.fast.PutOutput(ctx, id, entry.Output); err != nil {
		if errors.Is(err, cache.ErrOutputConflict) {
			c.metrics.RecordFetch(ctx, observe.OutcomeError, time.Since(start))
			return "", fmt.Errorf("%w: %v", ErrInvariantViolation, err)
		}
		c.logger.Warn(ctx, "failed to populate fast tier",
			observe.String("payload.id", id), observe.Err(err))
	}

	c.metrics.RecordFetch(ctx, observe.OutcomeHitStore, time.Since(start))
	return entry.Output, nil
}
