package install

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"content-mover/internal/lock"
	"content-mover/internal/model"
	"content-mover/internal/transform"
)

// DefaultParallelism bounds the concurrent installs of one level.
const DefaultParallelism = 4

// Options configure an Installer. Zero values select in-process defaults.
type Options struct {
	Locker      lock.Locker
	Transform   *transform.Engine
	Metrics     *Metrics
	Tracer      trace.Tracer
	Log         *zap.SugaredLogger
	LogWriter   *LogWriter
	Parallelism int
}

// Installer runs install transactions against one target.
type Installer struct {
	target      Target
	locker      lock.Locker
	transform   *transform.Engine
	metrics     *Metrics
	tracer      trace.Tracer
	log         *zap.SugaredLogger
	logWriter   *LogWriter
	parallelism int
}

// NewInstaller creates an Installer for target.
func NewInstaller(target Target, opts Options) *Installer {
	in := &Installer{
		target:      target,
		locker:      opts.Locker,
		transform:   opts.Transform,
		metrics:     opts.Metrics,
		tracer:      opts.Tracer,
		log:         opts.Log,
		logWriter:   opts.LogWriter,
		parallelism: opts.Parallelism,
	}

	if in.log == nil {
		in.log = zap.NewNop().Sugar()
	}

	if in.locker == nil {
		in.locker = lock.NewMemoryLocker(lock.DefaultWait)
	}

	if in.transform == nil {
		in.transform = transform.NewEngine(transform.Options{}, nil, in.log)
	}

	if in.tracer == nil {
		in.tracer = otel.Tracer("content-mover/install")
	}

	if in.parallelism <= 0 {
		in.parallelism = DefaultParallelism
	}

	return in
}

// Install runs one transaction for item. The object is installed under
// its key translated through the import context's id map; ids the
// transaction reserves become visible in the map only once it commits.
// On failure the returned result is in state aborted and the error wraps
// ErrAborted together with the cause.
func (in *Installer) Install(ctx context.Context, item *Item, ictx *ImportContext) (*Result, error) {
	tx := newTransaction(in, item, ictx)
	key := item.Key()
	start := time.Now()

	ctx, span := in.tracer.Start(ctx, "install.transaction", trace.WithAttributes(
		attribute.String("object.type", string(key.Type)),
		attribute.String("object.key", key.Key),
		attribute.String("transaction.id", tx.id),
	))
	defer span.End()

	err := tx.prepare()
	if err == nil {
		span.SetAttributes(attribute.String("object.target", tx.key.Key))
		err = lock.With(ctx, in.locker, tx.key.String(), tx.locked)
	}

	if errors.Is(err, lock.ErrUnlock) && tx.State() == StatePolicyApplied {
		// Every step ran under the lock; only the release failed.
		in.log.Warnw("lock release failed after install", "object", key.String(), "transaction", tx.id, "error", err)
		span.AddEvent("unlock failed")

		err = nil
	}

	res := &Result{Transaction: tx.id, Object: key, Target: tx.key, Changes: tx.changes, Transform: tx.transform}

	var entries []LogEntry
	if err == nil {
		entries, err = tx.entries(time.Now().UTC())
	}

	if err == nil {
		err = tx.fire(ctx, eventCommit)
	}

	if err != nil {
		from := tx.State()
		if aerr := tx.fire(ctx, eventAbort); aerr != nil {
			err = errors.Join(err, aerr)
		}

		tx.ids.Rollback()

		err = fmt.Errorf("%w: %s in state %s: %w", ErrAborted, key, from, err)

		res.State = tx.State()
		res.Duration = time.Since(start)

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		in.metrics.observe(resultAborted, nil, res.Duration)
		in.log.Warnw("install aborted", "object", key.String(), "transaction", tx.id, "state", from, "error", err)

		return res, err
	}

	tx.ids.Commit()

	res.State = tx.State()
	res.Entries = entries
	res.Duration = time.Since(start)

	ictx.record(res.Entries)
	in.metrics.observe(resultCommitted, res.Entries, res.Duration)
	span.SetAttributes(attribute.Int("install.entries", len(res.Entries)))

	in.log.Infow("installed object",
		"object", key.String(),
		"target", tx.key.String(),
		"transaction", tx.id,
		"entries", len(res.Entries),
		"duration", res.Duration)

	if in.logWriter != nil {
		if err := in.logWriter.Write(res.Entries...); err != nil {
			span.RecordError(err)

			return res, fmt.Errorf("%s committed but not logged: %w", tx.key, err)
		}
	}

	return res, nil
}

// Failure is one aborted object of a batch.
type Failure struct {
	Object model.DependencyID
	Err    error
}

// BatchResult lists the outcome of every object of a batch.
type BatchResult struct {
	mu        sync.Mutex
	Results   []*Result
	Committed []model.DependencyID
	// Targets maps each committed object to the identity it was
	// installed under.
	Targets map[model.DependencyID]model.DependencyID
	Aborted []Failure
}

func (b *BatchResult) add(item *Item, res *Result, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if res != nil {
		b.Results = append(b.Results, res)
	}

	if err != nil {
		b.Aborted = append(b.Aborted, Failure{Object: item.Key(), Err: err})

		return
	}

	b.Committed = append(b.Committed, item.Key())

	if b.Targets == nil {
		b.Targets = make(map[model.DependencyID]model.DependencyID)
	}

	b.Targets[item.Key()] = res.Target
}

// Err joins the errors of all aborted objects.
func (b *BatchResult) Err() error {
	errs := make([]error, 0, len(b.Aborted))
	for _, f := range b.Aborted {
		errs = append(errs, f.Err)
	}

	return errors.Join(errs...)
}

// InstallAll installs items one after another. A failed object does not
// stop the batch.
func (in *Installer) InstallAll(ctx context.Context, items []*Item, ictx *ImportContext) *BatchResult {
	b := &BatchResult{}

	for _, item := range items {
		res, err := in.Install(ctx, item, ictx)
		b.add(item, res, err)
	}

	return b
}

// InstallLevels installs levels in order and the objects of one level
// concurrently, bounded by the configured parallelism. Failures are
// isolated per object.
func (in *Installer) InstallLevels(ctx context.Context, levels [][]*Item, ictx *ImportContext) *BatchResult {
	b := &BatchResult{}

	for _, level := range levels {
		var g errgroup.Group
		g.SetLimit(in.parallelism)

		for _, item := range level {
			g.Go(func() error {
				res, err := in.Install(ctx, item, ictx)
				b.add(item, res, err)

				return nil
			})
		}

		_ = g.Wait()
	}

	sort.Slice(b.Committed, func(i, j int) bool {
		return b.Committed[i].String() < b.Committed[j].String()
	})
	sort.Slice(b.Aborted, func(i, j int) bool {
		return b.Aborted[i].Object.String() < b.Aborted[j].Object.String()
	})

	return b
}
