// Package timing turns "save this time for bib N" into store writes while
// keeping every bib unique and both times write-once, and ranks the runners.
package timing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/brgilsonsp/corrida-familia-piba-front/internal/model"
	"github.com/brgilsonsp/corrida-familia-piba-front/internal/storage"
	"github.com/brgilsonsp/corrida-familia-piba-front/internal/timecalc"
)

// ErrInvalidBib is returned by ParseBib for anything but a positive integer.
var ErrInvalidBib = errors.New("bib number must be a positive integer")

// Store is the record store the reconciler writes through.
type Store interface {
	Insert(ctx context.Context, rec model.RunnerRecord) error
	Get(ctx context.Context, bib int) (model.RunnerRecord, error)
	Update(ctx context.Context, bib int, monitor string, delayedStart, finish *string) error
	List(ctx context.Context) ([]model.RunnerRecord, error)
	Delete(ctx context.Context, bib int) error
	Clear(ctx context.Context) error
}

// Notifier is told about every successful write.
type Notifier interface {
	TimingRecorded(ctx context.Context, ev model.TimingEvent) error
}

// Metrics observes reconciler activity.
type Metrics interface {
	ObserveOutcome(op, outcome string)
	ObserveStore(op string, d time.Duration)
}

type nopNotifier struct{}

func (nopNotifier) TimingRecorded(context.Context, model.TimingEvent) error { return nil }

type nopMetrics struct{}

func (nopMetrics) ObserveOutcome(string, string)       {}
func (nopMetrics) ObserveStore(string, time.Duration) {}

// Reconciler is the single entry point for timing writes.
type Reconciler struct {
	store    Store
	notifier Notifier
	metrics  Metrics
	clock    clockwork.Clock
	logger   zerolog.Logger

	// mu serialises check-then-write within this process.
	mu sync.Mutex
}

// Option configures a Reconciler.
type Option func(*Reconciler)

func WithNotifier(n Notifier) Option {
	return func(r *Reconciler) {
		if n != nil {
			r.notifier = n
		}
	}
}

func WithMetrics(m Metrics) Option {
	return func(r *Reconciler) {
		if m != nil {
			r.metrics = m
		}
	}
}

// WithClock sets the clock used to timestamp events.
func WithClock(c clockwork.Clock) Option {
	return func(r *Reconciler) { r.clock = c }
}

func WithLogger(l zerolog.Logger) Option {
	return func(r *Reconciler) { r.logger = l }
}

// New creates a Reconciler over store.
func New(store Store, opts ...Option) *Reconciler {
	r := &Reconciler{
		store:    store,
		notifier: nopNotifier{},
		metrics:  nopMetrics{},
		clock:    clockwork.NewRealClock(),
		logger:   log.Logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ParseBib validates operator input as a bib number.
func ParseBib(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidBib
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%q: %w", s, ErrInvalidBib)
	}
	return n, nil
}

// RecordFinish stores elapsed as the finish time of bib.
func (r *Reconciler) RecordFinish(ctx context.Context, bib int, monitor, elapsed string) Outcome {
	return r.record(ctx, model.EventFinish, bib, monitor, elapsed)
}

// RecordDelayedStart stores elapsed as the delayed start of bib. It is
// rejected once the runner has a finish time.
func (r *Reconciler) RecordDelayedStart(ctx context.Context, bib int, monitor, elapsed string) Outcome {
	return r.record(ctx, model.EventDelayedStart, bib, monitor, elapsed)
}

func (r *Reconciler) record(ctx context.Context, kind model.EventType, bib int, monitor, elapsed string) Outcome {
	op := string(kind)
	if bib <= 0 {
		return r.finish(ctx, op, Outcome{Kind: InvalidInput, Bib: bib, Err: ErrInvalidBib}, nil)
	}
	d, err := timecalc.ParseElapsed(strings.TrimSpace(elapsed))
	if err != nil {
		return r.finish(ctx, op, Outcome{Kind: InvalidInput, Bib: bib, Err: err}, nil)
	}
	stamp := timecalc.FormatElapsed(d)

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, err := r.get(ctx, bib)
	if errors.Is(err, storage.ErrNotFound) {
		created := model.RunnerRecord{Bib: bib, Monitor: monitor}
		created.DelayedStart, created.Finish = fields(kind, stamp)
		err = r.timed("insert", func() error { return r.store.Insert(ctx, created) })
		if err == nil {
			return r.finish(ctx, op, Outcome{Kind: Created, Bib: bib, Time: stamp}, r.event(kind, bib, monitor, stamp))
		}
		if !errors.Is(err, storage.ErrDuplicateBib) {
			return r.fail(ctx, op, bib, err)
		}
		// Another station created the record first.
		rec, err = r.get(ctx, bib)
	}
	if err != nil {
		return r.fail(ctx, op, bib, err)
	}

	if o, rejected := reject(kind, rec); rejected {
		return r.finish(ctx, op, o, nil)
	}

	ds, fin := fields(kind, stamp)
	err = r.timed("update", func() error { return r.store.Update(ctx, bib, monitor, ds, fin) })
	if err == nil {
		return r.finish(ctx, op, Outcome{Kind: Updated, Bib: bib, Time: stamp}, r.event(kind, bib, monitor, stamp))
	}
	if errors.Is(err, storage.ErrAlreadySet) {
		// Lost a race with another writer; report what it stored.
		if latest, gerr := r.get(ctx, bib); gerr == nil {
			if o, rejected := reject(kind, latest); rejected {
				return r.finish(ctx, op, o, nil)
			}
		}
	}
	return r.fail(ctx, op, bib, err)
}

// reject applies the write-once and finish dominance rules to an existing record.
func reject(kind model.EventType, rec model.RunnerRecord) (Outcome, bool) {
	switch kind {
	case model.EventFinish:
		if rec.Finish != nil {
			return Outcome{Kind: AlreadyRecorded, Bib: rec.Bib, Existing: *rec.Finish}, true
		}
	case model.EventDelayedStart:
		if rec.Finish != nil {
			return Outcome{Kind: FinishDominates, Bib: rec.Bib, Existing: *rec.Finish}, true
		}
		if rec.DelayedStart != nil {
			return Outcome{Kind: AlreadyRecorded, Bib: rec.Bib, Existing: *rec.DelayedStart}, true
		}
	}
	return Outcome{}, false
}

func fields(kind model.EventType, stamp string) (delayedStart, finish *string) {
	if kind == model.EventDelayedStart {
		return &stamp, nil
	}
	return nil, &stamp
}

// CheckIn pre-creates an untimed record for bib.
func (r *Reconciler) CheckIn(ctx context.Context, bib int, monitor string) Outcome {
	op := string(model.EventCheckIn)
	if bib <= 0 {
		return r.finish(ctx, op, Outcome{Kind: InvalidInput, Bib: bib, Err: ErrInvalidBib}, nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.timed("insert", func() error {
		return r.store.Insert(ctx, model.RunnerRecord{Bib: bib, Monitor: monitor})
	})
	if err != nil {
		return r.fail(ctx, op, bib, err)
	}
	return r.finish(ctx, op, Outcome{Kind: CheckedIn, Bib: bib}, r.event(model.EventCheckIn, bib, monitor, ""))
}

// Delete removes the record for bib.
func (r *Reconciler) Delete(ctx context.Context, bib int, monitor string) Outcome {
	op := string(model.EventDelete)
	if bib <= 0 {
		return r.finish(ctx, op, Outcome{Kind: InvalidInput, Bib: bib, Err: ErrInvalidBib}, nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.timed("delete", func() error { return r.store.Delete(ctx, bib) }); err != nil {
		return r.fail(ctx, op, bib, err)
	}
	return r.finish(ctx, op, Outcome{Kind: Deleted, Bib: bib}, r.event(model.EventDelete, bib, monitor, ""))
}

// Clear removes every record.
func (r *Reconciler) Clear(ctx context.Context, monitor string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.timed("clear", func() error { return r.store.Clear(ctx) }); err != nil {
		return err
	}
	r.logger.Warn().Str("monitor", monitor).Msg("all runner records cleared")
	r.notify(ctx, r.event(model.EventClear, 0, monitor, ""))
	return nil
}

// ComputeRanking orders every record by finish time. Runners without a finish
// come last; equal keys keep store order.
func (r *Reconciler) ComputeRanking(ctx context.Context) ([]model.RankingEntry, error) {
	var recs []model.RunnerRecord
	err := r.timed("list", func() error {
		var err error
		recs, err = r.store.List(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return timecalc.SortKey(recs[i].Finish) < timecalc.SortKey(recs[j].Finish)
	})

	ranking := make([]model.RankingEntry, len(recs))
	for i, rec := range recs {
		ranking[i] = model.RankingEntry{
			Position:     i + 1,
			Bib:          rec.Bib,
			Monitor:      rec.Monitor,
			DelayedStart: rec.DelayedStart,
			Finish:       rec.Finish,
		}
	}
	return ranking, nil
}

// RankingFor returns the ranking entry of a single bib.
func (r *Reconciler) RankingFor(ctx context.Context, bib int) (model.RankingEntry, bool, error) {
	ranking, err := r.ComputeRanking(ctx)
	if err != nil {
		return model.RankingEntry{}, false, err
	}
	for _, e := range ranking {
		if e.Bib == bib {
			return e, true, nil
		}
	}
	return model.RankingEntry{}, false, nil
}

func (r *Reconciler) get(ctx context.Context, bib int) (model.RunnerRecord, error) {
	var rec model.RunnerRecord
	err := r.timed("get", func() error {
		var err error
		rec, err = r.store.Get(ctx, bib)
		return err
	})
	return rec, err
}

func (r *Reconciler) timed(op string, fn func() error) error {
	start := r.clock.Now()
	err := fn()
	r.metrics.ObserveStore(op, r.clock.Since(start))
	return err
}

func (r *Reconciler) event(kind model.EventType, bib int, monitor, hora string) *model.TimingEvent {
	ev := model.NewTimingEvent(kind, bib, monitor, hora, r.clock.Now())
	return &ev
}

func (r *Reconciler) fail(ctx context.Context, op string, bib int, err error) Outcome {
	o := Outcome{Bib: bib, Err: err}
	switch {
	case errors.Is(err, storage.ErrNotFound):
		o.Kind = NotFound
	case errors.Is(err, storage.ErrDuplicateBib):
		o.Kind = DuplicateBib
	default:
		o.Kind = StorageFailure
		r.logger.Error().Err(err).Str("op", op).Int("bib", bib).Msg("storage failure")
	}
	return r.finish(ctx, op, o, nil)
}

func (r *Reconciler) finish(ctx context.Context, op string, o Outcome, ev *model.TimingEvent) Outcome {
	r.metrics.ObserveOutcome(op, string(o.Kind))
	r.logger.Debug().Str("op", op).Int("bib", o.Bib).Str("outcome", string(o.Kind)).Msg("timing operation")
	if ev != nil {
		r.notify(ctx, ev)
	}
	return o
}

func (r *Reconciler) notify(ctx context.Context, ev *model.TimingEvent) {
	if err := r.notifier.TimingRecorded(ctx, *ev); err != nil {
		r.logger.Warn().Err(err).Str("event", string(ev.Type)).Int("bib", ev.Bib).Msg("timing event not delivered")
	}
}
