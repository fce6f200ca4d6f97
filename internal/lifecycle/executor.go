package lifecycle

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/wolfman30/careflow/internal/observability/metrics"
	"github.com/wolfman30/careflow/internal/storage"
	"github.com/wolfman30/careflow/pkg/logging"
)

var tracer = otel.Tracer("careflow.internal.lifecycle")

// Record is implemented by every entity with a status lifecycle.
type Record interface {
	GetID() string
	GetStatus() Status
	GetVersion() int
}

// Command is a transition request as received from an operator.
type Command struct {
	Action  Action
	Payload Payload
	// ExpectedVersion guards against lost updates; zero skips the check.
	ExpectedVersion int
}

// Event is delivered to observers after a transition has been stored.
type Event struct {
	EntityID string
	Result   Result
	Record   Record
}

// Observer runs a synchronous side effect of a stored transition.
type Observer interface {
	OnTransition(ctx context.Context, ev Event) error
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, ev Event) error

func (f ObserverFunc) OnTransition(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}

// Observers fans an event out to every member and joins their errors.
type Observers []Observer

func (o Observers) OnTransition(ctx context.Context, ev Event) error {
	var errs []error
	for _, obs := range o {
		if obs == nil {
			continue
		}
		if err := obs.OnTransition(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Executor runs the load, validate, write and notify cycle for one kind.
type Executor[T Record] struct {
	Machine *Machine
	// Load fetches the current record.
	Load func(ctx context.Context, id string) (T, error)
	// Apply returns the record updated with res. It may veto the transition
	// with an entity-specific error.
	Apply func(rec T, res Result) (T, error)
	// Save writes rec only if the stored version still equals prevVersion.
	Save     func(ctx context.Context, rec T, prevVersion int) error
	Observer Observer
	Metrics  *metrics.LifecycleMetrics
	Logger   *logging.Logger
	Now      func() time.Time
}

// Run applies cmd to the record with the given id.
func (e *Executor[T]) Run(ctx context.Context, id string, cmd Command) (T, error) {
	var zero T
	start := time.Now()
	kind := string(e.Machine.Kind())
	ctx, span := tracer.Start(ctx, "lifecycle.transition")
	defer span.End()
	span.SetAttributes(
		attribute.String("careflow.kind", kind),
		attribute.String("careflow.entity_id", id),
		attribute.String("careflow.action", string(cmd.Action)),
	)

	fail := func(err error) (T, error) {
		outcome := metrics.OutcomeError
		switch {
		case IsRejection(err):
			outcome = metrics.OutcomeRejected
		case errors.Is(err, storage.ErrVersionConflict):
			outcome = metrics.OutcomeConflict
		default:
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		e.Metrics.ObserveTransition(kind, string(cmd.Action), outcome, time.Since(start).Seconds())
		return zero, err
	}

	if err := e.Machine.Validate(cmd.Action, cmd.Payload); err != nil {
		return fail(err)
	}

	rec, err := e.Load(ctx, id)
	if err != nil {
		return fail(err)
	}
	if cmd.ExpectedVersion != 0 && cmd.ExpectedVersion != rec.GetVersion() {
		return fail(storage.ErrVersionConflict)
	}

	res, err := e.Machine.Apply(rec.GetStatus(), cmd.Action, cmd.Payload, e.now())
	if err != nil {
		return fail(err)
	}

	updated, err := e.Apply(rec, res)
	if err != nil {
		return fail(err)
	}
	if err := e.Save(ctx, updated, rec.GetVersion()); err != nil {
		return fail(err)
	}

	e.Metrics.ObserveTransition(kind, string(cmd.Action), metrics.OutcomeApplied, time.Since(start).Seconds())
	e.logger().Info("status transition applied",
		"kind", kind,
		"id", id,
		"action", cmd.Action,
		"from", res.From,
		"to", res.To,
		"actor", res.Actor,
	)

	if e.Observer != nil {
		if err := e.Observer.OnTransition(ctx, Event{EntityID: id, Result: res, Record: updated}); err != nil {
			// The write has committed; side effects never undo it.
			e.logger().Warn("transition side effect failed", "kind", kind, "id", id, "error", err)
		}
	}
	return updated, nil
}

func (e *Executor[T]) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Executor[T]) logger() *logging.Logger {
	if e.Logger == nil {
		return logging.Default()
	}
	return e.Logger
}
