package lifecycle

import (
	"context"
	"time"

	"github.com/wolfman30/careflow/internal/observability/metrics"
)

// DeleteObserver is told about hard deletes after they have been stored.
type DeleteObserver interface {
	OnDelete(ctx context.Context, kind Kind, id, actor string) error
}

// Hooks bundles the collaborators shared by every lifecycle service.
type Hooks struct {
	Observer Observer
	Deletes  DeleteObserver
	Metrics  *metrics.LifecycleMetrics
	Now      func() time.Time
}

// Clock returns Now, or time.Now when unset.
func (h Hooks) Clock() func() time.Time {
	if h.Now != nil {
		return h.Now
	}
	return time.Now
}

// NotifyDelete forwards a delete to the observer, if any.
func (h Hooks) NotifyDelete(ctx context.Context, kind Kind, id, actor string) error {
	if h.Deletes == nil {
		return nil
	}
	return h.Deletes.OnDelete(ctx, kind, id, actor)
}
