package lifecycle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/careflow/internal/observability/metrics"
	"github.com/wolfman30/careflow/internal/storage"
)

type doc struct {
	ID        string
	Status    Status
	Version   int
	SentAt    *time.Time
	Rejection string
}

func (d doc) GetID() string     { return d.ID }
func (d doc) GetStatus() Status { return d.Status }
func (d doc) GetVersion() int   { return d.Version }

var errMissing = errors.New("missing")

type docStore struct {
	mu    sync.Mutex
	docs  map[string]doc
	saves int
}

func (s *docStore) load(_ context.Context, id string) (doc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[id]
	if !ok {
		return doc{}, errMissing
	}
	return d, nil
}

func (s *docStore) save(_ context.Context, d doc, prev int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.docs[d.ID].Version != prev {
		return storage.ErrVersionConflict
	}
	s.saves++
	s.docs[d.ID] = d
	return nil
}

func newExecutor(store *docStore, obs Observer) *Executor[doc] {
	return &Executor[doc]{
		Machine: Proposal,
		Load:    store.load,
		Save:    store.save,
		Apply: func(d doc, res Result) (doc, error) {
			d.Status = res.To
			d.Version++
			if res.Stamp == StampSentAt {
				at := res.At
				d.SentAt = &at
			}
			return d, nil
		},
		Observer: obs,
		Metrics:  metrics.NewLifecycleMetrics(prometheus.NewRegistry()),
		Now:      func() time.Time { return now },
	}
}

func TestExecutorAppliesAndNotifies(t *testing.T) {
	store := &docStore{docs: map[string]doc{"p1": {ID: "p1", Status: ProposalDraft, Version: 1}}}
	var events []Event
	exec := newExecutor(store, ObserverFunc(func(_ context.Context, ev Event) error {
		events = append(events, ev)
		return nil
	}))

	updated, err := exec.Run(context.Background(), "p1", Command{Action: ActionSend, ExpectedVersion: 1})
	require.NoError(t, err)
	assert.Equal(t, ProposalSent, updated.Status)
	assert.Equal(t, 2, updated.Version)
	require.NotNil(t, updated.SentAt)
	require.Len(t, events, 1)
	assert.Equal(t, ProposalDraft, events[0].Result.From)
	assert.Equal(t, "p1", events[0].EntityID)
}

func TestExecutorStaleVersion(t *testing.T) {
	store := &docStore{docs: map[string]doc{"p1": {ID: "p1", Status: ProposalDraft, Version: 3}}}
	exec := newExecutor(store, nil)

	_, err := exec.Run(context.Background(), "p1", Command{Action: ActionSend, ExpectedVersion: 2})
	assert.ErrorIs(t, err, storage.ErrVersionConflict)
	assert.Equal(t, 0, store.saves)
}

func TestExecutorTerminalKeepsStamp(t *testing.T) {
	sentAt := now.Add(-time.Hour)
	store := &docStore{docs: map[string]doc{"p1": {ID: "p1", Status: ProposalAccepted, Version: 4, SentAt: &sentAt}}}
	exec := newExecutor(store, nil)

	_, err := exec.Run(context.Background(), "p1", Command{Action: ActionSend})
	assert.ErrorIs(t, err, ErrAlreadyTerminal)
	assert.Equal(t, sentAt, *store.docs["p1"].SentAt)
	assert.Equal(t, 4, store.docs["p1"].Version)
}

func TestExecutorLoadError(t *testing.T) {
	exec := newExecutor(&docStore{docs: map[string]doc{}}, nil)
	_, err := exec.Run(context.Background(), "nope", Command{Action: ActionSend})
	assert.ErrorIs(t, err, errMissing)
}

func TestExecutorApplyVeto(t *testing.T) {
	veto := errors.New("expired")
	store := &docStore{docs: map[string]doc{"p1": {ID: "p1", Status: ProposalSent, Version: 1}}}
	exec := newExecutor(store, nil)
	exec.Apply = func(doc, Result) (doc, error) { return doc{}, veto }

	_, err := exec.Run(context.Background(), "p1", Command{Action: ActionAccept})
	assert.ErrorIs(t, err, veto)
	assert.Equal(t, ProposalSent, store.docs["p1"].Status)
}

func TestExecutorObserverFailureDoesNotFailTransition(t *testing.T) {
	store := &docStore{docs: map[string]doc{"p1": {ID: "p1", Status: ProposalDraft, Version: 1}}}
	exec := newExecutor(store, Observers{
		ObserverFunc(func(context.Context, Event) error { return errors.New("smtp down") }),
		nil,
	})

	updated, err := exec.Run(context.Background(), "p1", Command{Action: ActionSend})
	require.NoError(t, err)
	assert.Equal(t, ProposalSent, updated.Status)
	assert.Equal(t, ProposalSent, store.docs["p1"].Status)
}

func TestExecutorConcurrentWritersOneWins(t *testing.T) {
	store := &docStore{docs: map[string]doc{"p1": {ID: "p1", Status: ProposalSent, Version: 1}}}
	exec := newExecutor(store, nil)

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for _, action := range []Action{ActionAccept, ActionReject} {
		wg.Add(1)
		go func(a Action) {
			defer wg.Done()
			_, err := exec.Run(context.Background(), "p1", Command{Action: a, ExpectedVersion: 1})
			results <- err
		}(action)
	}
	wg.Wait()
	close(results)

	var ok, failed int
	for err := range results {
		if err == nil {
			ok++
			continue
		}
		failed++
		assert.True(t, errors.Is(err, storage.ErrVersionConflict) || errors.Is(err, ErrAlreadyTerminal), err)
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, failed)
}

func TestObserversJoinErrors(t *testing.T) {
	a := errors.New("a")
	b := errors.New("b")
	err := Observers{
		ObserverFunc(func(context.Context, Event) error { return a }),
		ObserverFunc(func(context.Context, Event) error { return b }),
	}.OnTransition(context.Background(), Event{})
	assert.ErrorIs(t, err, a)
	assert.ErrorIs(t, err, b)
}
