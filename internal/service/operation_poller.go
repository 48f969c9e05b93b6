package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"ai-filesearch-be/internal/pkg/apperror"
	"ai-filesearch-be/internal/pkg/logger"
	"ai-filesearch-be/pkg/gemini"
)

// OperationGetter is the slice of the vendor client the poller needs.
type OperationGetter interface {
	GetOperation(ctx context.Context, name string) (*gemini.Operation, error)
}

// TrackedOperation is the poller's view of one upload operation: the server
// state plus the local bookkeeping (originating file name, the local error
// that stopped polling, transient-failure count).
type TrackedOperation struct {
	Name              string
	StoreName         string
	FileDisplayName   string
	Done              bool
	File              *gemini.File
	Error             string
	TransientFailures int
}

type operationWatch struct {
	cancel   context.CancelFunc
	state    TrackedOperation
	notified bool
}

// OperationPoller drives upload operations from pending to a terminal
// state. Each tracked operation owns one ticker goroutine polling at a
// fixed interval.
//
// The one nuance that matters: a failing status check does not mean a
// failed operation. The status endpoint is known to return 5xx for
// operations that are legitimately still in progress, and 404 for
// operations not yet queryable. Both are swallowed and retried; only other
// failures terminate the watch.
type OperationPoller struct {
	getter       OperationGetter
	interval     time.Duration
	maxTransient int // 0 = retry transients until teardown
	log          logger.ILogger

	// onUpdate fires on every observed state change; onDone fires exactly
	// once per operation, at its terminal state.
	onUpdate func(TrackedOperation)
	onDone   func(TrackedOperation)

	mu      sync.RWMutex
	watches map[string]*operationWatch

	rootCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewOperationPoller(getter OperationGetter, interval time.Duration, maxTransient int, log logger.ILogger) *OperationPoller {
	ctx, cancel := context.WithCancel(context.Background())
	return &OperationPoller{
		getter:       getter,
		interval:     interval,
		maxTransient: maxTransient,
		log:          log,
		watches:      make(map[string]*operationWatch),
		rootCtx:      ctx,
		cancel:       cancel,
	}
}

func (p *OperationPoller) SetOnUpdate(fn func(TrackedOperation)) { p.onUpdate = fn }
func (p *OperationPoller) SetOnDone(fn func(TrackedOperation))   { p.onDone = fn }

// Track registers an operation and starts its poll loop. An operation that
// arrives already terminal is recorded and notified without a goroutine.
// Tracking the same name twice is a no-op.
func (p *OperationPoller) Track(op *gemini.Operation, storeName, fileDisplayName string) {
	name := gemini.NormalizeOperationName(op.Name)

	p.mu.Lock()
	if _, exists := p.watches[name]; exists {
		p.mu.Unlock()
		return
	}

	watchCtx, watchCancel := context.WithCancel(p.rootCtx)
	watch := &operationWatch{
		cancel: watchCancel,
		state: TrackedOperation{
			Name:            name,
			StoreName:       storeName,
			FileDisplayName: fileDisplayName,
		},
	}
	p.watches[name] = watch
	p.mu.Unlock()

	if op.Done {
		p.applyObservation(name, op)
		watchCancel()
		return
	}

	p.wg.Add(1)
	go p.pollLoop(watchCtx, name)
}

func (p *OperationPoller) pollLoop(ctx context.Context, name string) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if terminal := p.check(ctx, name); terminal {
				return
			}
		}
	}
}

// check performs one status fetch. Returns true when the watch reached a
// terminal state and the loop must stop.
func (p *OperationPoller) check(ctx context.Context, name string) bool {
	op, err := p.getter.GetOperation(ctx, name)
	if err != nil {
		if ctx.Err() != nil {
			return true
		}
		if transient, pollErr := classifyPollFailure(err); transient {
			return p.recordTransient(name, pollErr)
		}
		p.log.Error("OperationPoller", "Poll failed, stopping", map[string]interface{}{
			"operation": name,
			"error":     err.Error(),
		})
		p.failLocally(name, "Failed to check upload status")
		return true
	}

	return p.applyObservation(name, op)
}

// classifyPollFailure applies the transient-vs-fatal rule for status-check
// failures: 5xx and network failures are transient, a missing operation is
// "not yet ready", and a 4xx is fatal unless its body carries a transient
// indicator.
func classifyPollFailure(err error) (bool, *apperror.TransientPollError) {
	var notFound *apperror.NotFoundError
	if errors.As(err, &notFound) {
		return true, &apperror.TransientPollError{StatusCode: 404, Message: notFound.Error()}
	}

	var remote *apperror.RemoteServiceError
	if errors.As(err, &remote) {
		if remote.StatusCode >= 500 || remote.StatusCode == 0 {
			return true, &apperror.TransientPollError{StatusCode: remote.StatusCode, Message: remote.Message}
		}
		if apperror.HasTransientToken(remote.Message) {
			return true, &apperror.TransientPollError{StatusCode: remote.StatusCode, Message: remote.Message}
		}
	}
	return false, nil
}

// recordTransient logs, bumps the counter and keeps polling, unless the
// optional transient budget is exhausted.
func (p *OperationPoller) recordTransient(name string, pollErr *apperror.TransientPollError) bool {
	p.mu.Lock()
	watch, ok := p.watches[name]
	if !ok || watch.state.Done || watch.state.Error != "" {
		p.mu.Unlock()
		return true
	}
	watch.state.TransientFailures++
	failures := watch.state.TransientFailures
	p.mu.Unlock()

	p.log.Warn("OperationPoller", "Transient poll error, will retry", map[string]interface{}{
		"operation": name,
		"status":    pollErr.StatusCode,
		"error":     pollErr.Message,
		"failures":  failures,
	})

	if p.maxTransient > 0 && failures >= p.maxTransient {
		p.failLocally(name, "upload status unavailable after repeated transient errors")
		return true
	}
	return false
}

// applyObservation merges a successful status fetch. Done is monotonic:
// a terminal watch ignores every later observation, and the terminal
// notification fires at most once.
func (p *OperationPoller) applyObservation(name string, op *gemini.Operation) bool {
	p.mu.Lock()
	watch, ok := p.watches[name]
	if !ok || watch.state.Done || watch.state.Error != "" {
		p.mu.Unlock()
		return true
	}

	watch.state.TransientFailures = 0
	if !op.Done {
		state := watch.state
		p.mu.Unlock()
		p.notifyUpdate(state)
		return false
	}

	watch.state.Done = true
	if op.Error != nil {
		watch.state.Error = op.Error.Message
	} else if op.Response != nil && op.Response.File != nil {
		file := *op.Response.File
		if file.DisplayName == "" {
			file.DisplayName = watch.state.FileDisplayName
		}
		watch.state.File = &file
	}
	state := watch.state
	notify := !watch.notified
	watch.notified = true
	p.mu.Unlock()

	p.notifyUpdate(state)
	if notify {
		p.notifyDone(state)
	}
	return true
}

// failLocally records a terminal local error (distinct from a server-side
// operation error) and stops the watch.
func (p *OperationPoller) failLocally(name, message string) {
	p.mu.Lock()
	watch, ok := p.watches[name]
	if !ok || watch.state.Done || watch.state.Error != "" {
		p.mu.Unlock()
		return
	}
	watch.state.Error = message
	state := watch.state
	notify := !watch.notified
	watch.notified = true
	watch.cancel()
	p.mu.Unlock()

	p.notifyUpdate(state)
	if notify {
		p.notifyDone(state)
	}
}

func (p *OperationPoller) notifyUpdate(state TrackedOperation) {
	if p.onUpdate != nil {
		p.onUpdate(state)
	}
}

func (p *OperationPoller) notifyDone(state TrackedOperation) {
	if p.onDone != nil {
		p.onDone(state)
	}
}

func (p *OperationPoller) Status(name string) (TrackedOperation, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	watch, ok := p.watches[gemini.NormalizeOperationName(name)]
	if !ok {
		return TrackedOperation{}, false
	}
	return watch.state, true
}

func (p *OperationPoller) List() []TrackedOperation {
	p.mu.RLock()
	defer p.mu.RUnlock()
	states := make([]TrackedOperation, 0, len(p.watches))
	for _, watch := range p.watches {
		states = append(states, watch.state)
	}
	return states
}

// ForgetStore cancels and drops every watch targeting a store. Used when
// the store is deleted: its operations can never surface files again.
func (p *OperationPoller) ForgetStore(storeName string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for name, watch := range p.watches {
		if watch.state.StoreName == storeName {
			watch.cancel()
			delete(p.watches, name)
		}
	}
}

// Teardown cancels every watch and waits for the loops to exit. After it
// returns no poller goroutine issues another network call.
func (p *OperationPoller) Teardown() {
	p.cancel()
	p.wg.Wait()
}
