package atomsim

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"
)

// ReactionEvent describes one reaction that fired during a step.
type ReactionEvent struct {
	SimulationID SimulationID `json:"simulation_id"`
	ReactionID   string       `json:"reaction_id"`
	ReactionName string       `json:"reaction_name"`
	Timestamp    int64        `json:"timestamp"`
	Step         int64        `json:"step"`
	SimTime      float64      `json:"sim_time"`

	// Reactants as they were before the pass
	Reactants []Particle `json:"reactants"`

	Consumed []ParticleID `json:"consumed,omitempty"`
	Created  []Particle   `json:"created,omitempty"`
	Updated  []Particle   `json:"updated,omitempty"`
	Impulse  *Impulse     `json:"impulse,omitempty"`
}

// NewReactionEvent builds the event for a reaction applied at the given step.
func NewReactionEvent(simID SimulationID, step int64, simTime float64, ar AppliedReaction) ReactionEvent {
	return ReactionEvent{
		SimulationID: simID,
		ReactionID:   ar.Rule.ID(),
		ReactionName: ar.Rule.Name(),
		Timestamp:    time.Now().Unix(),
		Step:         step,
		SimTime:      simTime,
		Reactants:    []Particle{ar.A, ar.B},
		Consumed:     ar.Effect.Consumed,
		Created:      ar.Effect.Created,
		Updated:      ar.Effect.Updated,
		Impulse:      ar.Effect.Impulse,
	}
}

// JSON returns the event encoded as JSON.
func (e ReactionEvent) JSON() ([]byte, error) {
	return json.Marshal(e)
}

// Notifier is a delivery channel for reaction events.
type Notifier interface {
	// ID returns a unique identifier for this notifier
	ID() string

	// Type returns the kind of notifier, e.g. "webhook" or "websocket"
	Type() string

	// Notify delivers one event. The context carries the delivery deadline.
	Notify(ctx context.Context, event ReactionEvent) error

	Close() error
}

type notificationJob struct {
	Event       ReactionEvent
	NotifierIDs []string
}

// NotificationManager owns the registered notifiers and delivers events to
// them from a background queue.
type NotificationManager struct {
	mu        sync.RWMutex
	notifiers map[string]Notifier
	jobs      chan notificationJob
	closed    bool
	wg        sync.WaitGroup
	logger    Logger
}

// NewNotificationManager starts a manager with a single delivery worker.
func NewNotificationManager() *NotificationManager {
	mgr := &NotificationManager{
		notifiers: make(map[string]Notifier),
		jobs:      make(chan notificationJob, 1024),
		logger:    NoOpLogger{},
	}
	mgr.startWorkers(1)
	return mgr
}

// SetLogger sets the logger used for delivery failures.
func (nm *NotificationManager) SetLogger(l Logger) {
	nm.mu.Lock()
	defer nm.mu.Unlock()
	if l == nil {
		l = NoOpLogger{}
	}
	nm.logger = l
}

func (nm *NotificationManager) log() Logger {
	nm.mu.RLock()
	defer nm.mu.RUnlock()
	return nm.logger
}

// RegisterNotifier adds a notifier. IDs must be unique.
func (nm *NotificationManager) RegisterNotifier(notifier Notifier) error {
	if notifier == nil {
		return fmt.Errorf("notifier cannot be nil")
	}
	id := notifier.ID()
	if id == "" {
		return fmt.Errorf("notifier ID cannot be empty")
	}

	nm.mu.Lock()
	defer nm.mu.Unlock()
	if _, exists := nm.notifiers[id]; exists {
		return fmt.Errorf("notifier with ID %s already exists", id)
	}
	nm.notifiers[id] = notifier
	return nil
}

// UnregisterNotifier closes and removes a notifier.
func (nm *NotificationManager) UnregisterNotifier(id string) error {
	nm.mu.Lock()
	notifier, exists := nm.notifiers[id]
	if exists {
		delete(nm.notifiers, id)
	}
	nm.mu.Unlock()

	if !exists {
		return fmt.Errorf("notifier with ID %s not found", id)
	}
	if err := notifier.Close(); err != nil {
		return fmt.Errorf("error closing notifier %s: %w", id, err)
	}
	return nil
}

func (nm *NotificationManager) GetNotifier(id string) (Notifier, bool) {
	nm.mu.RLock()
	defer nm.mu.RUnlock()
	notifier, exists := nm.notifiers[id]
	return notifier, exists
}

// ListNotifiers returns the registered notifier IDs, sorted.
func (nm *NotificationManager) ListNotifiers() []string {
	nm.mu.RLock()
	defer nm.mu.RUnlock()
	ids := make([]string, 0, len(nm.notifiers))
	for id := range nm.notifiers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Enqueue queues event for the given notifiers. It never blocks: when the
// queue is full the event is dropped and logged.
func (nm *NotificationManager) Enqueue(event ReactionEvent, notifierIDs []string) {
	if len(notifierIDs) == 0 {
		return
	}

	nm.mu.RLock()
	defer nm.mu.RUnlock()
	if nm.closed {
		return
	}
	select {
	case nm.jobs <- notificationJob{Event: event, NotifierIDs: notifierIDs}:
	default:
		nm.logger.Warnf("notification queue full, dropping event: reaction_id=%s step=%d", event.ReactionID, event.Step)
	}
}

// Broadcast queues event for every notifier registered right now.
func (nm *NotificationManager) Broadcast(event ReactionEvent) {
	nm.Enqueue(event, nm.ListNotifiers())
}

func (nm *NotificationManager) startWorkers(n int) {
	for i := 0; i < n; i++ {
		nm.wg.Add(1)
		go nm.worker()
	}
}

func (nm *NotificationManager) worker() {
	defer nm.wg.Done()
	for job := range nm.jobs {
		nm.dispatchJob(job)
	}
}

func (nm *NotificationManager) dispatchJob(job notificationJob) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, id := range job.NotifierIDs {
		nm.notifyWithRetry(ctx, id, job.Event)
	}
}

// notifyWithRetry delivers with exponential backoff, giving up after
// maxRetries additional attempts.
func (nm *NotificationManager) notifyWithRetry(ctx context.Context, notifierID string, event ReactionEvent) {
	notifier, ok := nm.GetNotifier(notifierID)
	logger := nm.log()
	if !ok {
		logger.Warnf("notification failed: notifier=%s error=notifier not found", notifierID)
		return
	}

	const maxRetries = 3
	backoff := 100 * time.Millisecond

	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := notifier.Notify(ctx, event)
		if err == nil {
			return
		}
		logger.Warnf("notification failed: notifier=%s attempt=%d error=%v", notifierID, attempt+1, err)
		if attempt == maxRetries {
			logger.Errorf("notification failed after %d attempts: notifier=%s", maxRetries+1, notifierID)
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
			backoff *= 2
		}
	}
}

// Notify delivers event to the given notifiers synchronously and reports
// every failure.
func (nm *NotificationManager) Notify(ctx context.Context, event ReactionEvent, notifierIDs []string) error {
	var errs []error
	for _, id := range notifierIDs {
		notifier, exists := nm.GetNotifier(id)
		if !exists {
			errs = append(errs, fmt.Errorf("notifier %s not found", id))
			continue
		}
		if err := notifier.Notify(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("notifier %s failed: %w", id, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("notification errors: %v", errs)
	}
	return nil
}

// Close drains the queue, stops the worker and closes every notifier.
func (nm *NotificationManager) Close() error {
	nm.mu.Lock()
	if nm.closed {
		nm.mu.Unlock()
		return nil
	}
	nm.closed = true
	close(nm.jobs)
	nm.mu.Unlock()

	nm.wg.Wait()

	nm.mu.Lock()
	var errs []error
	for id, notifier := range nm.notifiers {
		if err := notifier.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing notifier %s: %w", id, err))
		}
	}
	nm.notifiers = make(map[string]Notifier)
	nm.mu.Unlock()

	if len(errs) > 0 {
		return fmt.Errorf("errors closing notifiers: %v", errs)
	}
	return nil
}
