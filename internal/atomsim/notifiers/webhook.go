package notifiers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/daniacca/atomsim/internal/atomsim"
	"gonum.org/v1/gonum/spatial/r2"
)

// WebhookPayload is the compact body posted for one reaction. It carries
// what a receiver needs to follow the chemistry, not full particle state.
type WebhookPayload struct {
	SimulationID atomsim.SimulationID `json:"simulation_id"`
	Reaction     string               `json:"reaction"`
	Step         int64                `json:"step"`
	SimTime      float64              `json:"sim_time"`
	Reactants    []ParticleSummary    `json:"reactants"`
	Consumed     []atomsim.ParticleID `json:"consumed,omitempty"`
	Created      []ParticleSummary    `json:"created,omitempty"`
	Updated      []ParticleSummary    `json:"updated,omitempty"`
	// ImpulseAt and ImpulseRadius are set when the reaction released an impulse.
	ImpulseAt     *r2.Vec `json:"impulse_at,omitempty"`
	ImpulseRadius float64 `json:"impulse_radius,omitempty"`
}

// ParticleSummary identifies a particle and its charge state.
type ParticleSummary struct {
	ID      atomsim.ParticleID `json:"id"`
	Element string             `json:"element"`
	Charge  int64              `json:"charge"`
}

func summarize(ps []atomsim.Particle) []ParticleSummary {
	if len(ps) == 0 {
		return nil
	}
	out := make([]ParticleSummary, len(ps))
	for i, p := range ps {
		out[i] = ParticleSummary{ID: p.ID, Element: p.Element.String(), Charge: p.Charge()}
	}
	return out
}

// NewWebhookPayload condenses a reaction event.
func NewWebhookPayload(event atomsim.ReactionEvent) WebhookPayload {
	payload := WebhookPayload{
		SimulationID: event.SimulationID,
		Reaction:     event.ReactionID,
		Step:         event.Step,
		SimTime:      event.SimTime,
		Reactants:    summarize(event.Reactants),
		Consumed:     event.Consumed,
		Created:      summarize(event.Created),
		Updated:      summarize(event.Updated),
	}
	if event.Impulse != nil {
		center := event.Impulse.Center
		payload.ImpulseAt = &center
		payload.ImpulseRadius = event.Impulse.Radius
	}
	return payload
}

// WebhookNotifier POSTs a WebhookPayload per reaction to a URL. With a
// reaction filter set, only the listed rule IDs are sent.
type WebhookNotifier struct {
	id     string
	url    string
	client *http.Client

	mu        sync.RWMutex
	headers   map[string]string
	reactions map[string]bool
}

func NewWebhookNotifier(id, url string) *WebhookNotifier {
	return &WebhookNotifier{
		id:      id,
		url:     url,
		client:  &http.Client{Timeout: 5 * time.Second},
		headers: make(map[string]string),
	}
}

// SetHeader adds a header sent with every request, e.g. an auth token.
func (wn *WebhookNotifier) SetHeader(key, value string) {
	wn.mu.Lock()
	defer wn.mu.Unlock()
	wn.headers[key] = value
}

// FilterReactions restricts delivery to the given rule IDs, e.g. "fusion".
// Calling it with no IDs removes the filter.
func (wn *WebhookNotifier) FilterReactions(ruleIDs ...string) {
	wn.mu.Lock()
	defer wn.mu.Unlock()
	if len(ruleIDs) == 0 {
		wn.reactions = nil
		return
	}
	wn.reactions = make(map[string]bool, len(ruleIDs))
	for _, id := range ruleIDs {
		wn.reactions[id] = true
	}
}

// Wants reports whether an event from ruleID passes the filter.
func (wn *WebhookNotifier) Wants(ruleID string) bool {
	wn.mu.RLock()
	defer wn.mu.RUnlock()
	return wn.reactions == nil || wn.reactions[ruleID]
}

func (wn *WebhookNotifier) ID() string   { return wn.id }
func (wn *WebhookNotifier) Type() string { return "webhook" }

// URL returns the target URL.
func (wn *WebhookNotifier) URL() string { return wn.url }

// Notify posts the condensed event. Filtered-out reactions succeed without
// a request. Any non-2xx response is an error so that the manager retries.
func (wn *WebhookNotifier) Notify(ctx context.Context, event atomsim.ReactionEvent) error {
	if !wn.Wants(event.ReactionID) {
		return nil
	}
	body, err := json.Marshal(NewWebhookPayload(event))
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, wn.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Atomsim-Reaction", event.ReactionID)
	wn.mu.RLock()
	for key, value := range wn.headers {
		req.Header.Set(key, value)
	}
	wn.mu.RUnlock()

	resp, err := wn.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook %s returned status %d for %s at step %d", wn.id, resp.StatusCode, event.ReactionID, event.Step)
	}
	return nil
}

func (wn *WebhookNotifier) Close() error {
	return nil
}
