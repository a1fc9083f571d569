package notifiers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/daniacca/atomsim/internal/atomsim"
	"gonum.org/v1/gonum/spatial/r2"
)

func testEvent() atomsim.ReactionEvent {
	return atomsim.ReactionEvent{
		SimulationID: "sim-1",
		ReactionID:   "fusion",
		ReactionName: "Hydrogen fusion",
		Step:         12,
		SimTime:      0.192,
	}
}

func TestWebhookNotifier(t *testing.T) {
	notifier := NewWebhookNotifier("test-webhook", "http://localhost:9999/webhook")

	if notifier.ID() != "test-webhook" {
		t.Errorf("Expected ID 'test-webhook', got '%s'", notifier.ID())
	}
	if notifier.Type() != "webhook" {
		t.Errorf("Expected type 'webhook', got '%s'", notifier.Type())
	}
	if notifier.URL() != "http://localhost:9999/webhook" {
		t.Errorf("Unexpected URL %s", notifier.URL())
	}
	if err := notifier.Close(); err != nil {
		t.Errorf("Close should not return error: %v", err)
	}
}

func TestWebhookNotifier_Delivers(t *testing.T) {
	var (
		gotMethod string
		gotHeader http.Header
		gotBody   []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotHeader = r.Header.Clone()
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	notifier := NewWebhookNotifier("hook", srv.URL)
	notifier.SetHeader("Authorization", "Bearer secret")

	if err := notifier.Notify(context.Background(), testEvent()); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}
	if gotMethod != http.MethodPost {
		t.Errorf("Expected POST, got %s", gotMethod)
	}
	if gotHeader.Get("Content-Type") != "application/json" {
		t.Errorf("Expected JSON content type, got %q", gotHeader.Get("Content-Type"))
	}
	if gotHeader.Get("Authorization") != "Bearer secret" {
		t.Errorf("Expected custom header, got %q", gotHeader.Get("Authorization"))
	}

	if gotHeader.Get("X-Atomsim-Reaction") != "fusion" {
		t.Errorf("Expected reaction header, got %q", gotHeader.Get("X-Atomsim-Reaction"))
	}

	var payload WebhookPayload
	if err := json.Unmarshal(gotBody, &payload); err != nil {
		t.Fatalf("Body is not a payload: %v", err)
	}
	if payload.Reaction != "fusion" || payload.Step != 12 || payload.SimulationID != "sim-1" {
		t.Errorf("Unexpected payload: %+v", payload)
	}
}

func TestNewWebhookPayload(t *testing.T) {
	a := atomsim.NewParticle(atomsim.Hydrogen, r2.Vec{X: 1, Y: 1})
	a.ID = 4
	b := atomsim.NewParticle(atomsim.Hydrogen, r2.Vec{X: 1.01, Y: 1})
	b.ID = 9
	_ = b.RemoveElectron()
	he := atomsim.NewParticle(atomsim.Helium, r2.Vec{X: 1.005, Y: 1})
	he.ID = 10

	event := testEvent()
	event.Reactants = []atomsim.Particle{a, b}
	event.Consumed = []atomsim.ParticleID{4, 9}
	event.Created = []atomsim.Particle{he}
	event.Impulse = &atomsim.Impulse{Center: r2.Vec{X: 1.005, Y: 1}, Radius: 2, Strength: 5}

	payload := NewWebhookPayload(event)
	if len(payload.Reactants) != 2 || payload.Reactants[1].ID != 9 || payload.Reactants[1].Charge != 1 {
		t.Errorf("Unexpected reactants: %+v", payload.Reactants)
	}
	if payload.Reactants[0].Element != "hydrogen" {
		t.Errorf("Expected element names, got %q", payload.Reactants[0].Element)
	}
	if len(payload.Created) != 1 || payload.Created[0].Element != "helium" {
		t.Errorf("Unexpected created: %+v", payload.Created)
	}
	if payload.ImpulseAt == nil || payload.ImpulseRadius != 2 {
		t.Errorf("Expected impulse summary, got %+v", payload)
	}
	if payload.Updated != nil {
		t.Errorf("Expected no updated particles, got %+v", payload.Updated)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var raw map[string]any
	_ = json.Unmarshal(data, &raw)
	if _, ok := raw["velocity"]; ok {
		t.Errorf("Payload must not carry full particle state: %s", data)
	}
}

func TestWebhookNotifier_FilterReactions(t *testing.T) {
	var mu sync.Mutex
	var got []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		got = append(got, r.Header.Get("X-Atomsim-Reaction"))
		mu.Unlock()
	}))
	defer srv.Close()

	notifier := NewWebhookNotifier("hook", srv.URL)
	notifier.FilterReactions("electron_transfer")
	if notifier.Wants("fusion") || !notifier.Wants("electron_transfer") {
		t.Fatal("Filter does not match the configured rule IDs")
	}

	fusion := testEvent()
	transfer := testEvent()
	transfer.ReactionID = "electron_transfer"
	if err := notifier.Notify(context.Background(), fusion); err != nil {
		t.Errorf("Filtered event must not fail, got %v", err)
	}
	if err := notifier.Notify(context.Background(), transfer); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}

	mu.Lock()
	if len(got) != 1 || got[0] != "electron_transfer" {
		t.Errorf("Expected only the transfer event, got %v", got)
	}
	mu.Unlock()

	notifier.FilterReactions()
	if !notifier.Wants("fusion") {
		t.Error("Clearing the filter must let every reaction through")
	}
}

func TestWebhookNotifier_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	notifier := NewWebhookNotifier("hook", srv.URL)
	if err := notifier.Notify(context.Background(), testEvent()); err == nil {
		t.Error("Expected an error for a 502 response")
	}
}

func TestWebhookNotifier_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	notifier := NewWebhookNotifier("hook", url)
	if err := notifier.Notify(context.Background(), testEvent()); err == nil {
		t.Error("Expected an error when the target is down")
	}
}

func TestWebhookNotifier_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	notifier := NewWebhookNotifier("hook", srv.URL)
	if err := notifier.Notify(ctx, testEvent()); err == nil {
		t.Error("Expected an error for a canceled context")
	}
}
