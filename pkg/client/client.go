// Package client talks to an atomsim server over HTTP and websockets.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/daniacca/atomsim/internal/atomsim"
	"github.com/gorilla/websocket"
)

// StatusError is returned when the server answers with an unexpected status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned status %d: %s", e.Code, e.Body)
}

// Client is a thin wrapper around the atomsim HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
	dialer  *websocket.Dialer
}

// New creates a client for the server at baseURL, e.g. "http://localhost:8080".
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		dialer:  websocket.DefaultDialer,
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http = hc
	return c
}

// SimulationInfo is returned when a simulation is created or restored.
type SimulationInfo struct {
	ID        atomsim.SimulationID `json:"id"`
	Particles int                  `json:"particles"`
}

// StepResult reports the clock after a step request.
type StepResult struct {
	Steps int64   `json:"steps"`
	Time  float64 `json:"time"`
}

// CreateSimulation creates a simulation with the configuration built by cfg.
// An empty id lets the server generate one. With populate the server seeds
// the domain with random atoms.
func (c *Client) CreateSimulation(ctx context.Context, id string, cfg *ConfigBuilder, populate bool) (SimulationInfo, error) {
	body := map[string]any{"id": id, "populate": populate}
	if cfg != nil {
		built, err := cfg.Build()
		if err != nil {
			return SimulationInfo{}, fmt.Errorf("invalid config: %w", err)
		}
		body["config"] = built
	}
	var info SimulationInfo
	err := c.doJSON(ctx, http.MethodPost, nil, body, http.StatusCreated, &info, "sims")
	return info, err
}

// ListSimulations returns the IDs of every simulation on the server.
func (c *Client) ListSimulations(ctx context.Context) ([]string, error) {
	var resp struct {
		Simulations []string `json:"simulations"`
	}
	if err := c.doJSON(ctx, http.MethodGet, nil, nil, http.StatusOK, &resp, "sims"); err != nil {
		return nil, err
	}
	return resp.Simulations, nil
}

func (c *Client) DeleteSimulation(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, nil, nil, http.StatusOK, nil, "sim", id)
}

// Config fetches the configuration a simulation runs with.
func (c *Client) Config(ctx context.Context, id string) (atomsim.Config, error) {
	var cfg atomsim.Config
	err := c.doJSON(ctx, http.MethodGet, nil, nil, http.StatusOK, &cfg, "sim", id, "config")
	return cfg, err
}

// Step advances the simulation n times. A zero dt uses the configured time step.
func (c *Client) Step(ctx context.Context, id string, n int, dt float64) (StepResult, error) {
	q := url.Values{}
	if n > 0 {
		q.Set("steps", strconv.Itoa(n))
	}
	if dt > 0 {
		q.Set("dt", strconv.FormatFloat(dt, 'g', -1, 64))
	}
	var res StepResult
	err := c.doJSON(ctx, http.MethodPost, q, nil, http.StatusOK, &res, "sim", id, "step")
	return res, err
}

// Start makes the server step the simulation on its own every interval.
func (c *Client) Start(ctx context.Context, id string, interval time.Duration) error {
	q := url.Values{}
	if ms := interval.Milliseconds(); ms > 0 {
		q.Set("interval", strconv.FormatInt(ms, 10))
	}
	return c.doJSON(ctx, http.MethodPost, q, nil, http.StatusOK, nil, "sim", id, "start")
}

func (c *Client) Stop(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodPost, nil, nil, http.StatusOK, nil, "sim", id, "stop")
}

// AddAtoms inserts the collected atoms as one batch and returns their IDs in
// insertion order.
func (c *Client) AddAtoms(ctx context.Context, id string, atoms *AtomsBuilder) ([]atomsim.ParticleID, error) {
	var resp struct {
		IDs []atomsim.ParticleID `json:"ids"`
	}
	body := map[string]any{"particles": atoms.atoms}
	if err := c.doJSON(ctx, http.MethodPost, nil, body, http.StatusCreated, &resp, "sim", id, "particles"); err != nil {
		return nil, err
	}
	return resp.IDs, nil
}

func (c *Client) Particles(ctx context.Context, id string) ([]atomsim.Particle, error) {
	var ps []atomsim.Particle
	err := c.doJSON(ctx, http.MethodGet, nil, nil, http.StatusOK, &ps, "sim", id, "particles")
	return ps, err
}

func (c *Client) Particle(ctx context.Context, id string, pid atomsim.ParticleID) (atomsim.Particle, error) {
	var p atomsim.Particle
	err := c.doJSON(ctx, http.MethodGet, nil, nil, http.StatusOK, &p, "sim", id, "particle", formatPID(pid))
	return p, err
}

func (c *Client) RemoveParticle(ctx context.Context, id string, pid atomsim.ParticleID) error {
	return c.doJSON(ctx, http.MethodDelete, nil, nil, http.StatusOK, nil, "sim", id, "particle", formatPID(pid))
}

// AddElectron gives the particle one more electron and returns its new state.
func (c *Client) AddElectron(ctx context.Context, id string, pid atomsim.ParticleID) (atomsim.Particle, error) {
	var p atomsim.Particle
	err := c.doJSON(ctx, http.MethodPost, nil, nil, http.StatusOK, &p, "sim", id, "particle", formatPID(pid), "electron")
	return p, err
}

// RemoveElectron strips one electron; the server answers 400 when the
// particle has none.
func (c *Client) RemoveElectron(ctx context.Context, id string, pid atomsim.ParticleID) (atomsim.Particle, error) {
	var p atomsim.Particle
	err := c.doJSON(ctx, http.MethodDelete, nil, nil, http.StatusOK, &p, "sim", id, "particle", formatPID(pid), "electron")
	return p, err
}

func (c *Client) Statistics(ctx context.Context, id string) (atomsim.Statistics, error) {
	var st atomsim.Statistics
	err := c.doJSON(ctx, http.MethodGet, nil, nil, http.StatusOK, &st, "sim", id, "statistics")
	return st, err
}

// Render fetches the render snapshot as JSON.
func (c *Client) Render(ctx context.Context, id string) ([]atomsim.RenderItem, error) {
	var items []atomsim.RenderItem
	err := c.doJSON(ctx, http.MethodGet, nil, nil, http.StatusOK, &items, "sim", id, "render")
	return items, err
}

// Frame fetches the render snapshot in the compact binary encoding.
func (c *Client) Frame(ctx context.Context, id string) (atomsim.Frame, error) {
	data, err := c.doRaw(ctx, http.MethodGet, nil, nil, http.StatusOK, "sim", id, "frame")
	if err != nil {
		return atomsim.Frame{}, err
	}
	return atomsim.DecodeFrame(data)
}

// State downloads a full capture of the simulation.
func (c *Client) State(ctx context.Context, id string) (atomsim.State, error) {
	var st atomsim.State
	err := c.doJSON(ctx, http.MethodGet, nil, nil, http.StatusOK, &st, "sim", id, "state")
	return st, err
}

// Restore uploads a state and registers it as a new simulation under
// st.SimulationID.
func (c *Client) Restore(ctx context.Context, st atomsim.State) (SimulationInfo, error) {
	var info SimulationInfo
	err := c.doJSON(ctx, http.MethodPost, nil, st, http.StatusCreated, &info, "sims", "restore")
	return info, err
}

// SaveSnapshot asks the server to write the state into its snapshot
// directory and returns the path it wrote.
func (c *Client) SaveSnapshot(ctx context.Context, id string) (string, error) {
	var resp struct {
		Path string `json:"path"`
	}
	if err := c.doJSON(ctx, http.MethodPost, nil, nil, http.StatusOK, &resp, "sim", id, "snapshot"); err != nil {
		return "", err
	}
	return resp.Path, nil
}

func (c *Client) SetNeighborRadius(ctx context.Context, id string, radius float64) error {
	body := map[string]float64{"radius": radius}
	return c.doJSON(ctx, http.MethodPut, nil, body, http.StatusOK, nil, "sim", id, "neighbor-radius")
}

// RegisterWebhook makes the server POST reaction events to target. When
// reactions names rule IDs, only those reactions are sent.
func (c *Client) RegisterWebhook(ctx context.Context, notifierID, target string, headers map[string]string, reactions ...string) error {
	cfg := map[string]any{"url": target}
	if len(headers) > 0 {
		cfg["headers"] = headers
	}
	if len(reactions) > 0 {
		cfg["reactions"] = reactions
	}
	body := map[string]any{"type": "webhook", "id": notifierID, "config": cfg}
	return c.doJSON(ctx, http.MethodPost, nil, body, http.StatusOK, nil, "notifiers")
}

func (c *Client) UnregisterNotifier(ctx context.Context, notifierID string) error {
	return c.doJSON(ctx, http.MethodDelete, nil, nil, http.StatusOK, nil, "notifiers", notifierID)
}

// StreamFrames opens the binary frame stream of a simulation and calls fn
// for each frame until ctx is done, fn returns an error or the server
// closes the connection.
func (c *Client) StreamFrames(ctx context.Context, id string, fn func(atomsim.Frame) error) error {
	conn, err := c.dial(ctx, "sim", id, "stream")
	if err != nil {
		return err
	}
	defer conn.Close()
	stop := closeOnDone(ctx, conn)
	defer stop()

	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("reading frame: %w", err)
		}
		if kind != websocket.BinaryMessage {
			continue
		}
		frame, err := atomsim.DecodeFrame(data)
		if err != nil {
			return err
		}
		if err := fn(frame); err != nil {
			return err
		}
	}
}

// Events subscribes to the reaction event feed of every simulation on the
// server. It returns like StreamFrames.
func (c *Client) Events(ctx context.Context, fn func(atomsim.ReactionEvent) error) error {
	conn, err := c.dial(ctx, "events")
	if err != nil {
		return err
	}
	defer conn.Close()
	stop := closeOnDone(ctx, conn)
	defer stop()

	for {
		var ev atomsim.ReactionEvent
		if err := conn.ReadJSON(&ev); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("reading event: %w", err)
		}
		if err := fn(ev); err != nil {
			return err
		}
	}
}

func (c *Client) endpoint(q url.Values, elem ...string) (string, error) {
	u, err := url.JoinPath(c.baseURL, elem...)
	if err != nil {
		return "", fmt.Errorf("failed to build URL: %w", err)
	}
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u, nil
}

func (c *Client) doJSON(ctx context.Context, method string, q url.Values, in any, want int, out any, elem ...string) error {
	data, err := c.doRaw(ctx, method, q, in, want, elem...)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) doRaw(ctx context.Context, method string, q url.Values, in any, want int, elem ...string) ([]byte, error) {
	u, err := c.endpoint(q, elem...)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if in != nil {
		jsonData, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != want {
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	return data, nil
}

func (c *Client) dial(ctx context.Context, elem ...string) (*websocket.Conn, error) {
	u, err := c.endpoint(nil, elem...)
	if err != nil {
		return nil, err
	}
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	conn, resp, err := c.dialer.DialContext(ctx, u, nil)
	if err != nil {
		if resp != nil {
			return nil, &StatusError{Code: resp.StatusCode, Body: err.Error()}
		}
		return nil, fmt.Errorf("failed to dial %s: %w", u, err)
	}
	return conn, nil
}

// closeOnDone closes conn when ctx ends, unblocking any pending read.
func closeOnDone(ctx context.Context, conn *websocket.Conn) func() {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()
	return func() { close(done) }
}

func formatPID(pid atomsim.ParticleID) string {
	return strconv.FormatUint(uint64(pid), 10)
}
