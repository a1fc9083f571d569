package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/daniacca/atomsim/internal/atomsim"
	"github.com/daniacca/atomsim/internal/atomsim/notifiers"
	"github.com/gorilla/websocket"
	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r2"
)

// extractSimID splits a path like "/sim/{simID}/..." into the simulation ID
// and the remaining path. Both are empty when the prefix does not match.
func extractSimID(path string) (atomsim.SimulationID, string) {
	rest, ok := strings.CutPrefix(path, "/sim/")
	if !ok {
		return "", ""
	}
	idx := strings.Index(rest, "/")
	if idx == -1 {
		return atomsim.SimulationID(rest), ""
	}
	return atomsim.SimulationID(rest[:idx]), rest[idx:]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the simulation error taxonomy onto status codes.
func writeError(w http.ResponseWriter, err error) {
	var verr *atomsim.ValidationError
	var cerr *atomsim.CapacityError
	switch {
	case errors.Is(err, atomsim.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &verr), errors.As(err, &cerr), errors.Is(err, atomsim.ErrNoElectrons),
		errors.Is(err, atomsim.ErrElectronOverflow):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// lookup resolves the simulation named in the path or writes a 404.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*atomsim.Simulator, bool) {
	simID, _ := extractSimID(r.URL.Path)
	if simID == "" {
		http.Error(w, "simulation ID is required in path: /sim/{simID}/...", http.StatusBadRequest)
		return nil, false
	}
	sim, exists := s.manager.GetSimulation(simID)
	if !exists {
		http.Error(w, "simulation not found", http.StatusNotFound)
		return nil, false
	}
	return sim, true
}

func (s *Server) handleSimulationsRoutes(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/sims" && r.Method == http.MethodGet:
		s.handleListSimulations(w, r)
	case r.URL.Path == "/sims" && r.Method == http.MethodPost:
		s.handleCreateSimulation(w, r)
	case r.URL.Path == "/sims/restore" && r.Method == http.MethodPost:
		s.handleRestoreSimulation(w, r)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

// GET /sims
func (s *Server) handleListSimulations(w http.ResponseWriter, _ *http.Request) {
	simIDs := s.manager.ListSimulations()
	ids := make([]string, len(simIDs))
	for i, id := range simIDs {
		ids[i] = string(id)
	}
	writeJSON(w, http.StatusOK, map[string][]string{"simulations": ids})
}

// POST /sims
// Body: { "id": "...", "config": { ... }, "populate": true }
// Missing config keys keep their defaults.
type createSimulationRequest struct {
	ID       string          `json:"id"`
	Config   json.RawMessage `json:"config"`
	Populate bool            `json:"populate"`
}

func (s *Server) handleCreateSimulation(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req createSimulationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}

	cfg := atomsim.DefaultConfig()
	if len(req.Config) > 0 {
		parsed, err := atomsim.ParseConfig(req.Config, true)
		if err != nil {
			http.Error(w, "invalid config: "+err.Error(), http.StatusBadRequest)
			return
		}
		cfg = parsed
	}

	sim, err := s.createSimulation(atomsim.SimulationID(req.ID), cfg)
	if err != nil {
		var verr *atomsim.ValidationError
		if errors.As(err, &verr) {
			writeError(w, err)
			return
		}
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	populated := 0
	if req.Populate {
		if populated, err = sim.Populate(); err != nil {
			_ = s.manager.DeleteSimulation(sim.ID())
			writeError(w, err)
			return
		}
	}

	writeJSON(w, http.StatusCreated, map[string]any{"id": sim.ID(), "particles": populated})
}

// POST /sims/restore
// Body: State JSON as returned by GET /sim/{simID}/state
func (s *Server) handleRestoreSimulation(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var st atomsim.State
	if err := json.NewDecoder(r.Body).Decode(&st); err != nil {
		http.Error(w, "invalid state json: "+err.Error(), http.StatusBadRequest)
		return
	}
	sim, err := atomsim.RestoreSimulator(st)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.manager.Add(sim); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	s.attach(sim)
	s.logger.Infof("Simulation restored: sim_id=%s step=%d particles=%d", sim.ID(), st.Step, len(st.Particles))

	writeJSON(w, http.StatusCreated, map[string]any{"id": sim.ID(), "particles": len(st.Particles)})
}

// handleSimulationRoutes routes /sim/{simID}/... requests.
func (s *Server) handleSimulationRoutes(w http.ResponseWriter, r *http.Request) {
	simID, rest := extractSimID(r.URL.Path)
	if simID == "" {
		http.Error(w, "simulation ID is required in path: /sim/{simID}/...", http.StatusBadRequest)
		return
	}

	switch {
	case rest == "" && r.Method == http.MethodDelete:
		s.handleDeleteSimulation(w, r)
	case rest == "/config" && r.Method == http.MethodGet:
		s.handleGetConfig(w, r)
	case rest == "/step" && r.Method == http.MethodPost:
		s.handleStep(w, r)
	case rest == "/start" && r.Method == http.MethodPost:
		s.handleStart(w, r)
	case rest == "/stop" && r.Method == http.MethodPost:
		s.handleStop(w, r)
	case rest == "/particles" && r.Method == http.MethodGet:
		s.handleListParticles(w, r)
	case rest == "/particles" && r.Method == http.MethodPost:
		s.handleAddParticles(w, r)
	case strings.HasPrefix(rest, "/particle/"):
		s.handleParticleRoutes(w, r, strings.TrimPrefix(rest, "/particle/"))
	case rest == "/render" && r.Method == http.MethodGet:
		s.handleRender(w, r)
	case rest == "/frame" && r.Method == http.MethodGet:
		s.handleFrame(w, r)
	case rest == "/stream" && r.Method == http.MethodGet:
		s.handleStream(w, r)
	case rest == "/statistics" && r.Method == http.MethodGet:
		s.handleStatistics(w, r)
	case rest == "/state" && r.Method == http.MethodGet:
		s.handleGetState(w, r)
	case rest == "/neighbor-radius" && r.Method == http.MethodPut:
		s.handleSetNeighborRadius(w, r)
	case rest == "/snapshot" && r.Method == http.MethodPost:
		s.handleSaveSnapshot(w, r)
	case rest == "/snapshot" && r.Method == http.MethodGet:
		s.handleGetSnapshot(w, r)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

// DELETE /sim/{simID}
func (s *Server) handleDeleteSimulation(w http.ResponseWriter, r *http.Request) {
	simID, _ := extractSimID(r.URL.Path)
	if err := s.manager.DeleteSimulation(simID); err != nil {
		s.logger.Warnf("Failed to delete simulation: sim_id=%s error=%v", simID, err)
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	s.logger.Infof("Simulation deleted: sim_id=%s", simID)

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("simulation deleted"))
}

// GET /sim/{simID}/config
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	sim, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sim.Config())
}

// POST /sim/{simID}/step
// Query params: steps (default 1), dt (default: configured time_step)
func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	sim, ok := s.lookup(w, r)
	if !ok {
		return
	}

	steps := 1
	if v := r.URL.Query().Get("steps"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "invalid steps: must be a positive integer", http.StatusBadRequest)
			return
		}
		steps = n
	}
	dt := sim.Config().TimeStep
	if v := r.URL.Query().Get("dt"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			http.Error(w, "invalid dt: must be a positive number", http.StatusBadRequest)
			return
		}
		dt = f
	}

	for i := 0; i < steps; i++ {
		sim.Step(dt)
	}
	s.logger.Debugf("Stepped: sim_id=%s steps=%d dt=%g", sim.ID(), steps, dt)

	writeJSON(w, http.StatusOK, map[string]any{"steps": sim.Steps(), "time": sim.Time()})
}

// POST /sim/{simID}/start
// Query param: interval in milliseconds (default: 16)
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	sim, ok := s.lookup(w, r)
	if !ok {
		return
	}

	interval := 16 * time.Millisecond
	if v := r.URL.Query().Get("interval"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms <= 0 {
			http.Error(w, "invalid interval: must be a positive integer (milliseconds)", http.StatusBadRequest)
			return
		}
		interval = time.Duration(ms) * time.Millisecond
	}

	sim.Run(interval)
	s.logger.Infof("Simulation started: sim_id=%s interval=%v", sim.ID(), interval)

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("simulation started"))
}

// POST /sim/{simID}/stop
func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	sim, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sim.Stop()
	s.logger.Infof("Simulation stopped: sim_id=%s", sim.ID())

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("simulation stopped"))
}

// GET /sim/{simID}/particles
func (s *Server) handleListParticles(w http.ResponseWriter, r *http.Request) {
	sim, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sim.Particles())
}

// POST /sim/{simID}/particles
// Body: { "particles": [ { "element": "hydrogen", "x": 1, "y": 2 }, ... ] }
// Entries without an element are custom particles and need a composition;
// they may carry a hex color. The whole batch is inserted or nothing is.
type particleSpec struct {
	Element     string               `json:"element"`
	X           float64              `json:"x"`
	Y           float64              `json:"y"`
	Color       string               `json:"color"`
	Composition *atomsim.Composition `json:"composition"`
}

type addParticlesRequest struct {
	Particles []particleSpec `json:"particles"`
}

func (s *Server) handleAddParticles(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	sim, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var req addParticlesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}

	var (
		elemPos    []r2.Vec
		kinds      []atomsim.ElementKind
		customPos  []r2.Vec
		colors     []colorful.Color
		comps      []atomsim.Composition
		elemIndex  []int
		customIdx  []int
		validation = &atomsim.ValidationError{}
	)
	for i, p := range req.Particles {
		pos := r2.Vec{X: p.X, Y: p.Y}
		if p.Element != "" && !strings.EqualFold(p.Element, "custom") {
			kind, err := atomsim.ParseElementKind(p.Element)
			if err != nil {
				validation.Addf("particle %d: %v", i, err)
				continue
			}
			elemPos = append(elemPos, pos)
			kinds = append(kinds, kind)
			elemIndex = append(elemIndex, i)
			continue
		}
		if p.Composition == nil {
			validation.Addf("particle %d: custom particles need a composition", i)
			continue
		}
		color := atomsim.Custom.Lookup().Color
		if p.Color != "" {
			c, err := colorful.Hex(p.Color)
			if err != nil {
				validation.Addf("particle %d: invalid color %q", i, p.Color)
				continue
			}
			color = c
		}
		customPos = append(customPos, pos)
		colors = append(colors, color)
		comps = append(comps, *p.Composition)
		customIdx = append(customIdx, i)
	}
	if validation.HasIssues() {
		writeError(w, validation)
		return
	}

	ids := make([]atomsim.ParticleID, len(req.Particles))
	if len(elemPos) > 0 {
		added, err := sim.AddParticles(elemPos, kinds)
		if err != nil {
			writeError(w, err)
			return
		}
		for j, id := range added {
			ids[elemIndex[j]] = id
		}
	}
	if len(customPos) > 0 {
		added, err := sim.AddCustomParticles(customPos, colors, comps)
		if err != nil {
			for j := range elemIndex {
				_, _ = sim.Remove(ids[elemIndex[j]])
			}
			writeError(w, err)
			return
		}
		for j, id := range added {
			ids[customIdx[j]] = id
		}
	}

	s.logger.Debugf("Particles added: sim_id=%s count=%d", sim.ID(), len(ids))
	writeJSON(w, http.StatusCreated, map[string]any{"ids": ids})
}

// /sim/{simID}/particle/{pid}[/electron]
func (s *Server) handleParticleRoutes(w http.ResponseWriter, r *http.Request, rest string) {
	sim, ok := s.lookup(w, r)
	if !ok {
		return
	}

	idPart, action, _ := strings.Cut(rest, "/")
	raw, err := strconv.ParseUint(idPart, 10, 64)
	if err != nil {
		http.Error(w, "invalid particle id: "+idPart, http.StatusBadRequest)
		return
	}
	pid := atomsim.ParticleID(raw)

	switch {
	case action == "" && r.Method == http.MethodGet:
		p, err := sim.Get(pid)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	case action == "" && r.Method == http.MethodDelete:
		p, err := sim.Remove(pid)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	case action == "electron" && (r.Method == http.MethodPost || r.Method == http.MethodDelete):
		if r.Method == http.MethodPost {
			err = sim.AddElectron(pid)
		} else {
			err = sim.RemoveElectron(pid)
		}
		if err != nil {
			writeError(w, err)
			return
		}
		p, err := sim.Get(pid)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

// GET /sim/{simID}/render
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	sim, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sim.Snapshot())
}

// GET /sim/{simID}/frame
// Returns the render snapshot as a single binary frame.
func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	sim, ok := s.lookup(w, r)
	if !ok {
		return
	}
	frame, err := sim.RenderFrame()
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(frame)
}

// GET /sim/{simID}/stream
// Upgrades to a websocket and pushes a binary frame every stream interval
// whenever the simulation has advanced.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	sim, ok := s.lookup(w, r)
	if !ok {
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnf("Stream upgrade failed: sim_id=%s error=%v", sim.ID(), err)
		return
	}
	defer conn.Close()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.streamInterval)
	defer ticker.Stop()

	lastStep := int64(-1)
	for {
		select {
		case <-closed:
			return
		case <-ticker.C:
			step := sim.Steps()
			if step == lastStep {
				continue
			}
			frame, err := sim.RenderFrame()
			if err != nil {
				s.logger.Errorf("Frame encoding failed: sim_id=%s error=%v", sim.ID(), err)
				return
			}
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				return
			}
			lastStep = step
		}
	}
}

// GET /sim/{simID}/statistics
func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	sim, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sim.Statistics())
}

// GET /sim/{simID}/state
func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	sim, ok := s.lookup(w, r)
	if !ok {
		return
	}
	data, err := atomsim.EncodeStateJSON(sim.State())
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// PUT /sim/{simID}/neighbor-radius
// Body: { "radius": 4.0 }
func (s *Server) handleSetNeighborRadius(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	sim, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req struct {
		Radius float64 `json:"radius"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := sim.SetNeighborRadius(req.Radius); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"radius": req.Radius})
}

// POST /sim/{simID}/snapshot
// Writes the state file synchronously.
func (s *Server) handleSaveSnapshot(w http.ResponseWriter, r *http.Request) {
	sim, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if s.snapshotDir == "" {
		http.Error(w, "snapshot directory not configured", http.StatusInternalServerError)
		return
	}

	path, err := sim.SaveState(s.snapshotDir)
	if err != nil {
		s.logger.Errorf("Failed to save snapshot: sim_id=%s error=%v", sim.ID(), err)
		http.Error(w, "failed to save snapshot: "+err.Error(), http.StatusInternalServerError)
		return
	}
	s.logger.Debugf("Snapshot saved: sim_id=%s path=%s", sim.ID(), path)

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "path": path})
}

// GET /sim/{simID}/snapshot
// Returns the last saved state file as is.
func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	sim, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if s.snapshotDir == "" {
		http.Error(w, "snapshot directory not configured", http.StatusInternalServerError)
		return
	}

	data, err := os.ReadFile(atomsim.StatePath(s.snapshotDir, sim.ID()))
	if err != nil {
		if os.IsNotExist(err) {
			http.Error(w, "snapshot not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to read snapshot: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleNotifiersRoutes(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/notifiers" && r.Method == http.MethodGet:
		s.handleListNotifiers(w, r)
	case r.URL.Path == "/notifiers" && r.Method == http.MethodPost:
		s.handleRegisterNotifier(w, r)
	case strings.HasPrefix(r.URL.Path, "/notifiers/") && r.Method == http.MethodDelete:
		s.handleUnregisterNotifier(w, r)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

// GET /notifiers
func (s *Server) handleListNotifiers(w http.ResponseWriter, _ *http.Request) {
	ids := s.notifications.ListNotifiers()
	list := make([]map[string]string, 0, len(ids))
	for _, id := range ids {
		if n, exists := s.notifications.GetNotifier(id); exists {
			list = append(list, map[string]string{"id": id, "type": n.Type()})
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifiers": list})
}

// POST /notifiers
// Body: { "type": "webhook", "id": "my-webhook", "config": { "url": "http://...", "headers": {...}, "reactions": ["fusion"] } }
type registerNotifierRequest struct {
	Type   string         `json:"type"`
	ID     string         `json:"id"`
	Config map[string]any `json:"config"`
}

func (s *Server) handleRegisterNotifier(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req registerNotifierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		http.Error(w, "notifier ID is required", http.StatusBadRequest)
		return
	}

	var notifier atomsim.Notifier
	switch req.Type {
	case "webhook":
		url, ok := req.Config["url"].(string)
		if !ok || url == "" {
			http.Error(w, "webhook URL is required", http.StatusBadRequest)
			return
		}
		wh := notifiers.NewWebhookNotifier(req.ID, url)
		if headers, ok := req.Config["headers"].(map[string]any); ok {
			for k, v := range headers {
				if vStr, ok := v.(string); ok {
					wh.SetHeader(k, vStr)
				}
			}
		}
		if raw, ok := req.Config["reactions"]; ok {
			list, ok := raw.([]any)
			if !ok {
				http.Error(w, "reactions must be a list of rule IDs", http.StatusBadRequest)
				return
			}
			ruleIDs := make([]string, 0, len(list))
			for _, v := range list {
				id, ok := v.(string)
				if !ok || id == "" {
					http.Error(w, "reactions must be a list of rule IDs", http.StatusBadRequest)
					return
				}
				ruleIDs = append(ruleIDs, id)
			}
			wh.FilterReactions(ruleIDs...)
		}
		notifier = wh
	default:
		http.Error(w, "unknown notifier type: "+req.Type, http.StatusBadRequest)
		return
	}

	if err := s.notifications.RegisterNotifier(notifier); err != nil {
		http.Error(w, "cannot register notifier: "+err.Error(), http.StatusBadRequest)
		return
	}
	s.logger.Infof("Notifier registered: id=%s type=%s", req.ID, req.Type)

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("notifier registered"))
}

// DELETE /notifiers/{id}
func (s *Server) handleUnregisterNotifier(w http.ResponseWriter, r *http.Request) {
	notifierID := strings.TrimPrefix(r.URL.Path, "/notifiers/")
	if notifierID == "" {
		http.Error(w, "notifier ID is required", http.StatusBadRequest)
		return
	}
	if notifierID == eventsNotifierID {
		http.Error(w, "the events notifier cannot be removed", http.StatusBadRequest)
		return
	}
	if err := s.notifications.UnregisterNotifier(notifierID); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("notifier unregistered"))
}
