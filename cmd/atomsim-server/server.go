package main

import (
	"net/http"
	"time"

	"github.com/daniacca/atomsim/internal/atomsim"
	"github.com/daniacca/atomsim/internal/atomsim/notifiers"
	"github.com/gorilla/websocket"
)

// eventsNotifierID is the built-in websocket notifier served at /events.
const eventsNotifierID = "events"

// Server is the HTTP front of a set of named simulations.
type Server struct {
	manager            *atomsim.SimulationManager
	notifications      *atomsim.NotificationManager
	events             *notifiers.WebSocketNotifier
	upgrader           websocket.Upgrader
	snapshotDir        string
	snapshotEverySteps int
	streamInterval     time.Duration
	logger             *Logger
}

func NewServer(logger *Logger) *Server {
	mgr := atomsim.NewNotificationManager()
	mgr.SetLogger(logger)
	events := notifiers.NewWebSocketNotifier(eventsNotifierID)
	if err := mgr.RegisterNotifier(events); err != nil {
		logger.Errorf("Failed to register events notifier: %v", err)
	}
	return &Server{
		manager:        atomsim.NewSimulationManager(),
		notifications:  mgr,
		events:         events,
		streamInterval: 33 * time.Millisecond,
		logger:         logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (s *Server) SetSnapshotDir(dir string) {
	s.snapshotDir = dir
}

func (s *Server) SetSnapshotEverySteps(steps int) {
	s.snapshotEverySteps = steps
}

func (s *Server) SetStreamInterval(d time.Duration) {
	if d > 0 {
		s.streamInterval = d
	}
}

// attach wires a simulator into the server's logging, notifications and
// snapshot settings.
func (s *Server) attach(sim *atomsim.Simulator) {
	sim.SetLogger(s.logger)
	sim.SetNotificationManager(s.notifications)
	if s.snapshotDir != "" {
		sim.SetSnapshotDir(s.snapshotDir)
	}
	if s.snapshotEverySteps >= 0 {
		sim.SetSnapshotEverySteps(s.snapshotEverySteps)
	}
}

func (s *Server) createSimulation(id atomsim.SimulationID, cfg atomsim.Config) (*atomsim.Simulator, error) {
	sim, err := s.manager.CreateSimulation(id, cfg)
	if err != nil {
		return nil, err
	}
	s.attach(sim)
	s.logger.Infof("Simulation created: sim_id=%s size=%gx%g seed=%d", sim.ID(), cfg.Width, cfg.Height, cfg.Seed)
	return sim, nil
}

// Routes returns the server's handler.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/sims", s.handleSimulationsRoutes)
	mux.HandleFunc("/sims/", s.handleSimulationsRoutes)
	mux.HandleFunc("/sim/", s.handleSimulationRoutes)
	mux.HandleFunc("/notifiers", s.handleNotifiersRoutes)
	mux.HandleFunc("/notifiers/", s.handleNotifiersRoutes)
	mux.Handle("/events", s.events)
	return mux
}

// Close stops every simulation and flushes pending notifications.
func (s *Server) Close() error {
	s.manager.StopAll()
	return s.notifications.Close()
}
