package main

import (
	"flag"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/daniacca/atomsim/internal/atomsim"
)

// ServerConfig holds the server configuration
type ServerConfig struct {
	Addr               string
	DefaultSimID       string
	ConfigFile         string
	Populate           bool
	SnapshotDir        string
	SnapshotEverySteps int
	StreamInterval     time.Duration
	LogLevel           string
}

// configResolver defines how to resolve a single configuration value
type configResolver struct {
	flagName    string
	envVarName  string
	defaultVal  string
	description string
	setter      func(*ServerConfig, string)
}

func serverResolvers() []configResolver {
	return []configResolver{
		{
			flagName:    "addr",
			envVarName:  "ATOMSIM_ADDR",
			defaultVal:  ":8080",
			description: "HTTP listen address (e.g. :8080, 0.0.0.0:8080)",
			setter:      func(c *ServerConfig, v string) { c.Addr = v },
		},
		{
			flagName:    "sim-id",
			envVarName:  "ATOMSIM_SIM_ID",
			defaultVal:  "default",
			description: "ID of the simulation created at startup from -config-file",
			setter:      func(c *ServerConfig, v string) { c.DefaultSimID = v },
		},
		{
			flagName:    "config-file",
			envVarName:  "ATOMSIM_CONFIG_FILE",
			defaultVal:  "",
			description: "optional YAML or JSON simulation config to create the default simulation from",
			setter:      func(c *ServerConfig, v string) { c.ConfigFile = v },
		},
		{
			flagName:    "populate",
			envVarName:  "ATOMSIM_POPULATE",
			defaultVal:  "true",
			description: "seed the default simulation with random atoms",
			setter: func(c *ServerConfig, v string) {
				b, err := strconv.ParseBool(v)
				if err != nil {
					log.Printf("Invalid value for populate: %s, using default true", v)
					b = true
				}
				c.Populate = b
			},
		},
		{
			flagName:    "snapshot-dir",
			envVarName:  "ATOMSIM_SNAPSHOT_DIR",
			defaultVal:  "./data",
			description: "Directory where simulation state snapshots are stored",
			setter:      func(c *ServerConfig, v string) { c.SnapshotDir = v },
		},
		{
			flagName:    "snapshot-every-steps",
			envVarName:  "ATOMSIM_SNAPSHOT_EVERY_STEPS",
			defaultVal:  "1000",
			description: "How often to write state snapshots (in steps); 0 disables periodic snapshots",
			setter: func(c *ServerConfig, v string) {
				val, err := strconv.Atoi(v)
				if err != nil || val < 0 {
					log.Printf("Invalid value for snapshot-every-steps: %s, using default 1000", v)
					val = 1000
				}
				c.SnapshotEverySteps = val
			},
		},
		{
			flagName:    "stream-interval",
			envVarName:  "ATOMSIM_STREAM_INTERVAL",
			defaultVal:  "33ms",
			description: "Interval between render frames pushed to /sim/{id}/stream clients",
			setter: func(c *ServerConfig, v string) {
				d, err := time.ParseDuration(v)
				if err != nil || d <= 0 {
					log.Printf("Invalid value for stream-interval: %s, using default 33ms", v)
					d = 33 * time.Millisecond
				}
				c.StreamInterval = d
			},
		},
		{
			flagName:    "log-level",
			envVarName:  "ATOMSIM_LOG_LEVEL",
			defaultVal:  "info",
			description: "Log level: debug, info, warn, error",
			setter:      func(c *ServerConfig, v string) { c.LogLevel = v },
		},
	}
}

// loadServerConfig resolves every option from, in order of precedence, the
// command line, the environment and the built-in default.
func loadServerConfig(fs *flag.FlagSet, args []string) (ServerConfig, error) {
	cfg := ServerConfig{}
	resolvers := serverResolvers()

	flagVars := make(map[string]*string, len(resolvers))
	for _, resolver := range resolvers {
		flagVars[resolver.flagName] = fs.String(resolver.flagName, "", resolver.description)
	}
	if err := fs.Parse(args); err != nil {
		return ServerConfig{}, err
	}

	for _, resolver := range resolvers {
		var value string
		if *flagVars[resolver.flagName] != "" {
			value = *flagVars[resolver.flagName]
		} else if envValue := os.Getenv(resolver.envVarName); envValue != "" {
			value = envValue
		} else {
			value = resolver.defaultVal
		}
		resolver.setter(&cfg, value)
	}
	return cfg, nil
}

// createDefaultSimulation builds the startup simulation from the config
// file (or the stock defaults when none is given) and registers it.
func createDefaultSimulation(srv *Server, cfg ServerConfig) (*atomsim.Simulator, error) {
	simCfg := atomsim.DefaultConfig()
	if cfg.ConfigFile != "" {
		loaded, err := atomsim.LoadConfig(cfg.ConfigFile)
		if err != nil {
			return nil, err
		}
		simCfg = loaded
	}

	sim, err := srv.createSimulation(atomsim.SimulationID(cfg.DefaultSimID), simCfg)
	if err != nil {
		return nil, err
	}
	if cfg.Populate {
		if _, err := sim.Populate(); err != nil {
			return nil, err
		}
	}
	return sim, nil
}
