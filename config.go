package fldash

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml"
)

const DefConfigPath = "fldash.toml"

type Config struct {
	Coordinator CoordinatorConfig `toml:"coordinator"`
	Monitor     MonitorConfig     `toml:"monitor"`
	MQTT        MQTTConfig        `toml:"mqtt"`
	Simulator   SimulatorConfig   `toml:"simulator"`
}

type CoordinatorConfig struct {
	URL                string `toml:"url"`
	Timeout            string `toml:"timeout"`
	InsecureSkipVerify bool   `toml:"insecure_skip_verify"`
}

type MonitorConfig struct {
	RefreshInterval string `toml:"refresh_interval"`
	HistoryInterval string `toml:"history_interval"`
}

type MQTTConfig struct {
	Address  string `toml:"address"`
	Topic    string `toml:"topic"`
	QoS      uint8  `toml:"qos"`
	Timeout  string `toml:"timeout"`
	Username string `toml:"username"`
	Password string `toml:"password"`
}

type SimulatorConfig struct {
	Workers      string  `toml:"workers"`
	ExtraWorkers int     `toml:"extra_workers"`
	Rounds       int     `toml:"rounds"`
	StepDelay    string  `toml:"step_delay"`
	Decay        float64 `toml:"decay"`
	InitialLoss  float64 `toml:"initial_loss"`
	Seed         uint64  `toml:"seed"`
}

func DefaultConfig() Config {
	return Config{
		Coordinator: CoordinatorConfig{
			URL:     "http://localhost:3000",
			Timeout: "0s",
		},
		Monitor: MonitorConfig{
			RefreshInterval: "2s",
			HistoryInterval: "2s",
		},
		MQTT: MQTTConfig{
			Topic:   "fl/dashboard/report",
			QoS:     1,
			Timeout: "30s",
		},
		Simulator: SimulatorConfig{
			Workers:     "worker1:100,worker2:150,worker3:120",
			Rounds:      10,
			StepDelay:   "1s",
			Decay:       0.8,
			InitialLoss: 10.0,
		},
	}
}

// LoadConfig reads a TOML file. Keys missing from the file keep their
// default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	tree, err := toml.Load(string(data))
	if err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	var cfg Config
	if err := tree.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.fill(tree, DefaultConfig())

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) fill(tree *toml.Tree, def Config) {
	set := func(key string, dst *string, v string) {
		if !tree.Has(key) {
			*dst = v
		}
	}
	set("coordinator.url", &c.Coordinator.URL, def.Coordinator.URL)
	set("coordinator.timeout", &c.Coordinator.Timeout, def.Coordinator.Timeout)
	set("monitor.refresh_interval", &c.Monitor.RefreshInterval, def.Monitor.RefreshInterval)
	set("monitor.history_interval", &c.Monitor.HistoryInterval, def.Monitor.HistoryInterval)
	set("mqtt.topic", &c.MQTT.Topic, def.MQTT.Topic)
	set("mqtt.timeout", &c.MQTT.Timeout, def.MQTT.Timeout)
	set("simulator.workers", &c.Simulator.Workers, def.Simulator.Workers)
	set("simulator.step_delay", &c.Simulator.StepDelay, def.Simulator.StepDelay)

	if !tree.Has("mqtt.qos") {
		c.MQTT.QoS = def.MQTT.QoS
	}
	if !tree.Has("simulator.rounds") {
		c.Simulator.Rounds = def.Simulator.Rounds
	}
	if !tree.Has("simulator.decay") {
		c.Simulator.Decay = def.Simulator.Decay
	}
	if !tree.Has("simulator.initial_loss") {
		c.Simulator.InitialLoss = def.Simulator.InitialLoss
	}
}

func (c Config) Validate() error {
	for key, v := range map[string]string{
		"coordinator.timeout":      c.Coordinator.Timeout,
		"monitor.refresh_interval": c.Monitor.RefreshInterval,
		"monitor.history_interval": c.Monitor.HistoryInterval,
		"mqtt.timeout":             c.MQTT.Timeout,
		"simulator.step_delay":     c.Simulator.StepDelay,
	} {
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
	}
	if c.MQTT.QoS > 2 {
		return fmt.Errorf("invalid mqtt.qos: %d", c.MQTT.QoS)
	}

	return nil
}

// Duration parses a value already checked by Validate.
func Duration(s string) time.Duration {
	d, _ := time.ParseDuration(s)

	return d
}
