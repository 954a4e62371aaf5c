package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Control   ControlConfig   `yaml:"control"`
	Motors    MotorsConfig    `yaml:"motors"`
	Governor  GovernorConfig  `yaml:"governor"`
	Safety    SafetyConfig    `yaml:"safety"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Web       WebConfig       `yaml:"web"`
	Sim       SimConfig       `yaml:"sim"`
}

type ControlConfig struct {
	LoopPeriod time.Duration `yaml:"loop_period"`

	OuterRoll  PIDConfig `yaml:"outer_roll"`
	OuterPitch PIDConfig `yaml:"outer_pitch"`
	OuterYaw   PIDConfig `yaml:"outer_yaw"`
	InnerRoll  PIDConfig `yaml:"inner_roll"`
	InnerPitch PIDConfig `yaml:"inner_pitch"`
	InnerYaw   PIDConfig `yaml:"inner_yaw"`
}

type PIDConfig struct {
	P float64 `yaml:"p"`
	I float64 `yaml:"i"`
	D float64 `yaml:"d"`
	// FilterTau is the derivative low-pass time constant in seconds;
	// 0 disables the filter.
	FilterTau float64 `yaml:"filter_tau"`
}

type MotorsConfig struct {
	// Backend selects the ESC driver: "serial" or "none".
	Backend string `yaml:"backend"`
	// Device is the serial device path for the serial backend.
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`
	// EnablePin is an optional BCM GPIO line gating ESC power; 0 leaves
	// the rail unmanaged.
	EnablePin int `yaml:"enable_pin"`

	Reverse  [4]bool `yaml:"reverse"`
	SpeedMin int16   `yaml:"speed_min"`
	SpeedMax int16   `yaml:"speed_max"`
}

type GovernorConfig struct {
	// Timeout disarms the motors when no speed or blocker update arrives
	// while armed.
	Timeout time.Duration `yaml:"timeout"`
}

type SafetyConfig struct {
	// BootGrace blocks arming for this long after process start.
	BootGrace time.Duration `yaml:"boot_grace"`
}

type TelemetryConfig struct {
	MQTT MQTTConfig `yaml:"mqtt"`
	UDP  UDPConfig  `yaml:"udp"`
}

type MQTTConfig struct {
	Enable      bool   `yaml:"enable"`
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix"`
}

type UDPConfig struct {
	Enable   bool          `yaml:"enable"`
	Dest     string        `yaml:"dest"`
	Interval time.Duration `yaml:"interval"`
}

type WebConfig struct {
	Enable bool   `yaml:"enable"`
	Addr   string `yaml:"addr"`
}

type SimConfig struct {
	Enable bool `yaml:"enable"`
	// HoverThrottle is the base speed the mixer adds the actuation onto.
	HoverThrottle int16 `yaml:"hover_throttle"`
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}
	return withDefaults(cfg)
}

func withDefaults(cfg Config) (Config, error) {
	if cfg.Control.LoopPeriod <= 0 {
		cfg.Control.LoopPeriod = 5 * time.Millisecond
	}

	if cfg.Motors.Backend == "" {
		cfg.Motors.Backend = "none"
	}
	switch cfg.Motors.Backend {
	case "serial":
		if cfg.Motors.Device == "" {
			return Config{}, fmt.Errorf("motors.device is required for the serial backend")
		}
		if cfg.Motors.Baud == 0 {
			cfg.Motors.Baud = 115200
		}
	case "none":
	default:
		return Config{}, fmt.Errorf("motors.backend must be one of serial, none")
	}
	if cfg.Motors.EnablePin < 0 {
		return Config{}, fmt.Errorf("motors.enable_pin must be >= 0")
	}
	if cfg.Motors.SpeedMax == 0 {
		cfg.Motors.SpeedMax = 2047
	}
	if cfg.Motors.SpeedMin < 0 {
		return Config{}, fmt.Errorf("motors.speed_min must be >= 0")
	}
	if cfg.Motors.SpeedMin >= cfg.Motors.SpeedMax {
		return Config{}, fmt.Errorf("motors.speed_min must be < motors.speed_max")
	}

	if cfg.Governor.Timeout == 0 {
		cfg.Governor.Timeout = 500 * time.Millisecond
	}
	if cfg.Governor.Timeout < 0 {
		return Config{}, fmt.Errorf("governor.timeout must be > 0")
	}

	if cfg.Safety.BootGrace == 0 {
		cfg.Safety.BootGrace = 3 * time.Second
	}

	if cfg.Telemetry.MQTT.Enable {
		if cfg.Telemetry.MQTT.Broker == "" {
			return Config{}, fmt.Errorf("telemetry.mqtt.broker is required when telemetry.mqtt.enable is true")
		}
		if cfg.Telemetry.MQTT.ClientID == "" {
			cfg.Telemetry.MQTT.ClientID = "quadfc"
		}
		if cfg.Telemetry.MQTT.TopicPrefix == "" {
			cfg.Telemetry.MQTT.TopicPrefix = "quadfc"
		}
	}

	if cfg.Telemetry.UDP.Enable {
		if cfg.Telemetry.UDP.Dest == "" {
			return Config{}, fmt.Errorf("telemetry.udp.dest is required when telemetry.udp.enable is true")
		}
		if cfg.Telemetry.UDP.Interval <= 0 {
			cfg.Telemetry.UDP.Interval = 1 * time.Second
		}
	}

	if cfg.Web.Enable && cfg.Web.Addr == "" {
		cfg.Web.Addr = ":8080"
	}

	if cfg.Sim.Enable && cfg.Sim.HoverThrottle == 0 {
		cfg.Sim.HoverThrottle = 900
	}

	return cfg, nil
}
