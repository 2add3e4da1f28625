package config

import (
	"io/ioutil"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/tassalor1/vtol/internal/heartbeat"
	"github.com/tassalor1/vtol/internal/link"
	"github.com/tassalor1/vtol/internal/setpoint"
	"github.com/tassalor1/vtol/internal/station"
	"github.com/tassalor1/vtol/internal/types"
)

type Config struct {
	Link     string         `yaml:"link"`
	Station  types.Identity `yaml:"station"`
	Target   types.Identity `yaml:"target"`
	Beacon   Beacon         `yaml:"beacon"`
	Setpoint Setpoint       `yaml:"setpoint"`
	MQTT     MQTT           `yaml:"mqtt"`
}

type Beacon struct {
	Period time.Duration `yaml:"period"`
}

type Setpoint struct {
	Period   time.Duration     `yaml:"period"`
	Idle     time.Duration     `yaml:"idle"`
	Position setpoint.Position `yaml:"position"`
}

// MQTT configures the optional telemetry uplink. An empty broker disables it.
type MQTT struct {
	Broker   string `yaml:"broker"`
	DeviceID string `yaml:"device_id"`
}

func Default() Config {
	return Config{
		Link:    link.DefaultURL,
		Station: station.DefaultID,
		Target:  station.DefaultTarget,
		Beacon:  Beacon{Period: heartbeat.DefaultPeriod},
		Setpoint: Setpoint{
			Period:   setpoint.DefaultPeriod,
			Idle:     setpoint.DefaultIdle,
			Position: setpoint.Hover,
		},
	}
}

// Load reads a YAML file over the defaults. Keys missing from the file keep
// their default value.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := ioutil.ReadFile(path)
	if err != nil {
		return cfg, errors.WithMessage(err, "Could not read config")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.WithMessagef(err, "Could not parse config %s", path)
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if _, err := link.ParseURL(c.Link); err != nil {
		return err
	}
	if c.Beacon.Period <= 0 {
		return errors.Errorf("beacon period must be positive, got %v", c.Beacon.Period)
	}
	if c.Setpoint.Period <= 0 {
		return errors.Errorf("setpoint period must be positive, got %v", c.Setpoint.Period)
	}
	if c.Setpoint.Idle < 0 || c.Setpoint.Idle >= c.Setpoint.Period {
		return errors.Errorf("setpoint idle must be in [0, %v), got %v", c.Setpoint.Period, c.Setpoint.Idle)
	}
	if c.MQTT.Broker != "" && c.MQTT.DeviceID == "" {
		return errors.New("mqtt device_id is required when a broker is set")
	}
	return nil
}
