// Package config loads marker-interlock settings from the environment and
// the command line. Flags override environment variables, which override
// the built-in defaults.
package config

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sweeney/marker-interlock/internal/logic"
)

// Config holds every runtime setting.
type Config struct {
	// Interlock
	Target   string        `env:"INTERLOCK_TARGET"`
	Markers  string        `env:"INTERLOCK_MARKERS"  envDefault:"0-3"`
	Cooldown time.Duration `env:"INTERLOCK_COOLDOWN" envDefault:"2s"`

	// Command channel
	SerialPort string        `env:"INTERLOCK_SERIAL_PORT" envDefault:"/dev/ttyACM0"`
	Baud       int           `env:"INTERLOCK_BAUD"        envDefault:"9600"`
	Settle     time.Duration `env:"INTERLOCK_SETTLE"      envDefault:"2s"`

	// Camera and detection
	Camera       int    `env:"INTERLOCK_CAMERA"        envDefault:"0"`
	FrameWidth   int    `env:"INTERLOCK_FRAME_WIDTH"   envDefault:"0"`
	FrameHeight  int    `env:"INTERLOCK_FRAME_HEIGHT"  envDefault:"0"`
	Dictionary   string `env:"INTERLOCK_DICTIONARY"    envDefault:"4x4_250"`
	FrameRetries int    `env:"INTERLOCK_FRAME_RETRIES" envDefault:"0"`

	// Operator stop button; a negative pin disables it.
	GPIOChip string `env:"INTERLOCK_GPIO_CHIP" envDefault:"gpiochip0"`
	StopPin  int    `env:"INTERLOCK_STOP_PIN"  envDefault:"-1"`

	// Observability
	Broker    string        `env:"INTERLOCK_MQTT_BROKER"`
	Heartbeat time.Duration `env:"INTERLOCK_HEARTBEAT" envDefault:"15m"`
	HTTPAddr  string        `env:"INTERLOCK_HTTP"      envDefault:":8080"`
	LogLevel  string        `env:"LOG_LEVEL"           envDefault:"info"`
	LogFormat string        `env:"LOG_FORMAT"          envDefault:"console"`

	// Probe opens the camera, prints one detection and exits. Flag only.
	Probe bool
}

// Load reads the environment into a Config with defaults applied.
func Load() (Config, error) {
	return LoadFrom(nil)
}

// LoadFrom is Load with an explicit environment; nil means the process
// environment.
func LoadFrom(environ map[string]string) (Config, error) {
	var cfg Config
	opts := env.Options{}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// BindFlags registers a flag for every setting, defaulting to the values
// already in c.
func (c *Config) BindFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Target, "target", c.Target, "Target ArUco marker id whose presence stops the robot (prompted if empty)")
	fs.StringVar(&c.Markers, "markers", c.Markers, `Valid target marker ids, e.g. "0-3" or "0,2,5"`)
	fs.DurationVar(&c.Cooldown, "cooldown", c.Cooldown, "Minimum spacing between commands")

	fs.StringVar(&c.SerialPort, "port", c.SerialPort, "Serial port of the controller")
	fs.IntVar(&c.Baud, "baud", c.Baud, "Serial baud rate")
	fs.DurationVar(&c.Settle, "settle", c.Settle, "Wait after opening the serial port for the controller to reset")

	fs.IntVar(&c.Camera, "camera", c.Camera, "Camera device index")
	fs.IntVar(&c.FrameWidth, "width", c.FrameWidth, "Requested frame width (0 = camera default)")
	fs.IntVar(&c.FrameHeight, "height", c.FrameHeight, "Requested frame height (0 = camera default)")
	fs.StringVar(&c.Dictionary, "dictionary", c.Dictionary, "ArUco dictionary, e.g. 4x4_250, 5x5_100, original")
	fs.IntVar(&c.FrameRetries, "frame-retries", c.FrameRetries, "Extra attempts with backoff before a failed frame read is fatal")

	fs.StringVar(&c.GPIOChip, "gpio-chip", c.GPIOChip, "GPIO chip for the stop button")
	fs.IntVar(&c.StopPin, "stop-pin", c.StopPin, "BCM pin of the operator stop button (-1 to disable)")

	fs.StringVar(&c.Broker, "broker", c.Broker, "MQTT broker address (empty to disable)")
	fs.DurationVar(&c.Heartbeat, "heartbeat", c.Heartbeat, "Heartbeat interval (0 to disable)")
	fs.StringVar(&c.HTTPAddr, "http", c.HTTPAddr, "HTTP status address (empty to disable)")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level: debug, info, warn, error")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "Log format: console or json")

	fs.BoolVar(&c.Probe, "probe", c.Probe, "Detect markers in one frame, print them and exit")
}

// MarkerSet parses the configured set of valid target ids.
func (c Config) MarkerSet() (logic.MarkerSet, error) {
	s, err := logic.ParseMarkerSet(c.Markers)
	if err != nil {
		return logic.MarkerSet{}, fmt.Errorf("markers: %w", err)
	}
	return s, nil
}

// Validate checks settings that do not depend on the target.
func (c Config) Validate() error {
	var errs []error
	if c.Cooldown < 0 {
		errs = append(errs, fmt.Errorf("cooldown must not be negative (got %v)", c.Cooldown))
	}
	if c.Baud <= 0 {
		errs = append(errs, fmt.Errorf("baud must be positive (got %d)", c.Baud))
	}
	if c.Settle < 0 {
		errs = append(errs, fmt.Errorf("settle must not be negative (got %v)", c.Settle))
	}
	if c.SerialPort == "" && !c.Probe {
		errs = append(errs, errors.New("serial port is required"))
	}
	if c.Camera < 0 {
		errs = append(errs, fmt.Errorf("camera index must not be negative (got %d)", c.Camera))
	}
	if c.FrameWidth < 0 || c.FrameHeight < 0 {
		errs = append(errs, fmt.Errorf("frame size must not be negative (got %dx%d)", c.FrameWidth, c.FrameHeight))
	}
	if c.FrameRetries < 0 {
		errs = append(errs, fmt.Errorf("frame-retries must not be negative (got %d)", c.FrameRetries))
	}
	if c.Heartbeat < 0 {
		errs = append(errs, fmt.Errorf("heartbeat must not be negative (got %v)", c.Heartbeat))
	}
	if _, err := c.MarkerSet(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
