package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by the job-alert binaries.
type Config struct {
	// ServerAddress is the gRPC address of the alert host.
	ServerAddress string `yaml:"server_addr"`
	// Timeout is the per-RPC timeout used by clients.
	Timeout time.Duration `yaml:"timeout"`
	// LogLevel is the textual zap level (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`
	// Alert tunes the lifecycle of a single alert.
	Alert Alert `yaml:"alert"`
	// Feedback tunes sound, vibration and wake lock.
	Feedback Feedback `yaml:"feedback"`
	// Server tunes the inbound transport.
	Server Server `yaml:"server"`
	// Device holds the environment predicates used when a delivery carries none.
	Device Device `yaml:"device"`
}

// Alert tunes the lifecycle of a single alert session.
type Alert struct {
	// Deadline is how long an alert stays presented before it times out.
	Deadline time.Duration `yaml:"deadline"`
	// PrimaryContextURL is an optional URL template opened on accept.
	// The {job_id} and {action} placeholders are substituted.
	PrimaryContextURL string `yaml:"primary_context_url"`
}

// Feedback tunes the feedback driver and its backends.
type Feedback struct {
	// Backend selects the device adapters: "os" or "simulated".
	Backend string `yaml:"backend"`
	// WakeLockMaxHold is the hard upper bound on how long the wake lock is held.
	WakeLockMaxHold time.Duration `yaml:"wake_lock_max_hold"`
	// CallTimeout bounds every call into an audio, vibration or power backend.
	CallTimeout time.Duration `yaml:"call_timeout"`
	// Vibration describes the repeating vibration waveform.
	Vibration Vibration `yaml:"vibration"`
	// Tones maps tone kinds to sound files played by the OS backend.
	Tones Tones `yaml:"tones"`
	// HelperFile lists the player and inhibitor processes of the OS backend,
	// so a restarted host can stop the ones left behind. Empty means a file
	// in the temp directory.
	HelperFile string `yaml:"helper_file,omitempty"`
}

// Vibration describes a symmetric on/off vibration waveform.
type Vibration struct {
	On  time.Duration `yaml:"on"`
	Off time.Duration `yaml:"off"`
	// Repetitions is the number of on/off cycles; 0 repeats until cancelled.
	Repetitions int `yaml:"repetitions"`
}

// Tones holds sound file paths per tone kind. Empty means unavailable.
type Tones struct {
	Alarm        string `yaml:"alarm"`
	Ringtone     string `yaml:"ringtone"`
	Notification string `yaml:"notification"`
}

// Server tunes the gRPC transport of the alert host.
type Server struct {
	// DeliveriesPerSecond limits the sustained Deliver rate.
	DeliveriesPerSecond float64 `yaml:"deliveries_per_second"`
	// DeliveryBurst is the number of deliveries accepted at once above the rate.
	DeliveryBurst int `yaml:"delivery_burst"`
}

// Device holds default environment predicates for the presentation selector.
type Device struct {
	Locked               bool `yaml:"locked"`
	Interactive          bool `yaml:"interactive"`
	FullScreenPermission bool `yaml:"full_screen_permission"`
}

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "job-alert-settings.yaml"

	// DefaultTimeout is the default duration for RPC calls.
	DefaultTimeout = 5 * time.Second

	// DefaultDeadline is how long an alert is presented before timing out.
	DefaultDeadline = 60 * time.Second

	// DefaultWakeLockMaxHold bounds the wake lock independent of alert teardown.
	DefaultWakeLockMaxHold = 120 * time.Second

	// DefaultCallTimeout bounds a single feedback backend call.
	DefaultCallTimeout = 2 * time.Second

	// DefaultVibrationOn and DefaultVibrationOff form the default waveform.
	DefaultVibrationOn  = 800 * time.Millisecond
	DefaultVibrationOff = 400 * time.Millisecond

	// DefaultDeliveriesPerSecond and DefaultDeliveryBurst limit inbound deliveries.
	DefaultDeliveriesPerSecond = 10
	DefaultDeliveryBurst       = 5

	// BackendOS drives real OS sound and power facilities.
	BackendOS = "os"
	// BackendSimulated only logs feedback actions.
	BackendSimulated = "simulated"

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errServerAddressRequired is returned when server address is missing.
	errServerAddressRequired = errors.New("server address must be provided")
	// errUnknownBackend is returned for an unsupported feedback backend.
	errUnknownBackend = errors.New("unknown feedback backend")
	// errWakeLockTooShort is returned when the wake lock bound is below the alert deadline.
	errWakeLockTooShort = errors.New("wake lock max hold must not be shorter than the alert deadline")
	// errNegativeValue is returned for negative durations or counts.
	errNegativeValue = errors.New("value must not be negative")
)

// Default returns a validated configuration pointing at the provided address.
func Default(serverAddress string) *Config {
	cfg := &Config{ServerAddress: serverAddress}
	applyDefaults(cfg)

	return cfg
}

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings and fills defaults for optional fields.
//
//nolint:cyclop // A flat list of field checks reads better than helpers.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.ServerAddress == "" {
		return errServerAddressRequired
	}

	if _, err := net.ResolveTCPAddr("tcp", cfg.ServerAddress); err != nil {
		return fmt.Errorf("invalid server address: %w", err)
	}

	if cfg.Timeout < 0 || cfg.Alert.Deadline < 0 || cfg.Feedback.WakeLockMaxHold < 0 ||
		cfg.Feedback.CallTimeout < 0 || cfg.Feedback.Vibration.Repetitions < 0 ||
		cfg.Server.DeliveriesPerSecond < 0 || cfg.Server.DeliveryBurst < 0 {
		return errNegativeValue
	}

	applyDefaults(cfg)

	switch cfg.Feedback.Backend {
	case BackendOS, BackendSimulated:
	default:
		return fmt.Errorf("%w: %q", errUnknownBackend, cfg.Feedback.Backend)
	}

	if cfg.Feedback.WakeLockMaxHold < cfg.Alert.Deadline {
		return errWakeLockTooShort
	}

	if cfg.Alert.PrimaryContextURL != "" {
		probe := strings.NewReplacer("{job_id}", "probe", "{action}", "accept").Replace(cfg.Alert.PrimaryContextURL)
		if _, err := url.ParseRequestURI(probe); err != nil {
			return fmt.Errorf("invalid primary context URL: %w", err)
		}
	}

	return nil
}

// applyDefaults fills every zero optional field with its default.
func applyDefaults(cfg *Config) {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	if cfg.Alert.Deadline == 0 {
		cfg.Alert.Deadline = DefaultDeadline
	}

	if cfg.Feedback.Backend == "" {
		cfg.Feedback.Backend = BackendOS
	}

	if cfg.Feedback.WakeLockMaxHold == 0 {
		cfg.Feedback.WakeLockMaxHold = max(DefaultWakeLockMaxHold, cfg.Alert.Deadline)
	}

	if cfg.Feedback.CallTimeout == 0 {
		cfg.Feedback.CallTimeout = DefaultCallTimeout
	}

	if cfg.Feedback.Vibration.On == 0 {
		cfg.Feedback.Vibration.On = DefaultVibrationOn
	}

	if cfg.Feedback.Vibration.Off == 0 {
		cfg.Feedback.Vibration.Off = DefaultVibrationOff
	}

	if cfg.Server.DeliveriesPerSecond == 0 {
		cfg.Server.DeliveriesPerSecond = DefaultDeliveriesPerSecond
	}

	if cfg.Server.DeliveryBurst == 0 {
		cfg.Server.DeliveryBurst = DefaultDeliveryBurst
	}
}
