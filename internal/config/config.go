package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/visionlink/camstream/internal/logger"
)

// Config holds a camera session's configuration. One config describes
// exactly one session: its mode, source, target resolution and the
// stream parameters.
type Config struct {
	// Mode selects usb, server or client behavior
	Mode string `json:"mode" yaml:"mode"`

	// CameraIndex is the local capture device (usb and server modes)
	CameraIndex int `json:"camera_index" yaml:"camera_index"`

	// ServerIP is the address to connect to (client mode, required)
	ServerIP string `json:"server_ip" yaml:"server_ip"`

	// Port is the TCP stream port (server listens, client connects)
	Port int `json:"port" yaml:"port"`

	// Width and Height are the target resolution; frames not matching
	// are resized before storage or transmission
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`

	// FPS is the advisory pacing rate; delivered rate is at most this
	FPS int `json:"fps" yaml:"fps"`

	// Quality is the JPEG quality 1..100 (encode path only)
	Quality int `json:"quality" yaml:"quality"`

	// Synthetic replaces the camera with a generated test pattern
	Synthetic bool `json:"synthetic" yaml:"synthetic"`

	// HTTPPort enables the monitor HTTP server when > 0
	HTTPPort int `json:"http_port" yaml:"http_port"`

	// LogLevel is debug, info, warn or error
	LogLevel string `json:"log_level" yaml:"log_level"`
}

// Default reference port for the frame stream.
const DefaultPort = 8485

// Defaults returns the out-of-the-box configuration.
func Defaults() *Config {
	return &Config{
		Mode:        "usb",
		CameraIndex: 0,
		Port:        DefaultPort,
		Width:       640,
		Height:      480,
		FPS:         30,
		Quality:     80,
		LogLevel:    "info",
	}
}

// Validate checks the fields that can make a session unconstructable.
// These are the synchronous, caller-facing configuration errors; I/O
// faults later on never surface here.
func (c *Config) Validate() error {
	switch c.Mode {
	case "usb", "server", "client":
	default:
		return fmt.Errorf("invalid mode %q (want usb, server or client)", c.Mode)
	}
	if c.Mode == "client" && c.ServerIP == "" {
		return fmt.Errorf("client mode requires server_ip")
	}
	// Only server and client open a socket; usb mode never touches the
	// port, so an unset one must not block construction.
	if c.Mode != "usb" && (c.Port < 1 || c.Port > 65535) {
		if !(c.Port == 0 && c.Mode == "server") { // port 0 lets the OS pick, server only
			return fmt.Errorf("invalid port %d", c.Port)
		}
	}
	if c.Quality < 1 || c.Quality > 100 {
		return fmt.Errorf("quality %d out of range 1..100", c.Quality)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("invalid resolution %dx%d", c.Width, c.Height)
	}
	if c.CameraIndex < 0 {
		return fmt.Errorf("invalid camera index %d", c.CameraIndex)
	}
	return nil
}

// Manager loads, persists and guards a Config. The file is created
// with defaults on first run.
type Manager struct {
	mu         sync.RWMutex
	config     *Config
	configPath string
}

// NewManager opens the config at configFile, or the default path
// (~/.config/camstream/config.yaml) when empty.
func NewManager(configFile string) (*Manager, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".config", "camstream")
	actualConfigPath := filepath.Join(configDir, "config.yaml")
	if configFile != "" {
		actualConfigPath = configFile
	} else if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	m := &Manager{configPath: actualConfigPath}

	if err := m.load(); err != nil {
		if os.IsNotExist(err) {
			logger.WithComponent("config").Info().
				Str("path", m.configPath).
				Msg("Config file not found, creating new config")
			m.config = Defaults()
			if err := m.Save(); err != nil {
				return nil, fmt.Errorf("failed to create default config: %w", err)
			}
		} else {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	logger.WithComponent("config").Info().
		Str("path", m.configPath).
		Str("mode", m.config.Mode).
		Msg("Config loaded")
	return m, nil
}

func (m *Manager) load() error {
	data, err := os.ReadFile(m.configPath)
	if err != nil {
		return err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	m.mu.Lock()
	m.config = cfg
	m.mu.Unlock()
	return nil
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return *m.config
}

// Set validates and replaces the configuration, persisting it.
func (m *Manager) Set(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	m.config = &cfg
	m.mu.Unlock()
	return m.Save()
}

// Save writes the current configuration to disk.
func (m *Manager) Save() error {
	m.mu.RLock()
	data, err := yaml.Marshal(m.config)
	m.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(m.configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// GetConfigPath returns the active config file path.
func (m *Manager) GetConfigPath() string {
	return m.configPath
}
