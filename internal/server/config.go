package server

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/feltmachine/holdem/internal/room"
)

// ServerConfig is the full HCL configuration.
type ServerConfig struct {
	Server ServerSettings `hcl:"server,block"`
	Rooms  *RoomDefaults  `hcl:"rooms,block"`
}

// ServerSettings is the server block.
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
	Seed     int64  `hcl:"seed,optional"`
}

// RoomDefaults is the rooms block: defaults applied to every room that
// does not override them at creation.
type RoomDefaults struct {
	SmallBlind    int `hcl:"small_blind,optional"`
	BigBlind      int `hcl:"big_blind,optional"`
	StartChips    int `hcl:"start_chips,optional"`
	TurnTimeoutMs int `hcl:"turn_timeout_ms,optional"`
	ThinkDelayMs  int `hcl:"think_delay_ms,optional"`
	GraceMs       int `hcl:"grace_ms,optional"`
	AIIterations  int `hcl:"ai_iterations,optional"`
}

// DefaultServerConfig is the configuration used when no file is given.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Server: ServerSettings{
			Address:  "localhost",
			Port:     8080,
			LogLevel: "info",
		},
	}
}

// LoadServerConfig reads an HCL config file. A missing file yields the
// defaults rather than an error.
func LoadServerConfig(filename string) (*ServerConfig, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultServerConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse %s: %s", filename, diags.Error())
	}

	var config ServerConfig
	if diags := gohcl.DecodeBody(file.Body, nil, &config); diags.HasErrors() {
		return nil, fmt.Errorf("decode %s: %s", filename, diags.Error())
	}

	if config.Server.Address == "" {
		config.Server.Address = "localhost"
	}
	if config.Server.Port == 0 {
		config.Server.Port = 8080
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = "info"
	}
	return &config, nil
}

// Validate rejects configurations the server cannot run with.
func (c *ServerConfig) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Rooms != nil {
		if c.Rooms.SmallBlind < 0 || c.Rooms.BigBlind < 0 {
			return fmt.Errorf("blinds must be non-negative")
		}
		if c.Rooms.SmallBlind > 0 && c.Rooms.BigBlind > 0 && c.Rooms.BigBlind < c.Rooms.SmallBlind {
			return fmt.Errorf("big blind %d below small blind %d", c.Rooms.BigBlind, c.Rooms.SmallBlind)
		}
	}
	return nil
}

// ListenAddress is the host:port the server binds.
func (c *ServerConfig) ListenAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// RoomConfig converts the rooms block into room defaults.
func (c *ServerConfig) RoomConfig() room.Config {
	cfg := room.Config{}
	if c.Rooms == nil {
		return cfg
	}
	cfg.SmallBlind = c.Rooms.SmallBlind
	cfg.BigBlind = c.Rooms.BigBlind
	cfg.StartChips = c.Rooms.StartChips
	cfg.TurnTimeout = time.Duration(c.Rooms.TurnTimeoutMs) * time.Millisecond
	cfg.ThinkDelay = time.Duration(c.Rooms.ThinkDelayMs) * time.Millisecond
	cfg.Grace = time.Duration(c.Rooms.GraceMs) * time.Millisecond
	cfg.AIIterations = c.Rooms.AIIterations
	return cfg
}
