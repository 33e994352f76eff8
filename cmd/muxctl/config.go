package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/edgemux/internal/mux"
	"github.com/danmuck/edgemux/internal/protocol/session"
)

type fileConfig struct {
	ID                string   `toml:"id"`
	AdminAddr         string   `toml:"admin_addr"`
	AdminToken        string   `toml:"admin_token"`
	CorsOrigins       []string `toml:"cors_origins"`
	Side              string   `toml:"side"`
	RemoteAddr        string   `toml:"remote_addr"`
	CommandCapacity   int      `toml:"command_capacity"`
	EnableKeepalive   bool     `toml:"enable_keepalive"`
	KeepaliveInterval string   `toml:"keepalive_interval"`
	PingTimeout       string   `toml:"ping_timeout"`
	MaxPingFailures   int      `toml:"max_ping_failures"`
	MaxStreams        int      `toml:"max_streams"`
	MaxRestarts       int      `toml:"max_restarts"`
	BackoffInitial    string   `toml:"backoff_initial"`
	BackoffMax        string   `toml:"backoff_max"`
}

type appConfig struct {
	ID          string
	AdminAddr   string
	AdminToken  string
	CorsOrigins []string
	Side        mux.Side
	RemoteAddr  string
	Service     mux.ServiceConfig
}

func defaultAppConfig() appConfig {
	return appConfig{
		ID:        "muxctl",
		AdminAddr: "127.0.0.1:7020",
		Side:      mux.SideClient,
		Service: mux.ServiceConfig{
			Session: session.DefaultConfig(),
		},
	}
}

func loadAppConfig(path string) (appConfig, error) {
	cfg := defaultAppConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return appConfig{}, fmt.Errorf("load muxctl config: %w", err)
	}

	if meta.IsDefined("id") {
		if id := strings.TrimSpace(raw.ID); id != "" {
			cfg.ID = id
		}
	}
	if meta.IsDefined("admin_addr") {
		cfg.AdminAddr = strings.TrimSpace(raw.AdminAddr)
	}
	if meta.IsDefined("admin_token") {
		cfg.AdminToken = strings.TrimSpace(raw.AdminToken)
	}
	if meta.IsDefined("cors_origins") {
		cfg.CorsOrigins = raw.CorsOrigins
	}
	if meta.IsDefined("side") {
		side, err := parseSide(raw.Side)
		if err != nil {
			return appConfig{}, err
		}
		cfg.Side = side
	}
	if meta.IsDefined("remote_addr") {
		cfg.RemoteAddr = strings.TrimSpace(raw.RemoteAddr)
	}

	sc := &cfg.Service.Session
	if meta.IsDefined("command_capacity") {
		if raw.CommandCapacity < 1 {
			return appConfig{}, fmt.Errorf("command_capacity must be >= 1, got %d", raw.CommandCapacity)
		}
		sc.CommandCapacity = raw.CommandCapacity
	}
	if meta.IsDefined("enable_keepalive") {
		sc.EnableKeepalive = raw.EnableKeepalive
	}
	if err := parseDurationField(meta, "keepalive_interval", raw.KeepaliveInterval, &sc.KeepaliveInterval); err != nil {
		return appConfig{}, err
	}
	if err := parseDurationField(meta, "ping_timeout", raw.PingTimeout, &sc.PingTimeout); err != nil {
		return appConfig{}, err
	}
	if meta.IsDefined("max_ping_failures") {
		sc.MaxPingFailures = raw.MaxPingFailures
	}
	if meta.IsDefined("max_streams") {
		sc.MaxStreams = raw.MaxStreams
	}
	if err := parseDurationField(meta, "backoff_initial", raw.BackoffInitial, &sc.Backoff.InitialDelay); err != nil {
		return appConfig{}, err
	}
	if err := parseDurationField(meta, "backoff_max", raw.BackoffMax, &sc.Backoff.MaxDelay); err != nil {
		return appConfig{}, err
	}
	if meta.IsDefined("max_restarts") {
		cfg.Service.MaxRestarts = raw.MaxRestarts
	}

	return cfg, nil
}

func parseDurationField(meta toml.MetaData, key, raw string, out *time.Duration) error {
	if !meta.IsDefined(key) {
		return nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	*out = d
	return nil
}

func parseSide(raw string) (mux.Side, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "client":
		return mux.SideClient, nil
	case "server":
		return mux.SideServer, nil
	default:
		return mux.SideClient, fmt.Errorf("invalid side %q (supported: client, server)", raw)
	}
}
