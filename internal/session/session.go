// Package session wires the store, connection manager, and observability
// into one explicitly owned object with an open/close lifecycle. Nothing in
// the module relies on ambient singletons; everything a component needs is
// passed in here.
package session

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"fieldscope/internal/conn"
	"fieldscope/internal/obs"
	"fieldscope/internal/store"
)

// Config parameterizes a session.
type Config struct {
	// Endpoint is the broadcaster socket address.
	Endpoint string
	// ReconnectDelay is passed to the connection manager; zero means its
	// default.
	ReconnectDelay time.Duration
	// HistoryLimit bounds the message histories; zero means the default.
	HistoryLimit int
	// Quiescence is the store's idle-revert delay; zero means the default.
	Quiescence time.Duration
	// Logger defaults to a no-op logger.
	Logger obs.Logger
	// Registerer receives the session's Prometheus collectors; nil leaves
	// them unregistered.
	Registerer prometheus.Registerer
	// Dialer overrides the websocket dialer, for tests.
	Dialer conn.Dialer
	// ExpvarName names the published expvar snapshot; empty generates one.
	ExpvarName string
}

// Environment variables resolved by FromEnv.
//
//	FIELDSCOPE_ENDPOINT:        socket address (default ws://127.0.0.1:8077/ws)
//	FIELDSCOPE_RECONNECT_DELAY: Go duration, e.g. 3s
//	FIELDSCOPE_HISTORY_LIMIT:   max retained message summaries
const (
	EnvEndpoint       = "FIELDSCOPE_ENDPOINT"
	EnvReconnectDelay = "FIELDSCOPE_RECONNECT_DELAY"
	EnvHistoryLimit   = "FIELDSCOPE_HISTORY_LIMIT"

	// DefaultEndpoint is used when FIELDSCOPE_ENDPOINT is unset.
	DefaultEndpoint = "ws://127.0.0.1:8077/ws"
)

// FromEnv builds a Config from the environment.
func FromEnv() (Config, error) {
	cfg := Config{Endpoint: os.Getenv(EnvEndpoint)}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if raw := os.Getenv(EnvReconnectDelay); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", EnvReconnectDelay, err)
		}
		cfg.ReconnectDelay = d
	}
	if raw := os.Getenv(EnvHistoryLimit); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", EnvHistoryLimit, err)
		}
		cfg.HistoryLimit = n
	}
	return cfg, nil
}

// Session owns one live synchronization session.
type Session struct {
	Store   *store.Store
	Manager *conn.Manager
	Metrics *obs.Metrics

	expvarName string
}

// Open constructs the store and connection manager and starts connecting.
func Open(cfg Config) (*Session, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("session: endpoint is required")
	}
	log := cfg.Logger
	if log == nil {
		log = obs.NopLogger()
	}
	metrics := obs.NewMetrics(cfg.Registerer)

	st := store.New(
		store.WithLogger(log),
		store.WithMetrics(metrics),
		store.WithQuiescence(cfg.Quiescence),
	)
	mgr := conn.New(conn.Config{
		Endpoint:       cfg.Endpoint,
		ReconnectDelay: cfg.ReconnectDelay,
		HistoryLimit:   cfg.HistoryLimit,
		Dialer:         cfg.Dialer,
	}, st,
		conn.WithLogger(log),
		conn.WithMetrics(metrics),
	)

	s := &Session{Store: st, Manager: mgr, Metrics: metrics}
	s.expvarName = obs.PublishSession(cfg.ExpvarName, s.snapshotStats)
	return s, nil
}

// ExpvarName reports the name the session snapshot is published under.
func (s *Session) ExpvarName() string { return s.expvarName }

func (s *Session) snapshotStats() obs.SessionSnapshot {
	return obs.SessionSnapshot{
		State:       string(s.Manager.State()),
		StoreStatus: string(s.Store.Status()),
		Fields:      s.Store.Len(),
		History:     len(s.Manager.History()),
		RecordedAt:  time.Now().UTC(),
	}
}

// Close tears down the manager (cancelling any pending reconnect) and then
// the store's quiescence timer.
func (s *Session) Close() error {
	err := s.Manager.Close()
	s.Store.Close()
	return err
}
