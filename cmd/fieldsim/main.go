// Command fieldsim is a development broadcaster standing in for a live
// simulation. It serves the fieldscope wire protocol over a websocket,
// either replaying a recorded session journal or emitting a synthetic
// oscillating field, and can record what it emits for later replay.
//
// Configuration (environment):
//
//	FIELDSIM_ADDR:         listen address (default :8077)
//	FIELDSIM_SESSION_PATH: sqlite journal to replay instead of synthesizing
//	FIELDSIM_RECORD_PATH:  sqlite journal to record emitted frames into
//	FIELDSIM_INTERVAL:     synthetic emission interval (default 500ms)
package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"fieldscope/internal/framelog"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	addr := os.Getenv("FIELDSIM_ADDR")
	if addr == "" {
		addr = ":8077"
	}
	interval := 500 * time.Millisecond
	if raw := os.Getenv("FIELDSIM_INTERVAL"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			logger.Error("parse FIELDSIM_INTERVAL", "error", err)
			os.Exit(1)
		}
		interval = d
	}

	var recorder *framelog.Log
	if path := os.Getenv("FIELDSIM_RECORD_PATH"); path != "" {
		var err error
		recorder, err = framelog.Open(path)
		if err != nil {
			logger.Error("open record journal", "error", err)
			os.Exit(1)
		}
		defer func() { _ = recorder.Close() }()
	}

	hub := newHub(logger)

	emit := func(payload []byte) {
		hub.Broadcast(payload)
		if recorder != nil {
			if err := recorder.Append(time.Now().UTC(), payload); err != nil {
				logger.Warn("record frame", "error", err)
			}
		}
	}

	if path := os.Getenv("FIELDSIM_SESSION_PATH"); path != "" {
		journal, err := framelog.Open(path)
		if err != nil {
			logger.Error("open session journal", "error", err)
			os.Exit(1)
		}
		defer func() { _ = journal.Close() }()
		go replayLoop(journal, emit, logger)
	} else {
		src := newSynth()
		hub.SetGreeting(src.Topology())
		go synthLoop(src, emit, interval)
	}

	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	logger.Info("fieldsim listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("serve", "error", err)
		os.Exit(1)
	}
}

// replayLoop re-broadcasts a recorded session forever, pacing frames by
// their recorded spacing (capped so stale journals don't stall).
func replayLoop(journal *framelog.Log, emit func([]byte), logger *slog.Logger) {
	const maxGap = 2 * time.Second
	for {
		var prev time.Time
		err := journal.Replay(func(f framelog.Frame) error {
			if !prev.IsZero() {
				gap := f.At.Sub(prev)
				if gap < 0 {
					gap = 0
				}
				if gap > maxGap {
					gap = maxGap
				}
				time.Sleep(gap)
			}
			prev = f.At
			emit(f.Payload)
			return nil
		})
		if err != nil {
			logger.Error("replay", "error", err)
			return
		}
	}
}

// synthLoop emits one batch of synthetic frames per interval.
func synthLoop(src *synth, emit func([]byte), interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		for _, payload := range src.Next() {
			emit(payload)
		}
	}
}
