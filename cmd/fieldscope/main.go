// Command fieldscope runs a synchronization session against a simulation
// broadcaster and reports the evolving model: connection state, store
// activity, projected scene size, and the tail of the residual series.
// Rendering and plotting frontends consume the same snapshots through the
// library packages; this binary is the headless reference consumer.
//
// Configuration (environment):
//
//	FIELDSCOPE_ENDPOINT:        broadcaster address (default ws://127.0.0.1:8077/ws)
//	FIELDSCOPE_RECONNECT_DELAY: reconnect delay, e.g. 3s
//	FIELDSCOPE_HISTORY_LIMIT:   retained message summaries
//	FIELDSCOPE_FIELD:           field selected for scene projection (e.g. temp)
//	FIELDSCOPE_METRICS_ADDR:    if set, serves Prometheus metrics and expvar
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fieldscope/internal/scene"
	"fieldscope/internal/series"
	"fieldscope/internal/session"
	"fieldscope/pkg/field"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := session.FromEnv()
	if err != nil {
		logger.Error("configuration", "error", err)
		os.Exit(1)
	}
	cfg.Logger = logger
	cfg.Registerer = prometheus.DefaultRegisterer

	sess, err := session.Open(cfg)
	if err != nil {
		logger.Error("open session", "error", err)
		os.Exit(1)
	}
	defer func() { _ = sess.Close() }()

	if addr := os.Getenv("FIELDSCOPE_METRICS_ADDR"); addr != "" {
		go serveMetrics(addr, logger)
	}

	selected := os.Getenv("FIELDSCOPE_FIELD")

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	logger.Info("session opened", "endpoint", cfg.Endpoint, "expvar", sess.ExpvarName())
	for {
		select {
		case sig := <-sigs:
			logger.Info("shutting down", "signal", sig.String())
			return
		case <-ticker.C:
			report(sess, selected, logger)
		}
	}
}

func serveMetrics(addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	logger.Info("metrics listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics server", "error", err)
	}
}

// report logs one status line derived from the current snapshot.
func report(sess *session.Session, selected string, logger *slog.Logger) {
	snap := sess.Store.Snapshot()
	args := []any{
		"state", string(sess.Manager.State()),
		"store", string(snap.Status),
		"fields", len(snap.Fields),
	}

	if meshField, ok := snap.Get("mesh"); ok {
		meshes := field.MeshesFrom(meshField.Value)
		var geometry field.Geometry
		if geomField, ok := snap.Get("geometry"); ok {
			geometry = field.GeometryFrom(geomField.Value)
		}
		var values field.ValueOnMesh
		if valuesField, ok := snap.Get("values"); ok {
			values = field.ValuesFrom(valuesField.Value)
		}
		vis := scene.Visibility{Wireframe: true, Geometry: allVisible(geometry)}
		sc := scene.Project(meshes, geometry, values, selected, vis)
		cells := 0
		for _, view := range sc.Meshes {
			cells += len(view.Cells)
		}
		args = append(args, "cells", cells)
		if sc.HasField {
			args = append(args, "range", fmt.Sprintf("[%.3g, %.3g]", sc.Range.Min, sc.Range.Max))
		}
	}

	if resField, ok := snap.Get("residuals"); ok {
		samples := field.SamplesFrom(resField.Value)
		if n := series.MaxLen(samples); n > 0 {
			const tail = 5
			start := n - tail
			rows := series.Window(samples, start, tail)
			if len(rows) > 0 {
				last := rows[len(rows)-1]
				if v := last.Values["max"]; v != nil {
					args = append(args, "iter", last.Index, "residual_max", fmt.Sprintf("%.3e", *v))
				}
			}
		}
	}

	logger.Info("status", args...)
}

func allVisible(geometry field.Geometry) map[string]bool {
	vis := make(map[string]bool, len(geometry))
	for name := range geometry {
		vis[name] = true
	}
	return vis
}
