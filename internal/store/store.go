// Package store owns the current value of every streamed field and applies
// the replace/append merge protocol. It is the single writer-guarded piece
// of session state; everything downstream reads immutable snapshots.
package store

import (
	"sync"
	"time"

	"fieldscope/internal/obs"
	"fieldscope/pkg/field"
)

// Status is the store's UI-facing activity flag.
type Status string

const (
	// StatusIdle means no update arrived within the quiescence window.
	StatusIdle Status = "idle"
	// StatusUpdating means an update arrived recently.
	StatusUpdating Status = "updating"
)

// DefaultQuiescence is the delay after the last update before the store
// reports idle again.
const DefaultQuiescence = 500 * time.Millisecond

// Snapshot is an immutable copy of the store contents taken under the lock,
// so no reader ever observes a half-applied merge.
type Snapshot struct {
	Fields map[string]field.Field
	Status Status
}

// Get returns the named field from the snapshot.
func (s Snapshot) Get(name string) (field.Field, bool) {
	f, ok := s.Fields[name]
	return f, ok
}

// Store is the in-memory field store. All mutation goes through Apply; all
// reads go through Snapshot.
type Store struct {
	mu         sync.RWMutex
	fields     map[string]field.Field
	status     Status
	gen        uint64
	quiescence time.Duration
	timer      *time.Timer
	closed     bool

	log     obs.Logger
	metrics *obs.Metrics
	nowFn   func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger routes drop/degrade diagnostics to log.
func WithLogger(log obs.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// WithMetrics counts applied updates on m.
func WithMetrics(m *obs.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// WithQuiescence overrides the idle-revert delay.
func WithQuiescence(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.quiescence = d
		}
	}
}

// WithClock injects the update timestamp source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.nowFn = now
		}
	}
}

// New constructs an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		fields:     make(map[string]field.Field),
		status:     StatusIdle,
		quiescence: DefaultQuiescence,
		log:        obs.NopLogger(),
		nowFn:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Apply merges one validated update into the store. Malformed updates (nil
// or empty field name) are dropped and logged; Apply never fails, so the
// connection manager keeps processing subsequent frames regardless.
func (s *Store) Apply(u field.Update) {
	if u == nil || u.FieldName() == "" {
		s.log.Warn("dropping malformed update")
		if s.metrics != nil {
			s.metrics.Frames.WithLabelValues(obs.FrameDropped).Inc()
		}
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	name := u.FieldName()
	current, exists := s.fields[name]

	var op string
	var merged any
	switch upd := u.(type) {
	case field.AppendUpdate:
		op = "append"
		var degraded bool
		merged, degraded = appendMerge(current.Value, upd.Value, exists)
		if degraded {
			s.log.Debug("append degraded to replace", "field", name)
		}
	case field.ReplaceUpdate:
		op = "replace"
		merged = replaceMerge(current.Value, upd.Value, exists)
	default:
		s.log.Warn("dropping update with unknown variant", "field", name)
		return
	}

	s.fields[name] = field.Field{
		Name:        name,
		Value:       merged,
		LastUpdated: s.nowFn(),
	}
	if s.metrics != nil {
		s.metrics.Updates.WithLabelValues(op).Inc()
	}
	s.markUpdatingLocked()
}

// replaceMerge implements replace semantics: map-shaped payloads shallow-merge
// over an existing map-shaped value so unspecified sub-keys survive; anything
// else overwrites outright.
func replaceMerge(current, incoming any, exists bool) any {
	incomingMap, incomingIsMap := incoming.(map[string]any)
	currentMap, currentIsMap := current.(map[string]any)
	if !exists || !incomingIsMap || !currentIsMap {
		return field.CloneValue(incoming)
	}
	merged := make(map[string]any, len(currentMap)+len(incomingMap))
	for k, v := range currentMap {
		merged[k] = field.CloneValue(v)
	}
	for k, v := range incomingMap {
		merged[k] = field.CloneValue(v)
	}
	return merged
}

// appendMerge implements append semantics over a mapping of arrays. The
// second result reports degradation to replace semantics (absent target or
// non-map shapes on either side).
func appendMerge(current, incoming any, exists bool) (any, bool) {
	incomingMap, incomingIsMap := incoming.(map[string]any)
	currentMap, currentIsMap := current.(map[string]any)
	if !exists || !incomingIsMap || !currentIsMap {
		return field.CloneValue(incoming), true
	}
	merged := make(map[string]any, len(currentMap)+len(incomingMap))
	for k, v := range currentMap {
		merged[k] = field.CloneValue(v)
	}
	for k, v := range incomingMap {
		newArr, newIsArr := v.([]any)
		if !newIsArr {
			// Non-array payload for this key: replace the key.
			merged[k] = field.CloneValue(v)
			continue
		}
		existing, ok := merged[k].([]any)
		if !ok {
			existing = nil
		}
		combined := make([]any, 0, len(existing)+len(newArr))
		combined = append(combined, existing...)
		for _, e := range newArr {
			combined = append(combined, field.CloneValue(e))
		}
		merged[k] = combined
	}
	return merged, false
}

// markUpdatingLocked flips the status to updating and arms the quiescence
// timer. A later update supersedes the pending revert via the generation
// counter, so the flag never blocks or delays subsequent updates.
func (s *Store) markUpdatingLocked() {
	s.gen++
	gen := s.gen
	s.status = StatusUpdating
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.quiescence, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.closed && s.gen == gen {
			s.status = StatusIdle
		}
	})
}

// Snapshot returns a deep copy of all fields plus the current status.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fields := make(map[string]field.Field, len(s.fields))
	for name, f := range s.fields {
		fields[name] = f.Clone()
	}
	return Snapshot{Fields: fields, Status: s.status}
}

// Status returns the current activity flag.
func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Len returns the number of tracked fields.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.fields)
}

// Close stops the quiescence timer. Further updates are ignored.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
