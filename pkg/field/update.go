package field

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Update is a validated inbound mutation, produced at the wire boundary by
// DecodeFrame. Exactly two variants exist: ReplaceUpdate and AppendUpdate.
type Update interface {
	// FieldName identifies the store entry the update targets.
	FieldName() string
	// Payload is the decoded value carried by the update.
	Payload() any
	// At is the origin timestamp in seconds since the simulation epoch;
	// zero when the frame carried none.
	At() float64
}

// ReplaceUpdate overwrites a field's value. Map-shaped payloads are
// shallow-merged over an existing map-shaped value so sub-keys absent from
// the update survive.
type ReplaceUpdate struct {
	Field     string
	Value     any
	Timestamp float64
}

// FieldName implements Update.
func (u ReplaceUpdate) FieldName() string { return u.Field }

// Payload implements Update.
func (u ReplaceUpdate) Payload() any { return u.Value }

// At implements Update.
func (u ReplaceUpdate) At() float64 { return u.Timestamp }

// AppendUpdate concatenates array payload entries onto a field's existing
// array-shaped value. When the target field is absent or not array-shaped
// the store degrades the update to replace semantics.
type AppendUpdate struct {
	Field     string
	Value     any
	Timestamp float64
}

// FieldName implements Update.
func (u AppendUpdate) FieldName() string { return u.Field }

// Payload implements Update.
func (u AppendUpdate) Payload() any { return u.Value }

// At implements Update.
func (u AppendUpdate) At() float64 { return u.Timestamp }

// ErrNotStructured reports a frame that is not a structured update. Callers
// route such frames to the plain-message history instead of the store.
var ErrNotStructured = errors.New("frame is not a structured update")

type wireFrame struct {
	Type      string          `json:"type"`
	Field     string          `json:"field"`
	Value     json.RawMessage `json:"value"`
	Timestamp float64         `json:"timestamp"`
}

// DecodeFrame validates a raw text frame and converts it into a tagged
// update. Frames that are not JSON objects, carry an unknown type, or omit
// the field key fail with an error wrapping ErrNotStructured.
func DecodeFrame(raw []byte) (Update, error) {
	var frame wireFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotStructured, err)
	}
	if frame.Field == "" {
		return nil, fmt.Errorf("%w: missing field key", ErrNotStructured)
	}
	var value any
	if len(frame.Value) > 0 {
		if err := json.Unmarshal(frame.Value, &value); err != nil {
			return nil, fmt.Errorf("%w: undecodable value: %v", ErrNotStructured, err)
		}
	}
	switch frame.Type {
	case "replace":
		return ReplaceUpdate{Field: frame.Field, Value: value, Timestamp: frame.Timestamp}, nil
	case "append":
		return AppendUpdate{Field: frame.Field, Value: value, Timestamp: frame.Timestamp}, nil
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrNotStructured, frame.Type)
	}
}
