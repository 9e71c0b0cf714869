package field

import (
	"errors"
	"testing"
)

func TestDecodeFrameReplace(t *testing.T) {
	u, err := DecodeFrame([]byte(`{"type":"replace","field":"age","value":"21","timestamp":1000}`))
	if err != nil {
		t.Fatalf("expected decode to succeed, got %v", err)
	}
	rep, ok := u.(ReplaceUpdate)
	if !ok {
		t.Fatalf("expected ReplaceUpdate, got %T", u)
	}
	if rep.Field != "age" {
		t.Fatalf("expected field age, got %q", rep.Field)
	}
	if rep.Value != "21" {
		t.Fatalf("expected value 21, got %v", rep.Value)
	}
	if rep.Timestamp != 1000 {
		t.Fatalf("expected timestamp 1000, got %v", rep.Timestamp)
	}
}

func TestDecodeFrameAppend(t *testing.T) {
	u, err := DecodeFrame([]byte(`{"type":"append","field":"res","value":{"max":[1,2]},"timestamp":1000}`))
	if err != nil {
		t.Fatalf("expected decode to succeed, got %v", err)
	}
	app, ok := u.(AppendUpdate)
	if !ok {
		t.Fatalf("expected AppendUpdate, got %T", u)
	}
	payload, ok := app.Value.(map[string]any)
	if !ok {
		t.Fatalf("expected map payload, got %T", app.Value)
	}
	arr, ok := payload["max"].([]any)
	if !ok || len(arr) != 2 {
		t.Fatalf("expected max array of 2, got %v", payload["max"])
	}
}

func TestDecodeFrameRejectsMalformed(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"not json", "not json"},
		{"json scalar", `42`},
		{"json array", `[1,2,3]`},
		{"unknown type", `{"type":"merge","field":"a","value":1}`},
		{"missing type", `{"field":"a","value":1}`},
		{"missing field", `{"type":"replace","value":1}`},
		{"empty field", `{"type":"replace","field":"","value":1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DecodeFrame([]byte(tc.raw)); !errors.Is(err, ErrNotStructured) {
				t.Fatalf("expected ErrNotStructured, got %v", err)
			}
		})
	}
}

func TestDecodeFrameOmittedValue(t *testing.T) {
	u, err := DecodeFrame([]byte(`{"type":"replace","field":"marker"}`))
	if err != nil {
		t.Fatalf("expected decode to succeed, got %v", err)
	}
	if u.Payload() != nil {
		t.Fatalf("expected nil payload, got %v", u.Payload())
	}
	if u.At() != 0 {
		t.Fatalf("expected zero timestamp, got %v", u.At())
	}
}
