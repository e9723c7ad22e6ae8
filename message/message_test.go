package message

import (
	"testing"
)

func TestParse(t *testing.T) {
	msg, err := Parse(`{"event":"update","count":3,"nested":{"ok":true}}`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if msg["event"] != "update" {
		t.Errorf("event mismatch: got %v, want update", msg["event"])
	}
	if msg["count"] != float64(3) {
		t.Errorf("count mismatch: got %v, want 3", msg["count"])
	}
	nested, ok := msg["nested"].(map[string]any)
	if !ok || nested["ok"] != true {
		t.Errorf("nested object mismatch: got %v", msg["nested"])
	}
}

func TestParseRejectsNonObjects(t *testing.T) {
	for _, text := range []string{`[1,2]`, `"hello"`, `42`, `true`, ``} {
		if _, err := Parse(text); err == nil {
			t.Errorf("Parse(%q) should fail: the wire only carries objects", text)
		}
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	original := Message{"cmd": "ping", "id": float64(7)}

	text, err := original.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	decoded, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if decoded["cmd"] != "ping" || decoded["id"] != float64(7) {
		t.Errorf("round trip mismatch: got %v, want %v", decoded, original)
	}
}
