package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	if buf.Len() == 0 {
		t.Fatal("no output produced")
	}
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log output: %v", err)
	}
	return entry
}

func newJSONAdapter(buf *bytes.Buffer) *SlogAdapter {
	handler := slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return NewSlogAdapter(slog.New(handler))
}

func TestSlogAdapterLogsExchange(t *testing.T) {
	var buf bytes.Buffer
	adapter := newJSONAdapter(&buf)

	adapter.Log(Event{
		Timestamp:  time.Now(),
		PassID:     "pass-1",
		Direction:  DirectionIn,
		Layer:      LayerAPI,
		Category:   CategoryMessage,
		DeviceAddr: "10.1.1.4",
		Exchange: &ExchangeEvent{
			Type:       MessageTypeResponse,
			Endpoint:   "/api/curtail",
			Target:     "sleep",
			StatusCode: 200,
			Message:    "Miner curtailed.",
			Outcome:    "APPLIED",
		},
	})

	entry := decodeLine(t, &buf)
	checks := map[string]any{
		"pass_id":   "pass-1",
		"device":    "10.1.1.4",
		"direction": "IN",
		"layer":     "API",
		"endpoint":  "/api/curtail",
		"status":    float64(200),
		"outcome":   "APPLIED",
	}
	for key, want := range checks {
		if entry[key] != want {
			t.Errorf("%s: got %v, want %v", key, entry[key], want)
		}
	}
}

func TestSlogAdapterLogsStateChange(t *testing.T) {
	var buf bytes.Buffer
	adapter := newJSONAdapter(&buf)

	adapter.Log(Event{
		Timestamp:  time.Now(),
		Direction:  DirectionLocal,
		Layer:      LayerFleet,
		Category:   CategoryState,
		DeviceAddr: "10.1.1.1",
		StateChange: &StateChangeEvent{
			Field:    StateFieldMode,
			OldState: "sleep",
			NewState: "active",
			Reason:   "profile change requires active mode",
		},
	})

	entry := decodeLine(t, &buf)
	if entry["field"] != "MODE" {
		t.Errorf("field: got %v", entry["field"])
	}
	if entry["old_state"] != "sleep" || entry["new_state"] != "active" {
		t.Errorf("states: got %v -> %v", entry["old_state"], entry["new_state"])
	}
	if _, ok := entry["pass_id"]; ok {
		t.Error("pass_id present for event without pass")
	}
}

func TestSlogAdapterLogsError(t *testing.T) {
	var buf bytes.Buffer
	adapter := newJSONAdapter(&buf)

	code := 401
	adapter.Log(Event{
		Timestamp: time.Now(),
		Layer:     LayerFleet,
		Category:  CategoryError,
		Error: &ErrorEventData{
			Layer:   LayerFleet,
			Message: "session expired",
			Code:    &code,
			Context: "profile overclock",
		},
	})

	entry := decodeLine(t, &buf)
	if entry["error_msg"] != "session expired" {
		t.Errorf("error_msg: got %v", entry["error_msg"])
	}
	if entry["error_code"] != float64(401) {
		t.Errorf("error_code: got %v", entry["error_code"])
	}
}

func TestSlogAdapterRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	NewSlogAdapter(slog.New(handler)).Log(Event{Timestamp: time.Now()})

	if buf.Len() != 0 {
		t.Errorf("debug event written at info level: %s", buf.String())
	}
}
