package protocol

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNewMessage(t *testing.T) {
	payload := BotStatusPayload{
		ConfigID: 1,
		Status:   "online",
		Uptime:   120,
	}

	msg, err := NewMessage(TypeBotStatus, payload)
	if err != nil {
		t.Fatalf("NewMessage failed: %v", err)
	}

	if msg.Type != TypeBotStatus {
		t.Errorf("expected type %s, got %s", TypeBotStatus, msg.Type)
	}

	if msg.Timestamp.IsZero() {
		t.Error("expected non-zero timestamp")
	}

	var p BotStatusPayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if p.ConfigID != 1 {
		t.Errorf("expected configId 1, got %d", p.ConfigID)
	}
	if p.Uptime != 120 {
		t.Errorf("expected uptime 120, got %d", p.Uptime)
	}
}

func TestValidateClientMessage_ValidBotStart(t *testing.T) {
	msg := map[string]interface{}{
		"type":      TypeBotStart,
		"payload":   map[string]interface{}{"configId": 1},
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	}
	data, _ := json.Marshal(msg)

	result, err := ValidateClientMessage(data)
	if err != nil {
		t.Fatalf("expected valid message, got error: %v", err)
	}
	if result.Type != TypeBotStart {
		t.Errorf("expected type %s, got %s", TypeBotStart, result.Type)
	}
}

func TestValidateClientMessage_ValidBotStop(t *testing.T) {
	msg := map[string]interface{}{
		"type":      TypeBotStop,
		"payload":   map[string]interface{}{"configId": 2, "forced": true},
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	}
	data, _ := json.Marshal(msg)

	result, err := ValidateClientMessage(data)
	if err != nil {
		t.Fatalf("expected valid message, got error: %v", err)
	}

	var p BotStopPayload
	if err := json.Unmarshal(result.Payload, &p); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if !p.Forced {
		t.Error("expected forced to be true")
	}
}

func TestValidateClientMessage_ValidBotChat(t *testing.T) {
	msg := map[string]interface{}{
		"type":      TypeBotChat,
		"payload":   map[string]interface{}{"configId": 1, "message": "hello"},
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	}
	data, _ := json.Marshal(msg)

	_, err := ValidateClientMessage(data)
	if err != nil {
		t.Fatalf("expected valid message, got error: %v", err)
	}
}

func TestValidateClientMessage_InvalidJSON(t *testing.T) {
	_, err := ValidateClientMessage([]byte("not json"))
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestValidateClientMessage_MissingType(t *testing.T) {
	msg := map[string]interface{}{
		"payload":   map[string]interface{}{},
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	}
	data, _ := json.Marshal(msg)

	_, err := ValidateClientMessage(data)
	if err == nil {
		t.Fatal("expected error for missing type")
	}
}

func TestValidateClientMessage_UnknownType(t *testing.T) {
	msg := map[string]interface{}{
		"type":      "unknown.action",
		"payload":   map[string]interface{}{},
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	}
	data, _ := json.Marshal(msg)

	_, err := ValidateClientMessage(data)
	if err == nil {
		t.Fatal("expected error for unknown type")
	}
}

func TestValidateClientMessage_MissingPayload(t *testing.T) {
	data := []byte(`{"type":"bot.start","timestamp":"2024-01-01T00:00:00.000Z"}`)

	_, err := ValidateClientMessage(data)
	if err == nil {
		t.Fatal("expected error for missing payload")
	}
}

func TestValidateClientMessage_MissingConfigID(t *testing.T) {
	msg := map[string]interface{}{
		"type":      TypeBotStart,
		"payload":   map[string]interface{}{},
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	}
	data, _ := json.Marshal(msg)

	_, err := ValidateClientMessage(data)
	if err == nil {
		t.Fatal("expected error for missing configId")
	}
}

func TestValidateClientMessage_MissingChatMessage(t *testing.T) {
	msg := map[string]interface{}{
		"type":      TypeBotChat,
		"payload":   map[string]interface{}{"configId": 1},
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	}
	data, _ := json.Marshal(msg)

	_, err := ValidateClientMessage(data)
	if err == nil {
		t.Fatal("expected error for missing chat message")
	}
}

func TestValidateClientMessage_RestartValid(t *testing.T) {
	msg := map[string]interface{}{
		"type":      TypeBotRestart,
		"payload":   map[string]interface{}{"configId": 3},
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	}
	data, _ := json.Marshal(msg)

	_, err := ValidateClientMessage(data)
	if err != nil {
		t.Fatalf("expected valid message, got error: %v", err)
	}
}

func TestNewErrorMessage(t *testing.T) {
	msg, err := NewErrorMessage(ErrConfigNotFound, "config 42 not found")
	if err != nil {
		t.Fatalf("NewErrorMessage failed: %v", err)
	}
	if msg.Type != TypeError {
		t.Errorf("expected type %s, got %s", TypeError, msg.Type)
	}

	var p ErrorPayload
	json.Unmarshal(msg.Payload, &p)
	if p.Code != ErrConfigNotFound {
		t.Errorf("expected code %s, got %s", ErrConfigNotFound, p.Code)
	}
}
