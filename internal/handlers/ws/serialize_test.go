package ws

import (
	"bytes"
	"testing"
)

func TestSerializeRoundTrip(t *testing.T) {
	original := &MessageSend{
		ChatID:  42,
		Content: "hello",
		TempID:  "temp-1",
	}

	data, err := Serialize(original)
	if err != nil {
		t.Fatalf("Serialize error: %v", err)
	}

	decoded, err := Deserialize(data)
	if err != nil {
		t.Fatalf("Deserialize error: %v", err)
	}

	send, ok := decoded.(*MessageSend)
	if !ok {
		t.Fatalf("Deserialize returned %T, want *MessageSend", decoded)
	}
	if send.ChatID != 42 || send.Content != "hello" || send.TempID != "temp-1" {
		t.Errorf("round trip lost fields: %+v", send)
	}
}

func TestDeserializeUnknownType(t *testing.T) {
	if _, err := Deserialize([]byte(`{"type":"launchMissiles","payload":{}}`)); err == nil {
		t.Errorf("unknown message type accepted")
	}
}

func TestDeserializeInvalidJSON(t *testing.T) {
	if _, err := Deserialize([]byte(`{not json`)); err == nil {
		t.Errorf("malformed frame accepted")
	}
}

func TestTypeRegistryCoversProtocol(t *testing.T) {
	expected := []string{
		"joinChat",
		"leaveChat",
		"sendMessage",
		"markMessagesAsRead",
		"messageDeliveredToClient",
		"typingStart",
		"typingStop",
		"ping",
		"pong",
	}

	registry := GetTypeRegistry()
	for _, name := range expected {
		if _, ok := registry[name]; !ok {
			t.Errorf("message type %q not registered", name)
		}
	}
	if len(registry) != len(expected) {
		t.Errorf("registry has %d types, want %d", len(registry), len(expected))
	}
}

func TestCompressDecompress(t *testing.T) {
	payload := bytes.Repeat([]byte("chat frames compress well "), 100)

	compressed, err := CompressMessage(payload)
	if err != nil {
		t.Fatalf("CompressMessage error: %v", err)
	}
	if len(compressed) >= len(payload) {
		t.Errorf("compressed size %d >= original %d", len(compressed), len(payload))
	}

	decompressed, err := DecompressMessage(compressed)
	if err != nil {
		t.Fatalf("DecompressMessage error: %v", err)
	}
	if !bytes.Equal(decompressed, payload) {
		t.Errorf("round trip corrupted payload")
	}
}

func TestDecompressRejectsGarbage(t *testing.T) {
	if _, err := DecompressMessage([]byte("definitely not gzip")); err == nil {
		t.Errorf("garbage accepted as gzip")
	}
}
