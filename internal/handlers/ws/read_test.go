package ws

import (
	"encoding/json"
	"testing"
)

// seedMessage stores one unread message from user 1 to user 2.
func seedMessage(t *testing.T, f *processFixture) uint {
	t.Helper()
	frame := &MessageChat{ReceiverID: 2, Content: "hello", ClientID: "seed"}
	if err := frame.Process(f.ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}
	for id := range f.repo.messages {
		return id
	}
	t.Fatal("no message stored")
	return 0
}

// readerContext returns a context acting as user 2, the recipient.
func readerContext(f *processFixture) *MessageContext {
	return &MessageContext{
		UserID:         2,
		Username:       "bob",
		Conn:           &ClientConnection{Conn: f.peerConn, UserID: 2, Username: "bob"},
		Hub:            f.hub,
		MessageService: f.ctx.MessageService,
	}
}

func TestMarkReadFramePushesReceiptOnce(t *testing.T) {
	f := newProcessFixture(t)
	msgID := seedMessage(t, f)
	reader := readerContext(f)

	frame := &MessageMarkRead{MessageID: msgID}
	if err := frame.Process(reader); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	receipts := 0
	for _, ev := range f.senderConn.events(t) {
		if ev.Type != EventMessageRead {
			continue
		}
		receipts++
		var payload ReadReceiptPayload
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			t.Fatalf("bad receipt payload: %v", err)
		}
		if payload.MessageID != msgID || payload.ReadBy != 2 || payload.ReadAt.IsZero() {
			t.Errorf("unexpected receipt: %+v", payload)
		}
	}
	if receipts != 1 {
		t.Fatalf("expected 1 receipt, got %d", receipts)
	}

	// Repeat must not push a second receipt.
	if err := frame.Process(reader); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if countType(f.senderConn.eventTypes(t), EventMessageRead) != 1 {
		t.Error("repeated mark must not push a duplicate receipt")
	}
}

func TestMarkReadFrameWrongReader(t *testing.T) {
	f := newProcessFixture(t)
	msgID := seedMessage(t, f)

	// The sender tries to mark its own message read.
	frame := &MessageMarkRead{MessageID: msgID}
	if err := frame.Process(f.ctx); err != nil {
		t.Fatalf("rejection goes to the client, not the caller: %v", err)
	}
	if countType(f.senderConn.eventTypes(t), EventError) != 1 {
		t.Error("non-recipient must get an error event")
	}
	if stored, _ := f.repo.FindByID(msgID); stored.IsRead {
		t.Error("message must stay unread")
	}
}

func TestMarkConversationReadFrame(t *testing.T) {
	f := newProcessFixture(t)
	for i := 0; i < 3; i++ {
		frame := &MessageChat{ReceiverID: 2, Content: "msg"}
		if err := frame.Process(f.ctx); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	reader := readerContext(f)

	frame := &MessageMarkConversationRead{PeerID: 1}
	if err := frame.Process(reader); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := countType(f.senderConn.eventTypes(t), EventMessageRead); got != 3 {
		t.Errorf("expected 3 receipts to the original sender, got %d", got)
	}

	acks := 0
	for _, ev := range f.peerConn.events(t) {
		if ev.Type != EventConversationRead {
			continue
		}
		acks++
		var payload ConversationReadPayload
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			t.Fatalf("bad ack payload: %v", err)
		}
		if payload.PeerID != 1 || payload.Count != 3 {
			t.Errorf("unexpected ack: %+v", payload)
		}
	}
	if acks != 1 {
		t.Fatalf("expected 1 conversationRead ack, got %d", acks)
	}

	// Second bulk mark: count 0, no further receipts.
	if err := frame.Process(reader); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if countType(f.senderConn.eventTypes(t), EventMessageRead) != 3 {
		t.Error("repeat must push no further receipts")
	}
}

func TestTypingFrames(t *testing.T) {
	f := newProcessFixture(t)

	typing := &MessageTyping{ReceiverID: 2}
	if err := typing.Process(f.ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stop := &MessageStopTyping{ReceiverID: 2}
	if err := stop.Process(f.ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var payloads []TypingPayload
	for _, ev := range f.peerConn.events(t) {
		if ev.Type != EventUserTyping {
			continue
		}
		var p TypingPayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			t.Fatalf("bad typing payload: %v", err)
		}
		payloads = append(payloads, p)
	}
	if len(payloads) != 2 {
		t.Fatalf("expected 2 typing events, got %d", len(payloads))
	}
	if !payloads[0].IsTyping || payloads[1].IsTyping {
		t.Errorf("expected typing then stop, got %+v", payloads)
	}

	// Typing toward an offline peer is dropped silently.
	f.hub.Unregister(2, f.peerConn)
	if err := typing.Process(f.ctx); err != nil {
		t.Errorf("typing to offline peer must not error: %v", err)
	}
}

func TestDeserializeRoutesFrames(t *testing.T) {
	raw := []byte(`{"type":"sendMessage","payload":{"receiver_id":2,"content":"hi"}}`)
	msg, err := Deserialize(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	chat, ok := msg.(*MessageChat)
	if !ok {
		t.Fatalf("expected *MessageChat, got %T", msg)
	}
	if chat.ReceiverID != 2 || chat.Content != "hi" {
		t.Errorf("unexpected decode: %+v", chat)
	}

	if _, err := Deserialize([]byte(`{"type":"noSuchFrame"}`)); err == nil {
		t.Error("unknown frame type must be rejected")
	}
	if _, err := Deserialize([]byte(`not json`)); err == nil {
		t.Error("malformed frame must be rejected")
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	original := &MessageMarkRead{MessageID: 7, SenderID: 1}
	raw, err := Serialize(original)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msg, err := Deserialize(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	decoded, ok := msg.(*MessageMarkRead)
	if !ok {
		t.Fatalf("expected *MessageMarkRead, got %T", msg)
	}
	if decoded.MessageID != 7 || decoded.SenderID != 1 {
		t.Errorf("unexpected decode: %+v", decoded)
	}
}

func TestTypeRegistryCoversFrames(t *testing.T) {
	registry := GetTypeRegistry()
	for _, frameType := range []string{
		"sendMessage",
		"markAsRead",
		"markConversationRead",
		"typing",
		"stopTyping",
		"ping",
		"pong",
	} {
		if _, ok := registry[frameType]; !ok {
			t.Errorf("frame type %q not registered", frameType)
		}
	}
}
