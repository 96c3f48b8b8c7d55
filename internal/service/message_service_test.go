package service

import (
	"errors"
	"testing"

	"github.com/VanshGarg05/WhatsappWebClone/internal/testutil"
)

func TestSendMessage(t *testing.T) {
	t.Run("stores and returns the message", func(t *testing.T) {
		repo := newMockMessageRepo()
		svc := NewMessageService(repo)

		msg, err := svc.SendMessage(1, SendMessageInput{
			ReceiverID: 2,
			Content:    "hello",
			ClientID:   "c-1",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if msg.ID == 0 {
			t.Error("expected server-assigned ID")
		}
		if msg.IsRead {
			t.Error("new message must start unread")
		}
		if msg.ReadAt != nil {
			t.Error("new message must have nil read_at")
		}
		if msg.MessageType != "text" {
			t.Errorf("expected default type text, got %s", msg.MessageType)
		}
	})

	t.Run("repeated client_id returns the original row", func(t *testing.T) {
		repo := newMockMessageRepo()
		svc := NewMessageService(repo)

		first, err := svc.SendMessage(1, SendMessageInput{ReceiverID: 2, Content: "hello", ClientID: "c-1"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		second, err := svc.SendMessage(1, SendMessageInput{ReceiverID: 2, Content: "hello again", ClientID: "c-1"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if first.ID != second.ID {
			t.Errorf("expected dedup to return message %d, got %d", first.ID, second.ID)
		}
		if second.Content != "hello" {
			t.Errorf("expected original content, got %q", second.Content)
		}
		if len(repo.messages) != 1 {
			t.Errorf("expected 1 stored message, got %d", len(repo.messages))
		}
	})

	t.Run("same client_id from a different sender is a new message", func(t *testing.T) {
		repo := newMockMessageRepo()
		svc := NewMessageService(repo)

		first, _ := svc.SendMessage(1, SendMessageInput{ReceiverID: 2, Content: "a", ClientID: "c-1"})
		second, err := svc.SendMessage(3, SendMessageInput{ReceiverID: 2, Content: "b", ClientID: "c-1"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if first.ID == second.ID {
			t.Error("dedup must be scoped per sender")
		}
	})

	t.Run("missing receiver is rejected", func(t *testing.T) {
		svc := NewMessageService(newMockMessageRepo())
		if _, err := svc.SendMessage(1, SendMessageInput{Content: "hello"}); err == nil {
			t.Error("expected error for missing receiver")
		}
	})

	t.Run("self-send is rejected", func(t *testing.T) {
		svc := NewMessageService(newMockMessageRepo())
		if _, err := svc.SendMessage(1, SendMessageInput{ReceiverID: 1, Content: "hi me"}); err == nil {
			t.Error("expected error for self-send")
		}
	})

	t.Run("store failure surfaces", func(t *testing.T) {
		repo := newMockMessageRepo()
		repo.createErr = errors.New("db down")
		svc := NewMessageService(repo)

		if _, err := svc.SendMessage(1, SendMessageInput{ReceiverID: 2, Content: "hello"}); err == nil {
			t.Error("expected store error to surface")
		}
	})
}

func TestMarkMessageRead(t *testing.T) {
	setup := func(t *testing.T) (*MessageService, uint) {
		t.Helper()
		helper := testutil.NewTestHelper(t)
		repo := newMockMessageRepo()
		// Seed the store directly so the read path is tested in isolation
		// from the send path.
		msg := helper.CreateTestMessage(1, 1, 2, "hello")
		repo.messages[msg.ID] = msg
		repo.nextID = msg.ID + 1
		return NewMessageService(repo), msg.ID
	}

	t.Run("recipient transitions the message once", func(t *testing.T) {
		svc, msgID := setup(t)

		msg, transitioned, err := svc.MarkMessageRead(msgID, 2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !transitioned {
			t.Error("first mark must transition")
		}
		if !msg.IsRead || msg.ReadAt == nil {
			t.Error("expected is_read with read_at set")
		}

		again, transitioned, err := svc.MarkMessageRead(msgID, 2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if transitioned {
			t.Error("second mark must not transition")
		}
		if !again.IsRead {
			t.Error("message must stay read")
		}
		if !again.ReadAt.Equal(*msg.ReadAt) {
			t.Error("read_at must not change on repeat")
		}
	})

	t.Run("only the recipient may mark", func(t *testing.T) {
		svc, msgID := setup(t)
		if _, _, err := svc.MarkMessageRead(msgID, 1); err == nil {
			t.Error("sender must not mark own message read")
		}
		if _, _, err := svc.MarkMessageRead(msgID, 3); err == nil {
			t.Error("third party must not mark message read")
		}
	})

	t.Run("unknown message is not found", func(t *testing.T) {
		svc, _ := setup(t)
		if _, _, err := svc.MarkMessageRead(999, 2); !IsNotFound(err) {
			t.Errorf("expected not-found error, got %v", err)
		}
	})
}

func TestMarkConversationRead(t *testing.T) {
	repo := newMockMessageRepo()
	svc := NewMessageService(repo)

	for i := 0; i < 3; i++ {
		if _, err := svc.SendMessage(1, SendMessageInput{ReceiverID: 2, Content: "msg"}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	// One message in the other direction must be untouched.
	reverse, err := svc.SendMessage(2, SendMessageInput{ReceiverID: 1, Content: "reply"})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	transitioned, err := svc.MarkConversationRead(2, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(transitioned) != 3 {
		t.Fatalf("expected 3 transitioned messages, got %d", len(transitioned))
	}
	for _, m := range transitioned {
		if !m.IsRead || m.ReadAt == nil {
			t.Errorf("message %d not transitioned", m.ID)
		}
	}

	if got, _ := repo.FindByID(reverse.ID); got.IsRead {
		t.Error("messages toward the peer must not be transitioned")
	}

	again, err := svc.MarkConversationRead(2, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(again) != 0 {
		t.Errorf("second call must transition nothing, got %d", len(again))
	}
}

func TestUnreadCounts(t *testing.T) {
	repo := newMockMessageRepo()
	svc := NewMessageService(repo)

	for i := 0; i < 2; i++ {
		svc.SendMessage(1, SendMessageInput{ReceiverID: 3, Content: "from 1"})
	}
	svc.SendMessage(2, SendMessageInput{ReceiverID: 3, Content: "from 2"})

	rows, err := svc.UnreadCounts(3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	counts := make(map[uint]int64)
	for _, row := range rows {
		counts[row.SenderID] = row.Count
	}
	if counts[1] != 2 || counts[2] != 1 {
		t.Errorf("unexpected counts: %v", counts)
	}

	if _, err := svc.MarkConversationRead(3, 1); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	rows, _ = svc.UnreadCounts(3)
	counts = make(map[uint]int64)
	for _, row := range rows {
		counts[row.SenderID] = row.Count
	}
	if counts[1] != 0 || counts[2] != 1 {
		t.Errorf("counts after read: %v", counts)
	}
}

func TestGetConversationLimitClamp(t *testing.T) {
	repo := newMockMessageRepo()
	svc := NewMessageService(repo)
	for i := 0; i < 60; i++ {
		if _, err := svc.SendMessage(1, SendMessageInput{ReceiverID: 2, Content: "m"}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	msgs, err := svc.GetConversation(1, 2, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(msgs) != 50 {
		t.Errorf("limit 0 must clamp to 50, got %d", len(msgs))
	}

	msgs, _ = svc.GetConversation(1, 2, 500)
	if len(msgs) != 50 {
		t.Errorf("limit 500 must clamp to 50, got %d", len(msgs))
	}
}
