package service

import (
	"context"
	"testing"

	"github.com/chatwave/chatwave-backend/internal/models"
)

func newMessageFixture(isGroup bool, participantIDs ...uint) (*MessageService, *MockMessageRepository, *MockReceiptRepository, *fakePresence, *models.Chat) {
	chatRepo := NewMockChatRepository()
	messageRepo := NewMockMessageRepository()
	receiptRepo := NewMockReceiptRepository(messageRepo)
	pres := newFakePresence()

	participants := make([]models.User, 0, len(participantIDs))
	for _, id := range participantIDs {
		participants = append(participants, models.User{ID: id})
	}
	chat := &models.Chat{IsGroupChat: isGroup, Participants: participants}
	chatRepo.Create(chat)

	return NewMessageService(chatRepo, messageRepo, receiptRepo, pres), messageRepo, receiptRepo, pres, chat
}

func TestDispatchValidation(t *testing.T) {
	svc, _, _, _, chat := newMessageFixture(false, 1, 2)

	tests := []struct {
		name     string
		senderID uint
		input    SendMessageInput
		wantErr  error
	}{
		{"Missing chat id", 1, SendMessageInput{Content: "hi"}, ErrChatIDRequired},
		{"Blank text content", 1, SendMessageInput{ChatID: chat.ID, Content: "   "}, ErrContentRequired},
		{"File kind without url", 1, SendMessageInput{ChatID: chat.ID, MessageType: models.ImageMessage}, ErrFileURLRequired},
		{"Unknown type", 1, SendMessageInput{ChatID: chat.ID, MessageType: "carrier-pigeon", Content: "hi"}, ErrUnsupportedType},
		{"Outsider sender", 9, SendMessageInput{ChatID: chat.ID, Content: "hi"}, ErrNotParticipant},
		{"Unknown chat", 1, SendMessageInput{ChatID: 42, Content: "hi"}, ErrNotParticipant},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Dispatch(context.Background(), tt.senderID, tt.input)
			if err != tt.wantErr {
				t.Errorf("Dispatch error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDispatchPersistsMessage(t *testing.T) {
	svc, messageRepo, _, _, chat := newMessageFixture(false, 1, 2)

	result, err := svc.Dispatch(context.Background(), 1, SendMessageInput{
		ChatID:  chat.ID,
		Content: "  hello  ",
		TempID:  "temp-abc",
	})
	if err != nil {
		t.Fatalf("Dispatch error: %v", err)
	}
	if result.Message.Content != "hello" {
		t.Errorf("Content = %q, want trimmed %q", result.Message.Content, "hello")
	}
	if result.Message.MessageType != models.TextMessage {
		t.Errorf("MessageType = %q, want default text", result.Message.MessageType)
	}
	if result.TempID != "temp-abc" {
		t.Errorf("TempID = %q, want temp-abc", result.TempID)
	}
	if len(result.ParticipantIDs) != 2 {
		t.Errorf("ParticipantIDs = %v, want both participants", result.ParticipantIDs)
	}

	stored, err := messageRepo.FindByClientID("temp-abc", 1)
	if err != nil {
		t.Fatalf("message not persisted: %v", err)
	}
	if stored.Status != models.StatusSent {
		t.Errorf("Status = %q, want %q", stored.Status, models.StatusSent)
	}
}

func TestDispatchOnlineFastPath(t *testing.T) {
	svc, messageRepo, receiptRepo, pres, chat := newMessageFixture(false, 1, 2)
	pres.live[2] = 1

	result, err := svc.Dispatch(context.Background(), 1, SendMessageInput{ChatID: chat.ID, Content: "hi"})
	if err != nil {
		t.Fatalf("Dispatch error: %v", err)
	}

	if len(result.DeliveryUpdates) != 1 {
		t.Fatalf("DeliveryUpdates = %+v, want one", result.DeliveryUpdates)
	}
	u := result.DeliveryUpdates[0]
	if u.UserID != 2 || !u.DeliveredToAll {
		t.Errorf("update = %+v, want user 2 delivered-to-all", u)
	}

	delivered, _ := receiptRepo.Has(result.Message.ID, 2, models.ReceiptDelivered)
	if !delivered {
		t.Errorf("online recipient has no delivered receipt")
	}

	// Sole recipient online in a 1-on-1: coarse status advances too.
	msg, _ := messageRepo.FindByID(result.Message.ID)
	if msg.Status != models.StatusDelivered {
		t.Errorf("coarse status = %q, want %q", msg.Status, models.StatusDelivered)
	}
}

func TestDispatchOfflineRecipientsWait(t *testing.T) {
	svc, _, receiptRepo, _, chat := newMessageFixture(true, 1, 2, 3)

	result, err := svc.Dispatch(context.Background(), 1, SendMessageInput{ChatID: chat.ID, Content: "hi"})
	if err != nil {
		t.Fatalf("Dispatch error: %v", err)
	}
	if len(result.DeliveryUpdates) != 0 {
		t.Errorf("DeliveryUpdates = %+v, want none while everyone is offline", result.DeliveryUpdates)
	}
	for _, uid := range []uint{2, 3} {
		if ok, _ := receiptRepo.Has(result.Message.ID, uid, models.ReceiptDelivered); ok {
			t.Errorf("offline user %d acquired a receipt at send time", uid)
		}
	}
}

func TestDispatchPartiallyOnlineGroup(t *testing.T) {
	svc, _, _, pres, chat := newMessageFixture(true, 1, 2, 3)
	pres.live[3] = 2

	result, err := svc.Dispatch(context.Background(), 1, SendMessageInput{ChatID: chat.ID, Content: "hi"})
	if err != nil {
		t.Fatalf("Dispatch error: %v", err)
	}
	if len(result.DeliveryUpdates) != 1 {
		t.Fatalf("DeliveryUpdates = %+v, want one", result.DeliveryUpdates)
	}
	if u := result.DeliveryUpdates[0]; u.UserID != 3 || u.DeliveredToAll {
		t.Errorf("update = %+v, want user 3 without delivered-to-all", u)
	}
}

func TestDispatchDeduplicatesByTempID(t *testing.T) {
	svc, messageRepo, _, pres, chat := newMessageFixture(false, 1, 2)
	pres.live[2] = 1

	first, err := svc.Dispatch(context.Background(), 1, SendMessageInput{ChatID: chat.ID, Content: "hi", TempID: "temp-1"})
	if err != nil {
		t.Fatalf("Dispatch error: %v", err)
	}

	// Ack got lost, client resends with the same temp ID.
	second, err := svc.Dispatch(context.Background(), 1, SendMessageInput{ChatID: chat.ID, Content: "hi", TempID: "temp-1"})
	if err != nil {
		t.Fatalf("Dispatch retry error: %v", err)
	}
	if second.Message.ID != first.Message.ID {
		t.Errorf("retry persisted a new message: %d vs %d", second.Message.ID, first.Message.ID)
	}
	if len(second.DeliveryUpdates) != 0 {
		t.Errorf("retry produced delivery updates: %+v", second.DeliveryUpdates)
	}
	if len(messageRepo.messages) != 1 {
		t.Errorf("store holds %d messages, want 1", len(messageRepo.messages))
	}

	// Different temp ID from the same sender is a fresh message.
	third, err := svc.Dispatch(context.Background(), 1, SendMessageInput{ChatID: chat.ID, Content: "hi again", TempID: "temp-2"})
	if err != nil {
		t.Fatalf("Dispatch error: %v", err)
	}
	if third.Message.ID == first.Message.ID {
		t.Errorf("distinct temp ID reused message %d", first.Message.ID)
	}
}

func TestDispatchFileMessage(t *testing.T) {
	svc, _, _, _, chat := newMessageFixture(false, 1, 2)

	result, err := svc.Dispatch(context.Background(), 1, SendMessageInput{
		ChatID:      chat.ID,
		MessageType: models.ImageMessage,
		FileURL:     "/api/media/media/1/photo.jpg",
		FileName:    "photo.jpg",
		FileType:    "image/jpeg",
		FileSize:    1024,
	})
	if err != nil {
		t.Fatalf("Dispatch error: %v", err)
	}
	if result.Message.FileURL == "" || result.Message.FileSize != 1024 {
		t.Errorf("file fields not persisted: %+v", result.Message)
	}
}

func TestGetChatMessages(t *testing.T) {
	svc, messageRepo, _, _, chat := newMessageFixture(false, 1, 2)
	for i := 0; i < 3; i++ {
		messageRepo.Create(&models.Message{ChatID: chat.ID, SenderID: 1, Content: "m"})
	}

	messages, err := svc.GetChatMessages(1, chat.ID, nil, 0)
	if err != nil {
		t.Fatalf("GetChatMessages error: %v", err)
	}
	if len(messages) != 3 {
		t.Errorf("got %d messages, want 3", len(messages))
	}

	if _, err := svc.GetChatMessages(9, chat.ID, nil, 0); err != ErrNotParticipant {
		t.Errorf("outsider history read: err = %v, want %v", err, ErrNotParticipant)
	}
}

func TestGetByClientID(t *testing.T) {
	svc, messageRepo, _, _, chat := newMessageFixture(false, 1, 2)
	messageRepo.Create(&models.Message{ChatID: chat.ID, ClientID: "client-123", SenderID: 1, Content: "hi"})

	msg, err := svc.GetByClientID("client-123", 1)
	if err != nil {
		t.Fatalf("GetByClientID error: %v", err)
	}
	if msg.ClientID != "client-123" {
		t.Errorf("ClientID = %q, want client-123", msg.ClientID)
	}

	if _, err := svc.GetByClientID("missing", 1); err == nil {
		t.Errorf("expected error for unknown client id")
	}
}
