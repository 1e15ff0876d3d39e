package service

import (
	"log"

	"github.com/chatwave/chatwave-backend/internal/models"
	"github.com/chatwave/chatwave-backend/internal/repository"
)

// CompleteForAllOthers reports whether every participant other than the
// sender appears in statusSet. Vacuously true when no others remain (a chat
// reduced to one participant after leaves). Delivery and read aggregation
// both go through here; there is no per-kind special casing.
func CompleteForAllOthers(statusSet, participants []uint, senderID uint) bool {
	have := make(map[uint]bool, len(statusSet))
	for _, id := range statusSet {
		have[id] = true
	}
	for _, pid := range participants {
		if pid == senderID {
			continue
		}
		if !have[pid] {
			return false
		}
	}
	return true
}

// DeliveryUpdate describes one advancement of a message's delivered set.
type DeliveryUpdate struct {
	ChatID         uint
	MessageID      uint
	UserID         uint
	DeliveredToAll bool
}

// ReadUpdate describes the outcome of one markMessagesAsRead batch.
type ReadUpdate struct {
	ChatID     uint
	ReaderID   uint
	MessageIDs []uint
	ReadByAll  []uint
	Modified   int
}

// StatusService owns the per-message delivered/read protocol: atomic receipt
// additions, aggregate recomputation, and the connect-time catch-up scan.
type StatusService struct {
	chatRepo    repository.ChatRepositoryInterface
	messageRepo repository.MessageRepositoryInterface
	receiptRepo repository.ReceiptRepositoryInterface
}

func NewStatusService(chatRepo repository.ChatRepositoryInterface, messageRepo repository.MessageRepositoryInterface, receiptRepo repository.ReceiptRepositoryInterface) *StatusService {
	return &StatusService{
		chatRepo:    chatRepo,
		messageRepo: messageRepo,
		receiptRepo: receiptRepo,
	}
}

// MarkDelivered records that the message reached one of userID's clients.
// Returns nil when nothing changed (already delivered, own message, missing
// message), so callers know not to rebroadcast.
func (s *StatusService) MarkDelivered(chatID, messageID, userID uint) (*DeliveryUpdate, error) {
	chat, err := s.chatRepo.FindByID(chatID)
	if err != nil || !chat.HasParticipant(userID) {
		return nil, ErrNotParticipant
	}
	message, err := s.messageRepo.FindByID(messageID)
	if err != nil {
		// Unknown message: nothing to record or rebroadcast.
		return nil, nil
	}
	// A receipt must not land on, or broadcast into, a chat the message does
	// not belong to.
	if message.ChatID != chatID {
		return nil, ErrNotParticipant
	}

	added, err := s.receiptRepo.Add(messageID, userID, models.ReceiptDelivered)
	if err != nil {
		return nil, err
	}
	if !added {
		return nil, nil
	}

	delivered, err := s.receiptRepo.UserIDs(messageID, models.ReceiptDelivered)
	if err != nil {
		return nil, err
	}

	deliveredToAll := CompleteForAllOthers(delivered, chat.ParticipantIDs(), message.SenderID)
	s.projectCoarseStatus(chat, messageID, deliveredToAll, models.StatusDelivered)

	return &DeliveryUpdate{
		ChatID:         chatID,
		MessageID:      messageID,
		UserID:         userID,
		DeliveredToAll: deliveredToAll,
	}, nil
}

// MarkMessagesRead processes one read batch. Messages sent by the reader or
// already read are skipped inside the atomic insert; reading does not imply
// a delivered receipt.
func (s *StatusService) MarkMessagesRead(chatID, readerID uint, messageIDs []uint) (*ReadUpdate, error) {
	if chatID == 0 || len(messageIDs) == 0 {
		return nil, ErrMessagesRequired
	}

	chat, err := s.chatRepo.FindByID(chatID)
	if err != nil || !chat.HasParticipant(readerID) {
		return nil, ErrNotParticipant
	}

	touched, err := s.receiptRepo.AddBatch(chatID, readerID, messageIDs, models.ReceiptRead)
	if err != nil {
		return nil, err
	}

	update := &ReadUpdate{
		ChatID:     chatID,
		ReaderID:   readerID,
		MessageIDs: messageIDs,
		Modified:   len(touched),
	}
	if len(touched) == 0 {
		return update, nil
	}

	// Recompute the aggregate for every message the batch named, not only the
	// ones this reader newly touched: a message the reader had a receipt for
	// already may be complete through other readers and still belongs in the
	// broadcast.
	receipts, err := s.receiptRepo.ListByMessages(messageIDs, models.ReceiptRead)
	if err != nil {
		return nil, err
	}
	readersByMessage := make(map[uint][]uint)
	for _, r := range receipts {
		readersByMessage[r.MessageID] = append(readersByMessage[r.MessageID], r.UserID)
	}

	participants := chat.ParticipantIDs()
	for _, messageID := range messageIDs {
		message, err := s.messageRepo.FindByID(messageID)
		if err != nil || message.ChatID != chatID {
			continue
		}
		if CompleteForAllOthers(readersByMessage[messageID], participants, message.SenderID) {
			update.ReadByAll = append(update.ReadByAll, messageID)
			s.projectCoarseStatus(chat, messageID, true, models.StatusRead)
		}
	}

	return update, nil
}

// DeliveryCatchUp scans a chat for messages the user never acquired a
// delivered receipt for and advances each one. Run for every chat on every
// connect; it is what converges recipients that were offline at send time.
func (s *StatusService) DeliveryCatchUp(chat *models.Chat, userID uint) ([]DeliveryUpdate, error) {
	undelivered, err := s.messageRepo.FindUndeliveredForUser(chat.ID, userID)
	if err != nil {
		return nil, err
	}

	participants := chat.ParticipantIDs()
	var updates []DeliveryUpdate
	for i := range undelivered {
		message := &undelivered[i]
		added, err := s.receiptRepo.Add(message.ID, userID, models.ReceiptDelivered)
		if err != nil {
			log.Printf("catchup: receipt add failed chat_id=%d message_id=%d user_id=%d: %v", chat.ID, message.ID, userID, err)
			continue
		}
		if !added {
			continue
		}

		delivered, err := s.receiptRepo.UserIDs(message.ID, models.ReceiptDelivered)
		if err != nil {
			log.Printf("catchup: receipt load failed message_id=%d: %v", message.ID, err)
			continue
		}
		deliveredToAll := CompleteForAllOthers(delivered, participants, message.SenderID)
		s.projectCoarseStatus(chat, message.ID, deliveredToAll, models.StatusDelivered)

		updates = append(updates, DeliveryUpdate{
			ChatID:         chat.ID,
			MessageID:      message.ID,
			UserID:         userID,
			DeliveredToAll: deliveredToAll,
		})
	}

	return updates, nil
}

// projectCoarseStatus maintains the single-recipient status column. It is a
// convenience projection for 1-on-1 chats only; group truth stays in the
// receipt sets.
func (s *StatusService) projectCoarseStatus(chat *models.Chat, messageID uint, completeForAll bool, status models.MessageStatus) {
	if chat.IsGroupChat || !completeForAll {
		return
	}
	if err := s.messageRepo.UpdateStatus(messageID, status); err != nil {
		log.Printf("status projection failed message_id=%d: %v", messageID, err)
	}
}
