// internal/service/message.go
package service

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"microblog/internal/model"
	"microblog/internal/storage"
)

// ErrMessageRejected is the single rejection signal for message create and
// update. Callers cannot tell a text validation failure from a missing
// posted_by account or a missing message id; the coarse signal is part of
// the service contract.
var ErrMessageRejected = errors.New("message rejected")

// ErrMessageNotFound is returned by lookups that match no message.
var ErrMessageNotFound = errors.New("message not found")

// MessageStore is the persistence surface the message service requires.
type MessageStore interface {
	InsertMessage(m *model.Message) (*model.Message, error)
	FindMessageByID(id int64) (*model.Message, error)
	ListMessages() ([]model.Message, error)
	UpdateMessageText(id int64, text string) (*model.Message, error)
	DeleteMessage(id int64) (bool, error)
}

// AccountFinder resolves posted_by references at message creation time.
type AccountFinder interface {
	FindAccountByID(id int64) (*model.Account, error)
}

type MessageService struct {
	messages MessageStore
	accounts AccountFinder
}

func NewMessageService(messages MessageStore, accounts AccountFinder) *MessageService {
	return &MessageService{messages: messages, accounts: accounts}
}

// CreateMessage validates the text and the posted_by reference, then
// persists the message and returns it with the assigned id.
func (s *MessageService) CreateMessage(candidate model.Message) (*model.Message, error) {
	if !messageTextIsValid(candidate.MessageText) {
		return nil, ErrMessageRejected
	}

	if _, err := s.accounts.FindAccountByID(candidate.PostedBy); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrMessageRejected
		}
		return nil, fmt.Errorf("failed to resolve posted_by account: %w", err)
	}

	created, err := s.messages.InsertMessage(&candidate)
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}
	return created, nil
}

// GetAllMessages returns every persisted message in store order.
func (s *MessageService) GetAllMessages() ([]model.Message, error) {
	messages, err := s.messages.ListMessages()
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	if messages == nil {
		messages = []model.Message{}
	}
	return messages, nil
}

func (s *MessageService) GetMessageByID(id int64) (*model.Message, error) {
	m, err := s.messages.FindMessageByID(id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("failed to find message: %w", err)
	}
	return m, nil
}

// DeleteMessageByID deletes the message if it exists and reports whether a
// row was removed. Deleting a missing id is a no-op, not an error.
func (s *MessageService) DeleteMessageByID(id int64) (bool, error) {
	deleted, err := s.messages.DeleteMessage(id)
	if err != nil {
		return false, fmt.Errorf("failed to delete message: %w", err)
	}
	return deleted, nil
}

// UpdateMessageByID replaces message_text on an existing message. The text
// is validated with the same rule as creation; posted_by and id are left
// untouched and posted_by is not re-validated.
func (s *MessageService) UpdateMessageByID(newText string, id int64) (*model.Message, error) {
	if _, err := s.messages.FindMessageByID(id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrMessageRejected
		}
		return nil, fmt.Errorf("failed to find message: %w", err)
	}

	if !messageTextIsValid(newText) {
		return nil, ErrMessageRejected
	}

	updated, err := s.messages.UpdateMessageText(id, newText)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrMessageRejected
		}
		return nil, fmt.Errorf("failed to update message: %w", err)
	}
	return updated, nil
}

// messageTextIsValid holds for non-blank text shorter than 255 characters.
// Length counts characters, not bytes, so multi-byte text is measured the
// same way the database column measures it.
func messageTextIsValid(text string) bool {
	return !isBlank(text) && utf8.RuneCountInString(text) < 255
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
