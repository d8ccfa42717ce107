package messaging

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/Bla-nqo/fundiconnect-builder/internal/models"
	"github.com/Bla-nqo/fundiconnect-builder/internal/realtime"
	"github.com/Bla-nqo/fundiconnect-builder/internal/repository"
)

var (
	ErrEmptyMessage      = errors.New("message content is required")
	ErrSelfMessage       = errors.New("cannot message yourself")
	ErrRecipientNotFound = errors.New("recipient not found")
	ErrMessageIDTaken    = errors.New("message id already used")
	ErrMessageTooLong    = errors.New("message is too long")
)

const maxContent = 4000

type SendInput struct {
	// ID lets the sender pick the row id so its optimistic copy and the
	// change-feed echo share one key.
	ID          *uuid.UUID
	RecipientID uuid.UUID
	JobID       *uuid.UUID
	Content     string
}

type Service struct {
	Store *repository.Store
	Pub   realtime.Publisher
}

func NewService(store *repository.Store, pub realtime.Publisher) *Service {
	return &Service{Store: store, Pub: pub}
}

// Send appends a message. Resending the same id from the same sender
// returns the stored row instead of failing.
func (s *Service) Send(ctx context.Context, senderID uuid.UUID, in SendInput) (*models.Message, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, ErrEmptyMessage
	}
	if len(content) > maxContent {
		return nil, ErrMessageTooLong
	}
	if in.RecipientID == senderID {
		return nil, ErrSelfMessage
	}
	if _, err := s.Store.Users.FindByID(ctx, in.RecipientID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRecipientNotFound
		}
		return nil, err
	}

	msg := &models.Message{
		SenderID:    senderID,
		RecipientID: in.RecipientID,
		JobID:       in.JobID,
		Content:     content,
	}
	if in.ID != nil {
		msg.ID = *in.ID
	}

	if err := s.Store.Messages.Create(ctx, msg); err != nil {
		if !errors.Is(err, repository.ErrDuplicate) || in.ID == nil {
			return nil, err
		}
		existing, ferr := s.Store.Messages.FindByID(ctx, *in.ID)
		if ferr != nil {
			return nil, ferr
		}
		if existing.SenderID != senderID || existing.RecipientID != in.RecipientID {
			return nil, ErrMessageIDTaken
		}
		return existing, nil
	}

	realtime.Emit(ctx, s.Pub, models.TableMessages, realtime.EventInsert, msg, nil)
	return msg, nil
}

// Conversation returns both directions between the two users, oldest first.
func (s *Service) Conversation(ctx context.Context, me, peer uuid.UUID) ([]models.Message, error) {
	return s.Store.Messages.Conversation(ctx, me, peer)
}
