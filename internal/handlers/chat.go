package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Bla-nqo/fundiconnect-builder/internal/response"
	"github.com/Bla-nqo/fundiconnect-builder/internal/services/messaging"
)

type ChatHandler struct {
	Messages *messaging.Service
}

func NewChatHandler(svc *messaging.Service) *ChatHandler {
	return &ChatHandler{Messages: svc}
}

type SendMessageRequest struct {
	// ID is optional; clients send the id of their optimistic copy.
	ID          string `json:"id" validate:"omitempty,uuid"`
	RecipientID string `json:"recipient_id" validate:"required,uuid"`
	JobID       string `json:"job_id" validate:"omitempty,uuid"`
	Content     string `json:"content" validate:"required"`
}

// GetMessages returns the conversation with :peer, oldest first.
func (h *ChatHandler) GetMessages(c *fiber.Ctx) error {
	sess, err := currentSession(c)
	if sess == nil {
		return err
	}
	peer, ok, err := paramUUID(c, "peer")
	if !ok {
		return err
	}
	list, err := h.Messages.Conversation(c.UserContext(), sess.UserID, peer)
	if err != nil {
		return fail(c, err)
	}
	return response.OK(c, "OK", list)
}

func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	sess, err := currentSession(c)
	if sess == nil {
		return err
	}
	var req SendMessageRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	in := messaging.SendInput{
		RecipientID: uuid.MustParse(req.RecipientID),
		Content:     req.Content,
	}
	if req.ID != "" {
		id := uuid.MustParse(req.ID)
		in.ID = &id
	}
	if req.JobID != "" {
		jid := uuid.MustParse(req.JobID)
		in.JobID = &jid
	}

	msg, err := h.Messages.Send(c.UserContext(), sess.UserID, in)
	if err != nil {
		return fail(c, err)
	}
	return response.Created(c, "Message sent", msg)
}
