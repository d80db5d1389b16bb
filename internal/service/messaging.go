package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/neurobridge/portal-api/internal/apperr"
	"github.com/neurobridge/portal-api/internal/identity"
	"github.com/neurobridge/portal-api/internal/models"
	"github.com/neurobridge/portal-api/internal/repository"
)

// RecipientLookup resolves an opaque recipient id to an account, probing
// the role collections the same way the identity resolver does for token
// subjects. Satisfied by *identity.Resolver.
type RecipientLookup interface {
	Lookup(ctx context.Context, id identity.UserID) (*models.Account, error)
}

// SendDirectMessageInput is the caller-controlled part of a direct
// message. Sender fields are stamped from the authenticated identity, not
// the payload.
type SendDirectMessageInput struct {
	ThreadID    string   `json:"thread_id" binding:"required"`
	ChildID     string   `json:"child_id"`
	RecipientID string   `json:"recipient_id" binding:"required"`
	Content     string   `json:"content"`
	Attachments []string `json:"attachments"`
}

// MessageService implements the direct (1:1) messaging rules.
type MessageService struct {
	messages   repository.DirectMessageRepository
	recipients RecipientLookup
	logger     *zap.Logger
}

func NewMessageService(messages repository.DirectMessageRepository, recipients RecipientLookup, logger *zap.Logger) *MessageService {
	return &MessageService{messages: messages, recipients: recipients, logger: logger}
}

// Send stores a new direct message addressed to a resolvable, active
// recipient. The stored message starts unread, fully visible, with no
// reactions.
func (s *MessageService) Send(ctx context.Context, caller *identity.Identity, in SendDirectMessageInput) (*models.DirectMessage, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, apperr.New(apperr.InvalidArgument, "message content is required")
	}

	recipient, err := s.recipients.Lookup(ctx, identity.UserID(in.RecipientID))
	if err != nil {
		return nil, err
	}
	if recipient == nil {
		return nil, apperr.New(apperr.NotFound, "recipient not found")
	}

	attachments := in.Attachments
	if attachments == nil {
		attachments = []string{}
	}
	msg := &models.DirectMessage{
		ID:            uuid.NewString(),
		ThreadID:      in.ThreadID,
		ChildID:       in.ChildID,
		SenderID:      caller.ID,
		SenderName:    caller.Name,
		SenderRole:    caller.Role,
		RecipientID:   recipient.ID,
		RecipientName: recipient.Name,
		RecipientRole: recipient.Role,
		Content:       content,
		Attachments:   attachments,
		Timestamp:     time.Now().UTC(),
		Read:          false,
		Reactions:     map[string][]string{},
		DeletedFor:    []string{},
		IsDeleted:     false,
	}
	if err := s.messages.Insert(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// ListForUser returns userID's conversation history, newest first. Only
// the subject user and admins may read it. Globally deleted messages
// appear as tombstones (the stored content is already the placeholder);
// messages the user hid for themselves do not appear at all.
func (s *MessageService) ListForUser(ctx context.Context, caller *identity.Identity, userID string) ([]models.DirectMessage, error) {
	if caller.ID != userID && caller.Role != models.RoleAdmin {
		return nil, apperr.New(apperr.Forbidden, "not authorized to view these messages")
	}
	return s.messages.ListForUser(ctx, userID)
}

// UnreadCount counts the caller's visible unread messages.
func (s *MessageService) UnreadCount(ctx context.Context, caller *identity.Identity) (int64, error) {
	return s.messages.CountUnread(ctx, caller.ID)
}

// MarkRead flips the read flag. Only the designated recipient may call it;
// re-reading an already-read message succeeds without effect.
func (s *MessageService) MarkRead(ctx context.Context, caller *identity.Identity, messageID string) error {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg == nil || msg.IsDeleted {
		return apperr.New(apperr.NotFound, "message not found")
	}
	if msg.RecipientID != caller.ID {
		return apperr.New(apperr.Forbidden, "only the recipient can mark a message read")
	}
	if msg.Read {
		return nil
	}
	return s.messages.MarkRead(ctx, messageID)
}

// React toggles the caller's emoji reaction on a message they can see.
func (s *MessageService) React(ctx context.Context, caller *identity.Identity, messageID, emoji string) (map[string][]string, error) {
	if emoji == "" {
		return nil, apperr.New(apperr.InvalidArgument, "emoji is required")
	}

	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, apperr.New(apperr.NotFound, "message not found")
	}
	if !msg.VisibleToUser(caller.ID) {
		return nil, apperr.New(apperr.Forbidden, "message not accessible")
	}

	reactions, err := s.messages.ToggleReaction(ctx, messageID, emoji, caller.ID)
	if err != nil {
		return nil, err
	}
	if reactions == nil {
		return nil, apperr.New(apperr.NotFound, "message not found")
	}
	return reactions, nil
}

// Delete applies a deletion mode to a direct message.
//
// for_me hides the message for the caller only and is open to either
// conversation participant, the sender included. for_everyone belongs to
// the original sender alone — the opposite of the community rule, where
// authorship does not matter and role does.
func (s *MessageService) Delete(ctx context.Context, caller *identity.Identity, messageID, mode string) (string, error) {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return "", err
	}
	if msg == nil {
		return "", apperr.New(apperr.NotFound, "message not found")
	}
	if msg.IsDeleted {
		return "", apperr.New(apperr.AlreadyDeleted, "message already deleted")
	}

	switch mode {
	case DeleteForEveryone:
		if msg.SenderID != caller.ID {
			return "", apperr.New(apperr.Forbidden, "only the sender can delete a message for everyone")
		}
		if err := s.messages.MarkDeleted(ctx, messageID, time.Now().UTC()); err != nil {
			return "", err
		}
		return StatusDeletedForEveryone, nil

	case DeleteForMe:
		if !msg.Participant(caller.ID) {
			return "", apperr.New(apperr.Forbidden, "you are not part of this conversation")
		}
		if err := s.messages.HideFor(ctx, messageID, caller.ID); err != nil {
			return "", err
		}
		return StatusDeletedForMe, nil
	}

	return "", apperr.Newf(apperr.InvalidArgument, "unknown delete mode %q", mode)
}
