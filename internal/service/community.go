package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/neurobridge/portal-api/internal/apperr"
	"github.com/neurobridge/portal-api/internal/identity"
	"github.com/neurobridge/portal-api/internal/models"
	"github.com/neurobridge/portal-api/internal/repository"
)

// DefaultCommunityName identifies the built-in support community. Its
// broadcast is restricted: parents read and react, therapists and the
// system post. Ordinary communities carry no such restriction.
const (
	DefaultCommunityName        = "Parent Support Community"
	defaultCommunityDescription = "A safe space for parents to connect, share experiences, and support each other."

	systemSenderID = "system"
)

// Delete statuses returned alongside nil errors.
const (
	StatusDeletedForMe       = "deleted_for_me"
	StatusDeletedForEveryone = "deleted_for_everyone"
)

// Delete modes accepted by both message kinds.
const (
	DeleteForMe       = "for_me"
	DeleteForEveryone = "for_everyone"
)

// CommunityMessagePage is one page of a community feed, oldest-first.
type CommunityMessagePage struct {
	Messages []models.CommunityMessage `json:"messages"`
	Total    int64                     `json:"total"`
	Limit    int                       `json:"limit"`
	Offset   int                       `json:"offset"`
	HasMore  bool                      `json:"has_more"`
}

type JoinResult struct {
	AlreadyMember bool `json:"already_member"`
}

type CommunityService struct {
	communities repository.CommunityRepository
	messages    repository.CommunityMessageRepository
	accounts    repository.AccountRepository
	logger      *zap.Logger
}

func NewCommunityService(
	communities repository.CommunityRepository,
	messages repository.CommunityMessageRepository,
	accounts repository.AccountRepository,
	logger *zap.Logger,
) *CommunityService {
	return &CommunityService{
		communities: communities,
		messages:    messages,
		accounts:    accounts,
		logger:      logger,
	}
}

func broadcastRestricted(c *models.Community) bool {
	return c.Name == DefaultCommunityName
}

// GetOrCreateDefault returns the default support community, creating it on
// first access. The unique name index makes concurrent first callers
// converge: the losing insert gets a duplicate-key error and re-reads, so
// exactly one document and one welcome message ever exist.
func (s *CommunityService) GetOrCreateDefault(ctx context.Context) (*models.Community, error) {
	community, err := s.communities.GetByName(ctx, DefaultCommunityName)
	if err != nil {
		return nil, err
	}
	if community != nil {
		return community, nil
	}

	now := time.Now().UTC()
	community = &models.Community{
		ID:          uuid.NewString(),
		Name:        DefaultCommunityName,
		Description: defaultCommunityDescription,
		CreatedBy:   systemSenderID,
		MemberIDs:   []string{},
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.communities.Insert(ctx, community)
	if errors.Is(err, repository.ErrDuplicate) {
		return s.communities.GetByName(ctx, DefaultCommunityName)
	}
	if err != nil {
		return nil, err
	}

	s.postSystemMessage(ctx, community.ID, "NeuroBridge Team",
		"Welcome to the Parent Support Community! 🎉 This is a safe space for you to connect with other parents.")

	s.logger.Info("default community created", zap.String("community_id", community.ID))
	return community, nil
}

// Get returns a community by id.
func (s *CommunityService) Get(ctx context.Context, communityID string) (*models.Community, error) {
	community, err := s.communities.GetByID(ctx, communityID)
	if err != nil {
		return nil, err
	}
	if community == nil {
		return nil, apperr.New(apperr.NotFound, "community not found")
	}
	return community, nil
}

// List returns all active communities. Therapist-only.
func (s *CommunityService) List(ctx context.Context, caller *identity.Identity) ([]models.Community, error) {
	if caller.Role != models.RoleTherapist {
		return nil, apperr.New(apperr.Forbidden, "only therapists can list communities")
	}
	return s.communities.ListActive(ctx)
}

// Join adds the calling parent to the community. A repeat join reports
// AlreadyMember without mutating anything or posting a welcome message.
func (s *CommunityService) Join(ctx context.Context, communityID string, caller *identity.Identity) (*JoinResult, error) {
	if caller.Role != models.RoleParent {
		return nil, apperr.New(apperr.Forbidden, "only parents can join communities")
	}

	community, err := s.Get(ctx, communityID)
	if err != nil {
		return nil, err
	}

	added, err := s.communities.AddMember(ctx, community.ID, caller.ID)
	if err != nil {
		return nil, err
	}
	if !added {
		return &JoinResult{AlreadyMember: true}, nil
	}

	s.postSystemMessage(ctx, community.ID, "Community",
		fmt.Sprintf("Welcome %s to the %s! 👋", caller.Name, community.Name))

	return &JoinResult{AlreadyMember: false}, nil
}

// Leave removes the calling parent from the community. Leaving a community
// you are not in is a no-op, not an error.
func (s *CommunityService) Leave(ctx context.Context, communityID string, caller *identity.Identity) error {
	if caller.Role != models.RoleParent {
		return apperr.New(apperr.Forbidden, "only parents can leave communities")
	}

	community, err := s.Get(ctx, communityID)
	if err != nil {
		return err
	}

	_, err = s.communities.RemoveMember(ctx, community.ID, caller.ID)
	return err
}

// Members resolves the community's member ids to parent accounts.
func (s *CommunityService) Members(ctx context.Context, communityID string) ([]models.Account, error) {
	community, err := s.Get(ctx, communityID)
	if err != nil {
		return nil, err
	}
	return s.accounts.FindManyByIDs(ctx, models.RoleParent, community.MemberIDs)
}

// SendMessage posts to a community feed.
//
// Authorization runs before any side effect: a parent rejected by the
// broadcast restriction is NOT auto-joined. Auto-join happens only on
// sends that are going to succeed.
func (s *CommunityService) SendMessage(ctx context.Context, communityID string, caller *identity.Identity, content string, attachments []string) (*models.CommunityMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.New(apperr.InvalidArgument, "message content is required")
	}

	community, err := s.Get(ctx, communityID)
	if err != nil {
		return nil, err
	}

	if broadcastRestricted(community) && caller.Role == models.RoleParent {
		return nil, apperr.New(apperr.Forbidden, "posting in this community is restricted to therapists")
	}

	if caller.Role == models.RoleParent {
		if err := s.ensureMembership(ctx, community, caller); err != nil {
			return nil, err
		}
	}

	if attachments == nil {
		attachments = []string{}
	}
	msg := &models.CommunityMessage{
		ID:          uuid.NewString(),
		CommunityID: community.ID,
		SenderID:    caller.ID,
		SenderName:  caller.Name,
		SenderRole:  caller.Role,
		Content:     content,
		Attachments: attachments,
		Timestamp:   time.Now().UTC(),
		Reactions:   map[string][]string{},
		DeletedFor:  []string{},
		IsDeleted:   false,
	}
	if err := s.messages.Insert(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// ListMessages returns one page of the community feed. The underlying scan
// is newest-first; the page is reversed so callers render oldest-first.
func (s *CommunityService) ListMessages(ctx context.Context, communityID string, caller *identity.Identity, limit, offset int) (*CommunityMessagePage, error) {
	if limit < 1 || limit > 100 {
		return nil, apperr.New(apperr.InvalidArgument, "limit must be between 1 and 100")
	}
	if offset < 0 {
		return nil, apperr.New(apperr.InvalidArgument, "offset must not be negative")
	}

	community, err := s.Get(ctx, communityID)
	if err != nil {
		return nil, err
	}

	messages, total, err := s.messages.ListPage(ctx, community.ID, caller.ID, limit, offset)
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return &CommunityMessagePage{
		Messages: messages,
		Total:    total,
		Limit:    limit,
		Offset:   offset,
		HasMore:  int64(offset+limit) < total,
	}, nil
}

// React toggles the caller's reaction on a community message. A parent
// reacting in a community for the first time is auto-joined, mirroring
// SendMessage.
func (s *CommunityService) React(ctx context.Context, communityID, messageID, emoji string, caller *identity.Identity) (map[string][]string, error) {
	if emoji == "" {
		return nil, apperr.New(apperr.InvalidArgument, "emoji is required")
	}

	community, err := s.Get(ctx, communityID)
	if err != nil {
		return nil, err
	}

	msg, err := s.messages.GetByID(ctx, community.ID, messageID)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, apperr.New(apperr.NotFound, "message not found")
	}
	if !msg.VisibleToUser(caller.ID) {
		return nil, apperr.New(apperr.Forbidden, "message not accessible")
	}

	if caller.Role == models.RoleParent {
		if err := s.ensureMembership(ctx, community, caller); err != nil {
			return nil, err
		}
	}

	reactions, err := s.messages.ToggleReaction(ctx, community.ID, messageID, emoji, caller.ID)
	if err != nil {
		return nil, err
	}
	if reactions == nil {
		return nil, apperr.New(apperr.NotFound, "message not found")
	}
	return reactions, nil
}

// Delete applies one of the two deletion modes to a community message.
//
// for_me hides the message for the caller only and is open to anyone
// taking part in the community. for_everyone is the therapist's moderation
// tool: it works regardless of who wrote the message, and parents cannot
// use it even on their own posts.
func (s *CommunityService) Delete(ctx context.Context, communityID, messageID, mode string, caller *identity.Identity) (string, error) {
	community, err := s.Get(ctx, communityID)
	if err != nil {
		return "", err
	}

	msg, err := s.messages.GetByID(ctx, community.ID, messageID)
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
		if caller.Role != models.RoleTherapist {
			return "", apperr.New(apperr.Forbidden, "only therapists can delete a community message for everyone")
		}
		if err := s.messages.MarkDeleted(ctx, community.ID, messageID, time.Now().UTC()); err != nil {
			return "", err
		}
		return StatusDeletedForEveryone, nil

	case DeleteForMe:
		if !s.communityParticipant(community, msg, caller) {
			return "", apperr.New(apperr.Forbidden, "you are not part of this community")
		}
		if err := s.messages.HideFor(ctx, community.ID, messageID, caller.ID); err != nil {
			return "", err
		}
		return StatusDeletedForMe, nil
	}

	return "", apperr.Newf(apperr.InvalidArgument, "unknown delete mode %q", mode)
}

// communityParticipant: the sender, any community member, and therapists
// (who take part in every community without membership).
func (s *CommunityService) communityParticipant(community *models.Community, msg *models.CommunityMessage, caller *identity.Identity) bool {
	if msg.SenderID == caller.ID || caller.Role == models.RoleTherapist {
		return true
	}
	for _, id := range community.MemberIDs {
		if id == caller.ID {
			return true
		}
	}
	return false
}

// ensureMembership auto-joins a parent posting or reacting for the first
// time, including the personalized welcome message a normal join would
// post. Existing members pass through untouched.
func (s *CommunityService) ensureMembership(ctx context.Context, community *models.Community, caller *identity.Identity) error {
	added, err := s.communities.AddMember(ctx, community.ID, caller.ID)
	if err != nil {
		return err
	}
	if !added {
		return nil
	}

	s.logger.Info("parent auto-joined community",
		zap.String("community_id", community.ID),
	)
	s.postSystemMessage(ctx, community.ID, "Community",
		fmt.Sprintf("Welcome %s to the %s! 👋", caller.Name, community.Name))
	return nil
}

// postSystemMessage inserts an automatic broadcast from the system sender.
// Failures are logged, not propagated: a missing welcome message should
// not fail the join that triggered it.
func (s *CommunityService) postSystemMessage(ctx context.Context, communityID, senderName, content string) {
	msg := &models.CommunityMessage{
		ID:          uuid.NewString(),
		CommunityID: communityID,
		SenderID:    systemSenderID,
		SenderName:  senderName,
		SenderRole:  models.RoleSystem,
		Content:     content,
		Attachments: []string{},
		Timestamp:   time.Now().UTC(),
		Reactions:   map[string][]string{},
		DeletedFor:  []string{},
	}
	if err := s.messages.Insert(ctx, msg); err != nil {
		s.logger.Error("post system message",
			zap.String("community_id", communityID),
			zap.Error(err),
		)
	}
}
