package repository

import (
	"context"
	"errors"
	"time"

	"github.com/neurobridge/portal-api/internal/models"
)

// ErrDuplicate is returned when an insert collides with a unique index
// (community name, account email). Callers decide whether that is a
// conflict or the losing side of a get-or-create race.
var ErrDuplicate = errors.New("duplicate key")

// Repositories return nil, nil for absent documents; existence errors are
// raised by the service layer, which knows whether absence is NotFound or
// merely "skip". Transient store failures come back wrapped as
// apperr.Unavailable.

// AccountRepository handles the role-partitioned account collections.
// Identity probing (raw vs native id form) lives in the identity package;
// this interface covers what the rest of the system needs.
type AccountRepository interface {
	// Create inserts an account into its role's collection.
	// Returns ErrDuplicate when the email is already registered.
	Create(ctx context.Context, account *models.Account) error

	// FindByEmail looks up an account in the given role's collection.
	FindByEmail(ctx context.Context, role, email string) (*models.Account, error)

	// FindManyByIDs returns the accounts from the role's collection whose
	// ids appear in ids, preserving the order of ids; missing ids are
	// silently skipped.
	FindManyByIDs(ctx context.Context, role string, ids []string) ([]models.Account, error)
}

// CommunityRepository handles community documents and their membership
// sets. Membership mutations are single-document atomic updates.
type CommunityRepository interface {
	// Insert creates a community. Returns ErrDuplicate when the name is
	// taken — the caller lost a get-or-create race and should re-read.
	Insert(ctx context.Context, community *models.Community) error

	// GetByID returns a community by id. nil, nil when absent.
	GetByID(ctx context.Context, id string) (*models.Community, error)

	// GetByName returns a community by its unique name. nil, nil when absent.
	GetByName(ctx context.Context, name string) (*models.Community, error)

	// ListActive returns all active communities.
	ListActive(ctx context.Context) ([]models.Community, error)

	// AddMember adds parentID to the membership set ($addToSet) and bumps
	// updated_at. Reports added=false when the parent was already a member.
	AddMember(ctx context.Context, communityID, parentID string) (added bool, err error)

	// RemoveMember pulls parentID from the membership set. Reports
	// removed=false when the parent was not a member (not an error).
	RemoveMember(ctx context.Context, communityID, parentID string) (removed bool, err error)
}

// CommunityMessageRepository handles broadcast messages. Messages are
// keyed by (community id, message id): a lookup with the wrong owning
// community does not match.
type CommunityMessageRepository interface {
	Insert(ctx context.Context, msg *models.CommunityMessage) error

	// GetByID returns the message under its owning community. nil, nil when absent.
	GetByID(ctx context.Context, communityID, messageID string) (*models.CommunityMessage, error)

	// ListPage returns one page of messages visible to viewerID
	// (excluding globally deleted messages and the viewer's per-user
	// hides), plus the total visible count. Offset counts from the oldest
	// visible message; the page itself comes back newest-first.
	ListPage(ctx context.Context, communityID, viewerID string, limit, offset int) ([]models.CommunityMessage, int64, error)

	// MarkDeleted sets the global soft-delete flag and deletion timestamp.
	// Content stays in storage.
	MarkDeleted(ctx context.Context, communityID, messageID string, at time.Time) error

	// HideFor adds userID to deleted_for ($addToSet, idempotent).
	HideFor(ctx context.Context, communityID, messageID, userID string) error

	// ToggleReaction atomically toggles userID under emoji and returns the
	// updated reactions map. Emoji entries are never left empty.
	ToggleReaction(ctx context.Context, communityID, messageID, emoji, userID string) (map[string][]string, error)
}

// DirectMessageRepository handles 1:1 messages.
type DirectMessageRepository interface {
	Insert(ctx context.Context, msg *models.DirectMessage) error

	// GetByID returns a message by id, matching both the raw string id and
	// the converted native form for legacy rows. nil, nil when absent.
	GetByID(ctx context.Context, messageID string) (*models.DirectMessage, error)

	// ListForUser returns the user's conversation history newest-first:
	// messages they sent or received, excluding their per-user hides.
	// Globally deleted messages are included — their content is already
	// the tombstone placeholder.
	ListForUser(ctx context.Context, userID string) ([]models.DirectMessage, error)

	// CountUnread counts visible unread messages addressed to userID.
	CountUnread(ctx context.Context, userID string) (int64, error)

	// MarkRead flips the read flag (false→true, idempotent).
	MarkRead(ctx context.Context, messageID string) error

	// MarkDeleted sets the global soft-delete flag, records the deletion
	// timestamp, and overwrites content with the tombstone placeholder.
	MarkDeleted(ctx context.Context, messageID string, at time.Time) error

	// HideFor adds userID to deleted_for ($addToSet, idempotent).
	HideFor(ctx context.Context, messageID, userID string) error

	// ToggleReaction atomically toggles userID under emoji and returns the
	// updated reactions map.
	ToggleReaction(ctx context.Context, messageID, emoji, userID string) (map[string][]string, error)
}
