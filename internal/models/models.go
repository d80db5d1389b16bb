package models

import (
	"time"
)

// Account roles. An account lives in exactly one collection (therapists,
// parents, admins); the role tag mirrors which one.
const (
	RoleTherapist = "therapist"
	RoleParent    = "parent"
	RoleAdmin     = "admin"
	// RoleSystem is a virtual sender identity for automatic messages
	// (welcome posts). No account document carries it.
	RoleSystem = "system"
)

// Account is a portal user as stored in its role collection.
//
// IDs are application-assigned strings: either a generated UUID, a
// human-readable code ("TH-1001", "PA-1002"), or — for rows written by
// earlier revisions of the system — the hex form of a database-native
// ObjectID. Rows whose _id is a native ObjectID are reached through the
// identity package's fallback lookup.
type Account struct {
	ID           string    `bson:"_id" json:"id"`
	Name         string    `bson:"name" json:"name"`
	Email        string    `bson:"email" json:"email"`
	PasswordHash string    `bson:"password_hash" json:"-"`
	Role         string    `bson:"role" json:"role"`
	IsActive     bool      `bson:"is_active" json:"is_active"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
}

// Community is a broadcast space for parents.
//
// MemberIDs is semantically a set: duplicates must never be introduced, so
// every mutation goes through $addToSet / $pull. Only parent ids appear
// here; therapists and admins post without being members.
type Community struct {
	ID          string    `bson:"_id" json:"id"`
	Name        string    `bson:"name" json:"name"`
	Description string    `bson:"description" json:"description"`
	CreatedBy   string    `bson:"created_by" json:"created_by"`
	MemberIDs   []string  `bson:"member_ids" json:"member_ids"`
	IsActive    bool      `bson:"is_active" json:"is_active"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
}

// CommunityMessage is a broadcast message. Content is immutable once
// created; deletion only flips visibility state.
//
// Reactions maps an emoji to the set of user ids who reacted with it. An
// entry is never stored empty — removing the last reactor drops the key.
type CommunityMessage struct {
	ID          string              `bson:"_id" json:"id"`
	CommunityID string              `bson:"community_id" json:"community_id"`
	SenderID    string              `bson:"sender_id" json:"sender_id"`
	SenderName  string              `bson:"sender_name" json:"sender_name"`
	SenderRole  string              `bson:"sender_role" json:"sender_role"`
	Content     string              `bson:"content" json:"content"`
	Attachments []string            `bson:"attachments" json:"attachments"`
	Timestamp   time.Time           `bson:"timestamp" json:"timestamp"`
	Reactions   map[string][]string `bson:"reactions" json:"reactions"`
	DeletedFor  []string            `bson:"deleted_for" json:"-"`
	IsDeleted   bool                `bson:"is_deleted" json:"-"`
	DeletedAt   *time.Time          `bson:"deleted_at,omitempty" json:"-"`
}

// DeletedPlaceholder replaces direct-message content when the sender
// deletes for everyone. The row survives as a tombstone.
const DeletedPlaceholder = "🚫 This message was deleted"

// DirectMessage is a 1:1 message between a parent and a therapist,
// correlated to a care subject via ThreadID/ChildID.
type DirectMessage struct {
	ID            string              `bson:"_id" json:"id"`
	ThreadID      string              `bson:"thread_id" json:"thread_id"`
	ChildID       string              `bson:"child_id" json:"child_id"`
	SenderID      string              `bson:"sender_id" json:"sender_id"`
	SenderName    string              `bson:"sender_name" json:"sender_name"`
	SenderRole    string              `bson:"sender_role" json:"sender_role"`
	RecipientID   string              `bson:"recipient_id" json:"recipient_id"`
	RecipientName string              `bson:"recipient_name" json:"recipient_name"`
	RecipientRole string              `bson:"recipient_role" json:"recipient_role"`
	Content       string              `bson:"content" json:"content"`
	Attachments   []string            `bson:"attachments" json:"attachments"`
	Timestamp     time.Time           `bson:"timestamp" json:"timestamp"`
	Read          bool                `bson:"read" json:"read"`
	Reactions     map[string][]string `bson:"reactions" json:"reactions"`
	DeletedFor    []string            `bson:"deleted_for" json:"-"`
	IsDeleted     bool                `bson:"is_deleted" json:"is_deleted"`
	DeletedAt     *time.Time          `bson:"deleted_at,omitempty" json:"-"`
}

// VisibleTo is the single visibility rule for both message kinds:
// a message is visible to a user iff it is not globally deleted and the
// user has not hidden it for themselves.
func VisibleTo(isDeleted bool, deletedFor []string, userID string) bool {
	if isDeleted {
		return false
	}
	for _, id := range deletedFor {
		if id == userID {
			return false
		}
	}
	return true
}

// VisibleToUser applies VisibleTo to a community message.
func (m *CommunityMessage) VisibleToUser(userID string) bool {
	return VisibleTo(m.IsDeleted, m.DeletedFor, userID)
}

// VisibleToUser applies VisibleTo to a direct message.
func (m *DirectMessage) VisibleToUser(userID string) bool {
	return VisibleTo(m.IsDeleted, m.DeletedFor, userID)
}

// Participant reports whether userID is the sender or the recipient.
func (m *DirectMessage) Participant(userID string) bool {
	return m.SenderID == userID || m.RecipientID == userID
}
