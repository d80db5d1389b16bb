package service

import (
	"context"
	"time"

	"github.com/neurobridge/portal-api/internal/identity"
	"github.com/neurobridge/portal-api/internal/models"
	"github.com/neurobridge/portal-api/internal/repository"
)

// In-memory fakes of the repository interfaces. They honor the same
// contracts the mongo stores do (set semantics, nil-for-absent, scoped
// message lookups) so service tests exercise real rule paths.

type fakeCommunityRepo struct {
	communities map[string]*models.Community
	// missNameOnce makes the next GetByName miss, simulating a racing
	// creator whose insert lands between our read and our insert.
	missNameOnce bool
}

func newFakeCommunityRepo() *fakeCommunityRepo {
	return &fakeCommunityRepo{communities: map[string]*models.Community{}}
}

func (f *fakeCommunityRepo) Insert(_ context.Context, c *models.Community) error {
	for _, existing := range f.communities {
		if existing.Name == c.Name {
			return repository.ErrDuplicate
		}
	}
	cp := *c
	f.communities[c.ID] = &cp
	return nil
}

func (f *fakeCommunityRepo) GetByID(_ context.Context, id string) (*models.Community, error) {
	c, ok := f.communities[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCommunityRepo) GetByName(_ context.Context, name string) (*models.Community, error) {
	if f.missNameOnce {
		f.missNameOnce = false
		return nil, nil
	}
	for _, c := range f.communities {
		if c.Name == name {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeCommunityRepo) ListActive(_ context.Context) ([]models.Community, error) {
	out := make([]models.Community, 0)
	for _, c := range f.communities {
		if c.IsActive {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeCommunityRepo) AddMember(_ context.Context, communityID, parentID string) (bool, error) {
	c, ok := f.communities[communityID]
	if !ok {
		return false, nil
	}
	for _, id := range c.MemberIDs {
		if id == parentID {
			return false, nil
		}
	}
	c.MemberIDs = append(c.MemberIDs, parentID)
	c.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (f *fakeCommunityRepo) RemoveMember(_ context.Context, communityID, parentID string) (bool, error) {
	c, ok := f.communities[communityID]
	if !ok {
		return false, nil
	}
	for i, id := range c.MemberIDs {
		if id == parentID {
			c.MemberIDs = append(c.MemberIDs[:i], c.MemberIDs[i+1:]...)
			c.UpdatedAt = time.Now().UTC()
			return true, nil
		}
	}
	return false, nil
}

type fakeCommunityMessageRepo struct {
	messages []*models.CommunityMessage
}

func newFakeCommunityMessageRepo() *fakeCommunityMessageRepo {
	return &fakeCommunityMessageRepo{}
}

func (f *fakeCommunityMessageRepo) Insert(_ context.Context, msg *models.CommunityMessage) error {
	cp := *msg
	f.messages = append(f.messages, &cp)
	return nil
}

func (f *fakeCommunityMessageRepo) find(communityID, messageID string) *models.CommunityMessage {
	for _, m := range f.messages {
		if m.ID == messageID && m.CommunityID == communityID {
			return m
		}
	}
	return nil
}

func (f *fakeCommunityMessageRepo) GetByID(_ context.Context, communityID, messageID string) (*models.CommunityMessage, error) {
	m := f.find(communityID, messageID)
	if m == nil {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (f *fakeCommunityMessageRepo) ListPage(_ context.Context, communityID, viewerID string, limit, offset int) ([]models.CommunityMessage, int64, error) {
	visible := make([]models.CommunityMessage, 0)
	for _, m := range f.messages {
		if m.CommunityID == communityID && m.VisibleToUser(viewerID) {
			visible = append(visible, *m)
		}
	}
	total := int64(len(visible))
	if offset >= len(visible) {
		return []models.CommunityMessage{}, total, nil
	}
	end := offset + limit
	if end > len(visible) {
		end = len(visible)
	}
	// Offset counts oldest-first; the returned page is newest-first,
	// matching the store's scan order.
	page := append([]models.CommunityMessage{}, visible[offset:end]...)
	for i, j := 0, len(page)-1; i < j; i, j = i+1, j-1 {
		page[i], page[j] = page[j], page[i]
	}
	return page, total, nil
}

func (f *fakeCommunityMessageRepo) MarkDeleted(_ context.Context, communityID, messageID string, at time.Time) error {
	if m := f.find(communityID, messageID); m != nil {
		m.IsDeleted = true
		m.DeletedAt = &at
	}
	return nil
}

func (f *fakeCommunityMessageRepo) HideFor(_ context.Context, communityID, messageID, userID string) error {
	m := f.find(communityID, messageID)
	if m == nil {
		return nil
	}
	for _, id := range m.DeletedFor {
		if id == userID {
			return nil
		}
	}
	m.DeletedFor = append(m.DeletedFor, userID)
	return nil
}

func (f *fakeCommunityMessageRepo) ToggleReaction(_ context.Context, communityID, messageID, emoji, userID string) (map[string][]string, error) {
	m := f.find(communityID, messageID)
	if m == nil {
		return nil, nil
	}
	toggleInMap(m, emoji, userID)
	return copyReactions(m.Reactions), nil
}

type fakeDirectMessageRepo struct {
	messages []*models.DirectMessage
}

func newFakeDirectMessageRepo() *fakeDirectMessageRepo {
	return &fakeDirectMessageRepo{}
}

func (f *fakeDirectMessageRepo) Insert(_ context.Context, msg *models.DirectMessage) error {
	cp := *msg
	f.messages = append(f.messages, &cp)
	return nil
}

func (f *fakeDirectMessageRepo) find(messageID string) *models.DirectMessage {
	for _, m := range f.messages {
		if m.ID == messageID {
			return m
		}
	}
	return nil
}

func (f *fakeDirectMessageRepo) GetByID(_ context.Context, messageID string) (*models.DirectMessage, error) {
	m := f.find(messageID)
	if m == nil {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (f *fakeDirectMessageRepo) ListForUser(_ context.Context, userID string) ([]models.DirectMessage, error) {
	out := make([]models.DirectMessage, 0)
	for i := len(f.messages) - 1; i >= 0; i-- {
		m := f.messages[i]
		if m.SenderID != userID && m.RecipientID != userID {
			continue
		}
		hidden := false
		for _, id := range m.DeletedFor {
			if id == userID {
				hidden = true
				break
			}
		}
		if !hidden {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeDirectMessageRepo) CountUnread(_ context.Context, userID string) (int64, error) {
	var count int64
	for _, m := range f.messages {
		if m.RecipientID == userID && !m.Read && m.VisibleToUser(userID) {
			count++
		}
	}
	return count, nil
}

func (f *fakeDirectMessageRepo) MarkRead(_ context.Context, messageID string) error {
	if m := f.find(messageID); m != nil {
		m.Read = true
	}
	return nil
}

func (f *fakeDirectMessageRepo) MarkDeleted(_ context.Context, messageID string, at time.Time) error {
	if m := f.find(messageID); m != nil {
		m.IsDeleted = true
		m.DeletedAt = &at
		m.Content = models.DeletedPlaceholder
	}
	return nil
}

func (f *fakeDirectMessageRepo) HideFor(_ context.Context, messageID, userID string) error {
	m := f.find(messageID)
	if m == nil {
		return nil
	}
	for _, id := range m.DeletedFor {
		if id == userID {
			return nil
		}
	}
	m.DeletedFor = append(m.DeletedFor, userID)
	return nil
}

func (f *fakeDirectMessageRepo) ToggleReaction(_ context.Context, messageID, emoji, userID string) (map[string][]string, error) {
	m := f.find(messageID)
	if m == nil {
		return nil, nil
	}
	toggleDirectInMap(m, emoji, userID)
	return copyReactions(m.Reactions), nil
}

type fakeAccountRepo struct {
	accounts map[string][]*models.Account // role -> accounts
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: map[string][]*models.Account{}}
}

func (f *fakeAccountRepo) add(a *models.Account) {
	f.accounts[a.Role] = append(f.accounts[a.Role], a)
}

func (f *fakeAccountRepo) Create(_ context.Context, account *models.Account) error {
	for _, a := range f.accounts[account.Role] {
		if a.Email == account.Email {
			return repository.ErrDuplicate
		}
	}
	f.add(account)
	return nil
}

func (f *fakeAccountRepo) FindByEmail(_ context.Context, role, email string) (*models.Account, error) {
	for _, a := range f.accounts[role] {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeAccountRepo) FindManyByIDs(_ context.Context, role string, ids []string) ([]models.Account, error) {
	out := make([]models.Account, 0, len(ids))
	for _, id := range ids {
		for _, a := range f.accounts[role] {
			if a.ID == id {
				out = append(out, *a)
			}
		}
	}
	return out, nil
}

type fakeRecipientLookup struct {
	accounts map[string]*models.Account
}

func (f *fakeRecipientLookup) Lookup(_ context.Context, id identity.UserID) (*models.Account, error) {
	a, ok := f.accounts[id.String()]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

// Shared toggle behavior mirroring the store contract: an emoji entry is
// never left empty.

func toggleInMap(m *models.CommunityMessage, emoji, userID string) {
	if m.Reactions == nil {
		m.Reactions = map[string][]string{}
	}
	m.Reactions = toggled(m.Reactions, emoji, userID)
}

func toggleDirectInMap(m *models.DirectMessage, emoji, userID string) {
	if m.Reactions == nil {
		m.Reactions = map[string][]string{}
	}
	m.Reactions = toggled(m.Reactions, emoji, userID)
}

func toggled(reactions map[string][]string, emoji, userID string) map[string][]string {
	users := reactions[emoji]
	for i, id := range users {
		if id == userID {
			users = append(users[:i], users[i+1:]...)
			if len(users) == 0 {
				delete(reactions, emoji)
			} else {
				reactions[emoji] = users
			}
			return reactions
		}
	}
	reactions[emoji] = append(users, userID)
	return reactions
}

func copyReactions(reactions map[string][]string) map[string][]string {
	out := make(map[string][]string, len(reactions))
	for k, v := range reactions {
		out[k] = append([]string(nil), v...)
	}
	return out
}
