package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/neurobridge/portal-api/internal/apperr"
	"github.com/neurobridge/portal-api/internal/auth"
	"github.com/neurobridge/portal-api/internal/models"
)

const testSecret = "resolver-test-secret"

// fakeStore keys accounts by role, then by raw id and by native id
// separately, so tests control exactly which probe path hits.
type fakeStore struct {
	byID       map[string]map[string]*models.Account
	byNativeID map[string]map[primitive.ObjectID]*models.Account
	probes     []string // role names, in probe order, raw then native
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		byID:       map[string]map[string]*models.Account{},
		byNativeID: map[string]map[primitive.ObjectID]*models.Account{},
	}
}

func (f *fakeStore) addRaw(role string, account *models.Account) {
	if f.byID[role] == nil {
		f.byID[role] = map[string]*models.Account{}
	}
	account.Role = role
	f.byID[role][account.ID] = account
}

func (f *fakeStore) addNative(role string, oid primitive.ObjectID, account *models.Account) {
	if f.byNativeID[role] == nil {
		f.byNativeID[role] = map[primitive.ObjectID]*models.Account{}
	}
	account.Role = role
	f.byNativeID[role][oid] = account
}

func (f *fakeStore) FindByID(_ context.Context, role, id string) (*models.Account, error) {
	f.probes = append(f.probes, "raw:"+role)
	return f.byID[role][id], nil
}

func (f *fakeStore) FindByNativeID(_ context.Context, role string, id primitive.ObjectID) (*models.Account, error) {
	f.probes = append(f.probes, "native:"+role)
	return f.byNativeID[role][id], nil
}

func token(t *testing.T, accountID string) string {
	t.Helper()
	signed, err := auth.GenerateToken(accountID, models.RoleParent, "x@example.com", testSecret, time.Hour)
	require.NoError(t, err)
	return signed
}

func TestResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("valid token resolves to the stored account", func(t *testing.T) {
		store := newFakeStore()
		store.addRaw(models.RoleParent, &models.Account{
			ID: "PA-1002", Name: "Meera", Email: "meera@example.com", IsActive: true,
		})
		r := NewResolver(store, testSecret, zap.NewNop())

		ident, err := r.Resolve(ctx, token(t, "PA-1002"))
		require.NoError(t, err)
		assert.Equal(t, "PA-1002", ident.ID)
		assert.Equal(t, models.RoleParent, ident.Role)
		assert.Equal(t, "Meera", ident.Name)
	})

	t.Run("garbage token is Unauthenticated", func(t *testing.T) {
		r := NewResolver(newFakeStore(), testSecret, zap.NewNop())
		_, err := r.Resolve(ctx, "not-a-token")
		assert.True(t, apperr.Is(err, apperr.Unauthenticated))
	})

	t.Run("token signed with another secret is Unauthenticated", func(t *testing.T) {
		signed, err := auth.GenerateToken("PA-1002", models.RoleParent, "x@example.com", "other-secret", time.Hour)
		require.NoError(t, err)

		r := NewResolver(newFakeStore(), testSecret, zap.NewNop())
		_, err = r.Resolve(ctx, signed)
		assert.True(t, apperr.Is(err, apperr.Unauthenticated))
	})

	t.Run("subject with no matching account is Unauthenticated", func(t *testing.T) {
		r := NewResolver(newFakeStore(), testSecret, zap.NewNop())
		_, err := r.Resolve(ctx, token(t, "PA-9999"))
		assert.True(t, apperr.Is(err, apperr.Unauthenticated))
	})

	t.Run("deactivated account is AccountDeactivated, not Unauthenticated", func(t *testing.T) {
		store := newFakeStore()
		store.addRaw(models.RoleParent, &models.Account{
			ID: "PA-1002", Name: "Meera", IsActive: false,
		})
		r := NewResolver(store, testSecret, zap.NewNop())

		_, err := r.Resolve(ctx, token(t, "PA-1002"))
		assert.True(t, apperr.Is(err, apperr.AccountDeactivated))
	})
}

func TestLookupProbing(t *testing.T) {
	ctx := context.Background()

	t.Run("raw probes run therapist, parent, admin in order", func(t *testing.T) {
		store := newFakeStore()
		store.addRaw(models.RoleAdmin, &models.Account{ID: "AD-1", IsActive: true})
		r := NewResolver(store, testSecret, zap.NewNop())

		account, err := r.Lookup(ctx, UserID("AD-1"))
		require.NoError(t, err)
		require.NotNil(t, account)
		assert.Equal(t, models.RoleAdmin, account.Role)
		assert.Equal(t, []string{"raw:therapist", "raw:parent", "raw:admin"}, store.probes)
	})

	t.Run("first raw hit short-circuits remaining probes", func(t *testing.T) {
		store := newFakeStore()
		store.addRaw(models.RoleTherapist, &models.Account{ID: "u1", IsActive: true})
		r := NewResolver(store, testSecret, zap.NewNop())

		account, err := r.Lookup(ctx, UserID("u1"))
		require.NoError(t, err)
		require.NotNil(t, account)
		assert.Equal(t, models.RoleTherapist, account.Role)
		assert.Equal(t, []string{"raw:therapist"}, store.probes)
	})

	t.Run("hex id falls back to native probes after raw misses", func(t *testing.T) {
		oid := primitive.NewObjectID()
		store := newFakeStore()
		store.addNative(models.RoleParent, oid, &models.Account{
			ID: oid.Hex(), Name: "Legacy Parent", IsActive: true,
		})
		r := NewResolver(store, testSecret, zap.NewNop())

		account, err := r.Lookup(ctx, UserID(oid.Hex()))
		require.NoError(t, err)
		require.NotNil(t, account)
		assert.Equal(t, "Legacy Parent", account.Name)
		assert.Equal(t, []string{
			"raw:therapist", "raw:parent", "raw:admin",
			"native:therapist", "native:parent",
		}, store.probes)
	})

	t.Run("non-hex id skips the native fallback entirely", func(t *testing.T) {
		store := newFakeStore()
		r := NewResolver(store, testSecret, zap.NewNop())

		account, err := r.Lookup(ctx, UserID("PA-1002"))
		require.NoError(t, err)
		assert.Nil(t, account)
		assert.Equal(t, []string{"raw:therapist", "raw:parent", "raw:admin"}, store.probes)
	})
}

func TestUserIDNativeForm(t *testing.T) {
	t.Run("24-char hex converts", func(t *testing.T) {
		oid := primitive.NewObjectID()
		got, ok := UserID(oid.Hex()).NativeForm()
		require.True(t, ok)
		assert.Equal(t, oid, got)
	})

	t.Run("everything else does not", func(t *testing.T) {
		for _, raw := range []string{"", "PA-1002", "abc123", "zzzzzzzzzzzzzzzzzzzzzzzz", "68b0f3c2a1d2e3f4a5b6c7"} {
			_, ok := UserID(raw).NativeForm()
			assert.False(t, ok, raw)
		}
	})
}
