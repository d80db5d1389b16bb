package identity

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/neurobridge/portal-api/internal/apperr"
	"github.com/neurobridge/portal-api/internal/auth"
	"github.com/neurobridge/portal-api/internal/models"
)

// AccountStore is the lookup surface the resolver needs. Implemented by
// repository/mongodb.AccountStore; faked in tests.
type AccountStore interface {
	// FindByID matches an account in the role's collection by its raw
	// string id. Returns nil, nil when absent.
	FindByID(ctx context.Context, role, id string) (*models.Account, error)
	// FindByNativeID matches by the database-native ObjectID form.
	// Returns nil, nil when absent.
	FindByNativeID(ctx context.Context, role string, id primitive.ObjectID) (*models.Account, error)
}

// Identity is the normalized caller record. Role drives every downstream
// authorization check.
type Identity struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	Email string `json:"email"`
}

// probeOrder is fixed: an id value must never resolve in more than one
// collection, and when collections written at different times disagree,
// the first hit in this order wins.
var probeOrder = []string{models.RoleTherapist, models.RoleParent, models.RoleAdmin}

type Resolver struct {
	store  AccountStore
	secret string
	logger *zap.Logger
}

func NewResolver(store AccountStore, jwtSecret string, logger *zap.Logger) *Resolver {
	return &Resolver{store: store, secret: jwtSecret, logger: logger}
}

// Resolve authenticates a bearer token and classifies the caller.
//
// Pure read: no token refresh, no account mutation. Errors are
// Unauthenticated for anything token-shaped, AccountDeactivated for a
// valid token whose account has been switched off.
func (r *Resolver) Resolve(ctx context.Context, token string) (*Identity, error) {
	claims, err := auth.ParseToken(token, r.secret)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unauthenticated, "invalid or expired token", err)
	}

	subject := claims.Subject
	if subject == "" {
		return nil, apperr.New(apperr.Unauthenticated, "token has no subject")
	}

	account, err := r.Lookup(ctx, UserID(subject))
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, apperr.New(apperr.Unauthenticated, "could not validate credentials")
	}
	if !account.IsActive {
		return nil, apperr.Newf(apperr.AccountDeactivated, "%s account is deactivated", account.Role)
	}

	return &Identity{
		ID:    account.ID,
		Name:  account.Name,
		Role:  account.Role,
		Email: account.Email,
	}, nil
}

// Lookup probes the account collections for an id: every collection with
// the raw form first, then — only if nothing matched and the id
// syntactically qualifies — every collection again with the native form.
// Returns nil, nil when no collection has the id.
func (r *Resolver) Lookup(ctx context.Context, id UserID) (*models.Account, error) {
	for _, role := range probeOrder {
		account, err := r.store.FindByID(ctx, role, id.String())
		if err != nil {
			return nil, err
		}
		if account != nil {
			return account, nil
		}
	}

	oid, ok := id.NativeForm()
	if !ok {
		return nil, nil
	}
	for _, role := range probeOrder {
		account, err := r.store.FindByNativeID(ctx, role, oid)
		if err != nil {
			return nil, err
		}
		if account != nil {
			r.logger.Debug("account resolved via native id fallback",
				zap.String("role", account.Role),
			)
			return account, nil
		}
	}

	return nil, nil
}
