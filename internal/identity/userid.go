package identity

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserID is an opaque account identifier. Three formats circulate:
// generated UUIDs, human-readable codes ("TH-1001", "PA-1002"), and
// database-native ObjectIDs from rows written by earlier revisions.
//
// The dual-form handling stays inside this package: callers pass whatever
// string they have, and only the resolver's fallback path ever converts.
type UserID string

func (id UserID) String() string { return string(id) }

// NativeForm converts the id to the database-native ObjectID when the raw
// value is a syntactically valid 24-character hex string. Used only as a
// fallback lookup path for legacy records.
func (id UserID) NativeForm() (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(string(id))
	if err != nil {
		return primitive.NilObjectID, false
	}
	return oid, true
}
