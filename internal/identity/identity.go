// Package identity implements the two-tier ID policy: random v4 IDs for
// append-only messages, deterministic v5 (namespace, externalID) IDs for
// aggregates whose upserts must naturally coalesce into replaces.
package identity

import "github.com/google/uuid"

// RoomNamespace and UserNamespace are fixed, distinct namespace UUIDs.
// They are derived once from stable seed strings so the same roomId/userId
// always produces the same deterministic ID across process restarts.
var (
	RoomNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("chat-gateway.room"))
	UserNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("chat-gateway.user"))
)

// RandomID returns a fresh random v4 ID, used for append-only records
// (messages, AIChatRecords).
func RandomID() string {
	return uuid.New().String()
}

// DeterministicID returns the namespaced v5 ID for an external identifier.
// Calling it twice with the same namespace and externalID always returns
// the same value.
func DeterministicID(namespace uuid.UUID, externalID string) string {
	return uuid.NewSHA1(namespace, []byte(externalID)).String()
}

// RoomID returns the deterministic ID for a room's external identifier.
func RoomID(roomID string) string {
	return DeterministicID(RoomNamespace, roomID)
}

// UserID returns the deterministic ID for a user's external identifier.
func UserID(userID string) string {
	return DeterministicID(UserNamespace, userID)
}
