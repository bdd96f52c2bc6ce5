/*
Package errs provides custom error types and application-level error code constants.

These codes identify specific business or system failures both in server logs
and, where a failure reaches the client, in websocket close reasons and HTTP
error responses.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1002
)

// 2xxx: Conversation and Message Errors
const (
	// ErrConversationNotFound indicates that the target conversation does not exist.
	ErrConversationNotFound = 2001

	// ErrUserNotFound indicates that the referenced user account does not exist.
	ErrUserNotFound = 2002

	// ErrMessageContentTooLong indicates that message content exceeded the maximum length.
	ErrMessageContentTooLong = 2101
)

// 3xxx: Credential and Authorization Errors
const (
	// ErrCredentialMissing indicates that no token was supplied with the handshake.
	ErrCredentialMissing = 3001

	// ErrCredentialExpired indicates that the supplied token's expiry has passed.
	ErrCredentialExpired = 3002

	// ErrCredentialInvalid indicates a bad signature, malformed claims, or an
	// unresolvable subject.
	ErrCredentialInvalid = 3003

	// ErrNotParticipant indicates that the authenticated user is not a member
	// of the target conversation.
	ErrNotParticipant = 3004
)

// 4xxx: Frame Errors
const (
	// ErrMalformedFrame indicates an inbound frame with bad JSON or bad field types.
	ErrMalformedFrame = 4101
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified server internal error.
	ErrUnknown = 5000

	// ErrPersistenceFailed indicates that a store write or lookup failed.
	ErrPersistenceFailed = 5001
)
