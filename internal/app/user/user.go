/*
Package user defines the public identity view of a chat participant.

Identities are resolved once at connect time from the conversation store and
stay immutable for the lifetime of a connection; they are embedded verbatim
in outbound websocket frames.
*/
package user

// User is the public identity of a participant as exposed on the wire.
type User struct {

	// ID is the unique identifier of the user account.
	ID int64 `json:"id"`

	// Username is the account's display name.
	Username string `json:"username"`
}
