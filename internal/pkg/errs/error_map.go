/*
Package errs provides custom error types and application-level error code constants.

This file maps every error code to its CustomError template, used to
standardize HTTP responses and internal error handling.
*/
package errs

import "net/http"

// errorMap stores the CustomError template for every application error code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:     {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrRateLimitExceeded: {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx: Conversation and Message Errors
	ErrConversationNotFound:  {Code: ErrConversationNotFound, Message: "Conversation not found.", Status: http.StatusNotFound},
	ErrUserNotFound:          {Code: ErrUserNotFound, Message: "Account not found.", Status: http.StatusNotFound},
	ErrMessageContentTooLong: {Code: ErrMessageContentTooLong, Message: "Message is too long."},

	// 3xxx: Credential and Authorization Errors
	ErrCredentialMissing: {Code: ErrCredentialMissing, Message: "Sign-in token is missing.", Status: http.StatusUnauthorized},
	ErrCredentialExpired: {Code: ErrCredentialExpired, Message: "Sign-in token has expired.", Status: http.StatusUnauthorized},
	ErrCredentialInvalid: {Code: ErrCredentialInvalid, Message: "Sign-in token is invalid.", Status: http.StatusUnauthorized},
	ErrNotParticipant:    {Code: ErrNotParticipant, Message: "You are not a participant of this conversation.", Status: http.StatusForbidden},

	// 4xxx: Frame Errors
	ErrMalformedFrame: {Code: ErrMalformedFrame, Message: "Unsupported message format."},

	// 5xxx: Internal System Errors
	ErrUnknown:           {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
	ErrPersistenceFailed: {Code: ErrPersistenceFailed, Message: "Message could not be saved. Please try again.", Status: http.StatusInternalServerError},
}
