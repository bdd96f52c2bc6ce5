/*
Package auth validates connection credentials and resolves them to a user
identity.

The authenticator is pure validation plus a single store lookup: it never
mutates state, and every failure maps onto one of two client-visible
conditions so the websocket handler can pick the matching close code
(expired vs. invalid).
*/
package auth

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"dmchat/internal/app/store"
	"dmchat/internal/app/user"
	"dmchat/internal/pkg/auth/jwt"
	"dmchat/internal/pkg/errs"
	"dmchat/internal/pkg/logx"
)

// Authenticator validates bearer tokens and resolves them to user identities.
type Authenticator struct {
	secret string
	store  store.ConversationStore
	logger zerolog.Logger
}

// NewAuthenticator builds an Authenticator over the given signing secret and
// user lookup store.
func NewAuthenticator(secret string, st store.ConversationStore) *Authenticator {
	return &Authenticator{
		secret: secret,
		store:  st,
		logger: logx.Logger().With().Str("component", "authenticator").Logger(),
	}
}

// Authenticate validates rawToken and resolves its subject claim to a user
// identity. Failures are reported as ErrCredentialMissing, ErrCredentialExpired,
// or ErrCredentialInvalid; a token whose subject no longer exists counts as
// invalid.
func (a *Authenticator) Authenticate(ctx context.Context, rawToken string) (user.User, *errs.CustomError) {
	if rawToken == "" {
		return user.User{}, errs.NewError(errs.ErrCredentialMissing)
	}

	claims, err := jwt.ParseToken(rawToken, a.secret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			a.logger.Info().Msg("Rejected expired connection token")
			return user.User{}, errs.NewError(errs.ErrCredentialExpired)
		}

		a.logger.Warn().Err(err).Msg("Rejected invalid connection token")
		return user.User{}, errs.NewError(errs.ErrCredentialInvalid)
	}

	identity, err := a.store.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			a.logger.Warn().Int64("user_id", claims.UserID).Msg("Token subject no longer exists")
			return user.User{}, errs.NewError(errs.ErrCredentialInvalid)
		}

		a.logger.Error().Err(err).Int64("user_id", claims.UserID).Msg("User lookup failed during authentication")
		return user.User{}, errs.NewError(errs.ErrUnknown)
	}

	return identity, nil
}
