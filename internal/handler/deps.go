package handler

import (
	"dmchat/internal/app/auth"
	"dmchat/internal/app/chat"
	"dmchat/internal/app/store"
	"dmchat/internal/configs"
)

// AppDeps bundles the shared dependencies injected into every handler.
type AppDeps struct {
	Config        *configs.AppConfig
	Store         store.ConversationStore
	Registry      *chat.Registry
	Router        *chat.Router
	Presence      *chat.PresenceTracker
	Authenticator *auth.Authenticator
}
