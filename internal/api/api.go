package api

import (
	"github.com/go-chi/chi/v5"

	"microblog/internal/config"
	"microblog/internal/model"
	"microblog/internal/service"
)

// EventPublisher pushes lifecycle events to the audit queue. Publishing is
// best-effort from the API's point of view; failures are logged, never
// surfaced to clients.
type EventPublisher interface {
	PublishEvent(e model.Event) error
}

type API struct {
	Accounts *service.AccountService
	Messages *service.MessageService
	Events   EventPublisher
	Routers  *chi.Mux
	Cfg      *config.Config
}

func NewAPI(accounts *service.AccountService, messages *service.MessageService, events EventPublisher, cfg *config.Config) *API {
	return &API{
		Accounts: accounts,
		Messages: messages,
		Events:   events,
		Routers:  chi.NewRouter(),
		Cfg:      cfg,
	}
}
