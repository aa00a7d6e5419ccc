package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	httpSwagger "github.com/swaggo/http-swagger"

	"microblog/internal/metrics"
	"microblog/internal/model"
	"microblog/internal/service"
)

func (a *API) Router() http.Handler {
	a.Routers.Post("/register", a.Register)
	a.Routers.Post("/login", a.Login)

	a.Routers.Post("/messages", a.CreateMessage)
	a.Routers.Get("/messages", a.GetAllMessages)
	a.Routers.Get("/messages/{message_id}", a.GetMessageByID)
	a.Routers.Delete("/messages/{message_id}", a.DeleteMessageByID)
	a.Routers.Patch("/messages/{message_id}", a.UpdateMessageByID)

	a.Routers.Get("/healthz", a.Health)
	a.Routers.Handle("/metrics", metrics.Handler())
	a.Routers.Get("/swagger/*", httpSwagger.WrapHandler)

	return a.Routers
}

// @Summary Register a new account
// @Tags Accounts
// @Accept json
// @Produce json
// @Param body body model.Account true "Account to register"
// @Success 200 {object} model.Account
// @Failure 400 "Validation failed"
// @Failure 409 "Username already taken"
// @Router /register [post]
func (a *API) Register(w http.ResponseWriter, r *http.Request) {
	var candidate model.Account
	if err := json.NewDecoder(r.Body).Decode(&candidate); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}

	created, err := a.Accounts.Register(candidate)
	if err != nil {
		var vErr *service.ValidationError
		switch {
		case errors.As(err, &vErr):
			log.Printf("API: /register rejected for %q: %v", candidate.Username, err)
			http.Error(w, vErr.Reason, http.StatusBadRequest)
		case errors.Is(err, service.ErrDuplicateUsername):
			log.Printf("API: /register conflict for %q", candidate.Username)
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	metrics.AccountsRegistered.Inc()
	a.publish(model.EventAccountRegistered, created.ID, 0)
	respondJSON(w, created)
}

// @Summary Authenticate an account
// @Tags Accounts
// @Accept json
// @Produce json
// @Param body body model.Account true "Credentials"
// @Success 200 {object} model.Account
// @Failure 401 "Invalid credentials"
// @Router /login [post]
func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	var candidate model.Account
	if err := json.NewDecoder(r.Body).Decode(&candidate); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}

	account, err := a.Accounts.Authenticate(candidate)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, account)
}

// @Summary Create a message
// @Tags Messages
// @Accept json
// @Produce json
// @Param body body model.Message true "Message to create"
// @Success 200 {object} model.Message
// @Failure 400 "Message rejected"
// @Router /messages [post]
func (a *API) CreateMessage(w http.ResponseWriter, r *http.Request) {
	var candidate model.Message
	if err := json.NewDecoder(r.Body).Decode(&candidate); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}

	created, err := a.Messages.CreateMessage(candidate)
	if err != nil {
		if errors.Is(err, service.ErrMessageRejected) {
			http.Error(w, "message rejected", http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	metrics.MessagesCreated.Inc()
	a.publish(model.EventMessageCreated, created.PostedBy, created.ID)
	respondJSON(w, created)
}

// @Summary List all messages
// @Tags Messages
// @Produce json
// @Success 200 {array} model.Message
// @Router /messages [get]
func (a *API) GetAllMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := a.Messages.GetAllMessages()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, messages)
}

// @Summary Get a message by id
// @Tags Messages
// @Produce json
// @Param message_id path int true "Message id"
// @Success 200 {object} model.Message "Message, or null when not found"
// @Router /messages/{message_id} [get]
func (a *API) GetMessageByID(w http.ResponseWriter, r *http.Request) {
	id, err := messageID(r)
	if err != nil {
		http.Error(w, "invalid message id", http.StatusBadRequest)
		return
	}

	message, err := a.Messages.GetMessageByID(id)
	if err != nil {
		if errors.Is(err, service.ErrMessageNotFound) {
			// Legacy contract: a miss is still a 200 with a null body.
			respondJSON(w, nil)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, message)
}

// @Summary Delete a message by id
// @Tags Messages
// @Produce json
// @Param message_id path int true "Message id"
// @Success 200 {integer} int "1 when deleted, null when the id did not exist"
// @Router /messages/{message_id} [delete]
func (a *API) DeleteMessageByID(w http.ResponseWriter, r *http.Request) {
	id, err := messageID(r)
	if err != nil {
		http.Error(w, "invalid message id", http.StatusBadRequest)
		return
	}

	deleted, err := a.Messages.DeleteMessageByID(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if !deleted {
		respondJSON(w, nil)
		return
	}

	a.publish(model.EventMessageDeleted, 0, id)
	respondJSON(w, 1)
}

// @Summary Update a message's text by id
// @Tags Messages
// @Accept json
// @Produce json
// @Param message_id path int true "Message id"
// @Param body body model.Message true "Body carrying the new message_text"
// @Success 200 {integer} int "1 on success"
// @Failure 400 "Message rejected"
// @Router /messages/{message_id} [patch]
func (a *API) UpdateMessageByID(w http.ResponseWriter, r *http.Request) {
	id, err := messageID(r)
	if err != nil {
		http.Error(w, "invalid message id", http.StatusBadRequest)
		return
	}

	var body model.Message
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}

	updated, err := a.Messages.UpdateMessageByID(body.MessageText, id)
	if err != nil {
		if errors.Is(err, service.ErrMessageRejected) {
			http.Error(w, "message rejected", http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	a.publish(model.EventMessageUpdated, updated.PostedBy, updated.ID)
	respondJSON(w, 1)
}

// @Summary Liveness probe
// @Tags Ops
// @Success 200
// @Router /healthz [get]
func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (a *API) publish(eventType string, accountID, messageID int64) {
	if a.Events == nil {
		return
	}
	e := model.Event{
		ID:         uuid.New(),
		Type:       eventType,
		AccountID:  accountID,
		MessageID:  messageID,
		OccurredAt: time.Now().UTC(),
	}
	if err := a.Events.PublishEvent(e); err != nil {
		log.Printf("API: failed to publish %s event: %v", eventType, err)
	}
}

func messageID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "message_id"), 10, 64)
}

func respondJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("API: failed to encode response: %v", err)
	}
}
