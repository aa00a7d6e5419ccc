package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"microblog/internal/config"
	"microblog/internal/model"
	"microblog/internal/service"
	"microblog/internal/storage"
)

// ---- in-memory store ----

type memStore struct {
	accounts      map[int64]model.Account
	accountByName map[string]int64
	messages      map[int64]model.Message
	order         []int64
	nextAccountID int64
	nextMessageID int64
}

func newMemStore() *memStore {
	return &memStore{
		accounts:      make(map[int64]model.Account),
		accountByName: make(map[string]int64),
		messages:      make(map[int64]model.Message),
	}
}

func (s *memStore) CreateAccountIfUsernameAbsent(a *model.Account) (*model.Account, error) {
	if _, exists := s.accountByName[a.Username]; exists {
		return nil, storage.ErrDuplicateUsername
	}
	s.nextAccountID++
	created := *a
	created.ID = s.nextAccountID
	s.accounts[created.ID] = created
	s.accountByName[created.Username] = created.ID
	return &created, nil
}

func (s *memStore) FindAccountByUsername(username string) (*model.Account, error) {
	id, ok := s.accountByName[username]
	if !ok {
		return nil, storage.ErrNotFound
	}
	a := s.accounts[id]
	return &a, nil
}

func (s *memStore) FindAccountByID(id int64) (*model.Account, error) {
	a, ok := s.accounts[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &a, nil
}

func (s *memStore) InsertMessage(m *model.Message) (*model.Message, error) {
	s.nextMessageID++
	created := *m
	created.ID = s.nextMessageID
	s.messages[created.ID] = created
	s.order = append(s.order, created.ID)
	return &created, nil
}

func (s *memStore) FindMessageByID(id int64) (*model.Message, error) {
	m, ok := s.messages[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &m, nil
}

func (s *memStore) ListMessages() ([]model.Message, error) {
	var messages []model.Message
	for _, id := range s.order {
		if m, ok := s.messages[id]; ok {
			messages = append(messages, m)
		}
	}
	return messages, nil
}

func (s *memStore) UpdateMessageText(id int64, text string) (*model.Message, error) {
	m, ok := s.messages[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	m.MessageText = text
	s.messages[id] = m
	return &m, nil
}

func (s *memStore) DeleteMessage(id int64) (bool, error) {
	if _, ok := s.messages[id]; !ok {
		return false, nil
	}
	delete(s.messages, id)
	return true, nil
}

// ---- event capture ----

type capturePublisher struct {
	events []model.Event
}

func (p *capturePublisher) PublishEvent(e model.Event) error {
	p.events = append(p.events, e)
	return nil
}

// ---- helpers ----

func newTestAPI() (*API, *memStore, *capturePublisher) {
	store := newMemStore()
	pub := &capturePublisher{}
	a := NewAPI(
		service.NewAccountService(store),
		service.NewMessageService(store, store),
		pub,
		&config.Config{},
	)
	return a, store, pub
}

func doRequest(t *testing.T, handler http.Handler, method, url string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, url, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func registerAccount(t *testing.T, handler http.Handler) model.Account {
	t.Helper()
	w := doRequest(t, handler, http.MethodPost, "/register",
		model.Account{Username: "bob", Password: "abcd"})
	require.Equal(t, http.StatusOK, w.Code)

	var account model.Account
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &account))
	return account
}

// ---- tests ----

func TestRegisterEndpoint(t *testing.T) {
	a, _, pub := newTestAPI()
	router := a.Router()

	w := doRequest(t, router, http.MethodPost, "/register",
		model.Account{Username: "bob", Password: "abcd"})
	require.Equal(t, http.StatusOK, w.Code)

	var account model.Account
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &account))
	assert.NotZero(t, account.ID)
	assert.Equal(t, "bob", account.Username)

	require.Len(t, pub.events, 1)
	assert.Equal(t, model.EventAccountRegistered, pub.events[0].Type)
	assert.Equal(t, account.ID, pub.events[0].AccountID)
}

func TestRegisterEndpointRejections(t *testing.T) {
	a, _, _ := newTestAPI()
	router := a.Router()

	tests := []struct {
		name           string
		body           model.Account
		expectedStatus int
	}{
		{"blank username", model.Account{Username: "", Password: "abcd"}, http.StatusBadRequest},
		{"short password", model.Account{Username: "bob", Password: "abc"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, router, http.MethodPost, "/register", tt.body)
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestRegisterEndpointDuplicate(t *testing.T) {
	a, _, _ := newTestAPI()
	router := a.Router()
	registerAccount(t, router)

	w := doRequest(t, router, http.MethodPost, "/register",
		model.Account{Username: "bob", Password: "other"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLoginEndpoint(t *testing.T) {
	a, _, _ := newTestAPI()
	router := a.Router()
	registered := registerAccount(t, router)

	w := doRequest(t, router, http.MethodPost, "/login",
		model.Account{Username: "bob", Password: "abcd"})
	require.Equal(t, http.StatusOK, w.Code)

	var account model.Account
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &account))
	assert.Equal(t, registered.ID, account.ID)

	w = doRequest(t, router, http.MethodPost, "/login",
		model.Account{Username: "bob", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(t, router, http.MethodPost, "/login",
		model.Account{Username: "nope", Password: "x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateMessageEndpoint(t *testing.T) {
	a, _, pub := newTestAPI()
	router := a.Router()
	account := registerAccount(t, router)

	w := doRequest(t, router, http.MethodPost, "/messages",
		model.Message{PostedBy: account.ID, MessageText: "hi", TimePostedEpoch: 1669947792})
	require.Equal(t, http.StatusOK, w.Code)

	var message model.Message
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &message))
	assert.NotZero(t, message.ID)
	assert.Equal(t, "hi", message.MessageText)

	require.Len(t, pub.events, 2) // account.registered + message.created
	assert.Equal(t, model.EventMessageCreated, pub.events[1].Type)
	assert.Equal(t, message.ID, pub.events[1].MessageID)
}

func TestCreateMessageEndpointRejections(t *testing.T) {
	a, _, _ := newTestAPI()
	router := a.Router()
	account := registerAccount(t, router)

	tests := []struct {
		name string
		body model.Message
	}{
		{"blank text", model.Message{PostedBy: account.ID, MessageText: ""}},
		{"text too long", model.Message{PostedBy: account.ID, MessageText: strings.Repeat("a", 255)}},
		{"unknown account", model.Message{PostedBy: account.ID + 99, MessageText: "hi"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, router, http.MethodPost, "/messages", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestGetAllMessagesEndpoint(t *testing.T) {
	a, _, _ := newTestAPI()
	router := a.Router()

	w := doRequest(t, router, http.MethodGet, "/messages", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())

	account := registerAccount(t, router)
	for _, text := range []string{"one", "two"} {
		w := doRequest(t, router, http.MethodPost, "/messages",
			model.Message{PostedBy: account.ID, MessageText: text})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w = doRequest(t, router, http.MethodGet, "/messages", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var messages []model.Message
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &messages))
	require.Len(t, messages, 2)
}

func TestGetMessageByIDEndpoint(t *testing.T) {
	a, _, _ := newTestAPI()
	router := a.Router()
	account := registerAccount(t, router)

	w := doRequest(t, router, http.MethodPost, "/messages",
		model.Message{PostedBy: account.ID, MessageText: "hi"})
	require.Equal(t, http.StatusOK, w.Code)
	var created model.Message
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doRequest(t, router, http.MethodGet, "/messages/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var found model.Message
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &found))
	assert.Equal(t, created, found)

	// Miss is a 200 with a null body, not a 404.
	w = doRequest(t, router, http.MethodGet, "/messages/42", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null", strings.TrimSpace(w.Body.String()))
}

func TestDeleteMessageByIDEndpoint(t *testing.T) {
	a, _, pub := newTestAPI()
	router := a.Router()
	account := registerAccount(t, router)

	w := doRequest(t, router, http.MethodPost, "/messages",
		model.Message{PostedBy: account.ID, MessageText: "hi"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, router, http.MethodDelete, "/messages/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", strings.TrimSpace(w.Body.String()))
	assert.Equal(t, model.EventMessageDeleted, pub.events[len(pub.events)-1].Type)

	// Second delete hits nothing: 200 with a null body.
	w = doRequest(t, router, http.MethodDelete, "/messages/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null", strings.TrimSpace(w.Body.String()))
}

func TestUpdateMessageByIDEndpoint(t *testing.T) {
	a, store, pub := newTestAPI()
	router := a.Router()
	account := registerAccount(t, router)

	w := doRequest(t, router, http.MethodPost, "/messages",
		model.Message{PostedBy: account.ID, MessageText: "old"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, router, http.MethodPatch, "/messages/1",
		model.Message{MessageText: "new text"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", strings.TrimSpace(w.Body.String()))
	assert.Equal(t, "new text", store.messages[1].MessageText)
	assert.Equal(t, model.EventMessageUpdated, pub.events[len(pub.events)-1].Type)

	w = doRequest(t, router, http.MethodPatch, "/messages/1",
		model.Message{MessageText: ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, router, http.MethodPatch, "/messages/42",
		model.Message{MessageText: "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInvalidMessageID(t *testing.T) {
	a, _, _ := newTestAPI()
	router := a.Router()

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		w := doRequest(t, router, method, "/messages/abc", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, "method %s", method)
	}

	w := doRequest(t, router, http.MethodPatch, "/messages/abc",
		model.Message{MessageText: "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "method %s", http.MethodPatch)
}

func TestHealthEndpoint(t *testing.T) {
	a, _, _ := newTestAPI()
	router := a.Router()

	w := doRequest(t, router, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
