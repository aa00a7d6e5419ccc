package service

import (
	"microblog/internal/model"
	"microblog/internal/storage"
)

// fakeStore is an in-memory stand-in for storage.Storage implementing the
// store interfaces the services consume. A non-nil failWith makes every call
// fail, simulating a store outage.
type fakeStore struct {
	accounts      map[int64]model.Account
	accountByName map[string]int64
	messages      map[int64]model.Message
	order         []int64
	nextAccountID int64
	nextMessageID int64
	failWith      error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		accounts:      make(map[int64]model.Account),
		accountByName: make(map[string]int64),
		messages:      make(map[int64]model.Message),
	}
}

func (f *fakeStore) CreateAccountIfUsernameAbsent(a *model.Account) (*model.Account, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	if _, exists := f.accountByName[a.Username]; exists {
		return nil, storage.ErrDuplicateUsername
	}
	f.nextAccountID++
	created := *a
	created.ID = f.nextAccountID
	f.accounts[created.ID] = created
	f.accountByName[created.Username] = created.ID
	return &created, nil
}

func (f *fakeStore) FindAccountByUsername(username string) (*model.Account, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	id, ok := f.accountByName[username]
	if !ok {
		return nil, storage.ErrNotFound
	}
	a := f.accounts[id]
	return &a, nil
}

func (f *fakeStore) FindAccountByID(id int64) (*model.Account, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	a, ok := f.accounts[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &a, nil
}

func (f *fakeStore) InsertMessage(m *model.Message) (*model.Message, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.nextMessageID++
	created := *m
	created.ID = f.nextMessageID
	f.messages[created.ID] = created
	f.order = append(f.order, created.ID)
	return &created, nil
}

func (f *fakeStore) FindMessageByID(id int64) (*model.Message, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	m, ok := f.messages[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &m, nil
}

func (f *fakeStore) ListMessages() ([]model.Message, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	var messages []model.Message
	for _, id := range f.order {
		if m, ok := f.messages[id]; ok {
			messages = append(messages, m)
		}
	}
	return messages, nil
}

func (f *fakeStore) UpdateMessageText(id int64, text string) (*model.Message, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	m, ok := f.messages[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	m.MessageText = text
	f.messages[id] = m
	return &m, nil
}

func (f *fakeStore) DeleteMessage(id int64) (bool, error) {
	if f.failWith != nil {
		return false, f.failWith
	}
	if _, ok := f.messages[id]; !ok {
		return false, nil
	}
	delete(f.messages, id)
	return true, nil
}
