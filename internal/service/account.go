// internal/service/account.go
package service

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"microblog/internal/model"
	"microblog/internal/storage"
)

// ErrDuplicateUsername is returned by Register when the username is taken.
var ErrDuplicateUsername = errors.New("an account with the provided username already exists")

// ErrInvalidCredentials is returned by Authenticate for an unknown username
// or a wrong password. The two cases are deliberately indistinguishable.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ValidationError reports a registration input that failed a structural rule.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// AccountStore is the persistence surface the account service requires.
type AccountStore interface {
	CreateAccountIfUsernameAbsent(a *model.Account) (*model.Account, error)
	FindAccountByUsername(username string) (*model.Account, error)
}

type AccountService struct {
	accounts AccountStore
}

func NewAccountService(accounts AccountStore) *AccountService {
	return &AccountService{accounts: accounts}
}

// Register creates a new account. Checks run in order and the first failure
// wins: username must not be blank, password must be at least 4 characters,
// username must be unique. The uniqueness check and the insert happen inside
// one store transaction, so at most one of two concurrent registrations with
// the same username succeeds.
func (s *AccountService) Register(candidate model.Account) (*model.Account, error) {
	if isBlank(candidate.Username) {
		return nil, &ValidationError{Reason: "username cannot be blank"}
	}
	if utf8.RuneCountInString(candidate.Password) < 4 {
		return nil, &ValidationError{Reason: "password must be at least 4 characters long"}
	}

	created, err := s.accounts.CreateAccountIfUsernameAbsent(&candidate)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateUsername) {
			return nil, ErrDuplicateUsername
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return created, nil
}

// Authenticate looks up the account by username and compares passwords
// verbatim. Passwords are stored in plaintext, matching the legacy contract.
func (s *AccountService) Authenticate(candidate model.Account) (*model.Account, error) {
	existing, err := s.accounts.FindAccountByUsername(candidate.Username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if existing.Password != candidate.Password {
		return nil, ErrInvalidCredentials
	}
	return existing, nil
}
