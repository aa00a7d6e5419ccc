// internal/storage/postgres.go
package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"microblog/internal/model"
)

// ErrNotFound is returned when a lookup by id or username matches no row.
var ErrNotFound = errors.New("record not found")

// ErrDuplicateUsername is returned when an account insert collides with an
// existing username.
var ErrDuplicateUsername = errors.New("username already taken")

const uniqueViolation = "23505"

type Storage struct {
	DB *sql.DB
}

func NewStorage(dsn string) (*Storage, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to db: %w", err)
	}
	return &Storage{DB: db}, nil
}

// EnsureSchema creates the tables if they don't exist
func (s *Storage) EnsureSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS accounts (
		account_id BIGSERIAL PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS messages (
		message_id BIGSERIAL PRIMARY KEY,
		posted_by BIGINT NOT NULL,
		message_text VARCHAR(255) NOT NULL,
		time_posted_epoch BIGINT NOT NULL DEFAULT 0
	);
	CREATE TABLE IF NOT EXISTS message_events (
		id UUID PRIMARY KEY,
		type TEXT NOT NULL,
		account_id BIGINT NOT NULL DEFAULT 0,
		message_id BIGINT NOT NULL DEFAULT 0,
		occurred_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`

	if _, err := s.DB.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// CreateAccountIfUsernameAbsent checks username uniqueness and inserts the
// account inside a single transaction. The UNIQUE constraint on username
// backstops the check, so concurrent registrations with the same username
// cannot both commit.
func (s *Storage) CreateAccountIfUsernameAbsent(a *model.Account) (*model.Account, error) {
	tx, err := s.DB.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	var existing int64
	err = tx.QueryRow(`SELECT account_id FROM accounts WHERE username = $1`, a.Username).Scan(&existing)
	if err == nil {
		return nil, ErrDuplicateUsername
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	created := *a
	err = tx.QueryRow(`
		INSERT INTO accounts (username, password)
		VALUES ($1, $2)
		RETURNING account_id
	`, a.Username, a.Password).Scan(&created.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return nil, ErrDuplicateUsername
		}
		return nil, fmt.Errorf("failed to insert account: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit account insert: %w", err)
	}
	return &created, nil
}

func (s *Storage) FindAccountByUsername(username string) (*model.Account, error) {
	var a model.Account
	err := s.DB.QueryRow(`
		SELECT account_id, username, password
		FROM accounts
		WHERE username = $1
	`, username).Scan(&a.ID, &a.Username, &a.Password)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find account by username: %w", err)
	}
	return &a, nil
}

func (s *Storage) FindAccountByID(id int64) (*model.Account, error) {
	var a model.Account
	err := s.DB.QueryRow(`
		SELECT account_id, username, password
		FROM accounts
		WHERE account_id = $1
	`, id).Scan(&a.ID, &a.Username, &a.Password)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find account by id: %w", err)
	}
	return &a, nil
}

// InsertMessage persists a message and returns it with the assigned id.
func (s *Storage) InsertMessage(m *model.Message) (*model.Message, error) {
	created := *m
	err := s.DB.QueryRow(`
		INSERT INTO messages (posted_by, message_text, time_posted_epoch)
		VALUES ($1, $2, $3)
		RETURNING message_id
	`, m.PostedBy, m.MessageText, m.TimePostedEpoch).Scan(&created.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert message: %w", err)
	}
	return &created, nil
}

func (s *Storage) FindMessageByID(id int64) (*model.Message, error) {
	var m model.Message
	err := s.DB.QueryRow(`
		SELECT message_id, posted_by, message_text, time_posted_epoch
		FROM messages
		WHERE message_id = $1
	`, id).Scan(&m.ID, &m.PostedBy, &m.MessageText, &m.TimePostedEpoch)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find message by id: %w", err)
	}
	return &m, nil
}

func (s *Storage) ListMessages() ([]model.Message, error) {
	rows, err := s.DB.Query(`
		SELECT message_id, posted_by, message_text, time_posted_epoch
		FROM messages
		ORDER BY message_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []model.Message
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.PostedBy, &m.MessageText, &m.TimePostedEpoch); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// UpdateMessageText overwrites message_text for an existing row and returns
// the updated message.
func (s *Storage) UpdateMessageText(id int64, text string) (*model.Message, error) {
	var m model.Message
	err := s.DB.QueryRow(`
		UPDATE messages
		SET message_text = $1
		WHERE message_id = $2
		RETURNING message_id, posted_by, message_text, time_posted_epoch
	`, text, id).Scan(&m.ID, &m.PostedBy, &m.MessageText, &m.TimePostedEpoch)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update message: %w", err)
	}
	return &m, nil
}

// DeleteMessage removes a message by id and reports whether a row existed.
func (s *Storage) DeleteMessage(id int64) (bool, error) {
	res, err := s.DB.Exec(`DELETE FROM messages WHERE message_id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete message: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}

// InsertEvent appends an audit row consumed from the event queue.
func (s *Storage) InsertEvent(e *model.Event) error {
	_, err := s.DB.Exec(`
		INSERT INTO message_events (id, type, account_id, message_id, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`, e.ID, e.Type, e.AccountID, e.MessageID, e.OccurredAt)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}
