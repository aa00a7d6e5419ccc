// internal/model/account.go
package model

type Account struct {
	ID       int64  `json:"account_id" db:"account_id"`
	Username string `json:"username" db:"username"`
	Password string `json:"password" db:"password"`
}
