// internal/model/message.go
package model

type Message struct {
	ID              int64  `json:"message_id" db:"message_id"`
	PostedBy        int64  `json:"posted_by" db:"posted_by"`
	MessageText     string `json:"message_text" db:"message_text"`
	TimePostedEpoch int64  `json:"time_posted_epoch" db:"time_posted_epoch"`
}
