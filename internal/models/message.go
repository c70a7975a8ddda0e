package models

import (
	"time"
)

// Message is a text sent from one user to another.
// Only ReadAt changes after creation, and only once.
type Message struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	FromUsername string     `json:"from_username" gorm:"size:64;not null;index"`
	ToUsername   string     `json:"to_username" gorm:"size:64;not null;index"`
	Body         string     `json:"body" gorm:"type:text;not null"`
	SentAt       time.Time  `json:"sent_at" gorm:"not null"`
	ReadAt       *time.Time `json:"read_at"`

	FromUser *User `json:"-" gorm:"foreignKey:FromUsername;references:Username;constraint:OnDelete:RESTRICT"`
	ToUser   *User `json:"-" gorm:"foreignKey:ToUsername;references:Username;constraint:OnDelete:RESTRICT"`
}

// IsRead reports whether the recipient has marked the message read
func (m *Message) IsRead() bool {
	return m.ReadAt != nil
}

// CreateMessageRequest is the body of POST /messages.
// The sender always comes from the authenticated identity.
type CreateMessageRequest struct {
	ToUsername string `json:"to_username" binding:"required"`
	Body       string `json:"body"`
}

// MessageDetail is a message with both participants expanded
type MessageDetail struct {
	ID       uint        `json:"id"`
	Body     string      `json:"body"`
	SentAt   time.Time   `json:"sent_at"`
	ReadAt   *time.Time  `json:"read_at"`
	FromUser UserSummary `json:"from_user"`
	ToUser   UserSummary `json:"to_user"`
}

// ReadReceipt is the response of marking a message read
type ReadReceipt struct {
	ID     uint       `json:"id"`
	ReadAt *time.Time `json:"read_at"`
}

// ReceivedMessage is an inbox entry with the sender expanded
type ReceivedMessage struct {
	ID       uint        `json:"id"`
	Body     string      `json:"body"`
	SentAt   time.Time   `json:"sent_at"`
	ReadAt   *time.Time  `json:"read_at"`
	FromUser UserSummary `json:"from_user"`
}

// SentMessage is an outbox entry with the recipient expanded
type SentMessage struct {
	ID     uint        `json:"id"`
	Body   string      `json:"body"`
	SentAt time.Time   `json:"sent_at"`
	ReadAt *time.Time  `json:"read_at"`
	ToUser UserSummary `json:"to_user"`
}

// Receipt returns the read receipt view of the message
func (m *Message) Receipt() ReadReceipt {
	return ReadReceipt{ID: m.ID, ReadAt: m.ReadAt}
}
