package models

import "time"

// Message is a note sent from one user to another about a tutor listing.
type Message struct {
	ID          string    `db:"id" json:"id"`
	SenderID    string    `db:"sender_id" json:"sender_id"`
	RecipientID string    `db:"recipient_id" json:"recipient_id"`
	TutorPostID string    `db:"tutor_post_id" json:"tutor_post_id"`
	Body        string    `db:"body" json:"body"`
	Read        bool      `db:"read" json:"read"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// MessageView is an inbox entry with sender identity and listing context.
type MessageView struct {
	Message
	SenderEmail    string  `db:"sender_email" json:"sender_email"`
	RecipientEmail string  `db:"recipient_email" json:"recipient_email"`
	PostName       string  `db:"post_name" json:"post_name"`
	PostRate       float64 `db:"post_rate" json:"post_rate"`
}
