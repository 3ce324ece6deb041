package models

import (
	"time"
)

// User is the allergen profile of an authenticated caller.
// ID is the subject of the caller's bearer token.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email,omitempty"`
	Allergens []string  `json:"allergens"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChatMessage is one prior turn of a product chat.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chat roles accepted in history.
const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)
