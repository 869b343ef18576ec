package models

import "time"

// AccountUser owns zero or more accounts.
type AccountUser struct {
	ID        int64     `json:"id" db:"id" example:"12"`
	Name      string    `json:"name" db:"name" example:"Pobi"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
