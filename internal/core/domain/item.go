package domain

import "time"

// Item is a named catalogue entry managed through the items API.
type Item struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ItemUpdate carries a partial item update. Nil means "leave unchanged".
type ItemUpdate struct {
	Name        *string
	Description *string
}

func (u ItemUpdate) Empty() bool {
	return u.Name == nil && u.Description == nil
}
