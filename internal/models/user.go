package models

import "time"

// User is a registered account. The password column holds a bcrypt hash and
// is never serialized.
type User struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name"`
	Email     string    `json:"email" gorm:"uniqueIndex"`
	Password  string    `json:"-"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

// Identity returns the connection-facing view of the user.
func (u *User) Identity() Identity {
	return Identity{
		UserID:      u.ID,
		DisplayName: u.Name,
		Color:       u.Color,
	}
}
