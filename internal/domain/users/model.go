package users

import "time"

type User struct {
	ID        string
	Name      string
	Email     string
	AvatarURL *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

const fallbackDisplayName = "Someone in your circle"

// DisplayName: nombre, si no email, si no "Someone in your circle".
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	if u.Email != "" {
		return u.Email
	}
	return fallbackDisplayName
}
