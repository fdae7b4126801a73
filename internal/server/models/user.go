package models

import "time"

// User is the identity record served by the user directory.
type User struct {
	ID           int64
	UserName     string
	Email        string
	FullName     string
	Admin        bool
	PasswordHash string
	Groups       []UserGroup
	LastLoginAt  *time.Time
	CreatedAt    time.Time
}

type UserGroup struct {
	ID     int64
	Name   string
	Handle string
}

// GroupNames returns group names in directory order.
func (u *User) GroupNames() []string {
	names := make([]string, 0, len(u.Groups))
	for _, g := range u.Groups {
		names = append(names, g.Name)
	}
	return names
}
