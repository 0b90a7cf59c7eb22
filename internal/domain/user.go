package domain

import "time"

type User struct {
	ID        uint
	UID       string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}
