package domain

import "time"

// User is a registered account on the hosted backup server.
type User struct {
	ID             string
	Email          string
	HashedPassword string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// StoredBackup is the backup document a user last uploaded, kept verbatim.
type StoredBackup struct {
	UserID    string
	Document  []byte
	UpdatedAt time.Time
}
