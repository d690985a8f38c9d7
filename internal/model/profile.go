package model

import "time"

type Profile struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"userId"`
	Name        string    `db:"name" json:"name"`
	Bio         string    `db:"bio" json:"bio"`
	PhoneNumber string    `db:"phone_number" json:"phoneNumber"`
	Location    string    `db:"location" json:"location"`
	DateOfBirth string    `db:"date_of_birth" json:"dateOfBirth"` // YYYY-MM-DD or empty
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}
