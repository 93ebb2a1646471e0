package domain

import "time"

// User es la cuenta persistida. PasswordHash queda vacio en cuentas creadas solo via Google.
type User struct {
	ID             string    `json:"id" bson:"_id"`
	Name           string    `json:"name" bson:"name"`
	Email          string    `json:"email" bson:"email"`
	PasswordHash   string    `json:"-" bson:"password,omitempty"`
	ProfilePicture string    `json:"profilePicture,omitempty" bson:"profilePicture,omitempty"`
	CreatedAt      time.Time `json:"createdAt" bson:"createdAt"`
}

// HasPassword indica si la cuenta admite login con contraseña.
func (u User) HasPassword() bool {
	return u.PasswordHash != ""
}
