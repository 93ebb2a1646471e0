package domain

import "time"

// Subscriber es una suscripcion al newsletter, unica por email.
type Subscriber struct {
	Email        string    `json:"email" bson:"email"`
	SubscribedAt time.Time `json:"subscribedAt" bson:"subscribedAt"`
}
