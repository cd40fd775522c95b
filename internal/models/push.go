package models

import "time"

// PushSubscription holds a browser Web Push subscription for one user.
type PushSubscription struct {
	Endpoint  string    `db:"endpoint" json:"endpoint"`
	UserID    string    `db:"user_id" json:"user_id"`
	P256DH    string    `db:"p256dh" json:"p256dh"`
	Auth      string    `db:"auth" json:"auth"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// PushMessage is the payload handed to the delivery worker for one endpoint.
type PushMessage struct {
	Endpoint string           `json:"endpoint"`
	P256DH   string           `json:"p256dh"`
	Auth     string           `json:"auth"`
	Kind     NotificationKind `json:"kind"`
	Title    string           `json:"title"`
	Body     string           `json:"body"`
}
