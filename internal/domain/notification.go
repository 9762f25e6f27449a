package domain

import "time"

type Notification struct {
	NotificationID string    `json:"id" dynamodbav:"notification_id"`
	UserID         string    `json:"user_id" dynamodbav:"user_id"`
	RequestID      string    `json:"request_id" dynamodbav:"request_id"`
	Message        string    `json:"message" dynamodbav:"message"`
	Read           bool      `json:"read" dynamodbav:"read"`
	CreatedAt      time.Time `json:"created_at" dynamodbav:"created_at"`
}
