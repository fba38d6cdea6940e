package Notifications

import (
	"context"
	"fmt"
	"log"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// Pusher delivers a push notification to one device token
type Pusher interface {
	Push(ctx context.Context, token string, title, body string, data map[string]string) error
}

// FirebasePusher sends through Firebase Cloud Messaging
type FirebasePusher struct {
	client *messaging.Client
}

// NewFirebasePusher initializes Firebase from a service account file
func NewFirebasePusher(ctx context.Context, credentialsFile string) (*FirebasePusher, error) {
	opt := option.WithCredentialsFile(credentialsFile)
	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting Messaging client: %w", err)
	}
	log.Println("Firebase initialized successfully")
	return &FirebasePusher{client: client}, nil
}

func (f *FirebasePusher) Push(ctx context.Context, token string, title, body string, data map[string]string) error {
	message := &messaging.Message{
		Token: token,
		Data:  data,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Android: &messaging.AndroidConfig{
			Notification: &messaging.AndroidNotification{
				Icon:  "task_overdue_icon",
				Color: "#FF0000",
				Sound: "default",
			},
			Priority: "high",
		},
	}

	response, err := f.client.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("error sending Firebase message: %w", err)
	}
	log.Printf("Successfully sent Firebase notification: %s", response)
	return nil
}
