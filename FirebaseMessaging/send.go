package FirebaseMessaging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gurunathasmb/Major-project/Models"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

var messagingClient *messaging.Client

var ErrNoRecipients = errors.New("no device tokens")

// Setup initializes the messaging client. Without a service account path
// application default credentials are used.
func Setup(serviceAccountPath string) error {
	ctx := context.Background()

	var (
		app *firebase.App
		err error
	)
	if serviceAccountPath != "" {
		app, err = firebase.NewApp(ctx, nil, option.WithCredentialsFile(serviceAccountPath))
	} else {
		log.Info().Msg("FIREBASE_SERVICE_ACCOUNT_PATH not set, using application default credentials")
		app, err = firebase.NewApp(ctx, nil)
	}
	if err != nil {
		return fmt.Errorf("initialize firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return fmt.Errorf("initialize firebase messaging client: %w", err)
	}
	messagingClient = client
	log.Info().Msg("Firebase messaging client initialized successfully")
	return nil
}

func Enabled() bool {
	return messagingClient != nil
}

// BuildMessage assembles the notification with the platform options used
// for every push.
func BuildMessage(req Models.NotificationRequest) *messaging.MulticastMessage {
	return &messaging.MulticastMessage{
		Tokens: req.Tokens,
		Notification: &messaging.Notification{
			Title: req.Title,
			Body:  req.Body,
		},
		Data: req.Data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound:    "default",
				Priority: messaging.PriorityHigh,
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority": "10",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Alert: &messaging.ApsAlert{
						Title: req.Title,
						Body:  req.Body,
					},
					Sound: "default",
				},
			},
		},
	}
}

// SendMessage pushes the notification to every token. It is a no-op when
// Setup was never called.
func SendMessage(req Models.NotificationRequest) error {
	if messagingClient == nil {
		return nil
	}
	if len(req.Tokens) == 0 {
		return ErrNoRecipients
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	msg := BuildMessage(req)
	if len(req.Tokens) == 1 {
		_, err := messagingClient.Send(ctx, &messaging.Message{
			Token:        req.Tokens[0],
			Notification: msg.Notification,
			Data:         msg.Data,
			Android:      msg.Android,
			APNS:         msg.APNS,
		})
		if err != nil {
			return fmt.Errorf("send message: %w", err)
		}
		return nil
	}

	resp, err := messagingClient.SendEachForMulticast(ctx, msg)
	if err != nil {
		return fmt.Errorf("send multicast message: %w", err)
	}
	if resp.FailureCount > 0 {
		log.Warn().Int("failed", resp.FailureCount).Int("sent", resp.SuccessCount).Msg("some push notifications failed")
	}
	return nil
}
