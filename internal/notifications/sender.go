package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

var _ Sender = (*FCMSender)(nil)

// multicastClient is the part of *messaging.Client the sender uses.
type multicastClient interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// FCMSender sends push notifications via Firebase Cloud Messaging.
type FCMSender struct {
	client multicastClient
	logger *slog.Logger
}

// NewFCMSender creates an FCM sender from a service account credentials file
// or an inline service account JSON document. The file wins when both are set.
func NewFCMSender(ctx context.Context, credentialsFile string, credentialsJSON []byte, logger *slog.Logger) (*FCMSender, error) {
	var opt option.ClientOption
	switch {
	case credentialsFile != "":
		opt = option.WithCredentialsFile(credentialsFile)
	case len(credentialsJSON) > 0:
		opt = option.WithCredentialsJSON(credentialsJSON)
	default:
		return nil, errors.New("no firebase credentials configured")
	}

	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("init messaging client: %w", err)
	}
	return newFCMSender(client, logger), nil
}

func newFCMSender(client multicastClient, logger *slog.Logger) *FCMSender {
	return &FCMSender{client: client, logger: logger}
}

// SendMulticast sends msg to every token and returns the number of devices
// that accepted it. Token sets larger than FCM's multicast limit go out in
// several batches; the call fails only if no batch could be sent.
func (s *FCMSender) SendMulticast(ctx context.Context, tokens []string, msg Message) (int, error) {
	if len(tokens) == 0 {
		return 0, errors.New("no tokens to send to")
	}

	success, sentBatches := 0, 0
	var firstErr error
	for _, batch := range chunkTokens(tokens, maxMulticastTokens) {
		resp, err := s.client.SendEachForMulticast(ctx, &messaging.MulticastMessage{
			Tokens: batch,
			Notification: &messaging.Notification{
				Title: msg.Title,
				Body:  msg.Body,
			},
			Data: msg.Data,
		})
		if err != nil {
			s.logger.Warn("FCM multicast batch failed", "tokens", len(batch), "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		sentBatches++
		success += resp.SuccessCount
		if resp.FailureCount > 0 {
			s.logger.Debug("FCM multicast partial delivery",
				"success", resp.SuccessCount, "failure", resp.FailureCount)
		}
	}

	if sentBatches == 0 {
		return 0, fmt.Errorf("fcm multicast: %w", firstErr)
	}
	return success, nil
}

// SendToken pushes msg to a single device. Used by the send-test command.
func (s *FCMSender) SendToken(ctx context.Context, token string, msg Message) error {
	n, err := s.SendMulticast(ctx, []string{token}, msg)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("token rejected by FCM")
	}
	return nil
}

func chunkTokens(tokens []string, size int) [][]string {
	var chunks [][]string
	for size < len(tokens) {
		tokens, chunks = tokens[size:], append(chunks, tokens[:size:size])
	}
	return append(chunks, tokens)
}
