package push

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/go-notify-nosql/internal/domain"
	"google.golang.org/api/option"
)

// MaxChunkSize is the most tokens FCM accepts in one multicast request.
const MaxChunkSize = 500

var tokenPattern = regexp.MustCompile(`^[A-Za-z0-9_\-:]{32,4096}$`)

// MulticastClient is the subset of *messaging.Client used here.
type MulticastClient interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

var _ MulticastClient = (*messaging.Client)(nil)

// FCM sends push notifications through Firebase Cloud Messaging.
type FCM struct {
	client    MulticastClient
	chunkSize int
}

// NewFCMFromFile builds an FCM sender from a service account file.
func NewFCMFromFile(ctx context.Context, credentialsPath string, chunkSize int) (*FCM, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase messaging: %w", err)
	}
	return NewFCM(client, chunkSize), nil
}

func NewFCM(client MulticastClient, chunkSize int) *FCM {
	if chunkSize <= 0 || chunkSize > MaxChunkSize {
		chunkSize = MaxChunkSize
	}
	return &FCM{client: client, chunkSize: chunkSize}
}

// Push sends msg to every valid token. Malformed tokens are dropped before
// sending and per-token rejections are only logged; an error is returned when
// a whole chunk could not be sent.
func (f *FCM) Push(ctx context.Context, msg domain.PushMessage) error {
	tokens := ValidTokens(msg.Tokens)
	if dropped := len(msg.Tokens) - len(tokens); dropped > 0 {
		slog.Info("dropped invalid push tokens", "dropped", dropped)
	}
	if len(tokens) == 0 {
		return nil
	}

	var errs []error
	for _, chunk := range Chunk(tokens, f.chunkSize) {
		resp, err := f.client.SendEachForMulticast(ctx, &messaging.MulticastMessage{
			Tokens: chunk,
			Data:   msg.Data,
			Notification: &messaging.Notification{
				Title:    msg.Title,
				Body:     msg.Body,
				ImageURL: msg.ImageURL,
			},
			Android: &messaging.AndroidConfig{
				Priority: "high",
				Notification: &messaging.AndroidNotification{
					Sound: "default",
				},
			},
			APNS: &messaging.APNSConfig{
				Payload: &messaging.APNSPayload{
					Aps: &messaging.Aps{Sound: "default"},
				},
			},
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("fcm multicast: %w", err))
			continue
		}
		logRejections(chunk, resp)
	}
	return errors.Join(errs...)
}

func logRejections(chunk []string, resp *messaging.BatchResponse) {
	if resp == nil || resp.FailureCount == 0 {
		return
	}
	for i, r := range resp.Responses {
		if r == nil || r.Success || i >= len(chunk) {
			continue
		}
		if messaging.IsUnregistered(r.Error) {
			slog.Info("push token unregistered", "token_suffix", suffix(chunk[i]))
			continue
		}
		slog.Warn("push token rejected", "token_suffix", suffix(chunk[i]), "err", r.Error)
	}
}

// ValidTokens returns the well-formed tokens in order, without duplicates.
func ValidTokens(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if !tokenPattern.MatchString(t) {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Chunk splits tokens into slices of at most size elements.
func Chunk(tokens []string, size int) [][]string {
	var chunks [][]string
	for len(tokens) > size {
		chunks = append(chunks, tokens[:size:size])
		tokens = tokens[size:]
	}
	if len(tokens) > 0 {
		chunks = append(chunks, tokens)
	}
	return chunks
}

func suffix(token string) string {
	if len(token) <= 8 {
		return token
	}
	return token[len(token)-8:]
}
