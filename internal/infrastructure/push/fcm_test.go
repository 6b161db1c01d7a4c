package push

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"firebase.google.com/go/v4/messaging"
	"github.com/go-notify-nosql/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMulticast struct {
	sent []*messaging.MulticastMessage
	err  error
}

func (f *fakeMulticast) SendEachForMulticast(_ context.Context, m *messaging.MulticastMessage) (*messaging.BatchResponse, error) {
	f.sent = append(f.sent, m)
	if f.err != nil {
		return nil, f.err
	}
	return &messaging.BatchResponse{SuccessCount: len(m.Tokens)}, nil
}

func token(i int) string {
	return fmt.Sprintf("tok%03d:%s", i, strings.Repeat("a", 40))
}

func TestValidTokens_DropsMalformedAndDuplicates(t *testing.T) {
	good := token(1)
	in := []string{good, "short", "", good, "bad token with spaces " + strings.Repeat("x", 40), token(2)}
	assert.Equal(t, []string{good, token(2)}, ValidTokens(in))
}

func TestChunk(t *testing.T) {
	tokens := make([]string, 1001)
	for i := range tokens {
		tokens[i] = token(i)
	}
	chunks := Chunk(tokens, 500)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 500)
	assert.Len(t, chunks[1], 500)
	assert.Len(t, chunks[2], 1)
	assert.Empty(t, Chunk(nil, 500))
}

func TestPush_SendsInChunks(t *testing.T) {
	client := &fakeMulticast{}
	f := NewFCM(client, 2)

	err := f.Push(context.Background(), domain.PushMessage{
		Tokens: []string{token(1), token(2), token(3), "junk"},
		Title:  "Like your post",
		Body:   "Ann like your post",
		Data:   map[string]string{"type": "LIKE_POST"},
	})
	require.NoError(t, err)

	require.Len(t, client.sent, 2)
	assert.Equal(t, []string{token(1), token(2)}, client.sent[0].Tokens)
	assert.Equal(t, []string{token(3)}, client.sent[1].Tokens)
	assert.Equal(t, "Like your post", client.sent[0].Notification.Title)
	assert.Equal(t, "LIKE_POST", client.sent[1].Data["type"])
}

func TestPush_NoValidTokensIsNotAnError(t *testing.T) {
	client := &fakeMulticast{}
	f := NewFCM(client, 0)
	require.NoError(t, f.Push(context.Background(), domain.PushMessage{Tokens: []string{"x"}}))
	assert.Empty(t, client.sent)
}

func TestPush_ChunkFailureReturned(t *testing.T) {
	client := &fakeMulticast{err: errors.New("quota exceeded")}
	f := NewFCM(client, 500)
	err := f.Push(context.Background(), domain.PushMessage{Tokens: []string{token(1)}})
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestNewFCM_ClampsChunkSize(t *testing.T) {
	assert.Equal(t, MaxChunkSize, NewFCM(&fakeMulticast{}, 10000).chunkSize)
	assert.Equal(t, 50, NewFCM(&fakeMulticast{}, 50).chunkSize)
}
