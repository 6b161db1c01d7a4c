package redis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-notify-nosql/internal/config"
	"github.com/go-notify-nosql/internal/domain"
	"github.com/redis/go-redis/v9"
)

type pubSubClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
}

// Bus carries socket frames between instances. Every instance subscribes to
// the channel of each connection it holds, so a publish with no receivers
// means the connection is gone.
type Bus struct {
	client pubSubClient
	prefix string
}

func NewClient(cfg config.Redis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

func NewBus(client *redis.Client, prefix string) *Bus {
	return newBus(client, prefix)
}

func newBus(client pubSubClient, prefix string) *Bus {
	return &Bus{client: client, prefix: prefix}
}

func (b *Bus) channel(connectionID string) string {
	return fmt.Sprintf("%s:conn:%s", b.prefix, connectionID)
}

// PostToConnection publishes data to the instance holding the connection.
func (b *Bus) PostToConnection(ctx context.Context, connectionID string, data []byte) error {
	receivers, err := b.client.Publish(ctx, b.channel(connectionID), data).Result()
	if err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	if receivers == 0 {
		return domain.ErrGone
	}
	return nil
}

// Subscribe forwards frames published for connectionID to deliver until the
// returned function is called.
func (b *Bus) Subscribe(ctx context.Context, connectionID string, deliver func([]byte)) (func() error, error) {
	ps := b.client.Subscribe(ctx, b.channel(connectionID))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("redis subscribe: %w", err)
	}
	go func() {
		for msg := range ps.Channel() {
			deliver([]byte(msg.Payload))
		}
		slog.Debug("bus subscription closed", "connection_id", connectionID)
	}()
	return ps.Close, nil
}
