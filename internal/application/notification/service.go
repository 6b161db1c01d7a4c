package notification

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/go-notify-nosql/internal/domain"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100

	markReadConcurrency = 16
)

// Store is the subset of the notification log the service reads and updates.
type Store interface {
	KeysDescending(ctx context.Context, userID string) ([]domain.NotificationKey, error)
	PageAfter(ctx context.Context, userID string, after *domain.NotificationKey, limit int32) ([]domain.Notification, error)
	ListUnreadKeys(ctx context.Context, userID string) ([]domain.NotificationKey, error)
	MarkRead(ctx context.Context, key domain.NotificationKey) error
}

// UnreadStore is the per-user unread marker.
type UnreadStore interface {
	Exists(ctx context.Context, userID string) (bool, error)
	Delete(ctx context.Context, userID string) error
}

type Service interface {
	Page(ctx context.Context, userID string, offset, limit int) (*domain.NotificationPage, error)
	HasUnread(ctx context.Context, userID string) (bool, error)
	MarkAllRead(ctx context.Context, userID string) (bool, error)
	Clear(ctx context.Context, userID string) (bool, error)
}

type service struct {
	store  Store
	unread UnreadStore
}

func NewService(store Store, unread UnreadStore) Service {
	return &service{store: store, unread: unread}
}

// Page returns one offset/limit window of the user's feed, newest first.
// The full key list is read first so count and totalPages always describe the
// base log, then the window is fetched by resuming after the record at offset-1.
func (s *service) Page(ctx context.Context, userID string, offset, limit int) (*domain.NotificationPage, error) {
	if userID == "" {
		return nil, fmt.Errorf("userId is required: %w", domain.ErrBadRequest)
	}
	if offset < 0 {
		return nil, fmt.Errorf("offset must not be negative: %w", domain.ErrBadRequest)
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	limit = min(limit, MaxLimit)

	keys, err := s.store.KeysDescending(ctx, userID)
	if err != nil {
		return nil, err
	}
	count := len(keys)
	if offset > count {
		return nil, fmt.Errorf("offset %d exceeds %d items: %w", offset, count, domain.ErrOutOfRange)
	}
	if count == 0 {
		return nil, fmt.Errorf("no notifications for user %s: %w", userID, domain.ErrNotFound)
	}

	var after *domain.NotificationKey
	if offset > 0 {
		after = &keys[offset-1]
	}
	items, err := s.store.PageAfter(ctx, userID, after, int32(limit))
	if err != nil {
		return nil, err
	}
	return &domain.NotificationPage{
		Items:      items,
		Count:      count,
		Page:       offset/limit + 1,
		TotalPages: (count + limit - 1) / limit,
	}, nil
}

func (s *service) HasUnread(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, fmt.Errorf("userId is required: %w", domain.ErrBadRequest)
	}
	return s.unread.Exists(ctx, userID)
}

// MarkAllRead flips every unread record concurrently, then drops the marker.
// All flips are attempted even when some fail; nothing is rolled back. The
// marker is kept when any flip fails so the badge keeps reflecting the log.
func (s *service) MarkAllRead(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, fmt.Errorf("userId is required: %w", domain.ErrBadRequest)
	}
	keys, err := s.store.ListUnreadKeys(ctx, userID)
	if err != nil {
		return false, err
	}

	var failed atomic.Int32
	var g errgroup.Group
	g.SetLimit(markReadConcurrency)
	for _, key := range keys {
		g.Go(func() error {
			if err := s.store.MarkRead(ctx, key); err != nil {
				failed.Add(1)
				slog.Warn("mark notification read failed", "user_id", userID, "sk", key.SK, "err", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	if n := failed.Load(); n > 0 {
		slog.Warn("mark all read incomplete", "user_id", userID, "failed", n, "total", len(keys))
		return false, nil
	}
	if err := s.unread.Delete(ctx, userID); err != nil {
		slog.Warn("delete unread marker failed", "user_id", userID, "err", err)
		return false, nil
	}
	return true, nil
}

// Clear drops the unread marker regardless of per-record read state.
func (s *service) Clear(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, fmt.Errorf("userId is required: %w", domain.ErrBadRequest)
	}
	if err := s.unread.Delete(ctx, userID); err != nil {
		slog.Warn("clear unread marker failed", "user_id", userID, "err", err)
		return false, nil
	}
	return true, nil
}
