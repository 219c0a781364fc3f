package photos

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"retail-audit/internal/retry"
)

// Service — сжатие, загрузка и удаление старых версий фото
type Service struct {
	store     BlobStore
	opts      Options
	retention int
}

func NewService(store BlobStore, opts Options, retention int) *Service {
	if retention < 1 {
		retention = 1
	}
	return &Service{store: store, opts: opts, retention: retention}
}

// Upload сжимает фото, сохраняет его и подрезает историю ключа до retention
func (s *Service) Upload(ctx context.Context, key string, raw []byte) (*Encoded, error) {
	enc, err := Compress(raw, s.opts)
	if err != nil {
		return nil, err
	}

	err = retry.Run(ctx, retry.DefaultOptions("put photo "+key), func() error {
		return s.store.Put(ctx, key, enc.ContentType, enc.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("store photo %s: %w", key, err)
	}

	removed, err := s.prune(ctx, key)
	if err != nil {
		// фото уже сохранено; старые версии дочистит Sweep
		slog.Warn("photos: prune after upload failed", "key", key, "error", err)
	}

	slog.Info("photos: uploaded",
		"key", key,
		"content_type", enc.ContentType,
		"size_bytes", len(enc.Data),
		"width", enc.Width,
		"height", enc.Height,
		"quality", enc.Quality,
		"target_reached", enc.TargetReached,
		"pruned", removed)
	return enc, nil
}

func (s *Service) Latest(ctx context.Context, key string) (*Blob, error) {
	return retry.Do(ctx, retry.DefaultOptions("get photo "+key), func() (*Blob, error) {
		blob, err := s.store.Latest(ctx, key)
		if errors.Is(err, ErrNotFound) {
			return nil, retry.Permanent(err)
		}
		return blob, err
	})
}

// Has — есть ли хоть одна версия по ключу
func (s *Service) Has(ctx context.Context, key string) bool {
	ok, err := s.store.Exists(ctx, key)
	if err != nil {
		slog.Warn("photos: exists check failed", "key", key, "error", err)
		return false
	}
	return ok
}

func (s *Service) prune(ctx context.Context, key string) (int, error) {
	return retry.Do(ctx, retry.DefaultOptions("prune photo "+key), func() (int, error) {
		return s.store.Prune(ctx, key, s.retention)
	})
}

type SweepResult struct {
	Keys    int
	Removed int
}

// Sweep проходит по всем ключам и оставляет не больше retention версий
func (s *Service) Sweep(ctx context.Context) (SweepResult, error) {
	var res SweepResult

	keys, err := retry.Do(ctx, retry.DefaultOptions("list photo keys"), func() ([]string, error) {
		return s.store.Keys(ctx)
	})
	if err != nil {
		return res, fmt.Errorf("list photo keys: %w", err)
	}

	for _, key := range keys {
		removed, err := s.prune(ctx, key)
		if err != nil {
			return res, fmt.Errorf("prune %s: %w", key, err)
		}
		res.Keys++
		res.Removed += removed
	}

	slog.Info("photos: retention sweep done", "keys", res.Keys, "removed", res.Removed, "retention", s.retention)
	return res, nil
}

func (s *Service) Retention() int {
	return s.retention
}

func (s *Service) Close() error {
	return s.store.Close()
}
