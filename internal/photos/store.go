package photos

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"retail-audit/internal/config"
)

var ErrNotFound = errors.New("photo not found")

type Blob struct {
	Key         string
	ContentType string
	Data        []byte
	CreatedAt   time.Time
}

// BlobStore хранит версии фото по ключу; отдаётся всегда последняя,
// старые версии удаляет Prune.
type BlobStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	// Latest возвращает ErrNotFound, если по ключу ничего нет
	Latest(ctx context.Context, key string) (*Blob, error)
	// Exists проверяет наличие версии без чтения данных
	Exists(ctx context.Context, key string) (bool, error)
	// Prune оставляет keep последних версий и возвращает число удалённых
	Prune(ctx context.Context, key string, keep int) (int, error)
	Keys(ctx context.Context) ([]string, error)
	Close() error
}

func NewBlobStore(ctx context.Context, cfg config.PhotoConfig) (BlobStore, error) {
	var (
		store BlobStore
		err   error
	)

	switch cfg.Backend {
	case "sqlite":
		store, err = NewSQLiteBlobStore(cfg.SQLitePath)
	case "redis":
		store, err = NewRedisBlobStore(ctx, cfg.RedisAddr, cfg.RedisPassword)
	case "mongo":
		store, err = NewMongoBlobStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
	default:
		return nil, fmt.Errorf("unsupported photo backend: %s", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s photo store: %w", cfg.Backend, err)
	}

	log.Printf("photo store ready (backend=%s)", cfg.Backend)
	return store, nil
}
