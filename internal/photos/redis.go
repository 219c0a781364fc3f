package photos

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeySet = "photo:keys"
	redisSeq    = "photo:seq"
)

// RedisBlobStore: список версий на ключ + hash на каждую версию
type RedisBlobStore struct {
	client *redis.Client
}

func NewRedisBlobStore(ctx context.Context, addr, password string) (*RedisBlobStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return &RedisBlobStore{client: client}, nil
}

func versionsKey(key string) string {
	return "photo:versions:" + key
}

func blobKey(key, version string) string {
	return "photo:blob:" + key + ":" + version
}

func (s *RedisBlobStore) Put(ctx context.Context, key, contentType string, data []byte) error {
	seq, err := s.client.Incr(ctx, redisSeq).Result()
	if err != nil {
		return err
	}
	version := strconv.FormatInt(seq, 10)

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, blobKey(key, version),
			"content_type", contentType,
			"data", data,
			"created_at", time.Now().UnixNano())
		pipe.LPush(ctx, versionsKey(key), version)
		pipe.SAdd(ctx, redisKeySet, key)
		return nil
	})
	return err
}

func (s *RedisBlobStore) Latest(ctx context.Context, key string) (*Blob, error) {
	version, err := s.client.LIndex(ctx, versionsKey(key), 0).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	fields, err := s.client.HGetAll(ctx, blobKey(key, version)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}

	blob := &Blob{
		Key:         key,
		ContentType: fields["content_type"],
		Data:        []byte(fields["data"]),
	}
	if ns, err := strconv.ParseInt(fields["created_at"], 10, 64); err == nil {
		blob.CreatedAt = time.Unix(0, ns)
	}
	return blob, nil
}

func (s *RedisBlobStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, versionsKey(key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// pruneAttempts — сколько раз повторять Prune, если список версий
// изменился между чтением и EXEC
const pruneAttempts = 5

// Prune читает и подрезает список под WATCH: параллельный Put отменяет
// транзакцию, и удаляемые hash всегда совпадают с обрезанными версиями
func (s *RedisBlobStore) Prune(ctx context.Context, key string, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	vk := versionsKey(key)

	for attempt := 0; attempt < pruneAttempts; attempt++ {
		removed := 0
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			stale, err := tx.LRange(ctx, vk, int64(keep), -1).Result()
			if err != nil {
				return err
			}
			if len(stale) == 0 {
				return nil
			}

			blobKeys := make([]string, 0, len(stale))
			for _, v := range stale {
				blobKeys = append(blobKeys, blobKey(key, v))
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, blobKeys...)
				if keep == 0 {
					pipe.Del(ctx, vk)
					pipe.SRem(ctx, redisKeySet, key)
				} else {
					pipe.LTrim(ctx, vk, 0, int64(keep-1))
				}
				return nil
			})
			if err == nil {
				removed = len(stale)
			}
			return err
		}, vk)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return 0, err
		}
		return removed, nil
	}
	return 0, fmt.Errorf("prune %s: versions kept changing", key)
}

func (s *RedisBlobStore) Keys(ctx context.Context) ([]string, error) {
	keys, err := s.client.SMembers(ctx, redisKeySet).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *RedisBlobStore) Close() error {
	return s.client.Close()
}
