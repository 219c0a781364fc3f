// Package retry оборачивает сетевые вызовы (БД, хранилище фото) в повтор с
// экспоненциальной задержкой.
package retry

import (
	"context"
	"log"
	"time"

	"github.com/cenkalti/backoff/v5"
)

type Options struct {
	MaxAttempts     uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Name            string
}

func DefaultOptions(name string) Options {
	return Options{
		MaxAttempts:     3,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     2 * time.Second,
		Name:            name,
	}
}

// Permanent помечает ошибку как неповторяемую
func Permanent(err error) error {
	return backoff.Permanent(err)
}

func Do[T any](ctx context.Context, opts Options, op func() (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	if opts.InitialInterval > 0 {
		b.InitialInterval = opts.InitialInterval
	}
	if opts.MaxInterval > 0 {
		b.MaxInterval = opts.MaxInterval
	}
	if opts.MaxAttempts == 0 {
		opts.MaxAttempts = 1
	}

	notify := func(err error, wait time.Duration) {
		log.Printf("%s failed: %v (retry in %s)", opts.Name, err, wait)
	}

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(opts.MaxAttempts),
		backoff.WithNotify(notify),
	)
}

// Run — вариант Do для операций без результата
func Run(ctx context.Context, opts Options, op func() error) error {
	_, err := Do(ctx, opts, func() (struct{}, error) {
		return struct{}{}, op()
	})
	return err
}
