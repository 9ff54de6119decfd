// Package health reports process status and the reachability of backing stores.
package health

import (
	"context"
	"time"

	"sessionhub/internal/core/apperror"
	"sessionhub/pkg/logger"
)

// PingFunc checks a dependency.
type PingFunc func(ctx context.Context) error

// BucketChecker checks object storage.
type BucketChecker interface {
	Bucket() string
	BucketExists(ctx context.Context) (bool, error)
}

// Info is the public health summary.
type Info struct {
	Status    string    `json:"status"`
	Env       string    `json:"env"`
	Timestamp time.Time `json:"timestamp"`
	UptimeSec int64     `json:"uptimeSec"`
}

// StorageStatus is the object storage check result.
type StorageStatus struct {
	Bucket string `json:"bucket"`
	Exists bool   `json:"exists"`
}

// Service runs health checks with a bounded timeout each.
type Service struct {
	env     string
	started time.Time
	timeout time.Duration
	db      PingFunc
	cache   PingFunc
	storage BucketChecker
	now     func() time.Time
}

// NewService creates a health service.
func NewService(env string, db, cache PingFunc, storage BucketChecker, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Service{
		env:     env,
		started: time.Now(),
		timeout: timeout,
		db:      db,
		cache:   cache,
		storage: storage,
		now:     time.Now,
	}
}

// Info returns the process summary.
func (s *Service) Info() Info {
	now := s.now()
	return Info{
		Status:    "ok",
		Env:       s.env,
		Timestamp: now.UTC(),
		UptimeSec: int64(now.Sub(s.started).Seconds()),
	}
}

// PingDB checks the credential store.
func (s *Service) PingDB(ctx context.Context) error {
	return s.ping(ctx, "db", s.db)
}

// PingCache checks Redis.
func (s *Service) PingCache(ctx context.Context) error {
	return s.ping(ctx, "redis", s.cache)
}

// PingStorage checks that the configured bucket exists.
func (s *Service) PingStorage(ctx context.Context) (StorageStatus, error) {
	if s.storage == nil {
		return StorageStatus{}, apperror.NewInternal(errNotConfigured("storage"))
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	exists, err := s.storage.BucketExists(ctx)
	if err != nil {
		logger.Error(ctx, "health check failed", "dependency", "storage", "error", err)
		return StorageStatus{}, apperror.NewInternal(err)
	}
	return StorageStatus{Bucket: s.storage.Bucket(), Exists: exists}, nil
}

func (s *Service) ping(ctx context.Context, name string, fn PingFunc) error {
	if fn == nil {
		return apperror.NewInternal(errNotConfigured(name))
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := fn(ctx); err != nil {
		logger.Error(ctx, "health check failed", "dependency", name, "error", err)
		return apperror.NewInternal(err)
	}
	return nil
}

type errNotConfigured string

func (e errNotConfigured) Error() string {
	return string(e) + " is not configured"
}
