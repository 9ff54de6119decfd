package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sessionhub/internal/core/apperror"
)

type fakeBucket struct {
	exists bool
	err    error
	sawCtx context.Context
}

func (f *fakeBucket) Bucket() string { return "avatars" }

func (f *fakeBucket) BucketExists(ctx context.Context) (bool, error) {
	f.sawCtx = ctx
	return f.exists, f.err
}

func ok(context.Context) error { return nil }

func TestService_Info(t *testing.T) {
	svc := NewService("test", ok, ok, &fakeBucket{}, 0)
	svc.started = time.Unix(1_800_000_000, 0)
	svc.now = func() time.Time { return svc.started.Add(90 * time.Second) }

	info := svc.Info()
	assert.Equal(t, "ok", info.Status)
	assert.Equal(t, "test", info.Env)
	assert.Equal(t, int64(90), info.UptimeSec)
}

func TestService_Pings(t *testing.T) {
	bucket := &fakeBucket{exists: true}
	svc := NewService("test", ok, ok, bucket, time.Second)
	ctx := context.Background()

	assert.NoError(t, svc.PingDB(ctx))
	assert.NoError(t, svc.PingCache(ctx))

	status, err := svc.PingStorage(ctx)
	require.NoError(t, err)
	assert.Equal(t, StorageStatus{Bucket: "avatars", Exists: true}, status)

	_, hasDeadline := bucket.sawCtx.Deadline()
	assert.True(t, hasDeadline)
}

func TestService_PingFailuresAreInternal(t *testing.T) {
	down := func(context.Context) error { return errors.New("dial tcp 10.0.0.5:5432: connection refused") }
	svc := NewService("test", down, nil, &fakeBucket{err: errors.New("403")}, time.Second)
	ctx := context.Background()

	for name, err := range map[string]error{
		"db":    svc.PingDB(ctx),
		"cache": svc.PingCache(ctx),
	} {
		appErr, isApp := apperror.AsAppError(err)
		require.True(t, isApp, name)
		assert.Equal(t, apperror.CodeInternal, appErr.Code, name)
		assert.NotContains(t, appErr.Message, "10.0.0.5", name)
	}

	_, err := svc.PingStorage(ctx)
	assert.True(t, apperror.HasCode(err, apperror.CodeInternal))
}
