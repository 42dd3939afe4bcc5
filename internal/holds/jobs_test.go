package holds

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"seatengine/internal/seats"
	"seatengine/pkg/logger"

	"github.com/stretchr/testify/assert"
)

type stubLock struct {
	acquire  bool
	err      error
	released int
}

func (l *stubLock) Acquire(ctx context.Context) (bool, error) {
	return l.acquire, l.err
}

func (l *stubLock) Release(ctx context.Context) error {
	l.released++
	return nil
}

func TestJobProcessor_RunOnce(t *testing.T) {
	env := newTestEnv(t, testPolicy(), 2)
	env.hold(t, "buyer-1", env.seatIDs[0])
	env.hold(t, "buyer-2", env.seatIDs[1])
	env.clock.Advance(3 * time.Minute)

	lock := &stubLock{acquire: true}
	jp := NewJobProcessor(env.manager, lock, nil)

	assert.Equal(t, 2, jp.RunOnce(context.Background()))
	assert.Equal(t, 1, lock.released)
	assert.Equal(t, repeat(seats.StatusAvailable, 2), env.seatStatuses(t, env.seatIDs[:2]...))
}

func TestJobProcessor_SkipsWithoutLock(t *testing.T) {
	env := newTestEnv(t, testPolicy(), 1)
	env.hold(t, "buyer-1", env.seatIDs[0])
	env.clock.Advance(3 * time.Minute)

	for _, lock := range []*stubLock{{acquire: false}, {err: errors.New("redis down")}} {
		jp := NewJobProcessor(env.manager, lock, nil)
		assert.Zero(t, jp.RunOnce(context.Background()))
		assert.Zero(t, lock.released)
	}
	assert.Equal(t, []seats.Status{seats.StatusHeld}, env.seatStatuses(t, env.seatIDs[0]))
}

func TestJobProcessor_StartStop(t *testing.T) {
	env := newTestEnv(t, testPolicy(), 1)
	env.hold(t, "buyer-1", env.seatIDs[0])
	env.clock.Advance(3 * time.Minute)

	jp := NewJobProcessor(env.manager, nil, &JobConfig{SweepInterval: 5 * time.Millisecond})
	jp.Start(context.Background())

	assert.Eventually(t, func() bool {
		return env.seatStatuses(t, env.seatIDs[0])[0] == seats.StatusAvailable
	}, time.Second, 5*time.Millisecond)

	jp.Stop()
	jp.Stop()
}

func TestJobProcessor_LogsLockErrors(t *testing.T) {
	env := newTestEnv(t, testPolicy(), 1)
	var buf bytes.Buffer

	jp := NewJobProcessor(env.manager, &stubLock{err: errors.New("redis down")}, nil)
	jp.logger = logger.NewWithWriter(&buf, "info")

	assert.Zero(t, jp.RunOnce(context.Background()))
	assert.Contains(t, buf.String(), `"msg":"failed to acquire sweep lock"`)
	assert.Contains(t, buf.String(), `"error":"redis down"`)
	assert.Equal(t, defaultSweepInterval, jp.config.SweepInterval)
}
