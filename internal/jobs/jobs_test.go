package jobs

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthcare-portal-server/internal/logger"
)

type fakePurger struct {
	calls   atomic.Int32
	deleted int64
	err     error
}

func (f *fakePurger) PurgeOtps(ctx context.Context) (int64, error) {
	f.calls.Add(1)
	if _, ok := ctx.Deadline(); !ok {
		return 0, errors.New("purge must run with a deadline")
	}
	return f.deleted, f.err
}

func TestRunOtpPurge(t *testing.T) {
	var buf bytes.Buffer
	purger := &fakePurger{deleted: 4}

	deleted, err := RunOtpPurge(context.Background(), purger, logger.NewWithOutput("info", &buf))
	require.NoError(t, err)
	assert.Equal(t, int64(4), deleted)
	assert.Contains(t, buf.String(), `"deleted":4`)
}

func TestRunOtpPurge_Error(t *testing.T) {
	var buf bytes.Buffer
	purger := &fakePurger{err: errors.New("db down")}

	_, err := RunOtpPurge(context.Background(), purger, logger.NewWithOutput("info", &buf))
	require.Error(t, err)
	assert.Contains(t, buf.String(), "OTP purge failed")
}

func TestNewScheduler(t *testing.T) {
	purger := &fakePurger{}

	s, err := NewScheduler("@hourly", purger, logger.Discard())
	require.NoError(t, err)
	s.Start()
	s.Stop()
	assert.Zero(t, purger.calls.Load())

	_, err = NewScheduler("not a schedule", purger, logger.Discard())
	assert.Error(t, err)
}
