package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
)

func TestPoolRunsSubmittedJobs(t *testing.T) {
	logger, _ := test.NewNullLogger()
	p := NewPool(3, logger)
	p.Start(context.Background())

	var ran int32
	for i := 0; i < 5; i++ {
		assert.True(t, p.Submit(func(context.Context) error {
			atomic.AddInt32(&ran, 1)
			return nil
		}))
	}
	p.Stop()

	assert.Equal(t, int32(5), atomic.LoadInt32(&ran))
}

func TestStopDrainsJobsAfterParentCancel(t *testing.T) {
	logger, _ := test.NewNullLogger()
	parent, cancel := context.WithCancel(context.Background())
	p := NewPool(2, logger)
	p.Start(context.WithoutCancel(parent))

	release := make(chan struct{})
	var ran int32
	assert.True(t, p.Submit(func(context.Context) error {
		<-release
		atomic.AddInt32(&ran, 1)
		return nil
	}))
	for i := 0; i < 2; i++ {
		assert.True(t, p.Submit(func(context.Context) error {
			atomic.AddInt32(&ran, 1)
			return nil
		}))
	}

	cancel()
	close(release)
	p.Stop()

	assert.Equal(t, int32(3), atomic.LoadInt32(&ran))
}

func TestPoolLogsFailedJobs(t *testing.T) {
	logger, hook := test.NewNullLogger()
	p := NewPool(1, logger)
	p.Start(context.Background())

	p.Submit(func(context.Context) error { return errors.New("smtp down") })
	p.Stop()

	var failed bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.ErrorLevel && e.Message == "Job execution failed" {
			failed = true
		}
	}
	assert.True(t, failed)
}

func TestPoolRejectsAfterStop(t *testing.T) {
	logger, _ := test.NewNullLogger()
	p := NewPool(1, logger)
	p.Start(context.Background())
	p.Stop()
	p.Stop()

	assert.False(t, p.Submit(func(context.Context) error { return nil }))
}

func TestPoolDropsWhenQueueFull(t *testing.T) {
	logger, _ := test.NewNullLogger()
	p := NewPool(1, logger)

	// Not started, so nothing drains the queue of two.
	assert.True(t, p.Submit(func(context.Context) error { return nil }))
	assert.True(t, p.Submit(func(context.Context) error { return nil }))
	assert.False(t, p.Submit(func(context.Context) error { return nil }))
}
