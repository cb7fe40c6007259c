package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvery_RunsImmediately(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runs := 0
	done := make(chan error, 1)
	go func() {
		done <- Every(ctx, "@every 1h", "test", func(context.Context) error {
			runs++
			cancel()
			return errors.New("ignored")
		}, nil)
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Every did not return after cancel")
	}
	assert.Equal(t, 1, runs)
}

func TestEvery_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- Every(ctx, "0 3 * * *", "test", func(context.Context) error {
			close(started)
			return nil
		}, nil)
	}()

	<-started
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Every did not return after cancel")
	}
}

func TestEvery_InvalidSpec(t *testing.T) {
	called := false
	err := Every(context.Background(), "not a schedule", "test", func(context.Context) error {
		called = true
		return nil
	}, nil)
	assert.Error(t, err)
	assert.False(t, called)
}
