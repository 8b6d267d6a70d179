package main

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/bookstore-backend/pkg/config"
	"github.com/angelmondragon/bookstore-backend/pkg/logger"
)

type fakePinger struct {
	err error
}

func (f fakePinger) Ping(context.Context) error { return f.err }

type fakeRunner struct {
	called bool
	err    error
}

func (f *fakeRunner) Run(context.Context) error {
	f.called = true
	return f.err
}

func newTestService(t *testing.T, redisErr error, consumer *fakeRunner) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Config:               &config.Config{},
		Logger:               logger.New(logger.Options{ServiceName: "worker-test", Output: io.Discard}),
		DB:                   fakePinger{},
		Redis:                fakePinger{err: redisErr},
		PubSub:               fakePinger{},
		NotificationConsumer: consumer,
	})
	require.NoError(t, err)
	return svc
}

func TestNewServiceRequiresConsumer(t *testing.T) {
	_, err := NewService(ServiceParams{
		Config: &config.Config{},
		Logger: logger.New(logger.Options{ServiceName: "worker-test", Output: io.Discard}),
		DB:     fakePinger{},
		Redis:  fakePinger{},
		PubSub: fakePinger{},
	})
	require.Error(t, err)
}

func TestRunStopsWhenDependencyDown(t *testing.T) {
	consumer := &fakeRunner{}
	svc := newTestService(t, errors.New("redis down"), consumer)

	err := svc.Run(context.Background())
	require.ErrorContains(t, err, "redis ping failed")
	require.False(t, consumer.called)
}

func TestRunPropagatesConsumerFailure(t *testing.T) {
	consumer := &fakeRunner{err: errors.New("receive failed")}
	svc := newTestService(t, nil, consumer)

	err := svc.Run(context.Background())
	require.ErrorContains(t, err, "receive failed")
	require.True(t, consumer.called)
}

func TestRunTreatsCancellationAsShutdown(t *testing.T) {
	consumer := &fakeRunner{err: context.Canceled}
	svc := newTestService(t, nil, consumer)

	err := svc.Run(context.Background())
	require.ErrorIs(t, err, context.Canceled)
}
