package main

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/Lutefd/currency-dashboard/internal/cache"
	"github.com/Lutefd/currency-dashboard/internal/commons"
	"github.com/Lutefd/currency-dashboard/internal/logger"
	"github.com/Lutefd/currency-dashboard/internal/model"
	"github.com/Lutefd/currency-dashboard/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCache struct {
	cache.Cache
	closeCalled bool
	closeErr    error
}

func (m *mockCache) Close() error {
	m.closeCalled = true
	return m.closeErr
}

type mockLogRepository struct {
	repository.LogRepository
	closeCalled bool
}

func (m *mockLogRepository) SaveLog(ctx context.Context, log model.Log) error {
	return nil
}

func (m *mockLogRepository) Close() error {
	m.closeCalled = true
	return nil
}

type mockCacheWarmer struct {
	startCalled bool
}

func (m *mockCacheWarmer) Start(ctx context.Context) {
	m.startCalled = true
}

type mockPartitionManager struct {
	startErr error
}

func (m *mockPartitionManager) Start(ctx context.Context) error {
	return m.startErr
}

func newTestDeps(partitionErr error) (*dependencies, *mockLogRepository) {
	logRepo := &mockLogRepository{}
	return &dependencies{
		cache:        &mockCache{},
		log:          logger.New(logger.WithWriters(io.Discard, io.Discard), logger.WithSink(logRepo, 10)),
		cacheWarmer:  &mockCacheWarmer{},
		partitionMgr: &mockPartitionManager{startErr: partitionErr},
	}, logRepo
}

func TestRunWorker(t *testing.T) {
	tests := []struct {
		name                   string
		partitionErr           error
		withoutPartitionMgr    bool
		expectedErrMsg         string
		expectCacheWarmerStart bool
		setupContext           func() (context.Context, context.CancelFunc)
	}{
		{
			name:                   "Success case",
			expectedErrMsg:         "context deadline exceeded",
			expectCacheWarmerStart: true,
			setupContext: func() (context.Context, context.CancelFunc) {
				return context.WithTimeout(context.Background(), 100*time.Millisecond)
			},
		},
		{
			name:                   "Without log database",
			withoutPartitionMgr:    true,
			expectedErrMsg:         "context deadline exceeded",
			expectCacheWarmerStart: true,
			setupContext: func() (context.Context, context.CancelFunc) {
				return context.WithTimeout(context.Background(), 100*time.Millisecond)
			},
		},
		{
			name:                   "Partition manager start error",
			partitionErr:           errors.New("partition manager error"),
			expectedErrMsg:         "failed to start partition manager: partition manager error",
			expectCacheWarmerStart: false,
			setupContext: func() (context.Context, context.CancelFunc) {
				return context.WithTimeout(context.Background(), time.Second)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := tt.setupContext()
			defer cancel()

			deps, logRepo := newTestDeps(tt.partitionErr)
			if tt.withoutPartitionMgr {
				deps.partitionMgr = nil
			}

			err := runWorker(ctx, deps)

			require.Error(t, err)
			assert.Equal(t, tt.expectedErrMsg, err.Error())

			warmer := deps.cacheWarmer.(*mockCacheWarmer)
			assert.Equal(t, tt.expectCacheWarmerStart, warmer.startCalled)
			assert.True(t, deps.cache.(*mockCache).closeCalled)
			assert.True(t, logRepo.closeCalled)
		})
	}
}

func TestInitDependencies_RequiresRedis(t *testing.T) {
	_, err := initDependencies(commons.Config{ServerPort: 8080})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REDIS_ADDR")
}
