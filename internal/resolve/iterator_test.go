package resolve

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func profileSetFor(platform Platform) ProfileSet {
	return ProfileSet{"dev": {Name: "dev", Platform: platform}}
}

func TestResolveAll_AllSucceed(t *testing.T) {
	res, err := ResolveAll(context.Background(), []Platform{"linux-x64", "darwin-arm64"},
		func(_ context.Context, p Platform) (PlatformResult, error) {
			return PlatformResult{Profiles: profileSetFor(p)}, nil
		})

	require.NoError(t, err)
	assert.Equal(t, []Platform{"darwin-arm64", "linux-x64"}, res.Platforms())
	p, ok := res.Profile("linux-x64", "dev")
	require.True(t, ok)
	assert.Equal(t, Platform("linux-x64"), p.Platform)
}

func TestResolveAll_PlatformIsolation(t *testing.T) {
	boom := errors.New("no toolchain for you")
	res, err := ResolveAll(context.Background(), []Platform{"linux-x64", "darwin-arm64"},
		func(_ context.Context, p Platform) (PlatformResult, error) {
			if p == "darwin-arm64" {
				return PlatformResult{}, boom
			}
			return PlatformResult{Profiles: profileSetFor(p)}, nil
		})

	var partial *PartialFailure
	require.True(t, errors.As(err, &partial))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []Platform{"darwin-arm64"}, partial.FailedPlatforms())

	// The successful platform survives and carries nothing from the failed one.
	assert.Equal(t, []Platform{"linux-x64"}, res.Platforms())
	assert.Equal(t, res.Platforms(), partial.Succeeded.Platforms())
	_, ok := res.Profiles["darwin-arm64"]
	assert.False(t, ok)
	assert.Contains(t, err.Error(), "1 of 2 platforms")
	assert.Contains(t, err.Error(), "darwin-arm64")
}

func TestResolveAll_FailureDoesNotCancelPeers(t *testing.T) {
	release := make(chan struct{})
	var finished atomic.Bool

	go func() {
		time.Sleep(20 * time.Millisecond)
		close(release)
	}()

	res, err := ResolveAll(context.Background(), []Platform{"fast-fail", "slow-ok"},
		func(ctx context.Context, p Platform) (PlatformResult, error) {
			if p == "fast-fail" {
				return PlatformResult{}, errors.New("failed early")
			}
			<-release
			if ctx.Err() != nil {
				return PlatformResult{}, ctx.Err()
			}
			finished.Store(true)
			return PlatformResult{Profiles: profileSetFor(p)}, nil
		})

	require.Error(t, err)
	assert.True(t, finished.Load())
	_, ok := res.Profiles["slow-ok"]
	assert.True(t, ok)
}

func TestResolveAll_RunsConcurrently(t *testing.T) {
	var inflight, peak atomic.Int32
	gate := make(chan struct{})
	platforms := []Platform{"a", "b", "c"}

	go func() {
		deadline := time.After(time.Second)
		for peak.Load() < int32(len(platforms)) {
			select {
			case <-deadline:
				close(gate)
				return
			default:
				time.Sleep(time.Millisecond)
			}
		}
		close(gate)
	}()

	_, err := ResolveAll(context.Background(), platforms, func(_ context.Context, p Platform) (PlatformResult, error) {
		n := inflight.Add(1)
		for {
			cur := peak.Load()
			if n <= cur || peak.CompareAndSwap(cur, n) {
				break
			}
		}
		<-gate
		inflight.Add(-1)
		return PlatformResult{Profiles: profileSetFor(p)}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, int32(3), peak.Load())
}

func TestResolveAll_DeduplicatesPlatforms(t *testing.T) {
	var calls atomic.Int32
	res, err := ResolveAll(context.Background(), []Platform{"linux-x64", "linux-x64"},
		func(_ context.Context, p Platform) (PlatformResult, error) {
			calls.Add(1)
			return PlatformResult{Profiles: profileSetFor(p)}, nil
		})
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.Len(t, res.Profiles, 1)
}

func TestResolveAll_CollectsDiagnostics(t *testing.T) {
	res, err := ResolveAll(context.Background(), []Platform{"b", "a"},
		func(_ context.Context, p Platform) (PlatformResult, error) {
			return PlatformResult{
				Profiles:    profileSetFor(p),
				Diagnostics: []Diagnostic{{Kind: DuplicateDependencyOverridden, Platform: p, Item: "x"}},
			}, nil
		})
	require.NoError(t, err)
	require.Len(t, res.Diagnostics, 2)
	assert.Equal(t, Platform("a"), res.Diagnostics[0].Platform)
	assert.Equal(t, Platform("b"), res.Diagnostics[1].Platform)
}
