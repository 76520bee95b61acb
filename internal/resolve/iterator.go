package resolve

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"envpin/pkg/logging"
)

// PlatformResult is what one platform's pipeline produces.
type PlatformResult struct {
	Profiles    ProfileSet
	Diagnostics []Diagnostic
}

// ComposeFunc runs the full pipeline for a single platform. It must only read
// immutable inputs; ResolveAll calls it concurrently.
type ComposeFunc func(ctx context.Context, platform Platform) (PlatformResult, error)

// Resolution maps each successfully resolved platform to its profiles.
type Resolution struct {
	Profiles    map[Platform]ProfileSet
	Diagnostics []Diagnostic
}

// Platforms returns the resolved platforms in sorted order.
func (r Resolution) Platforms() []Platform {
	out := make([]Platform, 0, len(r.Profiles))
	for p := range r.Profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Profile looks up a single profile.
func (r Resolution) Profile(platform Platform, name string) (Profile, bool) {
	set, ok := r.Profiles[platform]
	if !ok {
		return Profile{}, false
	}
	p, ok := set[name]
	return p, ok
}

// ResolveAll invokes compose once per distinct platform, all in parallel.
// A failing platform never cancels its peers: every platform runs to
// completion, successes are merged after the join, and failures are returned
// as a *PartialFailure alongside the successful Resolution.
func ResolveAll(ctx context.Context, platforms []Platform, compose ComposeFunc) (Resolution, error) {
	platforms = uniqueSorted(platforms)

	type slot struct {
		result PlatformResult
		err    error
	}
	slots := make([]slot, len(platforms))

	// Plain Group, not WithContext: one platform's error must not cancel the others.
	var g errgroup.Group
	for i, platform := range platforms {
		g.Go(func() error {
			res, err := compose(ctx, platform)
			slots[i] = slot{result: res, err: err}
			return nil
		})
	}
	_ = g.Wait()

	resolution := Resolution{Profiles: make(map[Platform]ProfileSet, len(platforms))}
	failed := make(map[Platform]error)
	for i, platform := range platforms {
		s := slots[i]
		if s.err != nil {
			logging.Warn("Resolver", "platform %s failed: %v", platform, s.err)
			failed[platform] = s.err
			continue
		}
		resolution.Profiles[platform] = s.result.Profiles
		resolution.Diagnostics = append(resolution.Diagnostics, s.result.Diagnostics...)
	}

	if len(failed) > 0 {
		return resolution, &PartialFailure{Succeeded: resolution, Failed: failed}
	}
	return resolution, nil
}

func uniqueSorted(platforms []Platform) []Platform {
	seen := make(map[Platform]bool, len(platforms))
	out := make([]Platform, 0, len(platforms))
	for _, p := range platforms {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
