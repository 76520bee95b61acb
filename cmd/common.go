package cmd

import (
	"context"
	"fmt"
	"os"

	"envpin/internal/config"
	"envpin/internal/manifest"
	"envpin/internal/registry"
	"envpin/internal/resolve"
	"envpin/pkg/logging"
)

// loadManifest reads the manifest named by --manifest, the config, or the
// first default file in the working directory.
func loadManifest() (*manifest.Manifest, error) {
	path := manifestFlag
	if path == "" {
		path = settings.GlobalSettings.Manifest
	}
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		path, err = manifest.Discover(wd)
		if err != nil {
			return nil, err
		}
	}
	logging.Debug("CLI", "using manifest %s", path)
	return manifest.Load(path)
}

// newEngine builds a resolution engine over the configured artifact index.
func newEngine() (*resolve.Engine, error) {
	path := indexFlag
	if path == "" {
		path = settings.Registry.Index
	}
	index, err := registry.LoadIndex(path)
	if err != nil {
		return nil, err
	}
	size := settings.Registry.CacheSize
	if size <= 0 {
		size = config.DefaultCacheSize
	}
	cached, err := registry.NewCachedRegistry(index, size)
	if err != nil {
		return nil, err
	}
	return resolve.NewEngine(cached), nil
}

func platformOrDefault(p string) resolve.Platform {
	if p != "" {
		return resolve.Platform(p)
	}
	if settings.GlobalSettings.Platform != "" {
		return resolve.Platform(settings.GlobalSettings.Platform)
	}
	return resolve.Platform(config.HostPlatform())
}

// resolveProfile resolves a single named profile for platform.
func resolveProfile(ctx context.Context, name string, platform resolve.Platform) (resolve.Profile, error) {
	m, err := loadManifest()
	if err != nil {
		return resolve.Profile{}, err
	}
	engine, err := newEngine()
	if err != nil {
		return resolve.Profile{}, err
	}
	p, _, err := engine.ResolveProfile(ctx, m.Declaration(), platform, name)
	if err != nil {
		return resolve.Profile{}, fmt.Errorf("cannot resolve profile %q on %s: %w", name, platform, err)
	}
	return p, nil
}
