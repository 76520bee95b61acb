package config

import (
	"fmt"
	"runtime"
)

const (
	DefaultIndexPath   = "envpin-index.yaml"
	DefaultCacheSize   = 512
	DefaultTestProfile = "ci"
)

// HostPlatform returns the platform identifier of the running binary, in
// the "<os>-<arch>" form manifests use (amd64 is spelled x64).
func HostPlatform() string {
	arch := runtime.GOARCH
	if arch == "amd64" {
		arch = "x64"
	}
	return fmt.Sprintf("%s-%s", runtime.GOOS, arch)
}

// GetDefaultConfig returns the built-in configuration.
func GetDefaultConfig() EnvpinConfig {
	return EnvpinConfig{
		GlobalSettings: GlobalSettings{
			LogLevel: "info",
			Platform: HostPlatform(),
		},
		Registry: RegistryConfig{
			Index:     DefaultIndexPath,
			CacheSize: DefaultCacheSize,
		},
		Test: TestConfig{
			Profile: DefaultTestProfile,
			Format:  "native",
			Output:  "console",
		},
	}
}
