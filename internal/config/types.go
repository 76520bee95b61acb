package config

// EnvpinConfig is the top-level configuration structure for envpin.
type EnvpinConfig struct {
	GlobalSettings GlobalSettings `yaml:"globalSettings"`
	Registry       RegistryConfig `yaml:"registry"`
	Test           TestConfig     `yaml:"test"`
}

// GlobalSettings apply to every command.
type GlobalSettings struct {
	Manifest string `yaml:"manifest,omitempty"` // Manifest path; empty means discover envpin.{yaml,yml,hcl} in the working directory
	LogLevel string `yaml:"logLevel,omitempty"` // debug, info, warn or error
	Platform string `yaml:"platform,omitempty"` // Platform used by shell/exec/test when --platform is not given
}

// RegistryConfig locates the artifact index.
type RegistryConfig struct {
	Index     string `yaml:"index,omitempty"`     // Path to the YAML artifact index
	CacheSize int    `yaml:"cacheSize,omitempty"` // Entries kept by the lookup cache
}

// TestConfig holds defaults for `envpin test`.
type TestConfig struct {
	Profile string `yaml:"profile,omitempty"` // Profile the test command runs under
	Format  string `yaml:"format,omitempty"`  // native or go-test-json
	Suite   string `yaml:"suite,omitempty"`   // JUnit suite name; defaults to the profile name
	Output  string `yaml:"output,omitempty"`  // console, verbose, quiet or json
}
