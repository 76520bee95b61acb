// Package config provides configuration management for envpin.
//
// Configuration is loaded from multiple sources and merged in order, with
// later sources overriding earlier ones:
//
//  1. Default Configuration (embedded in binary)
//  2. User Configuration (~/.config/envpin/config.yaml)
//  3. Project Configuration (./.envpin/config.yaml)
//
// Only fields set in a layer override the layers below it.
//
// # Configuration Structure
//
//	globalSettings:
//	  manifest: envpin.hcl
//	  logLevel: debug
//	  platform: linux-x64
//	registry:
//	  index: /opt/envpin/index.yaml
//	  cacheSize: 1024
//	test:
//	  profile: ci
//	  format: go-test-json
//	  suite: unit
//	  output: quiet
//
// Command-line flags take precedence over every layer.
package config
