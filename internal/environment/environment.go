// Package environment materializes a resolved profile into process
// environment variables.
package environment

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/joho/godotenv"

	"envpin/internal/resolve"
)

const (
	VarProfile  = "ENVPIN_PROFILE"
	VarPlatform = "ENVPIN_PLATFORM"
	VarInputs   = "ENVPIN_INPUTS"
)

// Environment is an ordered, rendered set of variables.
type Environment struct {
	vars map[string]string
}

// Materialize computes the environment for p on top of base (KEY=VALUE pairs,
// typically os.Environ()). Toolchain and tool bin directories are prepended
// to PATH in set order, so the toolchain wins every lookup; libraries extend
// LIBRARY_PATH and PKG_CONFIG_PATH. Profile env entries are applied last.
func Materialize(p resolve.Profile, base []string) Environment {
	vars := parseEnviron(base)

	var bins, libs, pkgconfigs, inputs []string
	for _, item := range p.Inputs() {
		inputs = append(inputs, item.String())
		if item.Artifact == nil || item.Artifact.Ref == "" {
			continue
		}
		ref := item.Artifact.Ref
		switch item.Kind {
		case resolve.KindToolchain, resolve.KindTool:
			bins = append(bins, path.Join(ref, "bin"))
		case resolve.KindLibrary:
			libs = append(libs, path.Join(ref, "lib"))
			pkgconfigs = append(pkgconfigs, path.Join(ref, "lib", "pkgconfig"))
		}
	}

	prependList(vars, "PATH", bins)
	prependList(vars, "LIBRARY_PATH", libs)
	prependList(vars, "PKG_CONFIG_PATH", pkgconfigs)

	for k, v := range p.Env {
		vars[k] = v
	}
	vars[VarProfile] = p.Name
	vars[VarPlatform] = string(p.Platform)
	vars[VarInputs] = strings.Join(inputs, " ")

	return Environment{vars: vars}
}

// Get returns a single variable.
func (e Environment) Get(key string) (string, bool) {
	v, ok := e.vars[key]
	return v, ok
}

// Map returns a copy of all variables.
func (e Environment) Map() map[string]string {
	out := make(map[string]string, len(e.vars))
	for k, v := range e.vars {
		out[k] = v
	}
	return out
}

// Environ returns KEY=VALUE pairs sorted by key, suitable for exec.Cmd.Env.
func (e Environment) Environ() []string {
	keys := e.keys()
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+e.vars[k])
	}
	return out
}

// ShellScript renders export statements for the variables that differ from
// base, so `eval "$(envpin shell ci)"` only touches what the profile changes.
func (e Environment) ShellScript(base []string) string {
	before := parseEnviron(base)
	var b strings.Builder
	for _, k := range e.keys() {
		v := e.vars[k]
		if old, ok := before[k]; ok && old == v {
			continue
		}
		fmt.Fprintf(&b, "export %s=%s\n", k, shellQuote(v))
	}
	return b.String()
}

// Dotenv renders the variables that differ from base in .env format.
func (e Environment) Dotenv(base []string) (string, error) {
	before := parseEnviron(base)
	changed := make(map[string]string)
	for k, v := range e.vars {
		if old, ok := before[k]; ok && old == v {
			continue
		}
		changed[k] = v
	}
	return godotenv.Marshal(changed)
}

func (e Environment) keys() []string {
	keys := make([]string, 0, len(e.vars))
	for k := range e.vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func parseEnviron(environ []string) map[string]string {
	vars := make(map[string]string, len(environ))
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		vars[k] = v
	}
	return vars
}

func prependList(vars map[string]string, key string, entries []string) {
	if len(entries) == 0 {
		return
	}
	joined := strings.Join(entries, ":")
	if existing := vars[key]; existing != "" {
		joined += ":" + existing
	}
	vars[key] = joined
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
