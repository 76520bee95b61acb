package resolve

import "fmt"

// PinFunc pins one item on behalf of a profile. A nil PinFunc leaves items unpinned.
type PinFunc func(profile string, item DependencyItem) (DependencyItem, error)

// ComposeProfiles builds every declared profile on platform around core.
// Each profile receives its own deep copy of core, so the core is identical
// across profiles and no profile can observe another's mutations.
func ComposeProfiles(platform Platform, core DependencySet, decls []ProfileDecl, pin PinFunc) (ProfileSet, []Diagnostic, error) {
	seen := make(map[string]bool, len(decls))
	for _, decl := range decls {
		if seen[decl.Name] {
			return nil, nil, &ProfileNameCollisionError{Platform: platform, Name: decl.Name}
		}
		seen[decl.Name] = true
	}

	reserved := ""
	if len(core) > 0 && core[0].Kind == KindToolchain {
		reserved = core[0].Name
	}

	profiles := make(ProfileSet, len(decls))
	var diags []Diagnostic
	for _, decl := range decls {
		extras, extraDiags := merge(nil, decl.Extras, platform, decl.Name, reserved)
		diags = append(diags, extraDiags...)

		for _, extra := range extras {
			if i := core.Index(extra.Name); i >= 0 {
				diags = append(diags, Diagnostic{
					Kind:     DuplicateDependencyOverridden,
					Platform: platform,
					Profile:  decl.Name,
					Item:     extra.Name,
					Message:  fmt.Sprintf("core %s@%s overridden by profile extra %s@%s", core[i].Name, core[i].Version, extra.Name, extra.Version),
				})
			}
		}

		if pin != nil {
			for i, extra := range extras {
				pinned, err := pin(decl.Name, extra)
				if err != nil {
					return nil, nil, err
				}
				extras[i] = pinned
			}
		}

		profiles[decl.Name] = Profile{
			Name:        decl.Name,
			Description: decl.Description,
			Platform:    platform,
			Core:        core.Clone(),
			Extras:      extras,
			Env:         copyEnv(decl.Env),
		}
	}
	return profiles, diags, nil
}

func copyEnv(env map[string]string) map[string]string {
	if env == nil {
		return nil
	}
	out := make(map[string]string, len(env))
	for k, v := range env {
		out[k] = v
	}
	return out
}
