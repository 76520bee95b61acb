package resolve

import "fmt"

// BuildSet assembles the shared core for platform: the toolchain first, then
// the declarations that apply to platform, deduplicated last-write-wins.
func BuildSet(toolchain ToolchainRef, decls []DependencyItem, platform Platform) (DependencySet, []Diagnostic) {
	head := DependencySet{toolchain.Item()}
	return merge(head, decls, platform, "", toolchain.Spec.Name)
}

// merge appends decls onto base. reserved names an identifier that no
// declaration may replace (the toolchain).
func merge(base DependencySet, decls []DependencyItem, platform Platform, profile, reserved string) (DependencySet, []Diagnostic) {
	out := base.Clone()
	if out == nil {
		out = DependencySet{}
	}
	index := make(map[string]int, len(out)+len(decls))
	for i, item := range out {
		index[item.Name] = i
	}

	var diags []Diagnostic
	for _, decl := range decls {
		if !decl.AppliesTo(platform) {
			continue
		}
		if decl.Name == reserved {
			diags = append(diags, Diagnostic{
				Kind:     DuplicateDependencyOverridden,
				Platform: platform,
				Profile:  profile,
				Item:     decl.Name,
				Message:  fmt.Sprintf("declaration %s@%s dropped: the toolchain keeps precedence", decl.Name, decl.Version),
			})
			continue
		}

		if i, ok := index[decl.Name]; ok {
			diags = append(diags, Diagnostic{
				Kind:     DuplicateDependencyOverridden,
				Platform: platform,
				Profile:  profile,
				Item:     decl.Name,
				Message:  fmt.Sprintf("%s@%s overridden by later declaration %s@%s", out[i].Name, out[i].Version, decl.Name, decl.Version),
			})
			out[i] = decl
			continue
		}
		index[decl.Name] = len(out)
		out = append(out, decl)
	}
	return out, diags
}
