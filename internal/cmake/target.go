package cmake

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// ErrMultiConfig: multi-configuration generators keep several parallel
// target lists and are not supported by the resolver.
var ErrMultiConfig = errors.New("multi-configuration cmake generators are unsupported")

// TargetNotFoundError reports a target name missing from the project's
// target list, with close-matching known names for diagnosis.
type TargetNotFoundError struct {
	Target      string
	Suggestions []string
}

func (e *TargetNotFoundError) Error() string {
	didYouMean := ""
	switch n := len(e.Suggestions); {
	case n == 1:
		didYouMean = fmt.Sprintf(" Did you mean `%s'?", e.Suggestions[0])
	case n == 2:
		didYouMean = fmt.Sprintf(" Did you mean one of `%s' or `%s'?", e.Suggestions[0], e.Suggestions[1])
	case n > 2:
		quoted := make([]string, n-1)
		for i, s := range e.Suggestions[:n-1] {
			quoted[i] = "`" + s + "'"
		}
		didYouMean = fmt.Sprintf(" Did you mean one of %s, or `%s'?",
			strings.Join(quoted, ", "), e.Suggestions[n-1])
	}
	return fmt.Sprintf("could not find `%s' in the CMake project.%s", e.Target, didYouMean)
}

// TargetInfo is the resolved, flattened compile record for one target.
// Created fresh per resolution call and owned solely by the caller.
type TargetInfo struct {
	Name string `json:"name"`

	PublicIncludeDirs  []string `json:"public_include_dirs"`
	PrivateIncludeDirs []string `json:"private_include_dirs"`

	PublicDefines  map[string]string `json:"public_defines"`
	PrivateDefines map[string]string `json:"private_defines"`

	// Source file paths relative to the project source directory.
	Sources []string `json:"sources"`

	PublicLinks  []string `json:"public_links"`
	PrivateLinks []string `json:"private_links"`
}

// Defines merges the public and private define maps, private winning.
func (t *TargetInfo) Defines() map[string]string {
	merged := make(map[string]string, len(t.PublicDefines)+len(t.PrivateDefines))
	for k, v := range t.PublicDefines {
		merged[k] = v
	}
	for k, v := range t.PrivateDefines {
		merged[k] = v
	}
	return merged
}

// ResolveTarget resolves the named target of the codemodel into a flat
// compile record, reading the target's detail document from the session's
// reply directory.
func (f *FileAPI) ResolveTarget(cm *Codemodel, targetName string) (*TargetInfo, error) {
	if len(cm.Configurations) == 0 {
		return nil, errors.New("codemodel contains no configurations")
	}
	if len(cm.Configurations) > 1 {
		return nil, fmt.Errorf("codemodel contains %d configurations: %w",
			len(cm.Configurations), ErrMultiConfig)
	}

	targets := cm.Configurations[0].Targets
	targetsByName := make(map[string]TargetRef, len(targets))
	names := make([]string, 0, len(targets))
	for _, t := range targets {
		targetsByName[t.Name] = t
		names = append(names, t.Name)
	}

	ref, ok := targetsByName[targetName]
	if !ok {
		return nil, &TargetNotFoundError{
			Target:      targetName,
			Suggestions: closeMatches(targetName, names),
		}
	}

	data, err := os.ReadFile(filepath.Join(f.ReplyDir(), ref.JSONFile))
	if err != nil {
		return nil, err
	}
	var detail targetDetail
	if err := json.Unmarshal(data, &detail); err != nil {
		return nil, fmt.Errorf("failed to parse target document for %s: %w", targetName, err)
	}

	return resolveDetail(targetName, &detail), nil
}

func resolveDetail(name string, detail *targetDetail) *TargetInfo {
	info := &TargetInfo{
		Name:           name,
		PublicDefines:  map[string]string{},
		PrivateDefines: map[string]string{},
	}

	publicIncludes := map[string]bool{}
	privateIncludes := map[string]bool{}
	for _, group := range detail.CompileGroups {
		for _, def := range group.Defines {
			k, v := splitDefine(def.Define)
			info.PrivateDefines[k] = v
		}
		for _, inc := range group.Includes {
			// System includes come from interface properties of the
			// dependencies; everything else is the target's own.
			if inc.IsSystem {
				publicIncludes[inc.Path] = true
			} else {
				privateIncludes[inc.Path] = true
			}
		}
	}
	info.PublicIncludeDirs = sortedKeys(publicIncludes)
	info.PrivateIncludeDirs = sortedKeys(privateIncludes)

	sources := map[string]bool{}
	for _, src := range detail.Sources {
		// Entries outside every compile group are header-only and are not
		// part of the compiled source list.
		if src.CompileGroupIndex != nil {
			sources[src.Path] = true
		}
	}
	info.Sources = sortedKeys(sources)

	if detail.Link != nil {
		var raw []string
		for _, frag := range detail.Link.CommandFragments {
			if frag.Role == "libraries" {
				raw = append(raw, strings.Fields(frag.Fragment)...)
			}
		}
		info.PrivateLinks = FilterLinkNames(raw)
	}

	return info
}

// splitDefine parses a raw preprocessor define. `=` is not part of a valid
// identifier, so the first one (and only the first) separates name from
// value; a define with no value means "1".
func splitDefine(define string) (name, value string) {
	name, value, ok := strings.Cut(define, "=")
	if !ok {
		value = "1"
	}
	return name, value
}

var linkOnlyRegex = regexp.MustCompile(`\$<LINK_ONLY:([^>]*)>`)

// FilterLinkNames strips $<LINK_ONLY:...> wrappers and discards entries
// containing a path separator or a "." character: those denote link
// artifacts (absolute paths, versioned library files) rather than named
// buildable targets.
//
// Known limitation: legitimate target names containing dots are
// misclassified by this heuristic; the behavior is preserved for
// compatibility with dds-side expectations.
func FilterLinkNames(raw []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, entry := range raw {
		entry = linkOnlyRegex.ReplaceAllString(entry, "$1")
		if entry == "" || strings.ContainsAny(entry, "/\\.") {
			continue
		}
		if !seen[entry] {
			seen[entry] = true
			out = append(out, entry)
		}
	}
	return out
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
