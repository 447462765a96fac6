package cmake

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/meta-dds/meta-dds/internal/msg"
	"github.com/meta-dds/meta-dds/internal/scratch"
	"github.com/meta-dds/meta-dds/internal/toolchain"
)

// Properties dumped by the generated wrapper project, one file each.
var liveQueryProperties = []string{
	"INCLUDE_DIRECTORIES",
	"INTERFACE_INCLUDE_DIRECTORIES",
	"INTERFACE_SYSTEM_INCLUDE_DIRECTORIES",
	"COMPILE_DEFINITIONS",
	"INTERFACE_COMPILE_DEFINITIONS",
	"SOURCES",
	"LINK_LIBRARIES",
	"INTERFACE_LINK_LIBRARIES",
}

// ResolveTargetLive resolves a target that the codemodel does not
// enumerate at top level (an alias or an imported target) by configuring a
// throwaway wrapper project that add_subdirectory()s the real project and
// dumps the target's properties through generator-time property queries.
func ResolveTargetLive(base *CMake, tc *toolchain.Toolchain, target, scratchDir string) (*TargetInfo, error) {
	dir, cleanup, err := scratch.Dir(scratchDir)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	script, err := toolchain.Generate(tc, toolchain.PolicyExtract)
	if err != nil {
		return nil, err
	}
	toolchainFile := filepath.Join(dir, "toolchain.cmake")
	if err := os.WriteFile(toolchainFile, []byte(script), 0644); err != nil {
		return nil, err
	}

	if err := os.WriteFile(filepath.Join(dir, "CMakeLists.txt"),
		[]byte(liveQueryCMakeLists(base.SourceDir, target)), 0644); err != nil {
		return nil, err
	}

	msg.Debug("live-querying target `%s' via wrapper project in %s", target, dir)
	wrapper, err := New(base.Exe, dir, filepath.Join(dir, "cmake_build"))
	if err != nil {
		return nil, err
	}
	if err := wrapper.Configure(nil, true, toolchainFile); err != nil {
		return nil, fmt.Errorf("live query configure for `%s' failed: %w", target, err)
	}

	props := make(map[string][]string, len(liveQueryProperties))
	for _, prop := range liveQueryProperties {
		data, err := os.ReadFile(filepath.Join(wrapper.BuildDir, "props", prop+".txt"))
		if err != nil {
			return nil, fmt.Errorf("live query for `%s' produced no %s dump: %w", target, prop, err)
		}
		props[prop] = parsePropertyList(string(data))
	}

	info := &TargetInfo{
		Name:           target,
		PublicDefines:  map[string]string{},
		PrivateDefines: map[string]string{},
	}

	for _, def := range props["COMPILE_DEFINITIONS"] {
		k, v := splitDefine(def)
		info.PrivateDefines[k] = v
	}
	for _, def := range props["INTERFACE_COMPILE_DEFINITIONS"] {
		k, v := splitDefine(def)
		info.PublicDefines[k] = v
	}

	privateIncludes := map[string]bool{}
	for _, dir := range cleanIncludeDirs(props["INCLUDE_DIRECTORIES"]) {
		privateIncludes[dir] = true
	}
	publicIncludes := map[string]bool{}
	for _, dir := range cleanIncludeDirs(props["INTERFACE_INCLUDE_DIRECTORIES"]) {
		publicIncludes[dir] = true
	}
	for _, dir := range cleanIncludeDirs(props["INTERFACE_SYSTEM_INCLUDE_DIRECTORIES"]) {
		publicIncludes[dir] = true
	}
	info.PrivateIncludeDirs = sortedKeys(privateIncludes)
	info.PublicIncludeDirs = sortedKeys(publicIncludes)

	sources := map[string]bool{}
	for _, src := range props["SOURCES"] {
		if strings.Contains(src, "$<") {
			continue
		}
		if filepath.IsAbs(src) {
			if rel, err := filepath.Rel(base.SourceDir, src); err == nil && !strings.HasPrefix(rel, "..") {
				src = rel
			}
		}
		sources[filepath.ToSlash(src)] = true
	}
	info.Sources = sortedKeys(sources)

	info.PrivateLinks = FilterLinkNames(props["LINK_LIBRARIES"])
	info.PublicLinks = FilterLinkNames(props["INTERFACE_LINK_LIBRARIES"])

	return info, nil
}

func liveQueryCMakeLists(sourceDir, target string) string {
	var sb strings.Builder
	sb.WriteString("cmake_minimum_required(VERSION 3.15)\n")
	sb.WriteString("project(meta_dds_live_query C CXX)\n\n")
	fmt.Fprintf(&sb, "add_subdirectory(\"%s\" real_project)\n\n", filepath.ToSlash(sourceDir))
	for _, prop := range liveQueryProperties {
		fmt.Fprintf(&sb, "file(GENERATE OUTPUT \"props/%s.txt\" CONTENT \"$<TARGET_PROPERTY:%s,%s>\")\n",
			prop, target, prop)
	}
	return sb.String()
}

var buildInterfaceRegex = regexp.MustCompile(`\$<BUILD_INTERFACE:([^>]*)>`)

// cleanIncludeDirs unwraps $<BUILD_INTERFACE:...> entries and drops
// install-interface and other unevaluated generator expressions.
func cleanIncludeDirs(dirs []string) []string {
	var out []string
	for _, dir := range dirs {
		dir = buildInterfaceRegex.ReplaceAllString(dir, "$1")
		if dir == "" || strings.Contains(dir, "$<") {
			continue
		}
		out = append(out, dir)
	}
	return out
}

// parsePropertyList splits a dumped property value into its ;-list
// entries. An unset property dumps as empty or as a -NOTFOUND value.
func parsePropertyList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasSuffix(raw, "-NOTFOUND") {
		return nil
	}
	var out []string
	for _, entry := range strings.Split(raw, ";") {
		if entry != "" {
			out = append(out, entry)
		}
	}
	return out
}
