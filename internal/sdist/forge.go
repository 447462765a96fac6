// Package sdist forges toolchain-specific source distributions from CMake
// projects and packages them for dds.
package sdist

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/meta-dds/meta-dds/internal/cmake"
	"github.com/meta-dds/meta-dds/internal/dds"
	"github.com/meta-dds/meta-dds/internal/exes"
	"github.com/meta-dds/meta-dds/internal/metapkg"
	"github.com/meta-dds/meta-dds/internal/msg"
	"github.com/meta-dds/meta-dds/internal/scratch"
	"github.com/meta-dds/meta-dds/internal/toolchain"
)

// ForgeOptions parameterizes one forge run.
type ForgeOptions struct {
	Project   string
	Output    string // default: ./<name>@<version>.tar.gz
	Toolchain string // toolchain specifier: file path, builtin, or empty
	// ScratchDir pins the CMake build scratch directory; it survives the
	// run so intermediate state can be inspected.
	ScratchDir string
	IfExists   dds.IfExists
	Overrides  metapkg.Overrides
}

// Forge instantiates a toolchain-specific sdist from a CMake project and
// hands it to dds for archiving.
func Forge(tools exes.Tools, opts ForgeOptions) error {
	tc, err := toolchain.Load(opts.Toolchain)
	if err != nil {
		return err
	}
	script, err := toolchain.Generate(tc, toolchain.PolicyExtract)
	if err != nil {
		return err
	}

	pkg, err := metapkg.Load(opts.Project, opts.Overrides)
	if err != nil {
		return err
	}

	dir, cleanup, err := scratch.Dir(opts.ScratchDir)
	if err != nil {
		return err
	}
	defer cleanup()

	cm, err := cmake.New(tools.CMake, pkg.Root, filepath.Join(dir, "cmake_build"))
	if err != nil {
		return err
	}

	toolchainFile := filepath.Join(dir, "toolchain.cmake")
	if err := os.WriteFile(toolchainFile, []byte(script), 0644); err != nil {
		return err
	}

	version, err := cm.Version()
	if err != nil {
		return err
	}
	if err := cm.Configure(cmake.DefaultConfigureArgs(version), false, toolchainFile); err != nil {
		return err
	}

	pkgDir, err := layoutPackageDir(dir, pkg)
	if err != nil {
		return err
	}

	api := &cmake.FileAPI{CMake: cm, Client: "meta-dds"}
	codemodel, err := api.Codemodel()
	if err != nil {
		return err
	}

	libs := pkg.Libs()
	if len(libs) == 0 {
		name := pkg.Info.ID.Name
		inferred, err := metapkg.ParseLib(name, name+"::"+name)
		if err != nil {
			return err
		}
		libs = []metapkg.Lib{inferred}
		msg.Info("inferred library map of DDS `%s' -> CMake `%s'", inferred.DDSName, inferred.CMakeName)
	}

	for _, lib := range libs {
		info, err := resolveLib(api, codemodel, tc, lib)
		if err != nil {
			return err
		}
		if err := exportLib(pkgDir, pkg, codemodel, lib, info); err != nil {
			return err
		}
	}

	output := opts.Output
	if output == "" {
		output = fmt.Sprintf("%s@%s.tar.gz", pkg.Info.ID.Name, pkg.Info.Version)
	}

	packager := &dds.DDS{Exe: tools.DDS}
	return packager.PkgCreate(pkgDir, output, opts.IfExists)
}

// resolveLib resolves a library's target through the codemodel, falling
// back to a live wrapper-project query when the target is not enumerated
// there (aliases, imported targets).
func resolveLib(api *cmake.FileAPI, codemodel *cmake.Codemodel, tc *toolchain.Toolchain, lib metapkg.Lib) (*cmake.TargetInfo, error) {
	info, err := api.ResolveTarget(codemodel, lib.CMakeName)
	var notFound *cmake.TargetNotFoundError
	if errors.As(err, &notFound) {
		msg.Debug("target `%s' not in codemodel, trying a live query", lib.CMakeName)
		live, liveErr := cmake.ResolveTargetLive(api.CMake, tc, lib.CMakeName, "")
		if liveErr != nil {
			msg.Debug("live query failed: %v", liveErr)
			return nil, err
		}
		return live, nil
	}
	return info, err
}

// layoutPackageDir creates the normalized dds_pkg directory and writes
// package.json.
func layoutPackageDir(scratchDir string, pkg *metapkg.Package) (string, error) {
	pkgDir := filepath.Join(scratchDir, "dds_pkg")
	if err := os.MkdirAll(filepath.Join(pkgDir, "libs"), 0755); err != nil {
		return "", err
	}

	meta := map[string]string{
		"name":      pkg.Info.ID.Name,
		"namespace": pkg.Info.ID.Namespace,
		"version":   pkg.Info.Version,
	}
	if err := writeJSON(filepath.Join(pkgDir, "package.json"), meta); err != nil {
		return "", err
	}
	return pkgDir, nil
}

// exportLib copies one resolved library into the package layout: headers
// under include/, compiled sources under src/, plus a content-addressed
// predefine header injected into every copied source.
func exportLib(pkgDir string, pkg *metapkg.Package, codemodel *cmake.Codemodel, lib metapkg.Lib, info *cmake.TargetInfo) error {
	libDir := filepath.Join(pkgDir, "libs", filepath.FromSlash(lib.DDSName))
	incDir := filepath.Join(libDir, "include")
	srcDir := filepath.Join(libDir, "src")
	for _, dir := range []string{incDir, srcDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	if err := writeJSON(filepath.Join(libDir, "library.json"), map[string]string{"name": lib.DDSName}); err != nil {
		return err
	}

	predefine, err := writePredefineHeader(srcDir, pkg.Info.ID.Name, info.Defines())
	if err != nil {
		return err
	}

	for _, dir := range append(info.PublicIncludeDirs, info.PrivateIncludeDirs...) {
		if !filepath.IsAbs(dir) {
			return fmt.Errorf("expected an absolute include directory for `%s', got %q", lib.CMakeName, dir)
		}
		if err := copyTree(dir, incDir); err != nil {
			return err
		}
	}

	mainSrcDir := codemodel.Paths.Source
	if err := copySources(mainSrcDir, srcDir, info.Sources); err != nil {
		return err
	}
	if predefine != "" {
		return prependInclude(srcDir, info.Sources, predefine)
	}
	return nil
}

// writePredefineHeader materializes the target's preprocessor defines as a
// header whose name is derived from its own content hash. Returns the
// header filename, or "" when there are no defines.
func writePredefineHeader(srcDir, pkgName string, defines map[string]string) (string, error) {
	if len(defines) == 0 {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString("#pragma once\n")
	for _, name := range sortedDefineNames(defines) {
		fmt.Fprintf(&sb, "#define %s %s\n", name, defines[name])
	}

	sum := sha256.Sum256([]byte(sb.String()))
	filename := fmt.Sprintf("meta-dds.%s.%s.predefine.h", pkgName, hex.EncodeToString(sum[:]))
	if err := os.WriteFile(filepath.Join(srcDir, filename), []byte(sb.String()), 0644); err != nil {
		return "", err
	}
	return filename, nil
}

// prependInclude injects the predefine header include as the first line of
// every copied source file.
func prependInclude(srcDir string, sources []string, header string) error {
	for _, src := range sources {
		path := filepath.Join(srcDir, filepath.FromSlash(src))
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		injected := fmt.Sprintf("#include \"%s\"\n", header)
		if err := os.WriteFile(path, append([]byte(injected), content...), 0644); err != nil {
			return err
		}
	}
	return nil
}

func sortedDefineNames(defines map[string]string) []string {
	names := make([]string, 0, len(defines))
	for name := range defines {
		names = append(names, name)
	}
	// Deterministic header content, deterministic hash.
	sort.Strings(names)
	return names
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}
