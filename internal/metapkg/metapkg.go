// Package metapkg loads meta-package metadata, either from a
// meta_package.json5 manifest or inferred from a CMakeLists.txt build
// script.
package metapkg

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/titanous/json5"

	"github.com/meta-dds/meta-dds/internal/msg"
)

const (
	ManifestFilename = "meta_package.json5"
	InfoFilename     = "meta_package.info.json5"
)

// PackageID identifies a package within a namespace.
type PackageID struct {
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
}

// Info is the identity block of a meta-package.
type Info struct {
	ID      PackageID
	Version string
}

// SourceKind tags where a package's metadata came from.
type SourceKind int

const (
	// ManifestSourced packages carry a meta_package.json5 manifest.
	ManifestSourced SourceKind = iota
	// BuildScriptInferred packages have their identity read out of the
	// project() call in CMakeLists.txt.
	BuildScriptInferred
)

// Package is a loaded meta-package. Exactly one of Manifest or CMakeLists
// is populated, matching Kind.
type Package struct {
	Kind SourceKind
	Root string
	Info Info

	// ManifestSourced only.
	Manifest *Manifest
	// BuildScriptInferred only: path of the build script the identity was
	// read from.
	CMakeLists string
}

// Libs returns the declared dds-to-cmake library mappings, if any.
func (p *Package) Libs() []Lib {
	if p.Kind == ManifestSourced {
		return p.Manifest.Libs
	}
	return nil
}

// Overrides carries identity fields supplied on the command line, taking
// precedence over anything loaded or inferred.
type Overrides struct {
	Name      string
	Namespace string
	Version   string
}

// Load reads a project's meta-package metadata. A manifest wins over a
// build script; a project with neither is a fatal configuration error.
func Load(projectDir string, overrides Overrides) (*Package, error) {
	root, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, err
	}

	for _, name := range []string{ManifestFilename, InfoFilename} {
		manifestPath := filepath.Join(root, name)
		if _, err := os.Stat(manifestPath); err == nil {
			return loadManifest(root, manifestPath, overrides)
		}
	}

	cmakeLists := filepath.Join(root, "CMakeLists.txt")
	if _, err := os.Stat(cmakeLists); err == nil {
		return inferFromBuildScript(root, cmakeLists, overrides)
	}

	return nil, fmt.Errorf("%s has neither a %s manifest nor a CMakeLists.txt build script",
		projectDir, ManifestFilename)
}

func loadManifest(root, manifestPath string, overrides Overrides) (*Package, error) {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, err
	}

	var manifest Manifest
	if err := json5.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", manifestPath, err)
	}
	if err := manifest.finish(); err != nil {
		return nil, fmt.Errorf("%s: %w", manifestPath, err)
	}

	info := Info{
		ID:      PackageID{Namespace: manifest.Namespace, Name: manifest.Name},
		Version: manifest.Version,
	}
	applyOverrides(&info, overrides)
	if info.ID.Name == "" {
		return nil, fmt.Errorf("%s does not declare a package name", manifestPath)
	}

	return &Package{
		Kind:     ManifestSourced,
		Root:     root,
		Info:     info,
		Manifest: &manifest,
	}, nil
}

var projectRegex = regexp.MustCompile(`(?s)\bproject\s*\(\s*([A-Za-z0-9_.+-]+)(.*?)\)`)
var projectVersionRegex = regexp.MustCompile(`\bVERSION\s+([0-9][0-9.]*)`)

func inferFromBuildScript(root, cmakeLists string, overrides Overrides) (*Package, error) {
	data, err := os.ReadFile(cmakeLists)
	if err != nil {
		return nil, err
	}

	info := Info{Version: "0.0.0"}
	if m := projectRegex.FindStringSubmatch(string(data)); m != nil {
		info.ID.Name = strings.ToLower(m[1])
		if vm := projectVersionRegex.FindStringSubmatch(m[2]); vm != nil {
			info.Version = vm[1]
		}
	}
	applyOverrides(&info, overrides)
	if info.ID.Name == "" {
		return nil, fmt.Errorf("could not infer a package name from %s; pass --name", cmakeLists)
	}

	msg.Debug("inferred package %s@%s from %s", info.ID.Name, info.Version, cmakeLists)
	return &Package{
		Kind:       BuildScriptInferred,
		Root:       root,
		Info:       info,
		CMakeLists: cmakeLists,
	}, nil
}

func applyOverrides(info *Info, overrides Overrides) {
	if overrides.Name != "" {
		info.ID.Name = overrides.Name
	}
	if overrides.Namespace != "" {
		info.ID.Namespace = overrides.Namespace
	}
	if overrides.Version != "" {
		info.Version = overrides.Version
	}
	if info.ID.Namespace == "" {
		info.ID.Namespace = info.ID.Name
	}
}
