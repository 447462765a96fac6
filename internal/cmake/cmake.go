// Package cmake drives an external CMake executable: configuring and
// building projects, and extracting structured project information through
// the file-based API query protocol.
package cmake

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/meta-dds/meta-dds/internal/exes"
	"github.com/meta-dds/meta-dds/internal/msg"
)

const preloadScriptName = "meta-dds-cmake-cache-preload.cmake"

// CMake identifies one configuration of the external build tool: the
// executable plus a source/build directory pair. The build directory is
// exclusively owned by this invocation for the duration of an operation.
type CMake struct {
	Exe       string
	SourceDir string
	BuildDir  string

	version string // cached canonical semver, resolved on first use
}

// New binds a CMake executable to a source/build directory pair. Both
// directories are normalized to absolute paths up front, since file API
// replies encode absolute paths that must compare against them.
func New(exe, sourceDir, buildDir string) (*CMake, error) {
	srcAbs, err := filepath.Abs(sourceDir)
	if err != nil {
		return nil, err
	}
	buildAbs, err := filepath.Abs(buildDir)
	if err != nil {
		return nil, err
	}
	return &CMake{Exe: exe, SourceDir: srcAbs, BuildDir: buildAbs}, nil
}

var versionRegex = regexp.MustCompile(`version (\d+\.\d+\.\d+[^\s]*)`)

// Version reports the tool's semantic version (canonical form, leading
// "v"), querying `--version` once and caching the result.
func (c *CMake) Version() (string, error) {
	if c.version != "" {
		return c.version, nil
	}

	out, err := exec.Command(c.Exe, "--version").Output()
	if err != nil {
		return "", fmt.Errorf("failed to run %s --version: %w", c.Exe, err)
	}

	firstLine, _, _ := strings.Cut(string(out), "\n")
	m := versionRegex.FindStringSubmatch(firstLine)
	if m == nil {
		return "", fmt.Errorf("internal error: could not parse cmake version from %q", firstLine)
	}
	v := semver.Canonical("v" + m[1])
	if !semver.IsValid(v) {
		return "", fmt.Errorf("internal error: cmake reported an invalid version %q", m[1])
	}

	c.version = v
	msg.Debug("found CMake version %s: %s", v, c.Exe)
	return v, nil
}

// Configure runs the configure step. Cache variables are written to a
// preload script inside the build directory (overwritten on every call) and
// injected with -C; a toolchain script path is passed via --toolchain.
// Stdout is suppressed when quiet; stderr never is.
func (c *CMake) Configure(cacheVars map[string]string, quiet bool, toolchainFile string) error {
	if err := os.MkdirAll(c.BuildDir, 0755); err != nil {
		return err
	}

	preload := filepath.Join(c.BuildDir, preloadScriptName)
	if err := os.WriteFile(preload, []byte(GeneratePreloadScript(cacheVars)), 0644); err != nil {
		return err
	}

	args := []string{"-S", c.SourceDir, "-B", c.BuildDir, "-C", preload}
	if toolchainFile != "" {
		tc, err := filepath.Abs(toolchainFile)
		if err != nil {
			return err
		}
		args = append(args, "--toolchain", tc)
	}

	msg.Debug("configuring with command: %s %s", c.Exe, strings.Join(args, " "))
	cmd := exec.Command(c.Exe, args...)
	if !quiet {
		cmd.Stdout = &msg.IndentWriter{Indent: "    ", W: os.Stdout}
	}
	cmd.Stderr = os.Stderr
	return c.wrapRun(cmd)
}

// Build runs the generic build-by-directory command, optionally scoped to
// one named target. Non-zero exit is fatal for the caller; builds are
// assumed non-flaky and are never retried.
func (c *CMake) Build(target string) error {
	args := []string{"--build", c.BuildDir}
	if target != "" {
		args = append(args, "--target", target)
	}

	msg.Debug("building with command: %s %s", c.Exe, strings.Join(args, " "))
	cmd := exec.Command(c.Exe, args...)
	cmd.Stdout = &msg.IndentWriter{Indent: "    ", W: os.Stdout}
	cmd.Stderr = os.Stderr
	return c.wrapRun(cmd)
}

func (c *CMake) wrapRun(cmd *exec.Cmd) error {
	err := cmd.Run()
	if exitErr, ok := err.(*exec.ExitError); ok {
		return &exes.ExitError{Exe: c.Exe, Code: exitErr.ExitCode()}
	}
	return err
}

// GeneratePreloadScript renders cache variables as a -C preload script. The
// bracket raw-string literal form sidesteps quoting of the values.
func GeneratePreloadScript(cacheVars map[string]string) string {
	keys := make([]string, 0, len(cacheVars))
	for k := range cacheVars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, "set(%s [======[%s]======] CACHE STRING \"\")\n", k, cacheVars[k])
	}
	return sb.String()
}

// DefaultConfigureArgs returns the cache preload that isolates configure
// runs from package registries and host install prefixes.
func DefaultConfigureArgs(version string) map[string]string {
	return map[string]string{
		// Deprecated 3.16+:
		"CMAKE_FIND_PACKAGE_NO_PACKAGE_REGISTRY":        "YES",
		"CMAKE_FIND_PACKAGE_NO_SYSTEM_PACKAGE_REGISTRY": "YES",
		// Replaced by:
		"CMAKE_FIND_USE_PACKAGE_REGISTRY":        "NO",
		"CMAKE_FIND_USE_SYSTEM_PACKAGE_REGISTRY": "NO",

		"CMAKE_FIND_USE_CMAKE_ENVIRONMENT_PATH": "NO",
		"CMAKE_FIND_USE_CMAKE_PATH":             "NO",
		"CMAKE_FIND_USE_CMAKE_SYSTEM_PATH":      "NO",

		"CMAKE_FIND_NO_INSTALL_PREFIX":     "YES",
		"CMAKE_FIND_PACKAGE_PREFER_CONFIG": "YES",

		"CMAKE_FIND_ROOT_PATH":              "",
		"CMAKE_FIND_ROOT_PATH_MODE_INCLUDE": "ONLY",
		"CMAKE_FIND_ROOT_PATH_MODE_LIBRARY": "ONLY",
		"CMAKE_FIND_ROOT_PATH_MODE_PACKAGE": "ONLY",
	}
}
