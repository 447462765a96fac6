// Package toolchain loads abstract DDS toolchain descriptions and turns
// them into CMake toolchain scripts.
package toolchain

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/titanous/json5"

	"github.com/meta-dds/meta-dds/internal/msg"
	"github.com/meta-dds/meta-dds/internal/paths"
)

// DebugMode distinguishes an absent `debug' key from an explicit false,
// since MSVC runtime defaults depend on the difference.
type DebugMode int

const (
	DebugUnset DebugMode = iota
	DebugOff
	DebugOn
	DebugSplit
	DebugEmbedded
)

func (d DebugMode) enabled() bool {
	return d == DebugOn || d == DebugSplit || d == DebugEmbedded
}

// RuntimeOptions describes runtime library linkage. Nil pointers mean the
// key was absent and compiler-specific defaults apply.
type RuntimeOptions struct {
	Static *bool
	Debug  *bool
}

// Toolchain is the abstract, tool-independent compiler description. It is
// pure input data; the generator never mutates it.
type Toolchain struct {
	CompilerID  string
	CCompiler   string
	CXXCompiler string
	CVersion    string
	CXXVersion  string

	Flags     []string
	CFlags    []string
	CXXFlags  []string
	LinkFlags []string

	LangVersionFlagTemplate string

	LinkExecutable string
	CreateArchive  string
	CCompileFile   string
	CXXCompileFile string

	CompilerLauncher string

	Debug    DebugMode
	Optimize bool
	Runtime  *RuntimeOptions
}

func (tc *Toolchain) IsGNULike() bool {
	return tc.CompilerID == "gnu" || tc.CompilerID == "clang"
}

func (tc *Toolchain) IsMSVC() bool {
	return tc.CompilerID == "msvc"
}

var compilerIDs = map[string]bool{"gnu": true, "clang": true, "msvc": true}

// Validate checks the descriptor eagerly so failures name the bad field
// instead of surfacing later inside the generator.
func (tc *Toolchain) Validate() error {
	if tc.CompilerID == "" {
		return errors.New("toolchain: missing required key `compiler_id'")
	}
	if !compilerIDs[tc.CompilerID] {
		return fmt.Errorf("toolchain: unknown `compiler_id' %q (must be one of gnu, clang, msvc)", tc.CompilerID)
	}
	return nil
}

// Load resolves a toolchain specifier: "" searches the default descriptor
// locations, a leading ':' selects a builtin shorthand, anything else is a
// descriptor file path.
func Load(spec string) (*Toolchain, error) {
	if spec == "" {
		return loadDefault()
	}
	if strings.HasPrefix(spec, ":") {
		return ParseBuiltin(spec)
	}
	return LoadFile(spec)
}

// LoadFile parses a descriptor file. `.toml' files are parsed as TOML;
// everything else (.json5, .jsonc, .json) as JSON5. String values may
// contain {{...}} expressions, evaluated against the host environment.
func LoadFile(path string) (*Toolchain, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if filepath.Ext(path) == ".toml" {
		err = toml.Unmarshal(data, &raw)
	} else {
		err = json5.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse toolchain descriptor %s: %w", path, err)
	}

	processed, err := processExpressions(raw, newEnv())
	if err != nil {
		return nil, fmt.Errorf("error processing expressions in %s: %w", path, err)
	}
	raw = processed.(map[string]any)

	tc, err := fromRaw(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tc, nil
}

func defaultDescriptorPaths() ([]string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	configDir, err := paths.DDSConfigDir()
	if err != nil {
		return nil, err
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	var out []string
	for _, dir := range []string{cwd, configDir, home} {
		for _, ext := range []string{".json5", ".jsonc", ".json"} {
			out = append(out, filepath.Join(dir, "toolchain"+ext))
		}
	}
	return out, nil
}

func loadDefault() (*Toolchain, error) {
	candidates, err := defaultDescriptorPaths()
	if err != nil {
		return nil, err
	}
	for _, path := range candidates {
		if stat, err := os.Stat(path); err == nil && !stat.IsDir() {
			msg.Debug("found default toolchain: %s", path)
			return LoadFile(path)
		}
	}
	return nil, errors.New("unable to find a default toolchain; " +
		"either specify a toolchain or provide a default toolchain file")
}

// fromRaw converts the decoded descriptor mapping into a validated
// Toolchain, rejecting wrongly-typed fields with field-level messages.
func fromRaw(raw map[string]any) (*Toolchain, error) {
	d := rawDecoder{raw: raw}
	tc := &Toolchain{
		CompilerID:              d.str("compiler_id"),
		CCompiler:               d.str("c_compiler"),
		CXXCompiler:             d.str("cxx_compiler"),
		CVersion:                d.str("c_version"),
		CXXVersion:              d.str("cxx_version"),
		Flags:                   d.strList("flags"),
		CFlags:                  d.strList("c_flags"),
		CXXFlags:                d.strList("cxx_flags"),
		LinkFlags:               d.strList("link_flags"),
		LangVersionFlagTemplate: d.str("lang_version_flag_template"),
		LinkExecutable:          d.joined("link_executable"),
		CreateArchive:           d.joined("create_archive"),
		CCompileFile:            d.joined("c_compile_file"),
		CXXCompileFile:          d.joined("cxx_compile_file"),
		CompilerLauncher:        d.str("compiler_launcher"),
		Debug:                   d.debug("debug"),
		Optimize:                d.boolean("optimize"),
		Runtime:                 d.runtime("runtime"),
	}
	if d.err != nil {
		return nil, d.err
	}
	if err := tc.Validate(); err != nil {
		return nil, err
	}
	return tc, nil
}

// rawDecoder accumulates the first field error while extracting typed
// values from the descriptor mapping.
type rawDecoder struct {
	raw map[string]any
	err error
}

func (d *rawDecoder) fail(key string, v any, want string) {
	if d.err == nil {
		d.err = fmt.Errorf("toolchain: `%s' must be %s (got %T)", key, want, v)
	}
}

func (d *rawDecoder) str(key string) string {
	v, ok := d.raw[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		d.fail(key, v, "a string")
		return ""
	}
	return s
}

func (d *rawDecoder) strList(key string) []string {
	v, ok := d.raw[key]
	if !ok {
		return nil
	}
	switch val := v.(type) {
	case string:
		return []string{val}
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				d.fail(key, item, "a list of strings")
				return nil
			}
			out = append(out, s)
		}
		return out
	default:
		d.fail(key, v, "a string or list of strings")
		return nil
	}
}

// joined flattens a string-or-list value to a single space-joined string.
func (d *rawDecoder) joined(key string) string {
	return strings.Join(d.strList(key), " ")
}

func (d *rawDecoder) boolean(key string) bool {
	v, ok := d.raw[key]
	if !ok {
		return false
	}
	b, ok := v.(bool)
	if !ok {
		d.fail(key, v, "a boolean")
		return false
	}
	return b
}

func (d *rawDecoder) debug(key string) DebugMode {
	v, ok := d.raw[key]
	if !ok {
		return DebugUnset
	}
	switch val := v.(type) {
	case bool:
		if val {
			return DebugOn
		}
		return DebugOff
	case string:
		switch val {
		case "split":
			return DebugSplit
		case "embedded":
			return DebugEmbedded
		}
		d.fail(key, v, `a boolean, "split", or "embedded"`)
	default:
		d.fail(key, v, `a boolean, "split", or "embedded"`)
	}
	return DebugUnset
}

func (d *rawDecoder) runtime(key string) *RuntimeOptions {
	v, ok := d.raw[key]
	if !ok {
		return nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		d.fail(key, v, "a table")
		return nil
	}
	rt := &RuntimeOptions{}
	if sv, ok := m["static"]; ok {
		b, ok := sv.(bool)
		if !ok {
			d.fail("runtime.static", sv, "a boolean")
			return nil
		}
		rt.Static = &b
	}
	if dv, ok := m["debug"]; ok {
		b, ok := dv.(bool)
		if !ok {
			d.fail("runtime.debug", dv, "a boolean")
			return nil
		}
		rt.Debug = &b
	}
	return rt
}
