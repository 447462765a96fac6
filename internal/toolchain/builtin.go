package toolchain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/meta-dds/meta-dds/internal/msg"
)

var cxxVersions = []string{"98", "03", "11", "14", "17", "20", "23"}

var knownCompilerVersions = map[int]bool{
	7: true, 8: true, 9: true, 10: true, 11: true, 12: true, 13: true,
}

// ParseBuiltin parses a builtin toolchain shorthand such as
// ":debug:ccache:c++17:gcc-10" or ":msvc". Ported from the dds-proper
// toolchain::get_builtin() behavior.
func ParseBuiltin(spec string) (*Toolchain, error) {
	if !strings.HasPrefix(spec, ":") {
		return nil, fmt.Errorf("not a builtin toolchain specifier: %q", spec)
	}
	rest := spec[1:]

	cut := func(prefix string) bool {
		if strings.HasPrefix(rest, prefix) {
			rest = rest[len(prefix):]
			return true
		}
		return false
	}

	tc := &Toolchain{Debug: DebugOff}
	if cut("debug:") {
		tc.Debug = DebugOn
	}
	if cut("ccache:") {
		tc.CompilerLauncher = "ccache"
	}
	for _, ver := range cxxVersions {
		if cut("c++" + ver + ":") {
			tc.CXXVersion = "c++" + ver
			if ver == "23" {
				msg.Warn("DDS does not support C++%s at this time", ver)
			}
			break
		}
	}

	switch {
	case strings.HasPrefix(rest, "gcc"), strings.HasPrefix(rest, "clang"):
		isGCC := cut("gcc")
		if !isGCC {
			cut("clang")
		}

		cBase, cxxBase, id := "clang", "clang++", "clang"
		if isGCC {
			cBase, cxxBase, id = "gcc", "g++", "gnu"
		}

		suffix := ""
		if cut("-") {
			version, err := strconv.Atoi(rest)
			if err != nil {
				return nil, fmt.Errorf("bad compiler version in builtin toolchain: %q", rest)
			}
			rest = ""
			if !knownCompilerVersions[version] {
				msg.Warn("compiler version may be unsupported for %s: %d", id, version)
			}
			suffix = fmt.Sprintf("-%d", version)
		}

		if rest != "" {
			return nil, fmt.Errorf("unknown remaining builtin toolchain suffix: `%s'", rest)
		}

		tc.CCompiler = cBase + suffix
		tc.CXXCompiler = cxxBase + suffix
		tc.CompilerID = id
	case rest == "msvc":
		tc.CCompiler = "cl.exe"
		tc.CXXCompiler = "cl.exe"
		tc.CompilerID = "msvc"
	default:
		return nil, fmt.Errorf("unknown compiler in builtin toolchain: `%s'", rest)
	}

	return tc, nil
}
