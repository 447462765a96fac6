package toolchain

import (
	"fmt"
	"regexp"
	"strings"
)

// Policy selects how much of the toolchain is realized in the generated
// CMake script.
type Policy int

const (
	// PolicyExtract is enough for repackaging sources: compiler selection,
	// language standard, and a coarse build type.
	PolicyExtract Policy = iota
	// PolicyFullCompile additionally wires flags, command templates, the
	// compiler launcher, and the dedicated MetaDDS build configuration.
	PolicyFullCompile
)

// Placeholder tokens understood in link_executable, create_archive and
// *_compile_file command templates. Kept in one place so the three command
// kinds cannot silently diverge.
const (
	phCompiler = "<compiler>"
	phIn       = "[in]"
	phOut      = "[out]"
	phFlags    = "[flags]"
)

var defaultCXXCompiler = map[string]string{
	"gnu":   "g++",
	"clang": "clang++",
	"msvc":  "cl.exe",
}

var defaultCCompiler = map[string]string{
	"gnu":   "gcc",
	"clang": "clang",
	"msvc":  "cl.exe",
}

// Generate renders tc as a CMake toolchain script under the given policy.
func Generate(tc *Toolchain, policy Policy) (string, error) {
	if err := tc.Validate(); err != nil {
		return "", err
	}

	g := &generator{tc: tc}
	g.base()
	switch policy {
	case PolicyExtract:
		g.extract()
	case PolicyFullCompile:
		g.fullCompile()
	default:
		return "", fmt.Errorf("unknown toolchain generation policy %d", policy)
	}
	return g.String(), nil
}

type generator struct {
	tc    *Toolchain
	lines []string
}

func (g *generator) String() string {
	return strings.Join(g.lines, "\n") + "\n"
}

func (g *generator) nl() {
	g.lines = append(g.lines, "")
}

// set emits one cache assignment. var may carry a `:TYPE' suffix; the
// declared type defaults to STRING.
func (g *generator) set(varName, value string) {
	name, varType, ok := strings.Cut(varName, ":")
	if !ok {
		varType = "STRING"
	}
	g.lines = append(g.lines, fmt.Sprintf(`set(%s "%s" CACHE %s "")`, name, value, varType))
}

// base emits the statements shared by both policies.
func (g *generator) base() {
	tc := g.tc

	cxx := tc.CXXCompiler
	if cxx == "" {
		cxx = defaultCXXCompiler[tc.CompilerID]
	}
	cc := tc.CCompiler
	if cc == "" {
		cc = defaultCCompiler[tc.CompilerID]
	}
	g.set("CMAKE_CXX_COMPILER:PATH", cxx)
	g.set("CMAKE_C_COMPILER:PATH", cc)

	if tc.CXXVersion != "" {
		g.set("CMAKE_CXX_STANDARD", strings.TrimPrefix(tc.CXXVersion, "c++"))
	}
	if tc.CVersion != "" {
		g.set("CMAKE_C_STANDARD", strings.TrimPrefix(tc.CVersion, "c"))
	}

	extensions := "FALSE"
	if tc.IsGNULike() && strings.Contains(tc.LangVersionFlagTemplate, "gnu") {
		extensions = "TRUE"
	}
	g.set("CMAKE_CXX_EXTENSIONS:BOOL", extensions)
	g.nl()

	g.set("CMAKE_POSITION_INDEPENDENT_CODE:BOOL", "YES")
	g.nl()
}

func (g *generator) extract() {
	tc := g.tc
	if tc.Debug.enabled() {
		g.set("CMAKE_BUILD_TYPE", "Debug")
	} else if tc.Optimize {
		g.set("CMAKE_BUILD_TYPE", "Release")
	}
}

func (g *generator) fullCompile() {
	tc := g.tc

	if len(tc.Flags) > 0 || len(tc.CXXFlags) > 0 {
		g.set("CMAKE_CXX_FLAGS", joinFlags(tc.Flags, tc.CXXFlags))
	}
	if len(tc.Flags) > 0 || len(tc.CFlags) > 0 {
		g.set("CMAKE_C_FLAGS", joinFlags(tc.Flags, tc.CFlags))
	}
	if len(tc.LinkFlags) > 0 {
		linkFlags := strings.Join(tc.LinkFlags, " ")
		g.set("CMAKE_EXE_LINKER_FLAGS", linkFlags)
		g.set("CMAKE_MODULE_LINKER_FLAGS", linkFlags)
		g.set("CMAKE_SHARED_LINKER_FLAGS", linkFlags)
		g.set("CMAKE_STATIC_LINKER_FLAGS", linkFlags)
	}
	g.nl()

	if tc.LinkExecutable != "" {
		g.set("CMAKE_CXX_LINK_EXECUTABLE", expandLinkExecutable(tc.LinkExecutable, "CXX"))
		g.set("CMAKE_C_LINK_EXECUTABLE", expandLinkExecutable(tc.LinkExecutable, "C"))
	}
	if tc.CreateArchive != "" {
		g.set("CMAKE_CXX_CREATE_STATIC_LIBRARY", expandCreateArchive(tc.CreateArchive))
		g.set("CMAKE_C_CREATE_STATIC_LIBRARY", expandCreateArchive(tc.CreateArchive))
	}
	if tc.CXXCompileFile != "" {
		g.set("CMAKE_CXX_COMPILE_OBJECT", expandCompileObject(tc.CXXCompileFile, "CXX"))
	}
	if tc.CCompileFile != "" {
		g.set("CMAKE_C_COMPILE_OBJECT", expandCompileObject(tc.CCompileFile, "C"))
	}
	g.nl()

	if tc.CompilerLauncher != "" {
		g.set("CMAKE_CXX_COMPILER_LAUNCHER:PATH", tc.CompilerLauncher)
		g.set("CMAKE_C_COMPILER_LAUNCHER:PATH", tc.CompilerLauncher)
	}
	g.nl()

	g.set("CMAKE_BUILD_TYPE", "MetaDDS")

	flags := strings.Join([]string{g.dbgFlags(), g.optFlags(), g.rtFlags()}, " ")
	g.set("CMAKE_CXX_FLAGS_METADDS", flags)
	g.set("CMAKE_C_FLAGS_METADDS", flags)
	g.set("CMAKE_EXE_LINKER_FLAGS_METADDS", "")
	g.set("CMAKE_SHARED_LINKER_FLAGS_METADDS", "")
	g.set("CMAKE_STATIC_LINKER_FLAGS_METADDS", "")
}

func joinFlags(generic, specific []string) string {
	return strings.Join(generic, " ") + " " + strings.Join(specific, " ")
}

// expandLinkExecutable rewrites the abstract link-executable template into
// CMake's native placeholder syntax for the given language.
func expandLinkExecutable(template, lang string) string {
	r := strings.NewReplacer(
		phCompiler, fmt.Sprintf("<CMAKE_%s_COMPILER>", lang),
		phIn, "<OBJECTS>",
		phOut, "<TARGET>",
		phFlags, fmt.Sprintf("<FLAGS> <CMAKE_%s_LINK_FLAGS> <LINK_FLAGS> <LINK_LIBRARIES>", lang),
	)
	return r.Replace(template)
}

var arWordRegex = regexp.MustCompile(`\b(ar)\b`)

func expandCreateArchive(template string) string {
	out := arWordRegex.ReplaceAllString(template, "<CMAKE_AR>")
	r := strings.NewReplacer(
		phIn, "<OBJECTS>",
		phOut, "<TARGET>",
		phFlags, "<LINK_FLAGS>",
	)
	return r.Replace(out)
}

func expandCompileObject(template, lang string) string {
	r := strings.NewReplacer(
		phCompiler, fmt.Sprintf("<CMAKE_%s_COMPILER>", lang),
		phIn, "<SOURCE>",
		phOut, "<OBJECT>",
		phFlags, "<DEFINES> <INCLUDES> <FLAGS>",
	)
	return r.Replace(template)
}

func (g *generator) dbgFlags() string {
	switch g.tc.Debug {
	case DebugSplit:
		if g.tc.IsMSVC() {
			return "/Zi /FS"
		}
		return "-gsplit-dwarf"
	case DebugOn, DebugEmbedded:
		if g.tc.IsMSVC() {
			return "/Z7"
		}
		return "-g"
	default:
		return ""
	}
}

func (g *generator) optFlags() string {
	if !g.tc.Optimize {
		return ""
	}
	if g.tc.IsMSVC() {
		return "/O2"
	}
	return "-O2"
}

// rtFlags resolves runtime library linkage. The defaults are asymmetric on
// purpose: MSVC defaults to a static runtime, and to the debug runtime
// whenever the toolchain itself is not explicitly non-debug.
func (g *generator) rtFlags() string {
	tc := g.tc
	if tc.Runtime == nil {
		return ""
	}

	isStatic := tc.IsMSVC()
	if tc.Runtime.Static != nil {
		isStatic = *tc.Runtime.Static
	}
	isDebug := tc.IsMSVC() && tc.Debug != DebugOff
	if tc.Runtime.Debug != nil {
		isDebug = *tc.Runtime.Debug
	}

	switch {
	case tc.IsMSVC():
		td := "D"
		if isStatic {
			td = "T"
		}
		d := ""
		if isDebug {
			d = "d"
		}
		return "/M" + td + d
	case tc.IsGNULike():
		static := ""
		if isStatic {
			static = "-static-libgcc -static-libstdc++"
		}
		debug := ""
		if isDebug {
			debug = "-D_GLIBCXX_DEBUG -D_LIBCPP_DEBUG=1"
		}
		return static + " " + debug
	default:
		return ""
	}
}
