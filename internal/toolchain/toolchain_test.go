package toolchain

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDescriptor(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFileJSON5(t *testing.T) {
	path := writeDescriptor(t, "toolchain.json5", `{
		compiler_id: "gnu",
		cxx_version: "c++17",
		// single strings coerce to one-element lists
		flags: "-fno-exceptions",
		link_executable: ["g++", "[flags]", "[in]", "-o", "[out]"],
		debug: "split",
		runtime: { static: true },
	}`)

	tc, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "gnu", tc.CompilerID)
	assert.Equal(t, "c++17", tc.CXXVersion)
	assert.Equal(t, []string{"-fno-exceptions"}, tc.Flags)
	assert.Equal(t, "g++ [flags] [in] -o [out]", tc.LinkExecutable)
	assert.Equal(t, DebugSplit, tc.Debug)
	require.NotNil(t, tc.Runtime)
	require.NotNil(t, tc.Runtime.Static)
	assert.True(t, *tc.Runtime.Static)
	assert.Nil(t, tc.Runtime.Debug)
}

func TestLoadFileTOML(t *testing.T) {
	path := writeDescriptor(t, "toolchain.toml", `
compiler_id = "clang"
cxx_flags = ["-stdlib=libc++"]
optimize = true
debug = false
`)

	tc, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "clang", tc.CompilerID)
	assert.Equal(t, []string{"-stdlib=libc++"}, tc.CXXFlags)
	assert.True(t, tc.Optimize)
	assert.Equal(t, DebugOff, tc.Debug)
}

func TestLoadFileFieldErrors(t *testing.T) {
	path := writeDescriptor(t, "toolchain.json5", `{ compiler_id: 5 }`)
	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compiler_id")
	assert.Contains(t, err.Error(), "must be a string")

	path = writeDescriptor(t, "toolchain.json5", `{ compiler_id: "gnu", debug: "sideways" }`)
	_, err = LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "debug")

	path = writeDescriptor(t, "toolchain.json5", `{ compiler_id: "gnu", runtime: "static" }`)
	_, err = LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "runtime")
}

func TestLoadFileMissingCompilerID(t *testing.T) {
	path := writeDescriptor(t, "toolchain.json5", `{ cxx_version: "c++17" }`)
	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compiler_id")
}

func TestLoadFileExpressions(t *testing.T) {
	t.Setenv("METADDS_TEST_CXX", "g++-12")
	path := writeDescriptor(t, "toolchain.json5", `{
		compiler_id: "gnu",
		cxx_compiler: '{{ environ["METADDS_TEST_CXX"] }}',
	}`)

	tc, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "g++-12", tc.CXXCompiler)
}

func TestLoadRoutesBuiltins(t *testing.T) {
	tc, err := Load(":gcc")
	require.NoError(t, err)
	assert.Equal(t, "gnu", tc.CompilerID)
}

func TestLoadFileNotFound(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.json5"))
	assert.Error(t, err)
}
