package toolchain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBuiltinGCC(t *testing.T) {
	tc, err := ParseBuiltin(":gcc")
	require.NoError(t, err)
	assert.Equal(t, "gnu", tc.CompilerID)
	assert.Equal(t, "gcc", tc.CCompiler)
	assert.Equal(t, "g++", tc.CXXCompiler)
	assert.Equal(t, DebugOff, tc.Debug)
}

func TestParseBuiltinClang(t *testing.T) {
	tc, err := ParseBuiltin(":clang")
	require.NoError(t, err)
	assert.Equal(t, "clang", tc.CompilerID)
	assert.Equal(t, "clang", tc.CCompiler)
	assert.Equal(t, "clang++", tc.CXXCompiler)
}

func TestParseBuiltinMSVC(t *testing.T) {
	tc, err := ParseBuiltin(":msvc")
	require.NoError(t, err)
	assert.Equal(t, "msvc", tc.CompilerID)
	assert.Equal(t, "cl.exe", tc.CCompiler)
	assert.Equal(t, "cl.exe", tc.CXXCompiler)
}

func TestParseBuiltinVersionedCompiler(t *testing.T) {
	tc, err := ParseBuiltin(":gcc-10")
	require.NoError(t, err)
	assert.Equal(t, "gcc-10", tc.CCompiler)
	assert.Equal(t, "g++-10", tc.CXXCompiler)

	tc, err = ParseBuiltin(":clang-13")
	require.NoError(t, err)
	assert.Equal(t, "clang-13", tc.CCompiler)
	assert.Equal(t, "clang++-13", tc.CXXCompiler)
}

func TestParseBuiltinPrefixes(t *testing.T) {
	tc, err := ParseBuiltin(":debug:clang")
	require.NoError(t, err)
	assert.Equal(t, DebugOn, tc.Debug)

	tc, err = ParseBuiltin(":ccache:c++17:gcc-10")
	require.NoError(t, err)
	assert.Equal(t, "ccache", tc.CompilerLauncher)
	assert.Equal(t, "c++17", tc.CXXVersion)
	assert.Equal(t, "g++-10", tc.CXXCompiler)
	assert.Equal(t, DebugOff, tc.Debug)

	tc, err = ParseBuiltin(":debug:ccache:c++20:clang")
	require.NoError(t, err)
	assert.Equal(t, DebugOn, tc.Debug)
	assert.Equal(t, "ccache", tc.CompilerLauncher)
	assert.Equal(t, "c++20", tc.CXXVersion)
	assert.Equal(t, "clang", tc.CompilerID)
}

func TestParseBuiltinErrors(t *testing.T) {
	_, err := ParseBuiltin("gcc")
	assert.Error(t, err)

	_, err = ParseBuiltin(":borland")
	assert.Error(t, err)

	_, err = ParseBuiltin(":gcc-ten")
	assert.Error(t, err)

	_, err = ParseBuiltin(":gccfoo")
	assert.Error(t, err)
}
