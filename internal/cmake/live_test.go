package cmake

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePropertyList(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, parsePropertyList("a;b;c"))
	assert.Equal(t, []string{"one"}, parsePropertyList("one\n"))
	// Interior empty entries are dropped.
	assert.Equal(t, []string{"a", "b"}, parsePropertyList("a;;b;"))

	// Unset properties dump as empty or as a -NOTFOUND value.
	assert.Nil(t, parsePropertyList(""))
	assert.Nil(t, parsePropertyList("   \n"))
	assert.Nil(t, parsePropertyList("prop-NOTFOUND"))
	assert.Nil(t, parsePropertyList("INTERFACE_LINK_LIBRARIES-NOTFOUND"))
}

func TestCleanIncludeDirs(t *testing.T) {
	got := cleanIncludeDirs([]string{
		"$<BUILD_INTERFACE:/work/proj/include>",
		"/usr/include/dep",
		"$<INSTALL_INTERFACE:include>",
		"$<$<CONFIG:Debug>:/debug/only>",
		"",
	})
	assert.Equal(t, []string{"/work/proj/include", "/usr/include/dep"}, got)
}

func TestLiveQueryCMakeLists(t *testing.T) {
	script := liveQueryCMakeLists("/work/proj", "Qt5::Widgets")

	assert.True(t, strings.HasPrefix(script, "cmake_minimum_required(VERSION 3.15)\n"))
	assert.Contains(t, script, "project(meta_dds_live_query C CXX)")
	assert.Contains(t, script, `add_subdirectory("/work/proj" real_project)`)
	for _, prop := range liveQueryProperties {
		assert.Contains(t, script,
			`file(GENERATE OUTPUT "props/`+prop+`.txt" CONTENT "$<TARGET_PROPERTY:Qt5::Widgets,`+prop+`>")`)
	}
}
