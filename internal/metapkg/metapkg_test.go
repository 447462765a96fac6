package metapkg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLib(t *testing.T) {
	lib, err := ParseLib("spdlog", "spdlog::spdlog")
	require.NoError(t, err)
	assert.Equal(t, "spdlog/spdlog", lib.DDSName)
	assert.Equal(t, "spdlog::spdlog", lib.CMakeName)

	// Bare names are shorthand for a library of the same package.
	lib, err = ParseLib("fmt", "fmt")
	require.NoError(t, err)
	assert.Equal(t, "fmt/fmt", lib.DDSName)
	assert.Equal(t, "fmt", lib.CMakeName)

	// The dds-side name is lowercased; the CMake name is preserved.
	lib, err = ParseLib("qt5", "Qt5::Widgets")
	require.NoError(t, err)
	assert.Equal(t, "qt5/widgets", lib.DDSName)
	assert.Equal(t, "Qt5::Widgets", lib.CMakeName)
}

func TestParseLibErrors(t *testing.T) {
	var bad *BadCMakeLibSpecifier

	_, err := ParseLib("fmt", "Boost::headers")
	require.ErrorAs(t, err, &bad)
	assert.Contains(t, err.Error(), "must match")

	_, err = ParseLib("fmt", "a::b::c")
	require.ErrorAs(t, err, &bad)
	assert.Contains(t, err.Error(), "only one")
}

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

func TestLoadInfersFromBuildScript(t *testing.T) {
	root := writeProject(t, map[string]string{
		"CMakeLists.txt": "cmake_minimum_required(VERSION 3.15)\n" +
			"project(MyLib VERSION 1.2.3 LANGUAGES CXX)\n",
	})

	pkg, err := Load(root, Overrides{})
	require.NoError(t, err)
	assert.Equal(t, BuildScriptInferred, pkg.Kind)
	assert.Equal(t, "mylib", pkg.Info.ID.Name)
	assert.Equal(t, "mylib", pkg.Info.ID.Namespace)
	assert.Equal(t, "1.2.3", pkg.Info.Version)
	assert.Nil(t, pkg.Manifest)
	assert.Empty(t, pkg.Libs())
}

func TestLoadInferenceDefaultsVersion(t *testing.T) {
	root := writeProject(t, map[string]string{
		"CMakeLists.txt": "project(Widgets LANGUAGES CXX)\n",
	})

	pkg, err := Load(root, Overrides{})
	require.NoError(t, err)
	assert.Equal(t, "widgets", pkg.Info.ID.Name)
	assert.Equal(t, "0.0.0", pkg.Info.Version)
}

func TestLoadInferenceMultilineProject(t *testing.T) {
	root := writeProject(t, map[string]string{
		"CMakeLists.txt": "project(zstd\n  VERSION 1.5.5\n  LANGUAGES C)\n",
	})

	pkg, err := Load(root, Overrides{})
	require.NoError(t, err)
	assert.Equal(t, "zstd", pkg.Info.ID.Name)
	assert.Equal(t, "1.5.5", pkg.Info.Version)
}

func TestLoadManifestWinsOverBuildScript(t *testing.T) {
	root := writeProject(t, map[string]string{
		"CMakeLists.txt": "project(NotThis VERSION 9.9.9)\n",
		ManifestFilename: `{
			name: "mylib",
			namespace: "acme",
			version: "2.0.0",
			libs: ["mylib::mylib"],
			meta_dds: {
				depends: [
					"freetype@2.11.0: freetype::freetype",
					{
						name: "zlib@1.2.11",
						pkg_name: "ZLIB",
						libs: ["ZLIB::ZLIB"],
					},
				],
			},
		}`,
	})

	pkg, err := Load(root, Overrides{})
	require.NoError(t, err)
	assert.Equal(t, ManifestSourced, pkg.Kind)
	assert.Equal(t, "mylib", pkg.Info.ID.Name)
	assert.Equal(t, "acme", pkg.Info.ID.Namespace)
	assert.Equal(t, "2.0.0", pkg.Info.Version)

	require.Len(t, pkg.Libs(), 1)
	assert.Equal(t, "mylib/mylib", pkg.Libs()[0].DDSName)

	deps := pkg.Manifest.MetaDDS.Depends
	require.Len(t, deps, 2)
	assert.Equal(t, "freetype", deps[0].Name)
	assert.Equal(t, "2.11.0", deps[0].Version)
	require.Len(t, deps[0].Libs, 1)
	assert.Equal(t, "freetype/freetype", deps[0].Libs[0].DDSName)
	assert.Equal(t, "zlib", deps[1].Name)
	assert.Equal(t, "ZLIB", deps[1].PkgName)
	require.Len(t, deps[1].Libs, 1)
	assert.Equal(t, "ZLIB::ZLIB", deps[1].Libs[0].CMakeName)
}

func TestLoadRejectsBadDependencies(t *testing.T) {
	root := writeProject(t, map[string]string{
		ManifestFilename: `{
			name: "mylib",
			version: "1.0.0",
			meta_dds: { depends: ["no-version: foo"] },
		}`,
	})
	_, err := Load(root, Overrides{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "@version")

	root = writeProject(t, map[string]string{
		ManifestFilename: `{
			name: "mylib",
			version: "1.0.0",
			meta_dds: { depends: ["FreeType@2.11.0: freetype"] },
		}`,
	})
	_, err = Load(root, Overrides{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lowercase")
}

func TestLoadOverrides(t *testing.T) {
	root := writeProject(t, map[string]string{
		"CMakeLists.txt": "project(orig VERSION 1.0.0)\n",
	})

	pkg, err := Load(root, Overrides{Name: "renamed", Version: "3.1.4"})
	require.NoError(t, err)
	assert.Equal(t, "renamed", pkg.Info.ID.Name)
	assert.Equal(t, "renamed", pkg.Info.ID.Namespace)
	assert.Equal(t, "3.1.4", pkg.Info.Version)

	pkg, err = Load(root, Overrides{Namespace: "acme"})
	require.NoError(t, err)
	assert.Equal(t, "orig", pkg.Info.ID.Name)
	assert.Equal(t, "acme", pkg.Info.ID.Namespace)
}

func TestLoadNeitherSource(t *testing.T) {
	_, err := Load(t.TempDir(), Overrides{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "neither")
}
