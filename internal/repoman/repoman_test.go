package repoman

import (
	"archive/tar"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meta-dds/meta-dds/internal/dds"
)

func newTestRepo(t *testing.T) *Repoman {
	t.Helper()
	root := filepath.Join(t.TempDir(), "repo")
	require.NoError(t, Init(root, "test-repo", dds.IfExistsFail))
	r, err := Open(root)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestInitAndName(t *testing.T) {
	r := newTestRepo(t)
	name, err := r.Name()
	require.NoError(t, err)
	assert.Equal(t, "test-repo", name)
}

func TestInitIfExists(t *testing.T) {
	root := filepath.Join(t.TempDir(), "repo")
	require.NoError(t, Init(root, "first", dds.IfExistsFail))

	err := Init(root, "second", dds.IfExistsFail)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	require.NoError(t, Init(root, "second", dds.IfExistsSkip))
	r, err := Open(root)
	require.NoError(t, err)
	defer r.Close()
	name, err := r.Name()
	require.NoError(t, err)
	assert.Equal(t, "first", name)

	require.NoError(t, Init(root, "second", dds.IfExistsReplace))
	r2, err := Open(root)
	require.NoError(t, err)
	defer r2.Close()
	name, err = r2.Name()
	require.NoError(t, err)
	assert.Equal(t, "second", name)
}

func TestOpenUninitialized(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nothing-here"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not yet initialized")
}

func TestAddListRemove(t *testing.T) {
	r := newTestRepo(t)

	pkgs, err := r.List()
	require.NoError(t, err)
	assert.Empty(t, pkgs)

	require.NoError(t, r.Add("foo", "1.2.3", "", "dds:foo@1.2.3", ""))
	require.NoError(t, r.Add("bar", "0.1.0", "", "dds:bar@0.1.0", ""))

	pkgs, err = r.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"bar@0.1.0", "foo@1.2.3"}, pkgs)

	url, err := os.ReadFile(filepath.Join(r.PkgDir(), "foo", "1.2.3", "url.txt"))
	require.NoError(t, err)
	assert.Equal(t, "dds:foo@1.2.3", string(url))

	// Duplicate name@version violates the catalog's uniqueness.
	err = r.Add("foo", "1.2.3", "", "dds:foo@1.2.3", "")
	assert.Error(t, err)

	require.NoError(t, r.Remove("foo", "1.2.3"))
	pkgs, err = r.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"bar@0.1.0"}, pkgs)
	_, err = os.Stat(filepath.Join(r.PkgDir(), "foo", "1.2.3"))
	assert.True(t, os.IsNotExist(err))
}

func writeSdist(t *testing.T, entries map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pkg.tar.gz")
	out, err := os.Create(path)
	require.NoError(t, err)
	defer out.Close()

	gzw := gzip.NewWriter(out)
	tw := tar.NewWriter(gzw)
	for name, content := range entries {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Typeflag: tar.TypeReg,
			Mode:     0644,
			Size:     int64(len(content)),
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gzw.Close())
	return path
}

func TestImport(t *testing.T) {
	r := newTestRepo(t)
	sdist := writeSdist(t, map[string]string{
		"CMakeLists.txt": "project(demo VERSION 1.0.0 LANGUAGES CXX)\n",
		"src/demo.cpp":   "int main() {}\n",
	})

	require.NoError(t, r.Import(sdist))

	pkgs, err := r.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"demo@1.0.0"}, pkgs)

	_, err = os.Stat(filepath.Join(r.PkgDir(), "demo", "1.0.0", "sdist.tar.gz"))
	assert.NoError(t, err)
	url, err := os.ReadFile(filepath.Join(r.PkgDir(), "demo", "1.0.0", "url.txt"))
	require.NoError(t, err)
	assert.Equal(t, "dds:demo@1.0.0", string(url))
}

func TestImportRejectsEscapingEntries(t *testing.T) {
	r := newTestRepo(t)
	sdist := writeSdist(t, map[string]string{
		"CMakeLists.txt":   "project(evil VERSION 1.0.0)\n",
		"../../etc/passwd": "root::0:0::/:/bin/sh\n",
	})

	err := r.Import(sdist)
	var escaping *EscapingArchiveError
	require.ErrorAs(t, err, &escaping)
	assert.Equal(t, "../../etc/passwd", escaping.Entry)

	// Validation happens before extraction: nothing was written.
	pkgs, err := r.List()
	require.NoError(t, err)
	assert.Empty(t, pkgs)
	_, err = os.Stat(r.PkgDir())
	assert.True(t, os.IsNotExist(err))
}

func TestEntryEscapes(t *testing.T) {
	assert.True(t, entryEscapes("../../etc/passwd"))
	assert.True(t, entryEscapes("/etc/passwd"))
	assert.True(t, entryEscapes("src/../../../x"))
	assert.False(t, entryEscapes("CMakeLists.txt"))
	assert.False(t, entryEscapes("src/a.cpp"))
	assert.False(t, entryEscapes("src/../CMakeLists.txt"))
}

func TestParsePkgID(t *testing.T) {
	name, version, err := ParsePkgID("foo@1.2.3")
	require.NoError(t, err)
	assert.Equal(t, "foo", name)
	assert.Equal(t, "1.2.3", version)

	_, _, err = ParsePkgID("foo")
	assert.Error(t, err)
}

func TestGenerateRepoName(t *testing.T) {
	name := GenerateRepoName()
	assert.True(t, strings.HasPrefix(name, "meta-dds-repo-"))
	assert.Len(t, name, len("meta-dds-repo-")+12)
	assert.NotEqual(t, name, GenerateRepoName())
}
