package cmake

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFileAPI(t *testing.T) *FileAPI {
	t.Helper()
	return &FileAPI{CMake: &CMake{BuildDir: t.TempDir()}, Client: "test"}
}

func TestReplyIndexMissingDir(t *testing.T) {
	f := newTestFileAPI(t)
	_, err := f.replyIndexPath()
	assert.ErrorIs(t, err, ErrNoReplyIndex)
}

func TestReplyIndexEmptyDir(t *testing.T) {
	f := newTestFileAPI(t)
	require.NoError(t, os.MkdirAll(f.ReplyDir(), 0755))
	_, err := f.replyIndexPath()
	assert.ErrorIs(t, err, ErrNoReplyIndex)
}

func TestReplyIndexPicksNewest(t *testing.T) {
	f := newTestFileAPI(t)
	require.NoError(t, os.MkdirAll(f.ReplyDir(), 0755))
	for _, name := range []string{
		"index-2024-01-01T00-00-00-0000.json",
		"index-2024-06-01T00-00-00-0000.json",
		"codemodel-v2-abc.json",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(f.ReplyDir(), name), []byte("{}"), 0644))
	}

	got, err := f.replyIndexPath()
	require.NoError(t, err)
	assert.Equal(t, "index-2024-06-01T00-00-00-0000.json", filepath.Base(got))
}

const replyIndexFixture = `{
	"reply": {
		"client-test": {
			"codemodel-v2": {"jsonFile": "codemodel-v2-abc.json"},
			"cache-v2": {"jsonFile": "cache-v2-def.json"}
		}
	}
}`

const codemodelFixture = `{
	"configurations": [
		{
			"name": "",
			"targets": [{"id": "mylib::@1", "name": "mylib", "jsonFile": "target-mylib.json"}]
		}
	],
	"paths": {"source": "/work/proj", "build": "/work/proj/build"}
}`

func writeReplyFixtures(t *testing.T, f *FileAPI) {
	t.Helper()
	require.NoError(t, os.MkdirAll(f.ReplyDir(), 0755))
	files := map[string]string{
		"index-2024-06-01T00-00-00-0000.json": replyIndexFixture,
		"codemodel-v2-abc.json":               codemodelFixture,
		"cache-v2-def.json":                   `{"entries": []}`,
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(f.ReplyDir(), name), []byte(content), 0644))
	}
}

func TestCollect(t *testing.T) {
	f := newTestFileAPI(t)
	writeReplyFixtures(t, f)

	replies, err := f.collect([]Query{QueryCodemodelV2, QueryCacheV2})
	require.NoError(t, err)
	require.Len(t, replies, 2)
	assert.JSONEq(t, codemodelFixture, string(replies[0]))
	assert.JSONEq(t, `{"entries": []}`, string(replies[1]))
}

func TestCollectIsIdempotent(t *testing.T) {
	f := newTestFileAPI(t)
	writeReplyFixtures(t, f)

	first, err := f.collect([]Query{QueryCodemodelV2})
	require.NoError(t, err)
	second, err := f.collect([]Query{QueryCodemodelV2})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCollectUnknownClient(t *testing.T) {
	f := newTestFileAPI(t)
	writeReplyFixtures(t, f)
	f.Client = "someone-else"

	_, err := f.collect([]Query{QueryCodemodelV2})
	assert.ErrorIs(t, err, ErrNoReplyIndex)
}

func TestCollectMissingQueryKind(t *testing.T) {
	f := newTestFileAPI(t)
	writeReplyFixtures(t, f)

	_, err := f.collect([]Query{QueryToolchainsV1})
	var unavailable *QueryKindUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, QueryToolchainsV1, unavailable.Kind)
}

func TestQueryAndReplyDirs(t *testing.T) {
	f := &FileAPI{CMake: &CMake{BuildDir: "/b"}, Client: "meta-dds"}
	assert.Equal(t, filepath.Join("/b", ".cmake", "api", "v1", "query", "client-meta-dds"), f.QueryDir())
	assert.Equal(t, filepath.Join("/b", ".cmake", "api", "v1", "reply"), f.ReplyDir())
}
