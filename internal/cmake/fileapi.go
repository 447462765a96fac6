package cmake

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/meta-dds/meta-dds/internal/msg"
)

// Query is a file API query kind. Each kind maps to a marker file name
// inside the client's query directory.
type Query string

const (
	QueryCodemodelV2  Query = "codemodel-v2"
	QueryCacheV2      Query = "cache-v2"
	QueryCMakeFilesV1 Query = "cmakeFiles-v1"
	QueryToolchainsV1 Query = "toolchains-v1"
)

// minFileAPIVersion is the first CMake release shipping the v1 file API
// with codemodel-v2.
const minFileAPIVersion = "v3.15.0"

// ErrNoReplyIndex is returned when a configure run produced no file API
// reply index: either the installed cmake does not support the query API,
// or the configure silently failed.
var ErrNoReplyIndex = errors.New("cmake produced no file API reply index; " +
	"the installed cmake may not support the query API")

// QueryKindUnavailableError is returned when cmake declined to answer a
// requested query kind. This usually means a version mismatch between
// meta-dds and the installed cmake.
type QueryKindUnavailableError struct {
	Kind Query
}

func (e *QueryKindUnavailableError) Error() string {
	return fmt.Sprintf("cmake did not produce a reply for query kind %q; "+
		"consider upgrading cmake", string(e.Kind))
}

// FileAPI is a query client session scoped to one CMake invocation and one
// client identifier. Marker files persist for the lifetime of the build
// directory; the reply index is re-resolved on every query.
type FileAPI struct {
	CMake  *CMake
	Client string
}

func (f *FileAPI) clientID() string {
	return "client-" + f.Client
}

func (f *FileAPI) apiDir() string {
	return filepath.Join(f.CMake.BuildDir, ".cmake", "api", "v1")
}

// QueryDir is where this client's query marker files are written.
func (f *FileAPI) QueryDir() string {
	return filepath.Join(f.apiDir(), "query", f.clientID())
}

// ReplyDir is where cmake deposits reply JSON documents after configuring.
func (f *FileAPI) ReplyDir() string {
	return filepath.Join(f.apiDir(), "reply")
}

// Query satisfies the given query kinds: write marker files, trigger a
// quiet configure, then parse the newest reply index and the documents it
// references. Results are returned in request order.
func (f *FileAPI) Query(queries ...Query) ([]json.RawMessage, error) {
	version, err := f.CMake.Version()
	if err != nil {
		return nil, err
	}
	if semver.Compare(version, minFileAPIVersion) < 0 {
		return nil, fmt.Errorf("cmake %s is too old for the file API (need %s or newer): %w",
			version, minFileAPIVersion, ErrNoReplyIndex)
	}

	if err := os.MkdirAll(f.QueryDir(), 0755); err != nil {
		return nil, err
	}
	for _, q := range queries {
		// Empty marker file; re-touching is harmless.
		marker, err := os.OpenFile(filepath.Join(f.QueryDir(), string(q)), os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, err
		}
		marker.Close()
	}

	msg.Debug("querying cmake with %s", joinQueries(queries))
	if err := f.CMake.Configure(nil, true, ""); err != nil {
		return nil, err
	}

	return f.collect(queries)
}

// collect resolves the authoritative reply index and reads the reply
// document for each requested query kind.
func (f *FileAPI) collect(queries []Query) ([]json.RawMessage, error) {
	indexPath, err := f.replyIndexPath()
	if err != nil {
		return nil, err
	}

	indexData, err := os.ReadFile(indexPath)
	if err != nil {
		return nil, err
	}

	var index struct {
		Reply map[string]map[string]struct {
			JSONFile string `json:"jsonFile"`
		} `json:"reply"`
	}
	if err := json.Unmarshal(indexData, &index); err != nil {
		return nil, fmt.Errorf("failed to parse reply index %s: %w", indexPath, err)
	}

	clientReplies, ok := index.Reply[f.clientID()]
	if !ok {
		return nil, fmt.Errorf("reply index has no entries for %s: %w", f.clientID(), ErrNoReplyIndex)
	}

	results := make([]json.RawMessage, 0, len(queries))
	for _, q := range queries {
		entry, ok := clientReplies[string(q)]
		if !ok || entry.JSONFile == "" {
			return nil, &QueryKindUnavailableError{Kind: q}
		}
		data, err := os.ReadFile(filepath.Join(f.ReplyDir(), entry.JSONFile))
		if err != nil {
			return nil, err
		}
		results = append(results, json.RawMessage(data))
	}
	return results, nil
}

// replyIndexPath returns the lexicographically-last index file in the
// reply directory. CMake retains historical indices; only the most recent
// reflects the configure just performed.
func (f *FileAPI) replyIndexPath() (string, error) {
	entries, err := os.ReadDir(f.ReplyDir())
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNoReplyIndex
		}
		return "", err
	}

	var indices []string
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() && strings.HasPrefix(name, "index-") && filepath.Ext(name) == ".json" {
			indices = append(indices, name)
		}
	}
	if len(indices) == 0 {
		return "", ErrNoReplyIndex
	}
	sort.Strings(indices)

	last := filepath.Join(f.ReplyDir(), indices[len(indices)-1])
	msg.Debug("found reply index at %s", last)
	return last, nil
}

// Codemodel queries and decodes the project object model.
func (f *FileAPI) Codemodel() (*Codemodel, error) {
	replies, err := f.Query(QueryCodemodelV2)
	if err != nil {
		return nil, err
	}

	var cm Codemodel
	if err := json.Unmarshal(replies[0], &cm); err != nil {
		return nil, fmt.Errorf("failed to parse codemodel reply: %w", err)
	}
	return &cm, nil
}

func joinQueries(queries []Query) string {
	parts := make([]string, len(queries))
	for i, q := range queries {
		parts[i] = "`" + string(q) + "'"
	}
	return strings.Join(parts, ", ")
}
