// Package scratch manages the throwaway directories used while forging
// sdists and running live target queries.
package scratch

import "os"

// Dir returns a scratch directory and a cleanup function.
//
// With pinned == "", a fresh temporary directory is created and cleanup
// removes it. With a pinned path, any existing contents are destructively
// removed, the directory is recreated, and cleanup is a no-op so the caller
// can inspect intermediate state afterwards.
func Dir(pinned string) (string, func(), error) {
	if pinned != "" {
		if err := os.RemoveAll(pinned); err != nil {
			return "", nil, err
		}
		if err := os.MkdirAll(pinned, 0755); err != nil {
			return "", nil, err
		}
		return pinned, func() {}, nil
	}

	dir, err := os.MkdirTemp("", "meta-dds-")
	if err != nil {
		return "", nil, err
	}
	return dir, func() { os.RemoveAll(dir) }, nil
}
