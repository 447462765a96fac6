package repoman

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/meta-dds/meta-dds/internal/metapkg"
	"github.com/meta-dds/meta-dds/internal/msg"
)

// EscapingArchiveError reports an archive entry whose name would place
// it outside the extraction directory.
type EscapingArchiveError struct {
	Archive string
	Entry   string
}

func (e *EscapingArchiveError) Error() string {
	return fmt.Sprintf("refusing to extract %s: entry %q escapes the extraction directory", e.Archive, e.Entry)
}

// Import extracts an sdist archive, reads its package metadata, and adds
// it to the repository. The archive is fully validated before anything
// is written to disk.
func (r *Repoman) Import(sdistFile string) error {
	if err := validateArchive(sdistFile); err != nil {
		return err
	}

	tmp, err := os.MkdirTemp("", "meta-dds-import-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmp)

	if err := extractArchive(sdistFile, tmp); err != nil {
		return err
	}

	pkg, err := metapkg.Load(tmp, metapkg.Overrides{})
	if err != nil {
		return fmt.Errorf("failed to load package metadata from %s: %w", sdistFile, err)
	}

	name := pkg.Info.ID.Name
	version := pkg.Info.Version
	err = r.Add(name, version, "", fmt.Sprintf("dds:%s@%s", name, version), sdistFile)
	if err != nil {
		return err
	}
	msg.Info("imported %s@%s from %s", name, version, sdistFile)
	return nil
}

func entryEscapes(name string) bool {
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return true
	}
	clean := filepath.Clean(filepath.FromSlash(name))
	return clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator))
}

// validateArchive walks every entry name before extraction so a bad
// archive leaves no files behind.
func validateArchive(sdistFile string) error {
	return walkArchive(sdistFile, func(hdr *tar.Header, _ *tar.Reader) error {
		if entryEscapes(hdr.Name) {
			return &EscapingArchiveError{Archive: sdistFile, Entry: hdr.Name}
		}
		return nil
	})
}

func extractArchive(sdistFile, dest string) error {
	return walkArchive(sdistFile, func(hdr *tar.Header, tr *tar.Reader) error {
		target := filepath.Join(dest, filepath.FromSlash(hdr.Name))
		switch hdr.Typeflag {
		case tar.TypeDir:
			return os.MkdirAll(target, 0755)
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, os.FileMode(hdr.Mode)&0777)
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return err
			}
			return out.Close()
		default:
			// Symlinks and devices have no business in an sdist.
			return nil
		}
	})
}

func walkArchive(sdistFile string, fn func(*tar.Header, *tar.Reader) error) error {
	f, err := os.Open(sdistFile)
	if err != nil {
		return err
	}
	defer f.Close()

	gzr, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", sdistFile, err)
	}
	defer gzr.Close()

	tr := tar.NewReader(gzr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(hdr, tr); err != nil {
			return err
		}
	}
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
