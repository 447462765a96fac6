package sdist

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// copyTree copies the contents of src into dst, merging with whatever is
// already there. File copies run on a bounded worker pool.
func copyTree(src, dst string) error {
	var files [][2]string
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		files = append(files, [2]string{path, target})
		return nil
	})
	if err != nil {
		return err
	}

	eg := &errgroup.Group{}
	eg.SetLimit(runtime.NumCPU())
	for _, pair := range files {
		eg.Go(func() error {
			return copyFile(pair[0], pair[1])
		})
	}
	return eg.Wait()
}

// copySources copies the given project-relative source paths from the
// project root into dstDir, preserving their relative layout.
func copySources(projectRoot, dstDir string, sources []string) error {
	eg := &errgroup.Group{}
	eg.SetLimit(runtime.NumCPU())
	for _, src := range sources {
		rel := filepath.FromSlash(src)
		from := filepath.Join(projectRoot, rel)
		to := filepath.Join(dstDir, rel)
		eg.Go(func() error {
			if err := os.MkdirAll(filepath.Dir(to), 0755); err != nil {
				return err
			}
			return copyFile(from, to)
		})
	}
	return eg.Wait()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
