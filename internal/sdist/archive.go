package sdist

import (
	"archive/tar"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v6/plumbing/format/gitignore"
	"github.com/klauspost/compress/gzip"

	"github.com/meta-dds/meta-dds/internal/dds"
	"github.com/meta-dds/meta-dds/internal/metapkg"
	"github.com/meta-dds/meta-dds/internal/msg"
)

// CreateArchive packages a project directory into a tar.gz source
// distribution, excluding .git and anything matched by the project's
// .gitignore.
func CreateArchive(project, output string, overrides metapkg.Overrides, ifExists dds.IfExists) error {
	pkg, err := metapkg.Load(project, overrides)
	if err != nil {
		return err
	}

	if output == "" {
		output = fmt.Sprintf("%s@%s.tar.gz", pkg.Info.ID.Name, pkg.Info.Version)
	}
	if _, err := os.Stat(output); err == nil {
		switch ifExists {
		case dds.IfExistsSkip:
			msg.Info("skipping existing archive: %s", output)
			return nil
		case dds.IfExistsReplace:
			// fall through and overwrite
		default:
			return fmt.Errorf("archive already exists: %s", output)
		}
	}

	matcher, err := loadGitignore(pkg.Root)
	if err != nil {
		return err
	}

	out, err := os.Create(output)
	if err != nil {
		return err
	}

	gzw := gzip.NewWriter(out)
	tw := tar.NewWriter(gzw)

	err = filepath.WalkDir(pkg.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(pkg.Root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		parts := strings.Split(filepath.ToSlash(rel), "/")
		if parts[0] == ".git" {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if matcher != nil && matcher.Match(parts, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		return addTarEntry(tw, path, filepath.ToSlash(rel), d)
	})
	if err != nil {
		out.Close()
		return err
	}

	if err := tw.Close(); err != nil {
		out.Close()
		return err
	}
	if err := gzw.Close(); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	msg.Info("created %s", output)
	return nil
}

func addTarEntry(tw *tar.Writer, path, name string, d fs.DirEntry) error {
	fileInfo, err := d.Info()
	if err != nil {
		return err
	}
	header, err := tar.FileInfoHeader(fileInfo, "")
	if err != nil {
		return err
	}
	header.Name = name

	if err := tw.WriteHeader(header); err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(tw, f)
	return err
}

// loadGitignore builds a matcher from the project's .gitignore, or nil
// when the project has none.
func loadGitignore(projectRoot string) (gitignore.Matcher, error) {
	data, err := os.ReadFile(filepath.Join(projectRoot, ".gitignore"))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var patterns []gitignore.Pattern
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, nil))
	}
	return gitignore.NewMatcher(patterns), nil
}
