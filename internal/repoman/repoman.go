// Package repoman manages a meta-dds package repository directory: a
// SQLite catalog plus the imported sdist archives.
package repoman

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/meta-dds/meta-dds/internal/dds"
	"github.com/meta-dds/meta-dds/internal/msg"
)

const dbFilename = "meta-repo.db"

// Table schemas copied from DDS proper.
const schema = `
CREATE TABLE IF NOT EXISTS meta_dds_repo_packages (
    package_id INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    version TEXT NOT NULL,
    description TEXT NOT NULL,
    url TEXT NOT NULL,
    UNIQUE (name, version)
);

CREATE TABLE IF NOT EXISTS meta_dds_repo_package_deps (
    dep_id INTEGER PRIMARY KEY,
    package_id INTEGER NOT NULL
        REFERENCES meta_dds_repo_packages
        ON DELETE CASCADE,
    dep_name TEXT NOT NULL,
    low TEXT NOT NULL,
    high TEXT NOT NULL,
    UNIQUE(package_id, dep_name)
);

CREATE TABLE IF NOT EXISTS meta_dds_repo_package_meta_deps (
    dep_id INTEGER PRIMARY KEY,
    package_id INTEGER NOT NULL
        REFERENCES meta_dds_repo_packages
        ON DELETE CASCADE,
    dep_name TEXT NOT NULL,
    low TEXT NOT NULL,
    high TEXT NOT NULL,
    UNIQUE(package_id, dep_name)
);

CREATE TABLE IF NOT EXISTS meta_dds_repo_meta (
    meta_version INTEGER DEFAULT 1,
    version INTEGER NOT NULL,
    name TEXT NOT NULL
);
`

// Repoman operates on one repository directory.
type Repoman struct {
	Root string
	db   *sql.DB
}

// Open opens an existing repository directory.
func Open(root string) (*Repoman, error) {
	stat, err := os.Stat(root)
	if err != nil || !stat.IsDir() {
		return nil, fmt.Errorf("repository is not yet initialized: %s", root)
	}
	db, err := sql.Open("sqlite", filepath.Join(root, dbFilename))
	if err != nil {
		return nil, err
	}
	return &Repoman{Root: root, db: db}, nil
}

func (r *Repoman) Close() error {
	return r.db.Close()
}

// PkgDir is where imported sdist archives are stored.
func (r *Repoman) PkgDir() string {
	return filepath.Join(r.Root, "meta-pkg")
}

// Init initializes a directory as a new repository.
func Init(root, name string, ifExists dds.IfExists) error {
	if _, err := os.Stat(root); err == nil {
		switch ifExists {
		case dds.IfExistsReplace:
			msg.Info("replacing existing repo directory: %s", root)
			if err := os.RemoveAll(root); err != nil {
				return err
			}
		case dds.IfExistsSkip:
			msg.Info("skipping existing repo directory: %s", root)
			return nil
		default:
			return fmt.Errorf("repo directory already exists: %s", root)
		}
	}

	if err := os.MkdirAll(root, 0755); err != nil {
		return err
	}
	if name == "" {
		name = GenerateRepoName()
	}

	r, err := Open(root)
	if err != nil {
		return err
	}
	defer r.Close()

	if _, err := r.db.Exec(schema); err != nil {
		return err
	}
	_, err = r.db.Exec(`INSERT INTO meta_dds_repo_meta (version, name) VALUES (0, ?);`, name)
	return err
}

// Name reports the repository's name from its meta table.
func (r *Repoman) Name() (string, error) {
	var name string
	err := r.db.QueryRow(`SELECT name FROM meta_dds_repo_meta`).Scan(&name)
	return name, err
}

// List returns the repository contents as "name@version" identifiers.
func (r *Repoman) List() ([]string, error) {
	rows, err := r.db.Query(`SELECT name, version FROM meta_dds_repo_packages ORDER BY name, version`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name, version string
		if err := rows.Scan(&name, &version); err != nil {
			return nil, err
		}
		out = append(out, name+"@"+version)
	}
	return out, rows.Err()
}

// Add records a package listing and stores its files under
// meta-pkg/<name>/<version>/.
func (r *Repoman) Add(name, version, description, url string, sdistFile string) error {
	_, err := r.db.Exec(`
        INSERT INTO meta_dds_repo_packages (name, version, description, url)
            VALUES (?, ?, ?, ?);`,
		name, version, description, url)
	if err != nil {
		return fmt.Errorf("failed to add %s@%s: %w", name, version, err)
	}

	destDir := filepath.Join(r.PkgDir(), name, version)
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(destDir, "url.txt"), []byte(url), 0644); err != nil {
		return err
	}

	if sdistFile != "" {
		return copyFile(sdistFile, filepath.Join(destDir, "sdist.tar.gz"))
	}
	return nil
}

// Remove deletes a package listing and its stored files.
func (r *Repoman) Remove(name, version string) error {
	_, err := r.db.Exec(`
        DELETE FROM meta_dds_repo_packages
            WHERE name = (?)
              AND version = (?);`,
		name, version)
	if err != nil {
		return err
	}
	return os.RemoveAll(filepath.Join(r.PkgDir(), name, version))
}

// ParsePkgID splits a "name@version" identifier.
func ParsePkgID(pkgID string) (name, version string, err error) {
	name, version, ok := strings.Cut(pkgID, "@")
	if !ok {
		return "", "", fmt.Errorf("bad package identifier (want `name@version'): %q", pkgID)
	}
	return name, version, nil
}

// GenerateRepoName produces a random default repository name.
func GenerateRepoName() string {
	hexDigits := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "meta-dds-repo-" + hexDigits[:12]
}
