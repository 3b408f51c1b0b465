package migrate

import (
	"database/sql"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

// Apply executes all .sql files in dir of fsys in lexicographic order. Every
// migration must be idempotent; there is no version table.
func Apply(db *sql.DB, fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasSuffix(name, ".sql") {
			files = append(files, path.Join(dir, name))
		}
	}

	sort.Strings(files)

	for _, file := range files {
		content, err := fs.ReadFile(fsys, file)
		if err != nil {
			return err
		}

		if strings.TrimSpace(string(content)) == "" {
			continue
		}

		if err := execSQL(db, file, content); err != nil {
			return err
		}
	}

	return nil
}

func execSQL(db *sql.DB, file string, content []byte) error {
	_, err := db.Exec(string(content))
	if err != nil {
		return fmt.Errorf("apply migration %s: %w", path.Base(file), err)
	}
	return nil
}
