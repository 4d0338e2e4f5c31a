// Package envfile patches KEY=value lines in dotenv files.
package envfile

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// BackupLayout is the timestamp format appended to backup file names.
const BackupLayout = "20060102150405"

// Update sets key=value in the file at path. The first line starting with
// "key=" is replaced; otherwise the assignment is appended. When the file
// already exists a timestamped copy is written next to it first and its
// path returned. A missing file is created without a backup.
func Update(path, key, value string) (string, error) {
	return update(path, key, value, time.Now())
}

func update(path, key, value string, now time.Time) (string, error) {
	if key == "" {
		return "", fmt.Errorf("env key must not be empty")
	}

	info, err := os.Stat(path)
	if err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to stat %s: %w", path, err)
	}

	var content []byte
	var backupPath string
	mode := os.FileMode(0644)
	if err == nil {
		mode = info.Mode().Perm()
		content, err = os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", path, err)
		}

		backupPath = BackupPath(path, now)
		if err := os.WriteFile(backupPath, content, mode); err != nil {
			return "", fmt.Errorf("failed to write backup %s: %w", backupPath, err)
		}
	}

	patched := Patch(string(content), key, value)
	if err := os.WriteFile(path, []byte(patched), mode); err != nil {
		return backupPath, fmt.Errorf("failed to write %s: %w", path, err)
	}

	return backupPath, nil
}

// BackupPath returns the backup file name for path at the given time,
// e.g. ".env" -> ".env.20250101120000.bak".
func BackupPath(path string, now time.Time) string {
	dir, name := filepath.Split(path)
	return filepath.Join(dir, fmt.Sprintf("%s.%s.bak", name, now.Format(BackupLayout)))
}

// Patch returns content with the first "key=" line replaced by key=value,
// or with the assignment appended when no such line exists. Matching is
// case-sensitive and anchored at the start of the line. CRLF line endings
// are kept.
func Patch(content, key, value string) string {
	line := key + "=" + value
	re := regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(key) + `=[^\r\n]*`)

	if loc := re.FindStringIndex(content); loc != nil {
		return content[:loc[0]] + line + content[loc[1]:]
	}

	eol := "\n"
	if strings.Contains(content, "\r\n") {
		eol = "\r\n"
	}
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += eol
	}
	return content + line + eol
}
