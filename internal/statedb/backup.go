package statedb

import (
	"fmt"
	"io"
	"os"
)

// BackupSuffix is appended to the database path to name its backup.
const BackupSuffix = ".backup"

// Backup copies the database file next to itself, replacing any previous
// backup, and returns the backup path.
func Backup(path string) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s for backup: %w", path, err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}

	backupPath := path + BackupSuffix
	tmpPath := backupPath + ".tmp"

	dst, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return "", fmt.Errorf("creating backup: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("writing backup: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("writing backup: %w", err)
	}

	if err := os.Rename(tmpPath, backupPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("finalizing backup: %w", err)
	}
	return backupPath, nil
}
