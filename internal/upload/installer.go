// Package upload installs replacement data files: password gate, a
// timestamped backup of the file being replaced, then an atomic rename so
// page loads never observe a half-written file.
package upload

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Errors the handlers translate into user-facing responses.
var (
	ErrDisabled    = errors.New("uploads are disabled: no upload password is configured")
	ErrBadPassword = errors.New("wrong upload password")
)

// backupDirName lives under the data directory, next to the files it
// backs up.
const backupDirName = "backups"

// Result describes one completed install.
type Result struct {
	FileName   string
	SizeBytes  int64
	BackupPath string
}

// Installer writes uploaded data files into the data directory.
type Installer struct {
	dataDir  string
	password string
	keep     int
	logger   *slog.Logger

	now func() time.Time
}

// NewInstaller creates an Installer. An empty password disables installs;
// keep is how many backups per file to retain (minimum 1).
func NewInstaller(dataDir, password string, keep int, logger *slog.Logger) *Installer {
	if keep < 1 {
		keep = 1
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Installer{
		dataDir:  dataDir,
		password: password,
		keep:     keep,
		logger:   logger,
		now:      time.Now,
	}
}

// Install checks the password, backs up any existing file of the same
// name, and atomically replaces it with the uploaded content.
func (in *Installer) Install(fileName string, r io.Reader, password string) (*Result, error) {
	if in.password == "" {
		return nil, ErrDisabled
	}
	if password != in.password {
		return nil, ErrBadPassword
	}
	name, err := cleanName(fileName)
	if err != nil {
		return nil, err
	}

	target := filepath.Join(in.dataDir, name)
	if err := os.MkdirAll(in.dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	res := &Result{FileName: name}
	if _, err := os.Stat(target); err == nil {
		backup, err := in.backup(name, target)
		if err != nil {
			return nil, err
		}
		res.BackupPath = backup
	}

	// Stage next to the target so the final rename stays on one
	// filesystem.
	tmp, err := os.CreateTemp(in.dataDir, "."+name+".upload-*")
	if err != nil {
		return nil, fmt.Errorf("failed to stage upload: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	size, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("failed to write upload: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return nil, fmt.Errorf("failed to install %s: %w", name, err)
	}
	res.SizeBytes = size

	in.logger.Info("installed data file",
		"file", name, "bytes", size, "backup", res.BackupPath)
	return res, nil
}

// backup copies the current file into the backup directory and prunes old
// backups past the retention limit.
func (in *Installer) backup(name, target string) (string, error) {
	dir := filepath.Join(in.dataDir, backupDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	stamp := in.now().UTC().Format("20060102T150405")
	backup := filepath.Join(dir, fmt.Sprintf("%s.%s", name, stamp))

	src, err := os.Open(target)
	if err != nil {
		return "", fmt.Errorf("failed to open %s for backup: %w", target, err)
	}
	defer func() { _ = src.Close() }()

	dst, err := os.Create(backup)
	if err != nil {
		return "", fmt.Errorf("failed to create backup %s: %w", backup, err)
	}
	_, err = io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("failed to write backup %s: %w", backup, err)
	}

	if err := in.prune(dir, name); err != nil {
		in.logger.Warn("failed to prune old backups", "file", name, "error", err)
	}
	return backup, nil
}

// prune deletes the oldest backups of name beyond the retention limit.
// Timestamps sort lexically, so name order is age order.
func (in *Installer) prune(dir, name string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	var mine []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), name+".") {
			mine = append(mine, e.Name())
		}
	}
	sort.Strings(mine)
	for len(mine) > in.keep {
		if err := os.Remove(filepath.Join(dir, mine[0])); err != nil {
			return err
		}
		mine = mine[1:]
	}
	return nil
}

// cleanName accepts plain base names only. Uploads never choose
// directories.
func cleanName(fileName string) (string, error) {
	name := strings.TrimSpace(fileName)
	if name == "" {
		return "", fmt.Errorf("upload file name is empty")
	}
	if name != filepath.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("upload file name %q must be a plain file name", fileName)
	}
	if strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("upload file name %q may not be hidden", fileName)
	}
	return name, nil
}
