package vault

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"engram/internal/config"
	"engram/internal/domain"
	"engram/internal/ports"
)

// inboxDir is where saved notes land inside the vault.
const inboxDir = "Inbox"

const maxFilenameRunes = 50

// Vault writes note documents into a Markdown vault with optional git sync.
// A git failure never fails the logical save.
type Vault struct {
	root         string
	gitEnabled   bool
	gitUserName  string
	gitUserEmail string
	logger       *slog.Logger
}

var _ ports.NoteSink = (*Vault)(nil)

// New builds a vault rooted at cfg.Path.
func New(cfg config.VaultConfig, logger *slog.Logger) *Vault {
	return &Vault{
		root:         cfg.Path,
		gitEnabled:   cfg.GitEnabled,
		gitUserName:  cfg.GitUserName,
		gitUserEmail: cfg.GitUserEmail,
		logger:       logger,
	}
}

// SaveNote renders and writes the note into Inbox/, then syncs. Returns the
// written filename.
func (v *Vault) SaveNote(ctx context.Context, note domain.Note) (string, error) {
	if v.root == "" {
		return "", &domain.StorageError{Err: fmt.Errorf("vault path not configured")}
	}

	content, err := FormatNote(note)
	if err != nil {
		return "", &domain.StorageError{Err: err}
	}

	filename := fmt.Sprintf("%s-%s.md", note.CreatedAt.Format("20060102"), SafeFilename(note.Title))
	dir := filepath.Join(v.root, inboxDir)
	path := filepath.Join(dir, filename)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &domain.StorageError{Path: path, Err: fmt.Errorf("create inbox: %w", err)}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", &domain.StorageError{Path: path, Err: fmt.Errorf("write note: %w", err)}
	}

	if v.logger != nil {
		v.logger.Info("note written", "path", path)
	}

	v.gitSync(ctx, filepath.Join(inboxDir, filename), "Add note: "+filename)
	return filename, nil
}

// SafeFilename strips characters that are unsafe in filenames and caps the
// length.
func SafeFilename(name string) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`<>:"/\|?*`, r) {
			return -1
		}
		return r
	}, name)
	return strings.TrimSpace(domain.TruncateRunes(name, maxFilenameRunes))
}

// gitSync commits and pushes the new file. Every failure here is logged and
// suppressed; a sync-layer hiccup must not fail the save.
func (v *Vault) gitSync(ctx context.Context, relPath, message string) {
	if !v.gitEnabled {
		return
	}

	commands := [][]string{
		{"git", "-C", v.root, "pull", "--rebase"},
		{"git", "-C", v.root, "add", relPath},
		{
			"git", "-C", v.root,
			"-c", "user.name=" + v.gitUserName,
			"-c", "user.email=" + v.gitUserEmail,
			"commit", "-m", message,
		},
		{"git", "-C", v.root, "push"},
	}

	for _, args := range commands {
		cmd := exec.CommandContext(ctx, args[0], args[1:]...)
		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		if err := cmd.Run(); err != nil {
			if strings.Contains(stdout.String(), "nothing to commit") {
				continue
			}
			if v.logger != nil {
				v.logger.Warn("git sync command failed",
					"args", strings.Join(args[1:], " "),
					"error", err,
					"stderr", strings.TrimSpace(stderr.String()))
			}
		}
	}
}
