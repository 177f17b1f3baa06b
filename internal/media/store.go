// Package media owns the physical avatar files under the uploads root.
// Folder layout: user_{seqID}/ per live user, temp_{token}/ per
// in-flight staging session, excel/ for transient spreadsheet uploads.
package media

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/directoryhq/userdir/internal/apperr"
)

const (
	userFolderPrefix    = "user_"
	stagingFolderPrefix = "temp_"
	excelFolder         = "excel"
)

// Store is the filesystem-backed media store rooted at the uploads dir.
type Store struct {
	root string
}

func NewStore(root string) (*Store, error) {
	for _, dir := range []string{root, filepath.Join(root, excelFolder)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &apperr.MediaError{Op: "mkdir", Path: dir, Err: err}
		}
	}
	return &Store{root: root}, nil
}

func (s *Store) Root() string { return s.root }

// ExcelDir is where uploaded spreadsheets are parked before parsing.
func (s *Store) ExcelDir() string { return filepath.Join(s.root, excelFolder) }

// UserFolder returns the folder path for a sequential ID. The folder
// may not exist yet.
func (s *Store) UserFolder(id int) string {
	return filepath.Join(s.root, fmt.Sprintf("%s%d", userFolderPrefix, id))
}

// UserFolderName returns the folder name users see in avatar URLs.
func UserFolderName(id int) string {
	return fmt.Sprintf("%s%d", userFolderPrefix, id)
}

// EnsureFolder creates the per-user folder if absent. Idempotent.
func (s *Store) EnsureFolder(id int) error {
	dir := s.UserFolder(id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &apperr.MediaError{Op: "mkdir", Path: dir, Err: err}
	}
	return nil
}

// AvatarFile is the structured identity of an avatar on disk. The
// filename string is only assembled here, at the filesystem boundary.
type AvatarFile struct {
	Owner  string // sequential ID or staging token
	Slot   string
	Suffix string
	Ext    string
}

func (f AvatarFile) Name() string {
	return f.Owner + "_" + f.Slot + "_" + f.Suffix + f.Ext
}

func newSuffix() string {
	return fmt.Sprintf("%d-%d", time.Now().UnixMilli(), rand.Int63n(1_000_000_000))
}

var slotMarker = regexp.MustCompile(`_(avatar[1-5])_`)

// parseSlot recovers the slot designator embedded in a filename.
func parseSlot(filename string) (string, bool) {
	m := slotMarker.FindStringSubmatch(filename)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// WriteAvatar streams src into the user's folder and returns the
// generated filename to be stored on the record. Failures are fatal to
// the caller: a record must never reference a file that does not exist.
func (s *Store) WriteAvatar(id int, slot string, src io.Reader, ext string) (string, error) {
	if err := s.EnsureFolder(id); err != nil {
		return "", err
	}
	f := AvatarFile{Owner: fmt.Sprint(id), Slot: slot, Suffix: newSuffix(), Ext: ext}
	dst := filepath.Join(s.UserFolder(id), f.Name())
	if err := writeFile(dst, src); err != nil {
		return "", err
	}
	return f.Name(), nil
}

func writeFile(dst string, src io.Reader) error {
	out, err := os.Create(dst)
	if err != nil {
		return &apperr.MediaError{Op: "create", Path: dst, Err: err}
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(dst)
		return &apperr.MediaError{Op: "write", Path: dst, Err: err}
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return &apperr.MediaError{Op: "close", Path: dst, Err: err}
	}
	return nil
}

// resolve maps a stored filename to a path under the uploads root.
// Values already rooted at /uploads/ are used relative to the root;
// otherwise the name is joined under the user's folder, or the root
// itself when no ID is given. Anything escaping the root is rejected.
func (s *Store) resolve(filename string, id int) (string, error) {
	var p string
	switch {
	case strings.HasPrefix(filename, "/uploads/"):
		p = filepath.Join(s.root, strings.TrimPrefix(filename, "/uploads/"))
	case id > 0:
		p = filepath.Join(s.UserFolder(id), filename)
	default:
		p = filepath.Join(s.root, filename)
	}
	p = filepath.Clean(p)
	rel, err := filepath.Rel(s.root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &apperr.MediaError{Op: "resolve", Path: filename, Err: os.ErrPermission}
	}
	return p, nil
}

// DeleteAvatar removes a stored avatar file. Missing files and removal
// failures are logged, not fatal: cleanup must not block the primary
// operation.
func (s *Store) DeleteAvatar(filename string, id int) {
	if filename == "" {
		return
	}
	p, err := s.resolve(filename, id)
	if err != nil {
		slog.Warn("refusing to delete avatar outside uploads root", "filename", filename)
		return
	}
	if err := os.Remove(p); err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("failed to delete avatar", "path", p, "error", err)
		}
		return
	}
	slog.Info("deleted avatar", "path", p)
}

// DeleteFolder removes the user's folder and everything in it.
// Best-effort: partial failures are logged and skipped.
func (s *Store) DeleteFolder(id int) {
	dir := s.UserFolder(id)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("failed to read user folder", "path", dir, "error", err)
		}
		return
	}
	for _, e := range entries {
		p := filepath.Join(dir, e.Name())
		if err := os.Remove(p); err != nil {
			slog.Warn("failed to delete file", "path", p, "error", err)
		}
	}
	if err := os.Remove(dir); err != nil {
		slog.Warn("failed to delete user folder", "path", dir, "error", err)
		return
	}
	slog.Info("deleted user folder", "path", dir)
}

// RelocateFolder moves a user's folder from the old sequential ID to
// the new one, rewriting the old-ID prefix inside each filename. The
// slot designator and suffix are untouched. Returns the mapping of old
// filenames to new ones so the record can be updated in lock-step.
// A missing source folder is a no-op.
func (s *Store) RelocateFolder(oldID, newID int) (map[string]string, error) {
	oldDir := s.UserFolder(oldID)
	entries, err := os.ReadDir(oldDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &apperr.MediaError{Op: "read", Path: oldDir, Err: err}
	}

	if err := s.EnsureFolder(newID); err != nil {
		return nil, err
	}

	newDir := s.UserFolder(newID)
	oldPrefix := fmt.Sprintf("%d_", oldID)
	newPrefix := fmt.Sprintf("%d_", newID)
	renamed := make(map[string]string, len(entries))

	for _, e := range entries {
		newName := e.Name()
		if rest, ok := strings.CutPrefix(newName, oldPrefix); ok {
			newName = newPrefix + rest
		}
		oldPath := filepath.Join(oldDir, e.Name())
		newPath := filepath.Join(newDir, newName)
		if err := os.Rename(oldPath, newPath); err != nil {
			return renamed, &apperr.MediaError{Op: "rename", Path: oldPath, Err: err}
		}
		renamed[e.Name()] = newName
	}

	if err := os.Remove(oldDir); err != nil {
		slog.Warn("failed to remove old user folder", "path", oldDir, "error", err)
	}
	return renamed, nil
}
