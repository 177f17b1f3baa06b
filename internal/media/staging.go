package media

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/directoryhq/userdir/internal/apperr"
	"github.com/google/uuid"
)

// Staging holds avatar files uploaded for a user that does not exist
// yet. One session per create attempt; the session either gets adopted
// into the permanent folder or discarded.

// BeginStaging mints a session token. The staging folder is created
// lazily on the first Stage call.
func (s *Store) BeginStaging() string {
	return uuid.NewString()
}

func (s *Store) stagingFolder(token string) string {
	return filepath.Join(s.root, stagingFolderPrefix+token)
}

// Stage writes an uploaded file into the session's staging folder.
// The filename embeds the token and slot so Adopt can rewrite the
// owner and recover the slot later.
func (s *Store) Stage(token, slot string, src io.Reader, ext string) (string, error) {
	dir := s.stagingFolder(token)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &apperr.MediaError{Op: "mkdir", Path: dir, Err: err}
	}
	f := AvatarFile{Owner: token, Slot: slot, Suffix: newSuffix(), Ext: ext}
	if err := writeFile(filepath.Join(dir, f.Name()), src); err != nil {
		return "", err
	}
	return f.Name(), nil
}

// Adopt moves every staged file into the permanent folder for id,
// substituting the token with the real ID in each filename, and
// returns slot -> final filename. A missing staging folder means no
// avatars were uploaded and yields an empty mapping, not an error.
// The emptied staging folder is removed.
func (s *Store) Adopt(token string, id int) (map[string]string, error) {
	dir := s.stagingFolder(token)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, &apperr.MediaError{Op: "read", Path: dir, Err: err}
	}

	if err := s.EnsureFolder(id); err != nil {
		return nil, err
	}

	adopted := make(map[string]string)
	for _, e := range entries {
		newName := strings.Replace(e.Name(), token, fmt.Sprint(id), 1)
		oldPath := filepath.Join(dir, e.Name())
		newPath := filepath.Join(s.UserFolder(id), newName)
		if err := os.Rename(oldPath, newPath); err != nil {
			return adopted, &apperr.MediaError{Op: "rename", Path: oldPath, Err: err}
		}
		if slot, ok := parseSlot(e.Name()); ok {
			adopted[slot] = newName
		}
	}

	if err := os.Remove(dir); err != nil {
		slog.Warn("failed to remove staging folder", "path", dir, "error", err)
	}
	return adopted, nil
}

// Discard deletes the staging folder and its contents outright. Used
// on request failure so temporary files do not pile up.
func (s *Store) Discard(token string) {
	dir := s.stagingFolder(token)
	if err := os.RemoveAll(dir); err != nil {
		slog.Warn("failed to discard staging folder", "path", dir, "error", err)
	}
}
