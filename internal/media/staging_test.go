package media

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBeginStaging_TokensAreUnique(t *testing.T) {
	s := newTestStore(t)

	a := s.BeginStaging()
	b := s.BeginStaging()
	require.NotEmpty(t, a)
	require.NotEqual(t, a, b)

	// Folder creation is deferred until the first write.
	_, err := os.Stat(s.stagingFolder(a))
	require.True(t, os.IsNotExist(err))
}

func TestStage_WritesIntoSessionFolder(t *testing.T) {
	s := newTestStore(t)
	token := s.BeginStaging()

	name, err := s.Stage(token, "avatar1", strings.NewReader("img"), ".jpg")
	require.NoError(t, err)
	require.Contains(t, name, token)
	require.Contains(t, name, "avatar1")

	data, err := os.ReadFile(filepath.Join(s.stagingFolder(token), name))
	require.NoError(t, err)
	require.Equal(t, "img", string(data))
}

func TestAdopt_MovesFilesAndRemovesSession(t *testing.T) {
	s := newTestStore(t)
	token := s.BeginStaging()

	_, err := s.Stage(token, "avatar2", strings.NewReader("img"), ".png")
	require.NoError(t, err)

	adopted, err := s.Adopt(token, 7)
	require.NoError(t, err)
	require.Len(t, adopted, 1)

	name, ok := adopted["avatar2"]
	require.True(t, ok)
	require.Contains(t, name, "7")
	require.Contains(t, name, "avatar2")
	require.NotContains(t, name, token)

	_, err = os.Stat(filepath.Join(s.UserFolder(7), name))
	require.NoError(t, err)

	_, err = os.Stat(s.stagingFolder(token))
	require.True(t, os.IsNotExist(err), "staging folder should no longer exist")
}

func TestAdopt_MultipleSlots(t *testing.T) {
	s := newTestStore(t)
	token := s.BeginStaging()

	_, err := s.Stage(token, "avatar1", strings.NewReader("a"), ".png")
	require.NoError(t, err)
	_, err = s.Stage(token, "avatar5", strings.NewReader("b"), ".gif")
	require.NoError(t, err)

	adopted, err := s.Adopt(token, 2)
	require.NoError(t, err)
	require.Len(t, adopted, 2)
	require.Contains(t, adopted, "avatar1")
	require.Contains(t, adopted, "avatar5")
}

func TestAdopt_MissingSessionYieldsEmptyMapping(t *testing.T) {
	s := newTestStore(t)

	adopted, err := s.Adopt("no-such-token", 4)
	require.NoError(t, err)
	require.Empty(t, adopted)
}

func TestDiscard_RemovesSessionFolder(t *testing.T) {
	s := newTestStore(t)
	token := s.BeginStaging()

	_, err := s.Stage(token, "avatar3", strings.NewReader("x"), ".png")
	require.NoError(t, err)

	s.Discard(token)

	_, err = os.Stat(s.stagingFolder(token))
	require.True(t, os.IsNotExist(err))
}

func TestDiscard_MissingSessionIsNoop(t *testing.T) {
	s := newTestStore(t)
	s.Discard("never-started")
}
