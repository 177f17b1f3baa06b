package services

import (
	"os"
	"strings"
	"testing"

	"github.com/directoryhq/userdir/internal/models"
	"github.com/stretchr/testify/require"
)

func seedUsers(t *testing.T, s *UserService, n int) []*models.User {
	t.Helper()
	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		u, err := s.Create(validRequest(
			"ren"+string(rune('a'+i))+"@example.com",
			"+600000000"+string(rune('0'+i)),
		), "")
		require.NoError(t, err)
		users = append(users, u)
	}
	return users
}

func TestRenumberAll_CompactsToContiguousRange(t *testing.T) {
	s := newTestService(t)
	users := seedUsers(t, s, 4)

	// Delete seq 2, leaving {1,3,4}.
	_, err := s.Delete(users[1].ID)
	require.NoError(t, err)

	mapping, err := s.RenumberAll()
	require.NoError(t, err)
	require.Equal(t, map[int]int{3: 2, 4: 3}, mapping)

	var ids []int
	require.NoError(t, s.db.Model(&models.User{}).Order("seq_id ASC").Pluck("seq_id", &ids).Error)
	require.Equal(t, []int{1, 2, 3}, ids)
}

func TestRenumberAll_PreservesAscendingOrder(t *testing.T) {
	s := newTestService(t)
	users := seedUsers(t, s, 3)

	_, err := s.Delete(users[0].ID)
	require.NoError(t, err)

	mapping, err := s.RenumberAll()
	require.NoError(t, err)
	require.Equal(t, map[int]int{2: 1, 3: 2}, mapping)

	// Relative order of the survivors is unchanged.
	var emails []string
	require.NoError(t, s.db.Model(&models.User{}).Order("seq_id ASC").Pluck("email", &emails).Error)
	require.Equal(t, []string{users[1].Email, users[2].Email}, emails)
}

func TestRenumberAll_RelocatesMediaInLockStep(t *testing.T) {
	s := newTestService(t)
	users := seedUsers(t, s, 3)

	name, err := s.media.WriteAvatar(3, "avatar1", strings.NewReader("img"), ".png")
	require.NoError(t, err)
	require.NoError(t, s.db.Model(users[2]).Update("avatar1", name).Error)

	_, err = s.Delete(users[0].ID)
	require.NoError(t, err)

	mapping, err := s.RenumberAll()
	require.NoError(t, err)
	require.Equal(t, 1, mapping[2])
	require.Equal(t, 2, mapping[3])

	// Old folder is gone; the file lives under the new ID with the new
	// prefix, and the stored filename followed along.
	_, err = os.Stat(s.media.UserFolder(3))
	require.True(t, os.IsNotExist(err))

	moved, err := s.Get(users[2].ID)
	require.NoError(t, err)
	require.Equal(t, 2, moved.SeqID)
	require.NotNil(t, moved.Avatar1)
	require.True(t, strings.HasPrefix(*moved.Avatar1, "2_avatar1_"))

	_, err = os.Stat(s.media.UserFolder(2) + string(os.PathSeparator) + *moved.Avatar1)
	require.NoError(t, err)
}

func TestRenumberAll_IdempotentWhenContiguous(t *testing.T) {
	s := newTestService(t)
	users := seedUsers(t, s, 3)

	_, err := s.Delete(users[1].ID)
	require.NoError(t, err)

	first, err := s.RenumberAll()
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := s.RenumberAll()
	require.NoError(t, err)
	require.Empty(t, second, "second run with no mutations must change nothing")
}

func TestRenumberAll_EmptySet(t *testing.T) {
	s := newTestService(t)

	mapping, err := s.RenumberAll()
	require.NoError(t, err)
	require.Empty(t, mapping)
}
