package services

import (
	"log/slog"

	"github.com/directoryhq/userdir/internal/models"
)

// RenumberAll compacts sequential IDs to a contiguous 1..N, relocating
// each affected user's media folder in lock-step, and returns the
// old-to-new mapping. Users are processed in ascending current-ID
// order, so IDs only ever shift downward and a source folder can never
// collide with a still-pending destination.
//
// There is no rollback: a failure mid-run leaves a partially
// renumbered state, and a second run converges to the same contiguous
// assignment because it recomputes from the stored IDs. Never invoked
// automatically; this is an exclusive maintenance operation and must
// not run concurrently with creations or deletions.
func (s *UserService) RenumberAll() (map[int]int, error) {
	var users []models.User
	if err := s.db.Order("seq_id ASC").Find(&users).Error; err != nil {
		return nil, err
	}

	mapping := make(map[int]int)
	for i := range users {
		u := &users[i]
		newID := i + 1
		if u.SeqID == newID {
			continue
		}
		oldID := u.SeqID

		renamed, err := s.media.RelocateFolder(oldID, newID)
		if err != nil {
			return mapping, err
		}

		updates := map[string]interface{}{"seq_id": newID}
		for _, slot := range models.AvatarSlots {
			if f := u.Avatar(slot); f != nil && *f != "" {
				if newName, ok := renamed[*f]; ok {
					updates[slot] = newName
					n := newName
					u.SetAvatar(slot, &n)
				}
			}
		}
		if err := s.db.Model(u).Updates(updates).Error; err != nil {
			return mapping, err
		}
		u.SeqID = newID
		mapping[oldID] = newID
		slog.Info("renumbered user", "old_id", oldID, "new_id", newID)
	}
	return mapping, nil
}
