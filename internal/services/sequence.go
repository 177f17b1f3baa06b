package services

import (
	"github.com/directoryhq/userdir/internal/models"
	"gorm.io/gorm"
)

// nextFreeID returns the smallest positive integer absent from ids,
// which must be sorted ascending. Gaps left by deletions are filled
// before the range is extended.
func nextFreeID(ids []int) int {
	next := 1
	for _, id := range ids {
		if id == next {
			next++
		} else if id > next {
			break
		}
	}
	return next
}

// NextSeqID scans all live sequential IDs and returns the smallest
// free one. Callers must persist promptly and treat a duplicate-key
// rejection as a lost race: rescan and retry once.
func NextSeqID(db *gorm.DB) (int, error) {
	var ids []int
	if err := db.Model(&models.User{}).Order("seq_id ASC").Pluck("seq_id", &ids).Error; err != nil {
		return 0, err
	}
	return nextFreeID(ids), nil
}
