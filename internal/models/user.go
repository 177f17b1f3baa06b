package models

import (
	"time"

	"github.com/google/uuid"
)

// AvatarSlots lists the five fixed avatar positions, in order.
var AvatarSlots = []string{"avatar1", "avatar2", "avatar3", "avatar4", "avatar5"}

// User is a directory record. ID is the internal database key; SeqID is
// the small public-facing number users see, unique among live records
// and reassigned only by renumbering.
type User struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"uid"`
	SeqID         int       `gorm:"column:seq_id;not null;uniqueIndex" json:"id"`
	FirstName     string    `gorm:"size:100;not null" json:"firstName"`
	LastName      string    `gorm:"size:100;not null" json:"lastName"`
	Email         string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Phone         string    `gorm:"size:50;not null;uniqueIndex" json:"phone"`
	Age           int       `gorm:"not null" json:"age"`
	DriverLicense *string   `gorm:"size:100" json:"driverLicense,omitempty"`
	Avatar1       *string   `gorm:"size:255" json:"avatar1,omitempty"`
	Avatar2       *string   `gorm:"size:255" json:"avatar2,omitempty"`
	Avatar3       *string   `gorm:"size:255" json:"avatar3,omitempty"`
	Avatar4       *string   `gorm:"size:255" json:"avatar4,omitempty"`
	Avatar5       *string   `gorm:"size:255" json:"avatar5,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Avatar returns the stored filename for a slot, or nil.
func (u *User) Avatar(slot string) *string {
	switch slot {
	case "avatar1":
		return u.Avatar1
	case "avatar2":
		return u.Avatar2
	case "avatar3":
		return u.Avatar3
	case "avatar4":
		return u.Avatar4
	case "avatar5":
		return u.Avatar5
	}
	return nil
}

// SetAvatar stores a filename into a slot. Unknown slots are ignored.
func (u *User) SetAvatar(slot string, filename *string) {
	switch slot {
	case "avatar1":
		u.Avatar1 = filename
	case "avatar2":
		u.Avatar2 = filename
	case "avatar3":
		u.Avatar3 = filename
	case "avatar4":
		u.Avatar4 = filename
	case "avatar5":
		u.Avatar5 = filename
	}
}

// ValidSlot reports whether slot names one of the five avatar positions.
func ValidSlot(slot string) bool {
	for _, s := range AvatarSlots {
		if s == slot {
			return true
		}
	}
	return false
}
