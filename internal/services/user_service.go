package services

import (
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/directoryhq/userdir/internal/apperr"
	"github.com/directoryhq/userdir/internal/dto"
	"github.com/directoryhq/userdir/internal/media"
	"github.com/directoryhq/userdir/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserService orchestrates record and media lifecycle: every create,
// update and delete keeps the database row and the files on disk
// consistent with each other.
type UserService struct {
	db    *gorm.DB
	media *media.Store
}

func NewUserService(db *gorm.DB, store *media.Store) *UserService {
	return &UserService{db: db, media: store}
}

// AvatarUpload is one incoming avatar file bound to a slot.
type AvatarUpload struct {
	Slot string
	File *multipart.FileHeader
}

func (up AvatarUpload) ext() string {
	return strings.ToLower(filepath.Ext(up.File.Filename))
}

type ListQuery struct {
	Page      int
	Limit     int
	SortBy    string
	Order     string
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

var sortColumns = map[string]string{
	"id":        "seq_id",
	"firstName": "first_name",
	"lastName":  "last_name",
	"email":     "email",
	"phone":     "phone",
	"age":       "age",
	"createdAt": "created_at",
}

func (s *UserService) List(q ListQuery) ([]models.User, int64, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 10
	}
	col, ok := sortColumns[q.SortBy]
	if !ok {
		col = "seq_id"
	}
	dir := "ASC"
	if q.Order == "desc" {
		dir = "DESC"
	}

	tx := s.db.Model(&models.User{})
	filters := []struct{ col, val string }{
		{"first_name", q.FirstName},
		{"last_name", q.LastName},
		{"email", q.Email},
		{"phone", q.Phone},
	}
	for _, f := range filters {
		if f.val != "" {
			tx = tx.Where("LOWER("+f.col+") LIKE ?", "%"+strings.ToLower(f.val)+"%")
		}
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	err := tx.Order(col + " " + dir).
		Offset((q.Page - 1) * q.Limit).
		Limit(q.Limit).
		Find(&users).Error
	return users, total, err
}

func (s *UserService) Get(id uuid.UUID) (*models.User, error) {
	var u models.User
	if err := s.db.First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Create validates, allocates a sequential ID, persists the record and
// adopts any staged avatar files. A non-empty stagingToken identifies
// the session holding files uploaded before this record existed; it is
// discarded on every rejection path.
func (s *UserService) Create(req *dto.CreateUserRequest, stagingToken string) (*models.User, error) {
	if verr := validateFields(req); verr != nil {
		s.discardStaging(stagingToken)
		return nil, verr
	}

	user := &models.User{
		ID:        uuid.New(),
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:     strings.TrimSpace(req.Phone),
		Age:       *req.Age,
	}
	if user.Age >= 18 {
		dl := strings.TrimSpace(req.DriverLicense)
		user.DriverLicense = &dl
	}

	if err := s.insertWithSeqID(user); err != nil {
		s.discardStaging(stagingToken)
		return nil, err
	}

	if stagingToken != "" {
		adopted, err := s.media.Adopt(stagingToken, user.SeqID)
		if err != nil {
			// Record is already persisted; files that did not make it
			// over stay behind as orphans for operator follow-up.
			slog.Error("failed to adopt staged avatars", "user_id", user.ID.String(), "error", err)
		}
		if len(adopted) > 0 {
			updates := map[string]interface{}{}
			for slot, name := range adopted {
				n := name
				user.SetAvatar(slot, &n)
				updates[slot] = name
			}
			if err := s.db.Model(user).Updates(updates).Error; err != nil {
				return nil, err
			}
		}
	}
	return user, nil
}

// insertWithSeqID allocates the smallest free sequential ID and
// persists the record. A duplicate on email or phone is a conflict; a
// duplicate on the sequential ID means another request won the race,
// so the scan is repeated once.
func (s *UserService) insertWithSeqID(user *models.User) error {
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		user.SeqID, err = NextSeqID(s.db)
		if err != nil {
			return err
		}
		err = s.db.Create(user).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
		ce, perr := s.duplicateField(user)
		if perr != nil {
			return perr
		}
		if ce != nil {
			return ce
		}
	}
	return err
}

// duplicateField attributes a translated duplicate-key error to the
// offending unique field. A nil conflict means the collision was on
// the sequential ID. A failed probe must not pass for a sequential-ID
// collision, so probe errors are returned, not swallowed.
func (s *UserService) duplicateField(user *models.User) (*apperr.ConflictError, error) {
	var n int64
	if err := s.db.Model(&models.User{}).Where("email = ? AND id <> ?", user.Email, user.ID).Count(&n).Error; err != nil {
		return nil, err
	}
	if n > 0 {
		return &apperr.ConflictError{Field: "email"}, nil
	}
	if err := s.db.Model(&models.User{}).Where("phone = ? AND id <> ?", user.Phone, user.ID).Count(&n).Error; err != nil {
		return nil, err
	}
	if n > 0 {
		return &apperr.ConflictError{Field: "phone"}, nil
	}
	return nil, nil
}

// Discard drops a staging session and its files.
func (s *UserService) Discard(token string) {
	s.media.Discard(token)
}

func (s *UserService) discardStaging(token string) {
	if token != "" {
		s.media.Discard(token)
	}
}

// Update merges the supplied fields over the existing record,
// re-validates the age/license dependency on the merged result and
// replaces any accompanying avatar files before persisting.
func (s *UserService) Update(id uuid.UUID, req *dto.UpdateUserRequest, avatars []AvatarUpload) (*models.User, error) {
	user, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil && strings.TrimSpace(*req.FirstName) != "" {
		user.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil && strings.TrimSpace(*req.LastName) != "" {
		user.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Email != nil && strings.TrimSpace(*req.Email) != "" {
		user.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Phone != nil && strings.TrimSpace(*req.Phone) != "" {
		user.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Age != nil {
		if *req.Age < 0 || *req.Age > 120 {
			return nil, &apperr.ValidationError{Field: "age", Reason: "must be between 0 and 120"}
		}
		user.Age = *req.Age
	}
	if req.DriverLicense != nil {
		dl := strings.TrimSpace(*req.DriverLicense)
		user.DriverLicense = &dl
	}

	if user.Age >= 18 && (user.DriverLicense == nil || *user.DriverLicense == "") {
		return nil, &apperr.ValidationError{Field: "driverLicense", Reason: "is required for users 18 or older"}
	}
	if user.Age < 18 {
		user.DriverLicense = nil
	}

	for _, up := range avatars {
		if old := user.Avatar(up.Slot); old != nil && *old != "" {
			s.media.DeleteAvatar(*old, user.SeqID)
		}
		name, err := s.writeUpload(user.SeqID, up)
		if err != nil {
			return nil, err
		}
		user.SetAvatar(up.Slot, &name)
	}

	if err := s.db.Save(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			ce, perr := s.duplicateField(user)
			if perr != nil {
				return nil, perr
			}
			if ce != nil {
				return nil, ce
			}
		}
		return nil, err
	}
	return user, nil
}

// PatchAvatar replaces exactly one slot's file.
func (s *UserService) PatchAvatar(id uuid.UUID, slot string, up AvatarUpload) (*models.User, error) {
	if !models.ValidSlot(slot) {
		return nil, &apperr.ValidationError{
			Field:  "avatarField",
			Reason: "must be one of " + strings.Join(models.AvatarSlots, ", "),
		}
	}
	user, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if old := user.Avatar(slot); old != nil && *old != "" {
		s.media.DeleteAvatar(*old, user.SeqID)
	}
	name, err := s.writeUpload(user.SeqID, up)
	if err != nil {
		return nil, err
	}
	user.SetAvatar(slot, &name)

	if err := s.db.Model(user).Update(slot, name).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// Delete removes the record, then its whole media folder. File cleanup
// is best-effort: the deletion stands even if the folder lingers.
func (s *UserService) Delete(id uuid.UUID) (*models.User, error) {
	user, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := s.db.Delete(&models.User{}, "id = ?", id).Error; err != nil {
		return nil, err
	}
	for _, slot := range models.AvatarSlots {
		if f := user.Avatar(slot); f != nil && *f != "" {
			s.media.DeleteAvatar(*f, user.SeqID)
		}
	}
	s.media.DeleteFolder(user.SeqID)
	return user, nil
}

// CreateBulk runs each entry through the create path independently and
// collects per-index failures without aborting the batch.
func (s *UserService) CreateBulk(reqs []dto.CreateUserRequest) *dto.BulkResult {
	res := &dto.BulkResult{}
	for i := range reqs {
		user, err := s.Create(&reqs[i], "")
		if err != nil {
			res.Failed = append(res.Failed, dto.BulkFailed{Index: i, User: reqs[i], Error: err.Error()})
			continue
		}
		res.Created = append(res.Created, dto.BulkCreated{Index: i, User: user})
	}
	res.Summary = dto.BulkSummary{
		Total:      len(reqs),
		Successful: len(res.Created),
		Failed:     len(res.Failed),
	}
	res.Success = len(res.Created) > 0
	res.Message = fmt.Sprintf("Processed %d users: %d created, %d failed",
		len(reqs), len(res.Created), len(res.Failed))
	return res
}

// StageUpload writes one uploaded avatar into the staging session.
func (s *UserService) StageUpload(token string, up AvatarUpload) (string, error) {
	src, err := up.File.Open()
	if err != nil {
		return "", &apperr.MediaError{Op: "open", Path: up.File.Filename, Err: err}
	}
	defer src.Close()
	return s.media.Stage(token, up.Slot, src, up.ext())
}

// BeginStaging opens a staging session for a not-yet-existing user.
func (s *UserService) BeginStaging() string {
	return s.media.BeginStaging()
}

func (s *UserService) writeUpload(seqID int, up AvatarUpload) (string, error) {
	src, err := up.File.Open()
	if err != nil {
		return "", &apperr.MediaError{Op: "open", Path: up.File.Filename, Err: err}
	}
	defer src.Close()
	return s.media.WriteAvatar(seqID, up.Slot, src, up.ext())
}
