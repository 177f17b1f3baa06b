package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/directoryhq/userdir/internal/apperr"
	"github.com/directoryhq/userdir/internal/config"
	"github.com/directoryhq/userdir/internal/dto"
	"github.com/directoryhq/userdir/internal/media"
	"github.com/directoryhq/userdir/internal/models"
	"github.com/directoryhq/userdir/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type UserHandler struct {
	users *services.UserService
	cfg   *config.Config
}

func NewUserHandler(users *services.UserService, cfg *config.Config) *UserHandler {
	return &UserHandler{users: users, cfg: cfg}
}

func (h *UserHandler) List(c *fiber.Ctx) error {
	// Clamp before anything divides by or echoes these values; the
	// response must report the page/limit actually applied.
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	q := services.ListQuery{
		Page:      page,
		Limit:     limit,
		SortBy:    c.Query("sortBy", "id"),
		Order:     c.Query("order", "asc"),
		FirstName: c.Query("firstName"),
		LastName:  c.Query("lastName"),
		Email:     c.Query("email"),
		Phone:     c.Query("phone"),
	}

	users, total, err := h.users.List(q)
	if err != nil {
		return serviceError(c, err)
	}

	base := c.BaseURL()
	data := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		data = append(data, dto.NewUserResponse(&users[i], base))
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return c.JSON(dto.ListUsersResponse{
		Data:       data,
		Page:       q.Page,
		Limit:      limit,
		TotalPages: totalPages,
		TotalUsers: total,
	})
}

func (h *UserHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid user ID")
	}
	user, err := h.users.Get(id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(dto.NewUserResponse(user, c.BaseURL()))
}

// Create handles both a single user (JSON or multipart with avatar
// files) and a bulk JSON array body.
func (h *UserHandler) Create(c *fiber.Ctx) error {
	if isJSONArray(c) {
		var reqs []dto.CreateUserRequest
		if err := c.BodyParser(&reqs); err != nil {
			return badRequest(c, "Invalid request body")
		}
		return h.createBulk(c, reqs)
	}

	req, avatars, err := h.parseCreateForm(c)
	if err != nil {
		var verr *apperr.ValidationError
		if errors.As(err, &verr) {
			return badRequest(c, verr.Error())
		}
		return badRequest(c, err.Error())
	}

	// Files arriving before the record exists go through a staging
	// session keyed by a fresh token; the service adopts or discards it.
	token := ""
	if len(avatars) > 0 {
		if !req.IsNewUser {
			return badRequest(c, "isNewUser=true is required when uploading avatars for a new user")
		}
		token = h.users.BeginStaging()
		for _, up := range avatars {
			if _, err := h.users.StageUpload(token, up); err != nil {
				h.users.Discard(token)
				return serviceError(c, err)
			}
		}
	}

	user, err := h.users.Create(req, token)
	if err != nil {
		return serviceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.CreateUserResponse{
		Success: true,
		Message: "User created successfully",
		Data:    dto.NewUserResponse(user, c.BaseURL()),
	})
}

func (h *UserHandler) createBulk(c *fiber.Ctx, reqs []dto.CreateUserRequest) error {
	res := h.users.CreateBulk(reqs)
	status := fiber.StatusCreated
	switch {
	case len(reqs) > 0 && res.Summary.Failed == len(reqs):
		status = fiber.StatusBadRequest
	case res.Summary.Failed > 0:
		status = fiber.StatusMultiStatus
	}
	return c.Status(status).JSON(res)
}

func (h *UserHandler) Update(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid user ID")
	}

	req, avatars, err := h.parseUpdateForm(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	user, err := h.users.Update(id, req, avatars)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(dto.UpdateUserResponse{
		Message:       "User updated successfully",
		Data:          dto.NewUserResponse(user, c.BaseURL()),
		FilesUploaded: len(avatars),
		UserFolder:    media.UserFolderName(user.SeqID),
	})
}

// PatchAvatar replaces a single avatar slot. The request must carry
// exactly one file, and the avatarField designator must match the
// uploaded field name.
func (h *UserHandler) PatchAvatar(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid user ID")
	}

	avatars, err := h.collectAvatars(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	if len(avatars) != 1 {
		return badRequest(c, "PATCH requires exactly one avatar field to be updated")
	}

	slot := c.FormValue("avatarField")
	if slot == "" || slot != avatars[0].Slot {
		return badRequest(c, "avatarField parameter must match the uploaded field: "+avatars[0].Slot)
	}

	user, err := h.users.PatchAvatar(id, slot, avatars[0])
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(dto.PatchAvatarResponse{
		Message:      slot + " updated successfully",
		Data:         dto.NewUserResponse(user, c.BaseURL()),
		UpdatedField: slot,
		UserFolder:   media.UserFolderName(user.SeqID),
	})
}

func (h *UserHandler) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid user ID")
	}
	user, err := h.users.Delete(id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(dto.DeleteUserResponse{
		Message: "User deleted successfully",
		DeletedUser: dto.DeletedUser{
			ID:        user.SeqID,
			FirstName: user.FirstName,
			LastName:  user.LastName,
		},
	})
}

func (h *UserHandler) parseCreateForm(c *fiber.Ctx) (*dto.CreateUserRequest, []services.AvatarUpload, error) {
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		req := &dto.CreateUserRequest{
			FirstName:     c.FormValue("firstName"),
			LastName:      c.FormValue("lastName"),
			Email:         c.FormValue("email"),
			Phone:         c.FormValue("phone"),
			DriverLicense: c.FormValue("driverLicense"),
			IsNewUser:     c.FormValue("isNewUser") == "true",
		}
		if v := c.FormValue("age"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, nil, &apperr.ValidationError{Field: "age", Reason: "must be a number"}
			}
			req.Age = &n
		}
		avatars, err := h.collectAvatars(c)
		if err != nil {
			return nil, nil, err
		}
		return req, avatars, nil
	}

	var req dto.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, nil, errors.New("invalid request body")
	}
	return &req, nil, nil
}

func (h *UserHandler) parseUpdateForm(c *fiber.Ctx) (*dto.UpdateUserRequest, []services.AvatarUpload, error) {
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		form, err := c.MultipartForm()
		if err != nil {
			return nil, nil, errors.New("invalid multipart form")
		}
		req := &dto.UpdateUserRequest{}
		req.FirstName = formField(form, "firstName")
		req.LastName = formField(form, "lastName")
		req.Email = formField(form, "email")
		req.Phone = formField(form, "phone")
		req.DriverLicense = formField(form, "driverLicense")
		if v := formField(form, "age"); v != nil {
			n, err := strconv.Atoi(*v)
			if err != nil {
				return nil, nil, errors.New("age must be a number")
			}
			req.Age = &n
		}
		avatars, err := h.collectAvatars(c)
		if err != nil {
			return nil, nil, err
		}
		return req, avatars, nil
	}

	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, nil, errors.New("invalid request body")
	}
	return &req, nil, nil
}

// formField returns the first value for key, or nil when the field was
// not part of the form at all. Presence matters for merge updates.
func formField(form *multipart.Form, key string) *string {
	vals, ok := form.Value[key]
	if !ok || len(vals) == 0 {
		return nil
	}
	return &vals[0]
}

var allowedImageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
}

// collectAvatars gathers the avatar1..avatar5 files from a multipart
// form, enforcing slot names, one file per slot, the image type
// families and the per-file size ceiling.
func (h *UserHandler) collectAvatars(c *fiber.Ctx) ([]services.AvatarUpload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil
	}

	for field := range form.File {
		if !models.ValidSlot(field) {
			return nil, fmt.Errorf("Invalid field name: %s. Expected one of: %s",
				field, strings.Join(models.AvatarSlots, ", "))
		}
	}

	var uploads []services.AvatarUpload
	for _, slot := range models.AvatarSlots {
		files := form.File[slot]
		if len(files) == 0 {
			continue
		}
		if len(files) > 1 {
			return nil, fmt.Errorf("%s accepts at most one file", slot)
		}
		fh := files[0]
		if err := h.validateAvatarFile(fh); err != nil {
			return nil, err
		}
		uploads = append(uploads, services.AvatarUpload{Slot: slot, File: fh})
	}
	return uploads, nil
}

func (h *UserHandler) validateAvatarFile(fh *multipart.FileHeader) error {
	if fh.Size > h.cfg.MaxAvatarSize {
		return fmt.Errorf("File too large. Maximum size is %d bytes for images", h.cfg.MaxAvatarSize)
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	contentType := fh.Header.Get("Content-Type")
	typeOK := strings.Contains(contentType, "jpeg") ||
		strings.Contains(contentType, "png") ||
		strings.Contains(contentType, "gif")
	if !allowedImageExts[ext] || !typeOK {
		return errors.New("Only image files (JPEG, JPG, PNG, GIF) are allowed")
	}
	return nil
}

func isJSONArray(c *fiber.Ctx) bool {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		return false
	}
	body := bytes.TrimSpace(c.Body())
	return len(body) > 0 && body[0] == '['
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: msg})
}

// serviceError maps the service error classes to HTTP statuses.
// Internal detail stays server-side.
func serviceError(c *fiber.Ctx, err error) error {
	var verr *apperr.ValidationError
	var cerr *apperr.ConflictError
	var perr *apperr.ParseError

	switch {
	case errors.Is(err, apperr.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: true, Message: "User not found"})
	case errors.As(err, &verr), errors.As(err, &cerr), errors.As(err, &perr):
		return badRequest(c, err.Error())
	}

	slog.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err.Error())
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Message: "Internal server error",
	})
}
