package dto

import (
	"strings"

	"github.com/directoryhq/userdir/internal/media"
	"github.com/directoryhq/userdir/internal/models"
)

type CreateUserRequest struct {
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Age           *int   `json:"age"`
	DriverLicense string `json:"driverLicense"`
	IsNewUser     bool   `json:"isNewUser"`
}

// UpdateUserRequest carries a partial update: nil means "keep current".
type UpdateUserRequest struct {
	FirstName     *string `json:"firstName"`
	LastName      *string `json:"lastName"`
	Email         *string `json:"email"`
	Phone         *string `json:"phone"`
	Age           *int    `json:"age"`
	DriverLicense *string `json:"driverLicense"`
}

// UserResponse is the stored record plus one derived absolute URL per
// populated avatar slot.
type UserResponse struct {
	models.User
	Avatar1URL string `json:"avatar1Url,omitempty"`
	Avatar2URL string `json:"avatar2Url,omitempty"`
	Avatar3URL string `json:"avatar3Url,omitempty"`
	Avatar4URL string `json:"avatar4Url,omitempty"`
	Avatar5URL string `json:"avatar5Url,omitempty"`
}

// NewUserResponse shapes a stored record for output. Absolute stored
// values pass through; values rooted at /uploads/ join the request
// origin; bare filenames join origin, uploads root and the user's
// folder name.
func NewUserResponse(u *models.User, baseURL string) UserResponse {
	resp := UserResponse{User: *u}
	urls := [...]*string{&resp.Avatar1URL, &resp.Avatar2URL, &resp.Avatar3URL, &resp.Avatar4URL, &resp.Avatar5URL}
	for i, slot := range models.AvatarSlots {
		if stored := u.Avatar(slot); stored != nil && *stored != "" {
			*urls[i] = avatarURL(baseURL, u.SeqID, *stored)
		}
	}
	return resp
}

func avatarURL(baseURL string, seqID int, stored string) string {
	if strings.HasPrefix(stored, "http://") || strings.HasPrefix(stored, "https://") {
		return stored
	}
	if strings.HasPrefix(stored, "/uploads/") {
		return baseURL + stored
	}
	return baseURL + "/uploads/" + media.UserFolderName(seqID) + "/" + stored
}

type ListUsersResponse struct {
	Data       []UserResponse `json:"data"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"totalPages"`
	TotalUsers int64          `json:"totalUsers"`
}

type CreateUserResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Data    UserResponse `json:"data"`
}

type UpdateUserResponse struct {
	Message       string       `json:"message"`
	Data          UserResponse `json:"data"`
	FilesUploaded int          `json:"filesUploaded"`
	UserFolder    string       `json:"userFolder"`
}

type PatchAvatarResponse struct {
	Message      string       `json:"message"`
	Data         UserResponse `json:"data"`
	UpdatedField string       `json:"updatedField"`
	UserFolder   string       `json:"userFolder"`
}

type DeletedUser struct {
	ID        int    `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type DeleteUserResponse struct {
	Message     string      `json:"message"`
	DeletedUser DeletedUser `json:"deletedUser"`
}

type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
}
