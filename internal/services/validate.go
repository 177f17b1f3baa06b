package services

import (
	"regexp"
	"strings"

	"github.com/directoryhq/userdir/internal/apperr"
	"github.com/directoryhq/userdir/internal/dto"
)

var emailShape = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// validateFields checks the creation rules: required fields, age range
// and the driver-license dependency for adults.
func validateFields(req *dto.CreateUserRequest) *apperr.ValidationError {
	required := []struct{ field, value string }{
		{"firstName", req.FirstName},
		{"lastName", req.LastName},
		{"email", req.Email},
		{"phone", req.Phone},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &apperr.ValidationError{Field: r.field, Reason: "is required"}
		}
	}
	if req.Age == nil {
		return &apperr.ValidationError{Field: "age", Reason: "is required"}
	}
	if *req.Age < 0 || *req.Age > 120 {
		return &apperr.ValidationError{Field: "age", Reason: "must be between 0 and 120"}
	}
	if *req.Age >= 18 && strings.TrimSpace(req.DriverLicense) == "" {
		return &apperr.ValidationError{Field: "driverLicense", Reason: "is required for users 18 or older"}
	}
	return nil
}

func validateEmailShape(email string) *apperr.ValidationError {
	if !emailShape.MatchString(email) {
		return &apperr.ValidationError{Field: "email", Reason: "invalid format"}
	}
	return nil
}
