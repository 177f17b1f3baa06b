package services

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/directoryhq/userdir/internal/apperr"
	"github.com/directoryhq/userdir/internal/dto"
	"github.com/xuri/excelize/v2"
)

// ImportService ingests user rows from an uploaded spreadsheet and
// feeds them through the regular creation path, one row at a time.
type ImportService struct {
	users *UserService
}

func NewImportService(users *UserService) *ImportService {
	return &ImportService{users: users}
}

// headerFields maps normalized column headers (lowercased, spaces and
// underscores stripped) to canonical field names, covering the usual
// spreadsheet spellings like "First Name", "first_name" or
// "PhoneNumber".
var headerFields = map[string]string{
	"firstname":     "firstName",
	"lastname":      "lastName",
	"email":         "email",
	"phone":         "phone",
	"phonenumber":   "phone",
	"age":           "age",
	"driverlicense": "driverLicense",
}

func canonicalField(header string) (string, bool) {
	key := strings.ToLower(header)
	key = strings.ReplaceAll(key, " ", "")
	key = strings.ReplaceAll(key, "_", "")
	field, ok := headerFields[key]
	return field, ok
}

// ImportFile parses the spreadsheet at path, validates and creates
// users row by row, and deletes the file afterwards regardless of
// outcome. Data rows are indexed from 2; row 1 holds the headers.
func (s *ImportService) ImportFile(path, originalName string) (*dto.ImportResult, error) {
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to delete uploaded spreadsheet", "path", path, "error", err)
		}
	}()

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &apperr.ParseError{Reason: "unreadable file: " + err.Error()}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &apperr.ParseError{Reason: "workbook has no sheets"}
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &apperr.ParseError{Reason: "failed to read rows: " + err.Error()}
	}
	if len(rows) < 2 {
		return nil, &apperr.ParseError{Reason: "file is empty or has no data rows"}
	}

	headers := rows[0]
	result := &dto.ImportResult{FileName: originalName}

	for i, row := range rows[1:] {
		rowIndex := i + 2
		req, verr := buildRow(headers, row)
		if verr != nil {
			result.ValidationErrors = append(result.ValidationErrors, dto.ImportRowError{
				RowIndex: rowIndex,
				Error:    verr.Error(),
			})
			continue
		}
		user, err := s.users.Create(req, "")
		if err != nil {
			result.FailedRows = append(result.FailedRows, dto.ImportRowError{
				RowIndex: rowIndex,
				Error:    err.Error(),
			})
			continue
		}
		result.CreatedUsers = append(result.CreatedUsers, dto.ImportedUser{
			ID:        user.SeqID,
			FirstName: user.FirstName,
			LastName:  user.LastName,
			Email:     user.Email,
			RowIndex:  rowIndex,
		})
	}

	failed := len(result.ValidationErrors) + len(result.FailedRows)
	result.Summary = dto.ImportSummary{
		TotalRows:  len(rows) - 1,
		Successful: len(result.CreatedUsers),
		Failed:     failed,
	}
	result.Success = len(result.CreatedUsers) > 0
	result.Message = fmt.Sprintf("Spreadsheet processing complete: %d users created, %d failed",
		len(result.CreatedUsers), failed)
	return result, nil
}

// buildRow normalizes one data row into a creation request, dropping
// empty cells, and validates it.
func buildRow(headers, row []string) (*dto.CreateUserRequest, error) {
	req := &dto.CreateUserRequest{}
	for i, header := range headers {
		if i >= len(row) {
			break
		}
		value := strings.TrimSpace(row[i])
		if value == "" {
			continue
		}
		field, ok := canonicalField(header)
		if !ok {
			continue
		}
		switch field {
		case "firstName":
			req.FirstName = value
		case "lastName":
			req.LastName = value
		case "email":
			req.Email = value
		case "phone":
			req.Phone = value
		case "age":
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, &apperr.ValidationError{Field: "age", Reason: "must be a number"}
			}
			req.Age = &n
		case "driverLicense":
			req.DriverLicense = value
		}
	}
	if verr := validateFields(req); verr != nil {
		return nil, verr
	}
	if verr := validateEmailShape(req.Email); verr != nil {
		return nil, verr
	}
	return req, nil
}
