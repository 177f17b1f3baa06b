package dto

import "github.com/directoryhq/userdir/internal/models"

// Bulk JSON creation (array body on POST /api/users).

type BulkCreated struct {
	Index int          `json:"index"`
	User  *models.User `json:"user"`
}

type BulkFailed struct {
	Index int               `json:"index"`
	User  CreateUserRequest `json:"user"`
	Error string            `json:"error"`
}

type BulkSummary struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

type BulkResult struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Created []BulkCreated `json:"created"`
	Failed  []BulkFailed  `json:"failed"`
	Summary BulkSummary   `json:"summary"`
}

// Spreadsheet import.

type ImportedUser struct {
	ID        int    `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	RowIndex  int    `json:"rowIndex"`
}

type ImportRowError struct {
	RowIndex int    `json:"rowIndex"`
	Error    string `json:"error"`
}

type ImportSummary struct {
	TotalRows  int `json:"totalRows"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

type ImportResult struct {
	Success          bool             `json:"success"`
	Message          string           `json:"message"`
	FileName         string           `json:"fileName"`
	Summary          ImportSummary    `json:"summary"`
	CreatedUsers     []ImportedUser   `json:"createdUsers"`
	ValidationErrors []ImportRowError `json:"validationErrors,omitempty"`
	FailedRows       []ImportRowError `json:"failedRows,omitempty"`
}
