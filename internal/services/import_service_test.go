package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/directoryhq/userdir/internal/apperr"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	path := filepath.Join(t.TempDir(), "users.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func newTestImport(t *testing.T) (*ImportService, *UserService) {
	t.Helper()
	users := newTestService(t)
	return NewImportService(users), users
}

func TestImportFile_CreatesValidRowsAndCollectsFailures(t *testing.T) {
	imp, users := newTestImport(t)

	path := writeWorkbook(t, [][]interface{}{
		{"First Name", "Last Name", "Email", "Phone Number", "Age", "Driver License"},
		{"Ada", "Lovelace", "ada@example.com", "+7000000001", 17, ""},
		{"Bob", "NoMail", "", "+7000000002", 30, "D1"},
		{"Carol", "Jones", "carol@example.com", "+7000000003", 30, "D2"},
	})

	res, err := imp.ImportFile(path, "users.xlsx")
	require.NoError(t, err)

	require.Equal(t, 3, res.Summary.TotalRows)
	require.Equal(t, 2, res.Summary.Successful)
	require.Equal(t, 1, res.Summary.Failed)
	require.True(t, res.Success)

	require.Len(t, res.ValidationErrors, 1)
	require.Equal(t, 3, res.ValidationErrors[0].RowIndex, "failure is indexed by spreadsheet row")
	require.Contains(t, res.ValidationErrors[0].Error, "email")

	created := map[string]bool{}
	for _, u := range res.CreatedUsers {
		created[u.Email] = true
	}
	require.True(t, created["ada@example.com"])
	require.True(t, created["carol@example.com"])

	// Both survivors are persisted.
	_, total, err := users.List(ListQuery{})
	require.NoError(t, err)
	require.EqualValues(t, 2, total)

	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err), "spreadsheet must be deleted after processing")
}

func TestImportFile_HeaderSynonymsNormalized(t *testing.T) {
	imp, users := newTestImport(t)

	path := writeWorkbook(t, [][]interface{}{
		{"first_name", "LastName", "EMAIL", "phone", "AGE", "driver_license"},
		{"Dora", "Explorer", "dora@example.com", "+7000000004", 25, "D9"},
	})

	res, err := imp.ImportFile(path, "users.xlsx")
	require.NoError(t, err)
	require.Equal(t, 1, res.Summary.Successful)

	list, _, err := users.List(ListQuery{Email: "dora"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Dora", list[0].FirstName)
	require.Equal(t, "Explorer", list[0].LastName)
	require.Equal(t, 25, list[0].Age)
	require.NotNil(t, list[0].DriverLicense)
}

func TestImportFile_CreationFailuresCollectedSeparately(t *testing.T) {
	imp, users := newTestImport(t)

	_, err := users.Create(validRequest("dupe@example.com", "+7000000005"), "")
	require.NoError(t, err)

	path := writeWorkbook(t, [][]interface{}{
		{"First Name", "Last Name", "Email", "Phone", "Age", "Driver License"},
		{"Ed", "Dupe", "dupe@example.com", "+7000000006", 30, "D3"},
		{"Fay", "Fresh", "fay@example.com", "+7000000007", 30, "D4"},
	})

	res, err := imp.ImportFile(path, "users.xlsx")
	require.NoError(t, err)
	require.Equal(t, 1, res.Summary.Successful)
	require.Equal(t, 1, res.Summary.Failed)
	require.Empty(t, res.ValidationErrors)
	require.Len(t, res.FailedRows, 1)
	require.Equal(t, 2, res.FailedRows[0].RowIndex)
	require.Contains(t, res.FailedRows[0].Error, "email")
}

func TestImportFile_InvalidAge(t *testing.T) {
	imp, _ := newTestImport(t)

	path := writeWorkbook(t, [][]interface{}{
		{"First Name", "Last Name", "Email", "Phone", "Age", "Driver License"},
		{"Gil", "Old", "gil@example.com", "+7000000008", "many", "D5"},
	})

	res, err := imp.ImportFile(path, "users.xlsx")
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Len(t, res.ValidationErrors, 1)
	require.Contains(t, res.ValidationErrors[0].Error, "age")
}

func TestImportFile_MalformedEmail(t *testing.T) {
	imp, _ := newTestImport(t)

	path := writeWorkbook(t, [][]interface{}{
		{"First Name", "Last Name", "Email", "Phone", "Age", "Driver License"},
		{"Hal", "Bad", "not-an-email", "+7000000009", 30, "D6"},
	})

	res, err := imp.ImportFile(path, "users.xlsx")
	require.NoError(t, err)
	require.Len(t, res.ValidationErrors, 1)
	require.Contains(t, res.ValidationErrors[0].Error, "email")
}

func TestImportFile_EmptyWorkbook(t *testing.T) {
	imp, _ := newTestImport(t)

	path := writeWorkbook(t, [][]interface{}{
		{"First Name", "Last Name", "Email", "Phone", "Age"},
	})

	_, err := imp.ImportFile(path, "empty.xlsx")
	var perr *apperr.ParseError
	require.ErrorAs(t, err, &perr)

	_, statErr := os.Stat(path)
	require.True(t, os.IsNotExist(statErr), "file is cleaned up even on parse failure")
}

func TestImportFile_UnreadableFile(t *testing.T) {
	imp, _ := newTestImport(t)

	path := filepath.Join(t.TempDir(), "bogus.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("not a spreadsheet"), 0o644))

	_, err := imp.ImportFile(path, "bogus.xlsx")
	var perr *apperr.ParseError
	require.ErrorAs(t, err, &perr)
}

func TestCanonicalField(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"First Name", "firstName", true},
		{"firstName", "firstName", true},
		{"first_name", "firstName", true},
		{"FirstName", "firstName", true},
		{"Phone Number", "phone", true},
		{"PhoneNumber", "phone", true},
		{"Driver License", "driverLicense", true},
		{"EMAIL", "email", true},
		{"favorite color", "", false},
	}
	for _, tt := range tests {
		got, ok := canonicalField(tt.header)
		require.Equal(t, tt.ok, ok, tt.header)
		if ok {
			require.Equal(t, tt.want, got, tt.header)
		}
	}
}
