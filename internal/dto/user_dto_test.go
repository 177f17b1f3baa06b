package dto

import (
	"testing"

	"github.com/directoryhq/userdir/internal/models"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestNewUserResponse_BareFilenameJoinsUserFolder(t *testing.T) {
	u := &models.User{SeqID: 7, Avatar2: strPtr("7_avatar2_123.png")}

	resp := NewUserResponse(u, "http://localhost:8080")
	require.Equal(t, "http://localhost:8080/uploads/user_7/7_avatar2_123.png", resp.Avatar2URL)
	require.Empty(t, resp.Avatar1URL)
}

func TestNewUserResponse_AbsoluteURLPassesThrough(t *testing.T) {
	u := &models.User{SeqID: 3, Avatar1: strPtr("https://cdn.example.com/a.png")}

	resp := NewUserResponse(u, "http://localhost:8080")
	require.Equal(t, "https://cdn.example.com/a.png", resp.Avatar1URL)
}

func TestNewUserResponse_RootedPathJoinsOrigin(t *testing.T) {
	u := &models.User{SeqID: 3, Avatar4: strPtr("/uploads/user_3/3_avatar4_9.gif")}

	resp := NewUserResponse(u, "http://api.example.com")
	require.Equal(t, "http://api.example.com/uploads/user_3/3_avatar4_9.gif", resp.Avatar4URL)
}

func TestNewUserResponse_EmptySlotsProduceNoURLs(t *testing.T) {
	u := &models.User{SeqID: 1}

	resp := NewUserResponse(u, "http://localhost")
	for _, url := range []string{resp.Avatar1URL, resp.Avatar2URL, resp.Avatar3URL, resp.Avatar4URL, resp.Avatar5URL} {
		require.Empty(t, url)
	}
}
