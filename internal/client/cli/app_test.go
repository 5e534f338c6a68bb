package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubPassword(t *testing.T, password string) {
	t.Helper()
	orig := readPassword
	readPassword = func(fd int) ([]byte, error) { return []byte(password), nil }
	t.Cleanup(func() { readPassword = orig })
}

func TestRun_NoCommand(t *testing.T) {
	var out bytes.Buffer
	app := NewApp("http://localhost:5000", strings.NewReader(""), &out)

	err := app.Run(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, out.String(), "usage:")
}

func TestRun_UnknownCommand(t *testing.T) {
	var out bytes.Buffer
	app := NewApp("http://localhost:5000", strings.NewReader(""), &out)

	err := app.Run(context.Background(), []string{"frobnicate"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
}

func TestRegisterCommand_SendsCredentials(t *testing.T) {
	stubPassword(t, "pw")

	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/auth/register", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	var out bytes.Buffer
	app := NewApp(srv.URL, strings.NewReader(""), &out)

	err := app.Run(context.Background(), []string{"register", "alice"})
	require.NoError(t, err)
	assert.Equal(t, "alice", gotBody["login"])
	assert.Equal(t, "pw", gotBody["password"])
	assert.Contains(t, out.String(), "user alice registered")
}

func TestListCommand_PrintsUsers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/user/users", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"login":"alice","admin":false,"test_info":[{"testid":1,"score":90,"passed":true},{"testid":2,"score":0,"passed":false}]},
			{"login":"root","admin":true,"test_info":[]}
		]`))
	}))
	defer srv.Close()

	var out bytes.Buffer
	app := NewApp(srv.URL, strings.NewReader(""), &out)

	require.NoError(t, app.Run(context.Background(), []string{"list"}))
	assert.Contains(t, out.String(), "alice\ttests passed: 1/2")
	assert.Contains(t, out.String(), "root (admin)")
}

func TestResetPasswordCommand_PromptsAdminCredentials(t *testing.T) {
	stubPassword(t, "secret")

	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/user/reset-password", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
	}))
	defer srv.Close()

	var out bytes.Buffer
	app := NewApp(srv.URL, strings.NewReader("root\n"), &out)

	err := app.Run(context.Background(), []string{"reset-password", "alice"})
	require.NoError(t, err)
	assert.Equal(t, "root", gotBody["adminLogin"])
	assert.Equal(t, "secret", gotBody["adminPassword"])
	assert.Equal(t, "alice", gotBody["targetLogin"])
	assert.Equal(t, "secret", gotBody["newPassword"])
}

func TestDeleteCommand_SurfacesServerError(t *testing.T) {
	stubPassword(t, "secret")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"success":false,"error":"cannot delete an administrator"}`))
	}))
	defer srv.Close()

	var out bytes.Buffer
	app := NewApp(srv.URL, strings.NewReader("root\n"), &out)

	err := app.Run(context.Background(), []string{"delete", "root2"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot delete an administrator")
}

func TestClient_DoReportsStatusWithoutBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	err := c.Register(context.Background(), "alice", "pw")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}
