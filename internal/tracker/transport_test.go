package tracker

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormTransport_PostsFormAndDecodesEnvelope(t *testing.T) {
	var gotCT, gotAuth, gotPath string
	var gotForm url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCT = r.Header.Get("Content-Type")
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		_ = r.ParseForm()
		gotForm = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"success":false,"error":"not found"}`)
	}))
	defer srv.Close()

	ft := NewFormTransport(srv.URL+"/", "tok", time.Second)
	res, err := ft.Submit(context.Background(), Submission{
		Path:   "/systems/users/u1",
		Intent: IntentDelete,
		Fields: url.Values{"_action": {"delete"}},
	})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "not found", res.Error)

	assert.Equal(t, "application/x-www-form-urlencoded", gotCT)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "/systems/users/u1", gotPath)
	assert.Equal(t, "delete", gotForm.Get("_action"))
}

func TestFormTransport_NonJSONIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "<html>bad gateway</html>")
	}))
	defer srv.Close()

	ft := NewFormTransport(srv.URL, "", time.Second)
	_, err := ft.Submit(context.Background(), Submission{Path: "/systems/users", Fields: url.Values{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestFormTransport_DrivesTracker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"success":true,"data":{"id":"u1"},"message":"User u1 deactivated successfully"}`)
	}))
	defer srv.Close()

	tr := NewDetailTracker("u1", NewFormTransport(srv.URL, "", time.Second))
	_, err := tr.DeactivateUser(context.Background())
	require.NoError(t, err)
	wait(t, tr)
	assert.Equal(t, StatusSuccess, tr.State().Status)
	assert.Equal(t, "User deactivated successfully", tr.State().Message)
}
