package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, baseURL, exportDir string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := fmt.Sprintf(`app:
  name: bookingctl-test
backend:
  base_url: %s
  timeout: 5s
logging:
  level: error
  output: stderr
exports:
  path: %s
`, baseURL, exportDir)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/carBookings/buyer/5", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[{"bookingId":11,"carId":40,"buyerId":5,"status":"PENDING","conversation":[]}]}`)
	})
	mux.HandleFunc("GET /api/v1/mobile/requests/5", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	})
	mux.HandleFunc("GET /api/v1/mobile/requests/buyer/5", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"requestId":31,"mobileId":9,"buyerUserId":5,"status":"COMPLETED","conversation":[
			{"senderId":5,"senderType":"BUYER","message":"still available?","timestamp":"2024-03-09T10:00:00Z"},
			{"senderId":8,"senderType":"SELLER","message":"yes","timestamp":"2024-03-09T10:05:00Z"}]}]`)
	})
	mux.HandleFunc("PATCH /api/laptopBookings/7/message", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("message") != "hello" || r.URL.Query().Get("senderUserId") != "5" {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"message":"bad message"}`)
			return
		}
		fmt.Fprint(w, `{"bookingId":7,"laptopId":3,"buyerUserId":5,"status":"IN_NEGOTIATION","conversation":[
			{"senderId":5,"senderType":"BUYER","message":"hello"}]}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRunList(t *testing.T) {
	srv := newBackend(t)
	cfgPath := writeConfig(t, srv.URL, t.TempDir())

	var out bytes.Buffer
	err := run(context.Background(), []string{"-config", cfgPath, "list", "-entity", "car", "-buyer", "5"}, &out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "STATUS")
	assert.Contains(t, out.String(), "11")
	assert.Contains(t, out.String(), "Pending")
}

func TestRunThreadFallsBackToBuyer(t *testing.T) {
	srv := newBackend(t)
	cfgPath := writeConfig(t, srv.URL, t.TempDir())

	var out bytes.Buffer
	err := run(context.Background(), []string{"-config", cfgPath, "thread", "-entity", "mobile", "-id", "31", "-context", "5"}, &out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Booking 31 on mobile 9: Completed")
	assert.Contains(t, out.String(), "still available?")
	assert.Contains(t, out.String(), "(chat closed)")
}

func TestRunSend(t *testing.T) {
	srv := newBackend(t)
	cfgPath := writeConfig(t, srv.URL, t.TempDir())

	var out bytes.Buffer
	err := run(context.Background(), []string{"-config", cfgPath, "send", "-entity", "laptop", "-id", "7", "-sender", "5", "-message", " hello "}, &out)
	require.NoError(t, err)
	assert.Equal(t, "Booking 7 now has 1 messages\n", out.String())
}

func TestRunExport(t *testing.T) {
	srv := newBackend(t)
	dir := t.TempDir()
	cfgPath := writeConfig(t, srv.URL, dir)

	var out bytes.Buffer
	err := run(context.Background(), []string{"-config", cfgPath, "export", "-entity", "car", "-buyer", "5"}, &out)
	require.NoError(t, err)

	path := bytes.TrimSpace(out.Bytes())
	require.NotEmpty(t, path)
	assert.FileExists(t, string(path))
	assert.Equal(t, dir, filepath.Dir(string(path)))
}

func TestRunUsageErrors(t *testing.T) {
	srv := newBackend(t)
	cfgPath := writeConfig(t, srv.URL, t.TempDir())

	tests := []struct {
		name string
		args []string
	}{
		{"no command", []string{"-config", cfgPath}},
		{"unknown command", []string{"-config", cfgPath, "purge"}},
		{"unknown entity", []string{"-config", cfgPath, "list", "-entity", "boat", "-buyer", "5"}},
		{"list without owner", []string{"-config", cfgPath, "list", "-entity", "car"}},
		{"send without message", []string{"-config", cfgPath, "send", "-entity", "car", "-id", "1", "-sender", "2"}},
		{"create without buyer", []string{"-config", cfgPath, "create", "-entity", "car", "-listing", "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(context.Background(), tt.args, &bytes.Buffer{})
			require.ErrorIs(t, err, errUsage)
		})
	}
}

func TestRunMissingConfig(t *testing.T) {
	err := run(context.Background(), []string{"-config", filepath.Join(t.TempDir(), "absent.yaml"), "list"}, &bytes.Buffer{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, errUsage)
}
