package http

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ViniZap4/sharednotes/domain"
	"github.com/ViniZap4/sharednotes/feed"
	"github.com/ViniZap4/sharednotes/filesystem"
)

func newTestServer(t *testing.T, store NoteStore, hub *feed.Hub) *Server {
	t.Helper()
	return NewServer(store, hub, zerolog.Nop())
}

func fileStore(t *testing.T) *filesystem.Store {
	t.Helper()
	return filesystem.NewStore(afero.NewOsFs(), filepath.Join(t.TempDir(), "notes.json"))
}

func do(t *testing.T, s *Server, method, target, body string) (int, string, nethttp.Header) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := NewApp(s).Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(data), resp.Header
}

func TestHandleList_Empty(t *testing.T) {
	s := newTestServer(t, fileStore(t), nil)

	status, body, header := do(t, s, "GET", "/notes?action=list", "")

	assert.Equal(t, 200, status)
	assert.Equal(t, "[]", body)
	assert.Equal(t, "application/json; charset=utf-8", header.Get("Content-Type"))
}

func TestHandleList_BadAction(t *testing.T) {
	s := newTestServer(t, fileStore(t), nil)

	for _, target := range []string{"/notes", "/notes?action=delete", "/notes?action="} {
		status, body, _ := do(t, s, "GET", target, "")
		assert.Equal(t, 400, status, target)
		assert.JSONEq(t, `{"error":"Bad request"}`, body, target)
	}
}

func TestHandleAppend_ThenList(t *testing.T) {
	s := newTestServer(t, fileStore(t), nil)

	status, body, _ := do(t, s, "POST", "/notes", `{"text":"<b>hi</b> / ü","title":"T","author":"A","when":"today"}`)
	require.Equal(t, 200, status)
	assert.Equal(t, `[{"text":"hi / ü","title":"T","author":"A","when":"today"}]`, body)

	status, body, _ = do(t, s, "POST", "/notes", `{"text":"second"}`)
	require.Equal(t, 200, status)
	assert.JSONEq(t, `[
		{"text":"second","title":"","author":"","when":""},
		{"text":"hi / ü","title":"T","author":"A","when":"today"}
	]`, body)

	status, listed, _ := do(t, s, "GET", "/notes?action=list", "")
	require.Equal(t, 200, status)
	assert.Equal(t, body, listed)
}

func TestHandleAppend_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		want   string
	}{
		{"not json", "text=hi", 400, `{"error":"Invalid JSON"}`},
		{"array", `["hi"]`, 400, `{"error":"Invalid JSON"}`},
		{"null", "null", 400, `{"error":"Invalid JSON"}`},
		{"no body", "", 400, `{"error":"Invalid JSON"}`},
		{"missing text", `{"title":"x"}`, 422, `{"error":"Text required"}`},
		{"blank text", `{"text":"   "}`, 422, `{"error":"Text required"}`},
		{"markup only", `{"text":"<br>"}`, 422, `{"error":"Text required"}`},
		{"number text", `{"text":42}`, 422, `{"error":"Text required"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := fileStore(t)
			s := newTestServer(t, store, nil)

			status, body, _ := do(t, s, "POST", "/notes", tt.body)

			assert.Equal(t, tt.status, status)
			assert.JSONEq(t, tt.want, body)
			assert.Empty(t, store.List(context.Background()))
		})
	}
}

type failingStore struct{}

func (failingStore) List(ctx context.Context) []domain.Note { return []domain.Note{} }

func (failingStore) Append(ctx context.Context, fields domain.RawFields) ([]domain.Note, error) {
	if _, err := domain.NewNote(fields); err != nil {
		return nil, err
	}
	return nil, &domain.WriteError{Op: "replace", Err: errors.New("/secret/path: no space left on device")}
}

func TestHandleAppend_WriteFailed(t *testing.T) {
	s := newTestServer(t, failingStore{}, nil)

	status, body, _ := do(t, s, "POST", "/notes", `{"text":"hi"}`)

	assert.Equal(t, 500, status)
	assert.JSONEq(t, `{"error":"Write failed"}`, body)
	assert.NotContains(t, body, "secret")
}

func TestHandleNotes_MethodNotAllowed(t *testing.T) {
	s := newTestServer(t, fileStore(t), nil)

	for _, method := range []string{"PUT", "DELETE", "PATCH"} {
		status, body, header := do(t, s, method, "/notes", "")
		assert.Equal(t, 405, status, method)
		assert.JSONEq(t, `{"error":"Method not allowed"}`, body, method)
		assert.Equal(t, "GET, POST", header.Get("Allow"), method)
	}
}

func TestHandleNotes_LegacyPath(t *testing.T) {
	s := newTestServer(t, fileStore(t), nil)

	status, _, _ := do(t, s, "POST", "/notes.php", `{"text":"legacy"}`)
	require.Equal(t, 200, status)

	status, body, _ := do(t, s, "GET", "/notes.php?action=list", "")
	assert.Equal(t, 200, status)
	assert.Contains(t, body, `"legacy"`)
}

func TestRequestID(t *testing.T) {
	s := newTestServer(t, fileStore(t), nil)

	_, _, header := do(t, s, "GET", "/healthz", "")

	assert.Len(t, header.Get("X-Request-Id"), 36)
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t, fileStore(t), nil)

	status, body, _ := do(t, s, "GET", "/nope", "")

	assert.Equal(t, 404, status)
	assert.Contains(t, body, `"error"`)
}

func TestHandleStream(t *testing.T) {
	hub := feed.NewHub(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	defer func() {
		cancel()
		<-stopped
	}()

	s := newTestServer(t, fileStore(t), hub)
	app := NewApp(s)

	type result struct {
		resp *nethttp.Response
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := app.Test(httptest.NewRequest("GET", "/notes/events", nil), -1)
		done <- result{resp, err}
	}()

	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, 2*time.Second, 5*time.Millisecond)

	status, _, _ := do(t, s, "POST", "/notes", `{"text":"streamed"}`)
	require.Equal(t, 200, status)

	// stopping the hub ends the stream so the response completes
	time.Sleep(50 * time.Millisecond)
	cancel()

	var res result
	select {
	case res = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not finish")
	}
	require.NoError(t, res.err)
	defer res.resp.Body.Close()

	assert.Equal(t, "text/event-stream", res.resp.Header.Get("Content-Type"))
	var lines []string
	sc := bufio.NewScanner(res.resp.Body)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	joined := strings.Join(lines, "\n")
	assert.Contains(t, joined, "event: note_created")
	assert.Contains(t, joined, fmt.Sprintf("data: %s", `{"type":"note_created","note":{"text":"streamed","title":"","author":"","when":""}}`))
}

func TestHandleStream_NoHub(t *testing.T) {
	s := newTestServer(t, fileStore(t), nil)

	status, _, _ := do(t, s, "GET", "/notes/events", "")

	assert.Equal(t, 404, status)
}
