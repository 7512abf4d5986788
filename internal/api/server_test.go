package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"grindvault/internal/backup"
	"grindvault/internal/config"
	"grindvault/internal/database"
	"grindvault/internal/github"
	"grindvault/internal/monitoring"
)

type stubRemote struct {
	uploads  int
	listing  []github.Content
	listErr  error
	deletion int
}

func (s *stubRemote) Upload(ctx context.Context, name string, data []byte) error {
	s.uploads++
	return nil
}

func (s *stubRemote) ListSnapshots(ctx context.Context) ([]github.Content, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.listing, nil
}

func (s *stubRemote) Delete(ctx context.Context, file github.Content) error {
	s.deletion++
	return nil
}

func newTestServer(t *testing.T, remote *stubRemote) (*Server, database.QuestionRepository) {
	t.Helper()

	logger := zaptest.NewLogger(t)
	store, err := database.New(logger, database.Config{DSN: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, store.Migrate())
	t.Cleanup(func() { store.Close() })

	questions := database.NewQuestionRepository(store)
	labels := database.NewLabelRepository(store)

	registry := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(registry)
	service := backup.NewService(logger, config.BackupConfig{Enabled: true, MaxFiles: 5},
		questions, labels, remote, metrics)

	server := NewServer(logger, config.APIConfig{Enabled: true, ListenAddr: ":0"},
		service, remote, store, registry)

	return server, questions
}

func doRequest(t *testing.T, server *Server, req *http.Request) (*httptest.ResponseRecorder, Response) {
	t.Helper()

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	var resp Response
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func multipartBody(t *testing.T, fieldName, fileName string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(fieldName, fileName)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	return body, writer.FormDataContentType()
}

func TestHealth(t *testing.T) {
	server, _ := newTestServer(t, &stubRemote{})

	rec, resp := doRequest(t, server, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "ok", data["status"])
	assert.Equal(t, true, data["backup_enabled"])
}

func TestBackupTrigger(t *testing.T) {
	remote := &stubRemote{}
	server, _ := newTestServer(t, remote)

	rec, resp := doRequest(t, server, httptest.NewRequest(http.MethodGet, "/api/v1/ops/backup", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, "Backup triggered successfully", resp.Data)
	assert.Equal(t, 1, remote.uploads)
}

func TestRestoreUpload(t *testing.T) {
	server, questions := newTestServer(t, &stubRemote{})

	snapshot, err := json.Marshal([]*database.Question{
		{ProblemName: "Two Sum", ProblemLink: "https://leetcode.com/problems/two-sum"},
		{ProblemName: "3Sum", ProblemLink: "https://leetcode.com/problems/3sum"},
	})
	require.NoError(t, err)

	body, contentType := multipartBody(t, "file", "snapshot.json", snapshot)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ops/restore", body)
	req.Header.Set("Content-Type", contentType)

	rec, resp := doRequest(t, server, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, "Restored 2 new questions successfully (0 skipped as duplicates)", resp.Data)

	count, err := questions.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestRestoreRejectsMalformedSnapshot(t *testing.T) {
	server, questions := newTestServer(t, &stubRemote{})

	body, contentType := multipartBody(t, "file", "snapshot.json", []byte("{broken"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ops/restore", body)
	req.Header.Set("Content-Type", contentType)

	rec, resp := doRequest(t, server, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "restore failed")

	count, err := questions.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRestoreRequiresFileField(t *testing.T) {
	server, _ := newTestServer(t, &stubRemote{})

	body, contentType := multipartBody(t, "wrong_field", "snapshot.json", []byte("[]"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ops/restore", body)
	req.Header.Set("Content-Type", contentType)

	rec, resp := doRequest(t, server, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, resp.Success)
}

func TestRestoreRejectsNonMultipart(t *testing.T) {
	server, _ := newTestServer(t, &stubRemote{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ops/restore", bytes.NewReader([]byte("[]")))
	req.Header.Set("Content-Type", "application/json")

	rec, _ := doRequest(t, server, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSnapshots(t *testing.T) {
	remote := &stubRemote{
		listing: []github.Content{
			{Name: "questions_snapshot_2025-08-07_10-00.json", Path: "snapshots/questions_snapshot_2025-08-07_10-00.json", SHA: "abc", Type: "file", Size: 120},
		},
	}
	server, _ := newTestServer(t, remote)

	rec, resp := doRequest(t, server, httptest.NewRequest(http.MethodGet, "/api/v1/ops/snapshots", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)

	listing := resp.Data.([]interface{})
	require.Len(t, listing, 1)
	entry := listing[0].(map[string]interface{})
	assert.Equal(t, "questions_snapshot_2025-08-07_10-00.json", entry["name"])
}

func TestSnapshotsRemoteFailure(t *testing.T) {
	remote := &stubRemote{listErr: &github.APIError{StatusCode: 500, Message: "boom"}}
	server, _ := newTestServer(t, remote)

	rec, resp := doRequest(t, server, httptest.NewRequest(http.MethodGet, "/api/v1/ops/snapshots", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "failed to list snapshots")
}

func TestMetricsEndpoint(t *testing.T) {
	server, _ := newTestServer(t, &stubRemote{})

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "grindvault_")
}

func TestUnknownRoute(t *testing.T) {
	server, _ := newTestServer(t, &stubRemote{})

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
