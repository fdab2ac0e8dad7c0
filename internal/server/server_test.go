package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/complaints-extractor/constants"
	"github.com/joseph-ayodele/complaints-extractor/internal/core/async"
	"github.com/joseph-ayodele/complaints-extractor/internal/entity"
	"github.com/joseph-ayodele/complaints-extractor/internal/repository"
	"github.com/joseph-ayodele/complaints-extractor/internal/storage"
)

type fakeQueue struct {
	mu    sync.Mutex
	tasks []async.Task
	err   error
}

func (q *fakeQueue) Enqueue(_ context.Context, task async.Task) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return "", q.err
	}
	q.tasks = append(q.tasks, task)
	return task.ID, nil
}

func (q *fakeQueue) Shutdown(context.Context) {}

func (q *fakeQueue) Len(context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.tasks)), nil
}

type testEnv struct {
	srv   *Server
	jobs  repository.ProcessedFileRepository
	media *storage.Media
	queue *fakeQueue
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := t.TempDir()

	db, err := repository.Open(context.Background(), repository.Config{
		DSN: "file:" + filepath.Join(dir, "jobs.db") + "?_pragma=busy_timeout(5000)",
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(logger) })
	require.NoError(t, db.Migrate(context.Background(), logger))

	media, err := storage.NewMedia(filepath.Join(dir, "media"), logger)
	require.NoError(t, err)

	env := &testEnv{
		jobs:  repository.NewProcessedFileRepository(db, logger),
		media: media,
		queue: &fakeQueue{},
	}
	env.srv = New(Deps{
		Jobs:   env.jobs,
		Media:  media,
		Queue:  env.queue,
		DB:     db,
		Logger: logger,
	})
	return env
}

func workbook(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	_, err := f.NewSheet("Dados")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Dados", "A1", "DESCRIÇÃO"))
	require.NoError(t, f.SetCellValue("Dados", "A2", "sem sinal"))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func uploadRequest(t *testing.T, field, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestUpload_Accepted(t *testing.T) {
	env := newTestEnv(t)

	req := uploadRequest(t, "documento", "reclamacoes agosto.xlsx", workbook(t))
	req.Header.Set("X-Request-ID", "req-42")
	resp, err := env.srv.App().Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "req-42", resp.Header.Get("X-Request-ID"))

	body := decode(t, resp)
	id, err := uuid.Parse(body["id"].(string))
	require.NoError(t, err)
	assert.Equal(t, "/status/"+id.String(), resp.Header.Get("Location"))
	assert.Equal(t, "PENDING", body["status"])

	require.Len(t, env.queue.tasks, 1)
	assert.Equal(t, id, env.queue.tasks[0].JobID)
	assert.Equal(t, env.queue.tasks[0].ID, body["task_id"])

	pf, err := env.jobs.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "reclamacoes_agosto.xlsx", pf.FileName)
	require.NotNil(t, pf.TaskID)
	assert.Equal(t, env.queue.tasks[0].ID, *pf.TaskID)
	assert.True(t, env.media.Exists(pf.FileName))
}

func TestUpload_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		filename string
		content  []byte
		want     int
	}{
		{"missing field", "arquivo", "a.xlsx", []byte("x"), http.StatusBadRequest},
		{"wrong extension", "documento", "a.csv", []byte("a;b"), http.StatusBadRequest},
		{"not a workbook", "documento", "a.xlsx", []byte("PROTOCOLO;DESCRIÇÃO\n1;x\n"), http.StatusUnsupportedMediaType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			resp, err := env.srv.App().Test(uploadRequest(t, tt.field, tt.filename, tt.content), -1)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
			assert.NotEmpty(t, decode(t, resp)["error"])
			assert.Empty(t, env.queue.tasks)

			items, err := env.jobs.List(context.Background(), 10)
			require.NoError(t, err)
			assert.Empty(t, items)
		})
	}
}

func TestUpload_DispatchFailureMarksJobFailed(t *testing.T) {
	env := newTestEnv(t)
	env.queue.err = errors.New("broker down")

	resp, err := env.srv.App().Test(uploadRequest(t, "documento", "a.xlsx", workbook(t)), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	items, err := env.jobs.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, constants.JobStatusFailed, items[0].Status)
}

func TestStatus(t *testing.T) {
	env := newTestEnv(t)
	pf := entity.NewProcessedFile("a.xlsx")
	require.NoError(t, env.jobs.Create(context.Background(), pf))

	resp, err := env.srv.App().Test(httptest.NewRequest(http.MethodGet, "/status/"+pf.ID.String(), nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, "PENDING", body["status"])
	assert.Equal(t, "a.xlsx", body["file_name"])
	assert.NotContains(t, body, "download_url")

	resp, err = env.srv.App().Test(httptest.NewRequest(http.MethodGet, "/status/not-a-uuid", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", decode(t, resp)["code"])

	resp, err = env.srv.App().Test(httptest.NewRequest(http.MethodGet, "/status/"+uuid.NewString(), nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDownload(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	pf := entity.NewProcessedFile("a.xlsx")
	require.NoError(t, env.jobs.Create(ctx, pf))

	get := func() *http.Response {
		resp, err := env.srv.App().Test(httptest.NewRequest(http.MethodGet, "/download/"+pf.ID.String(), nil), -1)
		require.NoError(t, err)
		return resp
	}

	assert.Equal(t, http.StatusNotFound, get().StatusCode)

	require.NoError(t, pf.MarkInProgress())
	require.NoError(t, pf.MarkCompleted("processado_a.xlsx"))
	require.NoError(t, env.jobs.Save(ctx, pf))

	// completed but the file is gone
	assert.Equal(t, http.StatusNotFound, get().StatusCode)

	content := workbook(t)
	_, err := env.media.Save("processado_a.xlsx", bytes.NewReader(content))
	require.NoError(t, err)

	resp := get()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, constants.XLSXContentType, resp.Header.Get("Content-Type"))
	assert.Equal(t, "inline; filename=processado_a.xlsx", resp.Header.Get("Content-Disposition"))
	got, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, content, got)

	status := decode(t, mustGet(t, env, "/status/"+pf.ID.String()))
	assert.Equal(t, "/download/"+pf.ID.String(), status["download_url"])
}

func TestListJobs(t *testing.T) {
	env := newTestEnv(t)
	for _, name := range []string{"a.xlsx", "b.xlsx"} {
		pf := entity.NewProcessedFile(name)
		pf.CreatedAt = time.Now().UTC().Add(-time.Duration(len(name)) * time.Second)
		require.NoError(t, env.jobs.Create(context.Background(), pf))
	}

	body := decode(t, mustGet(t, env, "/jobs?limit=1"))
	jobs, ok := body["jobs"].([]any)
	require.True(t, ok)
	assert.Len(t, jobs, 1)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	body := decode(t, mustGet(t, env, "/healthz"))
	assert.Equal(t, "ok", body["status"])

	body = decode(t, mustGet(t, env, "/healthz?deep=true"))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "ok", body["db"])
	assert.Equal(t, "disabled", body["redis"])
	assert.EqualValues(t, 0, body["queue_depth"])
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t)
	resp := mustGet(t, env, "/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.True(t, strings.Contains(resp.Header.Get("Content-Type"), "application/json"))
}

func mustGet(t *testing.T, env *testEnv, path string) *http.Response {
	t.Helper()
	resp, err := env.srv.App().Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
	require.NoError(t, err)
	return resp
}

func TestExportJobs(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.jobs.Create(context.Background(), entity.NewProcessedFile("a.xlsx")))

	resp := mustGet(t, env, "/jobs/export?status=PENDING")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, constants.XLSXContentType, resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "jobs.xlsx")

	resp = mustGet(t, env, "/jobs/export?status=DONE")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
