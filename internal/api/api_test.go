package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bayviewassociation/memberdb/internal/dualwrite"
	"github.com/bayviewassociation/memberdb/internal/model"
	"github.com/bayviewassociation/memberdb/internal/notion"
)

type fakeManager struct {
	memorialResult *model.MemorialWriteResult
	memorialErr    error
	chapelResult   *model.ChapelWriteResult
	chapelIn       *model.ChapelApplicationInput
	detailCalls    int
	view           *model.UnifiedPersonView
	migrateOutcome *model.MigrationOutcome
	migrateErr     error
	updateErr      error
	batchLimit     int
	available      bool
}

func (f *fakeManager) CreateMemorial(_ context.Context, sub dualwrite.MemorialSubmission) (*model.MemorialWriteResult, error) {
	return f.memorialResult, f.memorialErr
}

func (f *fakeManager) CreateChapelApplication(_ context.Context, in model.ChapelApplicationInput) (*model.ChapelWriteResult, error) {
	f.chapelIn = &in
	return f.chapelResult, nil
}

func (f *fakeManager) CreateChapelDetail(context.Context, int, *model.ChapelDetail) error {
	f.detailCalls++
	return nil
}

func (f *fakeManager) RecordChapelNotionID(context.Context, int, string) error { return nil }

func (f *fakeManager) UpdateChapelApplicationStatus(_ context.Context, id int, status string) (*model.ChapelApplication, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return &model.ChapelApplication{ID: id, Status: status}, nil
}

func (f *fakeManager) CheckAvailability(context.Context, time.Time, string) (bool, error) {
	return f.available, nil
}

func (f *fakeManager) Search(context.Context, string, model.ListOptions) (*model.SearchResults, error) {
	return &model.SearchResults{}, nil
}

func (f *fakeManager) MigrationProgress(context.Context) (*model.MigrationProgress, error) {
	return &model.MigrationProgress{}, nil
}

func (f *fakeManager) ValidateConsistency(context.Context) ([]model.ConsistencyIssue, error) {
	return nil, nil
}

func (f *fakeManager) PersonUnifiedView(context.Context, int) (*model.UnifiedPersonView, error) {
	return f.view, nil
}

func (f *fakeManager) MigrateMemorial(context.Context, int) (*model.MigrationOutcome, error) {
	return f.migrateOutcome, f.migrateErr
}

func (f *fakeManager) BatchMigrateMemorials(_ context.Context, limit int) (*model.BatchMigrationResult, error) {
	f.batchLimit = limit
	return &model.BatchMigrationResult{}, nil
}

type fakeMirror struct {
	result notion.MirrorResult
}

func (f *fakeMirror) MemorialMirror(context.Context, dualwrite.MemorialSubmission, *model.MemorialWriteResult) notion.MirrorResult {
	return f.result
}

func (f *fakeMirror) ChapelMirror(context.Context, model.ChapelApplicationInput, *model.ChapelDetail, string, *model.ChapelWriteResult) notion.MirrorResult {
	return f.result
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestSubmitGardenSuccess(t *testing.T) {
	fm := &fakeManager{memorialResult: &model.MemorialWriteResult{
		Success: true,
		Legacy:  &model.Memorial{ID: 7},
		Modern:  &model.Person{ID: 101},
		Errors:  []model.WriteError{},
	}}
	router := NewRouter(fm, &fakeMirror{result: notion.MirrorResult{Created: true, PageID: "pg-1"}})

	rr := doJSON(t, router, "POST", "/api/memorial/submit-garden", map[string]any{
		"firstName": "Jane",
		"lastName":  "Doe",
		"birthDate": "1930-02-01",
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	var resp memorialResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "MEM-7", resp.SubmissionID)
	assert.Equal(t, "complete", resp.SyncStatus)
	assert.Equal(t, "pg-1", resp.NotionID)
	assert.Empty(t, resp.Warnings)
}

func TestSubmitGardenMissingNames(t *testing.T) {
	router := NewRouter(&fakeManager{}, &fakeMirror{})
	rr := doJSON(t, router, "POST", "/api/memorial/submit-garden", map[string]any{"firstName": "Jane"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSubmitGardenDegraded(t *testing.T) {
	fm := &fakeManager{memorialResult: &model.MemorialWriteResult{
		Success: true,
		Legacy:  &model.Memorial{ID: 8},
		Errors:  []model.WriteError{{System: "modern", Message: "persons table is gone"}},
	}}
	router := NewRouter(fm, &fakeMirror{})

	rr := doJSON(t, router, "POST", "/api/memorial/submit-garden", map[string]any{
		"firstName": "Jane",
		"lastName":  "Doe",
	})
	// The submission is durable in legacy, so the API still reports success.
	require.Equal(t, http.StatusCreated, rr.Code)

	var resp memorialResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "legacy_only", resp.SyncStatus)
	assert.Nil(t, resp.ModernID)
	require.Len(t, resp.Warnings, 1)
	assert.Contains(t, resp.Warnings[0], "modern")
}

func TestSubmitServiceNormalizesType(t *testing.T) {
	fm := &fakeManager{chapelResult: &model.ChapelWriteResult{
		Success: true,
		Legacy:  &model.ChapelApplication{ID: 3},
		Modern:  &model.Person{ID: 200},
	}}
	router := NewRouter(fm, &fakeMirror{})

	rr := doJSON(t, router, "POST", "/api/chapel/submit-service", map[string]any{
		"applicationType": "memorial-funeral-service",
		"serviceDate":     "2026-09-12",
		"serviceTime":     "14:00",
		"contactName":     "Alice Jones",
		"memberName":      "Robert Jones",
		"deceasedName":    "Harold Jones",
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	require.NotNil(t, fm.chapelIn)
	assert.Equal(t, model.ChapelMemorial, fm.chapelIn.ApplicationType)
	assert.Equal(t, 1, fm.detailCalls)
}

func TestSubmitServiceInvalidType(t *testing.T) {
	router := NewRouter(&fakeManager{}, &fakeMirror{})
	rr := doJSON(t, router, "POST", "/api/chapel/submit-service", map[string]any{
		"applicationType": "picnic",
		"serviceDate":     "2026-09-12",
		"serviceTime":     "14:00",
		"contactName":     "Alice Jones",
		"memberName":      "Robert Jones",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAvailabilityRequiresParams(t *testing.T) {
	router := NewRouter(&fakeManager{available: true}, &fakeMirror{})

	rr := doJSON(t, router, "GET", "/api/chapel/availability", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, router, "GET", "/api/chapel/availability?date=2026-09-12&time=14:00", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["available"])
}

func TestUpdateApplicationStatus(t *testing.T) {
	router := NewRouter(&fakeManager{}, &fakeMirror{})
	rr := doJSON(t, router, "PUT", "/api/chapel/applications/3", map[string]any{"status": "approved"})
	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, float64(3), resp["applicationId"])
	assert.Equal(t, "approved", resp["status"])
}

func TestUpdateApplicationRequiresStatus(t *testing.T) {
	router := NewRouter(&fakeManager{}, &fakeMirror{})
	rr := doJSON(t, router, "PUT", "/api/chapel/applications/3", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUpdateApplicationNotFound(t *testing.T) {
	router := NewRouter(&fakeManager{updateErr: model.ErrNotFound}, &fakeMirror{})
	rr := doJSON(t, router, "PUT", "/api/chapel/applications/999", map[string]any{"status": "approved"})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestGetPersonNotFound(t *testing.T) {
	router := NewRouter(&fakeManager{view: &model.UnifiedPersonView{}}, &fakeMirror{})
	rr := doJSON(t, router, "GET", "/api/persons/42", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestGetPersonBadID(t *testing.T) {
	router := NewRouter(&fakeManager{}, &fakeMirror{})
	rr := doJSON(t, router, "GET", "/api/persons/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSearchRequiresTerm(t *testing.T) {
	router := NewRouter(&fakeManager{}, &fakeMirror{})
	rr := doJSON(t, router, "GET", "/api/search", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestMigrateMemorialNotFound(t *testing.T) {
	router := NewRouter(&fakeManager{migrateErr: model.ErrNotFound}, &fakeMirror{})
	rr := doJSON(t, router, "POST", "/api/migration/memorials/999", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestBatchMigrateDefaultLimit(t *testing.T) {
	fm := &fakeManager{}
	router := NewRouter(fm, &fakeMirror{})
	rr := doJSON(t, router, "POST", "/api/migration/batch", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 100, fm.batchLimit)
}

func TestHealthEndpoint(t *testing.T) {
	router := NewRouter(&fakeManager{}, &fakeMirror{})
	rr := doJSON(t, router, "GET", "/api/health", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Contains(t, []any{"healthy", "unhealthy"}, resp["status"])
}
