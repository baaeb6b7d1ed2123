package audiobooks_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomelib/tome/internal/api/audiobooks"
	"github.com/tomelib/tome/internal/catalog"
	"github.com/tomelib/tome/internal/download"
	"github.com/tomelib/tome/internal/youtube"
)

var errExpected = errors.New("test: expected error")

type fakeStore struct {
	audiobook    *catalog.Audiobook
	savedSummary string
}

func (store *fakeStore) GetAudiobook(id uuid.UUID) (*catalog.Audiobook, error) {
	if store.audiobook == nil || store.audiobook.ID != id {
		return nil, catalog.ErrAudiobookNotFound
	}

	return store.audiobook, nil
}

func (store *fakeStore) ListAudiobooks() ([]*catalog.Audiobook, error) {
	if store.audiobook == nil {
		return []*catalog.Audiobook{}, nil
	}

	return []*catalog.Audiobook{store.audiobook}, nil
}

func (store *fakeStore) SetAudiobookSummary(_ uuid.UUID, summary string) error {
	store.savedSummary = summary
	return nil
}

func (store *fakeStore) DeleteAudiobook(id uuid.UUID) error {
	if store.audiobook == nil || store.audiobook.ID != id {
		return catalog.ErrAudiobookNotFound
	}

	store.audiobook = nil
	return nil
}

type fakeDownloadService struct {
	outcome download.RequestOutcome
	err     error
}

func (service *fakeDownloadService) Request(_ uuid.UUID) (download.RequestOutcome, error) {
	return service.outcome, service.err
}

type fakeStreamResolver struct {
	url  string
	err  error
	info *youtube.StreamDebugInfo
}

func (resolver *fakeStreamResolver) ResolveStreamURL(_ context.Context, _ string) (string, error) {
	return resolver.url, resolver.err
}

func (resolver *fakeStreamResolver) StreamInfo(_ context.Context, _ string) (*youtube.StreamDebugInfo, error) {
	return resolver.info, resolver.err
}

type fakeSummarizer struct {
	enabled bool
	summary string
	err     error
}

func (summarizer *fakeSummarizer) Enabled() bool { return summarizer.enabled }

func (summarizer *fakeSummarizer) Summarize(_ context.Context, _ string, _ string) (string, error) {
	return summarizer.summary, summarizer.err
}

func newServer(t *testing.T, store *fakeStore, downloadService *fakeDownloadService, resolver *fakeStreamResolver, summarizer *fakeSummarizer) *echo.Echo {
	ec := echo.New()
	controller := audiobooks.New(downloadService, resolver, summarizer, t.TempDir(), store)
	controller.SetRoutes(ec.Group("/audiobooks"))
	return ec
}

func testAudiobook() *catalog.Audiobook {
	description := "a description"
	return &catalog.Audiobook{
		ID:          uuid.New(),
		RemoteID:    "vid1",
		Title:       "Chapter One",
		Description: &description,
		MediaURL:    "https://www.youtube.com/watch?v=vid1",
		PlaylistID:  uuid.New(),
	}
}

func performRequest(server *echo.Echo, method string, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	return rec
}

func Test_Materialize_Statuses(t *testing.T) {
	tests := []struct {
		summary        string
		outcome        download.RequestOutcome
		expectedCode   int
		expectedStatus string
	}{
		{"accepted", download.OutcomeAccepted, http.StatusAccepted, "accepted"},
		{"already in flight", download.OutcomeAlreadyRequested, http.StatusOK, "already_requested"},
		{"already materialized", download.OutcomeAlreadyMaterialized, http.StatusOK, "already_materialized"},
	}

	for _, tt := range tests {
		t.Run(tt.summary, func(t *testing.T) {
			audiobook := testAudiobook()
			server := newServer(t, &fakeStore{audiobook: audiobook}, &fakeDownloadService{outcome: tt.outcome}, &fakeStreamResolver{}, &fakeSummarizer{})

			rec := performRequest(server, http.MethodPost, fmt.Sprintf("/audiobooks/%s/materialize/", audiobook.ID))
			assert.Equal(t, tt.expectedCode, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.expectedStatus, body["status"])
		})
	}
}

func Test_Materialize_UnknownAudiobook(t *testing.T) {
	server := newServer(t, &fakeStore{}, &fakeDownloadService{err: catalog.ErrAudiobookNotFound}, &fakeStreamResolver{}, &fakeSummarizer{})

	rec := performRequest(server, http.MethodPost, fmt.Sprintf("/audiobooks/%s/materialize/", uuid.New()))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func Test_Materialize_InvalidID(t *testing.T) {
	server := newServer(t, &fakeStore{}, &fakeDownloadService{}, &fakeStreamResolver{}, &fakeSummarizer{})

	rec := performRequest(server, http.MethodPost, "/audiobooks/not-a-uuid/materialize/")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func Test_Stream_RedirectsToResolvedURL(t *testing.T) {
	audiobook := testAudiobook()
	resolver := &fakeStreamResolver{url: "https://cdn/audio.m4a"}
	server := newServer(t, &fakeStore{audiobook: audiobook}, &fakeDownloadService{}, resolver, &fakeSummarizer{})

	rec := performRequest(server, http.MethodGet, fmt.Sprintf("/audiobooks/%s/stream/", audiobook.ID))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://cdn/audio.m4a", rec.Header().Get("Location"))
}

func Test_Stream_NoAudioAvailable(t *testing.T) {
	audiobook := testAudiobook()
	resolver := &fakeStreamResolver{err: &youtube.NoAudioStreamError{}}
	server := newServer(t, &fakeStore{audiobook: audiobook}, &fakeDownloadService{}, resolver, &fakeSummarizer{})

	rec := performRequest(server, http.MethodGet, fmt.Sprintf("/audiobooks/%s/stream/", audiobook.ID))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func Test_Stream_ResolutionFailure(t *testing.T) {
	audiobook := testAudiobook()
	resolver := &fakeStreamResolver{err: errExpected}
	server := newServer(t, &fakeStore{audiobook: audiobook}, &fakeDownloadService{}, resolver, &fakeSummarizer{})

	rec := performRequest(server, http.MethodGet, fmt.Sprintf("/audiobooks/%s/stream/", audiobook.ID))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func Test_GenerateSummary_SavedAndReturned(t *testing.T) {
	audiobook := testAudiobook()
	store := &fakeStore{audiobook: audiobook}
	summarizer := &fakeSummarizer{enabled: true, summary: "A fine summary."}
	server := newServer(t, store, &fakeDownloadService{}, &fakeStreamResolver{}, summarizer)

	rec := performRequest(server, http.MethodPost, fmt.Sprintf("/audiobooks/%s/summary/", audiobook.ID))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "A fine summary.", store.savedSummary)
}

func Test_GenerateSummary_NotConfigured(t *testing.T) {
	audiobook := testAudiobook()
	server := newServer(t, &fakeStore{audiobook: audiobook}, &fakeDownloadService{}, &fakeStreamResolver{}, &fakeSummarizer{enabled: false})

	rec := performRequest(server, http.MethodPost, fmt.Sprintf("/audiobooks/%s/summary/", audiobook.ID))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func Test_GenerateSummary_NoDescription(t *testing.T) {
	audiobook := testAudiobook()
	audiobook.Description = nil
	store := &fakeStore{audiobook: audiobook}
	server := newServer(t, store, &fakeDownloadService{}, &fakeStreamResolver{}, &fakeSummarizer{enabled: true, summary: ""})

	rec := performRequest(server, http.MethodPost, fmt.Sprintf("/audiobooks/%s/summary/", audiobook.ID))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Empty(t, store.savedSummary)
}

func Test_Delete_Audiobook(t *testing.T) {
	audiobook := testAudiobook()
	store := &fakeStore{audiobook: audiobook}
	server := newServer(t, store, &fakeDownloadService{}, &fakeStreamResolver{}, &fakeSummarizer{})

	rec := performRequest(server, http.MethodDelete, fmt.Sprintf("/audiobooks/%s/", audiobook.ID))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, store.audiobook)

	rec = performRequest(server, http.MethodDelete, fmt.Sprintf("/audiobooks/%s/", audiobook.ID))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func Test_Delete_RemovesMaterializedArtifact(t *testing.T) {
	storageRoot := t.TempDir()
	artifactDir := filepath.Join(storageRoot, "audio", "playlist_x")
	require.NoError(t, os.MkdirAll(artifactDir, os.ModePerm))
	artifactPath := filepath.Join(artifactDir, "Chapter One_vid1.mp3")
	require.NoError(t, os.WriteFile(artifactPath, []byte("audio"), 0644))

	audiobook := testAudiobook()
	localPath := "/audio/playlist_x/Chapter One_vid1.mp3"
	audiobook.LocalPath = &localPath
	audiobook.IsFetched = true
	store := &fakeStore{audiobook: audiobook}

	ec := echo.New()
	controller := audiobooks.New(&fakeDownloadService{}, &fakeStreamResolver{}, &fakeSummarizer{}, storageRoot, store)
	controller.SetRoutes(ec.Group("/audiobooks"))

	rec := performRequest(ec, http.MethodDelete, fmt.Sprintf("/audiobooks/%s/", audiobook.ID))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoFileExists(t, artifactPath)
}

func Test_Get_UnknownAudiobook(t *testing.T) {
	server := newServer(t, &fakeStore{}, &fakeDownloadService{}, &fakeStreamResolver{}, &fakeSummarizer{})

	rec := performRequest(server, http.MethodGet, fmt.Sprintf("/audiobooks/%s/", uuid.New()))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
