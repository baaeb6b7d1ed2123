package playlists_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomelib/tome/internal/api/playlists"
	"github.com/tomelib/tome/internal/catalog"
	"github.com/tomelib/tome/internal/library"
)

type fakeStore struct {
	playlist   *catalog.Playlist
	audiobooks []*catalog.Audiobook
}

func (store *fakeStore) GetPlaylist(id uuid.UUID) (*catalog.Playlist, error) {
	if store.playlist == nil || store.playlist.ID != id {
		return nil, catalog.ErrPlaylistNotFound
	}

	copied := *store.playlist
	return &copied, nil
}

func (store *fakeStore) ListPlaylists() ([]*catalog.Playlist, error) {
	if store.playlist == nil {
		return []*catalog.Playlist{}, nil
	}

	return []*catalog.Playlist{store.playlist}, nil
}

func (store *fakeStore) ListAudiobooksForPlaylist(_ uuid.UUID) ([]*catalog.Audiobook, error) {
	return store.audiobooks, nil
}

func (store *fakeStore) SetPlaylistAuthor(id uuid.UUID, author string) error {
	if store.playlist == nil || store.playlist.ID != id {
		return catalog.ErrPlaylistNotFound
	}

	store.playlist.Author = &author
	return nil
}

func (store *fakeStore) DeletePlaylist(id uuid.UUID) error {
	if store.playlist == nil || store.playlist.ID != id {
		return catalog.ErrPlaylistNotFound
	}

	store.playlist = nil
	return nil
}

type fakeLibrary struct {
	syncResult *library.SyncResult
	syncErr    error
}

func (service *fakeLibrary) SyncPlaylist(_ context.Context, _ uuid.UUID) (*library.SyncResult, error) {
	return service.syncResult, service.syncErr
}

func newServer(store *fakeStore, libraryService *fakeLibrary) *echo.Echo {
	ec := echo.New()
	controller := playlists.New(validator.New(), libraryService, store)
	controller.SetRoutes(ec.Group("/playlists"))
	return ec
}

func testPlaylist() *catalog.Playlist {
	return &catalog.Playlist{
		ID:        uuid.New(),
		RemoteID:  "PL123",
		Title:     "Great Expectations",
		OriginURL: "https://www.youtube.com/playlist?list=PL123",
		ChannelID: uuid.New(),
	}
}

func Test_Get_Playlist(t *testing.T) {
	playlist := testPlaylist()
	server := newServer(&fakeStore{playlist: playlist}, &fakeLibrary{})

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/playlists/%s/", playlist.ID), nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var dto playlists.Dto
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.Equal(t, playlist.ID, dto.ID)
	assert.Equal(t, playlist.ChannelID, dto.ChannelID)
	assert.Nil(t, dto.Author)
}

func Test_Get_UnknownPlaylist(t *testing.T) {
	server := newServer(&fakeStore{}, &fakeLibrary{})

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/playlists/%s/", uuid.New()), nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func Test_Update_Author(t *testing.T) {
	playlist := testPlaylist()
	store := &fakeStore{playlist: playlist}
	server := newServer(store, &fakeLibrary{})

	req := httptest.NewRequest(http.MethodPatch, fmt.Sprintf("/playlists/%s/", playlist.ID), strings.NewReader(`{"author": "Charles Dickens"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var dto playlists.Dto
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	require.NotNil(t, dto.Author)
	assert.Equal(t, "Charles Dickens", *dto.Author)
}

func Test_Update_NoFieldsIsNoOp(t *testing.T) {
	playlist := testPlaylist()
	store := &fakeStore{playlist: playlist}
	server := newServer(store, &fakeLibrary{})

	req := httptest.NewRequest(http.MethodPatch, fmt.Sprintf("/playlists/%s/", playlist.ID), strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, store.playlist.Author)
}

func Test_Sync_ReportsCounts(t *testing.T) {
	playlist := testPlaylist()
	server := newServer(&fakeStore{playlist: playlist}, &fakeLibrary{syncResult: &library.SyncResult{Found: 10, Added: 3}})

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/playlists/%s/sync/", playlist.ID), nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result library.SyncResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 10, result.Found)
	assert.Equal(t, 3, result.Added)
}

func Test_Sync_UnknownPlaylist(t *testing.T) {
	server := newServer(&fakeStore{}, &fakeLibrary{syncErr: catalog.ErrPlaylistNotFound})

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/playlists/%s/sync/", uuid.New()), nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func Test_Delete_Playlist(t *testing.T) {
	playlist := testPlaylist()
	store := &fakeStore{playlist: playlist}
	server := newServer(store, &fakeLibrary{})

	req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/playlists/%s/", playlist.ID), nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, store.playlist)
}

func Test_ListAudiobooks(t *testing.T) {
	playlist := testPlaylist()
	duration := 120.0
	store := &fakeStore{
		playlist: playlist,
		audiobooks: []*catalog.Audiobook{
			{ID: uuid.New(), RemoteID: "vid1", Title: "Chapter One", DurationSeconds: &duration, IsFetched: true, ProgressPercent: 100},
			{ID: uuid.New(), RemoteID: "vid2", Title: "Chapter Two"},
		},
	}
	server := newServer(store, &fakeLibrary{})

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/playlists/%s/audiobooks/", playlist.ID), nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var stubs []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stubs))
	require.Len(t, stubs, 2)
	assert.Equal(t, "vid1", stubs[0]["remote_id"])
	assert.Equal(t, true, stubs[0]["is_fetched"])
	assert.Equal(t, false, stubs[1]["is_fetched"])
}

func Test_ListAudiobooks_UnknownPlaylist(t *testing.T) {
	server := newServer(&fakeStore{}, &fakeLibrary{})

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/playlists/%s/audiobooks/", uuid.New()), nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
