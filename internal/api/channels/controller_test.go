package channels_test

import (
	"context"
	"encoding/json"
	"errors"
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
	"github.com/tomelib/tome/internal/api/channels"
	"github.com/tomelib/tome/internal/catalog"
	"github.com/tomelib/tome/internal/library"
	"github.com/tomelib/tome/internal/youtube"
)

type fakeStore struct {
	channel   *catalog.Channel
	playlists []*catalog.Playlist
}

func (store *fakeStore) GetChannel(id uuid.UUID) (*catalog.Channel, error) {
	if store.channel == nil || store.channel.ID != id {
		return nil, catalog.ErrChannelNotFound
	}

	return store.channel, nil
}

func (store *fakeStore) ListChannels() ([]*catalog.Channel, error) {
	if store.channel == nil {
		return []*catalog.Channel{}, nil
	}

	return []*catalog.Channel{store.channel}, nil
}

func (store *fakeStore) ListPlaylistsForChannel(_ uuid.UUID) ([]*catalog.Playlist, error) {
	return store.playlists, nil
}

func (store *fakeStore) DeleteChannel(id uuid.UUID) error {
	if store.channel == nil || store.channel.ID != id {
		return catalog.ErrChannelNotFound
	}

	store.channel = nil
	return nil
}

type fakeLibrary struct {
	channel    *catalog.Channel
	created    bool
	addErr     error
	syncResult *library.SyncResult
	syncErr    error

	receivedURL string
}

func (service *fakeLibrary) AddChannel(_ context.Context, url string) (*catalog.Channel, bool, error) {
	service.receivedURL = url
	return service.channel, service.created, service.addErr
}

func (service *fakeLibrary) SyncChannel(_ context.Context, _ uuid.UUID) (*library.SyncResult, error) {
	return service.syncResult, service.syncErr
}

func newServer(store *fakeStore, libraryService *fakeLibrary) *echo.Echo {
	ec := echo.New()
	controller := channels.New(validator.New(), libraryService, store)
	controller.SetRoutes(ec.Group("/channels"))
	return ec
}

func testChannel() *catalog.Channel {
	return &catalog.Channel{
		ID:        uuid.New(),
		RemoteID:  "UC123",
		Title:     "My Channel",
		OriginURL: "https://www.youtube.com/@example",
	}
}

func postJSON(server *echo.Echo, path string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	return rec
}

func Test_Create_NewChannel(t *testing.T) {
	channel := testChannel()
	libraryService := &fakeLibrary{channel: channel, created: true}
	server := newServer(&fakeStore{}, libraryService)

	rec := postJSON(server, "/channels/", `{"url": "https://www.youtube.com/@example"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "https://www.youtube.com/@example", libraryService.receivedURL)

	var dto channels.Dto
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.Equal(t, channel.ID, dto.ID)
	assert.Equal(t, "UC123", dto.RemoteID)
}

func Test_Create_ExistingChannelReturnsOK(t *testing.T) {
	channel := testChannel()
	server := newServer(&fakeStore{}, &fakeLibrary{channel: channel, created: false})

	rec := postJSON(server, "/channels/", `{"url": "https://www.youtube.com/channel/UC123"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func Test_Create_UnresolvableURL(t *testing.T) {
	server := newServer(&fakeStore{}, &fakeLibrary{addErr: &youtube.NoIdentityError{}})

	rec := postJSON(server, "/channels/", `{"url": "https://www.youtube.com/@doesnotexist"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func Test_Create_InvalidBody(t *testing.T) {
	server := newServer(&fakeStore{}, &fakeLibrary{})

	tests := []struct {
		summary string
		body    string
	}{
		{"missing url", `{}`},
		{"not a url", `{"url": "not a url"}`},
		{"malformed json", `{"url": `},
	}

	for _, tt := range tests {
		t.Run(tt.summary, func(t *testing.T) {
			rec := postJSON(server, "/channels/", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func Test_Create_InternalFailure(t *testing.T) {
	server := newServer(&fakeStore{}, &fakeLibrary{addErr: errors.New("db down")})

	rec := postJSON(server, "/channels/", `{"url": "https://www.youtube.com/@example"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func Test_Sync_ReportsCounts(t *testing.T) {
	channel := testChannel()
	libraryService := &fakeLibrary{syncResult: &library.SyncResult{Found: 5, Added: 2}}
	server := newServer(&fakeStore{channel: channel}, libraryService)

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/channels/%s/sync/", channel.ID), nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result library.SyncResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 5, result.Found)
	assert.Equal(t, 2, result.Added)
}

func Test_Sync_UnknownChannel(t *testing.T) {
	server := newServer(&fakeStore{}, &fakeLibrary{syncErr: catalog.ErrChannelNotFound})

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/channels/%s/sync/", uuid.New()), nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func Test_Delete_CascadeEntryPoint(t *testing.T) {
	channel := testChannel()
	store := &fakeStore{channel: channel}
	server := newServer(store, &fakeLibrary{})

	req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/channels/%s/", channel.ID), nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, store.channel)
}

func Test_ListPlaylists_UnknownChannel(t *testing.T) {
	server := newServer(&fakeStore{}, &fakeLibrary{})

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/channels/%s/playlists/", uuid.New()), nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
