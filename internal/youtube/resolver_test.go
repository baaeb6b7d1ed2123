package youtube

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner satisfies commandRunner with canned extractor output, keyed on
// the URL argument (always the final argument of an invocation).
type fakeRunner struct {
	outputs     map[string]string
	err         error
	invocations [][]string
}

func (runner *fakeRunner) run(_ context.Context, args ...string) ([]byte, error) {
	runner.invocations = append(runner.invocations, args)
	if runner.err != nil {
		return nil, runner.err
	}

	url := args[len(args)-1]
	out, ok := runner.outputs[url]
	if !ok {
		return nil, fmt.Errorf("no canned output for %s", url)
	}

	return []byte(out), nil
}

func (runner *fakeRunner) runStreaming(_ context.Context, _ func(string), args ...string) error {
	runner.invocations = append(runner.invocations, args)
	return runner.err
}

func newTestClient(runner *fakeRunner) *Client {
	client := New(Config{})
	client.runner = runner
	return client
}

func Test_ResolveCollection_IdentityFallback(t *testing.T) {
	tests := []struct {
		summary          string
		document         string
		expectedRemoteID string
		expectedTitle    string
	}{
		{
			summary:          "channel ID preferred",
			document:         `{"channel_id": "UC123", "uploader_id": "@handle", "id": "raw", "channel": "My Channel"}`,
			expectedRemoteID: "UC123",
			expectedTitle:    "My Channel",
		},
		{
			summary:          "uploader ID when channel ID absent",
			document:         `{"uploader_id": "@handle", "id": "raw", "uploader": "Uploader Name"}`,
			expectedRemoteID: "@handle",
			expectedTitle:    "Uploader Name",
		},
		{
			summary:          "raw ID as last resort",
			document:         `{"id": "PL456", "title": "Some Playlist"}`,
			expectedRemoteID: "PL456",
			expectedTitle:    "Some Playlist",
		},
		{
			summary:          "title falls back to placeholder",
			document:         `{"id": "PL456"}`,
			expectedRemoteID: "PL456",
			expectedTitle:    "Unknown Channel",
		},
	}

	for _, tt := range tests {
		t.Run(tt.summary, func(t *testing.T) {
			url := "https://www.youtube.com/@example"
			client := newTestClient(&fakeRunner{outputs: map[string]string{url: tt.document}})

			info, err := client.ResolveCollection(context.Background(), url)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedRemoteID, info.RemoteID)
			assert.Equal(t, tt.expectedTitle, info.Title)
			assert.Equal(t, url, info.OriginURL)
		})
	}
}

func Test_ResolveCollection_NoIdentity(t *testing.T) {
	url := "https://www.youtube.com/@example"
	client := newTestClient(&fakeRunner{outputs: map[string]string{url: `{"title": "nameless"}`}})

	_, err := client.ResolveCollection(context.Background(), url)

	var noIdentity *NoIdentityError
	require.ErrorAs(t, err, &noIdentity)
	assert.True(t, IsNotResolvable(err))
}

func Test_ResolveCollection_ExtractionFailure(t *testing.T) {
	client := newTestClient(&fakeRunner{err: errors.New("network unreachable")})

	_, err := client.ResolveCollection(context.Background(), "https://www.youtube.com/@example")

	var extraction *ExtractionError
	require.ErrorAs(t, err, &extraction)
	assert.True(t, IsNotResolvable(err))
}

func Test_ResolveCollection_DescriptionTruncatedOnRuneBoundary(t *testing.T) {
	description := strings.Repeat("б", maxDescriptionLength+10)
	url := "https://www.youtube.com/@example"
	document := fmt.Sprintf(`{"channel_id": "UC123", "description": %q}`, description)
	client := newTestClient(&fakeRunner{outputs: map[string]string{url: document}})

	info, err := client.ResolveCollection(context.Background(), url)
	require.NoError(t, err)

	runes := []rune(info.Description)
	assert.Len(t, runes, maxDescriptionLength)
	assert.Equal(t, strings.Repeat("б", maxDescriptionLength), info.Description)
}

func Test_ResolveCollection_BestThumbnailByArea(t *testing.T) {
	url := "https://www.youtube.com/@example"
	document := `{
		"channel_id": "UC123",
		"thumbnails": [
			{"url": "https://img/small", "width": 120, "height": 90},
			{"url": "https://img/large", "width": 1280, "height": 720},
			{"url": "https://img/medium", "width": 640, "height": 480},
			{"url": "", "width": 9999, "height": 9999}
		]
	}`
	client := newTestClient(&fakeRunner{outputs: map[string]string{url: document}})

	info, err := client.ResolveCollection(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, "https://img/large", info.ThumbnailURL)
}

func Test_ListSubCollections_SkipsMalformedAndMediaEntries(t *testing.T) {
	channelURL := "https://www.youtube.com/@example"
	listingURL := channelURL + "/playlists"
	document := `{
		"channel_id": "UC123",
		"entries": [
			{"_type": "playlist", "id": "PL1", "title": "Book One"},
			null,
			{"id": "", "title": "deleted"},
			{"id": "vid1", "title": "A loose video", "duration": 120.5},
			{"_type": "playlist", "id": "PL2", "title": ""}
		]
	}`
	client := newTestClient(&fakeRunner{outputs: map[string]string{listingURL: document}})

	collections, err := client.ListSubCollections(context.Background(), channelURL)
	require.NoError(t, err)
	require.Len(t, collections, 2)

	assert.Equal(t, "PL1", collections[0].RemoteID)
	assert.Equal(t, "Book One", collections[0].Title)
	assert.Equal(t, "https://www.youtube.com/playlist?list=PL1", collections[0].OriginURL)

	assert.Equal(t, "PL2", collections[1].RemoteID)
	assert.Equal(t, "Untitled Playlist", collections[1].Title)
}

func Test_ListSubCollections_AppliesPageCap(t *testing.T) {
	channelURL := "https://www.youtube.com/@example"
	runner := &fakeRunner{outputs: map[string]string{channelURL + "/playlists": `{"channel_id": "UC123", "entries": []}`}}
	client := New(Config{PlaylistPageSize: 25})
	client.runner = runner

	_, err := client.ListSubCollections(context.Background(), channelURL)
	require.NoError(t, err)

	require.Len(t, runner.invocations, 1)
	args := strings.Join(runner.invocations[0], " ")
	assert.Contains(t, args, "--playlist-end 25")
	assert.Contains(t, args, "--flat-playlist")
}

func Test_PlaylistsListingURL(t *testing.T) {
	tests := []struct {
		summary  string
		url      string
		expected string
	}{
		{"channel URL gains suffix", "https://www.youtube.com/@example", "https://www.youtube.com/@example/playlists"},
		{"trailing slash trimmed", "https://www.youtube.com/@example/", "https://www.youtube.com/@example/playlists"},
		{"already suffixed untouched", "https://www.youtube.com/@example/playlists", "https://www.youtube.com/@example/playlists"},
		{"playlist URL untouched", "https://www.youtube.com/playlist?list=PL1", "https://www.youtube.com/playlist?list=PL1"},
	}

	for _, tt := range tests {
		t.Run(tt.summary, func(t *testing.T) {
			assert.Equal(t, tt.expected, playlistsListingURL(tt.url))
		})
	}
}

func Test_ListItems_CanonicalURLsAndOrder(t *testing.T) {
	playlistURL := "https://www.youtube.com/playlist?list=PL1"
	document := `{
		"id": "PL1",
		"entries": [
			{"id": "vid1", "title": "Chapter One", "url": "vid1", "duration": 300, "upload_date": "20240115"},
			{"id": "vid2", "title": "Chapter Two", "url": "https://www.youtube.com/watch?v=vid2", "duration": 250.5},
			{"id": "vid3", "title": "Chapter Three", "duration": 100},
			{"_type": "playlist", "id": "PLnested", "title": "A nested playlist"},
			{"id": "vid4", "url": "https://www.youtube.com/playlist?list=PLother"}
		]
	}`
	client := newTestClient(&fakeRunner{outputs: map[string]string{playlistURL: document}})

	items, err := client.ListItems(context.Background(), playlistURL)
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "https://www.youtube.com/watch?v=vid1", items[0].MediaURL)
	assert.Equal(t, "https://www.youtube.com/watch?v=vid2", items[1].MediaURL)
	assert.Equal(t, "https://www.youtube.com/watch?v=vid3", items[2].MediaURL)

	require.NotNil(t, items[0].UploadDate)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), *items[0].UploadDate)
	assert.Nil(t, items[1].UploadDate)

	require.NotNil(t, items[1].DurationSeconds)
	assert.InDelta(t, 250.5, *items[1].DurationSeconds, 0.001)
}

func Test_ListItems_UntitledFallback(t *testing.T) {
	playlistURL := "https://www.youtube.com/playlist?list=PL1"
	document := `{"id": "PL1", "entries": [{"id": "vid1", "duration": 10}]}`
	client := newTestClient(&fakeRunner{outputs: map[string]string{playlistURL: document}})

	items, err := client.ListItems(context.Background(), playlistURL)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Untitled", items[0].Title)
}

func Test_EntryKind_Classification(t *testing.T) {
	duration := 10.0
	tests := []struct {
		summary  string
		entry    rawEntry
		expected entryKind
	}{
		{"explicit playlist type", rawEntry{Type: "playlist", ID: "PL1"}, entryKindNestedListing},
		{"duration implies media", rawEntry{ID: "vid1", Duration: &duration}, entryKindMedia},
		{"listing URL implies nested", rawEntry{ID: "x", URL: "https://www.youtube.com/playlist?list=PL2"}, entryKindNestedListing},
		{"bare entry defaults to media", rawEntry{ID: "vid2", URL: "vid2"}, entryKindMedia},
	}

	for _, tt := range tests {
		t.Run(tt.summary, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.entry.kind())
		})
	}
}
