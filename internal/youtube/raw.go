package youtube

import "time"

// Raw document shapes as emitted by the extractor's single-JSON mode. Only
// the fields Tome consumes are mapped; everything else is discarded at
// unmarshal time.
type (
	rawThumbnail struct {
		URL    string `json:"url"`
		Width  int    `json:"width"`
		Height int    `json:"height"`
	}

	rawFormat struct {
		URL      string  `json:"url"`
		FormatID string  `json:"format_id"`
		Ext      string  `json:"ext"`
		Acodec   string  `json:"acodec"`
		Abr      float64 `json:"abr"`
		Filesize *int64  `json:"filesize"`
		Protocol string  `json:"protocol"`
	}

	rawEntry struct {
		Type        string         `json:"_type"`
		ID          string         `json:"id"`
		Title       string         `json:"title"`
		Description string         `json:"description"`
		URL         string         `json:"url"`
		Duration    *float64       `json:"duration"`
		UploadDate  string         `json:"upload_date"`
		Thumbnails  []rawThumbnail `json:"thumbnails"`
	}

	rawInfo struct {
		rawEntry

		ChannelID  string      `json:"channel_id"`
		UploaderID string      `json:"uploader_id"`
		Channel    string      `json:"channel"`
		Uploader   string      `json:"uploader"`
		WebpageURL string      `json:"webpage_url"`
		Entries    []*rawEntry `json:"entries"`
		Formats    []rawFormat `json:"formats"`
	}
)

type entryKind int

const (
	entryKindMedia entryKind = iota
	entryKindNestedListing
)

// kind classifies a listing entry by what it can actually do: an entry that
// exposes a nested listing is a sub-collection, an entry that exposes
// playable media is an item. The extractor's type tag is authoritative when
// present; flat listings frequently emit bare "url" entries, which are
// classified by whether they carry media capabilities (a duration) or point
// at a listing endpoint.
func (entry *rawEntry) kind() entryKind {
	switch {
	case entry.Type == "playlist":
		return entryKindNestedListing
	case entry.Duration != nil:
		return entryKindMedia
	case isListingURL(entry.URL):
		return entryKindNestedListing
	default:
		return entryKindMedia
	}
}

func (entry *rawEntry) bestThumbnailURL() string {
	best := ""
	bestArea := -1
	for _, thumb := range entry.Thumbnails {
		if thumb.URL == "" {
			continue
		}

		area := thumb.Width * thumb.Height
		if area > bestArea {
			best = thumb.URL
			bestArea = area
		}
	}

	return best
}

func (entry *rawEntry) uploadDate() *time.Time {
	if entry.UploadDate == "" {
		return nil
	}

	parsed, err := time.Parse("20060102", entry.UploadDate)
	if err != nil {
		return nil
	}

	return &parsed
}
