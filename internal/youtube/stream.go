package youtube

import (
	"context"
	"sort"
)

type (
	// StreamFormat is a single remote audio rendition, surfaced for
	// diagnostics.
	StreamFormat struct {
		FormatID string  `json:"format_id"`
		Ext      string  `json:"ext"`
		Abr      float64 `json:"abr"`
		Filesize *int64  `json:"filesize,omitempty"`
		Protocol string  `json:"protocol,omitempty"`
	}

	// StreamDebugInfo describes what the extractor sees for a media URL
	// without committing to a stream selection.
	StreamDebugInfo struct {
		Title        string         `json:"title"`
		Duration     *float64       `json:"duration,omitempty"`
		FormatCount  int            `json:"format_count"`
		HasDirectURL bool           `json:"has_direct_url"`
		AudioFormats []StreamFormat `json:"audio_formats"`
	}
)

// ResolveStreamURL extracts a directly playable audio URL for the given
// media URL without materializing anything locally. The URL is short-lived
// and must be re-resolved per playback session, never persisted.
func (client *Client) ResolveStreamURL(ctx context.Context, mediaURL string) (string, error) {
	info, err := client.extractInfo(ctx, mediaURL, false, 0)
	if err != nil {
		return "", err
	}

	// Some extractions resolve straight to a single URL with no format
	// listing at all.
	if info.URL != "" {
		return info.URL, nil
	}

	best := bestAudioFormat(info.Formats)
	if best == nil {
		return "", &NoAudioStreamError{url: mediaURL}
	}

	return best.URL, nil
}

// StreamInfo reports the audio renditions available for a media URL. Used
// by the stream diagnostics endpoint to explain why playback picked the
// stream it did.
func (client *Client) StreamInfo(ctx context.Context, mediaURL string) (*StreamDebugInfo, error) {
	info, err := client.extractInfo(ctx, mediaURL, false, 0)
	if err != nil {
		return nil, err
	}

	audio := audioFormats(info.Formats)
	sort.Slice(audio, func(i, j int) bool { return audio[i].Abr > audio[j].Abr })
	if len(audio) > 5 {
		audio = audio[:5]
	}

	formats := make([]StreamFormat, len(audio))
	for i, format := range audio {
		formats[i] = StreamFormat{
			FormatID: format.FormatID,
			Ext:      format.Ext,
			Abr:      format.Abr,
			Filesize: format.Filesize,
			Protocol: format.Protocol,
		}
	}

	return &StreamDebugInfo{
		Title:        info.Title,
		Duration:     info.Duration,
		FormatCount:  len(info.Formats),
		HasDirectURL: info.URL != "",
		AudioFormats: formats,
	}, nil
}

// audioFormats keeps only formats which actually carry an audio track and
// expose a usable URL.
func audioFormats(formats []rawFormat) []rawFormat {
	audio := make([]rawFormat, 0, len(formats))
	for _, format := range formats {
		if format.Acodec == "" || format.Acodec == "none" || format.URL == "" {
			continue
		}

		audio = append(audio, format)
	}

	return audio
}

// bestAudioFormat selects the audio rendition with the highest bitrate.
func bestAudioFormat(formats []rawFormat) *rawFormat {
	audio := audioFormats(formats)
	if len(audio) == 0 {
		return nil
	}

	best := &audio[0]
	for i := range audio {
		if audio[i].Abr > best.Abr {
			best = &audio[i]
		}
	}

	return best
}
