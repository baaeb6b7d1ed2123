package youtube

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
)

var downloadProgressPattern = regexp.MustCompile(`\[download\]\s+(\d+(?:\.\d+)?)%`)

// DownloadMedia fetches the best available audio rendition of the given
// media URL to outputBase (extension chosen by the extractor). The produced
// file path is returned; onProgress receives percentages in [0, 100] as the
// transfer advances.
func (client *Client) DownloadMedia(ctx context.Context, mediaURL string, outputBase string, onProgress func(float64)) (string, error) {
	args := append(client.baseArgs(),
		"-f", "bestaudio/best",
		"-o", outputBase+".%(ext)s",
		"--newline",
		"--no-playlist",
		mediaURL,
	)

	err := client.runner.runStreaming(ctx, func(line string) {
		if onProgress == nil {
			return
		}

		if match := downloadProgressPattern.FindStringSubmatch(line); match != nil {
			if pct, err := strconv.ParseFloat(match[1], 64); err == nil {
				onProgress(pct)
			}
		}
	}, args...)
	if err != nil {
		return "", &ExtractionError{url: mediaURL, reason: err.Error()}
	}

	matches, err := filepath.Glob(outputBase + ".*")
	if err != nil {
		return "", err
	} else if len(matches) == 0 {
		return "", fmt.Errorf("download of %s completed but produced no file at %s", mediaURL, outputBase)
	}

	return matches[0], nil
}
