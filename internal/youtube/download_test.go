package youtube

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// streamingRunner feeds canned output lines to the streaming callback and
// optionally drops a file into place to simulate a completed transfer.
type streamingRunner struct {
	lines      []string
	createFile string
	err        error
}

func (runner *streamingRunner) run(_ context.Context, _ ...string) ([]byte, error) {
	return nil, errors.New("unexpected non-streaming invocation")
}

func (runner *streamingRunner) runStreaming(_ context.Context, onLine func(string), _ ...string) error {
	for _, line := range runner.lines {
		onLine(line)
	}

	if runner.createFile != "" {
		if err := os.WriteFile(runner.createFile, []byte("audio"), 0o644); err != nil {
			return err
		}
	}

	return runner.err
}

func Test_DownloadMedia_ReportsProgressAndLocatesFile(t *testing.T) {
	outputBase := filepath.Join(t.TempDir(), "chapter-one_vid1")
	runner := &streamingRunner{
		lines: []string{
			"[youtube] vid1: Downloading webpage",
			"[download] Destination: chapter-one_vid1.webm",
			"[download]   0.0% of 12.34MiB at 1.00MiB/s ETA 00:12",
			"[download]  42.5% of 12.34MiB at 1.00MiB/s ETA 00:07",
			"[download] 100% of 12.34MiB in 00:12",
			"not a progress line",
		},
		createFile: outputBase + ".webm",
	}
	client := newTestClient(&fakeRunner{})
	client.runner = runner

	var progress []float64
	path, err := client.DownloadMedia(context.Background(), "https://www.youtube.com/watch?v=vid1", outputBase, func(pct float64) {
		progress = append(progress, pct)
	})

	require.NoError(t, err)
	assert.Equal(t, outputBase+".webm", path)
	assert.Equal(t, []float64{0.0, 42.5, 100.0}, progress)
}

func Test_DownloadMedia_FailureWrapped(t *testing.T) {
	outputBase := filepath.Join(t.TempDir(), "chapter-one_vid1")
	client := newTestClient(&fakeRunner{})
	client.runner = &streamingRunner{err: errors.New("exit status 1: unable to download")}

	_, err := client.DownloadMedia(context.Background(), "https://www.youtube.com/watch?v=vid1", outputBase, nil)

	var extraction *ExtractionError
	require.ErrorAs(t, err, &extraction)
}

func Test_DownloadMedia_NoFileProduced(t *testing.T) {
	outputBase := filepath.Join(t.TempDir(), "chapter-one_vid1")
	client := newTestClient(&fakeRunner{})
	client.runner = &streamingRunner{lines: []string{"[download] 100% of 1.00MiB in 00:01"}}

	_, err := client.DownloadMedia(context.Background(), "https://www.youtube.com/watch?v=vid1", outputBase, nil)
	assert.Error(t, err)
}
