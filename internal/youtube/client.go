// Client wrapper around the yt-dlp binary, which Tome uses for all remote
// collection resolution, listing, stream-URL extraction and media fetching.
// All extraction calls are pure reads against the remote source; nothing in
// this package touches the catalog.
package youtube

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/tomelib/tome/pkg/logger"
)

var log = logger.Get("YouTube")

type (
	Config struct {
		// Path to the yt-dlp binary on the host.
		BinaryPath string `yaml:"binary_path" env:"YTDLP_BIN_PATH" env-default:"yt-dlp"`

		// Optional cookies file handed to the extractor for collections
		// which require an authenticated session.
		CookieFile string `yaml:"cookie_file" env:"YTDLP_COOKIE_FILE"`

		// Bounded socket timeout applied to every remote call; an
		// unresponsive remote must never hang a worker indefinitely.
		SocketTimeoutSeconds int `yaml:"socket_timeout_seconds" env:"YTDLP_SOCKET_TIMEOUT" env-default:"30"`

		// Maximum number of sub-collections fetched by a single listing
		// call, protecting against unbounded remote pagination.
		PlaylistPageSize int `yaml:"playlist_page_size" env:"YTDLP_PLAYLIST_PAGE_SIZE" env-default:"50"`
	}

	// commandRunner abstracts the execution of the underlying binary so
	// that extraction behaviour can be exercised without a host install.
	commandRunner interface {
		run(ctx context.Context, args ...string) ([]byte, error)
		runStreaming(ctx context.Context, onLine func(string), args ...string) error
	}

	Client struct {
		config Config
		runner commandRunner
	}
)

func New(config Config) *Client {
	if config.BinaryPath == "" {
		config.BinaryPath = "yt-dlp"
	}
	if config.SocketTimeoutSeconds <= 0 {
		config.SocketTimeoutSeconds = 30
	}
	if config.PlaylistPageSize <= 0 {
		config.PlaylistPageSize = 50
	}

	return &Client{
		config: config,
		runner: &execRunner{binaryPath: config.BinaryPath},
	}
}

// baseArgs composes the arguments common to every invocation: quiet
// single-JSON output, per-entry error tolerance and the mandatory socket
// timeout.
func (client *Client) baseArgs() []string {
	args := []string{
		"--no-warnings",
		"--ignore-errors",
		"--no-check-certificate",
		"--socket-timeout", strconv.Itoa(client.config.SocketTimeoutSeconds),
	}

	if client.config.CookieFile != "" {
		args = append(args, "--cookies", client.config.CookieFile)
	}

	return args
}

// extractInfo performs a metadata-only extraction of the provided URL.
// Flat mode enumerates a listing cheaply (one JSON document, no per-entry
// resolution); full mode resolves formats and direct stream URLs.
func (client *Client) extractInfo(ctx context.Context, url string, flat bool, playlistEnd int) (*rawInfo, error) {
	args := append(client.baseArgs(), "-J")
	if flat {
		args = append(args, "--flat-playlist")
	}
	if playlistEnd > 0 {
		args = append(args, "--playlist-end", strconv.Itoa(playlistEnd))
	}
	args = append(args, url)

	out, err := client.runner.run(ctx, args...)
	if err != nil && len(bytes.TrimSpace(out)) == 0 {
		return nil, &ExtractionError{url: url, reason: err.Error()}
	}

	var info rawInfo
	if err := json.Unmarshal(bytes.TrimSpace(out), &info); err != nil {
		return nil, &ExtractionError{url: url, reason: fmt.Sprintf("extractor output could not be unmarshalled: %s", err.Error())}
	}

	return &info, nil
}

type execRunner struct {
	binaryPath string
}

func (runner *execRunner) run(ctx context.Context, args ...string) ([]byte, error) {
	log.Verbosef("Executing %s %s\n", runner.binaryPath, strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, runner.binaryPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		// The extractor exits non-zero when any entry of a listing fails,
		// even with error tolerance enabled; partial output is still usable.
		if stdout.Len() > 0 {
			log.Debugf("Extractor exited non-zero but produced output, continuing: %s\n", strings.TrimSpace(stderr.String()))
			return stdout.Bytes(), nil
		}

		return nil, fmt.Errorf("%s: %s", err.Error(), strings.TrimSpace(stderr.String()))
	}

	return stdout.Bytes(), nil
}

func (runner *execRunner) runStreaming(ctx context.Context, onLine func(string), args ...string) error {
	log.Verbosef("Executing (streaming) %s %s\n", runner.binaryPath, strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, runner.binaryPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}

	if err := cmd.Start(); err != nil {
		return err
	}

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		onLine(scanner.Text())
	}

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("%s: %s", err.Error(), strings.TrimSpace(stderr.String()))
	}

	return nil
}
