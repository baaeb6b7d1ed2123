// Thin wrapper around the host FFmpeg install, responsible for encoding
// fetched media into the library's canonical audio format and probing the
// result.
package ffmpeg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/floostack/transcoder"
	"github.com/floostack/transcoder/ffmpeg"
)

type (
	Config struct {
		FfmpegBinaryPath  string `yaml:"ffmpeg_binary" env:"FFMPEG_BINARY_PATH" env-default:"/usr/bin/ffmpeg"`
		FfprobeBinaryPath string `yaml:"ffprobe_binary" env:"FFPROBE_BINARY_PATH" env-default:"/usr/bin/ffprobe"`
	}

	ProgressCallback func(transcoder.Progress)

	Encoder struct {
		config Config
	}
)

func New(config Config) *Encoder {
	return &Encoder{config: config}
}

// audioCodecs maps the library's supported output formats to the FFmpeg
// encoder used to produce them.
var audioCodecs = map[string]string{
	"mp3":  "libmp3lame",
	"m4a":  "aac",
	"opus": "libopus",
}

// TranscodeToAudio encodes the media at inputPath into an audio-only file at
// outputPath. Format is one of the supported output formats; bitrate is an
// FFmpeg bitrate spec such as "192k". Updates from the underlying command
// are delivered to the callback as they arrive.
func (encoder *Encoder) TranscodeToAudio(ctx context.Context, inputPath string, outputPath string, format string, bitrate string, progressCallback ProgressCallback) error {
	codec, ok := audioCodecs[format]
	if !ok {
		return fmt.Errorf("audio format '%s' is not supported", format)
	}

	ffmpegCfg := &ffmpeg.Config{
		ProgressEnabled: true,
		FfmpegBinPath:   encoder.config.FfmpegBinaryPath,
		FfprobeBinPath:  encoder.config.FfprobeBinaryPath,
	}

	cmdContext, cancel := context.WithCancel(ctx)
	defer cancel()

	skipVideo := true
	containerFormat := format
	if format == "m4a" {
		containerFormat = "mp4"
	}
	opts := ffmpeg.Options{
		AudioCodec:   &codec,
		AudioBitrate: &bitrate,
		SkipVideo:    &skipVideo,
		OutputFormat: &containerFormat,
	}

	progressChannel, err := ffmpeg.
		New(ffmpegCfg).
		Input(inputPath).
		Output(outputPath).
		WithContext(&cmdContext).
		Start(opts)
	if err != nil {
		return parseFfmpegError(err)
	}

	// Drain the progress channel until the command finishes; the channel
	// closing is the completion signal.
	for {
		prog, ok := <-progressChannel
		if !ok {
			return ctx.Err()
		}

		if progressCallback != nil {
			progressCallback(prog)
		}
	}
}

// ProbeDuration extracts the duration, in seconds, of the media file at the
// given path.
func (encoder *Encoder) ProbeDuration(path string) (float64, error) {
	cfg := ffmpeg.Config{
		FfmpegBinPath:  encoder.config.FfmpegBinaryPath,
		FfprobeBinPath: encoder.config.FfprobeBinaryPath,
	}

	metadata, err := ffmpeg.New(&cfg).Input(path).GetMetadata()
	if err != nil {
		return 0, fmt.Errorf("failed to extract file metadata information using ffprobe: %s", err.Error())
	}

	var duration float64
	if _, err := fmt.Sscanf(metadata.GetFormat().GetDuration(), "%f", &duration); err != nil {
		return 0, fmt.Errorf("ffprobe reported unparseable duration '%s' for %s", metadata.GetFormat().GetDuration(), path)
	}

	return duration, nil
}

// parseFfmpegError tries to pick out the relevant information from the HUGE
// output log from ffmpeg. The error we get contains lots of information
// about how the binary was compiled... this is useless info, we just
// want the 'message' JSON that is encoded inside.
func parseFfmpegError(err error) error {
	messageMatcher := regexp.MustCompile(`(?s)message: ({.*})`)
	groups := messageMatcher.FindStringSubmatch(err.Error())
	if len(groups) == 0 {
		return err
	}

	var out map[string]interface{}
	if jsonErr := json.Unmarshal([]byte(groups[1]), &out); jsonErr != nil {
		return errors.New(groups[1])
	}

	if exception, ok := out["error"].(map[string]interface{}); ok {
		if message, ok := exception["string"].(string); ok {
			return errors.New(message)
		}
	}

	return err
}
