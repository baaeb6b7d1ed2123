package download

type Config struct {
	// StorageRootPath is the directory under which all materialized audio
	// lives. Catalog rows only ever hold paths relative to this root, so
	// the library survives the root being moved or remounted.
	StorageRootPath string `yaml:"storage_root" env:"STORAGE_ROOT_PATH" env-default:"/var/lib/tome"`

	// AudioFormat is the output container/codec for encoded audiobooks.
	AudioFormat string `yaml:"audio_format" env:"AUDIO_FORMAT" env-default:"mp3"`

	// AudioBitrate is the encoder bitrate spec, e.g. "192k".
	AudioBitrate string `yaml:"audio_bitrate" env:"AUDIO_BITRATE" env-default:"192k"`

	// Concurrency bounds how many materializations may run at once.
	Concurrency int `yaml:"concurrency" env:"DOWNLOAD_CONCURRENCY" env-default:"2"`
}
