package config

const (
	defaultStagingDir         = "~/.local/share/shrinkray/staging"
	defaultOutputDir          = "~/shrinkray-output"
	defaultLogDir             = "~/.local/share/shrinkray/logs"
	defaultAudioBitrate       = "128k"
	defaultSampleRate         = "44100"
	defaultChannels           = "original"
	defaultResolution         = "original"
	defaultQuality            = 0.8
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultQueuePollInterval  = 2
	defaultErrorRetryInterval = 10
	defaultMinFreeSpaceGiB    = 1
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			OutputDir:  defaultOutputDir,
			LogDir:     defaultLogDir,
		},
		Targets: Targets{
			AudioBitrate:     defaultAudioBitrate,
			SampleRate:       defaultSampleRate,
			Channels:         defaultChannels,
			Resolution:       defaultResolution,
			Quality:          defaultQuality,
			PreserveMetadata: true,
		},
		Workflow: Workflow{
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
			MinFreeSpaceGiB:    defaultMinFreeSpaceGiB,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
