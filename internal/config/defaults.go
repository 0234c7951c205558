package config

const (
	defaultConfigPath        = "~/.config/mkvbatch/config.toml"
	projectConfigName        = "mkvbatch.toml"
	logFileName              = "mkvbatch.log"
	defaultDestinationDir    = "~/mkvbatch/output"
	defaultLogDir            = "~/.local/share/mkvbatch/logs"
	defaultHistoryDB         = "~/.local/share/mkvbatch/history.db"
	defaultMKVMerge          = "mkvmerge"
	defaultMKVPropEdit       = "mkvpropedit"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultSubtitleLanguage  = "und"
	defaultMuxStrategy       = StrategyAsk
	envMKVMerge              = "MKVBATCH_MKVMERGE"
	envMKVPropEdit           = "MKVBATCH_MKVPROPEDIT"
	maxSubtitleDelaySeconds  = 24 * 60 * 60
	defaultHistoryEnabled    = true
	defaultDiscardAttachment = false
)

// Strategy values accepted by mux.strategy.
const (
	StrategyAsk   = "ask"
	StrategyRemux = "remux"
	StrategyEdit  = "edit"
)

var (
	defaultSubtitleExtensions = []string{"srt", "ass", "ssa", "sup", "sub", "idx", "vtt"}
	defaultChapterExtensions  = []string{"xml", "txt"}
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DestinationDir: defaultDestinationDir,
			LogDir:         defaultLogDir,
			HistoryDB:      defaultHistoryDB,
		},
		Tools: Tools{
			MKVMerge:    defaultMKVMerge,
			MKVPropEdit: defaultMKVPropEdit,
		},
		Mux: Mux{
			Strategy: defaultMuxStrategy,
		},
		Subtitles: Subtitles{
			Extensions: append([]string(nil), defaultSubtitleExtensions...),
			Language:   defaultSubtitleLanguage,
		},
		Chapters: Chapters{
			Extensions: append([]string(nil), defaultChapterExtensions...),
		},
		Attachments: Attachments{
			DiscardExisting: defaultDiscardAttachment,
		},
		History: History{
			Enabled: defaultHistoryEnabled,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
