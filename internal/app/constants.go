package app

const (
	Name           = "uctl"
	SourceURL      = "https://github.com/ultimate-ctl/uctl"
	ConfigFilename = "config.json"
	DBFilename     = "cache.db"
	LogFilename    = "app.log"
)
