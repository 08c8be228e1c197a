package main

import (
	"context"
	"os"
	"os/signal"

	kingpin "gopkg.in/alecthomas/kingpin.v2"
	"www.velocidex.com/golang/go-usnjournal/config"
	"www.velocidex.com/golang/go-usnjournal/cursor"
	"www.velocidex.com/golang/go-usnjournal/logging"
	"www.velocidex.com/golang/go-usnjournal/parser"
)

// loadConfig reads the config file and sets up logging from it.
func loadConfig() *config.Config {
	cfg, err := config.Load(*config_path)
	kingpin.FatalIfError(err, "Can not load config")

	level := cfg.Logging.Level
	if *log_level != "" {
		level = *log_level
	}
	logging.Init(logging.Options{
		Level:  level,
		Format: cfg.Logging.Format,
	})

	return cfg
}

func openCursorStore(cfg *config.Config, path string) *cursor.Store {
	if path == "" {
		path = cfg.Cursor.Database
	}

	store, err := cursor.Open(path)
	kingpin.FatalIfError(err, "Can not open cursor database")
	return store
}

// getOpener decides where journal pages come from: extracted $J
// files, a directory of recorded pages or live volumes. Live pages
// are recorded when --record is given.
func getOpener(images bool, replay string) func(volume string) (parser.Volume, error) {
	return func(volume string) (parser.Volume, error) {
		if replay != "" {
			return parser.NewReplayVolume(replay), nil
		}

		var result parser.Volume
		var err error
		if images {
			result, err = parser.OpenFileJournal(volume)
		} else {
			result, err = parser.OpenVolume(volume)
		}
		if err != nil {
			return nil, err
		}

		if *record_directory != "" {
			logging.Get().Info().Str("dir", *record_directory).
				Msg("Will record journal pages")
			return parser.RecordVolume(*record_directory, result), nil
		}
		return result, nil
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}
