package logging

import (
	"log/slog"
	"os"

	"github.com/phsym/console-slog"
)

// Init installs the default console logger. Dev mode lowers the level to
// debug and annotates records with their source location.
func Init(dev bool) {
	level := slog.LevelInfo
	if dev {
		level = slog.LevelDebug
	}

	slog.SetDefault(slog.New(console.NewHandler(os.Stderr, &console.HandlerOptions{
		AddSource: dev,
		Level:     level,
	})))
}
