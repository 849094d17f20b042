package logging

import (
	"log/slog"
	"os"

	"github.com/ahmetcoskunkizilkaya/course-platform/internal/config"
)

// Setup installs a JSON stdout logger as the default and returns its handler
// so it can be combined with others later.
func Setup(env string) slog.Handler {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: levelFor(env),
	})
	slog.SetDefault(slog.New(handler))
	return handler
}

func levelFor(env string) slog.Level {
	if env == config.EnvDevelopment {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
