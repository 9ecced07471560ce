package config

import (
	"context"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// WatchSettings reloads the settings file whenever it is written and hands the result to onChange.
// A reload that fails keeps the previous settings active. It runs until ctx is cancelled.
func WatchSettings(ctx context.Context, path string, onChange func(*Settings)) error {
	logger := zerolog.Ctx(ctx)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}

	logger.Info().Str("path", path).Msg("watching settings for changes")

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// atomic saves show up as a create after a rename
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			s, err := LoadSettings(path)
			if err != nil {
				logger.Error().Err(err).Str("path", path).Msg("settings reload failed, keeping previous settings")
				continue
			}

			logger.Info().Str("path", path).Msg("settings reloaded")
			onChange(s)

			_ = watcher.Add(path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error().Err(err).Msg("settings watcher error")
		}
	}
}
