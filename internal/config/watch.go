package config

import (
	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// Watch reloads the config file whenever it changes and delivers each
// successfully parsed result to onChange. It blocks until done is closed,
// so run it in its own goroutine. Malformed edits are logged and skipped;
// the previous config stays in effect.
func Watch(path string, onChange func(Config), done <-chan struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			cfg, err := Load(path)
			if err != nil {
				log.Errorf("config: reload failed, keeping previous: %v", err)
				continue
			}
			log.Infof("config: file changed: %s %s", event.Name, event.Op)
			onChange(cfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Errorf("config: watch error: %v", err)
		case <-done:
			return nil
		}
	}
}
