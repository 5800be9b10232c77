// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package watch re-runs pipeline assembly when the manifest or buildspec
// change on disk.
package watch

import (
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches a project directory for manifest and buildspec changes.
type Watcher struct {
	projectDir string
	watcher    *fsnotify.Watcher
	onChange   func()
	debounce   time.Duration
	lastChange time.Time
}

// NewWatcher creates a watcher over projectDir invoking onChange after each
// relevant change, debounced.
func NewWatcher(projectDir string, onChange func()) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		projectDir: projectDir,
		watcher:    fsWatcher,
		onChange:   onChange,
		debounce:   500 * time.Millisecond,
	}, nil
}

// Start begins watching. Events are handled on a background goroutine.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(w.projectDir); err != nil {
		return err
	}
	go w.watch()
	log.Printf("Watching for changes in: %s", w.projectDir)
	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

func (w *Watcher) watch() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if w.shouldIgnore(event.Name) {
				continue
			}
			if event.Op&fsnotify.Write == fsnotify.Write ||
				event.Op&fsnotify.Create == fsnotify.Create {
				w.handleChange(event.Name)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Watcher error: %v", err)
		}
	}
}

func (w *Watcher) handleChange(path string) {
	now := time.Now()
	if now.Sub(w.lastChange) < w.debounce {
		return
	}
	w.lastChange = now
	log.Printf("File changed: %s", path)
	if w.onChange != nil {
		w.onChange()
	}
}

// shouldIgnore filters everything except the yaml inputs the assembly
// depends on. Hidden files and directories are skipped wherever they sit
// in the path, including as the leading segment of a relative path.
func (w *Watcher) shouldIgnore(path string) bool {
	for _, seg := range strings.Split(filepath.ToSlash(path), "/") {
		if seg == "." || seg == ".." {
			continue
		}
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	ext := filepath.Ext(path)
	return ext != ".yaml" && ext != ".yml"
}
