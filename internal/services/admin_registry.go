// internal/services/admin_registry.go
package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// AdminRegistry is the set of wallet addresses allowed to act as admin.
// Addresses compare case-insensitively.
type AdminRegistry struct {
	mu       sync.RWMutex
	static   []string
	path     string
	admins   map[string]struct{}
	modTime  time.Time
	log      *logrus.Entry
	interval time.Duration
}

type adminFile struct {
	Admins []string `yaml:"admins"`
}

// NewAdminRegistry builds the set from static addresses plus, when path is
// non-empty, the admins listed in a YAML file.
func NewAdminRegistry(static []string, path string, logger *logrus.Logger) (*AdminRegistry, error) {
	r := &AdminRegistry{
		static:   static,
		path:     path,
		log:      logger.WithField("component", "admin_registry"),
		interval: 60 * time.Second,
	}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *AdminRegistry) IsAdmin(address string) bool {
	if address == "" {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.admins[strings.ToLower(address)]
	return ok
}

func (r *AdminRegistry) Addresses() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.admins))
	for addr := range r.admins {
		out = append(out, addr)
	}
	return out
}

// Reload rebuilds the set. On a read or parse error the previous set stays.
func (r *AdminRegistry) Reload() error {
	admins := make(map[string]struct{})
	if err := addAdmins(admins, r.static, "static"); err != nil {
		return err
	}

	var modTime time.Time
	if r.path != "" {
		info, err := os.Stat(r.path)
		if err != nil {
			return fmt.Errorf("failed to stat admin file: %w", err)
		}
		modTime = info.ModTime()

		data, err := os.ReadFile(r.path)
		if err != nil {
			return fmt.Errorf("failed to read admin file: %w", err)
		}
		var file adminFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return fmt.Errorf("failed to parse admin file: %w", err)
		}
		if err := addAdmins(admins, file.Admins, r.path); err != nil {
			return err
		}
	}

	r.mu.Lock()
	r.admins = admins
	r.modTime = modTime
	r.mu.Unlock()

	r.log.WithField("admins", len(admins)).Info("admin registry loaded")
	return nil
}

func (r *AdminRegistry) reloadIfChanged() {
	info, err := os.Stat(r.path)
	if err != nil {
		return
	}
	r.mu.RLock()
	unchanged := info.ModTime().Equal(r.modTime)
	r.mu.RUnlock()
	if unchanged {
		return
	}
	if err := r.Reload(); err != nil {
		r.log.WithError(err).Warn("admin registry reload failed, keeping previous set")
	}
}

// Watch reloads the file on change until ctx is done. The directory is
// watched so editors that replace the file are picked up; a slow poll runs
// alongside as a fallback.
func (r *AdminRegistry) Watch(ctx context.Context) {
	if r.path == "" {
		return
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		r.log.WithError(err).Warn("fsnotify unavailable, polling admin file")
	} else if err := watcher.Add(filepath.Dir(r.path)); err != nil {
		r.log.WithError(err).Warn("cannot watch admin file directory, polling")
		watcher.Close()
		watcher = nil
	}

	if watcher != nil {
		go func() {
			defer watcher.Close()
			target := filepath.Clean(r.path)
			for {
				select {
				case <-ctx.Done():
					return
				case event, ok := <-watcher.Events:
					if !ok {
						return
					}
					if filepath.Clean(event.Name) != target {
						continue
					}
					if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
						time.Sleep(100 * time.Millisecond)
						r.reloadIfChanged()
					}
				case err, ok := <-watcher.Errors:
					if !ok {
						return
					}
					r.log.WithError(err).Warn("admin file watcher error")
				}
			}
		}()
	}

	go func() {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.reloadIfChanged()
			}
		}
	}()
}

func addAdmins(set map[string]struct{}, addresses []string, source string) error {
	for _, addr := range addresses {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		if !common.IsHexAddress(addr) {
			return fmt.Errorf("invalid admin address %q in %s", addr, source)
		}
		set[strings.ToLower(addr)] = struct{}{}
	}
	return nil
}
