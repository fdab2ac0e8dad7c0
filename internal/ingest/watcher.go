package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/joseph-ayodele/complaints-extractor/constants"
)

const (
	ingestedDir = ".ingested"
	rejectedDir = ".rejected"
)

type WatchConfig struct {
	Root        string
	InitialScan bool          // emit workbooks already present in Root
	Debounce    time.Duration // coalesce rapid create/write bursts
}

// StartWatcher emits the paths of spreadsheets created or written in
// cfg.Root. Hidden files and subdirectories are ignored.
func StartWatcher(ctx context.Context, cfg WatchConfig, logger *slog.Logger) (<-chan string, <-chan error, error) {
	if cfg.Root == "" {
		return nil, nil, errors.New("no root provided")
	}
	if logger == nil {
		logger = slog.Default()
	}
	evCh := make(chan string, 256)
	errCh := make(chan error, 1)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Error("failed to create fsnotify watcher", "error", err)
		return nil, nil, err
	}
	if err := w.Add(cfg.Root); err != nil {
		_ = w.Close()
		logger.Error("failed to watch inbox", "root", cfg.Root, "error", err)
		return nil, nil, err
	}

	var initial []string
	if cfg.InitialScan {
		entries, err := os.ReadDir(cfg.Root)
		if err != nil {
			_ = w.Close()
			return nil, nil, err
		}
		for _, e := range entries {
			p := filepath.Join(cfg.Root, e.Name())
			if !e.IsDir() && eligible(p) {
				initial = append(initial, p)
			}
		}
	}

	go func() {
		defer close(evCh)
		defer close(errCh)
		defer func() { _ = w.Close() }()

		for _, p := range initial {
			select {
			case evCh <- p:
			case <-ctx.Done():
				return
			}
		}

		var timer *time.Timer
		fire := make(chan struct{}, 1)
		pending := map[string]struct{}{}

		flush := func() {
			for p := range pending {
				select {
				case evCh <- p:
				case <-ctx.Done():
					return
				}
				delete(pending, p)
			}
		}

		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if !eligible(e.Name) || e.Op&(fsnotify.Create|fsnotify.Write) == 0 {
					continue
				}
				pending[e.Name] = struct{}{}
				if cfg.Debounce <= 0 {
					flush()
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(cfg.Debounce, func() {
					select {
					case fire <- struct{}{}:
					default:
					}
				})
			case <-fire:
				flush()
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("watcher error", "error", err)
				select {
				case errCh <- err:
				default:
				}
			}
		}
	}()

	return evCh, errCh, nil
}

func eligible(path string) bool {
	return !IsHidden(path) && constants.AllowedExt(filepath.Ext(path))
}

// RunInbox submits every workbook dropped into root until ctx ends. Each
// file is moved to root/.ingested or root/.rejected afterwards so it is
// picked up once.
func (s *Service) RunInbox(ctx context.Context, cfg WatchConfig) error {
	for _, dir := range []string{ingestedDir, rejectedDir} {
		if err := os.MkdirAll(filepath.Join(cfg.Root, dir), 0o755); err != nil {
			return fmt.Errorf("inbox: %w", err)
		}
	}

	events, errs, err := StartWatcher(ctx, cfg, s.logger)
	if err != nil {
		return err
	}
	s.logger.Info("inbox watching", "root", cfg.Root)

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			s.logger.Warn("inbox.watch_error", "error", err)
		case path, ok := <-events:
			if !ok {
				return nil
			}
			if _, err := os.Stat(path); err != nil {
				continue
			}
			res, err := s.IngestPath(ctx, path)
			dest := ingestedDir
			if err != nil {
				dest = rejectedDir
				s.logger.Warn("inbox.rejected", "path", path, "error", err)
			} else {
				s.logger.Info("inbox.ingested", "path", path, "job_id", res.JobID)
			}
			if err := moveInto(path, filepath.Join(cfg.Root, dest)); err != nil {
				s.logger.Error("inbox.move_failed", "path", path, "error", err)
			}
		}
	}
}

func moveInto(path, dir string) error {
	base := filepath.Base(path)
	target := filepath.Join(dir, base)
	if _, err := os.Stat(target); err == nil {
		ext := filepath.Ext(base)
		target = filepath.Join(dir, fmt.Sprintf("%s_%d%s", base[:len(base)-len(ext)], time.Now().UnixNano(), ext))
	}
	return os.Rename(path, target)
}
