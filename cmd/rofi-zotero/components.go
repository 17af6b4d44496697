package main

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/rofi-zotero/internal/config"
	"github.com/hyperjump/rofi-zotero/internal/library"
	"github.com/hyperjump/rofi-zotero/internal/matcher"
	"github.com/hyperjump/rofi-zotero/internal/opener"
	"github.com/hyperjump/rofi-zotero/internal/ranking"
	"github.com/hyperjump/rofi-zotero/internal/session"
	"github.com/hyperjump/rofi-zotero/internal/storage"
)

// Components is one opened session and the collaborators built from config.
type Components struct {
	Config  *config.Config
	Loader  *library.Loader
	History storage.History
	Session *session.Session
	logger  *zap.Logger
}

// Close releases the session and its history store.
func (c *Components) Close() {
	if c.Session != nil {
		_ = c.Session.Close()
	} else if c.History != nil {
		_ = c.History.Close()
	}
}

// MatcherOptions returns the configured matching options. An unknown method
// falls back to normal matching.
func (c *Components) MatcherOptions() matcher.Options {
	method, err := matcher.ParseMethod(c.Config.Matching.Method)
	if err != nil {
		c.logger.Warn("invalid matching method, using normal", zap.Error(err))
		method = matcher.MethodNormal
	}
	return matcher.Options{
		Method:        method,
		CaseSensitive: c.Config.Matching.CaseSensitive,
		NegateChar:    c.Config.Matching.NegateRune(),
		MaxTypos:      c.Config.Matching.MaxTypos,
	}
}

// initializeComponents opens a session for cfg. It does not fail: a missing
// library or history store leaves an empty or unranked session.
func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) *Components {
	if logger == nil {
		logger = zap.NewNop()
	}
	loader := library.NewLoader(cfg.Library.Root,
		library.WithLogger(logger),
		library.WithBusyTimeout(time.Duration(cfg.Library.BusyTimeoutMS)*time.Millisecond),
		library.WithExcludeTrashed(cfg.Library.ExcludeTrashed),
	)

	history, err := storage.Open(cfg.History.Backend, cfg.History.Path, cfg.History.MaxEntries)
	if err != nil {
		logger.Debug("history store not opened", zap.String("path", cfg.History.Path), zap.Error(err))
		history = nil
	}

	opts := session.Options{
		Loader:  loader,
		History: history,
		Opener:  opener.NewCommandOpener(cfg.Open.Command, opener.WithLogger(logger)),
		Copier:  opener.ClipboardCopier{},
		Ranker:  ranking.NewRanker(ranking.WithLogger(logger)),
		Logger:  logger,
	}
	return &Components{
		Config:  cfg,
		Loader:  loader,
		History: history,
		Session: session.Open(ctx, opts),
		logger:  logger,
	}
}

// writeFileAtomic replaces path with data via a temp file in the same directory.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
