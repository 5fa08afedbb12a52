// Copyright 2026 The quarrylog Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli wires the command-line interface. All state lives on App so
// tests can build one against an in-memory store; there are no package-level
// globals.
package cli

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"time"

	"github.com/fatih/color"

	"quarrylog/internal/auth"
	"quarrylog/internal/config"
	"quarrylog/internal/localstore"
	"quarrylog/internal/masterdata"
	"quarrylog/internal/remotelist"
	"quarrylog/internal/session"
	"quarrylog/internal/stockledger"
	"quarrylog/internal/syncer"
)

type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *localstore.Store
	ledger  *stockledger.Engine
	session *session.Session

	configPath string
	dbPath     string
}

func NewApp(logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{logger: logger, session: session.New()}
}

// setup loads configuration and opens the local store. Called from the root
// command's PersistentPreRunE so every subcommand gets an initialized App.
func (a *App) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.dbPath != "" {
		cfg.DatabasePath = a.dbPath
	}
	a.cfg = cfg

	store, err := localstore.Open(cfg.DatabasePath, a.logger)
	if err != nil {
		return err
	}
	a.store = store
	a.ledger = stockledger.New(store, a.logger)
	return nil
}

func (a *App) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("closing store failed", "err", err)
		}
	}
}

// online probes reachability of the configured site with a short TCP dial.
func (a *App) online() bool {
	u, err := url.Parse(a.cfg.SiteURL)
	if err != nil || u.Host == "" {
		return false
	}
	host := u.Host
	if u.Port() == "" {
		port := "443"
		if u.Scheme == "http" {
			port = "80"
		}
		host = net.JoinHostPort(u.Hostname(), port)
	}
	conn, err := net.DialTimeout("tcp", host, 2*time.Second)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

func (a *App) tokenSource() auth.TokenSource {
	return auth.NewCaching(auth.StaticSource(a.cfg.AccessToken))
}

func (a *App) remoteClient() (*remotelist.Client, error) {
	if err := a.cfg.RequireRemote(); err != nil {
		return nil, err
	}
	return remotelist.New(a.cfg.SiteURL, a.tokenSource(), a.logger), nil
}

func (a *App) syncEngine() (*syncer.Engine, error) {
	remote, err := a.remoteClient()
	if err != nil {
		return nil, err
	}
	lists := syncer.ListIDs{
		Usage:       a.cfg.Lists.Usage,
		StockChecks: a.cfg.Lists.StockChecks,
		Production:  a.cfg.Lists.Production,
		Debris:      a.cfg.Lists.Debris,
		Sales:       a.cfg.Lists.Sales,
		Payments:    a.cfg.Lists.Payments,
	}
	hooks := syncer.Hooks{
		OnStatus: func(msg string, online bool) {
			if online {
				color.Cyan("%s", msg)
			} else {
				color.Yellow("%s", msg)
			}
		},
		OnPendingCount: func(n int) {
			if n > 0 {
				color.Yellow("%d entries still pending", n)
			}
		},
	}
	return syncer.New(a.store, remote, a.tokenSource(), lists, a.online, hooks, a.logger), nil
}

func (a *App) machineCache() (*masterdata.Cache, error) {
	remote, err := a.remoteClient()
	if err != nil {
		return nil, err
	}
	// nil online probe: a short-lived command refreshes explicitly instead
	// of racing a background refresh against process exit.
	return masterdata.New(a.store, remote, a.cfg.Lists.Machines, nil, a.logger), nil
}

// today returns the current civil date in the local timezone, the default for
// every date flag.
func today() string {
	return time.Now().Format("2006-01-02")
}

func resolveDate(flag string) (string, error) {
	if flag == "" {
		return today(), nil
	}
	if err := localstore.ValidateDate(flag); err != nil {
		return "", fmt.Errorf("invalid --date: %w", err)
	}
	return flag, nil
}
