// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/vevote/builtin/custody"
	"github.com/vechain/vevote/builtin/escrow"
	"github.com/vechain/vevote/co"
	"github.com/vechain/vevote/config"
	"github.com/vechain/vevote/logdb"
	"github.com/vechain/vevote/lvldb"
	"github.com/vechain/vevote/state"
	"github.com/vechain/vevote/thor"
)

func readIntFromUInt64Flag(val uint64) (int, error) {
	if val > math.MaxInt {
		return 0, errors.Errorf("value %d exceeds int range", val)
	}
	return int(val), nil
}

func initLogger(ctx *cli.Context) error {
	lvl, err := readIntFromUInt64Flag(ctx.Uint64(verbosityFlag.Name))
	if err != nil {
		return errors.Wrap(err, "parse verbosity flag")
	}
	level := log.FromLegacyLevel(lvl)

	var handler slog.Handler
	if ctx.Bool(jsonLogsFlag.Name) {
		handler = log.JSONHandlerWithLevel(os.Stdout, level)
	} else {
		useColor := (isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())) && os.Getenv("TERM") != "dumb"
		handler = log.NewTerminalHandlerWithLevel(os.Stderr, level, useColor)
	}
	log.SetDefault(log.NewLogger(handler))
	escrow.SetLogger(log.Root())
	return nil
}

// loadConfig reads the config file, then applies the flags set on the command line.
func loadConfig(ctx *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(ctx.String(configFlag.Name))
	if err != nil {
		return nil, err
	}
	if ctx.IsSet(dataDirFlag.Name) {
		cfg.DataDir = ctx.String(dataDirFlag.Name)
	}
	if ctx.IsSet(apiAddrFlag.Name) {
		cfg.APIAddr = ctx.String(apiAddrFlag.Name)
	}
	if ctx.IsSet(apiCorsFlag.Name) {
		cfg.APICors = ctx.String(apiCorsFlag.Name)
	}
	if ctx.IsSet(apiLogsLimitFlag.Name) {
		cfg.LogsLimit = ctx.Uint64(apiLogsLimitFlag.Name)
	}
	if ctx.IsSet(checkpointIntervalFlag.Name) {
		cfg.CheckpointInterval = ctx.Duration(checkpointIntervalFlag.Name)
	}
	return cfg, nil
}

// ledger bundles the escrow with the stores backing it.
type ledger struct {
	escrow *escrow.Escrow
	book   *custody.Book
	db     *lvldb.LevelDB
	logDB  *logdb.LogDB
}

func openLedger(ctx *cli.Context, cfg *config.Config) (*ledger, error) {
	var (
		db    *lvldb.LevelDB
		logDB *logdb.LogDB
		err   error
	)
	if ctx.Bool(memFlag.Name) {
		if db, err = lvldb.NewMem(); err != nil {
			return nil, err
		}
		logDB, err = logdb.NewMem()
	} else {
		if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
			return nil, errors.Wrapf(err, "create data dir [%v]", cfg.DataDir)
		}
		if db, err = openMainDB(cfg.DataDir); err != nil {
			return nil, err
		}
		logDB, err = openLogDB(cfg.DataDir)
	}
	if err != nil {
		db.Close()
		return nil, err
	}

	l, err := newLedger(cfg, db, logDB)
	if err != nil {
		logDB.Close()
		db.Close()
		return nil, err
	}
	log.Info("ledger opened", "dataDir", cfg.DataDir, "mem", ctx.Bool(memFlag.Name), "token", cfg.Token)
	return l, nil
}

func openMainDB(dir string) (*lvldb.LevelDB, error) {
	path := filepath.Join(dir, "main.db")
	db, err := lvldb.New(path, lvldb.Options{
		CacheSize:              128,
		OpenFilesCacheCapacity: 64,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open main database [%v]", path)
	}
	return db, nil
}

func openLogDB(dir string) (*logdb.LogDB, error) {
	path := filepath.Join(dir, "events.db")
	db, err := logdb.New(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open event database [%v]", path)
	}
	return db, nil
}

func newLedger(cfg *config.Config, db *lvldb.LevelDB, logDB *logdb.LogDB) (*ledger, error) {
	params, err := cfg.Params()
	if err != nil {
		return nil, err
	}
	prices, err := cfg.Oracle()
	if err != nil {
		return nil, err
	}
	st := state.New(db)
	book := custody.New(thor.CustodyNamespace, st)
	esc := escrow.New(st, db, params, escrow.Deps{
		Custody:    book,
		Authorizer: cfg.Authorizer(),
		Oracle:     prices,
		Events:     logDB,
	})
	return &ledger{escrow: esc, book: book, db: db, logDB: logDB}, nil
}

// checkpoint extends the global history up to now.
func (l *ledger) checkpoint(now uint64) error {
	return l.escrow.Checkpoint(escrow.Call{Time: now})
}

func (l *ledger) Close() {
	log.Info("closing event database...")
	l.logDB.Close()
	log.Info("closing main database...")
	l.db.Close()
}

func startAPIServer(group *co.Group, addr string, handler http.Handler) (string, func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, errors.Wrapf(err, "listen API addr [%v]", addr)
	}
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: time.Second, ReadTimeout: 5 * time.Second}
	group.Go(func(<-chan struct{}) {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("API server stopped", "err", err)
		}
	})
	return "http://" + listener.Addr().String() + "/", func() {
		srv.Close()
	}, nil
}

func notifyExitSignal(ch chan<- os.Signal) {
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
}
