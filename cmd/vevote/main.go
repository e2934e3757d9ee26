// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// vevote runs the vote-escrow ledger behind its HTTP API, or applies scripted operations to it.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/vevote/api"
	"github.com/vechain/vevote/cmd/vevote/script"
	"github.com/vechain/vevote/co"
	"github.com/vechain/vevote/metrics"
)

var (
	version   string
	gitCommit string
	gitTag    string
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "VeVote",
		Usage:     "Vote-escrow governance ledger",
		Copyright: "2025 VeChain Foundation <https://vechain.org/>",
		Flags: []cli.Flag{
			configFlag,
			dataDirFlag,
			memFlag,
			apiAddrFlag,
			apiCorsFlag,
			apiLogsLimitFlag,
			enableAPILogsFlag,
			enableMetricsFlag,
			pprofFlag,
			verbosityFlag,
			jsonLogsFlag,
			checkpointIntervalFlag,
		},
		Action: serveAction,
		Commands: []cli.Command{
			{
				Name:  "exec",
				Usage: "apply a script of timestamped operations",
				Flags: []cli.Flag{
					configFlag,
					dataDirFlag,
					memFlag,
					verbosityFlag,
					jsonLogsFlag,
					scriptFlag,
				},
				Action: execAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveAction(ctx *cli.Context) error {
	defer func() { log.Info("exited") }()

	if err := initLogger(ctx); err != nil {
		return err
	}
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	l, err := openLedger(ctx, cfg)
	if err != nil {
		return err
	}
	defer l.Close()

	enableMetrics := ctx.Bool(enableMetricsFlag.Name)
	if enableMetrics {
		metrics.InitializePrometheusMetrics()
	}
	handler := api.New(l.escrow, l.logDB, api.Options{
		AllowedOrigins:  cfg.APICors,
		PprofOn:         ctx.Bool(pprofFlag.Name),
		EnableReqLogger: ctx.Bool(enableAPILogsFlag.Name),
		EnableMetrics:   enableMetrics,
		LogsLimit:       cfg.LogsLimit,
	})

	exitSignal := handleExitSignal()
	group := co.NewGroup()
	defer group.Wait()
	defer group.Stop()

	url, closeFunc, err := startAPIServer(group, cfg.APIAddr, handler)
	if err != nil {
		return err
	}
	defer func() { log.Info("stopping API server..."); closeFunc() }()
	log.Info("API server started", "url", url)

	if cfg.CheckpointInterval > 0 {
		group.Go(func(stop <-chan struct{}) {
			co.Every(stop, cfg.CheckpointInterval, func() {
				if err := l.checkpoint(uint64(time.Now().Unix())); err != nil {
					log.Warn("failed to checkpoint", "err", err)
				}
			})
		})
	}

	<-exitSignal.Done()
	return nil
}

func execAction(ctx *cli.Context) error {
	if err := initLogger(ctx); err != nil {
		return err
	}
	path := ctx.String(scriptFlag.Name)
	if path == "" {
		return errors.New("missing --" + scriptFlag.Name)
	}
	steps, err := script.Load(path)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	l, err := openLedger(ctx, cfg)
	if err != nil {
		return err
	}
	defer l.Close()

	now, err := l.escrow.Now()
	if err != nil {
		return err
	}
	results, err := script.NewRunner(l.escrow, l.book, now).Run(steps)
	for _, res := range results {
		fields := []any{"step", res.Index, "op", res.Step.Op, "time", res.Time}
		switch {
		case res.Err != nil:
			fields = append(fields, "err", res.Err)
		case res.Lock != 0:
			fields = append(fields, "lock", res.Lock)
		case !res.Gauge.IsZero():
			fields = append(fields, "gauge", res.Gauge)
		case len(res.Amounts) > 0:
			fields = append(fields, "amounts", res.Amounts)
		}
		log.Info("applied", fields...)
	}
	if err != nil {
		return err
	}
	log.Info("script done", "steps", len(results))
	return nil
}

func handleExitSignal() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		exitSignalCh := make(chan os.Signal, 1)
		notifyExitSignal(exitSignalCh)
		sig := <-exitSignalCh
		log.Info("exit signal received", "signal", sig)
		cancel()
	}()
	return ctx
}
