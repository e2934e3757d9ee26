// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"flag"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/vevote/api"
	"github.com/vechain/vevote/co"
	"github.com/vechain/vevote/test"
	"github.com/vechain/vevote/thor"
)

func TestReadIntFromUInt64Flag(t *testing.T) {
	got, err := readIntFromUInt64Flag(42)
	require.NoError(t, err)
	assert.Equal(t, 42, got)

	got, err = readIntFromUInt64Flag(uint64(math.MaxInt))
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt, got)

	_, err = readIntFromUInt64Flag(uint64(math.MaxInt) + 1)
	assert.Error(t, err)
}

func newContext(t *testing.T, args ...string) *cli.Context {
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range []cli.Flag{
		configFlag, dataDirFlag, memFlag, apiAddrFlag, apiCorsFlag, apiLogsLimitFlag,
		verbosityFlag, jsonLogsFlag, checkpointIntervalFlag,
	} {
		f.Apply(set)
	}
	require.NoError(t, set.Parse(args))
	return cli.NewContext(nil, set, nil)
}

func writeConfig(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "vevote.yaml")
	token := thor.BytesToAddress([]byte("vevote"))
	require.NoError(t, os.WriteFile(path, []byte("token: "+token.String()+"\n"), 0o600))
	return path
}

func TestLoadConfigFlags(t *testing.T) {
	dir := t.TempDir()
	ctx := newContext(t,
		"--config", writeConfig(t),
		"--data-dir", dir,
		"--api-addr", "localhost:9000",
		"--api-logs-limit", "10",
		"--checkpoint-interval", "5s",
	)
	cfg, err := loadConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, "localhost:9000", cfg.APIAddr)
	assert.Equal(t, uint64(10), cfg.LogsLimit)
	assert.Equal(t, 5*time.Second, cfg.CheckpointInterval)
	assert.Equal(t, "", cfg.APICors)

	_, err = loadConfig(newContext(t))
	assert.Error(t, err, "token is required")
}

func TestOpenLedger(t *testing.T) {
	dir := t.TempDir()
	ctx := newContext(t, "--config", writeConfig(t), "--data-dir", dir)
	cfg, err := loadConfig(ctx)
	require.NoError(t, err)

	l, err := openLedger(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, l.checkpoint(1000))
	now, err := l.escrow.Now()
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), now)
	assert.Error(t, l.checkpoint(999), "time never moves backwards")
	l.Close()

	assert.FileExists(t, filepath.Join(dir, "events.db"))

	// the clock survives a restart
	l, err = openLedger(ctx, cfg)
	require.NoError(t, err)
	defer l.Close()
	now, err = l.escrow.Now()
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), now)
}

func TestStartAPIServer(t *testing.T) {
	ctx := newContext(t, "--config", writeConfig(t), "--mem")
	require.NoError(t, initLogger(ctx))
	cfg, err := loadConfig(ctx)
	require.NoError(t, err)
	l, err := openLedger(ctx, cfg)
	require.NoError(t, err)
	defer l.Close()

	group := co.NewGroup()
	url, closeFunc, err := startAPIServer(group, "localhost:0", api.New(l.escrow, l.logDB, api.Options{LogsLimit: 10}))
	require.NoError(t, err)

	err = test.Retry(func() error {
		res, err := http.Get(url + "supply")
		if err != nil {
			return err
		}
		defer res.Body.Close()
		if res.StatusCode != http.StatusOK {
			return errors.Errorf("status %d", res.StatusCode)
		}
		return nil
	}, 10*time.Millisecond, time.Second)
	assert.NoError(t, err)

	closeFunc()
	group.Stop()
	group.Wait()

	_, _, err = startAPIServer(group, "not-an-addr", nil)
	assert.Error(t, err)
}
