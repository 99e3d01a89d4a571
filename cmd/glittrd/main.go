package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"glittr.dev/core/api"
	"glittr.dev/core/config"
	"glittr.dev/core/indexer"
	"glittr.dev/core/rpcclient"
	"glittr.dev/core/store"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	defaults := config.Load("")
	cfg := defaults

	fs := flag.NewFlagSet("glittrd", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.Network, "network", defaults.Network, "host chain network name")
	fs.StringVar(&cfg.DataDir, "datadir", defaults.DataDir, "indexer data directory")
	fs.StringVar(&cfg.BTCRPCURL, "rpc-url", defaults.BTCRPCURL, "host chain RPC endpoint")
	fs.StringVar(&cfg.BTCRPCUsername, "rpc-user", defaults.BTCRPCUsername, "host chain RPC username")
	fs.StringVar(&cfg.BTCRPCPassword, "rpc-pass", defaults.BTCRPCPassword, "host chain RPC password")
	fs.StringVar(&cfg.APIBindAddr, "api-bind", defaults.APIBindAddr, "HTTP API bind address")
	fs.StringVar(&cfg.LogLevel, "log-level", defaults.LogLevel, "log level: debug|info|warn|error")
	fs.Uint64Var(&cfg.OracleMaxStaleness, "oracle-max-staleness", defaults.OracleMaxStaleness, "max blocks an oracle message may lag the chain tip")
	dryRun := fs.Bool("dry-run", false, "validate config and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if err := config.Validate(cfg); err != nil {
		_, _ = fmt.Fprintf(stderr, "invalid config: %v\n", err)
		return 2
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "invalid log level: %v\n", err)
		return 2
	}
	logrus.SetLevel(level)

	if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
		_, _ = fmt.Fprintf(stderr, "datadir create failed: %v\n", err)
		return 2
	}

	_, _ = fmt.Fprintf(stdout, "glittrd: network=%s datadir=%s api=%s rpc=%s\n", cfg.Network, cfg.DataDir, cfg.APIBindAddr, cfg.BTCRPCURL)
	if *dryRun {
		return 0
	}

	db, err := store.Open(cfg.DataDir)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "store open failed: %v\n", err)
		return 2
	}
	defer func() { _ = db.Close() }()

	client, err := rpcclient.New(rpcclient.Config{
		Host:         cfg.BTCRPCURL,
		User:         cfg.BTCRPCUsername,
		Pass:         cfg.BTCRPCPassword,
		DisableTLS:   true,
		HTTPPostMode: true,
		Timeout:      cfg.RPCTimeout,
	})
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "rpc dial failed: %v\n", err)
		return 2
	}
	defer client.Shutdown()

	driver := indexer.NewDriver(db, client)
	if err := driver.WarmTickerBloom(); err != nil {
		_, _ = fmt.Fprintf(stderr, "ticker bloom warm failed: %v\n", err)
		return 2
	}

	apiServer := api.New(cfg.APIBindAddr, driver)
	apiErrCh := make(chan error, 1)
	go func() { apiErrCh <- apiServer.ListenAndServe() }()

	stop := make(chan struct{})
	driverErrCh := make(chan error, 1)
	go func() { driverErrCh <- driver.Run(stop) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		_, _ = fmt.Fprintf(stdout, "glittrd: received %s, shutting down\n", sig)
		close(stop)
		<-driverErrCh
		return 0
	case err := <-apiErrCh:
		_, _ = fmt.Fprintf(stderr, "api server stopped: %v\n", err)
		close(stop)
		return 1
	case err := <-driverErrCh:
		_, _ = fmt.Fprintf(stderr, "driver stopped: %v\n", err)
		return 1
	}
}
