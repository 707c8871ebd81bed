package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"triaged/internal/app"
	"triaged/pkg/config"
	"triaged/pkg/shutdown"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// .env is a developer convenience; absence is not an error.
	_ = godotenv.Load()

	var (
		addrFlag    = flag.String("addr", "", "listen address host:port (overrides config)")
		dbFlag      = flag.String("db", "", "pebble database path (overrides config)")
		configFlag  = flag.String("config", "", "path to YAML config file")
		versionFlag = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *versionFlag {
		fmt.Printf("triaged %s (commit %s, built %s)\n", version, commit, buildDate)
		return
	}

	cfgPath := *configFlag
	if cfgPath == "" {
		cfgPath = os.Getenv("TRIAGED_CONFIG")
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	source := "defaults"
	if cfgPath != "" {
		source = cfgPath
	}
	if *addrFlag != "" {
		host, port, ok := config.SplitHostPort(*addrFlag)
		if !ok {
			fmt.Fprintf(os.Stderr, "invalid -addr value: %s\n", *addrFlag)
			os.Exit(1)
		}
		cfg.Server.Address = host
		cfg.Server.Port = port
	}
	if *dbFlag != "" {
		cfg.Server.DBPath = *dbFlag
	}

	ctx, cancel := shutdown.SetupSignalHandler(context.Background())
	defer cancel()

	a := app.New(cfg, source, version)
	if err := a.Run(ctx); err != nil {
		shutdown.Abort("service failed", err, cfg.Server.DBPath)
	}
}
