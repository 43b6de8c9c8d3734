package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"market-backfill/src/config"
)

const usage = `usage: market-backfill [-config PATH] COMMAND [ARGS]

commands:
  gaps SYMBOL                       list missing session minutes
  backfill [SYMBOL...]              fetch missing bars from upstream
  interpolate [SYMBOL...]           synthesize bars for bounded gaps
  reconcile [SYMBOL...]             backfill, then interpolate when enabled
  coverage [SYMBOL...]              coverage table
  status [SYMBOL...]                one "percentage complete" line per symbol
  calendar [diff] YEAR              trading calendar, or builtin vs exchange
  export SYMBOL FROM TO OUT.parquet write stored bars to parquet
  serve                             API, gRPC health and daily reconcile
  config init PATH                  write a default configuration
`

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "config/default.yaml", "path to config file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(context.Background(), *configPath, args[0], args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// -----------------------------------------------------------------------------

func run(ctx context.Context, configPath, command string, args []string) error {
	// Commands that do not touch the store
	switch command {
	case "config":
		return runConfigInit(args)
	case "calendar":
		cfg, err := config.NewConfig(configPath)
		if err != nil {
			return err
		}
		return runCalendar(cfg, args)
	}

	app, cleanup, err := InitializeApp(ConfigPath(configPath))
	if err != nil {
		return err
	}
	defer cleanup()
	defer app.Logger.Sync()

	switch command {
	case "gaps":
		return runGaps(ctx, app, args)
	case "backfill", "interpolate", "reconcile":
		return runOperation(ctx, app, operations[command], args)
	case "coverage":
		return runCoverage(ctx, app, args, false)
	case "status":
		return runCoverage(ctx, app, args, true)
	case "export":
		return runExport(ctx, app, args)
	case "serve":
		return runServe(ctx, app)
	default:
		return fmt.Errorf("unknown command %q\n\n%s", command, usage)
	}
}
