package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/julianstephens/calhours/internal/cli"
	"github.com/julianstephens/calhours/internal/client"
	"github.com/julianstephens/calhours/internal/constants"
	"github.com/julianstephens/calhours/internal/keyring"
	"github.com/julianstephens/calhours/internal/logger"
	"github.com/julianstephens/calhours/internal/storage"
)

var CLI struct {
	Version   kong.VersionFlag
	Endpoint  string        `help:"Base URL of the calendar aggregation service." env:"CALHOURS_ENDPOINT" default:"${default_endpoint}"`
	Timeout   time.Duration `help:"Request timeout." env:"CALHOURS_TIMEOUT" default:"${default_timeout}"`
	Token     string        `help:"Bearer token. Falls back to the OS keyring." env:"CALHOURS_TOKEN"`
	DB        string        `help:"Snapshot database path (.json for a JSON file)." type:"path" env:"CALHOURS_DB" default:"${default_db}"`
	NoHistory bool          `help:"Do not record or read snapshot history."`
	Debug     bool          `help:"Enable debug logging."`

	Init    cli.InitCmd    `cmd:"" help:"Initialize calhours storage."`
	Tui     cli.TuiCmd     `cmd:"" help:"Launch the interactive dashboard." default:"withargs"`
	Show    cli.ShowCmd    `cmd:"" help:"Fetch once and print the charts."`
	History cli.HistoryCmd `cmd:"" help:"List stored snapshots."`
	Doctor  cli.DoctorCmd  `cmd:"" help:"Run health checks and diagnostics."`
	Tokens  struct {
		Set    cli.TokenSetCmd    `cmd:"" help:"Store the bearer token in the OS keyring."`
		Delete cli.TokenDeleteCmd `cmd:"" help:"Remove the bearer token from the OS keyring."`
	} `cmd:"" name:"token" help:"Manage the endpoint bearer token."`
}

func main() {
	// Load .env file for local development (ignore errors when absent)
	_ = godotenv.Load()

	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Terminal dashboard of hours spent per calendar"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version":          constants.Version,
			"default_endpoint": constants.DefaultEndpoint,
			"default_timeout":  constants.DefaultTimeout.String(),
			"default_db":       constants.DefaultConfigPath,
			"history_limit":    strconv.Itoa(constants.DefaultHistoryLimit),
		},
	)

	interactive := strings.HasPrefix(ctx.Command(), "tui")
	if err := logger.Init(logger.Config{
		Debug:     CLI.Debug,
		ConfigDir: filepath.Dir(CLI.DB),
		Console:   !interactive,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
	}

	appCtx := &cli.Context{
		Store:     storage.New(CLI.DB),
		Fetcher:   client.New(CLI.Endpoint, CLI.Timeout, client.WithToken(keyring.ResolveToken(CLI.Token))),
		Endpoint:  CLI.Endpoint,
		Timeout:   CLI.Timeout,
		NoHistory: CLI.NoHistory,
	}

	err := ctx.Run(appCtx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
