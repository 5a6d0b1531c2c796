package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/rpggio/chainledger/internal/app"
	"github.com/rpggio/chainledger/internal/calendar"
	"github.com/rpggio/chainledger/internal/config"
	"github.com/rpggio/chainledger/internal/domain/period"
	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

// cli carries the global flags and the lazily opened app.
type cli struct {
	tenant  string
	asOf    string
	output  string
	verbose bool

	// loadConfig is replaced in tests.
	loadConfig func() (config.Config, error)
	out        io.Writer
	app        *app.App
}

func newCLI() *cli {
	return &cli{loadConfig: config.Load, out: os.Stdout}
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Manage stores and weekly sales periods",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&c.tenant, "tenant", "", "Tenant ID (default: auth.default_tenant)")
	root.PersistentFlags().StringVar(&c.asOf, "as-of", "", "Evaluate as if today were this date (YYYY-MM-DD)")
	root.PersistentFlags().StringVarP(&c.output, "output", "o", "text", "Output format: text or json")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Log ledger decisions to stderr")

	root.AddCommand(
		newMigrateCmd(c),
		newWeekInfoCmd(c),
		newCurrentWeekCmd(c),
		newStoresCmd(c),
		newAdmitCmd(c),
		newReviseCmd(c),
		newRetireCmd(c),
		newListCmd(c),
		newTotalsCmd(c),
	)
	return root
}

// execute runs args and closes the app whether or not the command failed.
func execute(c *cli, args []string) error {
	root := newRootCmd(c)
	root.SetArgs(args)
	err := root.Execute()
	if closeErr := c.close(); err == nil {
		err = closeErr
	}
	return err
}

func (c *cli) close() error {
	if c.app == nil {
		return nil
	}
	err := c.app.Close()
	c.app = nil
	return err
}

func (c *cli) clock() (calendar.Clock, error) {
	if c.asOf == "" {
		return calendar.SystemClock{}, nil
	}
	at, err := time.Parse(dateLayout, c.asOf)
	if err != nil {
		return nil, fmt.Errorf("invalid --as-of: %w", err)
	}
	// Noon keeps the date stable in any local reading.
	return calendar.FixedClock{At: at.Add(12 * time.Hour)}, nil
}

func (c *cli) logger() *slog.Logger {
	if !c.verbose {
		return nil
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// open loads configuration and connects to the database once per invocation.
func (c *cli) open(ctx context.Context) (*app.App, error) {
	if c.app != nil {
		return c.app, nil
	}
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	if c.tenant == "" {
		c.tenant = cfg.Auth.DefaultTenant
	}
	clock, err := c.clock()
	if err != nil {
		return nil, err
	}
	a, err := app.New(ctx, cfg, c.logger(), period.WithClock(clock))
	if err != nil {
		return nil, err
	}
	c.app = a
	return a, nil
}

// calendarLedger answers calendar questions without a database.
func (c *cli) calendarLedger() (*period.Ledger, error) {
	clock, err := c.clock()
	if err != nil {
		return nil, err
	}
	return period.NewLedger(nil, nil, nil, nil, period.WithClock(clock)), nil
}

func (c *cli) print(v any, text func(w io.Writer) error) error {
	switch c.output {
	case "json":
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "text", "":
		return text(c.out)
	default:
		return fmt.Errorf("unknown output format %q", c.output)
	}
}

func parseDateFlag(name, value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s %q: want YYYY-MM-DD", name, value)
	}
	return t, nil
}
