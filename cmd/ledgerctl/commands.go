package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/rpggio/chainledger/internal/calendar"
	"github.com/rpggio/chainledger/internal/domain/period"
	"github.com/rpggio/chainledger/internal/domain/store"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newMigrateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.Migrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "schema up to date (%s)\n", a.Config.DB.Driver)
			return nil
		},
	}
}

func newWeekInfoCmd(c *cli) *cobra.Command {
	var year, week int
	cmd := &cobra.Command{
		Use:   "week-info",
		Short: "Show the Monday and Sunday of an ISO week",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ledger, err := c.calendarLedger()
			if err != nil {
				return err
			}
			info, err := ledger.WeekInfo(year, week)
			if err != nil {
				return err
			}
			return c.print(info, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "%d-W%02d  %s .. %s  aligned=%t\n",
					info.Year, info.WeekNumber, info.WeekStart.Format(dateLayout), info.WeekEnd.Format(dateLayout), info.IsAligned)
				return err
			})
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "ISO week-numbering year")
	cmd.Flags().IntVar(&week, "week", 0, "ISO week number")
	_ = cmd.MarkFlagRequired("year")
	_ = cmd.MarkFlagRequired("week")
	return cmd
}

func newCurrentWeekCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "current-week",
		Short: "Show today's ISO week",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ledger, err := c.calendarLedger()
			if err != nil {
				return err
			}
			wk := ledger.CurrentWeek()
			return c.print(wk, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "%s is week %d of %d  %s .. %s\n",
					wk.Date.Format(dateLayout), wk.WeekNumber, wk.Year, wk.WeekStart.Format(dateLayout), wk.WeekEnd.Format(dateLayout))
				return err
			})
		},
	}
}

func newStoresCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stores",
		Short: "Register and list stores",
	}

	var id int64
	var code, name string
	create := &cobra.Command{
		Use:   "create",
		Short: "Register a store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			s, err := a.Stores.Create(cmd.Context(), c.tenant, store.CreateRequest{ID: id, Code: code, Name: name})
			if err != nil {
				return err
			}
			return c.print(s, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "store %d created (%s %s)\n", s.ID, s.Code, s.Name)
				return err
			})
		},
	}
	create.Flags().Int64Var(&id, "id", 0, "Store ID (default: next free ID)")
	create.Flags().StringVar(&code, "code", "", "Short unique store code")
	create.Flags().StringVar(&name, "name", "", "Store name")
	_ = create.MarkFlagRequired("code")
	_ = create.MarkFlagRequired("name")

	list := &cobra.Command{
		Use:   "list",
		Short: "List stores",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			stores, err := a.Stores.List(cmd.Context(), c.tenant)
			if err != nil {
				return err
			}
			return c.print(stores, func(w io.Writer) error {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tCODE\tNAME")
				for _, s := range stores {
					fmt.Fprintf(tw, "%d\t%s\t%s\n", s.ID, s.Code, s.Name)
				}
				return tw.Flush()
			})
		},
	}

	cmd.AddCommand(create, list)
	return cmd
}

// entryFlags are the figures shared by admit and revise.
type entryFlags struct {
	week    int
	weekSet bool
	start   string
	end     string
	revenue string
	units   int64
}

func (f *entryFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.week, "week", 0, "ISO week number (default: week of --start)")
	cmd.Flags().StringVar(&f.start, "start", "", "Monday the week starts on (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.end, "end", "", "Sunday the week ends on (default: --start + 6 days)")
	cmd.Flags().StringVar(&f.revenue, "revenue", "", "Revenue as a decimal amount")
	cmd.Flags().Int64Var(&f.units, "units", 0, "Units sold")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("revenue")
}

// entry builds the period figures. An omitted week or end is derived from
// start. Explicit values go to the ledger as given.
func (f *entryFlags) entry(cmd *cobra.Command) (period.Entry, error) {
	f.weekSet = cmd.Flags().Changed("week")
	return f.build()
}

func (f *entryFlags) build() (period.Entry, error) {
	start, err := parseDateFlag("start", f.start)
	if err != nil {
		return period.Entry{}, err
	}
	end := start.AddDate(0, 0, 6)
	if f.end != "" {
		if end, err = parseDateFlag("end", f.end); err != nil {
			return period.Entry{}, err
		}
	}
	week := f.week
	if !f.weekSet {
		week = calendar.IsoWeekNumber(start)
	}
	revenue, err := decimal.NewFromString(f.revenue)
	if err != nil {
		return period.Entry{}, fmt.Errorf("invalid --revenue %q: %w", f.revenue, err)
	}
	return period.Entry{
		WeekNumber: week,
		WeekStart:  start,
		WeekEnd:    end,
		Revenue:    revenue,
		UnitsSold:  f.units,
	}, nil
}

func newAdmitCmd(c *cli) *cobra.Command {
	var storeID int64
	var flags entryFlags
	cmd := &cobra.Command{
		Use:   "admit",
		Short: "Record a store's sales for one week",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entry, err := flags.entry(cmd)
			if err != nil {
				return err
			}
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			p, err := a.Ledger.Admit(cmd.Context(), c.tenant, storeID, entry)
			if err != nil {
				return err
			}
			return c.printPeriod(p, "admitted")
		},
	}
	cmd.Flags().Int64Var(&storeID, "store", 0, "Store ID")
	_ = cmd.MarkFlagRequired("store")
	flags.register(cmd)
	return cmd
}

func newReviseCmd(c *cli) *cobra.Command {
	var flags entryFlags
	cmd := &cobra.Command{
		Use:   "revise <period-id>",
		Short: "Replace the figures of an active period",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, err := flags.entry(cmd)
			if err != nil {
				return err
			}
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			p, err := a.Ledger.Revise(cmd.Context(), c.tenant, args[0], entry)
			if err != nil {
				return err
			}
			return c.printPeriod(p, "revised")
		},
	}
	flags.register(cmd)
	return cmd
}

func newRetireCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "retire <period-id>",
		Short: "Retire an active period",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.Ledger.Retire(cmd.Context(), c.tenant, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "period %s retired\n", args[0])
			return nil
		},
	}
}

func newListCmd(c *cli) *cobra.Command {
	var storeID int64
	var year int
	var from, to string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List active periods by store, calendar year or date range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			var periods []period.WeeklyPeriod
			switch {
			case storeID != 0:
				periods, err = a.Ledger.ByStore(ctx, c.tenant, storeID)
			case year != 0:
				periods, err = a.Ledger.ByYear(ctx, c.tenant, year)
			case from != "" && to != "":
				var start, end time.Time
				if start, err = parseDateFlag("from", from); err != nil {
					return err
				}
				if end, err = parseDateFlag("to", to); err != nil {
					return err
				}
				periods, err = a.Ledger.ByDateRange(ctx, c.tenant, start, end)
			default:
				return errors.New("one of --store, --year or --from/--to is required")
			}
			if err != nil {
				return err
			}
			return c.print(periods, func(w io.Writer) error {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tSTORE\tWEEK\tSTART\tEND\tREVENUE\tUNITS")
				for _, p := range periods {
					fmt.Fprintf(tw, "%s\t%d\t%d-W%02d\t%s\t%s\t%s\t%d\n",
						p.ID, p.StoreID, p.StartYear(), p.WeekNumber,
						p.WeekStart.Format(dateLayout), p.WeekEnd.Format(dateLayout),
						p.Revenue.StringFixed(2), p.UnitsSold)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().Int64Var(&storeID, "store", 0, "List one store's periods")
	cmd.Flags().IntVar(&year, "year", 0, "List periods starting in a calendar year")
	cmd.Flags().StringVar(&from, "from", "", "First day of a date range (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Last day of a date range (YYYY-MM-DD)")
	cmd.MarkFlagsRequiredTogether("from", "to")
	cmd.MarkFlagsMutuallyExclusive("store", "year", "from")
	return cmd
}

type totals struct {
	StoreID int64           `json:"store_id"`
	From    string          `json:"from"`
	To      string          `json:"to"`
	Total   decimal.Decimal `json:"total"`
	Average decimal.Decimal `json:"average"`
}

func newTotalsCmd(c *cli) *cobra.Command {
	var storeID int64
	var from, to string
	cmd := &cobra.Command{
		Use:   "totals",
		Short: "Total and average weekly revenue of a store over a date range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			start, err := parseDateFlag("from", from)
			if err != nil {
				return err
			}
			end, err := parseDateFlag("to", to)
			if err != nil {
				return err
			}
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			total, err := a.Ledger.TotalRevenue(ctx, c.tenant, storeID, start, end)
			if err != nil {
				return err
			}
			average, err := a.Ledger.AverageRevenue(ctx, c.tenant, storeID, start, end)
			if err != nil {
				return err
			}
			result := totals{StoreID: storeID, From: from, To: to, Total: total, Average: average}
			return c.print(result, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "store %d %s..%s  total %s  average %s\n",
					storeID, from, to, total.StringFixed(2), average.StringFixed(2))
				return err
			})
		},
	}
	cmd.Flags().Int64Var(&storeID, "store", 0, "Store ID")
	cmd.Flags().StringVar(&from, "from", "", "First day of the range (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Last day of the range (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("store")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func (c *cli) printPeriod(p *period.WeeklyPeriod, verb string) error {
	return c.print(p, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "period %s %s: store %d %d-W%02d %s..%s revenue %s units %d\n",
			p.ID, verb, p.StoreID, p.StartYear(), p.WeekNumber,
			p.WeekStart.Format(dateLayout), p.WeekEnd.Format(dateLayout),
			p.Revenue.StringFixed(2), p.UnitsSold)
		return err
	})
}
