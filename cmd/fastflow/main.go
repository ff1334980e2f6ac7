package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"fastflow/internal/bootstrap"
	"fastflow/internal/platform/config"
	"fastflow/internal/platform/timeparse"
)

var (
	titleStyle = color.New(color.FgCyan, color.Bold)
	goodStyle  = color.New(color.FgGreen)
	warnStyle  = color.New(color.FgYellow)
	mutedStyle = color.New(color.Faint)
)

func main() {
	_ = godotenv.Load(".env")
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootOptions struct {
	dataDir    string
	configFile string
	backend    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "fastflow",
		Short:         "Intermittent fasting tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.dataDir, "data", "", "data directory (default ~/.fastflow)")
	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default <data>/config.yaml)")
	root.PersistentFlags().StringVar(&opts.backend, "backend", "", "storage backend: bolt|file|sqlite|redis|memory")

	root.AddCommand(newStartCmd(opts))
	root.AddCommand(newEndCmd(opts))
	root.AddCommand(newStatusCmd(opts))
	root.AddCommand(newAdjustStartCmd(opts))
	root.AddCommand(newEditCmd(opts))
	root.AddCommand(newHistoryCmd(opts))
	root.AddCommand(newStatsCmd(opts))
	root.AddCommand(newCalendarCmd(opts))
	root.AddCommand(newPhasesCmd(opts))
	root.AddCommand(newSettingsCmd(opts))
	root.AddCommand(newExportCmd(opts))
	root.AddCommand(newImportCmd(opts))
	root.AddCommand(newTUICmd(opts))
	return root
}

func loadConfig(opts *rootOptions) (config.Config, error) {
	return config.Load(config.Options{DataDir: opts.dataDir, ConfigFile: opts.configFile, Backend: opts.backend})
}

// runWithApp builds the app with logs on stderr, runs fn and always closes
// the app so pending writes reach the store.
func runWithApp(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, app *bootstrap.App) error) (err error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	app, err := bootstrap.New(ctx, cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := app.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close store: %w", closeErr)
		}
	}()
	return fn(ctx, app)
}

func newStartCmd(opts *rootOptions) *cobra.Command {
	var plan string
	var hours float64
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a fast",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWithApp(cmd, opts, func(ctx context.Context, app *bootstrap.App) error {
				fmtTime := timeFormatter(ctx, app)
				out, err := app.FastingCLI.Start(ctx, plan, hours)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				_, _ = titleStyle.Fprintf(w, "started %s fast", out.Plan)
				_, _ = fmt.Fprintf(w, " (%s)\n", out.ID)
				_, _ = fmt.Fprintf(w, "target %gh, ends around %s\n", out.TargetHours, fmtTime(out.TargetAt))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&plan, "plan", "", "plan: 16/8|18/6|20/4|OMAD|Custom or any label (default from settings)")
	cmd.Flags().Float64Var(&hours, "hours", 0, "target hours (default from plan)")
	return cmd
}

func newEndCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "end",
		Short: "End the current fast",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWithApp(cmd, opts, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.FastingCLI.End(ctx)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				if !out.Ended {
					_, _ = fmt.Fprintln(w, "no active fast")
					return nil
				}
				style := warnStyle
				if out.Fast.ReachedGoal {
					style = goodStyle
				}
				_, _ = style.Fprintf(w, "ended fast after %s (%.1fh of %gh)\n", out.Fast.DurationText, out.Fast.Hours, out.Fast.TargetHours)
				_, _ = fmt.Fprintf(w, "eating window: %gh\n", out.EatingTargetHours)
				return nil
			})
		},
	}
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current fast or eating window",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWithApp(cmd, opts, func(ctx context.Context, app *bootstrap.App) error {
				fmtTime := timeFormatter(ctx, app)
				status, err := app.FastingCLI.Status(ctx)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				switch {
				case status.Active != nil:
					a := status.Active
					_, _ = titleStyle.Fprintf(w, "fasting  %s\n", a.Plan)
					_, _ = fmt.Fprintf(w, "  id       %s\n", a.ID)
					_, _ = fmt.Fprintf(w, "  started  %s\n", fmtTime(a.StartAt))
					_, _ = fmt.Fprintf(w, "  elapsed  %s / %gh  [%d%%]\n", a.ElapsedText, a.TargetHours, int(a.Progress*100))
					if a.Phase != nil {
						_, _ = fmt.Fprintf(w, "  phase    %s %s\n", a.Phase.Icon, a.Phase.Label)
					}
					if a.NextPhase != nil {
						_, _ = mutedStyle.Fprintf(w, "  next     %s %s at %gh\n", a.NextPhase.Icon, a.NextPhase.Label, a.NextPhase.Hours)
					}
				case status.Eating != nil:
					e := status.Eating
					_, _ = titleStyle.Fprintln(w, "eating window")
					_, _ = fmt.Fprintf(w, "  since    %s\n", fmtTime(e.StartAt))
					_, _ = fmt.Fprintf(w, "  elapsed  %s / %gh  [%d%%]\n", e.ElapsedText, e.TargetHours, int(e.Progress*100))
				default:
					_, _ = fmt.Fprintln(w, "no active fast")
				}
				_, _ = fmt.Fprintf(w, "streak %d day(s), best %d (>= %gh)\n", status.Streak, status.BestStreak, status.StreakMinHours)
				if status.PersistFailures > 0 {
					_, _ = warnStyle.Fprintf(w, "%d write(s) failed to persist\n", status.PersistFailures)
				}
				return nil
			})
		},
	}
}

func newAdjustStartCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "adjust-start <time>",
		Short: "Move the start of the current fast (never into the future)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, opts, func(ctx context.Context, app *bootstrap.App) error {
				startAt, err := timeparse.Parse(args[0], time.Now().In(app.Config.Location()))
				if err != nil {
					return err
				}
				fmtTime := timeFormatter(ctx, app)
				out, err := app.FastingCLI.AdjustStart(ctx, startAt)
				if err != nil {
					return err
				}
				if !out.Adjusted {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no active fast")
					return nil
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "start moved to %s\n", fmtTime(out.StartAt))
				return nil
			})
		},
	}
}

func newEditCmd(opts *rootOptions) *cobra.Command {
	var fastID, start, end string
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Correct the start and end of a recorded fast",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWithApp(cmd, opts, func(ctx context.Context, app *bootstrap.App) error {
				now := time.Now().In(app.Config.Location())
				startAt, err := timeparse.Parse(start, now)
				if err != nil {
					return fmt.Errorf("--start: %w", err)
				}
				var endAt *time.Time
				if strings.TrimSpace(end) != "" {
					parsed, err := timeparse.Parse(end, now)
					if err != nil {
						return fmt.Errorf("--end: %w", err)
					}
					endAt = &parsed
				}
				out, err := app.FastingCLI.EditFast(ctx, fastID, startAt, endAt)
				if err != nil {
					return err
				}
				if !out.Updated {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "no fast with id %s\n", fastID)
					return nil
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "updated %s\n", fastID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&fastID, "id", "", "fast id")
	cmd.Flags().StringVar(&start, "start", "", "new start time")
	cmd.Flags().StringVar(&end, "end", "", "new end time (omit to keep the current fast running)")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("start")
	return cmd
}

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past fasts, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWithApp(cmd, opts, func(ctx context.Context, app *bootstrap.App) error {
				fmtTime := timeFormatter(ctx, app)
				out, err := app.FastingCLI.History(ctx, limit)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				if len(out.Fasts) == 0 {
					_, _ = fmt.Fprintln(w, "no completed fasts")
					return nil
				}
				for _, f := range out.Fasts {
					mark := warnStyle.Sprint("·")
					if f.ReachedGoal {
						mark = goodStyle.Sprint("✓")
					}
					_, _ = fmt.Fprintf(w, "%s %s → %s  %5.1fh  %-6s %s\n",
						mark,
						fmtTime(f.StartAt),
						fmtTime(f.EndAt),
						f.Hours, f.Plan, mutedStyle.Sprint(f.ID))
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "max fasts to list (negative for all)")
	return cmd
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	var minHours float64
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show streaks and the last seven days",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWithApp(cmd, opts, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.FastingCLI.Stats(ctx, minHours)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				_, _ = titleStyle.Fprintln(w, "last 7 days")
				for _, d := range out.Days {
					_, _ = fmt.Fprintf(w, "  %s %5.1fh %s\n", d.Label, d.Hours, strings.Repeat("█", int(d.Hours+0.5)))
				}
				_, _ = fmt.Fprintf(w, "streak %d, best %d (>= %gh)\n", out.Streak, out.BestStreak, out.MinHours)
				_, _ = fmt.Fprintf(w, "fasts %d, total %.1fh, average %.1fh, longest %.1fh\n", out.TotalFasts, out.TotalHours, out.AverageHours, out.LongestHours)
				return nil
			})
		},
	}
	cmd.Flags().Float64Var(&minHours, "min-hours", 0, "qualifying hours for a streak day (default from config)")
	return cmd
}

func newCalendarCmd(opts *rootOptions) *cobra.Command {
	var month string
	var minHours float64
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Show a month of fasting days",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWithApp(cmd, opts, func(ctx context.Context, app *bootstrap.App) error {
				monthStart, err := timeparse.ParseMonth(month, time.Now().In(app.Config.Location()))
				if err != nil {
					return err
				}
				out, err := app.FastingCLI.Calendar(ctx, monthStart, minHours)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				_, _ = titleStyle.Fprintln(w, out.Month.Format("January 2006"))
				_, _ = fmt.Fprintln(w, "Su Mo Tu We Th Fr Sa")
				if len(out.Days) > 0 {
					_, _ = fmt.Fprint(w, strings.Repeat("   ", int(out.Days[0].Date.Weekday())))
				}
				for _, d := range out.Days {
					cell := fmt.Sprintf("%2d", d.Date.Day())
					switch d.Status {
					case "success":
						cell = goodStyle.Sprint(cell)
					case "partial":
						cell = warnStyle.Sprint(cell)
					}
					_, _ = fmt.Fprint(w, cell)
					if d.Date.Weekday() == time.Saturday {
						_, _ = fmt.Fprintln(w)
					} else {
						_, _ = fmt.Fprint(w, " ")
					}
				}
				_, _ = fmt.Fprintln(w)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "month as 2006-01 (default current)")
	cmd.Flags().Float64Var(&minHours, "min-hours", 0, "hours for a successful day (default from config)")
	return cmd
}

func newPhasesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "phases",
		Short: "Show fasting phases for the current fast",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWithApp(cmd, opts, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.FastingCLI.Phases(ctx)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				for _, p := range out.Phases {
					line := fmt.Sprintf("%s %-18s %4gh", p.Icon, p.Label, p.Hours)
					switch {
					case p.Current:
						_, _ = goodStyle.Fprintln(w, line+"  ← now")
					case p.Reached:
						_, _ = fmt.Fprintln(w, line)
					default:
						_, _ = mutedStyle.Fprintln(w, line)
					}
				}
				if !out.Active {
					_, _ = fmt.Fprintln(w, "no active fast")
				}
				return nil
			})
		},
	}
}

func newSettingsCmd(opts *rootOptions) *cobra.Command {
	settings := &cobra.Command{Use: "settings", Short: "Show or change preferences"}

	settings.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWithApp(cmd, opts, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.FastingCLI.Settings(ctx)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "default plan   %s\ndefault hours  %g\nuse 24h        %t\n", out.DefaultPlan, out.DefaultTargetHours, out.Use24h)
				return nil
			})
		},
	})

	var plan string
	var hours float64
	var use24h bool
	set := &cobra.Command{
		Use:   "set",
		Short: "Change settings (only the given flags)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var planPtr *string
			var hoursPtr *float64
			var use24hPtr *bool
			if cmd.Flags().Changed("plan") {
				planPtr = &plan
			}
			if cmd.Flags().Changed("hours") {
				hoursPtr = &hours
			}
			if cmd.Flags().Changed("use24h") {
				use24hPtr = &use24h
			}
			if planPtr == nil && hoursPtr == nil && use24hPtr == nil {
				return fmt.Errorf("nothing to change: pass --plan, --hours or --use24h")
			}
			return runWithApp(cmd, opts, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.FastingCLI.UpdateSettings(ctx, planPtr, hoursPtr, use24hPtr)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "settings saved: plan=%s hours=%g use24h=%t\n", out.DefaultPlan, out.DefaultTargetHours, out.Use24h)
				return nil
			})
		},
	}
	set.Flags().StringVar(&plan, "plan", "", "default plan")
	set.Flags().Float64Var(&hours, "hours", 0, "default target hours")
	set.Flags().BoolVar(&use24h, "use24h", true, "24-hour clock display")
	settings.AddCommand(set)
	return settings
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	var format, outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export fasts and settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWithApp(cmd, opts, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.FastingCLI.Export(ctx, format)
				if err != nil {
					return err
				}
				if outPath == "" || outPath == "-" {
					_, err := cmd.OutOrStdout().Write(out.Data)
					return err
				}
				if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
					return fmt.Errorf("create export dir: %w", err)
				}
				if err := os.WriteFile(outPath, out.Data, 0o644); err != nil {
					return fmt.Errorf("write export: %w", err)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "exported %s to %s\n", out.Format, outPath)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "json|yaml")
	cmd.Flags().StringVar(&outPath, "out", "", "output file (default stdout)")
	return cmd
}

func newImportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Replace all fasts and settings from a JSON export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			var err error
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("read import: %w", err)
			}
			return runWithApp(cmd, opts, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.FastingCLI.Import(ctx, data)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "imported %d fast(s), active=%t\n", out.Fasts, out.Active)
				return nil
			})
		},
	}
}

func newTUICmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the fastflow terminal UI",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
				return fmt.Errorf("create data dir: %w", err)
			}
			logFile, err := os.OpenFile(cfg.LogPath(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
			if err != nil {
				return fmt.Errorf("open log file: %w", err)
			}
			defer func() { _ = logFile.Close() }()

			app, err := bootstrap.New(context.Background(), cfg, logFile)
			if err != nil {
				return err
			}
			runErr := bootstrap.RunTUI(app)
			if err := app.Close(); err != nil && runErr == nil {
				runErr = err
			}
			return runErr
		},
	}
}

// timeFormatter renders times in the configured zone, honoring the 24h
// display setting.
func timeFormatter(ctx context.Context, app *bootstrap.App) func(time.Time) string {
	layout := "Mon Jan 2 15:04"
	if settings, err := app.FastingCLI.Settings(ctx); err == nil && !settings.Use24h {
		layout = "Mon Jan 2 3:04 PM"
	}
	loc := app.Config.Location()
	return func(t time.Time) string { return t.In(loc).Format(layout) }
}
