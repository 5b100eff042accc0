package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"workforce-scheduler/config"
	wfmerrors "workforce-scheduler/errors"
	"workforce-scheduler/forecaster"
	"workforce-scheduler/formatter"
	"workforce-scheduler/metrics"
	"workforce-scheduler/models"
	"workforce-scheduler/parser"
	"workforce-scheduler/planner"
	"workforce-scheduler/store"
)

var validFormats = map[string]bool{"text": true, "json": true, "csv": true}

func checkFormat(format string) error {
	if !validFormats[format] {
		return fmt.Errorf("format must be one of: text, json, csv (got: %s)", format)
	}
	return nil
}

// windowFlags are shared by forecast and schedule.
type windowFlags struct {
	queues []string
	start  string
	end    string
	format string
}

func (w *windowFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&w.queues, "queues", "q", nil, "queue names (comma separated)")
	cmd.Flags().StringVar(&w.start, "start", "", "window start, e.g. 2024-03-11T08:00")
	cmd.Flags().StringVar(&w.end, "end", "", "window end (exclusive)")
	cmd.Flags().StringVarP(&w.format, "format", "f", "text", "output format: text|json|csv")
}

func (w *windowFlags) queueNames() []models.QueueName {
	out := make([]models.QueueName, 0, len(w.queues))
	for _, q := range w.queues {
		out = append(out, models.QueueName(q))
	}
	return out
}

func (w *windowFlags) window(loc *time.Location) (time.Time, time.Time, error) {
	if w.start == "" || w.end == "" {
		return time.Time{}, time.Time{}, &wfmerrors.ValidationError{Field: "window", Reason: "--start and --end are required", Err: wfmerrors.ErrInvalidWindow}
	}
	start, err := parser.ParseTimestamp(w.start, loc)
	if err != nil {
		return time.Time{}, time.Time{}, &wfmerrors.ValidationError{Field: "start", Reason: w.start, Err: err}
	}
	end, err := parser.ParseTimestamp(w.end, loc)
	if err != nil {
		return time.Time{}, time.Time{}, &wfmerrors.ValidationError{Field: "end", Reason: w.end, Err: err}
	}
	return start, end, nil
}

func registerParams(cmd *cobra.Command, p *forecaster.Params) {
	cmd.Flags().IntVar(&p.GranularityMinutes, "granularity", p.GranularityMinutes, "slot granularity in minutes")
	cmd.Flags().IntVar(&p.LookbackWeeks, "lookback", p.LookbackWeeks, "weeks of history to average")
	cmd.Flags().Float64Var(&p.ShrinkageFactor, "shrinkage", p.ShrinkageFactor, "shrinkage factor in [0,1)")
	cmd.Flags().Float64Var(&p.TargetOccupancy, "occupancy", p.TargetOccupancy, "target occupancy in (0,1]")
	cmd.Flags().Float64Var(&p.ConfidenceIntervalPct, "confidence-pct", p.ConfidenceIntervalPct, "fallback confidence band when history has no variance")
}

func (a *app) forecastCmd() *cobra.Command {
	var (
		w           windowFlags
		samplesPath string
		date        string
		openHour    int
		closeHour   int
	)
	params := a.cfg.ForecastParams()

	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Forecast calls and required FTE per queue and slot",
		Example: `  wfm forecast -q sales,support --start 2024-03-11T08:00 --end 2024-03-11T17:00 --samples samples.csv
  wfm forecast -q support --date 2024-03-11 --open-hour 8 --close-hour 17 -f csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(w.format); err != nil {
				return err
			}
			ctx := cmd.Context()
			queues := w.queueNames()

			var results []models.ForecastResult
			if date != "" {
				day, err := time.ParseInLocation(time.DateOnly, date, a.loc)
				if err != nil {
					return &wfmerrors.ValidationError{Field: "date", Reason: date, Err: err}
				}
				p := planner.New(a.logger, a.cfg.Workers)
				if _, err := dayRequest(p, queues, day, openHour, closeHour, params); err != nil {
					return err
				}
				from := day.AddDate(0, 0, -7*params.LookbackWeeks)
				samples, err := a.samples(ctx, samplesPath, queues, from, day.AddDate(0, 0, 1))
				if err != nil {
					return err
				}
				var reqs []models.ForecastRequest
				for _, q := range queues {
					reqs = append(reqs, forecaster.DailyRequests(q, day, samples, openHour, closeHour, params)...)
				}
				start := time.Now()
				results, err = forecaster.ForecastAll(ctx, reqs, a.cfg.Workers)
				if err != nil {
					return err
				}
				metrics.RecordForecasts(results, time.Since(start))
			} else {
				start, end, err := w.window(a.loc)
				if err != nil {
					return err
				}
				req := planner.Request{Queues: queues, WindowStart: start, WindowEnd: end, Forecast: params}
				p := planner.New(a.logger, a.cfg.Workers)
				if err := p.Validate(req.Normalize()); err != nil {
					return err
				}
				samples, err := a.samples(ctx, samplesPath, queues, start.AddDate(0, 0, -7*params.LookbackWeeks), end)
				if err != nil {
					return err
				}
				results, err = p.Forecast(ctx, req, samples)
				if err != nil {
					return err
				}
			}

			switch w.format {
			case "json":
				fmt.Print(formatter.FormatJSON(results))
			case "csv":
				fmt.Print(formatter.FormatForecastCSV(results))
			default: // "text"
				fmt.Print(formatter.FormatForecastText(results))
			}
			return nil
		},
	}
	w.register(cmd)
	registerParams(cmd, &params)
	cmd.Flags().StringVar(&samplesPath, "samples", "", "historical samples CSV (default: read from --db)")
	cmd.Flags().StringVar(&date, "date", "", "forecast one operating day (YYYY-MM-DD) instead of --start/--end")
	cmd.Flags().IntVar(&openHour, "open-hour", 8, "first hour of the operating day, with --date")
	cmd.Flags().IntVar(&closeHour, "close-hour", 17, "hour the operating day ends, with --date")
	return cmd
}

// dayRequest validates a one-day forecast the same way a --start/--end
// window is validated, with the operating hours as the window.
func dayRequest(p *planner.Planner, queues []models.QueueName, day time.Time, openHour, closeHour int, params forecaster.Params) (planner.Request, error) {
	if openHour < 0 || closeHour > 24 || closeHour <= openHour {
		return planner.Request{}, &wfmerrors.ValidationError{Field: "hours", Reason: "need 0 <= open < close <= 24", Err: wfmerrors.ErrInvalidWindow}
	}
	y, m, d := day.Date()
	req := planner.Request{
		Queues:      queues,
		WindowStart: time.Date(y, m, d, openHour, 0, 0, 0, day.Location()),
		WindowEnd:   time.Date(y, m, d, closeHour, 0, 0, 0, day.Location()),
		Forecast:    params,
	}
	if err := p.Validate(req.Normalize()); err != nil {
		return planner.Request{}, err
	}
	return req, nil
}

func (a *app) scheduleCmd() *cobra.Command {
	var (
		w                windowFlags
		samplesPath      string
		availabilityPath string
		skillsPath       string
		constraintsPath  string
	)
	params := a.cfg.ForecastParams()

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Forecast demand and assign agents to cover it",
		Example: `  wfm schedule -q sales,support --start 2024-03-11T08:00 --end 2024-03-11T17:00 \
      --samples samples.csv --availability availability.csv --skills skills.csv
  wfm schedule -q support --start 2024-03-11T08:00 --end 2024-03-12T08:00 --constraints constraints.yaml -f json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(w.format); err != nil {
				return err
			}
			ctx := cmd.Context()
			start, end, err := w.window(a.loc)
			if err != nil {
				return err
			}

			constraints := a.cfg.SchedulingConstraints()
			if constraintsPath != "" {
				constraints, err = readConstraints(constraintsPath, constraints)
				if err != nil {
					return err
				}
			}

			req := planner.Request{
				Queues:      w.queueNames(),
				WindowStart: start,
				WindowEnd:   end,
				Forecast:    params,
				Constraints: constraints,
			}
			p := planner.New(a.logger, a.cfg.Workers)

			var in planner.Inputs
			fromFiles := samplesPath != "" || availabilityPath != "" || skillsPath != ""
			if fromFiles {
				if samplesPath == "" || availabilityPath == "" || skillsPath == "" {
					return fmt.Errorf("--samples, --availability and --skills must be given together")
				}
				if in.Samples, err = parseFile(samplesPath, "samples", a.loc, parser.ParseSamples); err != nil {
					return err
				}
				if in.Availabilities, err = parseFile(availabilityPath, "availability", a.loc, parser.ParseAvailability); err != nil {
					return err
				}
				if in.Skills, err = parseFile(skillsPath, "skills", a.loc, parseSkills); err != nil {
					return err
				}
			} else {
				st, err := a.openStore(ctx)
				if err != nil {
					return err
				}
				defer st.Close()
				if in, err = p.Fetch(ctx, st, req); err != nil {
					return err
				}
			}

			plan, err := p.Plan(ctx, req, in)
			if err != nil {
				return err
			}

			switch w.format {
			case "json":
				fmt.Print(formatter.FormatJSON(plan))
			case "csv":
				fmt.Print(formatter.FormatCSV(plan.Output))
			default: // "text"
				fmt.Printf("Run %s\n\n", plan.RunID)
				fmt.Print(formatter.FormatText(plan.Output))
			}
			return nil
		},
	}
	w.register(cmd)
	registerParams(cmd, &params)
	cmd.Flags().StringVar(&samplesPath, "samples", "", "historical samples CSV (default: read inputs from --db)")
	cmd.Flags().StringVar(&availabilityPath, "availability", "", "agent availability CSV")
	cmd.Flags().StringVar(&skillsPath, "skills", "", "agent skills CSV")
	cmd.Flags().StringVar(&constraintsPath, "constraints", "", "YAML file overriding scheduling constraints")
	return cmd
}

func (a *app) importCmd() *cobra.Command {
	var samplesPath, availabilityPath, skillsPath string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load CSV inputs into the SQLite store",
		RunE: func(cmd *cobra.Command, args []string) error {
			if samplesPath == "" && availabilityPath == "" && skillsPath == "" {
				return fmt.Errorf("nothing to import: give --samples, --availability or --skills")
			}
			ctx := cmd.Context()
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			if samplesPath != "" {
				samples, err := parseFile(samplesPath, "samples", a.loc, parser.ParseSamples)
				if err != nil {
					return err
				}
				n, err := st.SaveSamples(ctx, samples)
				if err != nil {
					return err
				}
				fmt.Printf("imported %d samples\n", n)
			}
			if availabilityPath != "" {
				intervals, err := parseFile(availabilityPath, "availability", a.loc, parser.ParseAvailability)
				if err != nil {
					return err
				}
				n, err := st.SaveAvailabilities(ctx, intervals)
				if err != nil {
					return err
				}
				fmt.Printf("imported %d availability intervals\n", n)
			}
			if skillsPath != "" {
				skills, err := parseFile(skillsPath, "skills", a.loc, parseSkills)
				if err != nil {
					return err
				}
				n, err := st.SaveSkills(ctx, skills)
				if err != nil {
					return err
				}
				fmt.Printf("imported %d skills\n", n)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&samplesPath, "samples", "", "historical samples CSV")
	cmd.Flags().StringVar(&availabilityPath, "availability", "", "agent availability CSV")
	cmd.Flags().StringVar(&skillsPath, "skills", "", "agent skills CSV")
	return cmd
}

func (a *app) historyCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "history", Short: "Inspect stored call history"}
	cmd.AddCommand(a.historyStatsCmd())
	cmd.AddCommand(a.historyPruneCmd())
	return cmd
}

func (a *app) historyStatsCmd() *cobra.Command {
	var queue, from, to, by, format string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show call volume by hour of day or by weekday",
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "text" && format != "json" {
				return fmt.Errorf("format must be one of: text, json (got: %s)", format)
			}
			if queue == "" {
				return &wfmerrors.ValidationError{Field: "queue", Reason: "empty", Err: wfmerrors.ErrEmptyQueueName}
			}
			end := time.Now().In(a.loc)
			if to != "" {
				t, err := parser.ParseTimestamp(to, a.loc)
				if err != nil {
					return &wfmerrors.ValidationError{Field: "to", Reason: to, Err: err}
				}
				end = t
			}
			begin := end.AddDate(0, 0, -28)
			if from != "" {
				t, err := parser.ParseTimestamp(from, a.loc)
				if err != nil {
					return &wfmerrors.ValidationError{Field: "from", Reason: from, Err: err}
				}
				begin = t
			}

			ctx := cmd.Context()
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			q := models.QueueName(queue)
			var profile []store.VolumeProfile
			label := "Hour"
			switch by {
			case "hour":
				profile, err = st.VolumeByHour(ctx, q, begin, end)
			case "weekday":
				label = "Weekday"
				profile, err = st.VolumeByWeekday(ctx, q, begin, end)
			default:
				return fmt.Errorf("--by must be hour or weekday (got: %s)", by)
			}
			if err != nil {
				return err
			}
			total, err := st.TotalCalls(ctx, q, begin, end)
			if err != nil {
				return err
			}

			if format == "json" {
				fmt.Print(formatter.FormatJSON(map[string]any{
					"queue":       q,
					"from":        begin,
					"to":          end,
					"total_calls": total,
					"profile":     profile,
				}))
				return nil
			}
			title := fmt.Sprintf("%s volume by %s", q, by)
			fmt.Print(formatter.FormatProfileText(title, label, profile))
			fmt.Printf("Total calls %s - %s: %d\n", begin.Format(time.DateOnly), end.Format(time.DateOnly), total)
			return nil
		},
	}
	cmd.Flags().StringVarP(&queue, "queue", "q", "", "queue name")
	cmd.Flags().StringVar(&from, "from", "", "period start (default: 28 days before --to)")
	cmd.Flags().StringVar(&to, "to", "", "period end (default: now)")
	cmd.Flags().StringVar(&by, "by", "hour", "bucket: hour|weekday")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text|json")
	return cmd
}

func (a *app) historyPruneCmd() *cobra.Command {
	var before string
	var keepWeeks int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete samples older than a cutoff",
		RunE: func(cmd *cobra.Command, args []string) error {
			cutoff := time.Now().In(a.loc).AddDate(0, 0, -7*keepWeeks)
			if before != "" {
				t, err := parser.ParseTimestamp(before, a.loc)
				if err != nil {
					return &wfmerrors.ValidationError{Field: "before", Reason: before, Err: err}
				}
				cutoff = t
			} else if keepWeeks <= 0 {
				return &wfmerrors.ValidationError{Field: "keep-weeks", Reason: "must be positive", Err: wfmerrors.ErrInvalidParameter}
			}

			ctx := cmd.Context()
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			n, err := st.DeleteOlderThan(ctx, cutoff)
			if err != nil {
				return err
			}
			fmt.Printf("deleted %d samples before %s\n", n, cutoff.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&before, "before", "", "delete samples strictly before this timestamp")
	cmd.Flags().IntVar(&keepWeeks, "keep-weeks", 52, "keep this many weeks of history when --before is not set")
	return cmd
}

func (a *app) openStore(ctx context.Context) (*store.Store, error) {
	return store.Open(ctx, a.cfg.DBPath, a.loc, a.logger)
}

// samples reads history from path, or from the store when path is empty.
func (a *app) samples(ctx context.Context, path string, queues []models.QueueName, from, to time.Time) ([]models.HistoricalSample, error) {
	if path != "" {
		return parseFile(path, "samples", a.loc, parser.ParseSamples)
	}
	st, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	defer st.Close()
	return st.Samples(ctx, queues, from, to)
}

func parseSkills(r io.Reader, _ *time.Location) ([]models.AgentSkill, error) {
	return parser.ParseSkills(r)
}

// parseFile opens path, parses it and records parser metrics under kind.
func parseFile[T any](path, kind string, loc *time.Location, parse func(io.Reader, *time.Location) ([]T, error)) ([]T, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", kind, err)
	}
	defer file.Close()

	start := time.Now()
	records, err := parse(file, loc)
	metrics.RecordParse(kind, len(records), err, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return records, nil
}

func readConstraints(path string, base models.Constraints) (models.Constraints, error) {
	file, err := os.Open(path)
	if err != nil {
		return base, fmt.Errorf("opening constraints: %w", err)
	}
	defer file.Close()
	return config.LoadConstraints(file, base)
}
