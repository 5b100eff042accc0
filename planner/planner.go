// Package planner composes the forecaster and the optimizer into one
// scheduling run: validate the request, build the demand curve, assign
// agents, record metrics.
package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	wfmerrors "workforce-scheduler/errors"
	"workforce-scheduler/forecaster"
	"workforce-scheduler/metrics"
	"workforce-scheduler/models"
	"workforce-scheduler/scheduler"
)

// Source supplies scheduling inputs, typically the SQLite store.
type Source interface {
	Samples(ctx context.Context, queues []models.QueueName, from, to time.Time) ([]models.HistoricalSample, error)
	Availabilities(ctx context.Context, from, to time.Time) ([]models.AgentAvailability, error)
	Skills(ctx context.Context, queues []models.QueueName) ([]models.AgentSkill, error)
}

// Request describes one scheduling run.
type Request struct {
	Queues      []models.QueueName `validate:"required,min=1,dive,required"`
	WindowStart time.Time          `validate:"required"`
	WindowEnd   time.Time          `validate:"required"`
	Forecast    forecaster.Params
	Constraints models.Constraints
}

// Inputs are the data a run works on.
type Inputs struct {
	Samples        []models.HistoricalSample
	Availabilities []models.AgentAvailability
	Skills         []models.AgentSkill
}

// Plan is the result of a scheduling run.
type Plan struct {
	RunID     uuid.UUID               `json:"run_id"`
	Forecasts []models.ForecastResult `json:"forecasts"`
	Output    *models.ScheduleOutput  `json:"schedule"`
}

// Planner runs forecasts and schedules.
type Planner struct {
	logger     zerolog.Logger
	workers    int
	validate   *validator.Validate
	translator ut.Translator
}

// New creates a planner forecasting on up to workers goroutines
// (0 means GOMAXPROCS).
func New(logger zerolog.Logger, workers int) *Planner {
	validate := validator.New(validator.WithRequiredStructEnabled())
	uni := ut.New(en.New())
	trans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		// untranslated messages are still usable
		logger.Warn().Err(err).Msg("validator translations unavailable")
		trans = nil
	}

	return &Planner{
		logger:     logger.With().Str("component", "planner").Logger(),
		workers:    workers,
		validate:   validate,
		translator: trans,
	}
}

// Normalize fills unset forecasting parameters and constraints with defaults.
func (r Request) Normalize() Request {
	if r.Forecast == (forecaster.Params{}) {
		r.Forecast = forecaster.DefaultParams()
	}
	r.Constraints = r.Constraints.WithDefaults()
	return r
}

// Validate rejects requests the engine cannot run.
func (p *Planner) Validate(req Request) error {
	if len(req.Queues) == 0 {
		return &wfmerrors.ValidationError{Field: "queues", Reason: "empty", Err: wfmerrors.ErrNoQueues}
	}
	if !req.WindowEnd.After(req.WindowStart) {
		return &wfmerrors.ValidationError{Field: "window", Reason: "end is not after start", Err: wfmerrors.ErrInvalidWindow}
	}
	if err := p.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			reason := fmt.Sprintf("failed %q (%v)", fe.Tag(), fe.Value())
			if p.translator != nil {
				reason = fe.Translate(p.translator)
			}
			return &wfmerrors.ValidationError{
				Field:  fe.Namespace(),
				Reason: reason,
				Err:    wfmerrors.ErrInvalidParameter,
			}
		}
		return err
	}
	return nil
}

// Fetch loads the inputs of a run from src: samples from the lookback
// start up to the window end, availability overlapping the window and
// skills for the requested queues.
func (p *Planner) Fetch(ctx context.Context, src Source, req Request) (Inputs, error) {
	req = req.Normalize()
	if err := p.Validate(req); err != nil {
		return Inputs{}, err
	}

	from := req.WindowStart.AddDate(0, 0, -7*req.Forecast.LookbackWeeks)
	samples, err := src.Samples(ctx, req.Queues, from, req.WindowEnd)
	if err != nil {
		return Inputs{}, fmt.Errorf("fetch samples: %w", err)
	}
	availability, err := src.Availabilities(ctx, req.WindowStart, req.WindowEnd)
	if err != nil {
		return Inputs{}, fmt.Errorf("fetch availability: %w", err)
	}
	skills, err := src.Skills(ctx, req.Queues)
	if err != nil {
		return Inputs{}, fmt.Errorf("fetch skills: %w", err)
	}

	p.logger.Debug().
		Int("samples", len(samples)).
		Int("availabilities", len(availability)).
		Int("skills", len(skills)).
		Msg("fetched inputs")
	return Inputs{Samples: samples, Availabilities: availability, Skills: skills}, nil
}

// Forecast builds the demand curve for every queue and slot of the window.
func (p *Planner) Forecast(ctx context.Context, req Request, samples []models.HistoricalSample) ([]models.ForecastResult, error) {
	req = req.Normalize()
	if err := p.Validate(req); err != nil {
		return nil, err
	}
	return p.forecast(ctx, p.logger, req, samples)
}

// Plan forecasts demand and generates the schedule for the request.
// An infeasible schedule is a successful plan with IsFeasible == false.
func (p *Planner) Plan(ctx context.Context, req Request, in Inputs) (*Plan, error) {
	req = req.Normalize()
	if err := p.Validate(req); err != nil {
		return nil, err
	}

	runID := uuid.New()
	logger := p.logger.With().Str("run_id", runID.String()).Logger()
	logger.Info().
		Time("window_start", req.WindowStart).
		Time("window_end", req.WindowEnd).
		Int("queues", len(req.Queues)).
		Msg("planning schedule")

	metrics.ResetSchedulerGauges()
	results, err := p.forecast(ctx, logger, req, in.Samples)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	out := scheduler.GenerateSchedule(models.ScheduleInput{
		Availabilities:     in.Availabilities,
		Skills:             in.Skills,
		DemandForecasts:    forecaster.Demand(results),
		WindowStart:        req.WindowStart,
		WindowEnd:          req.WindowEnd,
		Constraints:        req.Constraints,
		GranularityMinutes: req.Forecast.GranularityMinutes,
	})
	elapsed := time.Since(start)
	metrics.RecordSchedule(out, elapsed)

	event := logger.Info()
	if !out.IsFeasible {
		event = logger.Warn()
	}
	event.
		Bool("feasible", out.IsFeasible).
		Int("assignments", out.QualityMetrics.TotalAssignments).
		Float64("agent_hours", out.QualityMetrics.TotalAgentHours).
		Float64("coverage_pct", out.QualityMetrics.CoveragePercentage).
		Int("critical", out.CriticalCount()).
		Int("warnings", len(out.Warnings)).
		Dur("elapsed", elapsed).
		Msg("schedule generated")

	return &Plan{RunID: runID, Forecasts: results, Output: out}, nil
}

func (p *Planner) forecast(ctx context.Context, logger zerolog.Logger, req Request, samples []models.HistoricalSample) ([]models.ForecastResult, error) {
	start := time.Now()
	reqs := forecaster.Requests(req.Queues, req.WindowStart, req.WindowEnd, samples, req.Forecast)
	results, err := forecaster.ForecastAll(ctx, reqs, p.workers)
	if err != nil {
		return nil, fmt.Errorf("forecast: %w", err)
	}

	empty := 0
	for _, r := range results {
		if !r.HasData() {
			empty++
		}
	}
	if empty == len(results) && len(results) > 0 {
		logger.Warn().Int("slots", len(results)).Msg("no historical data matched any slot")
	}
	elapsed := time.Since(start)
	metrics.RecordForecasts(results, elapsed)
	logger.Debug().
		Int("slots", len(results)).
		Int("empty_slots", empty).
		Dur("elapsed", elapsed).
		Msg("forecast complete")
	return results, nil
}
