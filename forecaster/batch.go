package forecaster

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"workforce-scheduler/models"
)

// Params are the forecasting knobs shared by every slot of a batch.
type Params struct {
	GranularityMinutes      int     `validate:"gt=0,lte=1440"`
	LookbackWeeks           int     `validate:"gt=0"`
	TargetServiceLevel      float64 `validate:"gte=0,lte=1"`
	TargetAnswerTimeSeconds int     `validate:"gte=0"`
	ShrinkageFactor         float64 `validate:"gte=0,lt=1"`
	TargetOccupancy         float64 `validate:"gt=0,lte=1"`
	ConfidenceIntervalPct   float64 `validate:"gte=0,lte=1"`
}

// DefaultParams mirrors the defaults of the scheduling API.
func DefaultParams() Params {
	return Params{
		GranularityMinutes:      30,
		LookbackWeeks:           4,
		TargetServiceLevel:      0.80,
		TargetAnswerTimeSeconds: 20,
		ShrinkageFactor:         0.25,
		TargetOccupancy:         0.85,
		ConfidenceIntervalPct:   0.15,
	}
}

// Request builds a single-slot request from the batch parameters.
func (p Params) Request(queue models.QueueName, slot time.Time, samples []models.HistoricalSample) models.ForecastRequest {
	return models.ForecastRequest{
		Queue:                   queue,
		SlotStart:               slot,
		Samples:                 samples,
		GranularityMinutes:      p.GranularityMinutes,
		LookbackWeeks:           p.LookbackWeeks,
		TargetServiceLevel:      p.TargetServiceLevel,
		TargetAnswerTimeSeconds: p.TargetAnswerTimeSeconds,
		ShrinkageFactor:         p.ShrinkageFactor,
		TargetOccupancy:         p.TargetOccupancy,
		ConfidenceIntervalPct:   p.ConfidenceIntervalPct,
	}
}

// Requests generates one request per queue per slot of [start, end),
// queue-major in the order given.
func Requests(queues []models.QueueName, start, end time.Time, samples []models.HistoricalSample, p Params) []models.ForecastRequest {
	slots := slotStarts(start, end, p.GranularityMinutes)
	reqs := make([]models.ForecastRequest, 0, len(queues)*len(slots))
	for _, q := range queues {
		for _, slot := range slots {
			reqs = append(reqs, p.Request(q, slot, samples))
		}
	}
	return reqs
}

// DailyRequests generates the requests for one queue between startHour and
// endHour of the given date, in the date's location.
func DailyRequests(queue models.QueueName, date time.Time, samples []models.HistoricalSample, startHour, endHour int, p Params) []models.ForecastRequest {
	y, m, d := date.Date()
	start := time.Date(y, m, d, startHour, 0, 0, 0, date.Location())
	end := time.Date(y, m, d, endHour, 0, 0, 0, date.Location())
	return Requests([]models.QueueName{queue}, start, end, samples, p)
}

// ForecastAll runs Forecast for every request on up to workers goroutines.
// Results keep the order of reqs. workers <= 0 uses GOMAXPROCS.
func ForecastAll(ctx context.Context, reqs []models.ForecastRequest, workers int) ([]models.ForecastResult, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	results := make([]models.ForecastResult, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range reqs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = Forecast(reqs[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// Demand converts forecast results into optimizer input.
func Demand(results []models.ForecastResult) []models.DemandForecast {
	demand := make([]models.DemandForecast, len(results))
	for i, r := range results {
		demand[i] = r.Demand()
	}
	return demand
}
