package main

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wfmerrors "workforce-scheduler/errors"
	"workforce-scheduler/forecaster"
	"workforce-scheduler/models"
	"workforce-scheduler/planner"
)

func TestDayRequest(t *testing.T) {
	day := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	sales := []models.QueueName{"sales"}

	tests := map[string]struct {
		queues        []models.QueueName
		open, close   int
		mutate        func(*forecaster.Params)
		expectedError error
	}{
		"Valid":              {queues: sales, open: 8, close: 17},
		"WholeDay":           {queues: sales, open: 0, close: 24},
		"NoQueues":           {open: 8, close: 17, expectedError: wfmerrors.ErrNoQueues},
		"CloseBeforeOpen":    {queues: sales, open: 17, close: 8, expectedError: wfmerrors.ErrInvalidWindow},
		"CloseAfterMidnight": {queues: sales, open: 8, close: 25, expectedError: wfmerrors.ErrInvalidWindow},
		"ZeroGranularity": {
			queues: sales, open: 8, close: 17,
			mutate:        func(p *forecaster.Params) { p.GranularityMinutes = 0 },
			expectedError: wfmerrors.ErrInvalidParameter,
		},
		"ZeroLookback": {
			queues: sales, open: 8, close: 17,
			mutate:        func(p *forecaster.Params) { p.LookbackWeeks = 0 },
			expectedError: wfmerrors.ErrInvalidParameter,
		},
	}

	p := planner.New(zerolog.Nop(), 1)
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			params := forecaster.DefaultParams()
			if tt.mutate != nil {
				tt.mutate(&params)
			}

			req, err := dayRequest(p, tt.queues, day, tt.open, tt.close, params)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}
			require.NoError(t, err)
			assert.True(t, day.Add(time.Duration(tt.open)*time.Hour).Equal(req.WindowStart))
			assert.True(t, day.Add(time.Duration(tt.close)*time.Hour).Equal(req.WindowEnd))
			assert.Equal(t, params, req.Forecast)
		})
	}
}
