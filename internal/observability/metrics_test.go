package observability

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"example.com/carbon/internal/emissions"
)

func TestRecordCalculationOutcomes(t *testing.T) {
	cases := []struct {
		err     error
		outcome string
	}{
		{err: nil, outcome: OutcomeOK},
		{err: &emissions.UnknownActivityError{Activity: "coal"}, outcome: OutcomeUnknownActivity},
		{err: &emissions.NegativeQuantityError{Activity: "paper", Quantity: -1}, outcome: OutcomeNegativeQuantity},
		{err: &emissions.InvalidQuantityError{Activity: "petrol"}, outcome: OutcomeInvalidQuantity},
		{err: &emissions.OverflowError{Activity: "plastic"}, outcome: OutcomeOverflow},
		{err: errors.New("boom"), outcome: OutcomeError},
	}

	for _, tc := range cases {
		before := testutil.ToFloat64(calculationsCounter.WithLabelValues(tc.outcome))
		RecordCalculation(12, tc.err)
		after := testutil.ToFloat64(calculationsCounter.WithLabelValues(tc.outcome))
		require.InDelta(t, before+1, after, 0.0001, "outcome %s", tc.outcome)
	}
}

func TestRecordPersisted(t *testing.T) {
	ts := time.Date(2025, time.January, 2, 3, 4, 5, 0, time.UTC)
	beforeReplaced := testutil.ToFloat64(recordsReplacedCounter)

	RecordPersisted(ts, true)

	require.Equal(t, float64(ts.Unix()), testutil.ToFloat64(recordPersistGauge))
	require.InDelta(t, beforeReplaced+1, testutil.ToFloat64(recordsReplacedCounter), 0.0001)

	RecordPersisted(time.Time{}, false)
	require.Equal(t, float64(ts.Unix()), testutil.ToFloat64(recordPersistGauge))
}
