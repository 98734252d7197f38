package indicators

// RSI returns the Relative Strength Index using Wilder's smoothing.
// The first defined value is at index period. A window with no price movement
// yields 0, as TA-Lib does.
func RSI(values []float64, period int) ([]float64, error) {
	if err := validatePeriod("RSI", period); err != nil {
		return nil, err
	}
	out := nanSeries(len(values))
	if len(values) <= period {
		return out, nil
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := values[i] - values[i-1]
		if change < 0 {
			avgLoss -= change
		} else {
			avgGain += change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiValue(avgGain, avgLoss)

	for i := period + 1; i < len(values); i++ {
		avgGain *= float64(period - 1)
		avgLoss *= float64(period - 1)
		change := values[i] - values[i-1]
		if change < 0 {
			avgLoss -= change
		} else {
			avgGain += change
		}
		avgGain /= float64(period)
		avgLoss /= float64(period)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out, nil
}

func rsiValue(avgGain, avgLoss float64) float64 {
	total := avgGain + avgLoss
	if total > -1e-8 && total < 1e-8 {
		return 0
	}
	return 100 * (avgGain / total)
}
