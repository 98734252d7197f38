package indicators

import "fmt"

// MovingAverageType defines the type of moving average
type MovingAverageType string

const (
	// SimpleMovingAverage represents a simple moving average
	SimpleMovingAverage MovingAverageType = "SMA"
	// ExponentialMovingAverage represents an exponential moving average
	ExponentialMovingAverage MovingAverageType = "EMA"
)

// MovingAverage computes a moving average series of the requested type.
func MovingAverage(values []float64, period int, typ MovingAverageType) ([]float64, error) {
	switch typ {
	case SimpleMovingAverage:
		return SMA(values, period)
	case ExponentialMovingAverage:
		return EMA(values, period)
	default:
		return nil, fmt.Errorf("unsupported moving average type: %s", typ)
	}
}

// SMA returns the simple moving average. The first defined value is at index period-1.
func SMA(values []float64, period int) ([]float64, error) {
	if err := validatePeriod("SMA", period); err != nil {
		return nil, err
	}
	out := nanSeries(len(values))
	if len(values) < period {
		return out, nil
	}

	total := 0.0
	for i := 0; i < period-1; i++ {
		total += values[i]
	}
	for i := period - 1; i < len(values); i++ {
		total += values[i]
		out[i] = total / float64(period)
		total -= values[i-period+1]
	}
	return out, nil
}

// EMA returns the exponential moving average seeded with the SMA of the
// first period values. The first defined value is at index period-1.
func EMA(values []float64, period int) ([]float64, error) {
	if err := validatePeriod("EMA", period); err != nil {
		return nil, err
	}
	return emaFrom(values, period, period-1), nil
}

// emaFrom computes an EMA whose first output sits at index start. The seed is
// the mean of the period values ending at start, which is how TA-Lib aligns
// the two averages inside MACD.
func emaFrom(values []float64, period, start int) []float64 {
	out := nanSeries(len(values))
	if start < period-1 || start >= len(values) {
		return out
	}

	multiplier := 2.0 / float64(period+1)
	seed := 0.0
	for i := start - period + 1; i <= start; i++ {
		seed += values[i]
	}
	ema := seed / float64(period)
	out[start] = ema

	for i := start + 1; i < len(values); i++ {
		ema = (values[i]-ema)*multiplier + ema
		out[i] = ema
	}
	return out
}
