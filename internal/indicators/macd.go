package indicators

import "fmt"

// MACDConfig holds the three MACD periods.
type MACDConfig struct {
	FastPeriod   int
	SlowPeriod   int
	SignalPeriod int
}

// Lookback returns the number of leading values left undefined by MACD.
func (c MACDConfig) Lookback() int {
	slow := c.SlowPeriod
	if c.FastPeriod > slow {
		slow = c.FastPeriod
	}
	return slow - 1 + c.SignalPeriod - 1
}

// MACDResult holds the MACD line, its signal line and the histogram.
type MACDResult struct {
	MACD      []float64
	Signal    []float64
	Histogram []float64
}

// MACD computes Moving Average Convergence/Divergence. Both the fast and slow
// EMAs start at index slow-1, the signal EMA is seeded over the first
// SignalPeriod MACD values, and all three outputs are defined from Lookback()
// onwards.
func MACD(values []float64, cfg MACDConfig) (*MACDResult, error) {
	if err := validatePeriod("MACD fast", cfg.FastPeriod); err != nil {
		return nil, err
	}
	if err := validatePeriod("MACD slow", cfg.SlowPeriod); err != nil {
		return nil, err
	}
	if err := validatePeriod("MACD signal", cfg.SignalPeriod); err != nil {
		return nil, err
	}
	fast, slow := cfg.FastPeriod, cfg.SlowPeriod
	if fast > slow {
		fast, slow = slow, fast
	}
	if fast == slow {
		return nil, fmt.Errorf("MACD fast and slow periods must differ, got %d", fast)
	}

	n := len(values)
	res := &MACDResult{
		MACD:      nanSeries(n),
		Signal:    nanSeries(n),
		Histogram: nanSeries(n),
	}
	lookback := cfg.Lookback()
	if n <= lookback {
		return res, nil
	}

	start := slow - 1
	fastEMA := emaFrom(values, fast, start)
	slowEMA := emaFrom(values, slow, start)

	line := make([]float64, n-start)
	for i := start; i < n; i++ {
		line[i-start] = fastEMA[i] - slowEMA[i]
	}
	signal := emaFrom(line, cfg.SignalPeriod, cfg.SignalPeriod-1)

	for i := lookback; i < n; i++ {
		res.MACD[i] = line[i-start]
		res.Signal[i] = signal[i-start]
		res.Histogram[i] = res.MACD[i] - res.Signal[i]
	}
	return res, nil
}
