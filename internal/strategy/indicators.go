package strategy

import "math"

// Indicator kernels. All operate on the trailing end of a price series and
// return a neutral value when the series is too short, so strategies can
// treat "not enough history" as a HOLD without special casing.

// sma returns the simple moving average of the last period values.
func sma(values []float64, period int) float64 {
	if period <= 0 || len(values) < period {
		return 0
	}
	sum := 0.0
	for _, v := range values[len(values)-period:] {
		sum += v
	}
	return sum / float64(period)
}

// ema returns the exponential moving average over the full series,
// seeded with the SMA of the first period values.
func ema(values []float64, period int) float64 {
	if len(values) == 0 {
		return 0
	}
	if len(values) < period {
		sum := 0.0
		for _, v := range values {
			sum += v
		}
		return sum / float64(len(values))
	}

	multiplier := 2.0 / float64(period+1)
	sum := 0.0
	for i := 0; i < period; i++ {
		sum += values[i]
	}
	avg := sum / float64(period)

	for i := period; i < len(values); i++ {
		avg = (values[i] * multiplier) + (avg * (1 - multiplier))
	}

	return avg
}

// emaRaw is an EMA seeded from the first value, for short derived series
// such as the MACD signal line.
func emaRaw(values []float64, period int) float64 {
	if len(values) == 0 {
		return 0
	}
	multiplier := 2.0 / float64(period+1)
	avg := values[0]
	for i := 1; i < len(values); i++ {
		avg = (values[i] * multiplier) + (avg * (1 - multiplier))
	}
	return avg
}

// stdDev returns the population standard deviation of the last period values.
func stdDev(values []float64, period int) float64 {
	if period <= 0 || len(values) < period {
		return 0
	}
	mean := sma(values, period)
	sum := 0.0
	for _, v := range values[len(values)-period:] {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(period))
}

// rsi returns the relative strength index of the last period changes.
// Returns the neutral 50 when the series is too short.
func rsi(closes []float64, period int) float64 {
	if len(closes) < period+1 {
		return 50
	}

	gains := 0.0
	losses := 0.0

	for i := len(closes) - period; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	if avgLoss == 0 {
		return 100
	}

	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// macd returns the MACD line and its signal line. The signal line is an
// EMA over the trailing MACD series, so the series must extend past
// slow+signalPeriod bars for a developed signal line.
func macd(closes []float64, fast, slow, signalPeriod int) (float64, float64) {
	if len(closes) < slow+signalPeriod {
		return 0, 0
	}

	// EMA of the MACD series needs trailing MACD points.
	points := signalPeriod + 6
	if points > len(closes) {
		points = len(closes)
	}

	macdValues := make([]float64, 0, points)
	for i := len(closes) - points; i < len(closes); i++ {
		fastEMA := ema(closes[:i+1], fast)
		slowEMA := ema(closes[:i+1], slow)
		macdValues = append(macdValues, fastEMA-slowEMA)
	}

	line := macdValues[len(macdValues)-1]
	signal := emaRaw(macdValues, signalPeriod)

	return line, signal
}

// stochasticK returns the raw %K of the last kPeriod bars.
// Returns the neutral 50 on a too-short or flat range.
func stochasticK(highs, lows, closes []float64, kPeriod int) float64 {
	if len(closes) < kPeriod {
		return 50
	}

	highest := highs[len(highs)-kPeriod]
	lowest := lows[len(lows)-kPeriod]
	for i := len(closes) - kPeriod; i < len(closes); i++ {
		if highs[i] > highest {
			highest = highs[i]
		}
		if lows[i] < lowest {
			lowest = lows[i]
		}
	}

	if highest == lowest {
		return 50
	}
	return (closes[len(closes)-1] - lowest) / (highest - lowest) * 100
}

// stochastic returns %K and its dPeriod-SMA smoothing %D.
func stochastic(highs, lows, closes []float64, kPeriod, dPeriod int) (float64, float64) {
	if len(closes) < kPeriod+dPeriod-1 {
		return 50, 50
	}

	ks := make([]float64, 0, dPeriod)
	for i := dPeriod - 1; i >= 0; i-- {
		end := len(closes) - i
		ks = append(ks, stochasticK(highs[:end], lows[:end], closes[:end], kPeriod))
	}

	k := ks[len(ks)-1]
	d := sma(ks, dPeriod)
	return k, d
}
