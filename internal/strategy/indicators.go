package strategy

// ema is an incrementally updated exponential moving average.
type ema struct {
	period int
	alpha  float64
	value  float64
	count  int
}

func newEMA(period int) *ema {
	return &ema{
		period: period,
		alpha:  2.0 / (float64(period) + 1.0),
	}
}

// Update feeds one price and returns the current EMA value.
// Until period samples have been seen the value is a plain average seed.
func (e *ema) Update(price float64) float64 {
	e.count++

	if e.count == 1 {
		e.value = price
		return e.value
	}

	if e.count <= e.period {
		e.value += (price - e.value) / float64(e.count)
		return e.value
	}

	e.value += e.alpha * (price - e.value)
	return e.value
}

// Ready reports whether the average has seen a full period of samples.
func (e *ema) Ready() bool {
	return e.count >= e.period
}

// rsi is Wilder's relative strength index, updated incrementally.
type rsi struct {
	period  int
	prev    float64
	avgGain float64
	avgLoss float64
	count   int
}

func newRSI(period int) *rsi {
	return &rsi{period: period}
}

// Update feeds one close price and returns the current RSI in [0, 100].
func (r *rsi) Update(price float64) float64 {
	r.count++

	if r.count == 1 {
		r.prev = price
		return 50
	}

	change := price - r.prev
	r.prev = price

	gain, loss := 0.0, 0.0
	if change > 0 {
		gain = change
	} else {
		loss = -change
	}

	if r.count <= r.period+1 {
		n := float64(r.count - 1)
		r.avgGain += (gain - r.avgGain) / n
		r.avgLoss += (loss - r.avgLoss) / n
	} else {
		n := float64(r.period)
		r.avgGain = (r.avgGain*(n-1) + gain) / n
		r.avgLoss = (r.avgLoss*(n-1) + loss) / n
	}

	if r.avgLoss == 0 {
		if r.avgGain == 0 {
			return 50
		}
		return 100
	}

	rs := r.avgGain / r.avgLoss
	return 100 - 100/(1+rs)
}

// Ready reports whether a full smoothing period has elapsed.
func (r *rsi) Ready() bool {
	return r.count > r.period
}

// window is a fixed-size rolling window of float64 samples.
type window struct {
	size   int
	values []float64
}

func newWindow(size int) *window {
	return &window{size: size}
}

func (w *window) Push(v float64) {
	w.values = append(w.values, v)
	if len(w.values) > w.size {
		w.values = w.values[1:]
	}
}

// Full reports whether the window holds size samples.
func (w *window) Full() bool {
	return len(w.values) >= w.size
}

// Max returns the maximum sample, excluding the most recent skipLast entries.
func (w *window) Max(skipLast int) float64 {
	end := len(w.values) - skipLast
	max := w.values[0]
	for _, v := range w.values[1:end] {
		if v > max {
			max = v
		}
	}
	return max
}

// Min returns the minimum sample, excluding the most recent skipLast entries.
func (w *window) Min(skipLast int) float64 {
	end := len(w.values) - skipLast
	min := w.values[0]
	for _, v := range w.values[1:end] {
		if v < min {
			min = v
		}
	}
	return min
}

// Mean returns the arithmetic mean of all samples in the window.
func (w *window) Mean() float64 {
	if len(w.values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range w.values {
		sum += v
	}
	return sum / float64(len(w.values))
}
