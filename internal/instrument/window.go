package instrument

import "github.com/tamzrod/ema-gateway/internal/reading"

// window is a fixed-capacity ring buffer of samples, grounding the
// original device's Vector.sum()/newest()/oldest() sliding-average helper
// (original_source/ema/dev/voltmeter.py). A capacity of 0 means unbounded
// (average is over every sample seen since the gateway started).
type window struct {
	cap     int
	samples []float64
}

func newWindow(cap int) *window {
	return &window{cap: cap}
}

func (w *window) push(v float64) {
	if reading.IsMissing(v) {
		return
	}
	w.samples = append(w.samples, v)
	if w.cap > 0 && len(w.samples) > w.cap {
		w.samples = w.samples[len(w.samples)-w.cap:]
	}
}

func (w *window) newest() (float64, bool) {
	if len(w.samples) == 0 {
		return 0, false
	}
	return w.samples[len(w.samples)-1], true
}

// average over the last n samples (n<=0 means the whole window).
func (w *window) average(n int) (float64, int) {
	samples := w.samples
	if n > 0 && n < len(samples) {
		samples = samples[len(samples)-n:]
	}
	if len(samples) == 0 {
		return 0, 0
	}
	var sum float64
	for _, s := range samples {
		sum += s
	}
	return sum / float64(len(samples)), len(samples)
}
