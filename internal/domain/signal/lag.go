package signal

import (
	"math"
	"time"

	"github.com/okian/pitwall/internal/domain/model"
)

// MaxLag is the deepest look-back offset sample rules may read.
const MaxLag = 3

// Window is a causal view of one sample in a lap: the sample itself at
// offset 0 and up to MaxLag samples before it.
type Window struct {
	lap []model.TelemetrySample
	idx int
}

// WindowAt returns the view of sample idx of lap. lap must be ordered by
// timestamp.
func WindowAt(lap []model.TelemetrySample, idx int) Window {
	return Window{lap: lap, idx: idx}
}

// Full reports whether every offset up to MaxLag exists.
func (w Window) Full() bool {
	return w.idx >= MaxLag && w.idx < len(w.lap)
}

// Sample returns the current sample.
func (w Window) Sample() *model.TelemetrySample {
	return &w.lap[w.idx]
}

// Timestamp of the current sample.
func (w Window) Timestamp() time.Time {
	return w.lap[w.idx].Timestamp
}

// At returns channel ch lagged by k samples. It reports false when the
// offset falls before the lap start, exceeds MaxLag, or the value is absent.
func (w Window) At(ch model.Channel, k int) (float64, bool) {
	if k < 0 || k > MaxLag {
		return 0, false
	}
	i := w.idx - k
	if i < 0 || i >= len(w.lap) {
		return 0, false
	}
	return w.lap[i].Channel(ch).Get()
}

// Drop returns value(t-k) - value(t): positive when the channel fell.
func (w Window) Drop(ch model.Channel, k int) (float64, bool) {
	past, ok := w.At(ch, k)
	if !ok {
		return 0, false
	}
	now, ok := w.At(ch, 0)
	if !ok {
		return 0, false
	}
	return past - now, true
}

// Rise returns value(t) - value(t-k): positive when the channel grew.
func (w Window) Rise(ch model.Channel, k int) (float64, bool) {
	d, ok := w.Drop(ch, k)
	return -d, ok
}

// Change returns |value(t) - value(t-k)|.
func (w Window) Change(ch model.Channel, k int) (float64, bool) {
	d, ok := w.Drop(ch, k)
	return math.Abs(d), ok
}
