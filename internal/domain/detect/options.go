package detect

// Option configures a Detector.
type Option func(*Detector)

// WithThresholds replaces the default thresholds. Values that fail
// Validate are ignored.
func WithThresholds(th Thresholds) Option {
	return func(d *Detector) {
		if th.Validate() == nil {
			d.th = th
		}
	}
}

// WithRunner fans vehicles out through r instead of a plain loop.
func WithRunner(r Runner) Option {
	return func(d *Detector) {
		if r != nil {
			d.runner = r
		}
	}
}
