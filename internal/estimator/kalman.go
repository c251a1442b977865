package estimator

// Filter is a one-dimensional steady-state Kalman filter. There is no
// explicit process model beyond additive noise growth per update, which
// suits a slowly varying pressure signal.
type Filter struct {
	sampleCount uint32

	estimate      float64
	priorEstimate float64

	variance      float64
	priorVariance float64

	seedEstimate float64
	seedVariance float64
}

// NewFilter creates a filter seeded with the given estimate and variance.
// The seed is retained so Reset returns the filter to its initial state.
func NewFilter(seedEstimate, seedVariance float64) *Filter {
	f := &Filter{
		seedEstimate: seedEstimate,
		seedVariance: seedVariance,
	}
	f.Reset()
	return f
}

// Update blends a new measurement into the estimate and returns it.
// measurementNoise is the measurement noise variance, processNoise the
// variance added to the prior between updates.
func (f *Filter) Update(measurementNoise, measurement, processNoise float64) float64 {
	k := f.priorVariance / (f.priorVariance + measurementNoise)

	f.estimate = f.priorEstimate + k*(measurement-f.priorEstimate)
	f.variance = f.priorVariance * (1 - k)

	f.priorEstimate = f.estimate
	f.priorVariance = f.variance + processNoise
	f.sampleCount++

	return f.estimate
}

// Estimate returns the current filtered value.
func (f *Filter) Estimate() float64 { return f.estimate }

// Variance returns the current estimate variance.
func (f *Filter) Variance() float64 { return f.variance }

// SampleCount returns the number of measurements blended in so far.
func (f *Filter) SampleCount() uint32 { return f.sampleCount }

// Reset returns the filter to its seed state.
func (f *Filter) Reset() {
	f.sampleCount = 0
	f.estimate = f.seedEstimate
	f.priorEstimate = f.seedEstimate
	f.variance = f.seedVariance
	f.priorVariance = f.seedVariance
}
