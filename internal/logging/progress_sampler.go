package logging

// ProgressSampler thins per-job percentage updates down to one per bucket so
// that logs and terminal output stay readable during long muxes.
type ProgressSampler struct {
	step    int
	job     int
	reached int
}

// NewProgressSampler returns a sampler that passes an update whenever the
// percentage enters a new step-sized bucket. A step outside 1..100 falls back
// to 5.
func NewProgressSampler(step int) *ProgressSampler {
	if step <= 0 || step > 100 {
		step = 5
	}
	s := &ProgressSampler{step: step}
	s.Reset()
	return s
}

// Sample reports whether the update for job should be shown. Switching jobs
// always passes; a negative percent is unknown and never advances the bucket.
// A nil sampler passes everything.
func (s *ProgressSampler) Sample(job, percent int) bool {
	if s == nil {
		return true
	}
	pass := false
	if job != s.job {
		s.job = job
		s.reached = -1
		pass = true
	}
	if percent < 0 {
		return pass
	}
	if percent > 100 {
		percent = 100
	}
	if bucket := percent / s.step; bucket > s.reached {
		s.reached = bucket
		pass = true
	}
	return pass
}

// Reset forgets the current job.
func (s *ProgressSampler) Reset() {
	if s == nil {
		return
	}
	s.job = -1
	s.reached = -1
}
