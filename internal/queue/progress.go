package queue

// Aggregate tracks the sum of job progress values so the overall percentage
// can be updated per tick without rescanning the queue.
type Aggregate struct {
	Total     int
	JobCount  int
	DoneCount int
}

// Apply replaces one job's contribution (prev) with next and returns the new
// overall percentage.
func (a *Aggregate) Apply(prev, next int) int {
	a.Total += next - prev
	return a.Percent()
}

// Percent returns Total / JobCount with integer division, or 0 for an empty
// queue.
func (a Aggregate) Percent() int {
	if a.JobCount <= 0 {
		return 0
	}
	return a.Total / a.JobCount
}

// SumProgress adds up the progress of every job.
func SumProgress(jobs []Job) int {
	total := 0
	for _, job := range jobs {
		total += job.Progress
	}
	return total
}

// OverallPercent is the full-rescan form of Aggregate.Percent.
func OverallPercent(jobs []Job) int {
	if len(jobs) == 0 {
		return 0
	}
	return SumProgress(jobs) / len(jobs)
}
