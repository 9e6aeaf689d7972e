package scheduler

import (
	"context"
	"time"
)

// Job is one scheduled unit of work.
// ⭐ SSOT: 定时任务接口只在这里定义
type Job interface {
	Name() string
	Run(ctx context.Context) error

	// Schedule is a cron expression with seconds, e.g. "0 30 17 * * *".
	Schedule() string
}

// JobResult is one execution outcome.
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// JobHistory keeps the last 100 results per job.
type JobHistory struct {
	Results []JobResult
}

func (h *JobHistory) AddResult(result JobResult) {
	h.Results = append(h.Results, result)
	if len(h.Results) > 100 {
		h.Results = h.Results[len(h.Results)-100:]
	}
}

// SuccessRate returns the success ratio in [0,1].
func (h *JobHistory) SuccessRate() float64 {
	if len(h.Results) == 0 {
		return 0.0
	}
	success := 0
	for _, result := range h.Results {
		if result.Success {
			success++
		}
	}
	return float64(success) / float64(len(h.Results))
}
