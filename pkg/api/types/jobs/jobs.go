// Package jobs defines payloads of asynchronous jobs on the platform.
package jobs

import (
	"strings"
)

// State is the phase of a job, derived from its wire status.
type State string

const (
	StateInProgress State = "IN_PROGRESS"
	StateSucceeded  State = "SUCCEEDED"
	StateFailed     State = "FAILED"
)

// Terminal tells that the job does not change anymore.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// Task is a step of a job.
type Task struct {
	ID            string `json:"id"`
	TaskType      string `json:"task_type"`
	Status        string `json:"status"`
	FailureReason string `json:"failure_reason,omitempty"`
}

// Status is the response of the job-status endpoint.
type Status struct {
	JobType string            `json:"job_type,omitempty"`
	Status  string            `json:"status"`
	Tasks   []Task            `json:"tasks,omitempty"`
	Output  map[string]string `json:"output,omitempty"`
}

// State maps the wire status to State.
//
// "Success" and "Failure" (in any case) are terminal. Anything else is in progress.
func (s Status) State() State {
	switch strings.ToLower(s.Status) {
	case "success", "succeeded":
		return StateSucceeded
	case "failure", "failed":
		return StateFailed
	default:
		return StateInProgress
	}
}

// FailureReasons collects failure reasons of tasks.
func (s Status) FailureReasons() []string {
	reasons := []string{}
	for _, t := range s.Tasks {
		if t.FailureReason != "" {
			reasons = append(reasons, t.FailureReason)
		}
	}
	return reasons
}

// Submission is the response of requests which start a job.
type Submission struct {
	JobID string `json:"job_id"`
}
