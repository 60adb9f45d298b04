package model

import "ai-generation-platform/internal/domain"

type TaskStatus string

const (
	TaskStatusSubmitted TaskStatus = "submitted"
	TaskStatusPolling   TaskStatus = "polling"
	TaskStatusSucceeded TaskStatus = "succeeded"
	TaskStatusFailed    TaskStatus = "failed"
	TaskStatusTimedOut  TaskStatus = "timed_out"
)

// rank orders statuses so transitions can only move forward.
func (s TaskStatus) rank() int {
	switch s {
	case TaskStatusSubmitted:
		return 0
	case TaskStatusPolling:
		return 1
	case TaskStatusSucceeded, TaskStatusFailed, TaskStatusTimedOut:
		return 2
	}
	return -1
}

// Terminal reports whether no further transition may occur.
func (s TaskStatus) Terminal() bool { return s.rank() == 2 }

// ProviderTask tracks one vendor-side job for the lifetime of a single
// request. It lives only on the handler goroutine and is never persisted.
type ProviderTask struct {
	JobID         string
	TaskID        string // vendor-assigned, opaque
	Status        TaskStatus
	ResultURL     string // set only on Succeeded
	FailureReason string // set only on Failed / TimedOut
	Attempts      int    // status checks performed
}

func NewProviderTask(jobID, taskID string) *ProviderTask {
	return &ProviderTask{JobID: jobID, TaskID: taskID, Status: TaskStatusSubmitted}
}

// Transition advances the task status. Transitions are monotonic: a terminal
// status is frozen and earlier states may never be re-entered.
func (t *ProviderTask) Transition(next TaskStatus) error {
	if t.Status.Terminal() || next.rank() <= t.Status.rank() && next != t.Status {
		return domain.ErrInvalidArgument
	}
	if next == t.Status {
		return nil
	}
	t.Status = next
	return nil
}

// Succeed marks the task complete with its media URL.
func (t *ProviderTask) Succeed(url string) error {
	if err := t.Transition(TaskStatusSucceeded); err != nil {
		return err
	}
	t.ResultURL = url
	return nil
}

// Fail marks the task failed with the vendor's raw message.
func (t *ProviderTask) Fail(reason string) error {
	if err := t.Transition(TaskStatusFailed); err != nil {
		return err
	}
	t.FailureReason = reason
	return nil
}

// TimeOut marks the task as having exhausted its attempt budget.
func (t *ProviderTask) TimeOut(reason string) error {
	if err := t.Transition(TaskStatusTimedOut); err != nil {
		return err
	}
	t.FailureReason = reason
	return nil
}
