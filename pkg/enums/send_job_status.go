package enums

import "fmt"

// SendBudgetJobStatus tracks an asynchronous budget conversion.
type SendBudgetJobStatus string

const (
	SendBudgetJobQueued    SendBudgetJobStatus = "QUEUED"
	SendBudgetJobRunning   SendBudgetJobStatus = "RUNNING"
	SendBudgetJobSucceeded SendBudgetJobStatus = "SUCCEEDED"
	SendBudgetJobFailed    SendBudgetJobStatus = "FAILED"
)

var validSendBudgetJobStatuses = []SendBudgetJobStatus{
	SendBudgetJobQueued,
	SendBudgetJobRunning,
	SendBudgetJobSucceeded,
	SendBudgetJobFailed,
}

// ActiveSendBudgetJobStatuses are the statuses that block a new job.
func ActiveSendBudgetJobStatuses() []SendBudgetJobStatus {
	return []SendBudgetJobStatus{SendBudgetJobQueued, SendBudgetJobRunning}
}

func (s SendBudgetJobStatus) String() string {
	return string(s)
}

// IsActive reports whether the job has not reached a terminal status.
func (s SendBudgetJobStatus) IsActive() bool {
	return s == SendBudgetJobQueued || s == SendBudgetJobRunning
}

func (s SendBudgetJobStatus) IsValid() bool {
	for _, candidate := range validSendBudgetJobStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

func ParseSendBudgetJobStatus(value string) (SendBudgetJobStatus, error) {
	for _, candidate := range validSendBudgetJobStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid send budget job status %q", value)
}
