package constants

// JobStatus is the canonical status for rows in processed_file.
type JobStatus string

// Stable values (store these exact strings in DB).
const (
	JobStatusPending    JobStatus = "PENDING"     // created by upload, not picked up yet
	JobStatusInProgress JobStatus = "IN_PROGRESS" // a worker owns the job
	JobStatusCompleted  JobStatus = "COMPLETED"   // output workbook written
	JobStatusFailed     JobStatus = "FAILED"      // terminal failure, no output
)

var transitions = map[JobStatus][]JobStatus{
	JobStatusPending:    {JobStatusInProgress, JobStatusFailed},
	JobStatusInProgress: {JobStatusInProgress, JobStatusCompleted, JobStatusFailed},
}

// Valid reports whether s is one of the known statuses.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusPending, JobStatusInProgress, JobStatusCompleted, JobStatusFailed:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are possible from s.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// CanTransitionTo reports whether moving from s to next is allowed.
// IN_PROGRESS -> IN_PROGRESS is accepted so a re-delivered task can restart.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s JobStatus) String() string { return string(s) }
