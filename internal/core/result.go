package core

const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// TaskResult is the payload a queue task reports back after ProcessFile.
type TaskResult struct {
	Status     string `json:"status"`
	OutputPath string `json:"output_path,omitempty"`
	Message    string `json:"message,omitempty"`
	Rows       int    `json:"rows,omitempty"`
	FailedRows int    `json:"failed_rows,omitempty"`
}

func (r TaskResult) OK() bool {
	return r.Status == ResultSuccess
}

func errorResult(msg string) TaskResult {
	return TaskResult{Status: ResultError, Message: msg}
}

// WorkbookSummary describes one extraction pass over a workbook.
type WorkbookSummary struct {
	Sheet      string
	Rows       int
	FailedRows int
}
