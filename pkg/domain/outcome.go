package domain

// OutcomeKind tells callers which branch of the check produced the outcome.
type OutcomeKind string

const (
	OutcomePassed        OutcomeKind = "passed"
	OutcomeMismatch      OutcomeKind = "mismatch"
	OutcomeQueryError    OutcomeKind = "query_error"
	OutcomeInternalError OutcomeKind = "internal_error"
)

// CheckOutcome is the single result of grading one submission.
type CheckOutcome struct {
	TaskID           int         `json:"taskId"`
	OK               bool        `json:"ok"`
	Kind             OutcomeKind `json:"kind"`
	Message          string      `json:"message"`
	ExpectedRowCount int         `json:"expectedRows"`
	ActualRowCount   int         `json:"actualRows"`
}

// Internal reports whether the outcome points at a tool bug rather than learner error.
func (o CheckOutcome) Internal() bool { return o.Kind == OutcomeInternalError }

type CheckRequest struct {
	SQL string `json:"sql"`
}

type SelfTestResult struct {
	TaskID  int          `json:"taskId"`
	Title   string       `json:"title"`
	Outcome CheckOutcome `json:"outcome"`
}

type SelfTestReport struct {
	Passed  int              `json:"passed"`
	Failed  int              `json:"failed"`
	Results []SelfTestResult `json:"results"`
}

type DatasetInfo struct {
	Table    string   `json:"table"`
	Columns  []string `json:"columns"`
	RowCount int      `json:"rowCount"`
	Script   string   `json:"script"`
}
