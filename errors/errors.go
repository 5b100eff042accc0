package errors

import "fmt"

// ParseError wraps a specific error with context about where it occurred.
type ParseError struct {
	Line   int
	Record []string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d: %v (record: %v)", e.Line, e.Err, e.Record)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValidationError reports a request field that the engine cannot accept.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid request: %s", e.Reason)
	}
	return fmt.Sprintf("invalid request: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Parse errors
var (
	ErrInvalidFieldCount = fmt.Errorf("invalid field count")
	ErrInvalidTimestamp  = fmt.Errorf("invalid timestamp")
	ErrInvalidCallCount  = fmt.Errorf("invalid call count")
	ErrInvalidHandleTime = fmt.Errorf("invalid average handle time")
	ErrInvalidAgentID    = fmt.Errorf("invalid agent id")
	ErrInvalidInterval   = fmt.Errorf("invalid interval")
	ErrInvalidFlag       = fmt.Errorf("invalid boolean flag")
	ErrInvalidEfficiency = fmt.Errorf("invalid efficiency coefficient")
	ErrInvalidSkillLevel = fmt.Errorf("invalid skill level")
	ErrEmptyQueueName    = fmt.Errorf("empty queue name")
)

// Request errors
var (
	ErrInvalidWindow     = fmt.Errorf("schedule end must be after start")
	ErrNoQueues          = fmt.Errorf("at least one queue is required")
	ErrUnknownConstraint = fmt.Errorf("unknown constraint")
	ErrInvalidParameter  = fmt.Errorf("invalid parameter")
)
