package spec

// ErrorCode categorizes reader errors for clearer handling and messaging.
type ErrorCode string

const (
	// IoError marks directory enumeration or file access failures.
	IoError ErrorCode = "IoError"
	// ParseError marks malformed JSON or schema-incompatible spec documents.
	ParseError ErrorCode = "ParseError"
)

// SpecError is a structured error carrying the offending file or directory.
type SpecError struct {
	Code     ErrorCode
	Message  string
	Location string // file or directory path
	Cause    error
}

func (e *SpecError) Error() string { return e.Message }
func (e *SpecError) Unwrap() error { return e.Cause }
