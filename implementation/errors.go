package implementation

// Error codes carried by request failures.
const (
	CodeFileNotOpen     = 1
	CodeFormatterFailed = 2
)

// Error is a request failure with a numeric code.
type Error struct {
	Code int
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}
