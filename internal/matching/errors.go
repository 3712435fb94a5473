package matching

import "errors"

// ErrEmptyInput is returned when ranking is requested without any resume.
var ErrEmptyInput = errors.New("no resumes to rank")
