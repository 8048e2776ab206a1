package errors

import "errors"

var ErrNotFound = errors.New("caregiver not found")
