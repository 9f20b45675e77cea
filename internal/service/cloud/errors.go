package cloud

import (
	errors2 "github.com/joalafu15/Backend/internal/protodef/errors"
)

// serviceError tags a failed call to an external service with its server error code.
func serviceError(code int, err error) error {
	if err == nil {
		return nil
	}
	return &errors2.ServerError{Code: code, Summary: err.Error()}
}
