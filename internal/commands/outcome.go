package commands

import (
	"context"
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes attached to errors leaving a handler.
const (
	CodeValidation = "GARDEN_COMMAND_INVALID"
	CodeCanceled   = "GARDEN_COMMAND_CANCELED"
	CodeTimeout    = "GARDEN_COMMAND_TIMEOUT"
	CodeFailed     = "GARDEN_COMMAND_FAILED"
)

// outcome is the classified result of one execution.
type outcome struct {
	status TelemetryStatus
	code   string
	err    error
}

func invalid(err error) outcome {
	return outcome{
		status: TelemetryStatusFailed,
		code:   CodeValidation,
		err:    tag(err, goerrors.CategoryValidation, CodeValidation, "command message is invalid"),
	}
}

// classify maps an execution error onto a status and tags it with a
// go-errors category. Errors already tagged upstream keep their category.
func classify(err error) outcome {
	switch {
	case err == nil:
		return outcome{status: TelemetryStatusSuccess}
	case errors.Is(err, context.Canceled):
		return outcome{
			status: TelemetryStatusContextError,
			code:   CodeCanceled,
			err:    tag(err, goerrors.CategoryCommand, CodeCanceled, "command cancelled"),
		}
	case errors.Is(err, context.DeadlineExceeded):
		return outcome{
			status: TelemetryStatusContextError,
			code:   CodeTimeout,
			err:    tag(err, goerrors.CategoryCommand, CodeTimeout, "command timed out"),
		}
	default:
		return outcome{
			status: TelemetryStatusFailed,
			code:   CodeFailed,
			err:    tag(err, goerrors.CategoryCommand, CodeFailed, "command failed"),
		}
	}
}

func tag(err error, category goerrors.Category, code, message string) error {
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, category, message).WithTextCode(code)
}
