package cli

import (
	"errors"

	"go-migration-audit/internal/model"
	"go-migration-audit/internal/service"
	"go-migration-audit/pkg/apierror"
)

const (
	exitFailure     = 1
	exitConfig      = 2
	exitRunFailed   = 3
	exitInterrupted = 130
)

// errRunFailed marks a run that finished with status failed or partial.
var errRunFailed = errors.New("audit run did not complete cleanly")

func exitCode(err error) int {
	switch {
	case service.IsCancelled(err):
		return exitInterrupted
	case errors.Is(err, errRunFailed):
		return exitRunFailed
	case errors.Is(err, model.ErrInvalidInput):
		return exitConfig
	}

	if apiErr, ok := apierror.As(err); ok && apiErr.Code == "INVALID_CONFIG" {
		return exitConfig
	}

	return exitFailure
}
