package syncer

import (
	"context"
	"errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

var (
	ErrDocumentRequired     = errors.New("syncer: document is required")
	ErrClientRequired       = errors.New("syncer: artifact client is required")
	ErrAuthenticationFailed = errors.New("syncer: authentication rejected")
	ErrProjectUnavailable   = errors.New("syncer: project binding rejected")
	ErrModeInvalid          = errors.New("syncer: sync mode is invalid")
	ErrAborted              = errors.New("syncer: aborted by user")
	ErrPartialFailure       = errors.New("syncer: one or more items failed")
	ErrParentMissing        = errors.New("syncer: parent artifact was not synced")
)

const (
	setupFailedCode    = "SYNC_SETUP_FAILED"
	abortedCode        = "SYNC_ABORTED"
	partialFailureCode = "SYNC_PARTIAL_FAILURE"
)

func setupError(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, "sync setup failed").
		WithTextCode(setupFailedCode)
}

func abortError(cause error) error {
	if cause == nil {
		cause = context.Canceled
	}
	return goerrors.Wrap(fmt.Errorf("%w: %w", ErrAborted, cause), goerrors.CategoryCommand, "sync aborted").
		WithTextCode(abortedCode)
}

func partialFailure(outcome *Outcome) error {
	err := fmt.Errorf("%w: %d of %d items failed, see the run log", ErrPartialFailure, outcome.ErrorCount, outcome.ErrorCount+outcome.ItemsProcessed)
	return goerrors.Wrap(err, goerrors.CategoryCommand, "sync finished with errors").
		WithTextCode(partialFailureCode)
}

// IsAborted reports whether err is the cancellation stop of a run.
func IsAborted(err error) bool {
	return errors.Is(err, ErrAborted)
}
