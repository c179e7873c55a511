package reconcile

import "errors"

var (
	// ErrMaterializeFailed means the artifact write failed. The persisted
	// database version is not rolled back; a materialize-only retry is
	// valid.
	ErrMaterializeFailed = errors.New("failed to materialize configuration artifact")

	// ErrInternal means the patched candidate failed shape validation,
	// which indicates a patcher defect rather than bad input.
	ErrInternal = errors.New("internal reconciliation error")
)
