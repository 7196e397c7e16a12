package circulation

import "biblio-backend/internal/platform/apperr"

// Failure reasons surfaced by Borrow and Return. Each one is final for the
// call; only LOCK_CONFLICT (shared, in apperr) is worth retrying.
const (
	ReasonReaderNotFound    = "READER_NOT_FOUND"
	ReasonReaderSuspended   = "READER_SUSPENDED"
	ReasonQuotaExceeded     = "QUOTA_EXCEEDED"
	ReasonCopyNotFound      = "COPY_NOT_FOUND"
	ReasonCopyUnavailable   = "COPY_UNAVAILABLE"
	ReasonCopyDamagedOrLost = "COPY_DAMAGED_OR_LOST"
	ReasonLoanNotFound      = "LOAN_NOT_FOUND"
	ReasonAlreadyReturned   = "ALREADY_RETURNED"
)

func errReaderNotFound() error {
	return apperr.ErrNotFound(ReasonReaderNotFound, "reader not found")
}

func errReaderSuspended() error {
	return apperr.ErrPrecondition(ReasonReaderSuspended, "reader is suspended")
}

func errQuotaExceeded() error {
	return apperr.ErrPrecondition(ReasonQuotaExceeded, "reader has reached the loan quota")
}

func errCopyNotFound() error {
	return apperr.ErrNotFound(ReasonCopyNotFound, "copy not found")
}

func errCopyUnavailable(availability string) error {
	return apperr.ErrPrecondition(ReasonCopyUnavailable, "copy is not available: "+availability)
}

func errCopyDamagedOrLost(condition string) error {
	return apperr.ErrPrecondition(ReasonCopyDamagedOrLost, "copy condition is "+condition)
}

func errLoanNotFound() error {
	return apperr.ErrNotFound(ReasonLoanNotFound, "loan not found")
}

func errAlreadyReturned() error {
	return apperr.ErrConflict(ReasonAlreadyReturned, "loan already returned")
}
