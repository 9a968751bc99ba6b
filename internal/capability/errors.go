package capability

// TransientError marks a capability failure as retryable.
//
// Callers should retry transient failures with backoff before falling back to
// the stage's deterministic default.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	if e == nil || e.Err == nil {
		return "transient error"
	}
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
