package filesystem

// Observer records filesystem operation metrics. The metrics package provides
// the implementation; this package must not import it.
type Observer interface {
	// ObserveOperation records duration and error status for an operation.
	// volume is the resolved label ("source", "output", "static").
	ObserveOperation(volume, operation string, durationSeconds float64, err error)

	ObserveRetryAttempt(retryOp, volume string)
	ObserveRetrySuccess(retryOp, volume string)
	ObserveRetryFailure(retryOp, volume string)
	ObserveRetryDuration(retryOp, volume string, durationSeconds float64)
	ObserveStaleError(retryOp, volume string)
}

// nil means metric recording is skipped (tests, the index command).
var defaultObserver Observer

// SetObserver sets the package-level metrics observer.
func SetObserver(o Observer) {
	defaultObserver = o
}

func observe() Observer {
	return defaultObserver
}

// Operations lists the operation labels reported to the Observer.
func Operations() []string {
	return []string{"stat", "open", "readdir", "remove", "write"}
}
