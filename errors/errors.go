package errors

import "fmt"

var (
	ErrNotAuthenticated = fmt.Errorf("user not authenticated")
	ErrUnknownEventType = fmt.Errorf("unknown event type")
	ErrSlowConsumer     = fmt.Errorf("outbound buffer full")
	ErrEmptyWords       = fmt.Errorf("no words have been found")
	ErrWorkerPanic      = fmt.Errorf("worker panicked")
)
