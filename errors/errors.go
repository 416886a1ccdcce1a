package errors

import "fmt"

var (
	ErrWorkerPanic     = fmt.Errorf("worker panic")
	ErrSinkClosed      = fmt.Errorf("sink is closed")
	ErrSinkOverflow    = fmt.Errorf("sink buffer is full")
	ErrNotFound        = fmt.Errorf("entity not found")
	ErrInvalidToken    = fmt.Errorf("invalid or expired token")
	ErrMissingTenant   = fmt.Errorf("token carries no tenant")
	ErrInvalidInterval = fmt.Errorf("heartbeat interval must be shorter than sweep interval, itself shorter than the idle timeout")
)
