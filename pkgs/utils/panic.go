package utils

import (
	"context"
	"fmt"
	"runtime"

	log "github.com/sirupsen/logrus"
)

// PanicHandler turns a panic of the calling goroutine into the cancel cause.
// It must be deferred directly.
func PanicHandler(cancel context.CancelCauseFunc) {
	if r := recover(); r != nil {
		cancel(fmt.Errorf("recovered from panic: %v", r))
		buf := make([]byte, 1<<16)
		n := runtime.Stack(buf, false)
		log.WithField("panic", r).Errorf("recovered from panic\n%s", buf[:n])
	}
}
