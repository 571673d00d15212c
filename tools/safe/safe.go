package safe

import (
	"RTCSession/logger"
)

// Go starts a goroutine that recovers from panic, so a misbehaving
// callback cannot take down the whole session.
func Go(name string, f func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("[safe.Go] %s panic recovered: %v", name, r)
			}
		}()
		f()
	}()
}
