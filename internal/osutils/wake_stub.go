//go:build !windows && !(darwin && cgo)

package osutils

func wakeUp() error {
	return ErrWakeUnsupported
}
