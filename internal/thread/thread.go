// Package thread identifies the OS thread running the caller.
//
// Go may move a goroutine between threads at any point, so callers that need
// a stable id across several calls must hold runtime.LockOSThread.
package thread

// CurrentID returns the id of the calling OS thread.
func CurrentID() uint32 {
	return currentID()
}
