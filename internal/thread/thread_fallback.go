//go:build !windows && !unix

package thread

func currentID() uint32 { return 1 }
