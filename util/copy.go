// Package util provides low-level helpers shared by all other packages.
package util

import "io"

// StreamCopier moves bytes from src to dst until EOF.  Each instance
// selects one strategy at bootstrap (from the module bank) and uses it
// for every bulk transfer it performs.
type StreamCopier func(dst io.Writer, src io.Reader) (int64, error)

// CopyPlain is the fallback strategy: a straight io.Copy, letting the
// standard library pick buffering.
func CopyPlain(dst io.Writer, src io.Reader) (int64, error) {
	return io.Copy(dst, src)
}

// CopyPooled copies through a pooled buffer, avoiding a fresh
// allocation per transfer.  Preferred when the host supports wide
// vector loads, where larger fixed buffers pay off.
func CopyPooled(dst io.Writer, src io.Reader) (int64, error) {
	buf := GetBuf()
	defer PutBuf(buf)
	return io.CopyBuffer(dst, struct{ io.Reader }{src}, *buf)
}
