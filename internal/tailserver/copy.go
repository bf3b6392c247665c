// SPDX-License-Identifier: MPL-2.0

package tailserver

import "io"

// copyUntilClosed copies from src to dst until src returns an error (including
// io.EOF, which callers treat as a clean end of stream).
func copyUntilClosed(dst io.Writer, src io.Reader) (int64, error) {
	return io.Copy(dst, src)
}
