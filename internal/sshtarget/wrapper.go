// SPDX-License-Identifier: MPL-2.0

package sshtarget

import (
	"os"

	"doppio-engine/internal/engineerr"
)

// WriteRsyncWrapper writes an executable shell script implementing the ssh
// invocation for e to a temp file suitable for rsync's `-e` flag. The
// caller is responsible for removing the returned path once the rsync
// child has exited.
func WriteRsyncWrapper(e Endpoint, mode Mode) (path string, err error) {
	f, err := os.CreateTemp("", "doppio_ssh_wrapper_*.sh")
	if err != nil {
		return "", engineerr.IO("sshtarget.WriteRsyncWrapper", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.WriteString(RsyncWrapperScript(e, mode)); err != nil {
		_ = os.Remove(f.Name())
		return "", engineerr.IO("sshtarget.WriteRsyncWrapper", err)
	}
	if err := f.Chmod(0o700); err != nil {
		_ = os.Remove(f.Name())
		return "", engineerr.IO("sshtarget.WriteRsyncWrapper", err)
	}
	return f.Name(), nil
}

// RemoveWrapper best-effort removes a wrapper script written by
// WriteRsyncWrapper. Callers invoke it in a defer once the rsync child that
// used it has exited.
func RemoveWrapper(path string) {
	if path == "" {
		return
	}
	_ = os.Remove(path)
}

// RsyncRSHFlag renders the `-e <wrapper>` flag pair for an rsync argv.
func RsyncRSHFlag(wrapperPath string) []string {
	return []string{"-e", wrapperPath}
}
