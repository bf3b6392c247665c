// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// pidFilePath returns where `run`'s pidfile for execID lives. Execution
// state itself is in-memory-only (in-flight executions die with the
// process), so this pidfile exists purely to let a separate
// `cancel` invocation find the foreground `run` process and signal it.
func pidFilePath(dataDir, execID string) string {
	return filepath.Join(dataDir, "skill_executions", execID+".pid")
}

func writePidFile(dataDir, execID string) error {
	path := pidFilePath(dataDir, execID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func removePidFile(dataDir, execID string) {
	_ = os.Remove(pidFilePath(dataDir, execID))
}

// readPid reads back the pid written by writePidFile.
func readPid(dataDir, execID string) (int, error) {
	data, err := os.ReadFile(pidFilePath(dataDir, execID))
	if err != nil {
		return 0, fmt.Errorf("no running execution found for %s: %w", execID, err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("corrupt pidfile for %s: %w", execID, err)
	}
	return pid, nil
}
