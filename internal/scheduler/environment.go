// SPDX-License-Identifier: MPL-2.0

package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"doppio-engine/internal/dispatch"
	"doppio-engine/internal/hostresolve"
	"doppio-engine/internal/sshtarget"
	"doppio-engine/internal/subproc"
)

// tmuxCheckTimeout bounds the one-shot `tmux has-session` exec TmuxAlive
// runs; condition.Environment's TmuxAlive takes no context, so a fixed
// ceiling stands in for caller-supplied cancellation.
const tmuxCheckTimeout = 10 * time.Second

// HostStatusTable is the narrow view onto internal/extstate.HostTable the
// condition environment reads cached reachability and GPU-count fields
// from; distinct from dispatch.HostResolver's SSH-endpoint resolution,
// since those two concerns live on different on-disk fields.
type HostStatusTable interface {
	Online(hostID string) bool
	GPUCount(hostID string) int
}

// Environment bridges one running Execution to condition.Environment:
// RunCheck executes over SSH (or the local shell), Var and GdriveMounted
// read the execution's own state, HostOnline/GpuCount consult the cached
// host table fields, and TmuxAlive runs a one-shot `tmux has-session`.
type Environment struct {
	exec       *Execution
	hosts      dispatch.HostResolver
	hostStatus HostStatusTable
	runner     *subproc.Runner
}

func newEnvironment(exec *Execution, hosts dispatch.HostResolver, hostStatus HostStatusTable, runner *subproc.Runner) *Environment {
	return &Environment{exec: exec, hosts: hosts, hostStatus: hostStatus, runner: runner}
}

// RunCheck implements condition.Environment.
func (e *Environment) RunCheck(ctx context.Context, hostID, script string) (int, string, error) {
	return runCheck(ctx, e.runner, e.hosts, hostID, script)
}

// Var implements condition.Environment.
func (e *Environment) Var(name string) (string, bool) {
	return e.exec.Var(name)
}

// HostOnline implements condition.Environment.
func (e *Environment) HostOnline(hostID string) bool {
	if e.hostStatus == nil || hostID == "" {
		return false
	}
	return e.hostStatus.Online(hostID)
}

// GpuCount implements condition.Environment.
func (e *Environment) GpuCount(hostID string) int {
	if e.hostStatus == nil || hostID == "" {
		return 0
	}
	return e.hostStatus.GPUCount(hostID)
}

// GdriveMounted implements condition.Environment.
func (e *Environment) GdriveMounted(storageID string) bool {
	return e.exec.MountedStorage(storageID)
}

// TmuxAlive implements condition.Environment.
func (e *Environment) TmuxAlive(hostID, session string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), tmuxCheckTimeout)
	defer cancel()
	exitCode, _, err := runCheck(ctx, e.runner, e.hosts, hostID, fmt.Sprintf("tmux has-session -t %s", shQuote(session)))
	if err != nil {
		return false
	}
	return exitCode == 0
}

// runCheck streams script's execution on hostID the same way
// internal/dispatch's unexported hostExec does; duplicated here since
// this package cannot reach across the package boundary for it, and the
// two helpers exist for genuinely distinct callers (a Handler vs a
// condition.Environment).
func runCheck(ctx context.Context, runner *subproc.Runner, hosts dispatch.HostResolver, hostID, script string) (int, string, error) {
	var argv []string
	if hostID == hostresolve.LocalHostID || hostID == "" {
		argv = []string{"/bin/sh", "-c", script}
	} else {
		ep, err := hosts.Resolve(ctx, hostID)
		if err != nil {
			return -1, "", err
		}
		argv = append([]string{"ssh"}, sshtarget.RemoteShellCommand(ep, script)...)
	}

	lines, results := runner.Start(ctx, subproc.Spec{Argv: argv})
	var out strings.Builder
	for line := range lines {
		if line.Stream == subproc.Stdout {
			if out.Len() > 0 {
				out.WriteByte('\n')
			}
			out.WriteString(line.Text)
		}
	}
	res := <-results
	return res.ExitCode, out.String(), res.Err
}

func shQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
