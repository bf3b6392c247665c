// SPDX-License-Identifier: MPL-2.0

package scheduler

import (
	"context"
	"sync"
	"time"

	"doppio-engine/internal/skill"
)

// Execution is one running (or finished) instance of a Skill: its id, an
// immutable reference to the parsed skill, and the mutable state every
// concurrent step worker and the condition environment read and write.
// All mutation goes through mu so step workers never race each other or
// the coordinator goroutine's own bookkeeping.
type Execution struct {
	ID         string
	Skill      *skill.Skill
	Status     ExecutionStatus
	StartedAt  time.Time
	FinishedAt time.Time

	mu              sync.Mutex
	vars            map[string]string
	stepStatus      map[string]StepStatus
	mountedStorages map[string]bool
	mountPoints     map[string]string // rclone mount point -> storage id, for GdriveUnmount lookup
	cancelled       bool
	cancelFunc      context.CancelFunc
	done            chan struct{}
}

// Wait blocks until the execution reaches a terminal status.
func (e *Execution) Wait() {
	<-e.done
}

func newExecution(id string, sk *skill.Skill, initialVars map[string]string) *Execution {
	vars := make(map[string]string, len(sk.Variables)+len(initialVars))
	for k, v := range sk.Variables {
		vars[k] = v
	}
	for k, v := range initialVars {
		vars[k] = v
	}
	stepStatus := make(map[string]StepStatus, len(sk.Steps))
	for _, st := range sk.Steps {
		stepStatus[st.ID] = StepPending
	}
	return &Execution{
		ID:              id,
		Skill:           sk,
		Status:          ExecCreated,
		vars:            vars,
		stepStatus:      stepStatus,
		mountedStorages: make(map[string]bool),
		mountPoints:     make(map[string]string),
		done:            make(chan struct{}),
	}
}

// VarsSnapshot returns a copy of the execution's current variable map, so
// a step's OperationContext reads a stable view even as concurrent
// sibling steps merge their own SetVar/GetValue results in.
func (e *Execution) VarsSnapshot() map[string]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]string, len(e.vars))
	for k, v := range e.vars {
		out[k] = v
	}
	return out
}

// Var looks up a single variable, implementing condition.Environment's
// read path without the cost of a full snapshot.
func (e *Execution) Var(name string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.vars[name]
	return v, ok
}

func (e *Execution) mergeVars(vars map[string]string) {
	if len(vars) == 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for k, v := range vars {
		e.vars[k] = v
	}
}

func (e *Execution) setStepStatus(id string, status StepStatus) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stepStatus[id] = status
}

// StepStatusOf returns the current status of step id.
func (e *Execution) StepStatusOf(id string) StepStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stepStatus[id]
}

// StepStatuses returns a copy of the full step status table.
func (e *Execution) StepStatuses() map[string]StepStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]StepStatus, len(e.stepStatus))
	for k, v := range e.stepStatus {
		out[k] = v
	}
	return out
}

// recordMount associates mountPoint with storageID and marks the storage
// mounted, for a later GdriveMounted condition check.
func (e *Execution) recordMount(mountPoint, storageID string) {
	if storageID == "" {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if mountPoint != "" {
		e.mountPoints[mountPoint] = storageID
	}
	e.mountedStorages[storageID] = true
}

// recordUnmount clears the mounted flag for whatever storage id was last
// mounted at mountPoint.
func (e *Execution) recordUnmount(mountPoint string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if storageID, ok := e.mountPoints[mountPoint]; ok {
		e.mountedStorages[storageID] = false
	}
}

// MountedStorage reports whether storageID is currently recorded as
// mounted, implementing condition.Environment.GdriveMounted.
func (e *Execution) MountedStorage(storageID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mountedStorages[storageID]
}

// setCancelFunc registers the context.CancelFunc that actually tears down
// the execution-wide context; cancel() below calls it.
func (e *Execution) setCancelFunc(fn context.CancelFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelFunc = fn
}

// cancel marks the execution cancelled and, if the execution-wide
// context has been wired up, cancels it so in-flight StepRunners observe
// it at their next suspension point.
func (e *Execution) cancel() {
	e.mu.Lock()
	e.cancelled = true
	fn := e.cancelFunc
	e.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (e *Execution) isCancelled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cancelled
}
