// SPDX-License-Identifier: MPL-2.0

// Package scheduler implements the ExecutionScheduler: the
// top-level driver that walks a Skill's dependency graph, running one
// StepRunner per step concurrently up to a configurable bound, merging
// their results back into a single Execution.
package scheduler

import (
	"context"
	"sync"
	"time"

	"doppio-engine/internal/dispatch"
	"doppio-engine/internal/eventbus"
	"doppio-engine/internal/logstore"
	"doppio-engine/internal/skill"
	"doppio-engine/internal/step"
	"doppio-engine/internal/subproc"
)

// DefaultMaxParallelSteps is used when the caller configures none.
const DefaultMaxParallelSteps = 4

// Scheduler drives Skill executions. One execution runs at a time per
// Scheduler instance; its steps run concurrently up to MaxParallel. All
// fields besides the internal bookkeeping below are the engine's shared,
// process-wide collaborators, injected rather than reached for globally.
type Scheduler struct {
	Hosts       dispatch.HostResolver
	HostStatus  HostStatusTable
	Secrets     dispatch.SecretsStore
	Storages    dispatch.StorageProvider
	Transfer    dispatch.TransferEngine
	Marketplace dispatch.MarketplaceClient
	Terminals   dispatch.TerminalManager
	Logs        *logstore.Store
	Events      *eventbus.Bus
	Dispatch    *dispatch.Registry
	Runner      *step.Runner
	MaxParallel int

	mu         sync.Mutex
	executions map[string]*Execution
}

// New returns a Scheduler wired to the engine's shared collaborators.
// maxParallel <= 0 falls back to DefaultMaxParallelSteps.
func New(
	maxParallel int,
	hosts dispatch.HostResolver,
	hostStatus HostStatusTable,
	secrets dispatch.SecretsStore,
	storages dispatch.StorageProvider,
	transfer dispatch.TransferEngine,
	marketplace dispatch.MarketplaceClient,
	terminals dispatch.TerminalManager,
	logs *logstore.Store,
	events *eventbus.Bus,
	reg *dispatch.Registry,
) *Scheduler {
	if maxParallel <= 0 {
		maxParallel = DefaultMaxParallelSteps
	}
	return &Scheduler{
		Hosts: hosts, HostStatus: hostStatus, Secrets: secrets, Storages: storages,
		Transfer: transfer, Marketplace: marketplace, Terminals: terminals,
		Logs: logs, Events: events, Dispatch: reg, Runner: step.NewRunner(reg),
		MaxParallel: maxParallel, executions: make(map[string]*Execution),
	}
}

// Get returns the Execution registered under id, for status queries.
func (s *Scheduler) Get(id string) (*Execution, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.executions[id]
	return e, ok
}

// Cancel requests cancellation of a running execution. In-flight
// StepRunners observe it at their next suspension point; pending steps
// are marked cancelled without ever dispatching.
func (s *Scheduler) Cancel(id string) {
	if e, ok := s.Get(id); ok {
		e.cancel()
	}
}

type stepResult struct {
	id      string
	outcome step.Outcome
}

// Submit starts sk running in the background and returns its Execution as
// soon as it is registered — with its ID populated, before any step has
// necessarily run — so a caller can observe or cancel it without blocking
// on the whole graph. Drive it to completion with Execution.Wait, or use
// Run for the synchronous submit-then-wait combination.
func (s *Scheduler) Submit(ctx context.Context, sk *skill.Skill, vars map[string]string) (*Execution, error) {
	order, err := skill.TopologicalOrder(sk)
	if err != nil {
		return nil, err
	}

	exec := newExecution(skill.NewExecutionID(), sk, vars)
	s.mu.Lock()
	s.executions[exec.ID] = exec
	s.mu.Unlock()

	runCtx, cancelRun := context.WithCancel(ctx)
	exec.setCancelFunc(cancelRun)

	go func() {
		defer cancelRun()
		s.runGraph(runCtx, exec, sk, order)
		close(exec.done)
	}()

	return exec, nil
}

// Run submits sk and blocks until it finishes (or is cancelled). The
// returned error is non-nil only for a setup failure (an invalid/cyclic
// graph); individual step failures are reflected in the Execution's
// step/status tables, never in this return.
func (s *Scheduler) Run(ctx context.Context, sk *skill.Skill, vars map[string]string) (*Execution, error) {
	exec, err := s.Submit(ctx, sk, vars)
	if err != nil {
		return nil, err
	}
	exec.Wait()
	return exec, nil
}

// runGraph drives exec's step DAG to completion over runCtx, in topo
// order, admitting ready steps up to s.MaxParallel at a time.
func (s *Scheduler) runGraph(runCtx context.Context, exec *Execution, sk *skill.Skill, order []string) {
	env := newEnvironment(exec, s.Hosts, s.HostStatus, subproc.NewRunner())

	byID := make(map[string]skill.Step, len(sk.Steps))
	dependents := make(map[string][]string, len(sk.Steps))
	indegree := make(map[string]int, len(sk.Steps))
	for _, st := range sk.Steps {
		byID[st.ID] = st
		indegree[st.ID] = len(st.DependsOn)
	}
	for _, st := range sk.Steps {
		for _, dep := range st.DependsOn {
			dependents[dep] = append(dependents[dep], st.ID)
		}
	}

	exec.Status = ExecRunning
	exec.StartedAt = time.Now()

	blocked := make(map[string]StepStatus, len(sk.Steps))
	remaining := len(sk.Steps)
	results := make(chan stepResult, len(sk.Steps))
	sem := make(chan struct{}, s.MaxParallel)

	propagateBlock := func(id string, status StepStatus) {
		if cur, ok := blocked[id]; ok && cur == StepCancelled {
			return
		}
		blocked[id] = status
	}

	launch := func(id string) {
		st := byID[id]
		exec.setStepStatus(id, StepRunning)
		s.publishStepStarted(exec.ID, id)
		go func() {
			sem <- struct{}{}
			defer func() { <-sem }()
			outcome := s.runOneStep(runCtx, exec, st, env)
			results <- stepResult{id: id, outcome: outcome}
		}()
	}

	var admitOrFinalize func(id string)
	finalizeBlocked := func(id string) {
		status := blocked[id]
		exec.setStepStatus(id, status)
		s.publishStepFinished(exec.ID, id, string(status), nil)
		remaining--
		for _, dep := range dependents[id] {
			propagateBlock(dep, status)
			indegree[dep]--
			if indegree[dep] == 0 {
				admitOrFinalize(dep)
			}
		}
	}
	admitOrFinalize = func(id string) {
		if _, already := blocked[id]; already {
			finalizeBlocked(id)
			return
		}
		if exec.isCancelled() {
			propagateBlock(id, StepCancelled)
			finalizeBlocked(id)
			return
		}
		launch(id)
	}

	for _, id := range order {
		if indegree[id] == 0 {
			admitOrFinalize(id)
		}
	}

	for remaining > 0 {
		res := <-results
		id := res.id
		remaining--

		switch res.outcome.Status {
		case step.StatusSucceeded:
			exec.setStepStatus(id, StepSucceeded)
			exec.mergeVars(res.outcome.Vars)
			s.recordMountState(exec, byID[id], res.outcome)
			exitCode := res.outcome.ExitCode
			s.publishStepFinished(exec.ID, id, "succeeded", &exitCode)

		case step.StatusSkipped:
			exec.setStepStatus(id, StepSkipped)
			s.publishStepFinished(exec.ID, id, "skipped", nil)

		case step.StatusCancelled:
			exec.setStepStatus(id, StepCancelled)
			s.publishStepFinished(exec.ID, id, "cancelled", nil)
			for _, dep := range dependents[id] {
				propagateBlock(dep, StepCancelled)
			}

		case step.StatusFailed:
			exec.setStepStatus(id, StepFailed)
			exitCode := res.outcome.ExitCode
			s.publishStepFinished(exec.ID, id, "failed", &exitCode)
			switch byID[id].OnFailure {
			case skill.OnFailureAbort:
				exec.cancel()
				for _, dep := range dependents[id] {
					propagateBlock(dep, StepCancelled)
				}
			case skill.OnFailureSkipDependents:
				for _, dep := range dependents[id] {
					propagateBlock(dep, StepCancelled)
				}
			default: // OnFailureContinue
				for _, dep := range dependents[id] {
					propagateBlock(dep, StepSkipped)
				}
			}
		}

		for _, dep := range dependents[id] {
			indegree[dep]--
			if indegree[dep] == 0 {
				admitOrFinalize(dep)
			}
		}
	}

	exec.FinishedAt = time.Now()
	exec.Status = finalStatus(exec)
	s.publishFinished(exec.ID, string(exec.Status))
}

// finalStatus derives the execution-level outcome from its finished
// steps: any genuine failure takes priority over a plain cancellation,
// so an on_failure=abort execution (always triggered by a failed step)
// reports Failed rather than Cancelled.
func finalStatus(exec *Execution) ExecutionStatus {
	anyFailed := false
	for _, status := range exec.StepStatuses() {
		if status == StepFailed {
			anyFailed = true
		}
	}
	switch {
	case anyFailed:
		return ExecFailed
	case exec.isCancelled():
		return ExecCancelled
	default:
		return ExecSucceeded
	}
}

// runOneStep builds the per-step OperationContext and drives it through
// the StepRunner, then folds in any GdriveMount/GdriveUnmount bookkeeping
// the condition engine's GdriveMounted predicate depends on.
func (s *Scheduler) runOneStep(ctx context.Context, exec *Execution, st skill.Step, env *Environment) step.Outcome {
	oc := &dispatch.OperationContext{
		ExecutionID: exec.ID,
		StepID:      st.ID,
		Vars:        exec.VarsSnapshot(),
		Mode:        dispatch.Checked,
		Hosts:       s.Hosts,
		Secrets:     s.Secrets,
		Storages:    s.Storages,
		Transfer:    s.Transfer,
		Marketplace: s.Marketplace,
		Logs:        s.Logs,
		Events:      s.Events,
		Env:         env,
		Terminals:   s.Terminals,
		OnProgress: func(line string) {
			s.publishStepProgress(exec.ID, st.ID, line)
		},
	}
	return s.Runner.Run(ctx, st, oc)
}

// recordMountState updates exec's mount bookkeeping after a successful
// GdriveMount/GdriveUnmount step, interpolating the same fields the
// handler itself resolved so GdriveMounted conditions see consistent ids.
func (s *Scheduler) recordMountState(exec *Execution, st skill.Step, outcome step.Outcome) {
	vars := exec.VarsSnapshot()
	switch op := st.Operation.(type) {
	case skill.GdriveMount:
		storageID, err := dispatch.Interpolate(op.StorageID, vars, s.Secrets, dispatch.Checked)
		if err != nil {
			return
		}
		mountPoint, err := dispatch.Interpolate(op.MountPoint, vars, s.Secrets, dispatch.Checked)
		if err != nil {
			return
		}
		exec.recordMount(mountPoint, storageID)
	case skill.GdriveUnmount:
		mountPoint, err := dispatch.Interpolate(op.MountPoint, vars, s.Secrets, dispatch.Checked)
		if err != nil {
			return
		}
		exec.recordUnmount(mountPoint)
	}
}

func (s *Scheduler) publishStepStarted(execID, stepID string) {
	if s.Events == nil {
		return
	}
	s.Events.Publish(eventbus.Event{
		Topic:   eventbus.TopicStepStarted,
		Payload: eventbus.StepStartedPayload{Exec: execID, Step: stepID},
	})
}

func (s *Scheduler) publishStepProgress(execID, stepID, progress string) {
	if s.Events == nil {
		return
	}
	s.Events.Publish(eventbus.Event{
		Topic:   eventbus.TopicStepProgress,
		Payload: eventbus.StepProgressPayload{Exec: execID, Step: stepID, Progress: progress},
	})
}

func (s *Scheduler) publishStepFinished(execID, stepID, status string, exitCode *int) {
	if s.Events == nil {
		return
	}
	s.Events.Publish(eventbus.Event{
		Topic:   eventbus.TopicStepFinished,
		Payload: eventbus.StepFinishedPayload{Exec: execID, Step: stepID, Status: status, ExitCode: exitCode},
	})
}

func (s *Scheduler) publishFinished(execID, status string) {
	if s.Events == nil {
		return
	}
	s.Events.Publish(eventbus.Event{
		Topic:   eventbus.TopicFinished,
		Payload: eventbus.FinishedPayload{Exec: execID, Status: status},
	})
}
