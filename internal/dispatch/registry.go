// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"context"
	"fmt"

	"doppio-engine/internal/engineerr"
	"doppio-engine/internal/skill"
	"doppio-engine/internal/subproc"
)

// Handler executes one Operation variant, returning its Result.
type Handler func(ctx context.Context, oc *OperationContext, op skill.Operation) (Result, error)

// Registry is the OperationDispatcher: a map[OperationKind]Handler,
// grounded on internal/runtime.Registry's Register/Get/Execute shape,
// generalized from 3 runtime kinds to the 22 skill.Operation variants.
type Registry struct {
	handlers map[string]Handler
	runner   *subproc.Runner
}

// NewRegistry returns a Registry with every built-in handler registered.
func NewRegistry() *Registry {
	r := &Registry{handlers: make(map[string]Handler), runner: subproc.NewRunner()}
	r.registerBuiltins()
	return r
}

// Register adds or replaces the handler for kind.
func (r *Registry) Register(kind string, h Handler) {
	r.handlers[kind] = h
}

// Get returns the handler registered for kind.
func (r *Registry) Get(kind string) (Handler, error) {
	h, ok := r.handlers[kind]
	if !ok {
		return nil, fmt.Errorf("operation %q not registered", kind)
	}
	return h, nil
}

// Dispatch looks up op's handler and runs it. Group never reaches here
// (expanded at skill-load time); SetVar/GetValue mutate Result.Vars rather
// than touching a host.
func (r *Registry) Dispatch(ctx context.Context, oc *OperationContext, op skill.Operation) (Result, error) {
	h, err := r.Get(op.Kind())
	if err != nil {
		return Result{}, engineerr.Internal("dispatch.Registry.Dispatch", err)
	}
	return h(ctx, oc, op)
}

func (r *Registry) registerBuiltins() {
	r.Register("run_commands", r.handleRunCommands)
	r.Register("transfer", r.handleTransfer)
	r.Register("git_clone", r.handleGitClone)
	r.Register("huggingface_download", r.handleHuggingFaceDownload)
	r.Register("ssh_command", r.handleSshCommand)
	r.Register("rsync_upload", r.handleRsyncUpload)
	r.Register("rsync_download", r.handleRsyncDownload)
	r.Register("tmux_new", r.handleTmuxNew)
	r.Register("tmux_send", r.handleTmuxSend)
	r.Register("tmux_kill", r.handleTmuxKill)
	r.Register("tmux_capture", r.handleTmuxCapture)
	r.Register("vast_start", r.handleVastStart)
	r.Register("vast_stop", r.handleVastStop)
	r.Register("vast_destroy", r.handleVastDestroy)
	r.Register("gdrive_mount", r.handleGdriveMount)
	r.Register("gdrive_unmount", r.handleGdriveUnmount)
	r.Register("sleep", r.handleSleep)
	r.Register("wait_condition", r.handleWaitCondition)
	r.Register("assert", r.handleAssert)
	r.Register("set_var", r.handleSetVar)
	r.Register("get_value", r.handleGetValue)
	r.Register("http_request", r.handleHttpRequest)
	r.Register("notify", r.handleNotify)
	r.Register("group", r.handleGroup)
}
