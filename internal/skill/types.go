// SPDX-License-Identifier: MPL-2.0

package skill

import "github.com/google/uuid"

// Skill is a declarative workflow: a DAG of Steps plus a default variable
// map. Immutable after Parse returns it.
type Skill struct {
	Name        string
	Version     string
	Description string
	Target      *TargetRequirement
	Variables   map[string]string
	Steps       []Step
}

// TargetRequirement is an optional capability descriptor a skill can
// declare against the host it expects to run on (e.g. minimum GPU count).
type TargetRequirement struct {
	MinGPUs    int
	GPUModel   string
	MinVRAMGiB int
}

// OnFailurePolicy controls what happens to the graph when a step
// exhausts its retries.
type OnFailurePolicy string

const (
	OnFailureAbort          OnFailurePolicy = "abort"
	OnFailureContinue       OnFailurePolicy = "continue"
	OnFailureSkipDependents OnFailurePolicy = "skip-dependents"
)

// RetryPolicy governs how many times a step is attempted and how long to
// wait between attempts.
type RetryPolicy struct {
	MaxAttempts    int
	BackoffSeconds float64
}

// DefaultRetryPolicy is used when a step declares none.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 1, BackoffSeconds: 0}

// Step is one unit of work in a Skill: a unique id, its dependencies, one
// Operation, and optional execution controls.
type Step struct {
	ID           string
	DependsOn    []string
	Operation    Operation
	Retry        RetryPolicy
	TimeoutSecs  float64
	When         ConditionExpr
	OnFailure    OnFailurePolicy
	ProgressHint string
}

// NewExecutionID returns a fresh random execution identifier.
func NewExecutionID() string {
	return uuid.NewString()
}

// Operation is the tagged-sum interface every step operation payload
// implements. Kind returns the wire name used in skill files
// (`[step.<kind>]`) and in dispatch registries.
type Operation interface {
	Kind() string
}

// TmuxMode selects how RunCommands targets a terminal.
type TmuxMode string

const (
	TmuxModeNone     TmuxMode = "none"
	TmuxModeNew      TmuxMode = "new"
	TmuxModeExisting TmuxMode = "existing"
)

// RunCommands executes a sequence of shell command lines against a host,
// optionally multiplexed through a tmux session.
type RunCommands struct {
	HostID      string
	Commands    []string
	Env         map[string]string
	WorkDir     string
	TmuxMode    TmuxMode
	SessionName string
}

func (RunCommands) Kind() string { return "run_commands" }

// TransferEndpoint is a tagged sum identifying one side of a Transfer
// operation.
type TransferEndpoint struct {
	// Kind is one of "local", "host", "storage".
	Kind      string
	HostID    string
	StorageID string
	Path      string
}

const localHostSentinel = "__local__"

// IsLocalHost reports whether a Host endpoint's host id is the sentinel
// meaning "this process's own filesystem, no SSH."
func (e TransferEndpoint) IsLocalHost() bool {
	return e.Kind == "host" && e.HostID == localHostSentinel
}

// Transfer copies a path from Source to Dest, across any combination of
// local filesystem, host, or storage endpoints.
type Transfer struct {
	Source          TransferEndpoint
	Dest            TransferEndpoint
	ExcludePatterns []string
	Delete          bool
}

func (Transfer) Kind() string { return "transfer" }

// GitClone clones a repository onto a host.
type GitClone struct {
	HostID    string
	RepoURL   string
	Dest      string
	Branch    string
	AuthToken string
}

func (GitClone) Kind() string { return "git_clone" }

// HuggingFaceDownload downloads a model/dataset/space from the Hugging
// Face hub onto a host via huggingface-cli.
type HuggingFaceDownload struct {
	HostID   string
	RepoID   string
	RepoType string // model | dataset | space
	Revision string
	Include  []string
	Dest     string
	HFToken  string
}

func (HuggingFaceDownload) Kind() string { return "huggingface_download" }

// SshCommand runs a single command string over a one-shot SSH exec.
type SshCommand struct {
	HostID  string
	Command string
}

func (SshCommand) Kind() string { return "ssh_command" }

// RsyncUpload/RsyncDownload are thin rsync-specific wrappers the
// dispatcher resolves to a Transfer against a Host endpoint.
type RsyncUpload struct {
	HostID          string
	LocalPath       string
	RemotePath      string
	ExcludePatterns []string
}

func (RsyncUpload) Kind() string { return "rsync_upload" }

type RsyncDownload struct {
	HostID          string
	RemotePath      string
	LocalPath       string
	ExcludePatterns []string
}

func (RsyncDownload) Kind() string { return "rsync_download" }

// TmuxNew creates a named tmux session on a host.
type TmuxNew struct {
	HostID      string
	SessionName string
}

func (TmuxNew) Kind() string { return "tmux_new" }

// TmuxSend sends keys (plus Enter) to an existing tmux session.
type TmuxSend struct {
	HostID      string
	SessionName string
	Keys        string
}

func (TmuxSend) Kind() string { return "tmux_send" }

// TmuxKill kills a tmux session.
type TmuxKill struct {
	HostID      string
	SessionName string
}

func (TmuxKill) Kind() string { return "tmux_kill" }

// TmuxCapture captures pane output from a tmux session, optionally from a
// scrollback start line.
type TmuxCapture struct {
	HostID      string
	SessionName string
	StartLine   *int
}

func (TmuxCapture) Kind() string { return "tmux_capture" }

// VastStart/VastStop/VastDestroy drive a rented GPU instance's lifecycle
// via the marketplace API.
type VastStart struct {
	InstanceRef string
}

func (VastStart) Kind() string { return "vast_start" }

type VastStop struct {
	InstanceRef string
}

func (VastStop) Kind() string { return "vast_stop" }

type VastDestroy struct {
	InstanceRef string
}

func (VastDestroy) Kind() string { return "vast_destroy" }

// GdriveMount mounts a Google Drive storage spec onto a host via rclone.
type GdriveMount struct {
	HostID     string
	StorageID  string
	MountPoint string
	CacheMode  string
}

func (GdriveMount) Kind() string { return "gdrive_mount" }

// GdriveUnmount unmounts a previously mounted Google Drive path.
type GdriveUnmount struct {
	HostID     string
	MountPoint string
}

func (GdriveUnmount) Kind() string { return "gdrive_unmount" }

// Sleep pauses the step for a fixed duration.
type Sleep struct {
	Seconds float64
}

func (Sleep) Kind() string { return "sleep" }

// WaitCondition polls a Condition until true or a timeout elapses.
type WaitCondition struct {
	Condition        ConditionExpr
	TimeoutSecs      float64
	PollIntervalSecs float64
}

func (WaitCondition) Kind() string { return "wait_condition" }

// Assert evaluates a Condition once and fails the step with Message if
// it is false.
type Assert struct {
	Condition ConditionExpr
	Message   string
}

func (Assert) Kind() string { return "assert" }

// SetVar mutates the execution's variable map. Handled specially by the
// scheduler; never dispatched to a handler that touches a host.
type SetVar struct {
	Name  string
	Value string
}

func (SetVar) Kind() string { return "set_var" }

// GetValue captures a command's trimmed stdout into a named variable.
type GetValue struct {
	HostID  string
	Command string
	VarName string
}

func (GetValue) Kind() string { return "get_value" }

// HttpRequest performs a single HTTP call.
type HttpRequest struct {
	Method      string
	URL         string
	Headers     map[string]string
	Body        string
	TimeoutSecs float64
	VarName     string
}

func (HttpRequest) Kind() string { return "http_request" }

// Notify delivers an OS-native notification from the engine host.
type Notify struct {
	Title   string
	Message string
}

func (Notify) Kind() string { return "notify" }

// Group is expanded into its member steps at skill-load time and never
// itself dispatched during execution.
type Group struct {
	StepIDs []string
}

func (Group) Kind() string { return "group" }
