// SPDX-License-Identifier: MPL-2.0

package skill

// rawDocument mirrors the on-disk TOML shape described in the skill file
// format: `[skill]`, optional `[target]`, `[variables]`, and an array of
// `[[step]]` tables. go-toml/v2 decodes directly into this shape with
// DisallowUnknownFields, so any stray key anywhere in the document is a
// parse-time error rather than a silently ignored typo.
type rawDocument struct {
	Skill     rawSkillMeta      `toml:"skill"`
	Target    *rawTarget        `toml:"target"`
	Variables map[string]string `toml:"variables"`
	Step      []rawStep         `toml:"step"`
}

type rawSkillMeta struct {
	Name        string `toml:"name"`
	Version     string `toml:"version"`
	Description string `toml:"description"`
}

type rawTarget struct {
	MinGPUs    int    `toml:"min_gpus"`
	GPUModel   string `toml:"gpu_model"`
	MinVRAMGiB int    `toml:"min_vram_gib"`
}

type rawRetry struct {
	MaxAttempts    int     `toml:"max_attempts"`
	BackoffSeconds float64 `toml:"backoff_seconds"`
}

// rawStep embeds one field per possible operation kind; exactly one must
// be non-nil after decode. This mirrors the skill file's `[step.<kind>]`
// sub-table convention directly as Go struct fields, so go-toml/v2 does
// the tagged-union dispatch for us at decode time instead of us hand
// walking a map[string]any.
type rawStep struct {
	ID           string        `toml:"id"`
	DependsOn    []string      `toml:"depends_on"`
	Retry        *rawRetry     `toml:"retry"`
	TimeoutSecs  *float64      `toml:"timeout_secs"`
	When         *rawCondition `toml:"when"`
	OnFailure    string        `toml:"on_failure"`
	ProgressHint string        `toml:"progress_hint"`

	RunCommands         *rawRunCommands         `toml:"run_commands"`
	Transfer            *rawTransfer            `toml:"transfer"`
	GitClone            *rawGitClone            `toml:"git_clone"`
	HuggingFaceDownload *rawHuggingFaceDownload `toml:"huggingface_download"`
	SshCommand          *rawSshCommand          `toml:"ssh_command"`
	RsyncUpload         *rawRsyncUpload         `toml:"rsync_upload"`
	RsyncDownload       *rawRsyncDownload       `toml:"rsync_download"`
	TmuxNew             *rawTmuxNew             `toml:"tmux_new"`
	TmuxSend            *rawTmuxSend            `toml:"tmux_send"`
	TmuxKill            *rawTmuxKill            `toml:"tmux_kill"`
	TmuxCapture         *rawTmuxCapture         `toml:"tmux_capture"`
	VastStart           *rawVastStart           `toml:"vast_start"`
	VastStop            *rawVastStop            `toml:"vast_stop"`
	VastDestroy         *rawVastDestroy         `toml:"vast_destroy"`
	GdriveMount         *rawGdriveMount         `toml:"gdrive_mount"`
	GdriveUnmount       *rawGdriveUnmount       `toml:"gdrive_unmount"`
	Sleep               *rawSleep               `toml:"sleep"`
	WaitCondition       *rawWaitCondition       `toml:"wait_condition"`
	Assert              *rawAssert              `toml:"assert"`
	SetVar              *rawSetVar              `toml:"set_var"`
	GetValue            *rawGetValue            `toml:"get_value"`
	HttpRequest         *rawHttpRequest         `toml:"http_request"`
	Notify              *rawNotify              `toml:"notify"`
	Group               *rawGroup               `toml:"group"`
}

type rawRunCommands struct {
	HostID      string            `toml:"host_id"`
	Commands    []string          `toml:"commands"`
	Env         map[string]string `toml:"env"`
	WorkDir     string            `toml:"workdir"`
	TmuxMode    string            `toml:"tmux_mode"`
	SessionName string            `toml:"session_name"`
}

type rawEndpoint struct {
	Local   *rawLocalEndpoint   `toml:"local"`
	Host    *rawHostEndpoint    `toml:"host"`
	Storage *rawStorageEndpoint `toml:"storage"`
}

type rawLocalEndpoint struct {
	Path string `toml:"path"`
}

type rawHostEndpoint struct {
	HostID string `toml:"host_id"`
	Path   string `toml:"path"`
}

type rawStorageEndpoint struct {
	StorageID string `toml:"storage_id"`
	Path      string `toml:"path"`
}

type rawTransfer struct {
	Source          rawEndpoint `toml:"source"`
	Dest            rawEndpoint `toml:"dest"`
	ExcludePatterns []string    `toml:"exclude_patterns"`
	Delete          bool        `toml:"delete"`
}

type rawGitClone struct {
	HostID    string `toml:"host_id"`
	RepoURL   string `toml:"repo_url"`
	Dest      string `toml:"dest"`
	Branch    string `toml:"branch"`
	AuthToken string `toml:"auth_token"`
}

type rawHuggingFaceDownload struct {
	HostID   string   `toml:"host_id"`
	RepoID   string   `toml:"repo_id"`
	RepoType string   `toml:"repo_type"`
	Revision string   `toml:"revision"`
	Include  []string `toml:"include"`
	Dest     string   `toml:"dest"`
	HFToken  string   `toml:"hf_token"`
}

type rawSshCommand struct {
	HostID  string `toml:"host_id"`
	Command string `toml:"command"`
}

type rawRsyncUpload struct {
	HostID          string   `toml:"host_id"`
	LocalPath       string   `toml:"local_path"`
	RemotePath      string   `toml:"remote_path"`
	ExcludePatterns []string `toml:"exclude_patterns"`
}

type rawRsyncDownload struct {
	HostID          string   `toml:"host_id"`
	RemotePath      string   `toml:"remote_path"`
	LocalPath       string   `toml:"local_path"`
	ExcludePatterns []string `toml:"exclude_patterns"`
}

type rawTmuxNew struct {
	HostID      string `toml:"host_id"`
	SessionName string `toml:"session_name"`
}

type rawTmuxSend struct {
	HostID      string `toml:"host_id"`
	SessionName string `toml:"session_name"`
	Keys        string `toml:"keys"`
}

type rawTmuxKill struct {
	HostID      string `toml:"host_id"`
	SessionName string `toml:"session_name"`
}

type rawTmuxCapture struct {
	HostID      string `toml:"host_id"`
	SessionName string `toml:"session_name"`
	StartLine   *int   `toml:"start_line"`
}

type rawVastStart struct {
	InstanceRef string `toml:"instance_ref"`
}

type rawVastStop struct {
	InstanceRef string `toml:"instance_ref"`
}

type rawVastDestroy struct {
	InstanceRef string `toml:"instance_ref"`
}

type rawGdriveMount struct {
	HostID     string `toml:"host_id"`
	StorageID  string `toml:"storage_id"`
	MountPoint string `toml:"mount_point"`
	CacheMode  string `toml:"cache_mode"`
}

type rawGdriveUnmount struct {
	HostID     string `toml:"host_id"`
	MountPoint string `toml:"mount_point"`
}

type rawSleep struct {
	Seconds float64 `toml:"seconds"`
}

type rawWaitCondition struct {
	Condition        rawCondition `toml:"condition"`
	TimeoutSecs      float64      `toml:"timeout_secs"`
	PollIntervalSecs float64      `toml:"poll_interval_secs"`
}

type rawAssert struct {
	Condition rawCondition `toml:"condition"`
	Message   string       `toml:"message"`
}

type rawSetVar struct {
	Name  string `toml:"name"`
	Value string `toml:"value"`
}

type rawGetValue struct {
	HostID  string `toml:"host_id"`
	Command string `toml:"command"`
	VarName string `toml:"var_name"`
}

type rawHttpRequest struct {
	Method      string            `toml:"method"`
	URL         string            `toml:"url"`
	Headers     map[string]string `toml:"headers"`
	Body        string            `toml:"body"`
	TimeoutSecs float64           `toml:"timeout_secs"`
	VarName     string            `toml:"var_name"`
}

type rawNotify struct {
	Title   string `toml:"title"`
	Message string `toml:"message"`
}

type rawGroup struct {
	StepIDs []string `toml:"step_ids"`
}
