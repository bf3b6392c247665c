// SPDX-License-Identifier: MPL-2.0

package skill

import (
	"fmt"

	"doppio-engine/internal/engineerr"
)

func toEndpoint(re rawEndpoint, field string) (TransferEndpoint, error) {
	switch {
	case re.Local != nil:
		return TransferEndpoint{Kind: "local", Path: re.Local.Path}, nil
	case re.Host != nil:
		return TransferEndpoint{Kind: "host", HostID: re.Host.HostID, Path: re.Host.Path}, nil
	case re.Storage != nil:
		return TransferEndpoint{Kind: "storage", StorageID: re.Storage.StorageID, Path: re.Storage.Path}, nil
	default:
		return TransferEndpoint{}, engineerr.InvalidInput("skill.parse", fmt.Errorf("%s: endpoint table must set exactly one of local, host, storage", field))
	}
}

// toOperation converts a decoded rawStep's operation fields into the
// Operation interface value it represents. Returns an error if zero or
// more than one operation field is set.
func toOperation(rs rawStep) (Operation, error) {
	var found []Operation

	if rs.RunCommands != nil {
		r := rs.RunCommands
		found = append(found, RunCommands{
			HostID: r.HostID, Commands: r.Commands, Env: r.Env,
			WorkDir: r.WorkDir, TmuxMode: TmuxMode(r.TmuxMode), SessionName: r.SessionName,
		})
	}
	if rs.Transfer != nil {
		src, err := toEndpoint(rs.Transfer.Source, "transfer.source")
		if err != nil {
			return nil, err
		}
		dst, err := toEndpoint(rs.Transfer.Dest, "transfer.dest")
		if err != nil {
			return nil, err
		}
		found = append(found, Transfer{
			Source: src, Dest: dst,
			ExcludePatterns: rs.Transfer.ExcludePatterns, Delete: rs.Transfer.Delete,
		})
	}
	if rs.GitClone != nil {
		g := rs.GitClone
		found = append(found, GitClone{HostID: g.HostID, RepoURL: g.RepoURL, Dest: g.Dest, Branch: g.Branch, AuthToken: g.AuthToken})
	}
	if rs.HuggingFaceDownload != nil {
		h := rs.HuggingFaceDownload
		found = append(found, HuggingFaceDownload{
			HostID: h.HostID, RepoID: h.RepoID, RepoType: h.RepoType,
			Revision: h.Revision, Include: h.Include, Dest: h.Dest, HFToken: h.HFToken,
		})
	}
	if rs.SshCommand != nil {
		found = append(found, SshCommand{HostID: rs.SshCommand.HostID, Command: rs.SshCommand.Command})
	}
	if rs.RsyncUpload != nil {
		r := rs.RsyncUpload
		found = append(found, RsyncUpload{HostID: r.HostID, LocalPath: r.LocalPath, RemotePath: r.RemotePath, ExcludePatterns: r.ExcludePatterns})
	}
	if rs.RsyncDownload != nil {
		r := rs.RsyncDownload
		found = append(found, RsyncDownload{HostID: r.HostID, RemotePath: r.RemotePath, LocalPath: r.LocalPath, ExcludePatterns: r.ExcludePatterns})
	}
	if rs.TmuxNew != nil {
		found = append(found, TmuxNew{HostID: rs.TmuxNew.HostID, SessionName: rs.TmuxNew.SessionName})
	}
	if rs.TmuxSend != nil {
		found = append(found, TmuxSend{HostID: rs.TmuxSend.HostID, SessionName: rs.TmuxSend.SessionName, Keys: rs.TmuxSend.Keys})
	}
	if rs.TmuxKill != nil {
		found = append(found, TmuxKill{HostID: rs.TmuxKill.HostID, SessionName: rs.TmuxKill.SessionName})
	}
	if rs.TmuxCapture != nil {
		found = append(found, TmuxCapture{HostID: rs.TmuxCapture.HostID, SessionName: rs.TmuxCapture.SessionName, StartLine: rs.TmuxCapture.StartLine})
	}
	if rs.VastStart != nil {
		found = append(found, VastStart{InstanceRef: rs.VastStart.InstanceRef})
	}
	if rs.VastStop != nil {
		found = append(found, VastStop{InstanceRef: rs.VastStop.InstanceRef})
	}
	if rs.VastDestroy != nil {
		found = append(found, VastDestroy{InstanceRef: rs.VastDestroy.InstanceRef})
	}
	if rs.GdriveMount != nil {
		g := rs.GdriveMount
		found = append(found, GdriveMount{HostID: g.HostID, StorageID: g.StorageID, MountPoint: g.MountPoint, CacheMode: g.CacheMode})
	}
	if rs.GdriveUnmount != nil {
		found = append(found, GdriveUnmount{HostID: rs.GdriveUnmount.HostID, MountPoint: rs.GdriveUnmount.MountPoint})
	}
	if rs.Sleep != nil {
		found = append(found, Sleep{Seconds: rs.Sleep.Seconds})
	}
	if rs.WaitCondition != nil {
		cond, err := toCondition(&rs.WaitCondition.Condition)
		if err != nil {
			return nil, engineerr.InvalidInput("skill.parse", fmt.Errorf("step %q wait_condition: %w", rs.ID, err))
		}
		found = append(found, WaitCondition{Condition: cond, TimeoutSecs: rs.WaitCondition.TimeoutSecs, PollIntervalSecs: rs.WaitCondition.PollIntervalSecs})
	}
	if rs.Assert != nil {
		cond, err := toCondition(&rs.Assert.Condition)
		if err != nil {
			return nil, engineerr.InvalidInput("skill.parse", fmt.Errorf("step %q assert: %w", rs.ID, err))
		}
		found = append(found, Assert{Condition: cond, Message: rs.Assert.Message})
	}
	if rs.SetVar != nil {
		found = append(found, SetVar{Name: rs.SetVar.Name, Value: rs.SetVar.Value})
	}
	if rs.GetValue != nil {
		found = append(found, GetValue{HostID: rs.GetValue.HostID, Command: rs.GetValue.Command, VarName: rs.GetValue.VarName})
	}
	if rs.HttpRequest != nil {
		h := rs.HttpRequest
		found = append(found, HttpRequest{Method: h.Method, URL: h.URL, Headers: h.Headers, Body: h.Body, TimeoutSecs: h.TimeoutSecs, VarName: h.VarName})
	}
	if rs.Notify != nil {
		found = append(found, Notify{Title: rs.Notify.Title, Message: rs.Notify.Message})
	}
	if rs.Group != nil {
		found = append(found, Group{StepIDs: rs.Group.StepIDs})
	}

	switch len(found) {
	case 0:
		return nil, engineerr.InvalidInput("skill.parse", fmt.Errorf("step %q: no operation table set", rs.ID))
	case 1:
		return found[0], nil
	default:
		return nil, engineerr.InvalidInput("skill.parse", fmt.Errorf("step %q: exactly one operation table must be set, found %d", rs.ID, len(found)))
	}
}

func toStep(rs rawStep) (Step, error) {
	op, err := toOperation(rs)
	if err != nil {
		return Step{}, err
	}

	when, err := toCondition(rs.When)
	if err != nil {
		return Step{}, engineerr.InvalidInput("skill.parse", fmt.Errorf("step %q when: %w", rs.ID, err))
	}

	retry := DefaultRetryPolicy
	if rs.Retry != nil {
		retry = RetryPolicy{MaxAttempts: rs.Retry.MaxAttempts, BackoffSeconds: rs.Retry.BackoffSeconds}
	}

	onFailure := OnFailureAbort
	if rs.OnFailure != "" {
		onFailure = OnFailurePolicy(rs.OnFailure)
	}

	var timeout float64
	if rs.TimeoutSecs != nil {
		timeout = *rs.TimeoutSecs
	}

	return Step{
		ID:           rs.ID,
		DependsOn:    rs.DependsOn,
		Operation:    op,
		Retry:        retry,
		TimeoutSecs:  timeout,
		When:         when,
		OnFailure:    onFailure,
		ProgressHint: rs.ProgressHint,
	}, nil
}

func toSkill(doc rawDocument) (*Skill, error) {
	s := &Skill{
		Name:        doc.Skill.Name,
		Version:     doc.Skill.Version,
		Description: doc.Skill.Description,
		Variables:   doc.Variables,
	}
	if doc.Target != nil {
		s.Target = &TargetRequirement{
			MinGPUs:    doc.Target.MinGPUs,
			GPUModel:   doc.Target.GPUModel,
			MinVRAMGiB: doc.Target.MinVRAMGiB,
		}
	}
	s.Steps = make([]Step, 0, len(doc.Step))
	for _, rs := range doc.Step {
		step, err := toStep(rs)
		if err != nil {
			return nil, err
		}
		s.Steps = append(s.Steps, step)
	}
	return s, nil
}
