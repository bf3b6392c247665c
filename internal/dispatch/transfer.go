// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"context"

	"doppio-engine/internal/skill"
)

func (oc *OperationContext) interpEndpoint(ep skill.TransferEndpoint) (skill.TransferEndpoint, error) {
	path, err := oc.interp(ep.Path)
	if err != nil {
		return skill.TransferEndpoint{}, err
	}
	hostID, err := oc.interp(ep.HostID)
	if err != nil {
		return skill.TransferEndpoint{}, err
	}
	storageID, err := oc.interp(ep.StorageID)
	if err != nil {
		return skill.TransferEndpoint{}, err
	}
	ep.Path, ep.HostID, ep.StorageID = path, hostID, storageID
	return ep, nil
}

// handleTransfer delegates to the TransferEngine, after
// interpolating every path/host/storage-id field on both endpoints.
func (r *Registry) handleTransfer(ctx context.Context, oc *OperationContext, op skill.Operation) (Result, error) {
	tr := op.(skill.Transfer)

	src, err := oc.interpEndpoint(tr.Source)
	if err != nil {
		return Result{}, err
	}
	dst, err := oc.interpEndpoint(tr.Dest)
	if err != nil {
		return Result{}, err
	}
	tr.Source, tr.Dest = src, dst

	if err := oc.Transfer.Transfer(ctx, tr, oc.progress); err != nil {
		return Result{}, err
	}
	return Result{ExitCode: 0}, nil
}

// handleRsyncUpload is a thin rsync-specific wrapper resolved to a Transfer
// against a Host endpoint.
func (r *Registry) handleRsyncUpload(ctx context.Context, oc *OperationContext, op skill.Operation) (Result, error) {
	ru := op.(skill.RsyncUpload)
	hostID := oc.effectiveHostID(ru.HostID)
	localPath, err := oc.interp(ru.LocalPath)
	if err != nil {
		return Result{}, err
	}
	remotePath, err := oc.interp(ru.RemotePath)
	if err != nil {
		return Result{}, err
	}
	tr := skill.Transfer{
		Source:          skill.TransferEndpoint{Kind: "local", Path: localPath},
		Dest:            skill.TransferEndpoint{Kind: "host", HostID: hostID, Path: remotePath},
		ExcludePatterns: ru.ExcludePatterns,
	}
	if err := oc.Transfer.Transfer(ctx, tr, oc.progress); err != nil {
		return Result{}, err
	}
	return Result{ExitCode: 0}, nil
}

// handleRsyncDownload is RsyncUpload's mirror image: Host -> Local.
func (r *Registry) handleRsyncDownload(ctx context.Context, oc *OperationContext, op skill.Operation) (Result, error) {
	rd := op.(skill.RsyncDownload)
	hostID := oc.effectiveHostID(rd.HostID)
	remotePath, err := oc.interp(rd.RemotePath)
	if err != nil {
		return Result{}, err
	}
	localPath, err := oc.interp(rd.LocalPath)
	if err != nil {
		return Result{}, err
	}
	tr := skill.Transfer{
		Source:          skill.TransferEndpoint{Kind: "host", HostID: hostID, Path: remotePath},
		Dest:            skill.TransferEndpoint{Kind: "local", Path: localPath},
		ExcludePatterns: rd.ExcludePatterns,
	}
	if err := oc.Transfer.Transfer(ctx, tr, oc.progress); err != nil {
		return Result{}, err
	}
	return Result{ExitCode: 0}, nil
}
