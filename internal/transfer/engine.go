// SPDX-License-Identifier: MPL-2.0

package transfer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"doppio-engine/internal/engineerr"
	"doppio-engine/internal/skill"
	"doppio-engine/internal/sshtarget"
	"doppio-engine/internal/storage"
	"doppio-engine/internal/subproc"
)

// Engine is the TransferEngine, dispatching a Transfer operation across
// any combination of local/host/storage endpoints through a dispatch
// table keyed by endpoint kind, mirroring the registry style used for
// execution backends elsewhere in this engine.
type Engine struct {
	hosts    HostResolver
	storages StorageProvider
	runner   *subproc.Runner
}

// NewEngine returns an Engine resolving host/storage endpoints through
// hosts and storages.
func NewEngine(hosts HostResolver, storages StorageProvider) *Engine {
	return &Engine{hosts: hosts, storages: storages, runner: subproc.NewRunner()}
}

// sideKind classifies one resolved endpoint after a storage lookup, since a
// Storage(LocalFs) endpoint behaves exactly like a Local one and a
// Storage(SshRemote) endpoint is rejected outright.
type sideKind int

const (
	sideLocal sideKind = iota
	sideHost
	sideRcloneStorage
)

// side is a fully resolved transfer endpoint.
type side struct {
	kind     sideKind
	path     string
	hostID   string
	endpoint sshtarget.Endpoint

	storageSpec storage.StorageSpec
}

// resolveSide reduces a skill.TransferEndpoint to its underlying side,
// following Storage entries down to the concrete backend they name.
func (e *Engine) resolveSide(ctx context.Context, ep skill.TransferEndpoint) (side, error) {
	switch ep.Kind {
	case "local":
		return side{kind: sideLocal, path: ep.Path}, nil

	case "host":
		if ep.IsLocalHost() {
			return side{kind: sideLocal, path: ep.Path}, nil
		}
		endpoint, err := e.hosts.Resolve(ctx, ep.HostID)
		if err != nil {
			return side{}, err
		}
		return side{kind: sideHost, endpoint: endpoint, hostID: ep.HostID, path: ep.Path}, nil

	case "storage":
		spec, err := e.storages.Get(ep.StorageID)
		if err != nil {
			return side{}, err
		}
		switch s := spec.(type) {
		case storage.LocalFs:
			return side{kind: sideLocal, path: filepath.Join(s.Root, ep.Path)}, nil
		case storage.SshRemote:
			return side{}, engineerr.InvalidInput("transfer.resolveSide",
				fmt.Errorf("storage %q is an SshRemote; re-express it as a host endpoint before calling Transfer", ep.StorageID))
		default:
			return side{kind: sideRcloneStorage, storageSpec: spec, path: ep.Path}, nil
		}

	default:
		return side{}, engineerr.InvalidInput("transfer.resolveSide", fmt.Errorf("unknown endpoint kind %q", ep.Kind))
	}
}

// Transfer runs tr, dispatching on the resolved kind of each side across
// every supported endpoint-pair class.
func (e *Engine) Transfer(ctx context.Context, tr skill.Transfer, onProgress func(string)) error {
	src, err := e.resolveSide(ctx, tr.Source)
	if err != nil {
		return err
	}
	dst, err := e.resolveSide(ctx, tr.Dest)
	if err != nil {
		return err
	}

	switch {
	case src.kind == sideLocal && dst.kind == sideLocal:
		return e.rsyncLocal(ctx, src.path, dst.path, tr.ExcludePatterns, tr.Delete, onProgress)

	case src.kind == sideLocal && dst.kind == sideHost:
		if err := e.mkdirHost(ctx, dst.endpoint, filepath.Dir(dst.path)); err != nil {
			return err
		}
		return e.rsyncSSH(ctx, dst.endpoint, src.path, dst.path, upload, tr.ExcludePatterns, tr.Delete, onProgress)

	case src.kind == sideHost && dst.kind == sideLocal:
		if err := os.MkdirAll(filepath.Dir(dst.path), 0o755); err != nil {
			return engineerr.IO("transfer.Transfer", fmt.Errorf("mkdir parent of %q: %w", dst.path, err))
		}
		return e.rsyncSSH(ctx, src.endpoint, dst.path, src.path, download, tr.ExcludePatterns, tr.Delete, onProgress)

	case src.kind == sideHost && dst.kind == sideHost:
		if src.hostID == dst.hostID {
			return e.cpHostLocal(ctx, src.endpoint, src.path, dst.path)
		}
		return e.stageHostToHost(ctx, src, dst, tr.ExcludePatterns, tr.Delete, onProgress)

	case src.kind == sideRcloneStorage || dst.kind == sideRcloneStorage:
		return e.transferViaRclone(ctx, src, dst, tr.Delete, onProgress)

	default:
		return engineerr.Internal("transfer.Transfer", fmt.Errorf("unhandled endpoint pair (%d, %d)", src.kind, dst.kind))
	}
}

// stageHostToHost implements the "Host_a → Host_b" row: download src into a
// local temp directory, then upload that directory to dst. Using the temp
// directory itself (with a trailing slash) as the upload source reproduces
// src's own trailing-slash layout faithfully, whichever way it resolved
// during the download leg — see DESIGN.md for the full argument.
func (e *Engine) stageHostToHost(ctx context.Context, src, dst side, excludePatterns []string, delete bool, onProgress func(string)) error {
	tmpDir, err := os.MkdirTemp("", "doppio_xfer_stage_*")
	if err != nil {
		return engineerr.IO("transfer.stageHostToHost", err)
	}
	defer os.RemoveAll(tmpDir)

	if err := e.rsyncSSH(ctx, src.endpoint, tmpDir, src.path, download, excludePatterns, false, nil); err != nil {
		return fmt.Errorf("staging download: %w", err)
	}

	if err := e.mkdirHost(ctx, dst.endpoint, filepath.Dir(dst.path)); err != nil {
		return err
	}

	stageSource := tmpDir
	if len(stageSource) == 0 || stageSource[len(stageSource)-1] != filepath.Separator {
		stageSource += string(filepath.Separator)
	}
	if err := e.rsyncSSH(ctx, dst.endpoint, stageSource, dst.path, upload, excludePatterns, delete, onProgress); err != nil {
		return fmt.Errorf("staging upload: %w", err)
	}
	return nil
}

// transferViaRclone handles every pairing where at least one side is a
// non-LocalFs, non-SshRemote Storage endpoint: Local<->Storage,
// Storage<->Storage directly, and Host<->Storage by staging the host side
// through a local temp directory first (rclone has no ssh-to-arbitrary-host
// remote type configured in this engine, so it never talks to a Host
// endpoint directly).
func (e *Engine) transferViaRclone(ctx context.Context, src, dst side, delete bool, onProgress func(string)) error {
	if src.kind == sideHost {
		return e.stageHostThenRclone(ctx, src, dst, delete, onProgress, download)
	}
	if dst.kind == sideHost {
		return e.stageHostThenRclone(ctx, src, dst, delete, onProgress, upload)
	}

	if src.kind == sideRcloneStorage && dst.kind == sideRcloneStorage {
		configPath, srcTarget, dstTarget, err := rcloneConfigForPair(src.storageSpec, dst.storageSpec, src.path, dst.path)
		if err != nil {
			return err
		}
		defer removeRcloneConfig(configPath)
		return e.rcloneOp(ctx, configPath, srcTarget, dstTarget, delete)
	}

	if src.kind == sideRcloneStorage {
		configPath, target, err := rcloneConfigFor(src.storageSpec, "doppio_xfer", src.path)
		if err != nil {
			return err
		}
		defer removeRcloneConfig(configPath)
		return e.rcloneOp(ctx, configPath, target, dst.path, delete)
	}

	configPath, target, err := rcloneConfigFor(dst.storageSpec, "doppio_xfer", dst.path)
	if err != nil {
		return err
	}
	defer removeRcloneConfig(configPath)
	return e.rcloneOp(ctx, configPath, src.path, target, delete)
}

// stageHostThenRclone downloads/uploads the Host side of a Host<->Storage
// transfer to/from a local temp directory, then runs the rclone leg between
// that temp directory and the storage endpoint.
func (e *Engine) stageHostThenRclone(ctx context.Context, src, dst side, delete bool, onProgress func(string), hostDir rsyncDirection) error {
	tmpDir, err := os.MkdirTemp("", "doppio_xfer_stage_*")
	if err != nil {
		return engineerr.IO("transfer.stageHostThenRclone", err)
	}
	defer os.RemoveAll(tmpDir)

	hostSide, storageSide := src, dst
	if hostDir == upload {
		hostSide, storageSide = dst, src
	}

	if hostDir == download {
		if err := e.rsyncSSH(ctx, hostSide.endpoint, tmpDir, hostSide.path, download, nil, false, nil); err != nil {
			return fmt.Errorf("staging download: %w", err)
		}
		configPath, target, err := rcloneConfigFor(storageSide.storageSpec, "doppio_xfer", storageSide.path)
		if err != nil {
			return err
		}
		defer removeRcloneConfig(configPath)
		return e.rcloneOp(ctx, configPath, tmpDir, target, delete)
	}

	configPath, target, err := rcloneConfigFor(storageSide.storageSpec, "doppio_xfer", storageSide.path)
	if err != nil {
		return err
	}
	if err := e.rcloneOp(ctx, configPath, target, tmpDir, false); err != nil {
		removeRcloneConfig(configPath)
		return fmt.Errorf("staging download: %w", err)
	}
	removeRcloneConfig(configPath)

	if err := e.mkdirHost(ctx, hostSide.endpoint, filepath.Dir(hostSide.path)); err != nil {
		return err
	}
	stageSource := tmpDir + string(filepath.Separator)
	return e.rsyncSSH(ctx, hostSide.endpoint, stageSource, hostSide.path, upload, nil, delete, onProgress)
}
