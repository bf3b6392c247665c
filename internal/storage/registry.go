// SPDX-License-Identifier: MPL-2.0

package storage

import (
	"context"
	"fmt"
	"os"

	"doppio-engine/internal/engineerr"
	"doppio-engine/internal/extstate"
	"doppio-engine/internal/subproc"
)

// Registry is the process-wide StorageRegistry, backed by
// the on-disk storages.json table.
type Registry struct {
	table    *extstate.StorageTable
	resolver HostResolver
	runner   *subproc.Runner
}

// NewRegistry returns a Registry reading from table. resolver is used only
// for SshRemote's SFTP fast path and may be nil if no SshRemote entries are
// configured.
func NewRegistry(table *extstate.StorageTable, resolver HostResolver) *Registry {
	return &Registry{table: table, resolver: resolver, runner: subproc.NewRunner()}
}

// Get looks up and decodes storageID's entry.
func (r *Registry) Get(storageID string) (StorageSpec, error) {
	raw, ok, err := r.table.Lookup(storageID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, engineerr.NotFound("storage.Registry.Get", fmt.Errorf("storage %q not found", storageID))
	}
	return Decode(raw)
}

// Validate resolves storageID and confirms the backend is reachable,
// dispatching to the real client each StorageSpec variant carries.
func (r *Registry) Validate(ctx context.Context, storageID string) error {
	spec, err := r.Get(storageID)
	if err != nil {
		return err
	}
	return r.validateSpec(ctx, spec)
}

func (r *Registry) validateSpec(ctx context.Context, spec StorageSpec) error {
	switch s := spec.(type) {
	case LocalFs:
		if s.Root == "" {
			return engineerr.InvalidInput("storage.Registry.Validate", fmt.Errorf("root is required"))
		}
		info, err := os.Stat(s.Root)
		if err != nil {
			return engineerr.NotFound("storage.Registry.Validate", fmt.Errorf("stat %q: %w", s.Root, err))
		}
		if !info.IsDir() {
			return engineerr.InvalidInput("storage.Registry.Validate", fmt.Errorf("%q is not a directory", s.Root))
		}
		return nil

	case CloudflareR2:
		return validateR2(ctx, s)

	case GoogleDrive:
		return validateGoogleDrive(ctx, s)

	case GoogleCloudStorage:
		return validateGCS(ctx, s)

	case SshRemote:
		return validateSshRemote(ctx, r.resolver, s)

	case Smb:
		return r.validateSmb(ctx, s)

	default:
		return engineerr.Internal("storage.Registry.Validate", fmt.Errorf("unhandled storage kind %q", spec.Kind()))
	}
}

// validateSmb shells a one-shot `rclone lsd` against a temp config
// generated for s, since no in-process SMB client lives in the dependency
// set (see DESIGN.md).
func (r *Registry) validateSmb(ctx context.Context, s Smb) error {
	const remoteName = "doppio_validate"
	path, err := writeTempRcloneConfig(s, remoteName)
	if err != nil {
		return err
	}
	defer os.Remove(path)

	target, err := RclonePath(s, remoteName, "")
	if err != nil {
		return err
	}

	res := r.runner.Run(ctx, subproc.Spec{
		Argv: []string{"rclone", "--config", path, "lsd", target},
	})
	if res.Err != nil {
		return res.Err
	}
	if res.ExitCode != 0 {
		return engineerr.Command("storage.Registry.validateSmb", fmt.Errorf("rclone lsd %q exited %d", target, res.ExitCode))
	}
	return nil
}

func writeTempRcloneConfig(spec StorageSpec, remoteName string) (string, error) {
	section, err := RcloneConfig(spec, remoteName)
	if err != nil {
		return "", err
	}
	return WriteRcloneConfigFile(section)
}

// WriteRcloneConfigFile writes one or more rendered `[name]` ini sections
// to a 0600 temp file suitable for rclone's `--config` flag, used both by
// Smb validation here and by TransferEngine for ad-hoc transfer remotes
// (the shared "temp rclone config" pattern). The caller must
// remove the returned path once the rclone invocation using it has exited.
func WriteRcloneConfigFile(sections ...string) (string, error) {
	f, err := os.CreateTemp("", "doppio_rclone_*.conf")
	if err != nil {
		return "", engineerr.IO("storage.WriteRcloneConfigFile", err)
	}
	defer f.Close()
	for _, section := range sections {
		if _, err := f.WriteString(section); err != nil {
			os.Remove(f.Name())
			return "", engineerr.IO("storage.WriteRcloneConfigFile", err)
		}
	}
	if err := f.Chmod(0o600); err != nil {
		os.Remove(f.Name())
		return "", engineerr.IO("storage.WriteRcloneConfigFile", err)
	}
	return f.Name(), nil
}
