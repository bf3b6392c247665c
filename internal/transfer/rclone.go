// SPDX-License-Identifier: MPL-2.0

package transfer

import (
	"context"
	"fmt"
	"os"

	"doppio-engine/internal/engineerr"
	"doppio-engine/internal/storage"
	"doppio-engine/internal/subproc"
)

// rcloneOp runs `rclone sync` (if delete) or `rclone copy` between src and
// dst, which may each be a bare local path or a `remote:path` form. rclone
// invocations are synchronous and carry no incremental progress;
// onProgress is accepted for symmetry with the rsync paths but never
// called here.
func (e *Engine) rcloneOp(ctx context.Context, configPath, src, dst string, delete bool) error {
	verb := "copy"
	if delete {
		verb = "sync"
	}
	argv := []string{"rclone", "--config", configPath, verb, src, dst}
	res := e.runner.Run(ctx, subproc.Spec{Argv: argv, Timeout: 0})
	if res.Err != nil {
		return res.Err
	}
	if res.ExitCode != 0 {
		return engineerr.Command("transfer.rcloneOp", fmt.Errorf("rclone %s %s -> %s exited %d", verb, src, dst, res.ExitCode))
	}
	return nil
}

// rcloneConfigFor writes a temp rclone config with a single remote for
// spec, returning its path and rendered `remote:path` target.
func rcloneConfigFor(spec storage.StorageSpec, remoteName, path string) (configPath, target string, err error) {
	section, err := storage.RcloneConfig(spec, remoteName)
	if err != nil {
		return "", "", err
	}
	configPath, err = storage.WriteRcloneConfigFile(section)
	if err != nil {
		return "", "", err
	}
	target, err = storage.RclonePath(spec, remoteName, path)
	if err != nil {
		os.Remove(configPath)
		return "", "", err
	}
	return configPath, target, nil
}

// rcloneConfigForPair writes a single temp config carrying both srcSpec and
// dstSpec as distinct remotes, for a storage-to-storage transfer
// (create temp rclone remotes, sync/copy, delete the config).
func rcloneConfigForPair(srcSpec, dstSpec storage.StorageSpec, srcPath, dstPath string) (configPath, srcTarget, dstTarget string, err error) {
	const srcRemote, dstRemote = "doppio_xfer_src", "doppio_xfer_dst"

	srcSection, err := storage.RcloneConfig(srcSpec, srcRemote)
	if err != nil {
		return "", "", "", err
	}
	dstSection, err := storage.RcloneConfig(dstSpec, dstRemote)
	if err != nil {
		return "", "", "", err
	}
	configPath, err = storage.WriteRcloneConfigFile(srcSection, dstSection)
	if err != nil {
		return "", "", "", err
	}
	srcTarget, err = storage.RclonePath(srcSpec, srcRemote, srcPath)
	if err != nil {
		os.Remove(configPath)
		return "", "", "", err
	}
	dstTarget, err = storage.RclonePath(dstSpec, dstRemote, dstPath)
	if err != nil {
		os.Remove(configPath)
		return "", "", "", err
	}
	return configPath, srcTarget, dstTarget, nil
}

func removeRcloneConfig(path string) {
	if path != "" {
		_ = os.Remove(path)
	}
}
