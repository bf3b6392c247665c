// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"context"
	"fmt"
	"strings"

	"doppio-engine/internal/engineerr"
	"doppio-engine/internal/skill"
	"doppio-engine/internal/storage"
)

const gdriveRemoteName = "gdrive"

// installRcloneScript is prepended to a GdriveMount invocation so a target
// that lacks rclone gets it without the step failing outright: the official
// install script is preferred, falling back to a user-local install under
// ~/bin when the target has no root.
const installRcloneScript = `
if ! command -v rclone >/dev/null 2>&1; then
  (curl -fsSL https://rclone.org/install.sh | sudo -n bash) 2>/dev/null || {
    mkdir -p "$HOME/bin" && \
    curl -fsSL https://downloads.rclone.org/rclone-current-linux-amd64.zip -o /tmp/rclone.zip && \
    cd /tmp && unzip -o rclone.zip && cp rclone-*-linux-amd64/rclone "$HOME/bin/rclone" && chmod +x "$HOME/bin/rclone" && \
    export PATH="$HOME/bin:$PATH"
  }
fi
`

// installFuseScript installs fuse3 (or symlinks an existing fusermount to
// the fusermount3 name rclone's FUSE backend expects) when neither is
// already present.
const installFuseScript = `
if ! command -v fusermount3 >/dev/null 2>&1; then
  if command -v fusermount >/dev/null 2>&1; then
    sudo -n ln -sf "$(command -v fusermount)" /usr/local/bin/fusermount3 2>/dev/null || true
  elif command -v apt-get >/dev/null 2>&1; then
    sudo -n apt-get update -qq && sudo -n apt-get install -y -qq fuse3 || true
  elif command -v dnf >/dev/null 2>&1; then
    sudo -n dnf install -y -q fuse3 || true
  elif command -v yum >/dev/null 2>&1; then
    sudo -n yum install -y -q fuse3 || true
  fi
fi
`

// handleGdriveMount installs rclone/fuse3 if missing, writes a per-session
// rclone config naming a "gdrive" remote, and mounts it with
// --vfs-cache-mode writes by default, a 64 MiB buffer, and 4 transfers
// Verification runs mountpoint -q and a timeout-guarded ls;
// on failure the rclone log's tail is folded into the returned error.
func (r *Registry) handleGdriveMount(ctx context.Context, oc *OperationContext, op skill.Operation) (Result, error) {
	gm := op.(skill.GdriveMount)

	hostID := oc.effectiveHostID(gm.HostID)
	storageID, err := oc.interp(gm.StorageID)
	if err != nil {
		return Result{}, err
	}
	mountPoint, err := oc.interp(gm.MountPoint)
	if err != nil {
		return Result{}, err
	}
	cacheMode, err := oc.interp(gm.CacheMode)
	if err != nil {
		return Result{}, err
	}
	if cacheMode == "" {
		cacheMode = "writes"
	}

	spec, err := oc.Storages.Get(storageID)
	if err != nil {
		return Result{}, err
	}
	drive, ok := spec.(storage.GoogleDrive)
	if !ok {
		return Result{}, engineerr.InvalidInput("dispatch.GdriveMount",
			fmt.Errorf("storage %q is a %q spec, not google_drive", storageID, spec.Kind()))
	}
	configBody, err := storage.RcloneConfig(drive, gdriveRemoteName)
	if err != nil {
		return Result{}, err
	}

	configPath := fmt.Sprintf("$HOME/.config/doppio/rclone-%s.conf", sanitizeMountID(mountPoint))
	logPath := fmt.Sprintf("/tmp/doppio-rclone-%s.log", sanitizeMountID(mountPoint))
	target, err := storage.RclonePath(drive, gdriveRemoteName, "")
	if err != nil {
		return Result{}, err
	}

	var script strings.Builder
	script.WriteString(installRcloneScript)
	script.WriteString(installFuseScript)
	fmt.Fprintf(&script, "mkdir -p $(dirname %s) && cat > %s <<'DOPPIO_RCLONE_CONF'\n%s\nDOPPIO_RCLONE_CONF\n", configPath, configPath, configBody)
	fmt.Fprintf(&script, "mkdir -p %s\n", shQuote(mountPoint))
	fmt.Fprintf(&script,
		"rclone mount %s %s --config %s --log-file %s --vfs-cache-mode %s --buffer-size 64M --transfers 4 --daemon\n",
		shQuote(target), shQuote(mountPoint), configPath, logPath, shQuote(cacheMode))
	fmt.Fprintf(&script, "sleep 2\n")
	fmt.Fprintf(&script, "mountpoint -q %s && timeout 5 ls %s >/dev/null 2>&1 && echo DOPPIO_MOUNT_OK || (tail -n 40 %s; echo DOPPIO_MOUNT_FAIL)\n",
		shQuote(mountPoint), shQuote(mountPoint), logPath)

	exitCode, stdout, err := hostExec(ctx, r.runner, oc.Hosts, hostID, script.String(), "", nil, oc.progress)
	if err != nil {
		return Result{}, err
	}
	if exitCode != 0 || strings.Contains(stdout, "DOPPIO_MOUNT_FAIL") {
		return Result{ExitCode: exitCode, Output: stdout}, engineerr.Command("dispatch.GdriveMount",
			fmt.Errorf("mount of %q at %q on %q failed:\n%s", storageID, mountPoint, hostID, stdout))
	}
	return Result{ExitCode: exitCode, Output: stdout}, nil
}

// handleGdriveUnmount unmounts a previously mounted path via fusermount3
// -u, falling back to a lazy umount.
func (r *Registry) handleGdriveUnmount(ctx context.Context, oc *OperationContext, op skill.Operation) (Result, error) {
	gu := op.(skill.GdriveUnmount)
	hostID := oc.effectiveHostID(gu.HostID)
	mountPoint, err := oc.interp(gu.MountPoint)
	if err != nil {
		return Result{}, err
	}

	script := fmt.Sprintf("fusermount3 -u %s 2>/dev/null || fusermount -u %s 2>/dev/null || umount -l %s",
		shQuote(mountPoint), shQuote(mountPoint), shQuote(mountPoint))
	exitCode, stdout, err := hostExec(ctx, r.runner, oc.Hosts, hostID, script, "", nil, oc.progress)
	if err != nil {
		return Result{}, err
	}
	if exitCode != 0 {
		return Result{ExitCode: exitCode, Output: stdout}, engineerr.Command("dispatch.GdriveUnmount",
			fmt.Errorf("unmount of %q on %q exited %d", mountPoint, hostID, exitCode))
	}
	return Result{ExitCode: exitCode, Output: stdout}, nil
}

// sanitizeMountID renders mountPoint safe for use as a config/log file
// name stem.
func sanitizeMountID(mountPoint string) string {
	replacer := strings.NewReplacer("/", "_", " ", "_")
	s := strings.Trim(replacer.Replace(mountPoint), "_")
	if s == "" {
		return "root"
	}
	return s
}
