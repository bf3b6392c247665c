// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"doppio-engine/internal/engineerr"
	"doppio-engine/internal/skill"
)

// gitHostKeyHosts are the well-known git forges whose ed25519/rsa host keys
// GitClone pre-seeds via ssh-keyscan before cloning, so a first-time clone
// never blocks on an interactive host-key prompt.
var gitHostKeyHosts = []string{"github.com", "gitlab.com", "bitbucket.org"}

// handleGitClone clones a repository onto a host: host keys
// for the well-known forges are scanned first, an auth_token is inlined
// into an HTTPS URL if present, and an optional branch is checked out.
func (r *Registry) handleGitClone(ctx context.Context, oc *OperationContext, op skill.Operation) (Result, error) {
	gc := op.(skill.GitClone)

	hostID := oc.effectiveHostID(gc.HostID)
	repoURL, err := oc.interp(gc.RepoURL)
	if err != nil {
		return Result{}, err
	}
	dest, err := oc.interp(gc.Dest)
	if err != nil {
		return Result{}, err
	}
	branch, err := oc.interp(gc.Branch)
	if err != nil {
		return Result{}, err
	}
	token, err := oc.interp(gc.AuthToken)
	if err != nil {
		return Result{}, err
	}

	if token != "" {
		repoURL, err = inlineToken(repoURL, token)
		if err != nil {
			return Result{}, err
		}
	}

	var script strings.Builder
	script.WriteString("mkdir -p ~/.ssh && touch ~/.ssh/known_hosts")
	for _, h := range gitHostKeyHosts {
		fmt.Fprintf(&script, " && (ssh-keyscan -t ed25519,rsa %s >> ~/.ssh/known_hosts 2>/dev/null || true)", shQuote(h))
	}
	fmt.Fprintf(&script, " && git clone")
	if branch != "" {
		fmt.Fprintf(&script, " --branch %s", shQuote(branch))
	}
	fmt.Fprintf(&script, " %s %s", shQuote(repoURL), shQuote(dest))

	exitCode, stdout, err := hostExec(ctx, r.runner, oc.Hosts, hostID, script.String(), "", nil, oc.progress)
	if err != nil {
		return Result{}, err
	}
	if exitCode != 0 {
		return Result{ExitCode: exitCode, Output: stdout}, engineerr.Command("dispatch.GitClone",
			fmt.Errorf("git clone on %q exited %d", hostID, exitCode))
	}
	return Result{ExitCode: exitCode, Output: stdout}, nil
}

// inlineToken rewrites an HTTPS repo URL to carry token as the userinfo
// component (https://<token>@host/...).
func inlineToken(repoURL, token string) (string, error) {
	if !strings.HasPrefix(repoURL, "https://") {
		return repoURL, nil
	}
	u, err := url.Parse(repoURL)
	if err != nil {
		return "", engineerr.InvalidInput("dispatch.GitClone", fmt.Errorf("parsing repo url %q: %w", repoURL, err))
	}
	u.User = url.User(token)
	return u.String(), nil
}
