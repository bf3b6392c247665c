// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"context"
	"fmt"
	"strings"

	"doppio-engine/internal/engineerr"
	"doppio-engine/internal/skill"
)

// handleHuggingFaceDownload composes a huggingface-cli invocation on a host
// honoring repo type, optional revision/includes, and an HF_TOKEN
// prefix when a token is set.
func (r *Registry) handleHuggingFaceDownload(ctx context.Context, oc *OperationContext, op skill.Operation) (Result, error) {
	hf := op.(skill.HuggingFaceDownload)

	hostID := oc.effectiveHostID(hf.HostID)
	repoID, err := oc.interp(hf.RepoID)
	if err != nil {
		return Result{}, err
	}
	repoType, err := oc.interp(hf.RepoType)
	if err != nil {
		return Result{}, err
	}
	if repoType == "" {
		repoType = "model"
	}
	revision, err := oc.interp(hf.Revision)
	if err != nil {
		return Result{}, err
	}
	dest, err := oc.interp(hf.Dest)
	if err != nil {
		return Result{}, err
	}
	token, err := oc.interp(hf.HFToken)
	if err != nil {
		return Result{}, err
	}
	includes := make([]string, len(hf.Include))
	for i, inc := range hf.Include {
		expanded, err := oc.interp(inc)
		if err != nil {
			return Result{}, err
		}
		includes[i] = expanded
	}

	var script strings.Builder
	if token != "" {
		fmt.Fprintf(&script, "HF_TOKEN=%s ", shQuote(token))
	}
	fmt.Fprintf(&script, "huggingface-cli download %s --repo-type %s", shQuote(repoID), shQuote(repoType))
	if revision != "" {
		fmt.Fprintf(&script, " --revision %s", shQuote(revision))
	}
	for _, inc := range includes {
		fmt.Fprintf(&script, " --include %s", shQuote(inc))
	}
	if dest != "" {
		fmt.Fprintf(&script, " --local-dir %s", shQuote(dest))
	}

	exitCode, stdout, err := hostExec(ctx, r.runner, oc.Hosts, hostID, script.String(), "", nil, oc.progress)
	if err != nil {
		return Result{}, err
	}
	if exitCode != 0 {
		return Result{ExitCode: exitCode, Output: stdout}, engineerr.Command("dispatch.HuggingFaceDownload",
			fmt.Errorf("huggingface-cli download on %q exited %d", hostID, exitCode))
	}
	return Result{ExitCode: exitCode, Output: stdout}, nil
}
