// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"context"

	"doppio-engine/internal/hostresolve"
	"doppio-engine/internal/skill"
)

// handleVastStart starts a rented GPU instance and then waits for SSH to
// become reachable, using the longer post-start deadline.
func (r *Registry) handleVastStart(ctx context.Context, oc *OperationContext, op skill.Operation) (Result, error) {
	vs := op.(skill.VastStart)
	ref, err := oc.interp(vs.InstanceRef)
	if err != nil {
		return Result{}, err
	}
	instanceID, err := oc.Hosts.InstanceID(ref)
	if err != nil {
		return Result{}, err
	}
	if err := oc.Marketplace.Start(ctx, instanceID); err != nil {
		return Result{}, err
	}
	if _, err := oc.Hosts.ResolveWithRetry(ctx, ref, hostresolve.AfterStartDeadline); err != nil {
		return Result{}, err
	}
	return Result{ExitCode: 0}, nil
}

// handleVastStop stops (but does not destroy) a rented GPU instance.
func (r *Registry) handleVastStop(ctx context.Context, oc *OperationContext, op skill.Operation) (Result, error) {
	vs := op.(skill.VastStop)
	ref, err := oc.interp(vs.InstanceRef)
	if err != nil {
		return Result{}, err
	}
	instanceID, err := oc.Hosts.InstanceID(ref)
	if err != nil {
		return Result{}, err
	}
	if err := oc.Marketplace.Stop(ctx, instanceID); err != nil {
		return Result{}, err
	}
	return Result{ExitCode: 0}, nil
}

// handleVastDestroy permanently terminates a rented GPU instance.
func (r *Registry) handleVastDestroy(ctx context.Context, oc *OperationContext, op skill.Operation) (Result, error) {
	vd := op.(skill.VastDestroy)
	ref, err := oc.interp(vd.InstanceRef)
	if err != nil {
		return Result{}, err
	}
	instanceID, err := oc.Hosts.InstanceID(ref)
	if err != nil {
		return Result{}, err
	}
	if err := oc.Marketplace.Destroy(ctx, instanceID); err != nil {
		return Result{}, err
	}
	return Result{ExitCode: 0}, nil
}
