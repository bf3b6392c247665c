// SPDX-License-Identifier: MPL-2.0

// Package marketplace implements the narrow MarketplaceAPI client the engine
// names as an external collaborator (`MarketplaceAPI.{start,stop,destroy}
// (instanceId)`). The marketplace service itself is external; this package
// only owns the concrete HTTP client the VastStart/Stop/Destroy operation
// handlers and HostResolver call through, using
// github.com/hashicorp/go-retryablehttp for the transient-failure retry policy (300ms ×
// 2^n capped at 3s, 5 attempts).
package marketplace
