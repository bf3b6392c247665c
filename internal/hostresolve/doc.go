// SPDX-License-Identifier: MPL-2.0

// Package hostresolve resolves a skill's host-id references (a named
// host, the `__local__` sentinel, or a `vast:<n>` marketplace instance
// reference) into a concrete SSH endpoint. ResolveWithRetry polls until
// an instance's SSH endpoint becomes reachable, used after starting or
// restarting a rented GPU instance.
package hostresolve
