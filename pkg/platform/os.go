// SPDX-License-Identifier: MPL-2.0

package platform

// OS name constants for runtime.GOOS comparisons.
// Centralizes the string literals to avoid scattered magic strings.
const (
	// Windows is the GOOS value for Windows.
	Windows = "windows"
	// Darwin is the GOOS value for macOS.
	Darwin = "darwin"
	// Linux is the GOOS value for Linux.
	Linux = "linux"
	// EnvVarExecID is the env var injected with the owning execution id.
	EnvVarExecID = "DOPPIO_EXEC_ID"
	// EnvVarStepID is the env var injected with the running step id.
	EnvVarStepID = "DOPPIO_STEP_ID"
	// EnvVarHostID is the env var injected with the resolved target host id.
	EnvVarHostID = "DOPPIO_HOST_ID"
)
