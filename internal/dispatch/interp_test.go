// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeSecrets map[string]string

func (f fakeSecrets) Get(name string) (string, bool, error) {
	v, ok := f[name]
	return v, ok, nil
}

func TestInterpolate_VarsAndSecrets(t *testing.T) {
	t.Parallel()

	vars := map[string]string{"host": "gpu-1"}
	secrets := fakeSecrets{"token": "tok-abc"}

	out, err := Interpolate("ssh ${host} with ${secret:token}", vars, secrets, Checked)
	require.NoError(t, err)
	require.Equal(t, "ssh gpu-1 with tok-abc", out)
}

func TestInterpolate_Checked_UnresolvedErrors(t *testing.T) {
	t.Parallel()

	_, err := Interpolate("${missing}", nil, nil, Checked)
	require.Error(t, err)
}

func TestInterpolate_BestEffort_LeavesUnresolved(t *testing.T) {
	t.Parallel()

	out, err := Interpolate("${missing}", nil, nil, BestEffort)
	require.NoError(t, err)
	require.Equal(t, "${missing}", out)
}

func TestInterpolateForLog_RedactsSecret(t *testing.T) {
	t.Parallel()

	secrets := fakeSecrets{"token": "tok-abc"}
	out, err := InterpolateForLog("curl -H ${secret:token}", nil, secrets, Checked)
	require.NoError(t, err)
	require.Equal(t, Redacted("curl -H [REDACTED]"), out)
}

func TestInterpolateForLog_MissingSecretChecked(t *testing.T) {
	t.Parallel()

	_, err := InterpolateForLog("${secret:nope}", nil, fakeSecrets{}, Checked)
	require.Error(t, err)
}
