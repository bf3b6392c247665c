// SPDX-License-Identifier: MPL-2.0

package prompt

import "testing"

func TestDetect(t *testing.T) {
	t.Parallel()

	cases := []struct {
		line string
		want Kind
	}{
		{"Password:", KindPassword},
		{"Password for user:", KindPassword},
		{"[sudo] password for alice: ", KindPassword},
		{"Enter passphrase for key '/home/u/.ssh/id_ed25519':", KindPassword},
		{"Continue? [y/N]", KindConfirmation},
		{"Are you sure? (y/n)", KindConfirmation},
		{"Proceed [yes/no]", KindConfirmation},
		{"Installing packages...", KindNone},
		{"", KindNone},
		{"   ", KindNone},
	}
	for _, tt := range cases {
		got := Detect(tt.line)
		if got.Kind != tt.want {
			t.Errorf("Detect(%q).Kind = %v, want %v", tt.line, got.Kind, tt.want)
		}
	}
}

func TestDetect_PreservesOriginalText(t *testing.T) {
	t.Parallel()

	line := "  Password: "
	got := Detect(line)
	if got.Text != line {
		t.Errorf("Detect().Text = %q, want original %q", got.Text, line)
	}
}
