// SPDX-License-Identifier: MPL-2.0

package execx

import "testing"

func TestCommandString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cmd  Command
		want string
	}{
		{
			name: "plain words stay unquoted",
			cmd:  New("apt-get", "install", "-y", "docker.io"),
			want: "apt-get install -y docker.io",
		},
		{
			name: "spaces are quoted",
			cmd:  New("sh", "-c", "curl -fsSL https://get.docker.com | sh"),
			want: "sh -c 'curl -fsSL https://get.docker.com | sh'",
		},
		{
			name: "env assignments come first",
			cmd:  New("apt-get", "update").WithEnv("DEBIAN_FRONTEND=noninteractive"),
			want: "DEBIAN_FRONTEND=noninteractive apt-get update",
		},
		{
			name: "empty argument",
			cmd:  New("printf", ""),
			want: "printf ''",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.cmd.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCommandBuildersDoNotAlias(t *testing.T) {
	t.Parallel()

	base := New("pip", "install").WithEnv("A=1")
	withB := base.WithEnv("B=2")
	withC := base.WithEnv("C=3")

	if len(base.Env) != 1 {
		t.Fatalf("base env mutated: %v", base.Env)
	}
	if withB.Env[1] != "B=2" || withC.Env[1] != "C=3" {
		t.Errorf("derived commands share backing array: %v / %v", withB.Env, withC.Env)
	}
	if base.Mutating || !base.Mutate().Mutating {
		t.Error("Mutate() must return a marked copy and leave the receiver untouched")
	}
	if base.Stream || !base.Streamed().Stream {
		t.Error("Streamed() must return a marked copy and leave the receiver untouched")
	}
}

func TestQuote(t *testing.T) {
	t.Parallel()

	if got := Quote(`$HOME/.local/bin`); got == `$HOME/.local/bin` {
		t.Errorf("Quote() left an expansion unquoted: %q", got)
	}
	if got := Quote("python3"); got != "python3" {
		t.Errorf("Quote(python3) = %q", got)
	}
}
