package main

import "testing"

func TestEnvFileArg(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{nil, ".env"},
		{[]string{"-debug"}, ".env"},
		{[]string{"-env", "prod.env"}, "prod.env"},
		{[]string{"--env=local.env", "-debug"}, "local.env"},
		{[]string{"-url", "https://youtu.be/x", "-env=a.env"}, "a.env"},
		{[]string{"-env"}, ".env"},
		{[]string{"environment"}, ".env"},
	}

	for _, test := range tests {
		if got := envFileArg(test.args); got != test.want {
			t.Errorf("envFileArg(%v) = %q, expected %q", test.args, got, test.want)
		}
	}
}
