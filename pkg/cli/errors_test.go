package cli

import (
	"errors"
	"testing"
)

func TestConfigErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *ConfigError
		want string
	}{
		{
			name: "with field",
			err:  NewConfigError("trace.sqlite.path", "missing required field"),
			want: "configuration error in trace.sqlite.path: missing required field",
		},
		{
			name: "without field",
			err:  NewConfigError("", "failed to load config"),
			want: "configuration error: failed to load config",
		},
		{
			name: "with hint",
			err: &ConfigError{
				Field:   "conversion.input_path",
				Message: "nothing to convert",
				Hint:    "pass --input or set input_path in the config file",
			},
			want: "configuration error in conversion.input_path: nothing to convert (pass --input or set input_path in the config file)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCommandErrorMessage(t *testing.T) {
	err := NewCommandError("validate", errors.New("no rule sets defined"))

	want := "validate: no rule sets defined"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestCommandErrorUnwrap(t *testing.T) {
	underlying := errors.New("underlying error")
	err := NewCommandError("convert", underlying)

	if !errors.Is(err, underlying) {
		t.Error("errors.Is() should see through CommandError")
	}

	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatal("errors.As() should find CommandError")
	}
	if cmdErr.Command != "convert" {
		t.Errorf("Command = %q, want convert", cmdErr.Command)
	}
}
