package cmd

import (
	"errors"
	"testing"

	kcerrors "github.com/kcstack/kcstack/errors"
)

func TestExecRejectsUnknownFormat(t *testing.T) {
	orig := execOutputFormat
	defer func() { execOutputFormat = orig }()

	execOutputFormat = "yaml"
	err := execInContainers(execCmd, []string{"ls"})
	if !errors.Is(err, kcerrors.ErrIncorrectInput) {
		t.Errorf("execInContainers() error = %v, want ErrIncorrectInput", err)
	}
}
