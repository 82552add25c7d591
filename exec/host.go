package exec

import (
	"bytes"
	"context"
	"fmt"
	osexec "os/exec"

	log "github.com/sirupsen/logrus"
)

// RunHostCmd executes a command on the host and captures its output.
// A non-zero exit code is not treated as an error; it is reported
// in the returned result instead, so callers decide what failure means.
func RunHostCmd(ctx context.Context, execCmd *ExecCmd) (*ExecResult, error) {
	cmd := execCmd.GetCmd()
	if len(cmd) == 0 {
		return nil, fmt.Errorf("empty command")
	}

	log.Debugf("executing host command: %q", execCmd.GetCmdString())

	var outBuf, errBuf bytes.Buffer

	c := osexec.CommandContext(ctx, cmd[0], cmd[1:]...)
	c.Stdout = &outBuf
	c.Stderr = &errBuf

	res := NewExecResult(execCmd)

	err := c.Run()
	if err != nil {
		exitErr, ok := err.(*osexec.ExitError)
		if !ok {
			return nil, fmt.Errorf("failed to run %q: %w", execCmd.GetCmdString(), err)
		}
		res.ReturnCode = exitErr.ExitCode()
	}

	res.Stdout = Stdout(outBuf.String())
	res.Stderr = errBuf.String()

	return res, nil
}

// LookPath reports whether the named binary is on the search path.
func LookPath(binary string) bool {
	_, err := osexec.LookPath(binary)
	return err == nil
}
