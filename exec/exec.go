package exec

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/shlex"
	"github.com/kcstack/kcstack/types"
)

// ExecCmd represents a command to be executed, either inside a container
// or on the host.
type ExecCmd struct {
	Cmd []string `json:"cmd"` // Cmd is a slice-based representation of a string command.
}

// NewExecCmdFromString creates ExecCmd for a string-based command.
func NewExecCmdFromString(cmd string) (*ExecCmd, error) {
	result := &ExecCmd{}
	if err := result.SetCmd(cmd); err != nil {
		return nil, err
	}
	return result, nil
}

// NewExecCmdFromSlice creates ExecCmd for a command represented as a slice of strings.
func NewExecCmdFromSlice(cmd []string) *ExecCmd {
	return &ExecCmd{
		Cmd: cmd,
	}
}

// SetCmd sets the command that is to be executed.
func (e *ExecCmd) SetCmd(cmd string) error {
	c, err := shlex.Split(cmd)
	if err != nil {
		return err
	}
	e.Cmd = c
	return nil
}

// GetCmd returns the command that is to be executed.
func (e *ExecCmd) GetCmd() []string {
	return e.Cmd
}

// GetCmdString returns the string representation of the command.
func (e *ExecCmd) GetCmdString() string {
	return strings.Join(e.Cmd, " ")
}

// Stdout type alias for a string is an artificial type
// to allow for custom marshaling of stdout output which can be either
// a valid or non valid JSON.
// For that reason a custom MarshalJSON method is implemented to take care of both.
type Stdout string

// MarshalJSON implements a custom marshaller for a custom Stdout type.
func (s Stdout) MarshalJSON() ([]byte, error) {
	switch {
	case json.Valid([]byte(s)):
		return []byte(s), nil
	default:
		return json.Marshal(string(s))
	}
}

// ExecResult represents a result of a command execution.
type ExecResult struct {
	Cmd        []string `json:"cmd"`
	ReturnCode int      `json:"return-code"`
	Stdout     Stdout   `json:"stdout"`
	Stderr     string   `json:"stderr"`
}

// NewExecResult initializes a result for the given command.
func NewExecResult(op *ExecCmd) *ExecResult {
	return &ExecResult{Cmd: op.GetCmd()}
}

// GetCmdString returns the string representation of the command.
func (e *ExecResult) GetCmdString() string {
	return strings.Join(e.Cmd, " ")
}

func (e *ExecResult) String() string {
	var s strings.Builder

	s.WriteString(fmt.Sprintf("Cmd: %s\nReturnCode: %d", e.GetCmdString(), e.ReturnCode))

	if e.Stdout != "" {
		s.WriteString(fmt.Sprintf("\nStdout: %q", e.Stdout))
	}
	if e.Stderr != "" {
		s.WriteString(fmt.Sprintf("\nStderr: %q", e.Stderr))
	}

	return s.String()
}

// Dump dumps execution result as a string in one of the provided formats.
func (e *ExecResult) Dump(format string) (string, error) {
	switch format {
	case types.FormatJSON:
		byteData, err := json.MarshalIndent(e, "", "  ")
		if err != nil {
			return "", err
		}
		return string(byteData), nil
	default:
		return e.String(), nil
	}
}
