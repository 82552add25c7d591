package exec

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kcstack/kcstack/types"
)

func TestNewExecCmdFromString(t *testing.T) {
	tests := []struct {
		name    string
		cmd     string
		want    []string
		wantErr bool
	}{
		{
			name: "simple command",
			cmd:  "systemctl daemon-reload",
			want: []string{"systemctl", "daemon-reload"},
		},
		{
			name: "quoted argument",
			cmd:  `sh -c "echo hello"`,
			want: []string{"sh", "-c", "echo hello"},
		},
		{
			name:    "unbalanced quote",
			cmd:     `echo "unterminated`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewExecCmdFromString(tt.cmd)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewExecCmdFromString() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if d := cmp.Diff(tt.want, got.GetCmd()); d != "" {
				t.Errorf("GetCmd() mismatch (-want +got):\n%s", d)
			}
		})
	}
}

func TestStdoutMarshalJSON(t *testing.T) {
	tests := []struct {
		name   string
		stdout Stdout
		want   string
	}{
		{
			name:   "valid json passed through",
			stdout: Stdout(`{"a":1}`),
			want:   `{"a":1}`,
		},
		{
			name:   "plain text quoted",
			stdout: Stdout("hello"),
			want:   `"hello"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.stdout)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Marshal() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestExecResultDump(t *testing.T) {
	cmd := NewExecCmdFromSlice([]string{"echo", "hi"})
	res := NewExecResult(cmd)
	res.ReturnCode = 0
	res.Stdout = Stdout("hi\n")

	jsonOut, err := res.Dump(types.FormatJSON)
	if err != nil {
		t.Fatalf("Dump(json) error = %v", err)
	}

	var decoded ExecResult
	if err := json.Unmarshal([]byte(jsonOut), &decoded); err != nil {
		t.Fatalf("Dump(json) produced invalid JSON: %v", err)
	}
	if decoded.GetCmdString() != "echo hi" {
		t.Errorf("decoded cmd = %q, want %q", decoded.GetCmdString(), "echo hi")
	}

	plain, err := res.Dump("plain")
	if err != nil {
		t.Fatalf("Dump(plain) error = %v", err)
	}
	if plain == "" {
		t.Errorf("Dump(plain) returned an empty string")
	}
}
