//go:build linux && podman
// +build linux,podman

package podman

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"

	netTypes "github.com/containers/common/libnetwork/types"
	"github.com/containers/podman/v4/pkg/api/handlers"
	"github.com/containers/podman/v4/pkg/bindings/containers"
	"github.com/docker/go-connections/nat"
	specs "github.com/opencontainers/runtime-spec/specs-go"
	log "github.com/sirupsen/logrus"

	kcexec "github.com/kcstack/kcstack/exec"
	"github.com/kcstack/kcstack/types"
)

var errInvalidBind = errors.New("invalid bind mount provided")

type podmanWriterCloser struct {
	bytes.Buffer
}

func (*podmanWriterCloser) Close() error {
	return nil
}

// bindsToMounts converts "source:destination[:options]" bind strings
// into OCI mounts.
func bindsToMounts(binds []string) ([]specs.Mount, error) {
	mounts := make([]specs.Mount, 0, len(binds))
	for _, b := range binds {
		parts := strings.Split(b, ":")
		if len(parts) < 2 || len(parts) > 3 {
			return nil, errInvalidBind
		}
		m := specs.Mount{
			Source:      parts[0],
			Destination: parts[1],
			Type:        "bind",
		}
		if len(parts) == 3 {
			m.Options = strings.Split(parts[2], ",")
		}
		mounts = append(mounts, m)
	}
	return mounts, nil
}

// portMappings converts nat port bindings into podman port mappings.
func portMappings(cfg *types.ContainerConfig) []netTypes.PortMapping {
	var toReturn []netTypes.PortMapping

	for port, bindings := range cfg.PortBindings {
		containerPort := uint16(port.Int())
		proto := port.Proto()
		for _, b := range bindings {
			hostPort, err := nat.ParsePort(b.HostPort)
			if err != nil {
				log.Errorf("failed to parse host port %q for container port %d", b.HostPort, containerPort)
				continue
			}
			toReturn = append(toReturn, netTypes.PortMapping{
				HostIP:        b.HostIP,
				HostPort:      uint16(hostPort),
				ContainerPort: containerPort,
				Protocol:      proto,
			})
		}
	}

	return toReturn
}

// execInContainer runs an exec session and waits for its completion.
func (r *PodmanRuntime) execInContainer(ctx context.Context, name string, execCmd *kcexec.ExecCmd) (*kcexec.ExecResult, error) {
	execConfig := new(handlers.ExecCreateConfig)
	execConfig.AttachStderr = true
	execConfig.AttachStdout = true
	execConfig.Cmd = execCmd.GetCmd()

	execID, err := containers.ExecCreate(ctx, name, execConfig)
	if err != nil {
		log.Errorf("failed to create exec in container %s: %v", name, err)
		return nil, err
	}

	var outBuf, errBuf podmanWriterCloser

	attachOpts := new(containers.ExecStartAndAttachOptions).
		WithOutputStream(io.WriteCloser(&outBuf)).
		WithErrorStream(io.WriteCloser(&errBuf)).
		WithAttachOutput(true).
		WithAttachError(true)

	if err := containers.ExecStartAndAttach(ctx, execID, attachOpts); err != nil {
		return nil, err
	}

	inspect, err := containers.ExecInspect(ctx, execID, &containers.ExecInspectOptions{})
	if err != nil {
		return nil, err
	}

	res := kcexec.NewExecResult(execCmd)
	res.ReturnCode = inspect.ExitCode
	res.Stdout = kcexec.Stdout(outBuf.String())
	res.Stderr = errBuf.String()

	return res, nil
}
