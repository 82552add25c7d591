// Copyright 2024 kcstack authors
// Licensed under the BSD 3-Clause License.
// SPDX-License-Identifier: BSD-3-Clause

package docker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	dockerTypes "github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	dockerC "github.com/docker/docker/client"
	"github.com/docker/docker/pkg/archive"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/google/shlex"
	log "github.com/sirupsen/logrus"
	"golang.org/x/term"

	kcexec "github.com/kcstack/kcstack/exec"
	"github.com/kcstack/kcstack/runtime"
	"github.com/kcstack/kcstack/types"
	"github.com/kcstack/kcstack/utils"
)

const (
	runtimeName    = "docker"
	defaultTimeout = 30 * time.Second
)

func init() {
	runtime.Register(runtimeName, func() runtime.ContainerRuntime {
		return &DockerRuntime{}
	})
}

// DockerRuntime runs keycloak containers via the docker API.
type DockerRuntime struct {
	config runtime.RuntimeConfig
	Client *dockerC.Client
}

func (c *DockerRuntime) Init(opts ...runtime.RuntimeOption) error {
	var err error
	log.Debug("Runtime: Docker")
	c.Client, err = dockerC.NewClientWithOpts(dockerC.FromEnv, dockerC.WithAPIVersionNegotiation())
	if err != nil {
		return err
	}
	for _, o := range opts {
		o(c)
	}
	return nil
}

func (*DockerRuntime) GetName() string                 { return runtimeName }
func (c *DockerRuntime) Config() runtime.RuntimeConfig { return c.config }

func (c *DockerRuntime) WithConfig(cfg *runtime.RuntimeConfig) {
	c.config.Timeout = cfg.Timeout
	c.config.Debug = cfg.Debug
	c.config.GracefulShutdown = cfg.GracefulShutdown
	if c.config.Timeout <= 0 {
		c.config.Timeout = defaultTimeout
	}
}

// PullImageIfRequired pulls the image unless a local copy exists.
func (c *DockerRuntime) PullImageIfRequired(ctx context.Context, imageName, platform string) error {
	filter := filters.NewArgs()
	filter.Add("reference", imageName)

	ilo := dockerTypes.ImageListOptions{
		All:     false,
		Filters: filter,
	}

	log.Debugf("Looking up %s Docker image", imageName)

	images, err := c.Client.ImageList(ctx, ilo)
	if err != nil {
		return err
	}

	// If Image doesn't exist, we need to pull it
	if len(images) > 0 {
		log.Debugf("Image %s present, skip pulling", imageName)
		return nil
	}

	log.Infof("Pulling %s Docker image", imageName)
	reader, err := c.Client.ImagePull(ctx, imageName, dockerTypes.ImagePullOptions{
		Platform: platform,
	})
	if err != nil {
		return err
	}
	defer reader.Close()
	// must read from reader, otherwise image is not properly pulled
	_, _ = io.Copy(io.Discard, reader)
	log.Infof("Done pulling %s", imageName)

	return nil
}

// BuildImage builds an image from opts.ContextDir using the dockerfile
// referenced by opts.Dockerfile.
func (c *DockerRuntime) BuildImage(ctx context.Context, opts runtime.BuildOptions) error {
	buildCtx, err := archive.TarWithOptions(opts.ContextDir, &archive.TarOptions{})
	if err != nil {
		return fmt.Errorf("failed to create build context from %s: %w", opts.ContextDir, err)
	}
	defer buildCtx.Close()

	buildArgs := make(map[string]*string, len(opts.BuildArgs))
	for k := range opts.BuildArgs {
		v := opts.BuildArgs[k]
		buildArgs[k] = &v
	}

	log.Infof("Building image %s from %s", opts.Tag, opts.Dockerfile)

	resp, err := c.Client.ImageBuild(ctx, buildCtx, dockerTypes.ImageBuildOptions{
		Tags:       []string{opts.Tag},
		Dockerfile: opts.Dockerfile,
		BuildArgs:  buildArgs,
		Platform:   opts.Platform,
		Remove:     true,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// stream build output; build errors arrive in-stream
	fd := int(os.Stdout.Fd())
	err = jsonmessage.DisplayJSONMessagesStream(resp.Body, os.Stdout, uintptr(fd), term.IsTerminal(fd), nil)
	if err != nil {
		return fmt.Errorf("image build failed: %w", err)
	}

	log.Infof("Built image %s", opts.Tag)

	return nil
}

// ImageHistory returns the layer history of an image.
func (c *DockerRuntime) ImageHistory(ctx context.Context, imageName string) ([]runtime.ImageLayer, error) {
	nctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	history, err := c.Client.ImageHistory(nctx, imageName)
	if err != nil {
		return nil, err
	}

	layers := make([]runtime.ImageLayer, 0, len(history))
	for _, h := range history {
		layers = append(layers, runtime.ImageLayer{
			CreatedBy: h.CreatedBy,
			Created:   h.Created,
			Size:      h.Size,
			Comment:   h.Comment,
		})
	}
	return layers, nil
}

// ImageInspect returns the summary details of an image.
func (c *DockerRuntime) ImageInspect(ctx context.Context, imageName string) (*runtime.ImageDetails, error) {
	nctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	insp, _, err := c.Client.ImageInspectWithRaw(nctx, imageName)
	if err != nil {
		return nil, err
	}

	return &runtime.ImageDetails{
		ID:           insp.ID,
		RepoTags:     insp.RepoTags,
		Created:      insp.Created,
		Architecture: insp.Architecture,
		OS:           insp.Os,
		Size:         insp.Size,
	}, nil
}

// CreateContainer creates a docker container, but does not start it.
func (c *DockerRuntime) CreateContainer(ctx context.Context, cfg *types.ContainerConfig) (string, error) {
	log.Infof("Creating container: %s", cfg.Name)

	nctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	cmd, err := shlex.Split(cfg.Cmd)
	if err != nil {
		return "", err
	}

	containerConfig := &container.Config{
		Image:        cfg.Image,
		Cmd:          cmd,
		Env:          utils.ConvertEnvs(cfg.Env),
		AttachStdout: true,
		AttachStderr: true,
		Hostname:     cfg.Name,
		User:         cfg.User,
		Labels:       cfg.Labels,
		ExposedPorts: cfg.PortSet,
	}
	containerHostConfig := &container.HostConfig{
		Binds:        cfg.Binds,
		PortBindings: cfg.PortBindings,
	}

	cont, err := c.Client.ContainerCreate(
		nctx,
		containerConfig,
		containerHostConfig,
		nil,
		nil,
		cfg.Name,
	)
	if err != nil {
		return "", err
	}
	log.Debugf("Container %q create response: %v", cfg.Name, cont)

	return cont.ID, nil
}

// StartContainer starts a docker container.
func (c *DockerRuntime) StartContainer(ctx context.Context, id string) error {
	nctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()
	return c.Client.ContainerStart(nctx, id, dockerTypes.ContainerStartOptions{})
}

// StopContainer stops a running container.
func (c *DockerRuntime) StopContainer(ctx context.Context, name string) error {
	timeout := int(c.config.Timeout.Seconds())
	return c.Client.ContainerStop(ctx, name, container.StopOptions{Timeout: &timeout})
}

// ListContainers lists containers matching the provided filters.
func (c *DockerRuntime) ListContainers(ctx context.Context, gfilters []*types.GenericFilter) ([]types.GenericContainer, error) {
	nctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	filter := buildFilterString(gfilters)
	ctrs, err := c.Client.ContainerList(nctx, dockerTypes.ContainerListOptions{
		All:     true,
		Filters: filter,
	})
	if err != nil {
		return nil, err
	}

	return produceGenericContainerList(ctrs), nil
}

func buildFilterString(gfilters []*types.GenericFilter) filters.Args {
	filter := filters.NewArgs()
	for _, filterEntry := range gfilters {
		filterStr := filterEntry.Field
		if filterEntry.Operator != "exists" {
			filterStr = filterStr + filterEntry.Operator + filterEntry.Match
		}
		log.Debugf("filter string: %s", filterStr)
		filter.Add(filterEntry.FilterType, filterStr)
	}
	return filter
}

// Transform docker-specific to generic container format.
func produceGenericContainerList(inputContainers []dockerTypes.Container) []types.GenericContainer {
	var result []types.GenericContainer

	for _, i := range inputContainers {
		shortID := i.ID
		if len(shortID) > 12 {
			shortID = shortID[:12]
		}
		ctr := types.GenericContainer{
			Names:   i.Names,
			ID:      i.ID,
			ShortID: shortID,
			Image:   i.Image,
			State:   i.State,
			Status:  i.Status,
			Labels:  i.Labels,
		}
		for _, p := range i.Ports {
			if p.PublicPort == 0 {
				continue
			}
			ctr.Ports = append(ctr.Ports,
				fmt.Sprintf("%s:%d->%d/%s", p.IP, p.PublicPort, p.PrivatePort, p.Type))
		}
		result = append(result, ctr)
	}

	return result
}

// GetContainerStatus retrieves the status of the named container.
func (c *DockerRuntime) GetContainerStatus(ctx context.Context, name string) runtime.ContainerStatus {
	inspect, err := c.Client.ContainerInspect(ctx, name)
	if err != nil {
		return runtime.NotFound
	}
	if inspect.State.Running {
		return runtime.Running
	}
	return runtime.Stopped
}

// DeleteVolume removes a named volume.
func (c *DockerRuntime) DeleteVolume(ctx context.Context, name string) error {
	nctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()
	return c.Client.VolumeRemove(nctx, name, false)
}

// Exec executes a command inside a container and returns the captured
// output along with the command's return code.
func (c *DockerRuntime) Exec(ctx context.Context, name string, execCmd *kcexec.ExecCmd) (*kcexec.ExecResult, error) {
	cont, err := c.Client.ContainerInspect(ctx, name)
	if err != nil {
		return nil, err
	}

	execID, err := c.Client.ContainerExecCreate(ctx, name, dockerTypes.ExecConfig{
		AttachStderr: true,
		AttachStdout: true,
		Cmd:          execCmd.GetCmd(),
	})
	if err != nil {
		log.Errorf("failed to create exec in container %s: %v", cont.Name, err)
		return nil, err
	}
	log.Debugf("%s exec created %s", cont.Name, execID.ID)

	rsp, err := c.Client.ContainerExecAttach(ctx, execID.ID, dockerTypes.ExecStartCheck{})
	if err != nil {
		log.Errorf("failed exec in container %s: %v", cont.Name, err)
		return nil, err
	}
	defer rsp.Close()

	var outBuf, errBuf bytes.Buffer
	outputDone := make(chan error)

	go func() {
		_, err := stdcopy.StdCopy(&outBuf, &errBuf, rsp.Reader)
		outputDone <- err
	}()

	select {
	case err := <-outputDone:
		if err != nil {
			return nil, err
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	inspect, err := c.Client.ContainerExecInspect(ctx, execID.ID)
	if err != nil {
		return nil, err
	}

	res := kcexec.NewExecResult(execCmd)
	res.ReturnCode = inspect.ExitCode
	res.Stdout = kcexec.Stdout(outBuf.String())
	res.Stderr = errBuf.String()

	return res, nil
}

// DeleteContainer tries to stop a container then remove it.
func (c *DockerRuntime) DeleteContainer(ctx context.Context, name string) error {
	var err error
	force := !c.config.GracefulShutdown
	if c.config.GracefulShutdown {
		log.Infof("Stopping container: %s", name)
		err = c.StopContainer(ctx, name)
		if err != nil {
			log.Errorf("could not stop container %q: %v", name, err)
			force = true
		}
	}
	log.Debugf("Removing container: %s", strings.TrimLeft(name, "/"))
	err = c.Client.ContainerRemove(ctx, name, dockerTypes.ContainerRemoveOptions{
		Force:         force,
		RemoveVolumes: true,
	})
	if err != nil {
		return err
	}
	log.Infof("Removed container: %s", strings.TrimLeft(name, "/"))
	return nil
}
