// Copyright 2024 kcstack authors
// Licensed under the BSD 3-Clause License.
// SPDX-License-Identifier: BSD-3-Clause

package runtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	kcexec "github.com/kcstack/kcstack/exec"
	"github.com/kcstack/kcstack/types"
)

// ErrNotSupported is returned by runtimes for operations
// they cannot perform.
var ErrNotSupported = errors.New("operation not supported by this runtime")

const (
	DockerRuntime = "docker"
	PodmanRuntime = "podman"

	DefaultTimeout = 120 * time.Second
)

// ContainerRuntime is the interface to a container runtime kcstack can
// drive keycloak containers with.
type ContainerRuntime interface {
	// Init initializes the runtime and applies the options.
	Init(opts ...RuntimeOption) error
	// GetName returns the name of the runtime.
	GetName() string
	// Config returns the runtime configuration options.
	Config() RuntimeConfig
	// WithConfig sets the runtime configuration.
	WithConfig(cfg *RuntimeConfig)

	// PullImageIfRequired pulls the image unless it is already present.
	PullImageIfRequired(ctx context.Context, imageName, platform string) error
	// BuildImage builds a container image from a local build context.
	BuildImage(ctx context.Context, opts BuildOptions) error
	// ImageHistory returns the layer history of an image.
	ImageHistory(ctx context.Context, imageName string) ([]ImageLayer, error)
	// ImageInspect returns the summary details of an image.
	ImageInspect(ctx context.Context, imageName string) (*ImageDetails, error)

	// CreateContainer creates a container, but does not start it.
	CreateContainer(ctx context.Context, cfg *types.ContainerConfig) (string, error)
	// StartContainer starts a previously created container.
	StartContainer(ctx context.Context, id string) error
	// StopContainer stops a running container.
	StopContainer(ctx context.Context, name string) error
	// DeleteContainer stops and removes a container.
	DeleteContainer(ctx context.Context, name string) error
	// ListContainers returns the containers matching the filters.
	ListContainers(ctx context.Context, filters []*types.GenericFilter) ([]types.GenericContainer, error)
	// DeleteVolume removes a named volume.
	DeleteVolume(ctx context.Context, name string) error
	// GetContainerStatus retrieves the status of the named container.
	GetContainerStatus(ctx context.Context, name string) ContainerStatus
	// Exec executes a command inside a container and waits for its output.
	Exec(ctx context.Context, name string, execCmd *kcexec.ExecCmd) (*kcexec.ExecResult, error)
}

// ContainerStatus represents the running state of a container.
type ContainerStatus string

const (
	NotFound ContainerStatus = "not found"
	Running  ContainerStatus = "running"
	Stopped  ContainerStatus = "stopped"
)

// BuildOptions carries the parameters of an image build.
type BuildOptions struct {
	ContextDir string
	Dockerfile string // relative to ContextDir
	Tag        string
	BuildArgs  map[string]string
	Platform   string
}

// ImageLayer is a single entry of an image's layer history.
type ImageLayer struct {
	CreatedBy string
	Created   int64
	Size      int64
	Comment   string
}

// ImageDetails is a summary of an image.
type ImageDetails struct {
	ID           string
	RepoTags     []string
	Created      string
	Architecture string
	OS           string
	Size         int64
}

// RuntimeConfig holds the common runtime configuration options.
type RuntimeConfig struct {
	Timeout          time.Duration
	Debug            bool
	GracefulShutdown bool
}

// RuntimeOption is a functional option applied to a runtime on Init.
type RuntimeOption func(ContainerRuntime)

// WithConfig sets the runtime configuration.
func WithConfig(cfg *RuntimeConfig) RuntimeOption {
	return func(r ContainerRuntime) {
		r.WithConfig(cfg)
	}
}

// Initializer is a function that creates an uninitialized runtime.
type Initializer func() ContainerRuntime

// ContainerRuntimes is the registry of available runtimes.
var ContainerRuntimes = map[string]Initializer{}

// Register registers a runtime initializer under a name.
func Register(name string, initFn Initializer) {
	ContainerRuntimes[name] = initFn
}

// GetRuntime returns an uninitialized runtime by name. An empty name
// selects docker.
func GetRuntime(name string) (ContainerRuntime, error) {
	if name == "" {
		name = DockerRuntime
	}
	rInit, ok := ContainerRuntimes[name]
	if !ok {
		return nil, fmt.Errorf("unknown container runtime %q", name)
	}
	return rInit(), nil
}
