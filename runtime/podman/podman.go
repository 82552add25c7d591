//go:build linux && podman
// +build linux,podman

package podman

import (
	"context"
	"fmt"
	"time"

	"github.com/containers/podman/v4/pkg/bindings"
	"github.com/containers/podman/v4/pkg/bindings/containers"
	"github.com/containers/podman/v4/pkg/bindings/images"
	"github.com/containers/podman/v4/pkg/bindings/volumes"
	"github.com/containers/podman/v4/pkg/specgen"
	"github.com/google/shlex"
	log "github.com/sirupsen/logrus"

	kcexec "github.com/kcstack/kcstack/exec"
	"github.com/kcstack/kcstack/runtime"
	"github.com/kcstack/kcstack/types"
)

const (
	RuntimeName    = "podman"
	defaultTimeout = 120 * time.Second
)

func init() {
	runtime.Register(RuntimeName, func() runtime.ContainerRuntime {
		return &PodmanRuntime{
			config: &runtime.RuntimeConfig{},
		}
	})
}

// PodmanRuntime runs keycloak containers through the podman socket API.
type PodmanRuntime struct {
	config *runtime.RuntimeConfig
}

// Init is used to initialize the runtime struct by calling all options received from the caller.
func (r *PodmanRuntime) Init(opts ...runtime.RuntimeOption) error {
	for _, f := range opts {
		f(r)
	}
	return nil
}

func (*PodmanRuntime) GetName() string                 { return RuntimeName }
func (r *PodmanRuntime) Config() runtime.RuntimeConfig { return *r.config }

func (r *PodmanRuntime) WithConfig(cfg *runtime.RuntimeConfig) {
	log.Debugf("Podman method WithConfig was called with cfg params: %+v", cfg)
	if cfg == nil {
		log.Errorf("Method WithConfig has received a nil pointer")
		return
	}
	r.config = cfg
	if r.config.Timeout <= 0 {
		r.config.Timeout = defaultTimeout
	}
}

func (*PodmanRuntime) connect(ctx context.Context) (context.Context, error) {
	return bindings.NewConnection(ctx, "unix://run/podman/podman.sock")
}

// PullImageIfRequired pulls the image unless a local copy exists.
func (r *PodmanRuntime) PullImageIfRequired(ctx context.Context, imageName, platform string) error {
	ctx, err := r.connect(ctx)
	if err != nil {
		return err
	}

	// check the existence first
	ex, err := images.Exists(ctx, imageName, &images.ExistsOptions{})
	if err != nil {
		return err
	}
	if ex {
		log.Debugf("Image %s present, skip pulling", imageName)
		return nil
	}

	pullOpts := &images.PullOptions{}
	if platform != "" {
		pullOpts.WithOS(platform)
	}
	_, err = images.Pull(ctx, imageName, pullOpts)
	return err
}

// BuildImage is not implemented for podman; image builds go through the
// docker runtime.
func (r *PodmanRuntime) BuildImage(_ context.Context, opts runtime.BuildOptions) error {
	return fmt.Errorf("%w: image build for %q requires the docker runtime", runtime.ErrNotSupported, opts.Tag)
}

// ImageHistory returns the layer history of an image.
func (r *PodmanRuntime) ImageHistory(ctx context.Context, imageName string) ([]runtime.ImageLayer, error) {
	ctx, err := r.connect(ctx)
	if err != nil {
		return nil, err
	}

	history, err := images.History(ctx, imageName, &images.HistoryOptions{})
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
func (r *PodmanRuntime) ImageInspect(ctx context.Context, imageName string) (*runtime.ImageDetails, error) {
	ctx, err := r.connect(ctx)
	if err != nil {
		return nil, err
	}

	insp, err := images.GetImage(ctx, imageName, &images.GetOptions{})
	if err != nil {
		return nil, err
	}

	details := &runtime.ImageDetails{
		ID:           insp.ID,
		RepoTags:     insp.RepoTags,
		Architecture: insp.Architecture,
		OS:           insp.Os,
		Size:         insp.Size,
	}
	if insp.Created != nil {
		details.Created = insp.Created.Format(time.RFC3339)
	}
	return details, nil
}

// CreateContainer creates a container, but does not start it.
func (r *PodmanRuntime) CreateContainer(ctx context.Context, cfg *types.ContainerConfig) (string, error) {
	ctx, err := r.connect(ctx)
	if err != nil {
		return "", err
	}

	sg, err := r.createContainerSpec(cfg)
	if err != nil {
		return "", fmt.Errorf("error while trying to create a container spec for %q: %w", cfg.Name, err)
	}

	res, err := containers.CreateWithSpec(ctx, &sg, &containers.CreateOptions{})
	log.Debugf("Created a container with ID %v, warnings %v and error %v", res.ID, res.Warnings, err)
	return res.ID, err
}

// StartContainer starts a previously created container by ID or name.
func (r *PodmanRuntime) StartContainer(ctx context.Context, id string) error {
	ctx, err := r.connect(ctx)
	if err != nil {
		return err
	}
	err = containers.Start(ctx, id, &containers.StartOptions{})
	if err != nil {
		return fmt.Errorf("error while starting container %q: %w", id, err)
	}
	return nil
}

// StopContainer stops a running container.
func (r *PodmanRuntime) StopContainer(ctx context.Context, name string) error {
	ctx, err := r.connect(ctx)
	if err != nil {
		return err
	}
	return containers.Stop(ctx, name, &containers.StopOptions{})
}

// DeleteContainer stops and removes a container.
func (r *PodmanRuntime) DeleteContainer(ctx context.Context, name string) error {
	ctx, err := r.connect(ctx)
	if err != nil {
		return err
	}
	force := !r.config.GracefulShutdown
	_, err = containers.Remove(ctx, name, new(containers.RemoveOptions).WithForce(force).WithVolumes(true))
	if err != nil {
		return err
	}
	log.Infof("Removed container: %s", name)
	return nil
}

// DeleteVolume removes a named volume.
func (r *PodmanRuntime) DeleteVolume(ctx context.Context, name string) error {
	ctx, err := r.connect(ctx)
	if err != nil {
		return err
	}
	return volumes.Remove(ctx, name, &volumes.RemoveOptions{})
}

// GetContainerStatus retrieves the status of the named container.
func (r *PodmanRuntime) GetContainerStatus(ctx context.Context, name string) runtime.ContainerStatus {
	ctx, err := r.connect(ctx)
	if err != nil {
		return runtime.NotFound
	}
	icd, err := containers.Inspect(ctx, name, nil)
	if err != nil {
		return runtime.NotFound
	}
	if icd.State.Running {
		return runtime.Running
	}
	return runtime.Stopped
}

// ListContainers returns the containers matching the filters.
func (r *PodmanRuntime) ListContainers(ctx context.Context, gfilters []*types.GenericFilter) ([]types.GenericContainer, error) {
	ctx, err := r.connect(ctx)
	if err != nil {
		return nil, err
	}

	listOpts := new(containers.ListOptions).WithAll(true).WithFilters(filterMap(gfilters))
	ctrs, err := containers.List(ctx, listOpts)
	if err != nil {
		return nil, err
	}

	result := make([]types.GenericContainer, 0, len(ctrs))
	for _, i := range ctrs {
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
			if p.HostPort == 0 {
				continue
			}
			ctr.Ports = append(ctr.Ports,
				fmt.Sprintf("%s:%d->%d/%s", p.HostIP, p.HostPort, p.ContainerPort, p.Protocol))
		}
		result = append(result, ctr)
	}
	return result, nil
}

// Exec executes a command inside a container and waits for its output.
func (r *PodmanRuntime) Exec(ctx context.Context, name string, execCmd *kcexec.ExecCmd) (*kcexec.ExecResult, error) {
	ctx, err := r.connect(ctx)
	if err != nil {
		return nil, err
	}
	return r.execInContainer(ctx, name, execCmd)
}

func filterMap(gfilters []*types.GenericFilter) map[string][]string {
	filters := map[string][]string{}
	for _, f := range gfilters {
		filterStr := f.Field
		if f.Operator != "exists" {
			filterStr = filterStr + "=" + f.Match
		}
		filters[f.FilterType] = append(filters[f.FilterType], filterStr)
	}
	return filters
}

func (r *PodmanRuntime) createContainerSpec(cfg *types.ContainerConfig) (specgen.SpecGenerator, error) {
	sg := specgen.SpecGenerator{}

	cmd, err := shlex.Split(cfg.Cmd)
	if err != nil {
		return sg, err
	}

	sg.ContainerBasicConfig = specgen.ContainerBasicConfig{
		Name:     cfg.Name,
		Command:  cmd,
		Env:      cfg.Env,
		Labels:   cfg.Labels,
		Hostname: cfg.Name,
	}
	sg.ContainerStorageConfig = specgen.ContainerStorageConfig{
		Image: cfg.Image,
	}
	if cfg.User != "" {
		sg.ContainerSecurityConfig = specgen.ContainerSecurityConfig{
			User: cfg.User,
		}
	}

	mounts, err := bindsToMounts(cfg.Binds)
	if err != nil {
		return sg, err
	}
	sg.Mounts = mounts

	sg.PortMappings = portMappings(cfg)

	return sg, nil
}
