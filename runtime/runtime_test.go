package runtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRuntime struct {
	ContainerRuntime
	cfg RuntimeConfig
}

func (f *fakeRuntime) Init(opts ...RuntimeOption) error {
	for _, o := range opts {
		o(f)
	}
	return nil
}

func (f *fakeRuntime) WithConfig(cfg *RuntimeConfig) { f.cfg = *cfg }
func (f *fakeRuntime) Config() RuntimeConfig         { return f.cfg }
func (*fakeRuntime) GetName() string                 { return "fake" }

func TestRuntimeRegistry(t *testing.T) {
	Register("fake", func() ContainerRuntime { return &fakeRuntime{} })
	defer delete(ContainerRuntimes, "fake")

	r, err := GetRuntime("fake")
	require.NoError(t, err)
	assert.Equal(t, "fake", r.GetName())

	_, err = GetRuntime("no-such-runtime")
	assert.Error(t, err)
}

func TestGetRuntimeDefaultsToDocker(t *testing.T) {
	// the docker runtime registers itself on import in runtime/all;
	// here only the name resolution is under test
	Register(DockerRuntime, func() ContainerRuntime { return &fakeRuntime{} })
	defer delete(ContainerRuntimes, DockerRuntime)

	r, err := GetRuntime("")
	require.NoError(t, err)
	assert.NotNil(t, r)
}

func TestWithConfig(t *testing.T) {
	f := &fakeRuntime{}
	err := f.Init(WithConfig(&RuntimeConfig{
		Timeout: 30 * time.Second,
		Debug:   true,
	}))
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, f.Config().Timeout)
	assert.True(t, f.Config().Debug)
}
