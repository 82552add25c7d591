//go:build linux && podman
// +build linux,podman

package all

import (
	_ "github.com/kcstack/kcstack/runtime/docker"
	_ "github.com/kcstack/kcstack/runtime/podman"
)
