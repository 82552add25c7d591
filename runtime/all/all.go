//go:build !podman
// +build !podman

package all

import (
	_ "github.com/kcstack/kcstack/runtime/docker"
)
