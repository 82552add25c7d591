// Copyright 2024 kcstack authors
// Licensed under the BSD 3-Clause License.
// SPDX-License-Identifier: BSD-3-Clause

package types

import (
	"github.com/docker/go-connections/nat"
)

// ContainerConfig carries everything a runtime needs to create a
// keycloak container.
type ContainerConfig struct {
	Name   string
	Image  string
	User   string
	Cmd    string
	Env    map[string]string
	Binds  []string
	Labels map[string]string

	PortSet      nat.PortSet
	PortBindings nat.PortMap
}

// GenericFilter is a runtime-agnostic container list filter.
type GenericFilter struct {
	FilterType string // e.g. "label" or "name"
	Field      string
	Operator   string // "=" or "exists"
	Match      string
}

// FilterFromLabelStrings creates label filters from strings
// in the "key=value" or "key" format.
func FilterFromLabelStrings(labels []string) []*GenericFilter {
	gfl := make([]*GenericFilter, 0, len(labels))
	for _, s := range labels {
		gf := &GenericFilter{
			FilterType: "label",
		}
		if n := splitKV(s); n != nil {
			gf.Field = n[0]
			gf.Operator = "="
			gf.Match = n[1]
		} else {
			gf.Field = s
			gf.Operator = "exists"
		}
		gfl = append(gfl, gf)
	}
	return gfl
}

func splitKV(s string) []string {
	for i := 0; i < len(s); i++ {
		if s[i] == '=' {
			return []string{s[:i], s[i+1:]}
		}
	}
	return nil
}

// GenericContainer is a runtime-agnostic view of a container,
// used for inspect output.
type GenericContainer struct {
	Names   []string          `json:"names"`
	ID      string            `json:"id"`
	ShortID string            `json:"short_id"`
	Image   string            `json:"image"`
	State   string            `json:"state"`
	Status  string            `json:"status"`
	Labels  map[string]string `json:"labels,omitempty"`
	Ports   []string          `json:"ports,omitempty"`
}

// Name returns the primary container name without the leading slash
// docker keeps in its API responses.
func (gc *GenericContainer) Name() string {
	if len(gc.Names) == 0 {
		return gc.ShortID
	}
	name := gc.Names[0]
	if len(name) > 0 && name[0] == '/' {
		name = name[1:]
	}
	return name
}
