// Copyright 2024 kcstack authors
// Licensed under the BSD 3-Clause License.
// SPDX-License-Identifier: BSD-3-Clause

package cmd

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kcstack/kcstack/types"
)

var cleanupData bool

func init() {
	rootCmd.AddCommand(destroyCmd)

	destroyCmd.Flags().BoolVarP(&cleanupData, "cleanup", "c", false,
		"also remove the keycloak data volume")
}

var destroyCmd = &cobra.Command{
	Use:   "destroy",
	Short: "remove the keycloak containers started by kcstack",
	RunE:  destroyKeycloak,
}

func destroyKeycloak(cobraCmd *cobra.Command, _ []string) error {
	rt, err := getRuntime()
	if err != nil {
		return err
	}

	ctx := cobraCmd.Context()

	filters := types.FilterFromLabelStrings([]string{types.ToolLabel})

	containers, err := rt.ListContainers(ctx, filters)
	if err != nil {
		return err
	}

	if len(containers) == 0 {
		log.Info("no kcstack containers found")
		return nil
	}

	for i := range containers {
		name := containers[i].Name()
		log.Infof("Removing container %s", name)
		if err := rt.DeleteContainer(ctx, name); err != nil {
			return err
		}
	}

	if cleanupData {
		log.Infof("Removing data volume %s", dataVolume)
		if err := rt.DeleteVolume(ctx, dataVolume); err != nil {
			return err
		}
	}

	return nil
}
