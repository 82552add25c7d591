// Copyright 2024 kcstack authors
// Licensed under the BSD 3-Clause License.
// SPDX-License-Identifier: BSD-3-Clause

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	kcerrors "github.com/kcstack/kcstack/errors"
	"github.com/kcstack/kcstack/runtime"
	"github.com/kcstack/kcstack/types"
	"github.com/kcstack/kcstack/utils"
)

var (
	buildContext  string
	buildPlatform string
	forceDebian   bool
	forceOfficial bool
)

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringVarP(&buildContext, "context", "c", ".", "build context directory")
	buildCmd.Flags().StringVarP(&buildPlatform, "platform", "p", "", "target platform, e.g. linux/arm64")
	buildCmd.Flags().BoolVarP(&forceDebian, "force-debian", "", false, "build the debian flavor regardless of the stack file")
	buildCmd.Flags().BoolVarP(&forceOfficial, "force-official", "", false, "build the official flavor regardless of the stack file")
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "build the keycloak container image",
	RunE:  buildImage,
}

func buildImage(cmd *cobra.Command, _ []string) error {
	s, err := loadStack()
	if err != nil {
		return err
	}

	if forceDebian && forceOfficial {
		return fmt.Errorf("%w: --force-debian and --force-official are mutually exclusive", kcerrors.ErrIncorrectInput)
	}

	flavor := s.Keycloak.Flavor
	switch {
	case forceDebian:
		flavor = types.FlavorDebian
	case forceOfficial:
		flavor = types.FlavorOfficial
	}

	dockerfile := filepath.Join("dockerfiles", "Dockerfile."+string(flavor))
	if !utils.FileExists(filepath.Join(buildContext, dockerfile)) {
		return fmt.Errorf("dockerfile %s not found in build context %s", dockerfile, buildContext)
	}

	c, err := getRuntime()
	if err != nil {
		return err
	}

	return c.BuildImage(cmd.Context(), runtime.BuildOptions{
		ContextDir: buildContext,
		Dockerfile: dockerfile,
		Tag:        s.ImageRef(),
		BuildArgs: map[string]string{
			types.EnvKeycloakVersionArg: s.Keycloak.Version,
			types.EnvTargetPlatformArg:  buildPlatform,
		},
		Platform: buildPlatform,
	})
}
