// Copyright 2024 kcstack authors
// Licensed under the BSD 3-Clause License.
// SPDX-License-Identifier: BSD-3-Clause

package cmd

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	kcerrors "github.com/kcstack/kcstack/errors"
	kcexec "github.com/kcstack/kcstack/exec"
	"github.com/kcstack/kcstack/types"
)

var execOutputFormat string

func init() {
	rootCmd.AddCommand(execCmd)

	execCmd.Flags().StringVarP(&execOutputFormat, "format", "f", types.FormatPlain,
		"output format, one of [plain, json]")
}

var execCmd = &cobra.Command{
	Use:   "exec -- <command>",
	Short: "execute a command inside the keycloak containers",
	Long: "execute a command inside the running keycloak containers, " +
		"e.g. `kcstack exec -- /opt/keycloak/bin/kc.sh show-config`",
	Args: cobra.MinimumNArgs(1),
	RunE: execInContainers,
}

func execInContainers(cobraCmd *cobra.Command, args []string) error {
	if execOutputFormat != types.FormatPlain && execOutputFormat != types.FormatJSON {
		return fmt.Errorf("%w: output format %q is not supported, use one of [%s, %s]",
			kcerrors.ErrIncorrectInput, execOutputFormat, types.FormatPlain, types.FormatJSON)
	}

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
		log.Info("no keycloak containers found")
		return nil
	}

	cmd, err := kcexec.NewExecCmdFromString(strings.Join(args, " "))
	if err != nil {
		return fmt.Errorf("failed to parse command %q: %w", strings.Join(args, " "), err)
	}

	var failed int
	for i := range containers {
		c := &containers[i]
		if c.State != "running" {
			log.Debugf("skipping %s, state %q", c.Name(), c.State)
			continue
		}

		res, err := rt.Exec(ctx, c.Name(), cmd)
		if err != nil {
			log.Errorf("%s: failed to execute command: %v", c.Name(), err)
			failed++
			continue
		}

		out, err := res.Dump(execOutputFormat)
		if err != nil {
			return err
		}
		fmt.Printf("%s:\n%s\n", c.Name(), out)

		if res.ReturnCode != 0 {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("command failed in %d container(s)", failed)
	}
	return nil
}
