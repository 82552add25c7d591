// Copyright 2024 kcstack authors
// Licensed under the BSD 3-Clause License.
// SPDX-License-Identifier: BSD-3-Clause

package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	kcerrors "github.com/kcstack/kcstack/errors"
	"github.com/kcstack/kcstack/types"
)

var inspectFormat string

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringVarP(&inspectFormat, "format", "f", types.FormatTable,
		"output format, one of [table, json]")
}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "show the keycloak containers started by kcstack",
	RunE:  inspectContainers,
}

func inspectContainers(cobraCmd *cobra.Command, _ []string) error {
	if inspectFormat != types.FormatTable && inspectFormat != types.FormatJSON {
		return fmt.Errorf("%w: output format %q is not supported, use one of [%s, %s]",
			kcerrors.ErrIncorrectInput, inspectFormat, types.FormatTable, types.FormatJSON)
	}

	rt, err := getRuntime()
	if err != nil {
		return err
	}

	filters := types.FilterFromLabelStrings([]string{types.ToolLabel})

	containers, err := rt.ListContainers(cobraCmd.Context(), filters)
	if err != nil {
		return err
	}

	if inspectFormat == types.FormatJSON {
		b, err := json.MarshalIndent(containers, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(b))
		return nil
	}

	printContainerTable(containers)
	return nil
}

func printContainerTable(containers []types.GenericContainer) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Name", "Image", "State", "Status", "Ports"})
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)

	for i := range containers {
		c := &containers[i]
		table.Append([]string{
			c.Name(),
			c.Image,
			c.State,
			c.Status,
			strings.Join(c.Ports, ", "),
		})
	}

	table.Render()
}
