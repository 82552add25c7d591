// Copyright 2024 kcstack authors
// Licensed under the BSD 3-Clause License.
// SPDX-License-Identifier: BSD-3-Clause

package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	units "github.com/docker/go-units"
	humanize "github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	analyzeImageRef string
	layerThreshold  string
)

func init() {
	rootCmd.AddCommand(imageCmd)
	imageCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&analyzeImageRef, "image", "i", "", "image reference to analyze; defaults to the stack image")
	analyzeCmd.Flags().StringVarP(&layerThreshold, "threshold", "", "100MB",
		"flag layers larger than this size")
}

var imageCmd = &cobra.Command{
	Use:   "image",
	Short: "keycloak image operations",
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "show image details and per-layer sizes",
	RunE:  analyzeImage,
}

func analyzeImage(cmd *cobra.Command, _ []string) error {
	s, err := loadStack()
	if err != nil {
		return err
	}

	imageRef := analyzeImageRef
	if imageRef == "" {
		imageRef = s.ImageRef()
	}

	threshold, err := units.FromHumanSize(layerThreshold)
	if err != nil {
		return fmt.Errorf("failed to parse threshold %q: %w", layerThreshold, err)
	}

	c, err := getRuntime()
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	if err := c.PullImageIfRequired(ctx, imageRef, ""); err != nil {
		return err
	}

	details, err := c.ImageInspect(ctx, imageRef)
	if err != nil {
		return err
	}

	fmt.Printf("Image:        %s\n", imageRef)
	fmt.Printf("ID:           %s\n", details.ID)
	fmt.Printf("Platform:     %s/%s\n", details.OS, details.Architecture)
	fmt.Printf("Total size:   %s\n", humanize.Bytes(uint64(details.Size)))
	if created, err := time.Parse(time.RFC3339Nano, details.Created); err == nil {
		fmt.Printf("Created:      %s\n", humanize.Time(created))
	}
	fmt.Println()

	layers, err := c.ImageHistory(ctx, imageRef)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"#", "Size", "Created By"})
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_LEFT,
	})

	var flagged int
	// docker reports history newest-first, show it oldest-first
	for i := len(layers) - 1; i >= 0; i-- {
		l := layers[i]

		createdBy := strings.TrimSpace(l.CreatedBy)
		if len(createdBy) > 100 {
			createdBy = createdBy[:97] + "..."
		}

		size := humanize.Bytes(uint64(l.Size))
		if l.Size >= threshold {
			size = size + " (!)"
			flagged++
		}

		table.Append([]string{strconv.Itoa(len(layers) - i), size, createdBy})
	}
	table.Render()

	if flagged > 0 {
		log.Warnf("%d layer(s) exceed the %s threshold", flagged, layerThreshold)
	}

	return nil
}
