// Copyright 2024 kcstack authors
// Licensed under the BSD 3-Clause License.
// SPDX-License-Identifier: BSD-3-Clause

package cmd

import (
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kcstack/kcstack/cmd/version"
	"github.com/kcstack/kcstack/runtime"
	_ "github.com/kcstack/kcstack/runtime/all"
	"github.com/kcstack/kcstack/types"
)

// DefaultKeycloakVersion is used when no stack file pins a version.
const DefaultKeycloakVersion = "26.0.7"

var (
	debug     bool
	logLevel  string
	timeout   time.Duration
	rt        string
	stackPath string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:               "kcstack",
	Short:             "deploy keycloak across container, kubernetes and bare-metal environments",
	SilenceUsage:      true,
	PersistentPreRunE: preRunFn,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug log level")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "", "info",
		"logging level; one of [trace, debug, info, warning, error, fatal]")
	rootCmd.PersistentFlags().DurationVarP(&timeout, "timeout", "", 120*time.Second,
		"timeout for external API requests (e.g. container runtimes), e.g: 30s, 1m, 2m30s")
	rootCmd.PersistentFlags().StringVarP(&rt, "runtime", "r", "", "container runtime")
	rootCmd.PersistentFlags().StringVarP(&stackPath, "stack", "s", "",
		"path to the stack file. Default is kcstack.yml in the current working directory")
	_ = rootCmd.MarkPersistentFlagFilename("stack", "*.yaml", "*.yml")

	rootCmd.AddCommand(version.VersionCmd)
}

func preRunFn(_ *cobra.Command, _ []string) error {
	// setting log level
	switch {
	case debug:
		log.SetLevel(log.DebugLevel)
	default:
		l, err := log.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		log.SetLevel(l)
	}

	// setting output to stderr, so that json outputs can be parsed
	log.SetOutput(os.Stderr)

	return nil
}

// getStackFilePath finds the stack file if it was not set explicitly.
// An empty string is returned when none exists.
func getStackFilePath() string {
	if stackPath != "" {
		return stackPath
	}
	for _, name := range []string{"kcstack.yml", "kcstack.yaml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// loadStack parses the stack file, or returns a default config when no
// stack file exists. The default carries the current keycloak version, so
// that commands which only need the fixed directory layouts keep working
// without a stack file.
func loadStack() (*types.StackConfig, error) {
	path := getStackFilePath()
	if path == "" {
		log.Debug("no stack file found, using defaults")
		s := &types.StackConfig{
			Keycloak: types.KeycloakSpec{Version: DefaultKeycloakVersion},
		}
		s.SetDefaults()
		return s, nil
	}

	log.Debugf("using stack file %s", path)
	return types.ParseStackFile(path)
}

// getRuntime initializes the selected container runtime.
func getRuntime() (runtime.ContainerRuntime, error) {
	c, err := runtime.GetRuntime(rt)
	if err != nil {
		return nil, err
	}

	err = c.Init(
		runtime.WithConfig(&runtime.RuntimeConfig{
			Timeout: timeout,
			Debug:   debug,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s runtime: %w", c.GetName(), err)
	}

	return c, nil
}

// certPathsFromStack builds the certificate layout for the stack.
func certPathsFromStack(s *types.StackConfig) (*types.CertPaths, error) {
	return types.NewCertPaths(s.Certs.Dir)
}
