// Copyright 2024 kcstack authors
// Licensed under the BSD 3-Clause License.
// SPDX-License-Identifier: BSD-3-Clause

package kube

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"helm.sh/helm/v3/pkg/action"
	"helm.sh/helm/v3/pkg/chart/loader"
	helmcli "helm.sh/helm/v3/pkg/cli"
	"helm.sh/helm/v3/pkg/storage/driver"
	"helm.sh/helm/v3/pkg/strvals"
)

// HelmOptions parametrize a chart install/upgrade.
type HelmOptions struct {
	ChartPath   string
	ReleaseName string
	Timeout     time.Duration
	SetOptions  []string
}

func (c *Client) helmActionConfig() (*action.Configuration, error) {
	settings := helmcli.New()
	settings.KubeConfig = c.kubeconfig

	actionConfig := new(action.Configuration)
	err := actionConfig.Init(settings.RESTClientGetter(), c.namespace, "secret", log.Debugf)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize helm: %w", err)
	}
	return actionConfig, nil
}

// InstallChart installs the keycloak chart, or upgrades the release if it
// is already installed.
func (c *Client) InstallChart(opts HelmOptions) error {
	actionConfig, err := c.helmActionConfig()
	if err != nil {
		return err
	}

	chart, err := loader.Load(opts.ChartPath)
	if err != nil {
		return fmt.Errorf("error loading chart from %s: %w", opts.ChartPath, err)
	}

	values, err := resolveValues(opts.SetOptions)
	if err != nil {
		return err
	}

	// upgrade when the release exists already
	histClient := action.NewHistory(actionConfig)
	histClient.Max = 1
	_, err = histClient.Run(opts.ReleaseName)

	if err == driver.ErrReleaseNotFound { //nolint:errorlint
		installClient := action.NewInstall(actionConfig)
		installClient.ReleaseName = opts.ReleaseName
		installClient.Namespace = c.namespace
		installClient.CreateNamespace = true
		installClient.Wait = true
		installClient.Timeout = opts.Timeout

		log.Infof("Installing chart %q as release %q into namespace %q",
			chart.Name(), opts.ReleaseName, c.namespace)

		_, err = installClient.Run(chart, values)
		return err
	} else if err != nil {
		return err
	}

	upgradeClient := action.NewUpgrade(actionConfig)
	upgradeClient.Namespace = c.namespace
	upgradeClient.Wait = true
	upgradeClient.Timeout = opts.Timeout

	log.Infof("Upgrading release %q in namespace %q", opts.ReleaseName, c.namespace)

	_, err = upgradeClient.Run(opts.ReleaseName, chart, values)
	return err
}

// UninstallChart removes the helm release.
func (c *Client) UninstallChart(releaseName string) error {
	actionConfig, err := c.helmActionConfig()
	if err != nil {
		return err
	}

	uninstallClient := action.NewUninstall(actionConfig)
	_, err = uninstallClient.Run(releaseName)
	if err == driver.ErrReleaseNotFound { //nolint:errorlint
		log.Infof("Release %q not found, nothing to uninstall", releaseName)
		return nil
	}
	return err
}

// resolveValues parses helm strvals lines and merges them into a map.
func resolveValues(setOptions []string) (map[string]interface{}, error) {
	finalValues := map[string]interface{}{}
	for _, v := range setOptions {
		if err := strvals.ParseInto(v, finalValues); err != nil {
			return nil, fmt.Errorf("invalid format for --set: %w", err)
		}
	}
	return finalValues, nil
}
