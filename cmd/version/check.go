// Copyright 2024 kcstack authors
// Licensed under the BSD 3-Clause License.
// SPDX-License-Identifier: BSD-3-Clause

package version

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	gover "github.com/hashicorp/go-version"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kcstack/kcstack/types"
)

const (
	keycloakRepoURL     = "https://github.com/keycloak/keycloak"
	versionCheckTimeout = 5 * time.Second
)

// checkClient does not follow redirects: github answers the
// releases/latest URL with a 302 whose Location carries the tag.
var checkClient = &http.Client{
	CheckRedirect: func(_ *http.Request, _ []*http.Request) error {
		return http.ErrUseLastResponse
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check for newer kcstack and keycloak releases",
	RunE: func(cobraCmd *cobra.Command, _ []string) error {
		ctx, cancel := context.WithTimeout(cobraCmd.Context(), versionCheckTimeout)
		defer cancel()

		checkSelf(ctx)

		stackPath, _ := cobraCmd.Flags().GetString("stack")
		checkKeycloak(ctx, stackKeycloakVersion(stackPath))

		return nil
	},
}

func checkSelf(ctx context.Context) {
	latest, err := latestReleaseVersion(ctx, repoURL)
	if err != nil {
		log.Debugf("kcstack version check failed: %v", err)
		fmt.Println("Could not check for a newer kcstack release.")
		return
	}

	current, err := gover.NewVersion(Version)
	if err != nil {
		// dev builds carry a non-semver version
		log.Debugf("cannot parse own version %q: %v", Version, err)
		return
	}

	if latest.GreaterThan(current) {
		fmt.Printf("A newer kcstack version (%s) is available at %s/releases\n", latest, repoURL)
		return
	}
	fmt.Printf("You are on the latest kcstack version (%s)\n", Version)
}

func checkKeycloak(ctx context.Context, stackVersion string) {
	latest, err := latestReleaseVersion(ctx, keycloakRepoURL)
	if err != nil {
		log.Debugf("keycloak version check failed: %v", err)
		fmt.Println("Could not check for a newer keycloak release.")
		return
	}

	if stackVersion == "" {
		fmt.Printf("Latest keycloak release: %s\n", latest)
		return
	}

	current, err := gover.NewVersion(stackVersion)
	if err != nil {
		log.Debugf("cannot parse stack keycloak version %q: %v", stackVersion, err)
		return
	}

	if latest.GreaterThan(current) {
		fmt.Printf("A newer keycloak version (%s) is available, the stack file pins %s\n",
			latest, stackVersion)
		return
	}
	fmt.Printf("The stack file pins the latest keycloak version (%s)\n", stackVersion)
}

// latestReleaseVersion resolves the latest release tag of a github repo
// from the releases/latest redirect.
func latestReleaseVersion(ctx context.Context, repo string) (*gover.Version, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, repo+"/releases/latest", nil)
	if err != nil {
		return nil, err
	}

	resp, err := checkClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusFound {
		return nil, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	loc := resp.Header.Get("Location")
	split := strings.Split(loc, "releases/tag/")
	if len(split) != 2 {
		return nil, fmt.Errorf("cannot parse release tag from redirect %q", loc)
	}

	return gover.NewVersion(split[1])
}

// stackKeycloakVersion reads the pinned keycloak version from the stack
// file, or returns an empty string when no stack file exists.
func stackKeycloakVersion(stackPath string) string {
	if stackPath == "" {
		for _, name := range []string{"kcstack.yml", "kcstack.yaml"} {
			if _, err := os.Stat(name); err == nil {
				stackPath = name
				break
			}
		}
	}
	if stackPath == "" {
		return ""
	}

	s, err := types.ParseStackFile(stackPath)
	if err != nil {
		log.Debugf("failed to parse stack file %s: %v", stackPath, err)
		return ""
	}
	return s.Keycloak.Version
}
