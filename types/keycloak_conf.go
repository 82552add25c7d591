// Copyright 2024 kcstack authors
// Licensed under the BSD 3-Clause License.
// SPDX-License-Identifier: BSD-3-Clause

package types

import (
	"bytes"
	"fmt"
	"strconv"
)

// KeycloakConf models the keycloak.conf key-file consumed by a bare-metal
// keycloak distribution. Only the keys kcstack manages are represented;
// Render emits them in a fixed order so that repeated runs produce
// identical files.
type KeycloakConf struct {
	HTTPEnabled       bool
	HTTPSPort         int
	HTTPSCertFile     string
	HTTPSCertKeyFile  string
	Hostname          string
	HostnameStrict    bool
	HostnameStrictTLS bool
}

// Render produces the key-file representation of the config.
func (k *KeycloakConf) Render() []byte {
	buf := &bytes.Buffer{}

	writeKey := func(key, value string) {
		fmt.Fprintf(buf, "%s=%s\n", key, value)
	}

	writeKey("http-enabled", strconv.FormatBool(k.HTTPEnabled))
	writeKey("https-port", strconv.Itoa(k.HTTPSPort))
	writeKey("https-certificate-file", k.HTTPSCertFile)
	writeKey("https-certificate-key-file", k.HTTPSCertKeyFile)
	writeKey("hostname", k.Hostname)
	writeKey("hostname-strict", strconv.FormatBool(k.HostnameStrict))
	writeKey("hostname-strict-https", strconv.FormatBool(k.HostnameStrictTLS))

	return buf.Bytes()
}
