package svc

import (
	"bytes"
	"text/template"
)

// unitTemplate is the systemd unit kcstack installs for a bare-metal
// keycloak. AmbientCapabilities grants CAP_NET_BIND_SERVICE so the
// unprivileged service user can bind port 443.
var unitTemplate = template.Must(template.New("keycloak.service").Parse(`[Unit]
Description=Keycloak Identity and Access Management
Wants=network-online.target
After=network-online.target

[Service]
Type=exec
User={{ .User }}
Group={{ .User }}
ExecStart={{ .Distribution }}/bin/kc.sh start
Restart=on-failure
RestartSec=10
TimeoutStartSec=600
AmbientCapabilities=CAP_NET_BIND_SERVICE
CapabilityBoundingSet=CAP_NET_BIND_SERVICE
NoNewPrivileges=true
LimitNOFILE=102642

[Install]
WantedBy=multi-user.target
`))

type unitInput struct {
	User         string
	Distribution string
}

// renderUnit renders the systemd unit file contents.
func renderUnit(in unitInput) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := unitTemplate.Execute(buf, in); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
