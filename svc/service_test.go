package svc

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/kcstack/kcstack/types"
)

func TestRenderUnit(t *testing.T) {
	unit, err := renderUnit(unitInput{User: "keycloak", Distribution: "/opt/keycloak"})
	if err != nil {
		t.Fatalf("renderUnit() error = %v", err)
	}

	out := string(unit)
	for _, want := range []string{
		"User=keycloak",
		"Group=keycloak",
		"ExecStart=/opt/keycloak/bin/kc.sh start",
		"AmbientCapabilities=CAP_NET_BIND_SERVICE",
		"CapabilityBoundingSet=CAP_NET_BIND_SERVICE",
		"NoNewPrivileges=true",
		"WantedBy=multi-user.target",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("unit file is missing %q:\n%s", want, out)
		}
	}
}

func TestNewService(t *testing.T) {
	s := &types.StackConfig{Keycloak: types.KeycloakSpec{Version: "26.0.7"}}
	s.SetDefaults()
	s.Service.Hostname = "kc.example.com"

	paths, err := types.NewCertPaths(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	svc := NewService(s, paths, "keycloak")

	if svc.Distribution != "/opt/keycloak" {
		t.Errorf("Distribution = %q, want %q", svc.Distribution, "/opt/keycloak")
	}
	if svc.HTTPSPort != types.PrivilegedHTTPSPort {
		t.Errorf("HTTPSPort = %d, want %d", svc.HTTPSPort, types.PrivilegedHTTPSPort)
	}
	// the chain file is what keycloak serves
	if svc.CertFile != paths.ServerChainAbsFilename("keycloak") {
		t.Errorf("CertFile = %q, want the chain file", svc.CertFile)
	}

	wantConf := filepath.Join("/opt/keycloak", "conf", "keycloak.conf")
	if svc.ConfPath() != wantConf {
		t.Errorf("ConfPath() = %q, want %q", svc.ConfPath(), wantConf)
	}
	if svc.UnitPath() != "/etc/systemd/system/keycloak.service" {
		t.Errorf("UnitPath() = %q", svc.UnitPath())
	}
}
