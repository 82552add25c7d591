package types

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeStackFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kcstack.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseStackFile(t *testing.T) {
	t.Setenv("TEST_ADMIN_PASSWORD", "s3cret")

	path := writeStackFile(t, `
name: mykc
keycloak:
  version: "26.0.7"
  flavor: debian
admin:
  username: boss
  password: ${TEST_ADMIN_PASSWORD}
certs:
  servers:
    - name: kc1
      hosts: [localhost, 127.0.0.1]
`)

	s, err := ParseStackFile(path)
	if err != nil {
		t.Fatalf("ParseStackFile() error = %v", err)
	}

	if s.Name != "mykc" {
		t.Errorf("Name = %q, want %q", s.Name, "mykc")
	}
	if s.Admin.Password != "s3cret" {
		t.Errorf("Admin.Password = %q, env substitution did not happen", s.Admin.Password)
	}
	if s.Keycloak.Flavor != FlavorDebian {
		t.Errorf("Flavor = %q, want %q", s.Keycloak.Flavor, FlavorDebian)
	}
	// defaults must be filled in
	if s.Keycloak.Image != "quay.io/keycloak/keycloak" {
		t.Errorf("Image = %q, want the default repo", s.Keycloak.Image)
	}
	if s.Kube.Namespace != "keycloak" {
		t.Errorf("Kube.Namespace = %q, want %q", s.Kube.Namespace, "keycloak")
	}

	wantServers := []ServerCert{{Name: "kc1", Hosts: []string{"localhost", "127.0.0.1"}}}
	if d := cmp.Diff(wantServers, s.Certs.Servers); d != "" {
		t.Errorf("Certs.Servers mismatch (-want +got):\n%s", d)
	}
}

func TestParseStackFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "missing version",
			content: "name: kc\nkeycloak: {}\n",
		},
		{
			name:    "unknown flavor",
			content: "keycloak:\n  version: \"26.0.7\"\n  flavor: alpine\n",
		},
		{
			name:    "unknown field",
			content: "keycloak:\n  version: \"26.0.7\"\nfoo: bar\n",
		},
		{
			name: "server without hosts",
			content: `keycloak:
  version: "26.0.7"
certs:
  servers:
    - name: kc1
      hosts: []
`,
		},
		{
			name: "duplicate server name",
			content: `keycloak:
  version: "26.0.7"
certs:
  servers:
    - name: kc1
      hosts: [localhost]
    - name: kc1
      hosts: [localhost]
`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeStackFile(t, tt.content)
			if _, err := ParseStackFile(path); err == nil {
				t.Errorf("ParseStackFile() expected an error")
			}
		})
	}
}

func TestSetDefaults(t *testing.T) {
	s := &StackConfig{Keycloak: KeycloakSpec{Version: "26.0.7"}}
	s.SetDefaults()

	if err := s.Verify(); err != nil {
		t.Fatalf("Verify() after SetDefaults() error = %v", err)
	}

	if s.Name != "keycloak" {
		t.Errorf("Name = %q, want %q", s.Name, "keycloak")
	}
	if s.Certs.KeySize != 2048 {
		t.Errorf("Certs.KeySize = %d, want 2048", s.Certs.KeySize)
	}
	if len(s.Certs.Servers) != 1 || s.Certs.Servers[0].Name != "keycloak" {
		t.Errorf("Certs.Servers = %+v, want a single default entry", s.Certs.Servers)
	}
	if s.Service.HTTPSPort != PrivilegedHTTPSPort {
		t.Errorf("Service.HTTPSPort = %d, want %d", s.Service.HTTPSPort, PrivilegedHTTPSPort)
	}
}

func TestImageRef(t *testing.T) {
	s := &StackConfig{Keycloak: KeycloakSpec{Version: "26.0.7"}}
	s.SetDefaults()

	want := "quay.io/keycloak/keycloak:26.0.7"
	if got := s.ImageRef(); got != want {
		t.Errorf("ImageRef() = %q, want %q", got, want)
	}
}

func TestServerLookup(t *testing.T) {
	s := &StackConfig{
		Keycloak: KeycloakSpec{Version: "26.0.7"},
		Certs: CertsSpec{
			Servers: []ServerCert{
				{Name: "kc1", Hosts: []string{"localhost"}},
				{Name: "kc2", Hosts: []string{"kc2.example.com"}},
			},
		},
	}
	s.SetDefaults()

	srv, err := s.Server("kc2")
	if err != nil {
		t.Fatalf("Server() error = %v", err)
	}
	if srv.Hosts[0] != "kc2.example.com" {
		t.Errorf("Server().Hosts[0] = %q, want %q", srv.Hosts[0], "kc2.example.com")
	}

	if _, err := s.Server("nope"); err == nil {
		t.Errorf("Server() expected an error for an unknown name")
	}
}
