package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kcstack/kcstack/types"
)

func TestRunEnvStackWinsOverEnvFile(t *testing.T) {
	s := testStack(t)
	s.Admin.Password = "stack-secret"
	srv := &s.Certs.Servers[0]

	envFile := filepath.Join(t.TempDir(), "extra.env")
	content := "KC_BOOTSTRAP_ADMIN_PASSWORD=from-env-file\nKC_LOG_LEVEL=debug\n"
	if err := os.WriteFile(envFile, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	env, err := runEnv(s, srv, "", false, envFile)
	if err != nil {
		t.Fatalf("runEnv() error = %v", err)
	}

	if env[types.EnvAdminPassword] != "stack-secret" {
		t.Errorf("%s = %q, the env file must not override stack values",
			types.EnvAdminPassword, env[types.EnvAdminPassword])
	}
	if env["KC_LOG_LEVEL"] != "debug" {
		t.Errorf("KC_LOG_LEVEL = %q, extra env file entries must pass through", env["KC_LOG_LEVEL"])
	}
	if !strings.HasSuffix(env[types.EnvHTTPSCertFile], types.ChainFileSuffix) {
		t.Errorf("%s = %q, want the chain file", types.EnvHTTPSCertFile, env[types.EnvHTTPSCertFile])
	}
}

func TestRunEnvKeystoreMode(t *testing.T) {
	s := testStack(t)
	s.Admin.Password = "stack-secret"
	srv := &s.Certs.Servers[0]

	env, err := runEnv(s, srv, "changeit", true, "")
	if err != nil {
		t.Fatalf("runEnv() error = %v", err)
	}

	if env[types.EnvHTTPSKeystorePass] != "changeit" {
		t.Errorf("%s = %q", types.EnvHTTPSKeystorePass, env[types.EnvHTTPSKeystorePass])
	}
	if !strings.HasSuffix(env[types.EnvHTTPSKeystoreFile], types.KeystoreFileSuffix) {
		t.Errorf("%s = %q, want the keystore file", types.EnvHTTPSKeystoreFile, env[types.EnvHTTPSKeystoreFile])
	}
	if _, ok := env[types.EnvHTTPSCertFile]; ok {
		t.Errorf("keystore mode must not set %s", types.EnvHTTPSCertFile)
	}
}
