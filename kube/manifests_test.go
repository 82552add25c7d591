package kube

import (
	"context"
	"testing"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/kcstack/kcstack/types"
)

func TestDeployHTTPS(t *testing.T) {
	clientset := fake.NewSimpleClientset()
	c := NewClientForTesting(clientset, "keycloak")

	err := c.Deploy(context.Background(), DeployOptions{
		Image:         "quay.io/keycloak/keycloak:26.0.7",
		AdminUser:     "admin",
		AdminPassword: "admin",
		HTTPS:         true,
		TLSSecret:     "keycloak-tls",
	})
	if err != nil {
		t.Fatalf("Deploy() error = %v", err)
	}

	dep, err := clientset.AppsV1().Deployments("keycloak").Get(
		context.Background(), "keycloak", metav1.GetOptions{})
	if err != nil {
		t.Fatalf("deployment not created: %v", err)
	}

	container := dep.Spec.Template.Spec.Containers[0]
	if container.Image != "quay.io/keycloak/keycloak:26.0.7" {
		t.Errorf("image = %q", container.Image)
	}
	if len(container.Args) != 1 || container.Args[0] != "start-dev" {
		t.Errorf("args = %v, want [start-dev]", container.Args)
	}
	if container.Ports[0].ContainerPort != types.DefaultHTTPSPort {
		t.Errorf("port = %d, want %d", container.Ports[0].ContainerPort, types.DefaultHTTPSPort)
	}

	// the TLS secret must be mounted and referenced by the env vars
	envByName := map[string]string{}
	for _, e := range container.Env {
		envByName[e.Name] = e.Value
	}
	if envByName[types.EnvHTTPEnabled] != "false" {
		t.Errorf("%s = %q, want false", types.EnvHTTPEnabled, envByName[types.EnvHTTPEnabled])
	}
	if envByName[types.EnvHTTPSCertFile] != "/mnt/certificates/tls.crt" {
		t.Errorf("%s = %q", types.EnvHTTPSCertFile, envByName[types.EnvHTTPSCertFile])
	}
	if len(dep.Spec.Template.Spec.Volumes) != 1 ||
		dep.Spec.Template.Spec.Volumes[0].Secret.SecretName != "keycloak-tls" {
		t.Errorf("volumes = %+v, want the TLS secret volume", dep.Spec.Template.Spec.Volumes)
	}

	svc, err := clientset.CoreV1().Services("keycloak").Get(
		context.Background(), "keycloak", metav1.GetOptions{})
	if err != nil {
		t.Fatalf("service not created: %v", err)
	}
	if svc.Spec.Ports[0].Port != types.DefaultHTTPSPort {
		t.Errorf("service port = %d, want %d", svc.Spec.Ports[0].Port, types.DefaultHTTPSPort)
	}

	// no postgres requested
	if _, err := clientset.AppsV1().Deployments("keycloak").Get(
		context.Background(), "keycloak-postgres", metav1.GetOptions{}); err == nil {
		t.Errorf("postgres deployment was created without --postgres")
	}
}

func TestDeployHTTPWithPostgres(t *testing.T) {
	clientset := fake.NewSimpleClientset()
	c := NewClientForTesting(clientset, "keycloak")

	err := c.Deploy(context.Background(), DeployOptions{
		Image:            "quay.io/keycloak/keycloak:26.0.7",
		AdminUser:        "admin",
		Postgres:         true,
		PostgresPassword: "pg-secret",
	})
	if err != nil {
		t.Fatalf("Deploy() error = %v", err)
	}

	dep, err := clientset.AppsV1().Deployments("keycloak").Get(
		context.Background(), "keycloak", metav1.GetOptions{})
	if err != nil {
		t.Fatal(err)
	}
	container := dep.Spec.Template.Spec.Containers[0]
	if container.Ports[0].ContainerPort != types.DefaultHTTPPort {
		t.Errorf("port = %d, want %d", container.Ports[0].ContainerPort, types.DefaultHTTPPort)
	}
	if len(dep.Spec.Template.Spec.Volumes) != 0 {
		t.Errorf("http variant must not mount certificates")
	}

	// keycloak must be pointed at the postgres service
	envByName := map[string]string{}
	var dbPasswordFrom string
	for _, e := range container.Env {
		envByName[e.Name] = e.Value
		if e.Name == types.EnvDBPassword && e.ValueFrom != nil {
			dbPasswordFrom = e.ValueFrom.SecretKeyRef.Name
		}
	}
	if envByName[types.EnvDB] != "postgres" {
		t.Errorf("%s = %q, want postgres", types.EnvDB, envByName[types.EnvDB])
	}
	if envByName[types.EnvDBURLHost] != "keycloak-postgres" {
		t.Errorf("%s = %q, want keycloak-postgres", types.EnvDBURLHost, envByName[types.EnvDBURLHost])
	}
	if dbPasswordFrom != PostgresSecretName {
		t.Errorf("%s secret ref = %q, want %q", types.EnvDBPassword, dbPasswordFrom, PostgresSecretName)
	}

	if _, err := clientset.AppsV1().Deployments("keycloak").Get(
		context.Background(), "keycloak-postgres", metav1.GetOptions{}); err != nil {
		t.Errorf("postgres deployment missing: %v", err)
	}
	if _, err := clientset.CoreV1().Services("keycloak").Get(
		context.Background(), "keycloak-postgres", metav1.GetOptions{}); err != nil {
		t.Errorf("postgres service missing: %v", err)
	}

	// the password secret the postgres pod references must exist
	secret, err := clientset.CoreV1().Secrets("keycloak").Get(
		context.Background(), PostgresSecretName, metav1.GetOptions{})
	if err != nil {
		t.Fatalf("postgres secret missing: %v", err)
	}
	if secret.StringData["password"] != "pg-secret" {
		t.Errorf("secret password = %q, want pg-secret", secret.StringData["password"])
	}

	// a redeploy keeps the existing password
	err = c.Deploy(context.Background(), DeployOptions{
		Image:            "quay.io/keycloak/keycloak:26.0.7",
		AdminUser:        "admin",
		Postgres:         true,
		PostgresPassword: "rotated",
	})
	if err != nil {
		t.Fatalf("second Deploy() error = %v", err)
	}
	secret, err = clientset.CoreV1().Secrets("keycloak").Get(
		context.Background(), PostgresSecretName, metav1.GetOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if secret.StringData["password"] != "pg-secret" {
		t.Errorf("secret password after redeploy = %q, want pg-secret", secret.StringData["password"])
	}
}

func TestDeployIsIdempotent(t *testing.T) {
	clientset := fake.NewSimpleClientset()
	c := NewClientForTesting(clientset, "keycloak")

	opts := DeployOptions{Image: "quay.io/keycloak/keycloak:26.0.7", AdminUser: "admin"}

	if err := c.Deploy(context.Background(), opts); err != nil {
		t.Fatal(err)
	}

	// a second deploy updates in place instead of failing
	opts.Image = "quay.io/keycloak/keycloak:26.1.0"
	if err := c.Deploy(context.Background(), opts); err != nil {
		t.Fatalf("second Deploy() error = %v", err)
	}

	dep, err := clientset.AppsV1().Deployments("keycloak").Get(
		context.Background(), "keycloak", metav1.GetOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if got := dep.Spec.Template.Spec.Containers[0].Image; got != "quay.io/keycloak/keycloak:26.1.0" {
		t.Errorf("image after update = %q", got)
	}
}

func TestUndeploy(t *testing.T) {
	clientset := fake.NewSimpleClientset()
	c := NewClientForTesting(clientset, "keycloak")

	if err := c.Deploy(context.Background(), DeployOptions{
		Image: "quay.io/keycloak/keycloak:26.0.7", AdminUser: "admin", Postgres: true,
	}); err != nil {
		t.Fatal(err)
	}

	if err := c.Undeploy(context.Background()); err != nil {
		t.Fatalf("Undeploy() error = %v", err)
	}

	if _, err := clientset.AppsV1().Deployments("keycloak").Get(
		context.Background(), "keycloak", metav1.GetOptions{}); err == nil {
		t.Errorf("keycloak deployment still present")
	}
	if _, err := clientset.CoreV1().Secrets("keycloak").Get(
		context.Background(), PostgresSecretName, metav1.GetOptions{}); err == nil {
		t.Errorf("postgres secret still present")
	}

	// removing again must not fail
	if err := c.Undeploy(context.Background()); err != nil {
		t.Errorf("second Undeploy() error = %v", err)
	}
}
