// Copyright 2024 kcstack authors
// Licensed under the BSD 3-Clause License.
// SPDX-License-Identifier: BSD-3-Clause

package kube

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"

	"github.com/kcstack/kcstack/types"
)

const (
	keycloakAppName = "keycloak"
	postgresAppName = "keycloak-postgres"

	certMountPath = "/mnt/certificates"

	postgresImage    = "postgres:16"
	postgresDatabase = "keycloak"
	postgresUser     = "keycloak"
)

// PostgresSecretName is the secret holding the postgres password of the
// dev-mode backing store.
const PostgresSecretName = postgresAppName

// DeployOptions selects which manifest variant is applied.
type DeployOptions struct {
	Image            string
	AdminUser        string
	AdminPassword    string
	HTTPS            bool
	TLSSecret        string
	Postgres         bool
	PostgresPassword string
}

// Deploy applies the keycloak dev-mode deployment and service, plus the
// postgres backing store when requested.
func (c *Client) Deploy(ctx context.Context, opts DeployOptions) error {
	if err := c.EnsureNamespace(ctx); err != nil {
		return err
	}

	if opts.Postgres {
		if err := c.applyPostgresSecret(ctx, opts.PostgresPassword); err != nil {
			return err
		}
		if err := c.applyDeployment(ctx, postgresDeployment()); err != nil {
			return err
		}
		if err := c.applyService(ctx, postgresService()); err != nil {
			return err
		}
	}

	if err := c.applyDeployment(ctx, keycloakDeployment(opts)); err != nil {
		return err
	}

	return c.applyService(ctx, keycloakService(opts))
}

// Undeploy removes the manifests applied by Deploy.
func (c *Client) Undeploy(ctx context.Context) error {
	for _, name := range []string{keycloakAppName, postgresAppName} {
		err := c.clientset.AppsV1().Deployments(c.namespace).Delete(ctx, name, metav1.DeleteOptions{})
		if err != nil && !apierrors.IsNotFound(err) {
			return err
		}
		err = c.clientset.CoreV1().Services(c.namespace).Delete(ctx, name, metav1.DeleteOptions{})
		if err != nil && !apierrors.IsNotFound(err) {
			return err
		}
	}
	if err := c.DeleteSecret(ctx, PostgresSecretName); err != nil {
		return err
	}
	log.Infof("Removed keycloak manifests from namespace %q", c.namespace)
	return nil
}

// applyPostgresSecret creates the postgres password secret. An existing
// secret is left untouched so a redeploy does not rotate the password of
// a database that already carries data.
func (c *Client) applyPostgresSecret(ctx context.Context, password string) error {
	secret := &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{Name: PostgresSecretName},
		Type:       corev1.SecretTypeOpaque,
		StringData: map[string]string{"password": password},
	}

	_, err := c.clientset.CoreV1().Secrets(c.namespace).Create(ctx, secret, metav1.CreateOptions{})
	if apierrors.IsAlreadyExists(err) {
		log.Debugf("secret %q exists, keeping its password", PostgresSecretName)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create secret %q: %w", PostgresSecretName, err)
	}

	log.Infof("Created secret %s/%s", c.namespace, PostgresSecretName)
	return nil
}

func (c *Client) applyDeployment(ctx context.Context, d *appsv1.Deployment) error {
	deployments := c.clientset.AppsV1().Deployments(c.namespace)

	_, err := deployments.Create(ctx, d, metav1.CreateOptions{})
	if apierrors.IsAlreadyExists(err) {
		log.Debugf("deployment %q exists, updating it", d.Name)
		_, err = deployments.Update(ctx, d, metav1.UpdateOptions{})
	}
	if err != nil {
		return fmt.Errorf("failed to apply deployment %q: %w", d.Name, err)
	}

	log.Infof("Applied deployment %s/%s", c.namespace, d.Name)
	return nil
}

func (c *Client) applyService(ctx context.Context, s *corev1.Service) error {
	services := c.clientset.CoreV1().Services(c.namespace)

	existing, err := services.Get(ctx, s.Name, metav1.GetOptions{})
	if err == nil {
		// ClusterIP is immutable, carry it over on update
		s.ResourceVersion = existing.ResourceVersion
		s.Spec.ClusterIP = existing.Spec.ClusterIP
		_, err = services.Update(ctx, s, metav1.UpdateOptions{})
	} else if apierrors.IsNotFound(err) {
		_, err = services.Create(ctx, s, metav1.CreateOptions{})
	}
	if err != nil {
		return fmt.Errorf("failed to apply service %q: %w", s.Name, err)
	}

	log.Infof("Applied service %s/%s", c.namespace, s.Name)
	return nil
}

// keycloakDeployment renders the keycloak start-dev deployment. The https
// variant mounts the TLS secret and serves on 8443 instead of 8080.
func keycloakDeployment(opts DeployOptions) *appsv1.Deployment {
	labels := map[string]string{"app": keycloakAppName}
	replicas := int32(1)

	container := corev1.Container{
		Name:  keycloakAppName,
		Image: opts.Image,
		Args:  []string{"start-dev"},
		Env: []corev1.EnvVar{
			{Name: types.EnvAdminUsername, Value: opts.AdminUser},
			{Name: types.EnvAdminPassword, Value: opts.AdminPassword},
		},
	}

	if opts.Postgres {
		container.Env = append(container.Env,
			corev1.EnvVar{Name: types.EnvDB, Value: "postgres"},
			corev1.EnvVar{Name: types.EnvDBURLHost, Value: postgresAppName},
			corev1.EnvVar{Name: types.EnvDBURLDatabase, Value: postgresDatabase},
			corev1.EnvVar{Name: types.EnvDBUsername, Value: postgresUser},
			corev1.EnvVar{
				Name: types.EnvDBPassword,
				ValueFrom: &corev1.EnvVarSource{
					SecretKeyRef: &corev1.SecretKeySelector{
						LocalObjectReference: corev1.LocalObjectReference{Name: PostgresSecretName},
						Key:                  "password",
					},
				},
			},
		)
	}

	podSpec := corev1.PodSpec{}

	if opts.HTTPS {
		container.Env = append(container.Env,
			corev1.EnvVar{Name: types.EnvHTTPEnabled, Value: "false"},
			corev1.EnvVar{
				Name:  types.EnvHTTPSCertFile,
				Value: certMountPath + "/" + corev1.TLSCertKey,
			},
			corev1.EnvVar{
				Name:  types.EnvHTTPSCertKeyFile,
				Value: certMountPath + "/" + corev1.TLSPrivateKeyKey,
			},
		)
		container.Ports = []corev1.ContainerPort{
			{Name: "https", ContainerPort: types.DefaultHTTPSPort},
		}
		container.VolumeMounts = []corev1.VolumeMount{
			{Name: "certificates", MountPath: certMountPath, ReadOnly: true},
		}
		podSpec.Volumes = []corev1.Volume{
			{
				Name: "certificates",
				VolumeSource: corev1.VolumeSource{
					Secret: &corev1.SecretVolumeSource{SecretName: opts.TLSSecret},
				},
			},
		}
	} else {
		container.Ports = []corev1.ContainerPort{
			{Name: "http", ContainerPort: types.DefaultHTTPPort},
		}
	}

	podSpec.Containers = []corev1.Container{container}

	return &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{
			Name:   keycloakAppName,
			Labels: labels,
		},
		Spec: appsv1.DeploymentSpec{
			Replicas: &replicas,
			Selector: &metav1.LabelSelector{MatchLabels: labels},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: labels},
				Spec:       podSpec,
			},
		},
	}
}

func keycloakService(opts DeployOptions) *corev1.Service {
	port := corev1.ServicePort{
		Name:       "http",
		Port:       types.DefaultHTTPPort,
		TargetPort: intstr.FromInt(types.DefaultHTTPPort),
	}
	if opts.HTTPS {
		port = corev1.ServicePort{
			Name:       "https",
			Port:       types.DefaultHTTPSPort,
			TargetPort: intstr.FromInt(types.DefaultHTTPSPort),
		}
	}

	return &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{
			Name:   keycloakAppName,
			Labels: map[string]string{"app": keycloakAppName},
		},
		Spec: corev1.ServiceSpec{
			Selector: map[string]string{"app": keycloakAppName},
			Ports:    []corev1.ServicePort{port},
		},
	}
}

func postgresDeployment() *appsv1.Deployment {
	labels := map[string]string{"app": postgresAppName}
	replicas := int32(1)

	return &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{
			Name:   postgresAppName,
			Labels: labels,
		},
		Spec: appsv1.DeploymentSpec{
			Replicas: &replicas,
			Selector: &metav1.LabelSelector{MatchLabels: labels},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: labels},
				Spec: corev1.PodSpec{
					Containers: []corev1.Container{
						{
							Name:  "postgres",
							Image: postgresImage,
							Env: []corev1.EnvVar{
								{Name: "POSTGRES_DB", Value: postgresDatabase},
								{Name: "POSTGRES_USER", Value: postgresUser},
								{
									Name: "POSTGRES_PASSWORD",
									ValueFrom: &corev1.EnvVarSource{
										SecretKeyRef: &corev1.SecretKeySelector{
											LocalObjectReference: corev1.LocalObjectReference{
												Name: PostgresSecretName,
											},
											Key: "password",
										},
									},
								},
							},
							Ports: []corev1.ContainerPort{
								{Name: "postgres", ContainerPort: 5432},
							},
						},
					},
				},
			},
		},
	}
}

func postgresService() *corev1.Service {
	return &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{
			Name:   postgresAppName,
			Labels: map[string]string{"app": postgresAppName},
		},
		Spec: corev1.ServiceSpec{
			Selector: map[string]string{"app": postgresAppName},
			Ports: []corev1.ServicePort{
				{
					Name:       "postgres",
					Port:       5432,
					TargetPort: intstr.FromInt(5432),
				},
			},
		},
	}
}
