// Copyright 2024 kcstack authors
// Licensed under the BSD 3-Clause License.
// SPDX-License-Identifier: BSD-3-Clause

// Package kube deploys keycloak to a kubernetes cluster: it manages the
// keycloak namespace, the TLS secret holding the server certificate, the
// dev-mode manifests and the bundled helm chart.
package kube

import (
	"context"
	"fmt"
	"path/filepath"

	homedir "github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"
)

// Client wraps a kubernetes clientset scoped to the keycloak namespace.
type Client struct {
	clientset  kubernetes.Interface
	namespace  string
	kubeconfig string
}

// NewClient builds a client from a kubeconfig path. An empty path falls
// back to ~/.kube/config.
func NewClient(kubeconfig, namespace string) (*Client, error) {
	var err error

	if kubeconfig == "" {
		home, err := homedir.Dir()
		if err != nil {
			return nil, err
		}
		kubeconfig = filepath.Join(home, ".kube", "config")
	}

	kubeconfig, err = homedir.Expand(kubeconfig)
	if err != nil {
		return nil, err
	}

	restCfg, err := clientcmd.BuildConfigFromFlags("", kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("failed to load kubeconfig %s: %w", kubeconfig, err)
	}

	clientset, err := kubernetes.NewForConfig(restCfg)
	if err != nil {
		return nil, err
	}

	return &Client{
		clientset:  clientset,
		namespace:  namespace,
		kubeconfig: kubeconfig,
	}, nil
}

// NewClientForTesting creates a client around an existing clientset.
func NewClientForTesting(clientset kubernetes.Interface, namespace string) *Client {
	return &Client{clientset: clientset, namespace: namespace}
}

// Namespace returns the namespace the client operates in.
func (c *Client) Namespace() string { return c.namespace }

// Kubeconfig returns the kubeconfig path the client was built from.
func (c *Client) Kubeconfig() string { return c.kubeconfig }

// EnsureNamespace creates the namespace unless it already exists.
func (c *Client) EnsureNamespace(ctx context.Context) error {
	_, err := c.clientset.CoreV1().Namespaces().Get(ctx, c.namespace, metav1.GetOptions{})
	if err == nil {
		log.Debugf("namespace %q exists", c.namespace)
		return nil
	}
	if !apierrors.IsNotFound(err) {
		return err
	}

	log.Infof("Creating namespace %q", c.namespace)
	_, err = c.clientset.CoreV1().Namespaces().Create(ctx, &corev1.Namespace{
		ObjectMeta: metav1.ObjectMeta{Name: c.namespace},
	}, metav1.CreateOptions{})
	if apierrors.IsAlreadyExists(err) {
		return nil
	}
	return err
}
