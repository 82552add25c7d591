package docker

import (
	"testing"

	dockerTypes "github.com/docker/docker/api/types"
)

func TestProduceGenericContainerList(t *testing.T) {
	input := []dockerTypes.Container{
		{
			Names: []string{"/keycloak"},
			ID:    "4c01db0b339c4c01db0b339c4c01db0b339c",
			Image: "quay.io/keycloak/keycloak:26.0.7",
			State: "running",
		},
		{
			// some runtimes hand out short ids
			Names: []string{"/kc-short"},
			ID:    "4c01db0b",
			Image: "quay.io/keycloak/keycloak:26.0.7",
			State: "exited",
		},
	}

	got := produceGenericContainerList(input)
	if len(got) != 2 {
		t.Fatalf("got %d containers, want 2", len(got))
	}
	if got[0].ShortID != "4c01db0b339c" {
		t.Errorf("ShortID = %q, want the first 12 chars", got[0].ShortID)
	}
	if got[1].ShortID != "4c01db0b" {
		t.Errorf("ShortID = %q, short ids must pass through unchanged", got[1].ShortID)
	}
	if got[0].Name() != "keycloak" {
		t.Errorf("Name() = %q, want keycloak", got[0].Name())
	}
}
