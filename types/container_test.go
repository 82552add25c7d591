package types

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFilterFromLabelStrings(t *testing.T) {
	tests := []struct {
		name   string
		labels []string
		want   []*GenericFilter
	}{
		{
			name:   "key value pair",
			labels: []string{"kcstack-node-name=keycloak"},
			want: []*GenericFilter{
				{FilterType: "label", Field: "kcstack-node-name", Operator: "=", Match: "keycloak"},
			},
		},
		{
			name:   "existence check",
			labels: []string{"kcstack"},
			want: []*GenericFilter{
				{FilterType: "label", Field: "kcstack", Operator: "exists"},
			},
		},
		{
			name:   "mixed",
			labels: []string{"kcstack", "kcstack-node-name=kc"},
			want: []*GenericFilter{
				{FilterType: "label", Field: "kcstack", Operator: "exists"},
				{FilterType: "label", Field: "kcstack-node-name", Operator: "=", Match: "kc"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterFromLabelStrings(tt.labels)
			if d := cmp.Diff(tt.want, got); d != "" {
				t.Errorf("FilterFromLabelStrings() mismatch (-want +got):\n%s", d)
			}
		})
	}
}

func TestGenericContainerName(t *testing.T) {
	tests := []struct {
		name string
		gc   GenericContainer
		want string
	}{
		{
			name: "docker style leading slash",
			gc:   GenericContainer{Names: []string{"/keycloak"}},
			want: "keycloak",
		},
		{
			name: "plain name",
			gc:   GenericContainer{Names: []string{"keycloak"}},
			want: "keycloak",
		},
		{
			name: "no names falls back to short id",
			gc:   GenericContainer{ShortID: "deadbeef1234"},
			want: "deadbeef1234",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.gc.Name(); got != tt.want {
				t.Errorf("Name() = %q, want %q", got, tt.want)
			}
		})
	}
}
