package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAPICompatible(t *testing.T) {
	tests := []struct {
		name   string
		host   []string
		plugin []string
		want   bool
	}{
		{"exact match", []string{"3.0"}, []string{"3.0"}, true},
		{"one of several", []string{"3.0", "3.1"}, []string{"2.9", "3.1"}, true},
		{"v prefix accepted", []string{"3.0"}, []string{"v3.0"}, true},
		{"patch level ignored", []string{"3.0"}, []string{"3.0.4"}, true},
		{"minor mismatch", []string{"3.1"}, []string{"3.0"}, false},
		{"major mismatch", []string{"3.0"}, []string{"2.0"}, false},
		{"empty plugin list", []string{"3.0"}, nil, false},
		{"garbage version", []string{"3.0"}, []string{"latest"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apiCompatible(tt.host, tt.plugin))
		})
	}
}

func TestAPIInRange(t *testing.T) {
	host := []string{"3.0", "3.1"}
	tests := []struct {
		name     string
		min, max string
		want     bool
	}{
		{"open bounds", "", "", true},
		{"min only satisfied", "3.0", "", true},
		{"min only too high", "4.0", "", false},
		{"max only satisfied", "", "3.0", true},
		{"max only too low", "", "2.0", false},
		{"inside range", "3.0", "3.1", true},
		{"range below host", "1.0", "2.0", false},
		{"range above host", "4.0", "5.0", false},
		{"v prefix accepted", "v3.1", "v3.1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apiInRange(host, tt.min, tt.max))
		})
	}
}

func TestCanonVersion(t *testing.T) {
	assert.Equal(t, "v3.0", canonVersion("3.0"))
	assert.Equal(t, "v3.0", canonVersion("v3.0"))
	assert.Equal(t, "v3.0", canonVersion(" 3.0 "))
	assert.Equal(t, "", canonVersion(""))
}
