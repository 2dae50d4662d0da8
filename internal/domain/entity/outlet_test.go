package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllOutlets_Count(t *testing.T) {
	outlets := AllOutlets()
	assert.Len(t, outlets, 16)
}

func TestGetOutlet_Known(t *testing.T) {
	o, ok := GetOutlet(OutletElPais)
	assert.True(t, ok)
	assert.Equal(t, "El País", o.DisplayName)
	assert.NotEmpty(t, o.FeedURL)
}

func TestGetOutlet_Unknown(t *testing.T) {
	_, ok := GetOutlet("nonexistent")
	assert.False(t, ok)
}

func TestLoadOutletRegistry_ReplacesDefaults(t *testing.T) {
	defer LoadOutletRegistry(AllOutlets())

	custom := []Outlet{{Tag: "custom", DisplayName: "Custom Outlet", FeedURL: "https://example.com/rss"}}
	LoadOutletRegistry(custom)

	o, ok := GetOutlet("custom")
	assert.True(t, ok)
	assert.Equal(t, "Custom Outlet", o.DisplayName)

	_, ok = GetOutlet(OutletElPais)
	assert.False(t, ok)
}

func TestLoadOutletRegistry_EmptyIsNoop(t *testing.T) {
	defer LoadOutletRegistry(AllOutlets())

	LoadOutletRegistry(nil)
	_, ok := GetOutlet(OutletRTVE)
	assert.True(t, ok)
}
