package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientInMessageValidate(t *testing.T) {
	m := ClientInMessage{Type: MessageTypeStartupDone, Version: ProtocolVersion, Name: "host/user"}
	assert.NoError(t, m.Validate())
	m.Name = ""
	assert.True(t, IsValidation(m.Validate()))
	m.Name = "host/user"
	m.Version = ""
	assert.True(t, IsValidation(m.Validate()))

	m = ClientInMessage{Type: MessageTypeSubscribe, Scope: SubscribeAllPlaces}
	assert.NoError(t, m.Validate())
	m.Scope = SubscribeAllResources
	assert.NoError(t, m.Validate())
	m.Scope = "everything"
	assert.True(t, IsValidation(m.Validate()))

	m = ClientInMessage{Type: MessageTypeSync, SyncID: 1}
	assert.NoError(t, m.Validate())
	m.SyncID = 0
	assert.True(t, IsValidation(m.Validate()))

	m = ClientInMessage{Type: "ping"}
	assert.True(t, IsValidation(m.Validate()))
}

func TestUpdateValidate(t *testing.T) {
	u := Update{Kind: UpdateKindPlace, Place: &Place{Name: "board-1"}}
	assert.NoError(t, u.Validate())
	u.Place = nil
	assert.True(t, IsValidation(u.Validate()))

	u = Update{Kind: UpdateKindPlaceDeleted, PlaceName: "board-1"}
	assert.NoError(t, u.Validate())
	u.PlaceName = ""
	assert.True(t, IsValidation(u.Validate()))

	u = Update{Kind: UpdateKindResource, Resource: &Resource{
		Path:  ResourcePath{"rack1", "main", "power"},
		Class: "NetworkPowerPort",
	}}
	assert.NoError(t, u.Validate())

	u = Update{Kind: UpdateKindResourceDeleted, Path: &ResourcePath{"rack1", "main", "power"}}
	assert.NoError(t, u.Validate())

	u = Update{Kind: "noop"}
	assert.True(t, IsValidation(u.Validate()))
}

func TestExporterOutMessageValidate(t *testing.T) {
	m := ExporterOutMessage{Type: MessageTypeStartupDone, Version: ProtocolVersion, Name: "rack1"}
	assert.NoError(t, m.Validate())

	m = ExporterOutMessage{Type: MessageTypeResource, Resource: &Resource{
		Path:  ResourcePath{"rack1", "main", "power"},
		Class: "NetworkPowerPort",
	}}
	assert.NoError(t, m.Validate())
	m.Resource = nil
	assert.True(t, IsValidation(m.Validate()))

	m = ExporterOutMessage{Type: MessageTypeResponse, Response: &Response{Success: true}}
	assert.NoError(t, m.Validate())
	m.Response = nil
	assert.True(t, IsValidation(m.Validate()))
}

func TestExporterInMessageValidate(t *testing.T) {
	m := ExporterInMessage{Type: MessageTypeHello, Version: ProtocolVersion}
	assert.NoError(t, m.Validate())
	m.Version = ""
	assert.True(t, IsValidation(m.Validate()))

	m = ExporterInMessage{Type: MessageTypeSetAcquired, SetAcquired: &SetAcquiredRequest{
		GroupName:    "main",
		ResourceName: "power",
		PlaceName:    "board-1",
	}}
	assert.NoError(t, m.Validate())
	m.SetAcquired.ResourceName = ""
	assert.True(t, IsValidation(m.Validate()))
	m.SetAcquired = nil
	assert.True(t, IsValidation(m.Validate()))
}

func TestSetAcquiredRequestRelease(t *testing.T) {
	// Empty place name means release.
	r := SetAcquiredRequest{GroupName: "main", ResourceName: "power"}
	assert.NoError(t, r.Validate())
}

func TestClientOutMessageJSON(t *testing.T) {
	in := ClientOutMessage{
		Type:   MessageTypeUpdates,
		SyncID: 7,
		Updates: []Update{
			{Kind: UpdateKindPlace, Place: &Place{Name: "board-1"}},
			{Kind: UpdateKindResourceDeleted, Path: &ResourcePath{"rack1", "main", "power"}},
		},
	}
	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out ClientOutMessage
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, uint64(7), out.SyncID)
	require.Len(t, out.Updates, 2)
	assert.Equal(t, "board-1", out.Updates[0].Place.Name)
	assert.Equal(t, "rack1/main/power", out.Updates[1].Path.String())
}
