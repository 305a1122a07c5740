package entities

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlacement(t *testing.T) {
	root := RootPlacement()
	assert.True(t, root.IsRoot())
	assert.Nil(t, root.ParentPtr())

	sub := SubPlacement(3)
	id, ok := sub.ParentID()
	assert.True(t, ok)
	assert.Equal(t, uint64(3), id)
	assert.Equal(t, sub, PlacementFromParent(&id))
	assert.Equal(t, root, PlacementFromParent(nil))
}

func TestCategoryJSON(t *testing.T) {
	raw, err := json.Marshal(Category{ID: 2, Name: "Static", Placement: SubPlacement(1), EquipmentCount: 3})
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.Equal(t, float64(1), fields["parent_id"])
	assert.Equal(t, float64(3), fields["equipment_count"])

	raw, err = json.Marshal(Category{ID: 1, Name: "Lighting", Placement: RootPlacement()})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"parent_id":null`)

	var back Category
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.True(t, back.IsRoot())
	assert.Equal(t, "Lighting", back.Name)
}

func TestCategoryNodeJSON(t *testing.T) {
	raw, err := json.Marshal(CategoryNode{Category: Category{ID: 1, Name: "Lighting", Placement: RootPlacement()}})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"subcategories":[]`)

	node := CategoryNode{
		Category:      Category{ID: 1, Name: "Lighting", Placement: RootPlacement()},
		Subcategories: []Category{{ID: 2, Name: "Static", Placement: SubPlacement(1)}},
	}
	raw, err = json.Marshal(node)
	require.NoError(t, err)

	var back CategoryNode
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, uint64(1), back.ID)
	require.Len(t, back.Subcategories, 1)
	parent, ok := back.Subcategories[0].Placement.ParentID()
	assert.True(t, ok)
	assert.Equal(t, uint64(1), parent)
}
