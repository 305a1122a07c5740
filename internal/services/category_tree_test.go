package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"theater-warehouse/internal/entities"
)

func root(id uint64, name string) entities.Category {
	return entities.Category{ID: id, Name: name, Placement: entities.RootPlacement()}
}

func sub(id uint64, name string, parent uint64) entities.Category {
	return entities.Category{ID: id, Name: name, Placement: entities.SubPlacement(parent)}
}

func TestDedupCategories(t *testing.T) {
	t.Run("оставляет первое вхождение по id", func(t *testing.T) {
		out := DedupCategories([]entities.Category{root(1, "A"), root(1, "A-copy"), root(2, "B")})
		require.Len(t, out, 2)
		assert.Equal(t, "A", out[0].Name)
		assert.Equal(t, "B", out[1].Name)
	})

	t.Run("отбрасывает повтор имени с другим id", func(t *testing.T) {
		out := DedupCategories([]entities.Category{root(1, "Свет"), root(7, "Свет"), root(3, "Звук")})
		require.Len(t, out, 2)
		assert.Equal(t, uint64(1), out[0].ID)
		assert.Equal(t, uint64(3), out[1].ID)
	})

	t.Run("пустые имена не считаются дубликатами", func(t *testing.T) {
		out := DedupCategories([]entities.Category{root(1, ""), root(2, "")})
		assert.Len(t, out, 2)
	})

	t.Run("сохраняет порядок", func(t *testing.T) {
		out := DedupCategories([]entities.Category{root(3, "C"), root(1, "A"), root(2, "B")})
		assert.Equal(t, []uint64{3, 1, 2}, []uint64{out[0].ID, out[1].ID, out[2].ID})
	})
}

func TestBuildCategoryTree(t *testing.T) {
	flat := []entities.Category{
		root(1, "Световое оборудование"),
		sub(2, "Статические приборы", 1),
		sub(3, "Динамические приборы", 1),
		root(4, "Электробутафория"),
		sub(5, "220v", 4),
		root(9, "Электробутафория"),
		sub(10, "Статические приборы", 1),
		sub(11, "Сирота", 99),
		sub(12, "220v", 1),
	}

	tree := BuildCategoryTree(flat)
	require.Len(t, tree, 2)

	assert.Equal(t, "Световое оборудование", tree[0].Name)
	require.Len(t, tree[0].Subcategories, 3)
	assert.Equal(t, "Статические приборы", tree[0].Subcategories[0].Name)
	assert.Equal(t, uint64(2), tree[0].Subcategories[0].ID)
	assert.Equal(t, "220v", tree[0].Subcategories[2].Name, "одинаковое имя у разных родителей допустимо")

	assert.Equal(t, uint64(4), tree[1].ID)
	require.Len(t, tree[1].Subcategories, 1)
	assert.Equal(t, "220v", tree[1].Subcategories[0].Name)
}

func TestBuildCategoryTree_EmptySubcategoriesIsArray(t *testing.T) {
	tree := BuildCategoryTree([]entities.Category{root(1, "Мастерская")})
	require.Len(t, tree, 1)
	assert.NotNil(t, tree[0].Subcategories)
	assert.Empty(t, tree[0].Subcategories)
}
