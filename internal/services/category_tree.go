package services

import "theater-warehouse/internal/entities"

// DedupCategories за один проход отбрасывает запись, если её id или имя уже встречались.
// Остаётся первое вхождение, порядок сохраняется.
func DedupCategories(items []entities.Category) []entities.Category {
	seenIDs := make(map[uint64]struct{}, len(items))
	seenNames := make(map[string]struct{}, len(items))
	out := make([]entities.Category, 0, len(items))
	for _, c := range items {
		if _, ok := seenIDs[c.ID]; ok {
			continue
		}
		if _, ok := seenNames[c.Name]; ok && c.Name != "" {
			continue
		}
		seenIDs[c.ID] = struct{}{}
		if c.Name != "" {
			seenNames[c.Name] = struct{}{}
		}
		out = append(out, c)
	}
	return out
}

// BuildCategoryTree собирает двухуровневое дерево из плоского списка.
// Корни дедуплицируются между собой, подкатегории - отдельно внутри каждого родителя.
// Подкатегории без существующего корня в дерево не попадают.
func BuildCategoryTree(flat []entities.Category) []entities.CategoryNode {
	var roots, subs []entities.Category
	for _, c := range flat {
		if c.IsRoot() {
			roots = append(roots, c)
		} else {
			subs = append(subs, c)
		}
	}
	roots = DedupCategories(roots)

	index := make(map[uint64]int, len(roots))
	nodes := make([]entities.CategoryNode, len(roots))
	for i, root := range roots {
		index[root.ID] = i
		nodes[i] = entities.CategoryNode{Category: root, Subcategories: []entities.Category{}}
	}

	for _, sub := range subs {
		parentID, _ := sub.Placement.ParentID()
		i, ok := index[parentID]
		if !ok {
			continue
		}
		nodes[i].Subcategories = append(nodes[i].Subcategories, sub)
	}
	for i := range nodes {
		nodes[i].Subcategories = DedupCategories(nodes[i].Subcategories)
	}
	return nodes
}
