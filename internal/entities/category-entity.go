package entities

import (
	"encoding/json"
	"time"
)

type placementKind uint8

const (
	placementRoot placementKind = iota
	placementSub
)

// Placement - положение категории в двухуровневом дереве: корень либо подкатегория корня.
// Третьего уровня тип не допускает.
type Placement struct {
	kind     placementKind
	parentID uint64
}

func RootPlacement() Placement {
	return Placement{kind: placementRoot}
}

func SubPlacement(parentID uint64) Placement {
	return Placement{kind: placementSub, parentID: parentID}
}

// PlacementFromParent переводит nullable parent_id из хранилища или запроса в Placement.
func PlacementFromParent(parentID *uint64) Placement {
	if parentID == nil {
		return RootPlacement()
	}
	return SubPlacement(*parentID)
}

func (p Placement) IsRoot() bool { return p.kind == placementRoot }

func (p Placement) ParentID() (uint64, bool) {
	if p.kind == placementSub {
		return p.parentID, true
	}
	return 0, false
}

func (p Placement) ParentPtr() *uint64 {
	if id, ok := p.ParentID(); ok {
		return &id
	}
	return nil
}

type Category struct {
	ID             uint64
	Name           string
	Placement      Placement
	EquipmentCount int
	CreatedAt      time.Time
}

func (c Category) IsRoot() bool { return c.Placement.IsRoot() }

type categoryJSON struct {
	ID             uint64    `json:"id"`
	Name           string    `json:"name"`
	ParentID       *uint64   `json:"parent_id"`
	EquipmentCount int       `json:"equipment_count"`
	CreatedAt      time.Time `json:"created_at"`
}

func (c Category) toJSON() categoryJSON {
	return categoryJSON{
		ID:             c.ID,
		Name:           c.Name,
		ParentID:       c.Placement.ParentPtr(),
		EquipmentCount: c.EquipmentCount,
		CreatedAt:      c.CreatedAt,
	}
}

func (c Category) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.toJSON())
}

func (c *Category) UnmarshalJSON(data []byte) error {
	var raw categoryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = Category{
		ID:             raw.ID,
		Name:           raw.Name,
		Placement:      PlacementFromParent(raw.ParentID),
		EquipmentCount: raw.EquipmentCount,
		CreatedAt:      raw.CreatedAt,
	}
	return nil
}

// CategoryNode - корневая категория со списком подкатегорий.
type CategoryNode struct {
	Category
	Subcategories []Category
}

type categoryNodeJSON struct {
	categoryJSON
	Subcategories []Category `json:"subcategories"`
}

func (n CategoryNode) MarshalJSON() ([]byte, error) {
	subs := n.Subcategories
	if subs == nil {
		subs = []Category{}
	}
	return json.Marshal(categoryNodeJSON{categoryJSON: n.Category.toJSON(), Subcategories: subs})
}

func (n *CategoryNode) UnmarshalJSON(data []byte) error {
	var raw categoryNodeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	n.Category = Category{
		ID:             raw.ID,
		Name:           raw.Name,
		Placement:      PlacementFromParent(raw.ParentID),
		EquipmentCount: raw.EquipmentCount,
		CreatedAt:      raw.CreatedAt,
	}
	n.Subcategories = raw.Subcategories
	return nil
}
