package seeders

import "theater-warehouse/internal/entities"

const (
	adminUsername = "admin"
	adminEmail    = "admin@theater.com"
	adminPassword = "admin123"
)

// demoCategories - плоский справочник с временными id. Хвост намеренно повторяет начало:
// так выглядят данные после повторного наполнения, и дерево строится с дедупликацией.
var demoCategories = []entities.Category{
	{ID: 1, Name: "Световое оборудование", Placement: entities.RootPlacement()},
	{ID: 2, Name: "Статические приборы", Placement: entities.SubPlacement(1)},
	{ID: 3, Name: "Динамические приборы", Placement: entities.SubPlacement(1)},
	{ID: 4, Name: "Электробутафория", Placement: entities.RootPlacement()},
	{ID: 5, Name: "220v", Placement: entities.SubPlacement(4)},
	{ID: 6, Name: "3-24v", Placement: entities.SubPlacement(4)},
	{ID: 7, Name: "Дым машины", Placement: entities.RootPlacement()},
	{ID: 8, Name: "Мастерская", Placement: entities.RootPlacement()},

	{ID: 1, Name: "Световое оборудование", Placement: entities.RootPlacement()},
	{ID: 9, Name: "Электробутафория", Placement: entities.RootPlacement()},
	{ID: 10, Name: "Статические приборы", Placement: entities.SubPlacement(1)},
}

type demoItem struct {
	Name            string
	Description     string
	Category        string
	Subcategory     string
	InventoryNumber string
	Condition       entities.Condition
	Status          entities.Status
	StorageLocation string
	Performance     string
	Quantity        int
}

var demoEquipment = []demoItem{
	{
		Name:            "Прожектор PAR64",
		Description:     "Светодиодный прожектор с цветными фильтрами",
		Category:        "Световое оборудование",
		Subcategory:     "Статические приборы",
		InventoryNumber: "SP-001",
		Condition:       entities.ConditionExcellent,
		Status:          entities.StatusAvailable,
		StorageLocation: "Склад А, полка 1",
		Performance:     "Лебединое озеро",
		Quantity:        2,
	},
	{
		Name:            "Сканер лазерный",
		Description:     "Лазерный сканер для световых эффектов",
		Category:        "Световое оборудование",
		Subcategory:     "Динамические приборы",
		InventoryNumber: "DP-002",
		Condition:       entities.ConditionGood,
		Status:          entities.StatusInUse,
		StorageLocation: "Сцена, левая сторона",
		Performance:     "Щелкунчик",
		Quantity:        1,
	},
	{
		Name:            "Дым-машина Antari",
		Description:     "Профессиональная дым-машина",
		Category:        "Дым машины",
		InventoryNumber: "DM-001",
		Condition:       entities.ConditionGood,
		Status:          entities.StatusMaintenance,
		StorageLocation: "Мастерская",
		Quantity:        1,
	},
}
