package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"theater-warehouse/internal/dto"
	"theater-warehouse/internal/entities"
	apperrors "theater-warehouse/pkg/errors"
)

const equipmentSheet = "Оборудование"

var equipmentHeaders = []interface{}{
	"ID", "Наименование", "Инв. номер", "Категория", "Подкатегория",
	"Состояние", "Статус", "Место хранения", "Спектакль", "Количество", "Описание",
}

// Колонки, которые распознаются при импорте. Ключ - заголовок в нижнем регистре.
var importColumns = map[string]string{
	"наименование":     "name",
	"name":             "name",
	"инв. номер":       "inventory_number",
	"inventory_number": "inventory_number",
	"категория":        "category",
	"category":         "category",
	"подкатегория":     "subcategory",
	"subcategory":      "subcategory",
	"состояние":        "condition",
	"condition":        "condition",
	"статус":           "status",
	"status":           "status",
	"место хранения":   "storage_location",
	"storage_location": "storage_location",
	"спектакль":        "performance",
	"performance":      "performance",
	"количество":       "quantity",
	"quantity":         "quantity",
	"описание":         "description",
	"description":      "description",
}

// ExportEquipment выгружает отфильтрованный список в XLSX.
func (s *EquipmentService) ExportEquipment(ctx context.Context, filter entities.EquipmentFilter) (*bytes.Buffer, error) {
	items, err := s.equipmentRepo.GetEquipments(ctx, filter)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", equipmentSheet); err != nil {
		return nil, fmt.Errorf("ошибка подготовки листа: %w", err)
	}
	if err := f.SetSheetRow(equipmentSheet, "A1", &equipmentHeaders); err != nil {
		return nil, fmt.Errorf("ошибка записи заголовков: %w", err)
	}
	style, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	_ = f.SetCellStyle(equipmentSheet, "A1", "K1", style)

	for i, item := range items {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := equipmentRow(item)
		if err := f.SetSheetRow(equipmentSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("ошибка записи строки %d: %w", i+2, err)
		}
	}
	_ = f.SetColWidth(equipmentSheet, "B", "B", 35)
	_ = f.SetColWidth(equipmentSheet, "D", "E", 25)
	_ = f.SetColWidth(equipmentSheet, "H", "I", 25)
	_ = f.SetColWidth(equipmentSheet, "K", "K", 50)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("ошибка формирования XLSX: %w", err)
	}
	s.logger.Info("выгружено оборудование", zap.Int("rows", len(items)))
	return buf, nil
}

func equipmentRow(e entities.Equipment) []interface{} {
	return []interface{}{
		e.ID, e.Name, deref(e.InventoryNumber), deref(e.CategoryName), deref(e.SubcategoryName),
		string(e.Condition), string(e.Status), e.StorageLocation, deref(e.Performance), e.Quantity, deref(e.Description),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ImportEquipment создаёт записи из первого листа XLSX. Каждая строка проходит обычный конвейер создания,
// поэтому права, проверки и журнал истории те же, что и для POST /equipment.
// Строки с уже существующим инвентарным номером пропускаются.
func (s *EquipmentService) ImportEquipment(ctx context.Context, r io.Reader) (*dto.ImportResultDTO, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperrors.NewValidationError("Не удалось прочитать файл XLSX", nil)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.NewValidationError("Файл не содержит листов", nil)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, apperrors.NewValidationError("Не удалось прочитать строки файла", nil)
	}
	if len(rows) == 0 {
		return nil, apperrors.NewValidationError("Файл пуст", nil)
	}

	index := make(map[string]int)
	for i, title := range rows[0] {
		if key, ok := importColumns[strings.ToLower(strings.TrimSpace(title))]; ok {
			index[key] = i
		}
	}
	for _, required := range []string{"name", "category", "storage_location"} {
		if _, ok := index[required]; !ok {
			return nil, apperrors.NewValidationError(fmt.Sprintf("В файле нет обязательной колонки %q", required), nil)
		}
	}

	result := &dto.ImportResultDTO{Errors: []dto.ImportRowError{}}
	for i := 1; i < len(rows); i++ {
		line := i + 1
		get := func(key string) string {
			col, ok := index[key]
			if !ok || col >= len(rows[i]) {
				return ""
			}
			return strings.TrimSpace(rows[i][col])
		}
		if get("name") == "" && get("category") == "" {
			continue
		}

		payload, err := s.importRow(ctx, get)
		if err != nil {
			result.Errors = append(result.Errors, dto.ImportRowError{Row: line, Message: importMessage(err)})
			continue
		}
		if payload.InventoryNumber != nil {
			if _, err := s.equipmentRepo.FindEquipmentByInventoryNumber(ctx, *payload.InventoryNumber); err == nil {
				result.Skipped++
				continue
			}
		}
		if _, err := s.CreateEquipment(ctx, *payload); err != nil {
			if errors.Is(err, apperrors.ErrUnauthorized) || errors.Is(err, apperrors.ErrForbidden) {
				return nil, err
			}
			result.Errors = append(result.Errors, dto.ImportRowError{Row: line, Message: importMessage(err)})
			continue
		}
		result.Created++
	}

	s.logger.Info("импорт оборудования завершён",
		zap.Int("created", result.Created), zap.Int("skipped", result.Skipped), zap.Int("errors", len(result.Errors)))
	return result, nil
}

func (s *EquipmentService) importRow(ctx context.Context, get func(string) string) (*dto.CreateEquipmentDTO, error) {
	category, err := s.categoryRepo.FindCategoryByName(ctx, get("category"), entities.RootPlacement())
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewValidationError(fmt.Sprintf("Категория %q не найдена", get("category")), nil)
		}
		return nil, err
	}

	payload := &dto.CreateEquipmentDTO{
		Name:            get("name"),
		CategoryID:      category.ID,
		Condition:       valueOr(get("condition"), string(entities.ConditionGood)),
		Status:          valueOr(get("status"), string(entities.StatusAvailable)),
		StorageLocation: get("storage_location"),
		InventoryNumber: optionalCell(get("inventory_number")),
		Performance:     optionalCell(get("performance")),
		Description:     optionalCell(get("description")),
	}

	if name := get("subcategory"); name != "" {
		sub, err := s.categoryRepo.FindCategoryByName(ctx, name, entities.SubPlacement(category.ID))
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, apperrors.NewValidationError(fmt.Sprintf("Подкатегория %q не найдена в %q", name, category.Name), nil)
			}
			return nil, err
		}
		payload.SubcategoryID = &sub.ID
	}

	if raw := get("quantity"); raw != "" {
		q, err := strconv.Atoi(raw)
		if err != nil {
			return nil, apperrors.NewValidationError(fmt.Sprintf("Некорректное количество %q", raw), nil)
		}
		payload.Quantity = &q
	}
	return payload, nil
}

func importMessage(err error) string {
	var httpErr *apperrors.HttpError
	if errors.As(err, &httpErr) {
		return httpErr.Message
	}
	return err.Error()
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func optionalCell(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
