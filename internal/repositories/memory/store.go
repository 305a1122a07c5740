// Package memory реализует интерфейсы хранилищ в памяти процесса.
// Используется для демо-режима (STORAGE_DRIVER=memory) и в тестах.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"theater-warehouse/internal/authz"
	"theater-warehouse/internal/entities"
	"theater-warehouse/internal/repositories"
	apperrors "theater-warehouse/pkg/errors"
)

var (
	_ repositories.CategoryRepositoryInterface  = (*Store)(nil)
	_ repositories.EquipmentRepositoryInterface = (*Store)(nil)
	_ repositories.HistoryRepositoryInterface   = (*Store)(nil)
	_ repositories.MovementRepositoryInterface  = (*Store)(nil)
	_ repositories.UserRepositoryInterface      = (*Store)(nil)
)

type sequences struct {
	category, equipment, history, movement, user uint64
}

type Store struct {
	mu         sync.RWMutex
	categories map[uint64]entities.Category
	equipment  map[uint64]entities.Equipment
	history    []entities.HistoryEntry
	movements  []entities.Movement
	users      map[uint64]entities.User
	seq        sequences

	now      func() time.Time
	lastTick time.Time
}

func New() *Store {
	return &Store{
		categories: make(map[uint64]entities.Category),
		equipment:  make(map[uint64]entities.Equipment),
		users:      make(map[uint64]entities.User),
		now:        time.Now,
	}
}

// tick возвращает строго возрастающее время, чтобы порядок по updated_at/created_at был однозначным.
func (s *Store) tick() time.Time {
	t := s.now().UTC()
	if !t.After(s.lastTick) {
		t = s.lastTick.Add(time.Microsecond)
	}
	s.lastTick = t
	return t
}

func ptr[T any](v T) *T { return &v }

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	return ptr(*v)
}

func cloneUint(v *uint64) *uint64 {
	if v == nil {
		return nil
	}
	return ptr(*v)
}

// ============================================================
// Категории
// ============================================================

func (s *Store) countRefsLocked(id uint64) int {
	total := 0
	for _, e := range s.equipment {
		if e.CategoryID == id || (e.SubcategoryID != nil && *e.SubcategoryID == id) {
			total++
		}
	}
	return total
}

func (s *Store) countChildrenLocked(id uint64) int {
	total := 0
	for _, c := range s.categories {
		if parentID, ok := c.Placement.ParentID(); ok && parentID == id {
			total++
		}
	}
	return total
}

func (s *Store) withCount(c entities.Category) entities.Category {
	c.EquipmentCount = s.countRefsLocked(c.ID)
	return c
}

func (s *Store) nameTakenLocked(name string, placement entities.Placement, exceptID uint64) bool {
	for _, c := range s.categories {
		if c.ID != exceptID && c.Name == name && c.Placement == placement {
			return true
		}
	}
	return false
}

func (s *Store) GetCategories(_ context.Context) ([]entities.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]entities.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, s.withCount(c))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsRoot() != out[j].IsRoot() {
			return out[i].IsRoot()
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) FindCategory(_ context.Context, id uint64) (*entities.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return ptr(s.withCount(c)), nil
}

func (s *Store) FindCategoryByName(_ context.Context, name string, placement entities.Placement) (*entities.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.categories {
		if c.Name == name && c.Placement == placement {
			return ptr(s.withCount(c)), nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (s *Store) CreateCategory(_ context.Context, category entities.Category) (*entities.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if parentID, ok := category.Placement.ParentID(); ok {
		if _, exists := s.categories[parentID]; !exists {
			return nil, fmt.Errorf("родительская категория %d: %w", parentID, apperrors.ErrConflict)
		}
	}
	if s.nameTakenLocked(category.Name, category.Placement, 0) {
		return nil, fmt.Errorf("категория %q уже существует: %w", category.Name, apperrors.ErrConflict)
	}

	s.seq.category++
	category.ID = s.seq.category
	category.CreatedAt = s.tick()
	category.EquipmentCount = 0
	s.categories[category.ID] = category
	return ptr(category), nil
}

func (s *Store) UpdateCategory(_ context.Context, category entities.Category) (*entities.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.categories[category.ID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if s.nameTakenLocked(category.Name, category.Placement, category.ID) {
		return nil, fmt.Errorf("категория %q уже существует: %w", category.Name, apperrors.ErrConflict)
	}
	current.Name = category.Name
	current.Placement = category.Placement
	s.categories[current.ID] = current
	return ptr(s.withCount(current)), nil
}

func (s *Store) DeleteCategory(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[id]; !ok {
		return apperrors.ErrNotFound
	}
	children, refs := s.countChildrenLocked(id), s.countRefsLocked(id)
	if children > 0 || refs > 0 {
		return fmt.Errorf("категория %d используется (подкатегорий: %d, оборудования: %d): %w", id, children, refs, apperrors.ErrConflict)
	}
	delete(s.categories, id)
	return nil
}

func (s *Store) CountChildren(_ context.Context, id uint64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countChildrenLocked(id), nil
}

func (s *Store) CountEquipmentRefs(_ context.Context, id uint64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countRefsLocked(id), nil
}

// ============================================================
// Оборудование
// ============================================================

func (s *Store) joinEquipmentLocked(e entities.Equipment) entities.Equipment {
	e.Description = cloneString(e.Description)
	e.InventoryNumber = cloneString(e.InventoryNumber)
	e.Performance = cloneString(e.Performance)
	e.SubcategoryID = cloneUint(e.SubcategoryID)
	e.CreatedBy = cloneUint(e.CreatedBy)
	e.CategoryName, e.SubcategoryName, e.CreatedByName = nil, nil, nil

	if c, ok := s.categories[e.CategoryID]; ok {
		e.CategoryName = ptr(c.Name)
	}
	if e.SubcategoryID != nil {
		if c, ok := s.categories[*e.SubcategoryID]; ok {
			e.SubcategoryName = ptr(c.Name)
		}
	}
	if e.CreatedBy != nil {
		if u, ok := s.users[*e.CreatedBy]; ok {
			e.CreatedByName = ptr(u.Username)
		}
	}
	return e
}

func (s *Store) checkEquipmentLocked(e entities.Equipment) error {
	if _, ok := s.categories[e.CategoryID]; !ok {
		return fmt.Errorf("категория %d: %w", e.CategoryID, apperrors.ErrConflict)
	}
	if e.SubcategoryID != nil {
		if _, ok := s.categories[*e.SubcategoryID]; !ok {
			return fmt.Errorf("подкатегория %d: %w", *e.SubcategoryID, apperrors.ErrConflict)
		}
	}
	if e.InventoryNumber != nil {
		for _, other := range s.equipment {
			if other.ID != e.ID && other.InventoryNumber != nil && *other.InventoryNumber == *e.InventoryNumber {
				return fmt.Errorf("инвентарный номер %q уже занят: %w", *e.InventoryNumber, apperrors.ErrConflict)
			}
		}
	}
	return nil
}

func containsFold(value *string, needle string) bool {
	return value != nil && strings.Contains(strings.ToLower(*value), needle)
}

func matchesEquipment(e entities.Equipment, f entities.EquipmentFilter) bool {
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !containsFold(&e.Name, needle) && !containsFold(e.Description, needle) && !containsFold(e.InventoryNumber, needle) {
			return false
		}
	}
	if f.CategoryID != nil && e.CategoryID != *f.CategoryID {
		return false
	}
	if f.SubcategoryID != nil && (e.SubcategoryID == nil || *e.SubcategoryID != *f.SubcategoryID) {
		return false
	}
	if f.Status != nil && e.Status != *f.Status {
		return false
	}
	if f.Condition != nil && e.Condition != *f.Condition {
		return false
	}
	if f.Performance != nil && (e.Performance == nil || *e.Performance != *f.Performance) {
		return false
	}
	return true
}

func (s *Store) GetEquipments(_ context.Context, filter entities.EquipmentFilter) ([]entities.Equipment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]entities.Equipment, 0)
	for _, e := range s.equipment {
		if matchesEquipment(e, filter) {
			out = append(out, s.joinEquipmentLocked(e))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) FindEquipment(_ context.Context, id uint64) (*entities.Equipment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.equipment[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return ptr(s.joinEquipmentLocked(e)), nil
}

func (s *Store) FindEquipmentByInventoryNumber(_ context.Context, inventoryNumber string) (*entities.Equipment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.equipment {
		if e.InventoryNumber != nil && *e.InventoryNumber == inventoryNumber {
			return ptr(s.joinEquipmentLocked(e)), nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (s *Store) CreateEquipment(_ context.Context, e entities.Equipment) (*entities.Equipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e.ID = 0
	if err := s.checkEquipmentLocked(e); err != nil {
		return nil, err
	}
	s.seq.equipment++
	e.ID = s.seq.equipment
	e.CreatedAt = s.tick()
	e.UpdatedAt = e.CreatedAt
	stored := s.joinEquipmentLocked(e).Snapshot()
	s.equipment[e.ID] = stored
	return ptr(s.joinEquipmentLocked(stored)), nil
}

func (s *Store) UpdateEquipment(_ context.Context, e entities.Equipment) (*entities.Equipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.equipment[e.ID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if err := s.checkEquipmentLocked(e); err != nil {
		return nil, err
	}
	e.CreatedAt = current.CreatedAt
	e.CreatedBy = current.CreatedBy
	e.UpdatedAt = s.tick()
	stored := s.joinEquipmentLocked(e).Snapshot()
	s.equipment[e.ID] = stored
	return ptr(s.joinEquipmentLocked(stored)), nil
}

func (s *Store) UpdateEquipmentLocation(_ context.Context, id uint64, location string) (*entities.Equipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.equipment[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	current.StorageLocation = location
	current.UpdatedAt = s.tick()
	s.equipment[id] = current
	return ptr(s.joinEquipmentLocked(current)), nil
}

func (s *Store) DeleteEquipment(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.equipment[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(s.equipment, id)
	return nil
}

// ============================================================
// История и перемещения
// ============================================================

func (s *Store) AppendHistory(_ context.Context, entry entities.HistoryEntry) (*entities.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq.history++
	entry.ID = s.seq.history
	entry.CreatedAt = s.tick()
	entry.OldValue = cloneString(entry.OldValue)
	entry.NewValue = cloneString(entry.NewValue)
	entry.EquipmentName, entry.UserName = nil, nil
	s.history = append(s.history, entry)
	return ptr(entry), nil
}

func (s *Store) GetHistory(_ context.Context, filter entities.HistoryFilter) ([]entities.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]entities.HistoryEntry, 0)
	// записи добавляются в порядке времени, поэтому обход с конца даёт created_at DESC
	for i := len(s.history) - 1; i >= 0; i-- {
		h := s.history[i]
		if filter.EquipmentID != nil && h.EquipmentID != *filter.EquipmentID {
			continue
		}
		if filter.UserID != nil && h.UserID != *filter.UserID {
			continue
		}
		h.OldValue = cloneString(h.OldValue)
		h.NewValue = cloneString(h.NewValue)
		if e, ok := s.equipment[h.EquipmentID]; ok {
			h.EquipmentName = ptr(e.Name)
		}
		if u, ok := s.users[h.UserID]; ok {
			h.UserName = ptr(u.Username)
		}
		out = append(out, h)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (s *Store) CreateMovement(_ context.Context, m entities.Movement) (*entities.Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq.movement++
	m.ID = s.seq.movement
	m.CreatedAt = s.tick()
	m.FromLocation = cloneString(m.FromLocation)
	m.Reason = cloneString(m.Reason)
	s.movements = append(s.movements, m)
	return ptr(m), nil
}

func (s *Store) GetMovementsByEquipment(_ context.Context, equipmentID uint64) ([]entities.Movement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]entities.Movement, 0)
	for i := len(s.movements) - 1; i >= 0; i-- {
		if m := s.movements[i]; m.EquipmentID == equipmentID {
			m.FromLocation = cloneString(m.FromLocation)
			m.Reason = cloneString(m.Reason)
			out = append(out, m)
		}
	}
	return out, nil
}

// ============================================================
// Пользователи
// ============================================================

func (s *Store) CreateUser(_ context.Context, user entities.User) (*entities.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == user.Username || u.Email == user.Email {
			return nil, fmt.Errorf("пользователь %q уже существует: %w", user.Username, apperrors.ErrConflict)
		}
	}
	s.seq.user++
	user.ID = s.seq.user
	user.CreatedAt = s.tick()
	user.UpdatedAt = user.CreatedAt
	s.users[user.ID] = user
	return ptr(user), nil
}

func (s *Store) FindUserByID(_ context.Context, id uint64) (*entities.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return ptr(u), nil
}

func (s *Store) findUser(match func(entities.User) bool) (*entities.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if match(u) {
			return ptr(u), nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (s *Store) FindUserByUsername(_ context.Context, username string) (*entities.User, error) {
	return s.findUser(func(u entities.User) bool { return u.Username == username })
}

func (s *Store) FindUserByEmail(_ context.Context, email string) (*entities.User, error) {
	return s.findUser(func(u entities.User) bool { return u.Email == email })
}

func (s *Store) GetUsers(_ context.Context) ([]entities.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entities.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) UpdateUserRole(_ context.Context, id uint64, role authz.Role) (*entities.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	u.Role = role
	u.UpdatedAt = s.tick()
	s.users[id] = u
	return ptr(u), nil
}
