package utils

import "strings"

func Ptr[T any](v T) *T {
	return &v
}

// TrimmedOrNil обрезает пробелы и превращает пустую строку в nil.
func TrimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
