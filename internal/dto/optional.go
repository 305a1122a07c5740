package dto

import "encoding/json"

// Optional отличает отсутствующее поле от явного null в PUT-запросах.
// T - один из типов aarondl/null, он сам разбирает null.
type Optional[T any] struct {
	Value T
	Set   bool
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	return json.Unmarshal(data, &o.Value)
}
