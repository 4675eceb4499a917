package query

import (
	"encoding/json"
	"fmt"
	"maps"
)

// Key identifies a cached query by name plus parameters.
// Two keys with the same name and equal params render to the same string,
// which is what the cache indexes on.
type Key struct {
	Name   string
	Params map[string]any
}

// NewKey creates a key, copying params so later caller mutation can't
// change the identity of a cached entry
func NewKey(name string, params map[string]any) Key {
	var copied map[string]any
	if len(params) > 0 {
		copied = make(map[string]any, len(params))
		maps.Copy(copied, params)
	}
	return Key{Name: name, Params: copied}
}

// String renders the key canonically. encoding/json sorts map keys, so the
// output doesn't depend on map iteration order.
func (k Key) String() string {
	if len(k.Params) == 0 {
		return k.Name
	}
	buf, err := json.Marshal(k.Params)
	if err != nil {
		return fmt.Sprintf("%s%v", k.Name, k.Params)
	}
	return k.Name + string(buf)
}

// Equal reports whether two keys address the same cache entry
func (k Key) Equal(other Key) bool {
	return k.String() == other.String()
}
