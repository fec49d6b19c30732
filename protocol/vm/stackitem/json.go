package stackitem

import (
	"encoding/base64"
	"encoding/json"

	"github.com/neo-project/neo-sub032/errors"
)

type jsonItem struct {
	Type  string      `json:"type"`
	Value interface{} `json:"value,omitempty"`
}

type jsonEntry struct {
	Key   jsonItem `json:"key"`
	Value jsonItem `json:"value"`
}

// ToJSON renders it with type tags. Byte values are base64,
// integers are decimal strings. Containers nested deeper than
// MaxCompareDepth, or reachable from themselves, are rejected.
func ToJSON(it Item) ([]byte, error) {
	v, err := toJSON(it, make(map[Item]bool), 0)
	if err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

func toJSON(it Item, seen map[Item]bool, depth int) (jsonItem, error) {
	if depth > MaxCompareDepth {
		return jsonItem{}, errors.WithDetail(ErrTooBig, "nesting too deep for json")
	}
	out := jsonItem{Type: it.Type().String()}
	switch x := it.(type) {
	case Null, *Interop:
	case Boolean:
		out.Value = bool(x)
	case Integer:
		out.Value = x.value.String()
	case ByteString:
		out.Value = base64.StdEncoding.EncodeToString(x)
	case *Buffer:
		out.Value = base64.StdEncoding.EncodeToString(x.b)
	case Pointer:
		out.Value = x.pos
	case *Array, *Struct:
		if seen[it] {
			return jsonItem{}, ErrCircularReference
		}
		seen[it] = true
		var items []Item
		if a, ok := x.(*Array); ok {
			items = a.items
		} else {
			items = x.(*Struct).items
		}
		vals := make([]jsonItem, 0, len(items))
		for _, sub := range items {
			v, err := toJSON(sub, seen, depth+1)
			if err != nil {
				return jsonItem{}, err
			}
			vals = append(vals, v)
		}
		delete(seen, it)
		out.Value = vals
	case *Map:
		if seen[it] {
			return jsonItem{}, ErrCircularReference
		}
		seen[it] = true
		vals := make([]jsonEntry, 0, len(x.elems))
		for _, e := range x.elems {
			k, err := toJSON(e.Key, seen, depth+1)
			if err != nil {
				return jsonItem{}, err
			}
			v, err := toJSON(e.Value, seen, depth+1)
			if err != nil {
				return jsonItem{}, err
			}
			vals = append(vals, jsonEntry{Key: k, Value: v})
		}
		delete(seen, it)
		out.Value = vals
	}
	return out, nil
}
