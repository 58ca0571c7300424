package layering

import "reflect"

// Tree is a nested configuration payload keyed by string.
type Tree = map[string]any

// Merge returns a new tree holding base with delta applied on top. Nested trees
// present on both sides are merged recursively; any other delta value (scalar,
// list, nil) replaces the base value wholesale. Neither input is mutated.
func Merge(base, delta Tree) Tree {
	result := make(Tree, len(base)+len(delta))
	for key, value := range base {
		result[key] = cloneAny(value)
	}
	for key, value := range delta {
		strong, strongIsTree := asTree(value)
		weak, weakIsTree := asTree(result[key])
		if strongIsTree && weakIsTree {
			result[key] = Merge(weak, strong)
			continue
		}
		result[key] = cloneAny(value)
	}
	return result
}

// MergeAll folds trees from left to right so later trees win key by key.
func MergeAll(trees ...Tree) Tree {
	merged := Tree{}
	for _, tree := range trees {
		merged = Merge(merged, tree)
	}
	return merged
}

// Clone deep-copies tree. Nested maps and slices are detached from the source.
func Clone(tree Tree) Tree {
	if tree == nil {
		return nil
	}
	out := make(Tree, len(tree))
	for key, value := range tree {
		out[key] = cloneAny(value)
	}
	return out
}

// IsTree reports whether value is a nested tree that Merge will recurse into.
func IsTree(value any) bool {
	_, ok := asTree(value)
	return ok
}

func asTree(value any) (Tree, bool) {
	switch typed := value.(type) {
	case map[string]any:
		return typed, typed != nil
	default:
		return nil, false
	}
}

func cloneAny(value any) any {
	switch typed := value.(type) {
	case nil:
		return nil
	case map[string]any:
		return Clone(typed)
	case []any:
		if typed == nil {
			return typed
		}
		out := make([]any, len(typed))
		for i := range typed {
			out[i] = cloneAny(typed[i])
		}
		return out
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Pointer:
		return cloneValue(rv).Interface()
	default:
		return value
	}
}

// cloneValue copies typed containers (for example []string or map[string]int)
// that cannot be handled by the fast paths above.
func cloneValue(v reflect.Value) reflect.Value {
	if !v.IsValid() {
		return v
	}

	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.New(v.Type().Elem())
		clone.Elem().Set(cloneValue(v.Elem()))
		return clone
	case reflect.Interface:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		elem := cloneValue(v.Elem())
		if !elem.IsValid() {
			return reflect.Zero(v.Type())
		}
		return elem.Convert(v.Type())
	case reflect.Map:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			clone.SetMapIndex(iter.Key(), cloneValue(iter.Value()))
		}
		return clone
	case reflect.Slice:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			clone.Index(i).Set(cloneValue(v.Index(i)))
		}
		return clone
	case reflect.Array:
		clone := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			clone.Index(i).Set(cloneValue(v.Index(i)))
		}
		return clone
	default:
		return v
	}
}
