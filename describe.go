package overrides

import (
	"fmt"
	"sort"
	"strings"
)

// FieldDescriptor describes a config path and the inferred type of its value.
type FieldDescriptor struct {
	Path string `json:"path"`
	Type string `json:"type"`
}

// DescribeConfig lists the leaf paths of tree in lexical order. Lists and
// empty trees are reported as leaves.
func DescribeConfig(tree ConfigTree) []FieldDescriptor {
	descriptors := describeValue(tree, "")
	if descriptors == nil {
		descriptors = []FieldDescriptor{}
	}
	return descriptors
}

func describeValue(value any, prefix string) []FieldDescriptor {
	if value == nil {
		if prefix == "" {
			return nil
		}
		return []FieldDescriptor{{Path: prefix, Type: "nil"}}
	}

	switch typed := value.(type) {
	case map[string]any:
		if len(typed) == 0 {
			if prefix == "" {
				return nil
			}
			return []FieldDescriptor{{Path: prefix, Type: "map[string]any"}}
		}
		var fields []FieldDescriptor
		for _, key := range sortedKeys(typed) {
			fields = append(fields, describeValue(typed[key], joinPath(prefix, key))...)
		}
		return fields
	case []any:
		elementType := "any"
		if len(typed) > 0 {
			elementType = typeName(typed[0])
		}
		return []FieldDescriptor{{Path: prefix, Type: "[]" + elementType}}
	default:
		if prefix == "" {
			return nil
		}
		return []FieldDescriptor{{Path: prefix, Type: typeName(typed)}}
	}
}

// UnknownPaths returns the leaf paths of delta that do not exist in base. A
// delta path below a base leaf counts as known, since merging replaces the
// leaf wholesale.
func UnknownPaths(base, delta ConfigTree) []string {
	var unknown []string
	collectUnknown(base, delta, "", &unknown)
	return unknown
}

func collectUnknown(base map[string]any, delta map[string]any, prefix string, out *[]string) {
	for _, key := range sortedKeys(delta) {
		path := joinPath(prefix, key)
		baseValue, ok := base[key]
		if !ok {
			*out = append(*out, path)
			continue
		}
		baseTree, baseIsTree := baseValue.(map[string]any)
		deltaTree, deltaIsTree := delta[key].(map[string]any)
		if baseIsTree && deltaIsTree {
			collectUnknown(baseTree, deltaTree, path, out)
		}
	}
}

func sortedKeys(tree map[string]any) []string {
	keys := make([]string, 0, len(tree))
	for key := range tree {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func typeName(value any) string {
	if value == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", value)
}

func joinPath(prefix, segment string) string {
	if prefix == "" {
		return segment
	}
	return strings.Join([]string{prefix, segment}, ".")
}
