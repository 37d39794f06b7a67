package domain

// CloneSections deep-copies a section list. The store clones the live
// sections before every mutation so a failed persist can restore them
// without sharing any backing arrays with the optimistic update.
func CloneSections(sections []Section) []Section {
	if sections == nil {
		return nil
	}
	out := make([]Section, len(sections))
	for i, s := range sections {
		out[i] = s
		out[i].Fields = CloneFields(s.Fields)
	}
	return out
}

// CloneFields deep-copies a field list, including slice-typed values.
func CloneFields(fields []Field) []Field {
	if fields == nil {
		return nil
	}
	out := make([]Field, len(fields))
	for i, f := range fields {
		out[i] = f
		out[i].Value = cloneValue(f.Value)
		if f.Options != nil {
			out[i].Options = append([]string(nil), f.Options...)
		}
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case []string:
		return append([]string(nil), t...)
	case []any:
		out := make([]any, 0, len(t))
		for _, vv := range t {
			out = append(out, cloneValue(vv))
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = cloneValue(vv)
		}
		return out
	default:
		return v
	}
}
