package projection

// Apply shapes a document the way a document database would when asked to
// project it with p. The input is never modified.
func (p Projection) Apply(doc map[string]any) map[string]any {
	if p == nil {
		return CopyDocument(doc)
	}
	if len(p) == 0 {
		return map[string]any{}
	}

	if !p.Inclusive() {
		result := CopyDocument(doc)
		for _, path := range p.ExcludedPaths() {
			deletePath(result, splitPath(path))
		}
		return result
	}

	result := map[string]any{}
	if value, ok := doc[IdField]; ok && p.IncludesId() {
		result[IdField] = copyValue(value)
	}
	for _, path := range p.IncludedPaths() {
		if path == IdField {
			continue
		}
		copyPath(doc, result, splitPath(path))
	}
	for _, path := range p.ExcludedPaths() {
		if path == IdField {
			continue
		}
		deletePath(result, splitPath(path))
	}
	return result
}

// Split partitions a document in two: the part visible through key and
// everything else.
func Split(doc map[string]any, key Projection) (keyPart, rest map[string]any) {
	keyPart = key.Apply(doc)

	switch {
	case key == nil:
		return keyPart, map[string]any{}
	case len(key) == 0:
		return keyPart, CopyDocument(doc)
	case key.Inclusive():
		rest = CopyDocument(doc)
		if key.IncludesId() {
			delete(rest, IdField)
		}
		for _, path := range key.IncludedPaths() {
			deletePath(rest, splitPath(path))
		}
		for _, path := range key.ExcludedPaths() {
			if path == IdField {
				continue
			}
			// excluded below an included parent: it was left out of the key
			if value, ok := lookupPath(doc, splitPath(path)); ok {
				setPath(rest, splitPath(path), copyValue(value))
			}
		}
		return keyPart, rest
	}

	inverse := Projection{}
	for _, path := range key.ExcludedPaths() {
		inverse[path] = true
	}
	if _, ok := key[IdField]; !ok {
		inverse[IdField] = false
	}
	return keyPart, inverse.Apply(doc)
}

func copyPath(src, dst map[string]any, parts []string) {
	value, ok := src[parts[0]]
	if !ok {
		return
	}
	if len(parts) == 1 {
		dst[parts[0]] = copyValue(value)
		return
	}

	switch child := value.(type) {
	case map[string]any:
		sub, _ := dst[parts[0]].(map[string]any)
		if sub == nil {
			sub = map[string]any{}
			dst[parts[0]] = sub
		}
		copyPath(child, sub, parts[1:])
	case []any:
		existing, _ := dst[parts[0]].([]any)
		projected := make([]any, 0, len(child))
		j := 0
		for _, item := range child {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			var sub map[string]any
			if j < len(existing) {
				sub, _ = existing[j].(map[string]any)
			}
			if sub == nil {
				sub = map[string]any{}
			}
			copyPath(m, sub, parts[1:])
			projected = append(projected, sub)
			j++
		}
		dst[parts[0]] = projected
	}
}

func deletePath(doc map[string]any, parts []string) {
	if len(parts) == 1 {
		delete(doc, parts[0])
		return
	}
	switch child := doc[parts[0]].(type) {
	case map[string]any:
		deletePath(child, parts[1:])
	case []any:
		for _, item := range child {
			if m, ok := item.(map[string]any); ok {
				deletePath(m, parts[1:])
			}
		}
	}
}

func lookupPath(doc map[string]any, parts []string) (any, bool) {
	value, ok := doc[parts[0]]
	if !ok {
		return nil, false
	}
	if len(parts) == 1 {
		return value, true
	}
	child, ok := value.(map[string]any)
	if !ok {
		return nil, false
	}
	return lookupPath(child, parts[1:])
}

func setPath(doc map[string]any, parts []string, value any) {
	if len(parts) == 1 {
		doc[parts[0]] = value
		return
	}
	child, ok := doc[parts[0]].(map[string]any)
	if !ok {
		child = map[string]any{}
		doc[parts[0]] = child
	}
	setPath(child, parts[1:], value)
}

// Lookup reads a dot-path from a document.
func Lookup(doc map[string]any, path string) (any, bool) {
	return lookupPath(doc, splitPath(path))
}

// CopyDocument returns a deep copy of doc. Nested documents and arrays are
// copied, scalars are shared.
func CopyDocument(doc map[string]any) map[string]any {
	if doc == nil {
		return nil
	}
	result := make(map[string]any, len(doc))
	for k, v := range doc {
		result[k] = copyValue(v)
	}
	return result
}

func copyValue(v any) any {
	switch value := v.(type) {
	case map[string]any:
		return CopyDocument(value)
	case []any:
		result := make([]any, len(value))
		for i, item := range value {
			result[i] = copyValue(item)
		}
		return result
	}
	return v
}
