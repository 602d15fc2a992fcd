package tree

import "strings"

// splitPath validates p and returns its non-empty components. The empty
// string and "/" both denote the root and yield no components.
func splitPath(p string) ([]string, error) {
	if p == "" {
		return nil, nil
	}
	if !strings.HasPrefix(p, "/") {
		return nil, newError(ErrInvalidPath, p, "path must be absolute")
	}

	parts := strings.Split(p, "/")
	comps := parts[:0]
	for _, c := range parts {
		if c == "" {
			continue
		}
		if c == "." || c == ".." {
			return nil, newError(ErrInvalidPath, p, "relative component %q not supported", c)
		}
		comps = append(comps, c)
	}
	return comps, nil
}

// cleanPath returns the normalized form of p.
func cleanPath(p string) (string, error) {
	comps, err := splitPath(p)
	if err != nil {
		return "", err
	}
	return "/" + strings.Join(comps, "/"), nil
}

// splitParent returns the normalized parent path and leaf name of p. The
// root has no leaf name.
func splitParent(p string) (parent, name string, err error) {
	comps, err := splitPath(p)
	if err != nil {
		return "", "", err
	}
	if len(comps) == 0 {
		return "/", "", nil
	}
	return "/" + strings.Join(comps[:len(comps)-1], "/"), comps[len(comps)-1], nil
}

// joinPath appends a single component to a normalized path.
func joinPath(parent, name string) string {
	if parent == "/" {
		return "/" + name
	}
	return parent + "/" + name
}

// isWithin reports whether p equals ancestor or lies below it. Both paths
// must be normalized.
func isWithin(p, ancestor string) bool {
	if ancestor == "/" || p == ancestor {
		return true
	}
	return strings.HasPrefix(p, ancestor+"/")
}
