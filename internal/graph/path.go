package graph

// Reconstruct walks parent links back from target and returns the path from
// start to target. start is always the first element, even though it never
// has a parent of its own.
func Reconstruct(records map[string]Record, start, target string) []string {
	path := []string{target}
	seen := map[string]bool{target: true}
	for id := target; ; {
		r, ok := records[id]
		if !ok || r.Parent == "" || seen[r.Parent] {
			break
		}
		id = r.Parent
		seen[id] = true
		path = append(path, id)
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	if path[0] != start {
		path = append([]string{start}, path...)
	}
	return path
}

// DisplayPath replaces each id in path with its canonical name when one is
// known.
func DisplayPath(records map[string]Record, path []string) []string {
	names := make([]string, len(path))
	for i, id := range path {
		names[i] = id
		if r, ok := records[id]; ok && r.Name != "" {
			names[i] = r.Name
		}
	}
	return names
}
