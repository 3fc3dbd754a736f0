package weather

// Project reduces report to the requested fields. Unknown names and fields
// whose path does not resolve are skipped. A name requested twice keeps its
// first position.
func Project(report Report, requested []string) ProjectedResult {
	var out ProjectedResult
	for _, name := range requested {
		f, ok := ParseField(name)
		if !ok {
			continue
		}
		v, ok := fieldPaths[f].Resolve(report)
		if !ok {
			continue
		}
		out.Set(f, v)
	}
	return out
}
