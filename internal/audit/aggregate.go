package audit

// FileFact pairs an extracted file with the component that owns it.
type FileFact struct {
	Component string
	File      SourceFile
}

// Aggregate folds facts into a snapshot. Components appear in the order
// their first file was seen and files keep their input order.
func Aggregate(facts []FileFact) Snapshot {
	var snap Snapshot
	index := make(map[string]int)

	for _, fact := range facts {
		i, ok := index[fact.Component]
		if !ok {
			i = len(snap.Components)
			index[fact.Component] = i
			snap.Components = append(snap.Components, Component{Path: fact.Component})
		}
		c := &snap.Components[i]
		c.StatementCount += fact.File.StatementCount
		c.Files = append(c.Files, fact.File)
		snap.StatementCount += fact.File.StatementCount
	}
	return snap
}

// files returns every file of the snapshot in component order.
func (s Snapshot) files() []SourceFile {
	var out []SourceFile
	for _, c := range s.Components {
		out = append(out, c.Files...)
	}
	return out
}
