package domain

// Condition is a single exact-match requirement on a metadata field.
type Condition struct {
	Field string
	Value string
}

// Filter narrows retrieval by curriculum metadata. Empty fields are not applied.
type Filter struct {
	Year      string
	Stage     string
	Component string
}

// Conditions returns the applied entries in a stable order (ano, etapa, componente).
func (f Filter) Conditions() []Condition {
	var out []Condition
	if f.Year != "" {
		out = append(out, Condition{Field: FieldYear, Value: f.Year})
	}
	if f.Stage != "" {
		out = append(out, Condition{Field: FieldStage, Value: f.Stage})
	}
	if f.Component != "" {
		out = append(out, Condition{Field: FieldComponent, Value: f.Component})
	}
	return out
}

// Applied returns the non-empty entries keyed by index field name.
func (f Filter) Applied() map[string]string {
	conds := f.Conditions()
	m := make(map[string]string, len(conds))
	for _, c := range conds {
		m[c.Field] = c.Value
	}
	return m
}

// IsEmpty reports whether no entry would be applied.
func (f Filter) IsEmpty() bool {
	return f.Year == "" && f.Stage == "" && f.Component == ""
}

// Matches reports whether md satisfies every applied entry exactly.
func (f Filter) Matches(md Metadata) bool {
	for _, c := range f.Conditions() {
		if md.Get(c.Field) != c.Value {
			return false
		}
	}
	return true
}
