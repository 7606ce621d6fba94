package ast

// ActionBundle is the set of mutations one rule applies to an entry.
// Execution order is fixed regardless of key order in the file:
// skip, delete, rename, set, append/prepend, sequence. All groups keep
// their file declaration order because later operations in the same
// bundle observe the effects of earlier ones.
type ActionBundle struct {
	Skip      bool
	Delete    []string
	Renames   []*Rename
	Sets      []*Assign
	Appends   []*ListInsert
	Prepends  []*ListInsert
	Sequences []*SequenceAssign
	Location  Location
}

// IsEmpty reports whether the bundle performs no mutation at all.
func (b *ActionBundle) IsEmpty() bool {
	return !b.Skip &&
		len(b.Delete) == 0 &&
		len(b.Renames) == 0 &&
		len(b.Sets) == 0 &&
		len(b.Appends) == 0 &&
		len(b.Prepends) == 0 &&
		len(b.Sequences) == 0
}

// Rename moves the value at From to To. An absent From is a no-op.
type Rename struct {
	From     string
	To       string
	Location Location
}

// Assign writes a resolved value at Path, overwriting what is there.
type Assign struct {
	Path     string
	Value    *ValueSpec
	Location Location
}

// ListInsert appends or prepends elements to the list at Path.
// Single marks the scalar form (`append: {path: v}`) whose resolved
// value, when it is a list, contributes its elements rather than itself.
type ListInsert struct {
	Path     string
	Values   []*ValueSpec
	Single   bool
	Location Location
}

// SequenceAssign draws the next value from a sequence counter and
// writes it at Path.
type SequenceAssign struct {
	Path     string
	Spec     *SequenceSpec
	Location Location
}

// SequenceSpec configures one sequence action. An empty ID means the
// counter is independent, keyed by the owning rule's name and the target
// path; a non-empty ID shares one counter across every site using it.
type SequenceSpec struct {
	ID       string
	Start    int64
	Step     int64
	Format   string // optional template, {counter} is replaced by the value
	Location Location
}
