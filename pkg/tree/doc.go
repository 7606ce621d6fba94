// Package tree provides dot-path addressing over nested map[string]any trees.
//
// Paths are dot-separated key sequences ("stats.damage.base") addressing
// values inside decoded YAML documents. The package deliberately supports
// string keys only: list elements cannot be addressed from a path, and keys
// containing dots cannot be expressed.
//
// # Operations
//
//	v, ok := tree.Get(root, "stats.damage")   // read
//	tree.Set(root, "stats.damage", 42)        // write, creates intermediates
//	tree.Delete(root, "stats.damage")         // silent no-op when absent
//	tree.Move(root, "old.path", "new.path")   // read + delete + write
//
// Set replaces non-map intermediate values with fresh maps so that a write
// always succeeds. Get and Delete never modify the tree.
//
// # Empty Paths
//
// The empty path addresses the root map itself. Get returns the root; Set,
// Delete and Move treat it as unaddressable and do nothing.
package tree
