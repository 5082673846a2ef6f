// Package resolver implements the derived-variable resolution engine: given
// a target variable name, dimension signature, and optional unit, it either
// copies a matching variable straight out of the product or searches the
// conversion registry for a chain of rules that can produce it.
//
// The search is depth-first and recursive, tries candidate rules strictly in
// registration order, and resolves each rule's source requirements strictly
// in declared order. A per-search exclusion set keyed by (target name,
// dimension count) prevents a derivation chain from re-entering a target it
// is already resolving, which bounds recursion on mutually-referential rule
// graphs. An unreachable source backtracks to the next candidate; every
// other failure aborts the whole search.
package resolver
