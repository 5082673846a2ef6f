// Package model defines the common variable model that all ingested data
// products are harmonized into: typed multi-dimensional variables with an
// associated unit, and products that group variables under shared dimension
// lengths.
//
// Ownership is explicit. A variable is either owned by a product (added via
// Product.AddVariable) or held transiently by the resolution engine as a
// temporary. Temporaries must be released exactly once via Variable.Release;
// the package keeps a live-buffer count so tests can verify that no
// temporary outlives its derivation chain.
package model
