// Package registry provides the process-wide index of conversion rules the
// resolution engine searches when a requested variable is not present in a
// product.
//
// The registry is append-only: conversion packs register their rules once
// during startup and the index is read-only afterwards. Registration order
// is part of the engine's contract — when several rules can produce the same
// target, the first registered, fully-resolvable rule wins.
package registry
