// Package snapshot exports handle trees for debugging.
//
// Take walks the subtree of a token through the registry and copies the
// state, a readable subset of the attributes and the diagnostics of every
// node. Nodes are read under their shared lock one at a time (parents before
// children), which keeps the walk within the driver's lock discipline.
//
// Snapshots are encoded with an ISerializer: JSON for humans and MessagePack
// for compact dumps that are shipped to support tooling.
package snapshot
