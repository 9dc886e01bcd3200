// Package session owns the state of one story session and the generation
// workflow that drives it: story request, keyword extraction, sequential
// illustration lookups and narration start.
//
// All state changes go through named Session methods. Presentation layers
// read it with Snapshot and watch it with Subscribe.
package session
