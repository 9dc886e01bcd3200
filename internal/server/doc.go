// Package server exposes a story session over a local JSON API built on
// gin. Every control of the GUI has a matching endpoint, and responses
// carry the resulting session state.
package server
