// Package processor wires the configured providers into story sessions and
// runs them in one of the command line modes: a single topic, a batch
// file, the JSON control API or the GUI. It is the main coordinator
// between all other components.
package processor
