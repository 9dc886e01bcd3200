// Package story requests children's stories from text-generation providers.
//
// Every provider sits behind the Generator interface. A request is a single
// user turn built by BuildPrompt; the first completion is returned verbatim.
// Failures of any kind surface as *GenerationError carrying the provider's
// own message when it sent one. No request is ever retried.
//
// Router selects the backend for a model from the Catalog and fronts each
// backend with a circuit breaker.
package story
