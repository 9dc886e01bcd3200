// Package keywords turns a story topic into the short list of search terms
// used to look up illustrations.
package keywords
