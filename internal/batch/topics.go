// Package batch reads topic files for generating several stories in one run.
package batch

import (
	"fmt"
	"os"
	"strings"
)

// TopicEntry is one line of a topic file.
type TopicEntry struct {
	Topic string
	// Language overrides the configured language when set
	Language string
}

// ReadTopicFile reads topics from a file, one per line.
// Supports formats:
// - Topic only: "a tiger who loved books"
// - With language: "a brave kitten = hi"
// Blank lines and lines starting with '#' are skipped.
func ReadTopicFile(filename string) ([]TopicEntry, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	return ParseTopics(string(content)), nil
}

// ParseTopics parses topic file content.
func ParseTopics(content string) []TopicEntry {
	var entries []TopicEntry

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		topic, language, found := strings.Cut(line, "=")
		if !found {
			entries = append(entries, TopicEntry{Topic: line})
			continue
		}
		topic = strings.TrimSpace(topic)
		if topic == "" {
			// Ignore lines without a topic part
			continue
		}
		entries = append(entries, TopicEntry{Topic: topic, Language: strings.TrimSpace(language)})
	}

	return entries
}
