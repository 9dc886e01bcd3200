package batch

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestParseTopics(t *testing.T) {
	tests := []struct {
		name        string
		fileContent string
		want        []TopicEntry
	}{
		{
			name:        "empty file",
			fileContent: "",
			want:        nil,
		},
		{
			name:        "only whitespace",
			fileContent: "   \n\t\r\n   ",
			want:        nil,
		},
		{
			name: "topics only",
			fileContent: `a tiger who loved books
a brave kitten`,
			want: []TopicEntry{
				{Topic: "a tiger who loved books"},
				{Topic: "a brave kitten"},
			},
		},
		{
			name: "mixed format",
			fileContent: `a tiger
a brave kitten = hi
ఒక పులి = te
# a comment
a kite =  `,
			want: []TopicEntry{
				{Topic: "a tiger"},
				{Topic: "a brave kitten", Language: "hi"},
				{Topic: "ఒక పులి", Language: "te"},
				{Topic: "a kite"},
			},
		},
		{
			name:        "windows line endings and missing topic",
			fileContent: "a fox\r\n = hi\r\n\r\n  an owl  \r\n",
			want: []TopicEntry{
				{Topic: "a fox"},
				{Topic: "an owl"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseTopics(tt.fileContent)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseTopics() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestReadTopicFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topics.txt")
	if err := os.WriteFile(path, []byte("a tiger\na whale = en\n"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := ReadTopicFile(path)
	if err != nil {
		t.Fatalf("ReadTopicFile() error = %v", err)
	}
	want := []TopicEntry{{Topic: "a tiger"}, {Topic: "a whale", Language: "en"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ReadTopicFile() = %+v, want %+v", got, want)
	}
}

func TestReadTopicFile_NotFound(t *testing.T) {
	if _, err := ReadTopicFile(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}
