package speech

import "strings"

// chunkText splits text into pieces of at most max bytes, preferring
// paragraph breaks, then word boundaries.
func chunkText(text string, max int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= max {
		return []string{text}
	}

	var chunks []string
	var cur strings.Builder
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			chunks = append(chunks, s)
		}
		cur.Reset()
	}

	for _, para := range strings.Split(text, "\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if cur.Len() > 0 && cur.Len()+1+len(para) > max {
			flush()
		}
		if len(para) <= max {
			if cur.Len() > 0 {
				cur.WriteString("\n")
			}
			cur.WriteString(para)
			continue
		}

		// Paragraph alone is too long
		flush()
		for _, word := range strings.Fields(para) {
			if cur.Len() > 0 && cur.Len()+1+len(word) > max {
				flush()
			}
			if cur.Len() > 0 {
				cur.WriteString(" ")
			}
			cur.WriteString(word)
		}
		flush()
	}
	flush()

	return chunks
}
