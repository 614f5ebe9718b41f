package narrator

import (
	"strings"
	"time"
)

// Tokenize splits narration text into the words the highlight walks over.
func Tokenize(text string) []string {
	return strings.Fields(text)
}

// WordIndex maps elapsed playback time onto a word, assuming every word
// takes the same time to say. The result is clamped to [0, count-1]; it is
// -1 when there are no words or no duration.
func WordIndex(elapsed, total time.Duration, count int) int {
	if count <= 0 || total <= 0 {
		return -1
	}
	if elapsed <= 0 {
		return 0
	}
	perWord := total.Seconds() / float64(count)
	idx := int(elapsed.Seconds() / perWord)
	if idx > count-1 {
		return count - 1
	}
	return idx
}
