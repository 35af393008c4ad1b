package render

import (
	"fmt"
	"os"
	"strings"

	"giggle/types"
)

const (
	subtitleFontSize     = 72
	subtitleMaxWordsLine = 6
)

// sentence is a group of words shown together on screen.
type sentence struct {
	Words []types.WordTimestamp
	Start float64
	End   float64
}

// groupIntoSentences batches words into display lines, splitting on sentence
// punctuation or when the line fills up.
func groupIntoSentences(words []types.WordTimestamp, maxWordsPerLine int) []sentence {
	var sentences []sentence
	current := sentence{}

	for i, w := range words {
		if len(current.Words) == 0 {
			current.Start = w.Start
		}
		current.Words = append(current.Words, w)
		current.End = w.End

		split := endsSentence(w.Text) ||
			len(current.Words) >= maxWordsPerLine ||
			i == len(words)-1
		if split {
			sentences = append(sentences, current)
			current = sentence{}
		}
	}
	return sentences
}

// endsSentence reports whether a word terminates a sentence. A period between
// digits (as in "4.5") does not count.
func endsSentence(word string) bool {
	trimmed := strings.TrimSpace(word)
	if trimmed == "" {
		return false
	}
	if strings.HasSuffix(trimmed, "!") || strings.HasSuffix(trimmed, "?") {
		return true
	}
	if !strings.HasSuffix(trimmed, ".") {
		return false
	}
	if len(trimmed) < 2 {
		return true
	}
	prev := trimmed[len(trimmed)-2]
	return prev < '0' || prev > '9'
}

// generateASS writes an ASS subtitle file with word-by-word highlighting:
// one dialogue event per word, the active word rendered in yellow.
func generateASS(words []types.WordTimestamp, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer file.Close()

	fmt.Fprintln(file, "[Script Info]")
	fmt.Fprintln(file, "Title: Narrated Short")
	fmt.Fprintln(file, "ScriptType: v4.00+")
	fmt.Fprintln(file, "PlayResX: 1080")
	fmt.Fprintln(file, "PlayResY: 1920")
	fmt.Fprintln(file, "")
	fmt.Fprintln(file, "[V4+ Styles]")
	fmt.Fprintln(file, "Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding")
	// MarginV=768 places the line at 40% from the bottom of the 1920px frame.
	fmt.Fprintf(file, "Style: Default,Consolas,%d,&H00FFFFFF,&H00FFFFFF,&H00000000,&H00000000,-1,0,0,0,100,100,0,0,1,3,0,2,40,40,768,1\n", subtitleFontSize)
	fmt.Fprintf(file, "Style: Highlight,Consolas,%d,&H0000FFFF,&H0000FFFF,&H00000000,&H00000000,-1,0,0,0,100,100,0,0,1,3,0,2,40,40,768,1\n", subtitleFontSize)
	fmt.Fprintln(file, "")
	fmt.Fprintln(file, "[Events]")
	fmt.Fprintln(file, "Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text")

	for _, s := range groupIntoSentences(words, subtitleMaxWordsLine) {
		for wordIdx := range s.Words {
			var parts []string
			for i, word := range s.Words {
				if i == wordIdx {
					parts = append(parts, fmt.Sprintf("{\\c&H0000FFFF&}%s{\\c&H00FFFFFF&}", word.Text))
				} else {
					parts = append(parts, word.Text)
				}
			}

			// Each event spans from the word's start to the next word's start
			// so the highlight moves without gaps.
			start := s.Words[wordIdx].Start
			end := s.Words[wordIdx].End
			if wordIdx < len(s.Words)-1 {
				end = s.Words[wordIdx+1].Start
			}

			fmt.Fprintf(file, "Dialogue: 0,%s,%s,Default,,0,0,0,,%s\n",
				formatASSTimestamp(start),
				formatASSTimestamp(end),
				strings.Join(parts, " "))
		}
	}
	return nil
}

// formatASSTimestamp converts seconds to the ASS format h:mm:ss.cc.
func formatASSTimestamp(seconds float64) string {
	hours := int(seconds / 3600)
	minutes := int((seconds - float64(hours*3600)) / 60)
	secs := int(seconds) % 60
	centisecs := int((seconds - float64(int(seconds))) * 100)
	return fmt.Sprintf("%d:%02d:%02d.%02d", hours, minutes, secs, centisecs)
}
