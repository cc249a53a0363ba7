// Package moderation masks censored words in relayed text before it is
// stored or broadcast. Matching is resilient to casing, punctuation noise and
// common leet-speak substitutions while the replacement preserves the
// original rune positions.
package moderation

import (
	"bufio"
	"bytes"
	"embed"
	"io/fs"
	"log/slog"
	"strings"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"

	"chat-relay/errors"
)

//go:embed wordlist/*.txt
var wordlistFS embed.FS

// Moderator holds the compiled automaton over the normalized word list.
type Moderator struct {
	machine     *goahocorasick.Machine
	replacement rune
	log         *slog.Logger
}

// NewModerator compiles the automaton from words. Words are normalized the
// same way input text is, so "b4dger" in a message matches "badger" in the
// list.
func NewModerator(words []string, replacement rune, log *slog.Logger) (*Moderator, error) {
	if len(words) == 0 {
		return nil, errors.ErrEmptyWords
	}

	patterns := make([][]rune, len(words))
	for i, word := range words {
		normalized, _ := normalize(word)
		patterns[i] = normalized
	}

	machine := new(goahocorasick.Machine)
	if err := machine.Build(patterns); err != nil {
		return nil, err
	}
	log.Info("Moderation enabled", "words", len(words))
	return &Moderator{machine: machine, replacement: replacement, log: log}, nil
}

// Default builds a Moderator from the embedded word lists, one file per
// language under wordlist/.
func Default(replacement rune, log *slog.Logger) (*Moderator, error) {
	words, err := loadEmbedded()
	if err != nil {
		return nil, err
	}
	return NewModerator(words, replacement, log)
}

// Mask replaces every matched span with the replacement rune. Characters
// outside matches, including the punctuation inside a disguised word, keep
// their positions.
func (m *Moderator) Mask(text string) string {
	normalized, origIdx := normalize(text)
	if len(normalized) == 0 {
		return text
	}

	spans := m.machine.MultiPatternSearch(normalized, false)
	if len(spans) == 0 {
		return text
	}

	runes := []rune(text)
	for _, span := range spans {
		start := span.Pos
		end := start + len(span.Word)
		if start < 0 || end > len(origIdx) {
			continue
		}
		// Mask the original range covered by the first and last matched rune.
		for i := origIdx[start]; i <= origIdx[end-1]; i++ {
			runes[i] = m.replacement
		}
	}
	return string(runes)
}

// normalize lowercases, undoes leet substitutions and drops punctuation,
// spacing and symbols. The second return value maps every normalized rune
// back to its index in the input.
func normalize(input string) ([]rune, []int) {
	origRunes := []rune(input)
	normalized := make([]rune, 0, len(origRunes))
	origIdx := make([]int, 0, len(origRunes))

	for i, r := range origRunes {
		plain := unleet(r)
		if unicode.IsPunct(plain) || unicode.IsSpace(plain) || unicode.IsSymbol(plain) {
			continue
		}
		normalized = append(normalized, unicode.ToLower(plain))
		origIdx = append(origIdx, i)
	}
	return normalized, origIdx
}

// unleet maps common leet-speak characters back to their alphabet
// counterparts.
func unleet(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3', '€':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	default:
		return r
	}
}

// loadEmbedded reads every .txt file under wordlist/, one word per line,
// deduplicated.
func loadEmbedded() ([]string, error) {
	entries, err := fs.ReadDir(wordlistFS, "wordlist")
	if err != nil {
		return nil, err
	}

	unique := make(map[string]struct{})
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		content, err := wordlistFS.ReadFile("wordlist/" + entry.Name())
		if err != nil {
			return nil, err
		}
		scanner := bufio.NewScanner(bytes.NewReader(content))
		for scanner.Scan() {
			word := strings.TrimSpace(scanner.Text())
			if word == "" || strings.HasPrefix(word, "#") {
				continue
			}
			unique[strings.ToLower(word)] = struct{}{}
		}
		if err := scanner.Err(); err != nil {
			return nil, err
		}
	}

	words := make([]string, 0, len(unique))
	for word := range unique {
		words = append(words, word)
	}
	return words, nil
}
