// Package vocab loads the character vocabulary that conditions the text
// branch of the model. The file format is one token per line, where the
// line index is the token id.
package vocab

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"
)

type Vocab struct {
	tokenToID map[string]int64
	size      int
}

func Load(path string) (*Vocab, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open vocab file: %w", err)
	}
	defer f.Close()

	v := &Vocab{
		tokenToID: make(map[string]int64),
	}

	scanner := bufio.NewScanner(f)
	var id int64
	for scanner.Scan() {
		token := strings.TrimRight(scanner.Text(), "\r\n")
		if _, dup := v.tokenToID[token]; !dup {
			v.tokenToID[token] = id
		}
		id++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read vocab file: %w", err)
	}

	if id == 0 {
		return nil, fmt.Errorf("vocab file is empty: %s", path)
	}

	v.size = int(id)
	return v, nil
}

// Encode maps text to token ids one rune at a time. Text is NFC-normalized
// first so composed and decomposed diacritics hit the same vocab entry.
// Runes missing from the vocab fall back to the space token.
func (v *Vocab) Encode(text string) []int64 {
	text = norm.NFC.String(text)

	spaceID, hasSpace := v.tokenToID[" "]

	ids := make([]int64, 0, len(text))
	for _, r := range text {
		if id, ok := v.tokenToID[string(r)]; ok {
			ids = append(ids, id)
		} else if hasSpace {
			ids = append(ids, spaceID)
		}
	}
	return ids
}

func (v *Vocab) Size() int {
	return v.size
}

func (v *Vocab) Has(token string) bool {
	_, ok := v.tokenToID[token]
	return ok
}
