// Package corpus loads the read-only bilingual phrase corpus used to seed
// example exchanges on the first turn of a session.
package corpus

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
)

// Pair is one (Spanish, Quechua) example exchange.
type Pair struct {
	Spanish string `json:"espanol"`
	Quechua string `json:"quechua"`
}

type Corpus struct {
	pairs []Pair
}

// Load reads the primary corpus file and merges any extra files that exist.
// Missing extra files are skipped silently; a missing primary file is an
// error.
func Load(path string, extras ...string) (*Corpus, error) {
	pairs, err := readFile(path)
	if err != nil {
		return nil, err
	}
	for _, p := range extras {
		more, err := readFile(p)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, err
		}
		pairs = append(pairs, more...)
	}
	return &Corpus{pairs: pairs}, nil
}

// Empty returns a corpus with no pairs; Sample on it yields nothing.
func Empty() *Corpus {
	return &Corpus{}
}

func readFile(path string) ([]Pair, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus %s: %w", path, err)
	}
	var pairs []Pair
	if err := json.Unmarshal(raw, &pairs); err != nil {
		return nil, fmt.Errorf("parse corpus %s: %w", path, err)
	}
	return pairs, nil
}

func (c *Corpus) Len() int {
	if c == nil {
		return 0
	}
	return len(c.pairs)
}

// Sample draws up to n distinct pairs at random.
func (c *Corpus) Sample(n int) []Pair {
	if c == nil || n <= 0 || len(c.pairs) == 0 {
		return nil
	}
	if n > len(c.pairs) {
		n = len(c.pairs)
	}
	idx := rand.Perm(len(c.pairs))
	out := make([]Pair, 0, n)
	for _, i := range idx[:n] {
		out = append(out, c.pairs[i])
	}
	return out
}
