package store

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"
)

// ComputeResultKey computes a deterministic cache key for one transform:
// tool version, language, source content and removal request. The order and
// duplication of removals do not affect the key.
func ComputeResultKey(version, language string, src []byte, removals []string) string {
	h := sha256.New()

	fmt.Fprintf(h, "version:%s\n", version)
	fmt.Fprintf(h, "language:%s\n", language)

	// Removals, sorted and deduplicated for determinism.
	sorted := make([]string, len(removals))
	copy(sorted, removals)
	sort.Strings(sorted)
	uniq := sorted[:0]
	for i, name := range sorted {
		if i > 0 && name == sorted[i-1] {
			continue
		}
		uniq = append(uniq, name)
	}
	fmt.Fprintf(h, "removals:%s\n", strings.Join(quoteAll(uniq), ","))

	fmt.Fprintf(h, "source:%x\n", sha256.Sum256(src))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// ContentHash returns the hex sha256 of content, as stored in files.hash.
func ContentHash(content []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(content))
}

// quoteAll keeps names containing commas unambiguous in the key.
func quoteAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = fmt.Sprintf("%q", n)
	}
	return out
}
