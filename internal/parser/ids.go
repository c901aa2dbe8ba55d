package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dgallion1/reportdoc/internal/doctree"
	"github.com/zeebo/xxh3"
)

// titleKey folds case and whitespace so cosmetic title edits keep an id.
func titleKey(title string) string {
	return strings.ToLower(strings.Join(strings.Fields(title), " "))
}

func sectionID(key string, occurrence int) string {
	return fmt.Sprintf("%016x", xxh3.HashString(key+"#"+strconv.Itoa(occurrence)))
}

// CarryIDs keeps section identity across re-parses. A section whose title (and
// occurrence of that title) existed in prev keeps the id it had there. A
// section with a new title inherits the id of the previous section at the same
// index when that id is not claimed by any other section. The next slice is
// modified in place and returned.
func CarryIDs(prev, next []doctree.Section) []doctree.Section {
	if len(prev) == 0 {
		return next
	}

	prevByKey := make(map[string]string, len(prev))
	for _, k := range occurrenceKeys(prev) {
		prevByKey[k.key] = prev[k.index].ID
	}

	claimed := make(map[string]bool, len(next))
	matched := make([]bool, len(next))
	for _, k := range occurrenceKeys(next) {
		if id, ok := prevByKey[k.key]; ok {
			next[k.index].ID = id
			claimed[id] = true
			matched[k.index] = true
		}
	}
	for i := range next {
		if matched[i] {
			continue
		}
		claimed[next[i].ID] = true
	}
	for i := range next {
		if matched[i] || i >= len(prev) {
			continue
		}
		if id := prev[i].ID; !claimed[id] {
			delete(claimed, next[i].ID)
			next[i].ID = id
			claimed[id] = true
		}
	}
	return next
}

type indexedKey struct {
	index int
	key   string
}

func occurrenceKeys(sections []doctree.Section) []indexedKey {
	seen := make(map[string]int, len(sections))
	keys := make([]indexedKey, 0, len(sections))
	for i, s := range sections {
		k := titleKey(s.Title)
		keys = append(keys, indexedKey{index: i, key: k + "#" + strconv.Itoa(seen[k])})
		seen[k]++
	}
	return keys
}
