package pipeline

import (
	"math/rand"
	"unicode"
)

// Pangrams is the capture catalogue: short English sentences covering the
// whole alphabet, so one photographed line yields every letter.
var Pangrams = []string{
	"The quick brown fox jumps over the lazy dog",
	"Pack my box with five dozen liquor jugs",
	"How vexingly quick daft zebras jump",
	"The five boxing wizards jump quickly",
	"Jackdaws love my big sphinx of quartz",
	"Crazy Frederick bought many very exquisite opal jewels",
	"We promptly judged antique ivory buckles for the next prize",
	"A quick movement of the enemy will jeopardize six gunboats",
	"The job requires extra pluck and zeal from every young wage earner",
	"Just keep examining every low bid quoted for zinc etchings",
}

// RandomPangram returns one entry from the catalogue.
func RandomPangram() string {
	return Pangrams[rand.Intn(len(Pangrams))]
}

// UniqueLetters extracts the distinct letters of s, lowercased, in order of
// first appearance.
func UniqueLetters(s string) []rune {
	seen := make(map[rune]bool)
	var out []rune
	for _, r := range s {
		l := unicode.ToLower(r)
		if !unicode.IsLetter(l) || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}
