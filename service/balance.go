package service

import "strings"

// punctuation that earns a break-point bonus when it immediately
// precedes the split.
const breakBonusChars = ".,!?;:"

// balanceBonus is subtracted from the imbalance score of a candidate
// split that follows punctuation.
const balanceBonus = 10

// BalanceLines inserts a single line break so a two-line cue has
// visually even lines. Idempotent: existing breaks are stripped and
// the split recomputed. When no split keeps both lines within
// maxCharsPerLine, the text comes back unmodified rather than badly
// broken.
func BalanceLines(text string, maxCharsPerLine int) string {
	if maxCharsPerLine <= 0 {
		maxCharsPerLine = DefaultMaxCharsPerLine
	}
	flat := strings.Join(strings.Fields(strings.ReplaceAll(text, "\n", " ")), " ")
	runes := []rune(flat)
	if len(runes) <= maxCharsPerLine {
		return flat
	}

	mid := len(runes) / 2
	window := len(runes) / 3
	if window > 25 {
		window = 25
	}
	lo := mid - window
	if lo < 1 {
		lo = 1
	}
	hi := mid + window
	if hi > len(runes)-1 {
		hi = len(runes) - 1
	}

	best := -1
	bestScore := len(runes) + balanceBonus
	for i := lo; i <= hi; i++ {
		if runes[i] != ' ' {
			continue
		}
		left := i
		right := len(runes) - i - 1
		if left > maxCharsPerLine || right > maxCharsPerLine {
			continue
		}
		score := left - right
		if score < 0 {
			score = -score
		}
		if i > 0 && strings.ContainsRune(breakBonusChars, runes[i-1]) {
			score -= balanceBonus
		}
		if score < bestScore {
			best = i
			bestScore = score
		}
	}
	if best < 0 {
		return flat
	}
	return string(runes[:best]) + "\n" + string(runes[best+1:])
}
