package ui

import (
	"path"
	"strings"
)

const ellipsis = "…"

// truncate trims value and cuts it to limit runes, ending in "..." when cut.
func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	runes := []rune(value)
	if limit <= 0 || len(runes) <= limit {
		return value
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}

// truncateMiddle keeps both ends of value. For URLs and paths a short file
// extension survives the cut.
func truncateMiddle(value string, limit int) string {
	value = strings.TrimSpace(value)
	runes := []rune(value)
	if limit <= 0 || len(runes) <= limit {
		return value
	}
	if limit <= 3 {
		return string(runes[:limit])
	}

	var ext []rune
	if strings.ContainsAny(value, `/\`) {
		if e := []rune(path.Ext(strings.ReplaceAll(value, `\`, "/"))); len(e) < 10 && len(e) < limit/2 {
			ext = e
			runes = runes[:len(runes)-len(e)]
		}
	}

	keep := limit - len(ext) - 1
	head := keep / 2
	tail := keep - head
	return string(runes[:head]) + ellipsis + string(runes[len(runes)-tail:]) + string(ext)
}

// padRight pads s with spaces to width runes.
func padRight(s string, width int) string {
	if n := len([]rune(s)); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
