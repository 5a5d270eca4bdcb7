package display

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// RenderBoard writes the server's ASCII board with colored pawns. The first
// and last lines carry column letters, the edges of every other line carry
// row numbers.
func RenderBoard(w io.Writer, asciiBoard string) {
	lines := strings.Split(strings.TrimRight(asciiBoard, "\n"), "\n")

	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		isLabelLine := i == 0 || i == len(lines)-1

		var sb strings.Builder
		for _, ch := range line {
			switch {
			case isLabelLine && ch >= 'a' && ch <= 'f':
				sb.WriteString(Colorize(Cyan, string(ch)))
			case ch == 'W':
				sb.WriteString(Colorize(Blue, "W"))
			case ch == 'B':
				sb.WriteString(Colorize(Red, "B"))
			case ch >= '0' && ch <= '5':
				sb.WriteString(Colorize(Cyan, string(ch)))
			default:
				sb.WriteRune(ch)
			}
		}
		fmt.Fprintln(w, sb.String())
	}
}

// ColorForTurn returns a colored side name for "w" or "b"
func ColorForTurn(turn string) string {
	if turn == "w" {
		return Blue + "White" + Reset
	}
	return Red + "Black" + Reset
}

// PrettyPrintJSON writes v as indented JSON
func PrettyPrintJSON(w io.Writer, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(w, "%sError formatting JSON: %s%s\n", Red, err.Error(), Reset)
		return
	}
	fmt.Fprintln(w, string(data))
}
