package ripgrep

import (
	"strconv"
	"strings"
)

// parseLine parses one output line in the fixed `path:line:col:text` format.
// Lines that do not fit the pattern are dropped (ok=false); ripgrep emits
// context separators and summary lines we have no use for.
//
// Windows drive letters put a colon inside the path, so the line and column
// fields are located by scanning colon-separated segments from the right of
// the path boundary rather than a naive 4-way split.
func parseLine(line string) (Match, bool) {
	if line == "" {
		return Match{}, false
	}

	// Skip a possible drive-letter prefix ("C:\...") before field scanning.
	start := 0
	if len(line) > 2 && line[1] == ':' && (line[2] == '\\' || line[2] == '/') {
		start = 2
	}

	firstColon := strings.Index(line[start:], ":")
	if firstColon < 0 {
		return Match{}, false
	}
	firstColon += start

	rest := line[firstColon+1:]
	secondColon := strings.Index(rest, ":")
	if secondColon < 0 {
		return Match{}, false
	}
	thirdColon := strings.Index(rest[secondColon+1:], ":")
	if thirdColon < 0 {
		return Match{}, false
	}
	thirdColon += secondColon + 1

	lineNum, err := strconv.Atoi(rest[:secondColon])
	if err != nil || lineNum < 1 {
		return Match{}, false
	}
	colNum, err := strconv.Atoi(rest[secondColon+1 : thirdColon])
	if err != nil || colNum < 1 {
		return Match{}, false
	}

	return Match{
		Path:   line[:firstColon],
		Line:   lineNum - 1,
		Column: colNum - 1,
		Text:   rest[thirdColon+1:],
	}, true
}
