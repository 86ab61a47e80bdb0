package schema

import "strings"

// HeaderLookahead is the number of leading rows searched for the header.
const HeaderLookahead = 15

// SentinelTokens mark a header row: product code, date, client and quantity.
var SentinelTokens = []string{"CAI", "FECHA", "CLIENTE", "CANTIDAD"}

// LocateHeader returns the index of the first row, among the first
// HeaderLookahead rows, holding at least one sentinel token. Cells are
// trimmed and upper-cased and must equal a token exactly. With no match it
// returns 0. A nil tokens slice means SentinelTokens.
func LocateHeader(rows [][]string, tokens []string) int {
	return LocateHeaderWithin(rows, tokens, HeaderLookahead)
}

// LocateHeaderWithin is LocateHeader with an explicit lookahead.
func LocateHeaderWithin(rows [][]string, tokens []string, lookahead int) int {
	if tokens == nil {
		tokens = SentinelTokens
	}
	if lookahead <= 0 {
		lookahead = HeaderLookahead
	}

	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[strings.ToUpper(strings.TrimSpace(t))] = struct{}{}
	}

	for i, row := range rows {
		if i >= lookahead {
			break
		}
		for _, cell := range row {
			if _, ok := set[strings.ToUpper(strings.TrimSpace(cell))]; ok {
				return i
			}
		}
	}

	return 0
}
