package cli

import (
	"strconv"
	"strings"
)

// preview flattens whitespace and cuts s to at most n runes.
func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// parseID parses a document ID argument.
func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID(arg)
	}
	return id, nil
}

type errInvalidID string

func (e errInvalidID) Error() string {
	return "invalid document ID: " + strconv.Quote(string(e))
}
