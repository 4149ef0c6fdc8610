package utils

import (
	"fmt"
	"strconv"
)

// StrToPositiveInt parses a query/path value that must be a positive integer
// (table numbers, page numbers, page sizes).
func StrToPositiveInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("'%s' is not an integer", s)
	}
	if n <= 0 {
		return 0, fmt.Errorf("'%s' must be positive", s)
	}
	return n, nil
}
