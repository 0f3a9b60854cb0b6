package update

import "strconv"

// ParseVersion splits a dotted version string into numeric components.
//
// Each dot-separated segment contributes the integer value of its
// leading run of digits; a segment with no leading digits contributes
// 0, so "1.2rc1" parses the same as "1.2.0". Results are padded to at
// least three components. Malformed input never fails, it degrades to
// zero components.
func ParseVersion(version string) []int {
	var parts []int

	start := 0
	for i := 0; i <= len(version); i++ {
		if i < len(version) && version[i] != '.' {
			continue
		}
		parts = append(parts, leadingDigits(version[start:i]))
		start = i + 1
	}

	for len(parts) < 3 {
		parts = append(parts, 0)
	}
	return parts
}

// leadingDigits parses the leading run of digits in s, returning 0 when
// s does not start with a digit or the run overflows.
func leadingDigits(s string) int {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

// CompareVersions lexicographically compares two dotted version
// strings, treating missing trailing components as 0.
// Returns -1 if a < b, 0 if equal, 1 if a > b.
func CompareVersions(a, b string) int {
	av := ParseVersion(a)
	bv := ParseVersion(b)

	n := len(av)
	if len(bv) > n {
		n = len(bv)
	}

	for i := 0; i < n; i++ {
		var x, y int
		if i < len(av) {
			x = av[i]
		}
		if i < len(bv) {
			y = bv[i]
		}
		if x < y {
			return -1
		}
		if x > y {
			return 1
		}
	}
	return 0
}
