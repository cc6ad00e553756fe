package icl

import (
	"fmt"
	"strconv"
	"strings"
)

// sizeUnits maps recognized size suffixes to their byte multipliers. Both the
// binary (Ki/Mi/Gi/Ti) and decimal (k/M/G/T, optionally with a trailing "b")
// spellings seen in ICL documents are accepted.
var sizeUnits = map[string]int64{
	"k":  1000,
	"kb": 1000,
	"m":  1000 * 1000,
	"mb": 1000 * 1000,
	"g":  1000 * 1000 * 1000,
	"gb": 1000 * 1000 * 1000,
	"t":  1000 * 1000 * 1000 * 1000,
	"tb": 1000 * 1000 * 1000 * 1000,
	"ki": 1024,
	"mi": 1024 * 1024,
	"gi": 1024 * 1024 * 1024,
	"ti": 1024 * 1024 * 1024 * 1024,
}

// ParseSize parses a size string such as "512Mi" or "2Gi" and returns the
// size in bytes. The numeric part may be fractional ("0.5Gi").
func ParseSize(s string) (int64, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, fmt.Errorf("empty size string")
	}

	split := len(trimmed)
	for split > 0 {
		c := trimmed[split-1]
		if c >= '0' && c <= '9' || c == '.' {
			break
		}
		split--
	}

	numPart := trimmed[:split]
	unitPart := strings.ToLower(trimmed[split:])

	if numPart == "" {
		return 0, fmt.Errorf("size %q has no numeric part", s)
	}

	mult, ok := sizeUnits[unitPart]
	if !ok {
		return 0, fmt.Errorf("size %q has unrecognized unit suffix %q", s, trimmed[split:])
	}

	num, err := strconv.ParseFloat(numPart, 64)
	if err != nil {
		return 0, fmt.Errorf("size %q has invalid numeric part: %w", s, err)
	}
	if num <= 0 {
		return 0, fmt.Errorf("size %q must be positive", s)
	}

	return int64(num * float64(mult)), nil
}
