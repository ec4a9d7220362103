package model

import "strconv"

// Resolution is a parsed resolution label such as "1080p".
// Height is only meaningful when Valid is true.
type Resolution struct {
	Label  string
	Height int
	Valid  bool
}

// ParseResolution reads the leading digits of label as the numeric height.
// Any trailing unit ("p", "p60") is ignored. Labels without leading digits
// are returned with Valid=false.
func ParseResolution(label string) Resolution {
	end := 0
	for end < len(label) && label[end] >= '0' && label[end] <= '9' {
		end++
	}
	r := Resolution{Label: label}
	if end == 0 {
		return r
	}
	h, err := strconv.Atoi(label[:end])
	if err != nil {
		return r
	}
	r.Height = h
	r.Valid = true
	return r
}

// Less reports whether r sorts below other. Invalid labels sort lowest.
func (r Resolution) Less(other Resolution) bool {
	if r.Valid != other.Valid {
		return !r.Valid
	}
	return r.Height < other.Height
}

func (r Resolution) String() string {
	return r.Label
}
