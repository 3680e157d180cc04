package hierarchy

import (
	"strconv"
	"strings"
)

// ServiceTime is one named service slot a program meets at. A service may
// cover several hours of day when the label merges close start times,
// e.g. "(9:20 AM|9:30 AM)=9:20 AM" shows as "9:20 AM" but buckets both the
// 9:20 and 9:30 meetings.
type ServiceTime struct {
	Label string
	Hours []int
}

// Covers reports whether the service buckets meetings held at the given
// hour of day.
func (s ServiceTime) Covers(hour int) bool {
	for _, h := range s.Hours {
		if h == hour {
			return true
		}
	}
	return false
}

// ParseReportGroup decodes a program's structured report-group label:
//
//	"<order> <display> (<service>|<service>|...)"
//
// where each <service> is a clock label like "11:00 AM" or a merged form
// "(9:20 AM|9:30 AM)=9:20 AM" that resolves to the right-hand label. The
// service list is optional. A blank label means the program is excluded
// from reporting and ok is false.
func ParseReportGroup(label string) (order int, display string, services []ServiceTime, ok bool) {
	label = strings.TrimSpace(label)
	if label == "" {
		return 0, "", nil, false
	}

	rest := label
	if i := strings.IndexByte(rest, ' '); i > 0 {
		if n, err := strconv.Atoi(rest[:i]); err == nil {
			order = n
			rest = strings.TrimSpace(rest[i+1:])
		}
	} else if n, err := strconv.Atoi(rest); err == nil {
		// The whole label is just an order token.
		return n, "", nil, true
	}

	// The trailing parenthesized group, if any, holds the service times.
	if strings.HasSuffix(rest, ")") {
		if open := outerOpenParen(rest); open >= 0 {
			svcText := rest[open+1 : len(rest)-1]
			rest = strings.TrimSpace(rest[:open])
			for _, part := range splitTopLevel(svcText, '|') {
				if st, good := parseServiceTime(part); good {
					services = append(services, st)
				}
			}
		}
	}

	return order, rest, services, true
}

// outerOpenParen finds the opening paren matching the final closing paren.
func outerOpenParen(s string) int {
	depth := 0
	for i := len(s) - 1; i >= 0; i-- {
		switch s[i] {
		case ')':
			depth++
		case '(':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitTopLevel splits on sep, ignoring separators nested inside parens.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}

func parseServiceTime(part string) (ServiceTime, bool) {
	part = strings.TrimSpace(part)
	if part == "" {
		return ServiceTime{}, false
	}

	// Merged form: "(A|B)=C" buckets the hours of A and B under label C.
	if i := strings.LastIndexByte(part, '='); i >= 0 {
		label := strings.TrimSpace(part[i+1:])
		lhs := strings.TrimSpace(part[:i])
		lhs = strings.TrimPrefix(lhs, "(")
		lhs = strings.TrimSuffix(lhs, ")")
		st := ServiceTime{Label: label}
		for _, clock := range strings.Split(lhs, "|") {
			if h, good := clockHour(clock); good {
				st.Hours = appendHour(st.Hours, h)
			}
		}
		if len(st.Hours) == 0 {
			if h, good := clockHour(label); good {
				st.Hours = []int{h}
			}
		}
		return st, len(st.Hours) > 0
	}

	h, good := clockHour(part)
	if !good {
		return ServiceTime{}, false
	}
	return ServiceTime{Label: part, Hours: []int{h}}, true
}

func appendHour(hours []int, h int) []int {
	for _, x := range hours {
		if x == h {
			return hours
		}
	}
	return append(hours, h)
}

// clockHour maps a clock label like "9:20 AM" or "12:05 PM" to its
// 24-hour hour of day.
func clockHour(label string) (int, bool) {
	label = strings.TrimSpace(label)
	fields := strings.Fields(label)
	if len(fields) == 0 {
		return 0, false
	}

	hm := fields[0]
	if i := strings.IndexByte(hm, ':'); i >= 0 {
		hm = hm[:i]
	}
	hour, err := strconv.Atoi(hm)
	if err != nil || hour < 0 || hour > 23 {
		return 0, false
	}

	if len(fields) > 1 {
		switch strings.ToUpper(fields[1]) {
		case "PM":
			if hour != 12 {
				hour += 12
			}
		case "AM":
			if hour == 12 {
				hour = 0
			}
		}
	}
	if hour > 23 {
		return 0, false
	}
	return hour, true
}

// ParseOrderToken extracts the leading integer from a report-line token,
// used to order divisions within a program section. Tokens without a
// numeric prefix sort last.
func ParseOrderToken(token string) int {
	token = strings.TrimSpace(token)
	end := 0
	for end < len(token) && token[end] >= '0' && token[end] <= '9' {
		end++
	}
	if end == 0 {
		return 1 << 30
	}
	n, err := strconv.Atoi(token[:end])
	if err != nil {
		return 1 << 30
	}
	return n
}
