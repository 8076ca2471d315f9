package gate

import (
	"net/url"
	"strings"
)

// ParseCookies reads a Cookie header (name1=value1; name2=value2) into a map.
//
// Names and values are trimmed, values are percent-decoded (left untouched
// if they are not valid percent-encoding) and surrounding double quotes
// are removed. When a name repeats only the first value is kept.
// Segments without a '=' are skipped.
func ParseCookies(header string) map[string]string {
	out := make(map[string]string)
	idx := 0
	for idx < len(header) {
		eq := strings.IndexByte(header[idx:], '=')
		if eq < 0 {
			break
		}
		eq += idx
		end := strings.IndexByte(header[idx:], ';')
		if end < 0 {
			end = len(header)
		} else {
			end += idx
		}
		if eq > end {
			// the current pair has no '=', resume after the last ';' before eq
			idx = strings.LastIndexByte(header[:eq], ';') + 1
			continue
		}
		name := strings.TrimSpace(header[idx:eq])
		if _, seen := out[name]; !seen && name != "" {
			out[name] = decodeCookieValue(strings.TrimSpace(header[eq+1 : end]))
		}
		idx = end + 1
	}
	return out
}

func decodeCookieValue(val string) string {
	if len(val) >= 2 && val[0] == '"' && val[len(val)-1] == '"' {
		val = val[1 : len(val)-1]
	}
	if strings.IndexByte(val, '%') < 0 {
		return val
	}
	dec, err := url.PathUnescape(val)
	if err != nil {
		return val
	}
	return dec
}
