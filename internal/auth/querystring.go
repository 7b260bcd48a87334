package auth

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	apperrors "annotator-readmill/pkg/errors"
)

// Param is one key/value pair of a query string or URL fragment.
type Param struct {
	Key   string
	Value string
}

// Params keeps pairs in their original order.
type Params []Param

// Get returns the value for key. When a key repeats the last value wins.
func (p Params) Get(key string) string {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i].Key == key {
			return p[i].Value
		}
	}
	return ""
}

// Has reports whether key is present.
func (p Params) Has(key string) bool {
	for _, param := range p {
		if param.Key == key {
			return true
		}
	}
	return false
}

// Add appends a pair.
func (p *Params) Add(key, value string) {
	*p = append(*p, Param{Key: key, Value: value})
}

// ExpiresIn reads the token lifetime in seconds from expires_in or expires.
func (p Params) ExpiresIn() time.Duration {
	for _, key := range []string{"expires_in", "expires"} {
		raw := p.Get(key)
		if raw == "" {
			continue
		}
		secs, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || secs <= 0 {
			continue
		}
		return time.Duration(secs) * time.Second
	}
	return 0
}

// Serialize encodes params as key=value pairs joined by sep ("&" when empty).
func Serialize(p Params, sep string) string {
	if sep == "" {
		sep = "&"
	}
	parts := make([]string, 0, len(p))
	for _, param := range p {
		parts = append(parts, EncodeComponent(param.Key)+"="+EncodeComponent(param.Value))
	}
	return strings.Join(parts, sep)
}

// Parse decodes a string produced by Serialize. Empty segments are skipped and
// a segment without "=" yields an empty value.
func Parse(str, sep string) (Params, error) {
	if sep == "" {
		sep = "&"
	}
	var params Params
	for _, segment := range strings.Split(str, sep) {
		if segment == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(segment, "=")
		key, err := url.PathUnescape(rawKey)
		if err != nil {
			return nil, apperrors.NewParseError("malformed key "+rawKey, err)
		}
		value, err := url.PathUnescape(rawValue)
		if err != nil {
			return nil, apperrors.NewParseError("malformed value for "+key, err)
		}
		params.Add(key, value)
	}
	return params, nil
}

var componentReplacer = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// EncodeComponent escapes s the way browsers escape a URI component.
func EncodeComponent(s string) string {
	return componentReplacer.Replace(url.QueryEscape(s))
}
