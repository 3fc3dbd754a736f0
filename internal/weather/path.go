package weather

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var errInvalidPath = errors.New("invalid path")

// segment is one dot-separated step of a Path, optionally carrying an array index.
type segment struct {
	key     string
	index   int
	indexed bool
}

// Path is a parsed dotted/bracketed path such as "weather[0].description".
type Path struct {
	raw  string
	segs []segment
}

// ParsePath parses a dotted path whose segments may carry a single
// non-negative bracketed index, e.g. "a.b[2].c".
func ParsePath(s string) (Path, error) {
	if s == "" {
		return Path{}, fmt.Errorf("%w: empty", errInvalidPath)
	}

	parts := strings.Split(s, ".")
	segs := make([]segment, 0, len(parts))
	for _, part := range parts {
		seg, err := parseSegment(part)
		if err != nil {
			return Path{}, fmt.Errorf("%w %q: %v", errInvalidPath, s, err)
		}
		segs = append(segs, seg)
	}
	return Path{raw: s, segs: segs}, nil
}

// MustParsePath is like ParsePath but panics on malformed input.
// It is meant for package-level tables.
func MustParsePath(s string) Path {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}
	return p
}

func parseSegment(part string) (segment, error) {
	open := strings.IndexByte(part, '[')
	if open < 0 {
		if part == "" || strings.ContainsRune(part, ']') {
			return segment{}, fmt.Errorf("bad segment %q", part)
		}
		return segment{key: part}, nil
	}

	if open == 0 || !strings.HasSuffix(part, "]") {
		return segment{}, fmt.Errorf("bad indexed segment %q", part)
	}
	idx, err := strconv.Atoi(part[open+1 : len(part)-1])
	if err != nil || idx < 0 {
		return segment{}, fmt.Errorf("bad index in %q", part)
	}
	return segment{key: part[:open], index: idx, indexed: true}, nil
}

func (p Path) String() string {
	return p.raw
}

// Resolve walks v along the path. The boolean is false when any step is
// missing: an absent key, a non-object where an object is needed, a
// non-array under an indexed segment, an out-of-range index, or a JSON null
// in the middle of the path. A null leaf is returned as present.
func (p Path) Resolve(v any) (any, bool) {
	if len(p.segs) == 0 {
		return nil, false
	}

	cur := v
	for _, seg := range p.segs {
		if cur == nil {
			return nil, false
		}

		obj, ok := asObject(cur)
		if !ok {
			return nil, false
		}
		next, ok := obj[seg.key]
		if !ok {
			return nil, false
		}

		if seg.indexed {
			arr, ok := next.([]any)
			if !ok || seg.index >= len(arr) {
				return nil, false
			}
			next = arr[seg.index]
		}
		cur = next
	}
	return cur, true
}

// Resolve parses path and resolves it against v. A malformed path resolves
// to absent.
func Resolve(v any, path string) (any, bool) {
	p, err := ParsePath(path)
	if err != nil {
		return nil, false
	}
	return p.Resolve(v)
}

func asObject(v any) (map[string]any, bool) {
	switch o := v.(type) {
	case map[string]any:
		return o, true
	case Report:
		return o, true
	default:
		return nil, false
	}
}
