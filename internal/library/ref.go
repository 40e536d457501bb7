package library

import (
	"fmt"
	"strconv"
	"strings"
)

// refSeparator joins the numeric id and native path of a PhotoRef.
const refSeparator = ";"

// PhotoRef identifies a photo by its store id and native path. Its string form
// "<id>;<path>" is the only handle callers receive.
type PhotoRef struct {
	ID   int64
	Path string
}

// String returns the composite id.
func (r PhotoRef) String() string {
	return strconv.FormatInt(r.ID, 10) + refSeparator + r.Path
}

// ParseRef parses a composite id. The id part never contains the separator,
// so the path is everything after the first one and may itself contain it.
func ParseRef(s string) (PhotoRef, error) {
	idPart, path, ok := strings.Cut(s, refSeparator)
	if !ok {
		return PhotoRef{}, fmt.Errorf("%w: missing %q in %q", ErrInvalidReference, refSeparator, s)
	}
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		return PhotoRef{}, fmt.Errorf("%w: bad id in %q", ErrInvalidReference, s)
	}
	if path == "" {
		return PhotoRef{}, fmt.Errorf("%w: empty path in %q", ErrInvalidReference, s)
	}
	return PhotoRef{ID: id, Path: path}, nil
}
