// Package naming implements the correlation scheme used during a merge.
// While two copies of an asset live in one document, every entity of the
// local copy carries the ".LOCAL" suffix and every imported entity carries
// ".EXTERNAL", so the counterpart of any entity is found by flipping its
// suffix.
package naming

import (
	"fmt"
	"strings"

	"github.com/agentstation/assetpipe/pkg/constants"
	"github.com/agentstation/assetpipe/pkg/errors"
)

// Suffix is a transient merge marker.
type Suffix string

// Merge suffixes.
const (
	Local    Suffix = constants.LocalSuffix
	External Suffix = constants.ExternalSuffix
)

// String returns the string representation of a Suffix.
func (s Suffix) String() string {
	return string(s)
}

// TargetSuffix returns the opposite suffix.
func TargetSuffix(s Suffix) (Suffix, error) {
	switch s {
	case Local:
		return External, nil
	case External:
		return Local, nil
	}
	return "", errors.NewNamingError(string(s), errors.ErrUnknownSuffix)
}

// SuffixOf returns the merge suffix carried by name, if any.
func SuffixOf(name string) (Suffix, bool) {
	idx := strings.LastIndex(name, constants.MergeDelimiter)
	if idx < 0 {
		return "", false
	}
	switch s := Suffix(name[idx+len(constants.MergeDelimiter):]); s {
	case Local, External:
		return s, true
	}
	return "", false
}

// HasSuffix reports whether name carries the given suffix.
func HasSuffix(name string, s Suffix) bool {
	got, ok := SuffixOf(name)
	return ok && got == s
}

// AddSuffix appends the delimiter and suffix to name.
func AddSuffix(name string, s Suffix) string {
	return name + constants.MergeDelimiter + string(s)
}

// TargetName flips the merge suffix of name, so "Body.LOCAL" becomes
// "Body.EXTERNAL". Names without a merge suffix are an error.
func TargetName(name string) (string, error) {
	s, ok := SuffixOf(name)
	if !ok {
		return "", errors.NewNamingError(name, errors.ErrUnknownSuffix)
	}
	target, err := TargetSuffix(s)
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(name, string(s)) + string(target), nil
}

// Basename strips a trailing merge suffix. Other names are returned as is.
func Basename(name string) string {
	s, ok := SuffixOf(name)
	if !ok {
		return name
	}
	return strings.TrimSuffix(name, constants.MergeDelimiter+string(s))
}

// CheckLength fails when name leaves no room for a merge suffix.
func CheckLength(name string) error {
	if len(name) > constants.MaxNameLength {
		return errors.NewNamingError(name, fmt.Errorf("%w: must be at most %d characters",
			errors.ErrNameTooLong, constants.MaxNameLength))
	}
	return nil
}
