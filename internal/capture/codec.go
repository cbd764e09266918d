// Package capture maps timelapse capture filenames to timestamps and back
package capture

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultPrefix is the identifying token written by the capture tool
	DefaultPrefix = "WIN"
	// DefaultExtension is the image file extension
	DefaultExtension = ".jpg"

	// stampLayout covers "<YYYYMMDD>_<HH>_<MM>_<SS>"
	stampLayout = "20060102_15_04_05"
	separator   = "_"
)

// ErrMalformedFilename is returned when a filename does not follow the capture naming scheme
var ErrMalformedFilename = errors.New("malformed capture filename")

// MalformedFilenameError describes why a filename was rejected
type MalformedFilenameError struct {
	Filename string
	Reason   string
}

// Error implements the error interface
func (e *MalformedFilenameError) Error() string {
	return fmt.Sprintf("%s %q: %s", ErrMalformedFilename, e.Filename, e.Reason)
}

// Unwrap lets errors.Is match ErrMalformedFilename
func (e *MalformedFilenameError) Unwrap() error {
	return ErrMalformedFilename
}

// Codec parses and formats names of the form <prefix>_<YYYYMMDD>_<HH>_<MM>_<SS><ext>
type Codec struct {
	Prefix    string
	Extension string
	// Location is applied to parsed timestamps; nil means UTC
	Location *time.Location
}

// NewCodec returns a codec for the given prefix and extension, falling back to the defaults
func NewCodec(prefix, extension string) Codec {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if extension == "" {
		extension = DefaultExtension
	}
	return Codec{Prefix: prefix, Extension: extension, Location: time.UTC}
}

// Matches reports whether name carries the codec's extension
func (c Codec) Matches(name string) bool {
	return strings.HasSuffix(name, c.Extension) && len(name) > len(c.Extension)
}

// Parse extracts the capture timestamp from a filename
func (c Codec) Parse(name string) (time.Time, error) {
	if !c.Matches(name) {
		return time.Time{}, c.malformed(name, fmt.Sprintf("missing %q extension", c.Extension))
	}
	stem := strings.TrimSuffix(name, c.Extension)

	tokens := strings.Split(stem, separator)
	if len(tokens) != 5 {
		return time.Time{}, c.malformed(name, fmt.Sprintf("expected 5 underscore-separated tokens, got %d", len(tokens)))
	}
	if tokens[0] != c.Prefix {
		return time.Time{}, c.malformed(name, fmt.Sprintf("prefix %q does not match %q", tokens[0], c.Prefix))
	}
	if len(tokens[1]) != 8 {
		return time.Time{}, c.malformed(name, fmt.Sprintf("date token %q is not YYYYMMDD", tokens[1]))
	}
	// Time tokens are fixed-width; layout token 15 alone would also accept "9"
	for _, tok := range tokens[2:] {
		if len(tok) != 2 {
			return time.Time{}, c.malformed(name, fmt.Sprintf("time token %q is not two digits", tok))
		}
	}

	t, err := time.ParseInLocation(stampLayout, strings.Join(tokens[1:], separator), c.location())
	if err != nil {
		return time.Time{}, c.malformed(name, err.Error())
	}
	return t, nil
}

// Format builds the filename for a capture timestamp; it is the inverse of Parse
func (c Codec) Format(t time.Time) string {
	return c.Prefix + separator + t.In(c.location()).Format(stampLayout) + c.Extension
}

func (c Codec) location() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

func (c Codec) malformed(name, reason string) error {
	return &MalformedFilenameError{Filename: name, Reason: reason}
}
