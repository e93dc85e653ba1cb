package app

import (
	"fmt"
	"strings"
)

// forbiddenSegmentChars are the characters the realtime database rejects in keys.
const forbiddenSegmentChars = "/.#$[]"

// ValidateSegment reports whether one path segment is a usable document key.
func ValidateSegment(segment string) error {
	if strings.TrimSpace(segment) == "" {
		return fmt.Errorf("%w: empty segment", ErrInvalidPath)
	}
	if strings.ContainsAny(segment, forbiddenSegmentChars) {
		return fmt.Errorf("%w: segment %q contains one of %q", ErrInvalidPath, segment, forbiddenSegmentChars)
	}
	for _, r := range segment {
		if r < 0x20 || r == 0x7f {
			return fmt.Errorf("%w: segment %q contains a control character", ErrInvalidPath, segment)
		}
	}
	return nil
}

// JoinPath validates segments and joins them into an absolute document path.
func JoinPath(segments ...string) (string, error) {
	if len(segments) == 0 {
		return "/", nil
	}
	for _, segment := range segments {
		if err := ValidateSegment(segment); err != nil {
			return "", err
		}
	}
	return "/" + strings.Join(segments, "/"), nil
}

// SplitPath parses an absolute or relative document path into validated segments.
// The root path yields no segments.
func SplitPath(path string) ([]string, error) {
	trimmed := strings.Trim(strings.TrimSpace(path), "/")
	if trimmed == "" {
		return nil, nil
	}
	segments := strings.Split(trimmed, "/")
	for _, segment := range segments {
		if err := ValidateSegment(segment); err != nil {
			return nil, err
		}
	}
	return segments, nil
}
