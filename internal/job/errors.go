package job

import (
	"errors"
	"fmt"
)

// Category classifies a job error so callers can branch on it for
// remediation hints instead of parsing message text.
type Category int

const (
	// CategoryInput: no images found, fewer than required, undecodable files.
	CategoryInput Category = iota
	// CategoryMatch: too few keypoints or good matches anywhere in the pool.
	CategoryMatch
	// CategoryStitch: the panorama algorithm reported a homography or
	// camera-parameter failure for a group.
	CategoryStitch
	// CategoryResource: the batch exhausted memory; reduce batch size or
	// resolution.
	CategoryResource
	// CategoryIO: failure writing an output composite.
	CategoryIO
	// CategoryInternal: anything that escaped the taxonomy.
	CategoryInternal
)

func (c Category) String() string {
	switch c {
	case CategoryInput:
		return "input"
	case CategoryMatch:
		return "match"
	case CategoryStitch:
		return "stitch"
	case CategoryResource:
		return "resource"
	case CategoryIO:
		return "io"
	default:
		return "internal"
	}
}

// Error is a categorized job error.
type Error struct {
	Category Category
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Category, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// errf builds a categorized error from a format string.
func errf(cat Category, format string, args ...interface{}) error {
	return &Error{Category: cat, Err: fmt.Errorf(format, args...)}
}

// wrap attaches a category to an existing error.
func wrap(cat Category, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Category: cat, Err: err}
}

// CategoryOf extracts the category from an error chain, defaulting to
// CategoryInternal.
func CategoryOf(err error) Category {
	var je *Error
	if errors.As(err, &je) {
		return je.Category
	}
	return CategoryInternal
}
