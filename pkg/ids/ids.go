package ids

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ID is the atomic 12-byte identifier every hierarchy level is keyed by.
type ID = primitive.ObjectID

// EmptyID is the sentinel segment used in canonical string encodings for
// optional fields that are not set.
const EmptyID = "000000000000000000000000"

// SegmentLen is the length of one encoded identifier segment.
const SegmentLen = 24

// NewID returns a fresh unique ID.
func NewID() ID {
	return primitive.NewObjectID()
}

// InvalidLengthError is returned when an identifier string does not have
// one of the lengths valid for the target type.
type InvalidLengthError struct {
	Type  string
	Valid []int
	Got   int
}

func (e *InvalidLengthError) Error() string {
	valid := make([]string, len(e.Valid))
	for i, v := range e.Valid {
		valid[i] = fmt.Sprintf("%d", v)
	}
	return fmt.Sprintf("invalid length for %s: got %d characters, want %s",
		e.Type, e.Got, strings.Join(valid, " or "))
}

// InvalidSegmentError is returned when a 24-character segment is not
// valid hex. Start and End locate the offending substring in the input.
type InvalidSegmentError struct {
	Segment string
	Start   int
	End     int
}

func (e *InvalidSegmentError) Error() string {
	return fmt.Sprintf("invalid id segment %q at [%d:%d]", e.Segment, e.Start, e.End)
}

// MissingFieldError is returned when a required field decodes to the
// all-zero sentinel or is absent from a loose identifier.
type MissingFieldError struct {
	Type  string
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("'%s' is required on %s", e.Field, e.Type)
}

// parseSegment decodes the 24-character segment starting at off. The
// sentinel decodes to nil ("absent"); callers that require the field use
// requireSegment instead.
func parseSegment(s string, off int) (*ID, error) {
	seg := s[off : off+SegmentLen]
	if seg == EmptyID {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(seg)
	if err != nil {
		return nil, &InvalidSegmentError{Segment: seg, Start: off, End: off + SegmentLen}
	}
	return &id, nil
}

// requireSegment decodes the segment at off and rejects the sentinel.
func requireSegment(typ, field, s string, off int) (ID, error) {
	id, err := parseSegment(s, off)
	if err != nil {
		return ID{}, err
	}
	if id == nil {
		return ID{}, &MissingFieldError{Type: typ, Field: field}
	}
	return *id, nil
}

// formatSegment renders an optional field, substituting the sentinel so
// the output length stays canonical.
func formatSegment(id *ID) string {
	if id == nil {
		return EmptyID
	}
	return id.Hex()
}

// compareSegment orders two optional segments; absent sorts before any
// present value.
func compareSegment(a, b *ID) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return compareID(*a, *b)
	}
}

func compareID(a, b ID) int {
	for i := range a {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	return 0
}

func clone(id *ID) *ID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func ref(id ID) *ID {
	return &id
}
