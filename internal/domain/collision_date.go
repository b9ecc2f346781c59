package domain

import (
	"errors"
	"fmt"
	"time"
)

// CollisionDateLayout documents the wire format of collision dates:
// yyyyMMdd'T'HHmmssff'Z', where ff is hundredths of a second, always UTC.
// Example: 20251211T21000100Z.
const CollisionDateLayout = "yyyyMMdd'T'HHmmssff'Z'"

// secondsLayout is the Go layout for the part before the hundredths. Go has no
// fractional-second verb without a separator, so hundredths are handled by hand.
const secondsLayout = "20060102T150405"

const collisionDateLen = len("20060102T150405") + 2 + 1

// ErrCollisionDateFormat is returned by ParseCollisionDate for any input that
// does not match CollisionDateLayout exactly.
var ErrCollisionDateFormat = errors.New("collision_date must match " + CollisionDateLayout)

// ParseCollisionDate parses a wire-format collision date as UTC.
func ParseCollisionDate(s string) (time.Time, error) {
	if len(s) != collisionDateLen || s[collisionDateLen-1] != 'Z' {
		return time.Time{}, ErrCollisionDateFormat
	}
	base, err := time.ParseInLocation(secondsLayout, s[:len(secondsLayout)], time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrCollisionDateFormat, err)
	}
	hi, lo := s[len(secondsLayout)], s[len(secondsLayout)+1]
	if hi < '0' || hi > '9' || lo < '0' || lo > '9' {
		return time.Time{}, ErrCollisionDateFormat
	}
	hundredths := int(hi-'0')*10 + int(lo-'0')
	return base.Add(time.Duration(hundredths) * 10 * time.Millisecond), nil
}

// FormatCollisionDate renders t in the wire format. Precision below a
// hundredth of a second is truncated.
func FormatCollisionDate(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%s%02dZ", t.Format(secondsLayout), t.Nanosecond()/int(10*time.Millisecond))
}
