package mention

import "errors"

var (
	// ErrMixedTemplate reports a template that populates both fixed-affix
	// and anchored fields. The two modes are mutually exclusive.
	ErrMixedTemplate = errors.New("mention: template mixes fixed-affix and anchored fields")

	// ErrMarkerCollision reports that the selected marker already occurs in
	// caller-supplied text. Duplicate markers make entity offsets ambiguous
	// to the client, so this is never worked around silently.
	ErrMarkerCollision = errors.New("mention: marker character occurs in template text")

	// ErrCapacity reports that the template's fixed content alone leaves no
	// room for even a single marker under the text length limit.
	ErrCapacity = errors.New("mention: template leaves no capacity for markers")

	// ErrOverflow reports that the recipients do not fit in one payload and
	// the overflow policy forbids splitting.
	ErrOverflow = errors.New("mention: recipients exceed payload capacity")

	// ErrArityMismatch reports an internal defect: the number of computed
	// offsets diverged from the number of recipients in a batch.
	ErrArityMismatch = errors.New("mention: offset/recipient count mismatch")

	// ErrUnknownPolicy reports an overflow policy outside {split, error}.
	ErrUnknownPolicy = errors.New("mention: unknown overflow policy")
)
