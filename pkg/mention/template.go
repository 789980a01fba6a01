package mention

import "fmt"

// Placement says on which side of a matched anchor character the marker run
// is inserted.
type Placement string

const (
	PlaceAfter  Placement = "after"
	PlaceBefore Placement = "before"
)

// Fallback says where the marker run goes when no anchor matches.
type Fallback string

const (
	FallbackEnd   Fallback = "end"
	FallbackStart Fallback = "start"
)

// AnchorRules describe where in a base message the marker run is inserted.
// See ResolveAnchor for the resolution order.
type AnchorRules struct {
	// Chars is the set of anchor characters. The message is scanned right to
	// left and the first (rightmost) occurrence wins.
	Chars string

	// Index, when set, is an explicit code-unit index; insertion always goes
	// immediately after it, clamped into the message bounds.
	Index *int

	// Placement applies to Chars matches only. Defaults to PlaceAfter.
	Placement Placement

	// Fallback applies when nothing matches. Defaults to FallbackEnd.
	Fallback Fallback

	// Legacy is an optional predicate used with the same reverse scan when
	// Chars is empty. It exists for callers migrating off pattern-based
	// punctuation matching.
	Legacy func(rune) bool
}

// Template is either a FixedAffix or an Anchored template.
type Template interface {
	isTemplate()
}

// FixedAffix renders payloads as prefix + marker run + suffix.
type FixedAffix struct {
	Prefix string
	Suffix string

	// Marker forces a specific marker character. When empty, one is chosen
	// from MarkerCandidates (or DefaultMarkers).
	Marker           string
	MarkerCandidates []string
}

// Anchored splices the marker run into a full message body at a position
// resolved from Anchor.
type Anchored struct {
	Base   string
	Anchor AnchorRules

	// OwnLine pads a line break before the marker run; TrailingBreak pads
	// one after it.
	OwnLine       bool
	TrailingBreak bool

	Marker           string
	MarkerCandidates []string
}

func (FixedAffix) isTemplate() {}
func (Anchored) isTemplate()   {}

// TemplateSpec is the loose field bag as it appears in config files, where
// the mode is implied by which fields are set. Template() validates it into
// an explicit variant.
type TemplateSpec struct {
	Prefix  string `json:"prefix,omitempty"`
	Suffix  string `json:"suffix,omitempty"`
	Message string `json:"message,omitempty"`

	AnchorChars   string `json:"anchor_chars,omitempty"`
	AnchorIndex   *int   `json:"anchor_index,omitempty"`
	Placement     string `json:"placement,omitempty"`
	Fallback      string `json:"fallback,omitempty"`
	OwnLine       bool   `json:"own_line,omitempty"`
	TrailingBreak bool   `json:"trailing_break,omitempty"`

	Marker           string   `json:"marker,omitempty"`
	MarkerCandidates []string `json:"marker_candidates,omitempty"`
}

// Template resolves the spec into a tagged variant. A spec with a message
// body and a prefix or suffix at the same time is rejected: the two modes
// are mutually exclusive and guessing would hide caller bugs.
func (s TemplateSpec) Template() (Template, error) {
	anchored := s.Message != ""
	affixed := s.Prefix != "" || s.Suffix != ""

	if anchored && affixed {
		return nil, ErrMixedTemplate
	}

	if !anchored {
		return FixedAffix{
			Prefix:           s.Prefix,
			Suffix:           s.Suffix,
			Marker:           s.Marker,
			MarkerCandidates: s.MarkerCandidates,
		}, nil
	}

	placement, err := parsePlacement(s.Placement)
	if err != nil {
		return nil, err
	}
	fallback, err := parseFallback(s.Fallback)
	if err != nil {
		return nil, err
	}

	return Anchored{
		Base: s.Message,
		Anchor: AnchorRules{
			Chars:     s.AnchorChars,
			Index:     s.AnchorIndex,
			Placement: placement,
			Fallback:  fallback,
		},
		OwnLine:          s.OwnLine,
		TrailingBreak:    s.TrailingBreak,
		Marker:           s.Marker,
		MarkerCandidates: s.MarkerCandidates,
	}, nil
}

func parsePlacement(s string) (Placement, error) {
	switch Placement(s) {
	case "", PlaceAfter:
		return PlaceAfter, nil
	case PlaceBefore:
		return PlaceBefore, nil
	default:
		return "", fmt.Errorf("mention: unknown placement %q", s)
	}
}

func parseFallback(s string) (Fallback, error) {
	switch Fallback(s) {
	case "", FallbackEnd:
		return FallbackEnd, nil
	case FallbackStart:
		return FallbackStart, nil
	default:
		return "", fmt.Errorf("mention: unknown fallback position %q", s)
	}
}

// OverflowPolicy controls what happens when recipients do not fit in one
// payload: split into more payloads, or fail the whole call.
type OverflowPolicy string

const (
	OverflowSplit OverflowPolicy = "split"
	OverflowError OverflowPolicy = "error"
)

// ParseOverflowPolicy maps a config string onto a policy. Empty means split.
// Anything else outside the closed set is an error rather than a silent
// default.
func ParseOverflowPolicy(s string) (OverflowPolicy, error) {
	switch OverflowPolicy(s) {
	case "", OverflowSplit:
		return OverflowSplit, nil
	case OverflowError:
		return OverflowError, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// Limits bound a single payload.
type Limits struct {
	// MaxRecipients caps mentions per message. Default 100.
	MaxRecipients int

	// MaxTextLen caps the assembled text in UTF-16 code units. Default 4096,
	// Telegram's hard message limit.
	MaxTextLen int

	Overflow OverflowPolicy
}

const (
	defaultMaxRecipients = 100
	defaultMaxTextLen    = 4096
)

func (l Limits) normalized() (Limits, error) {
	if l.MaxRecipients <= 0 {
		l.MaxRecipients = defaultMaxRecipients
	}
	if l.MaxTextLen <= 0 {
		l.MaxTextLen = defaultMaxTextLen
	}
	p, err := ParseOverflowPolicy(string(l.Overflow))
	if err != nil {
		return Limits{}, err
	}
	l.Overflow = p
	return l, nil
}
