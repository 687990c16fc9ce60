package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPreference is returned for preference values outside their enum
var ErrInvalidPreference = errors.New("invalid preference")

// Arrangement selects which directional forces shape the layout
type Arrangement int

const (
	ArrangementForce Arrangement = iota // physics only
	ArrangementChronological
	ArrangementThematic
)

func (a Arrangement) String() string {
	switch a {
	case ArrangementChronological:
		return "chronological"
	case ArrangementThematic:
		return "thematic"
	default:
		return "force"
	}
}

// ParseArrangement accepts "chronological", "thematic", and "force"; the
// empty string and "default" mean a pure force layout
func ParseArrangement(s string) (Arrangement, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "chronological":
		return ArrangementChronological, nil
	case "thematic":
		return ArrangementThematic, nil
	case "", "default", "force":
		return ArrangementForce, nil
	}
	return ArrangementForce, fmt.Errorf("%w: arrangement %q", ErrInvalidPreference, s)
}

func (a Arrangement) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Arrangement) UnmarshalText(text []byte) error {
	v, err := ParseArrangement(string(text))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Focus selects which context note is shown for a work
type Focus int

const (
	FocusHistorical Focus = iota
	FocusLiterary
	FocusThematic
)

func (f Focus) String() string {
	switch f {
	case FocusLiterary:
		return "literary"
	case FocusThematic:
		return "thematic"
	default:
		return "historical"
	}
}

// ParseFocus accepts "historical", "literary", and "thematic"
func ParseFocus(s string) (Focus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "historical":
		return FocusHistorical, nil
	case "literary":
		return FocusLiterary, nil
	case "thematic":
		return FocusThematic, nil
	}
	return FocusHistorical, fmt.Errorf("%w: focus %q", ErrInvalidPreference, s)
}

func (f Focus) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *Focus) UnmarshalText(text []byte) error {
	v, err := ParseFocus(string(text))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// Style selects the level of detail and animation of the rendering
type Style int

const (
	StyleDetailed Style = iota
	StyleMinimal
	StyleAnimated
)

func (s Style) String() string {
	switch s {
	case StyleMinimal:
		return "minimal"
	case StyleAnimated:
		return "animated"
	default:
		return "detailed"
	}
}

// ParseStyle accepts "minimal", "detailed", and "animated"
func ParseStyle(s string) (Style, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "minimal":
		return StyleMinimal, nil
	case "detailed":
		return StyleDetailed, nil
	case "animated":
		return StyleAnimated, nil
	}
	return StyleDetailed, fmt.Errorf("%w: style %q", ErrInvalidPreference, s)
}

func (s Style) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Style) UnmarshalText(text []byte) error {
	v, err := ParseStyle(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Preferences are chosen once before a session starts and never change for
// its lifetime
type Preferences struct {
	Arrangement Arrangement `json:"arrangement"`
	Focus       Focus       `json:"focus"`
	Style       Style       `json:"style"`
}

// ParsePreferences parses the three preference values
func ParsePreferences(arrangement, focus, style string) (Preferences, error) {
	a, err := ParseArrangement(arrangement)
	if err != nil {
		return Preferences{}, err
	}
	f, err := ParseFocus(focus)
	if err != nil {
		return Preferences{}, err
	}
	s, err := ParseStyle(style)
	if err != nil {
		return Preferences{}, err
	}
	return Preferences{Arrangement: a, Focus: f, Style: s}, nil
}
