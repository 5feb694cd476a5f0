package components

import "fmt"

var kindNames = [NumKinds]string{"grass", "sheep", "wolf"}

// String returns the species name used in logs and CSV output.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	kind, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// ParseKind parses a species name.
func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if name == s {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown species %q", s)
}

// String returns the display name for a Season.
func (s Season) String() string {
	names := SeasonNames()
	if int(s) < len(names) {
		return names[s]
	}
	return "unknown"
}

// SeasonNames returns the display names for all seasons.
// The order matches the Season constants.
func SeasonNames() []string {
	return []string{"spring", "summer", "autumn", "winter"}
}

// String returns the display name for a GrowthStage.
func (g GrowthStage) String() string {
	switch g {
	case StageSeed:
		return "seed"
	case StageSprout:
		return "sprout"
	case StageMature:
		return "mature"
	case StageDying:
		return "dying"
	}
	return "unknown"
}

// String returns the display name for a PackRole.
func (r PackRole) String() string {
	switch r {
	case RoleAlpha:
		return "alpha"
	case RoleOmega:
		return "omega"
	}
	return "none"
}

var directionNames = []string{"none", "n", "ne", "e", "se", "s", "sw", "w", "nw"}

// String returns the compass abbreviation.
func (d Direction) String() string {
	if int(d) < len(directionNames) {
		return directionNames[d]
	}
	return "unknown"
}
