package stamp

import (
	"fmt"
	"strings"
)

// Kind selects which stampers a job runs.
type Kind int

const (
	KindBoth Kind = iota + 1
	KindStampOnly
	KindSealOnly
)

var kindNames = map[Kind]string{
	KindBoth:      "both",
	KindStampOnly: "stamp",
	KindSealOnly:  "seal",
}

// ParseKind accepts "both", "stamp" or "seal", case-insensitively.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedStampType, s)
}

func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Seals reports whether the straddle seal runs for k.
func (k Kind) Seals() bool { return k == KindBoth || k == KindSealOnly }

// Stamps reports whether the corner stamp runs for k.
func (k Kind) Stamps() bool { return k == KindBoth || k == KindStampOnly }
