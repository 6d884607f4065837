package prediction

import (
	"fmt"
	"strings"
)

type Label uint8

const (
	Normal Label = iota + 1
	Bacterial
	Viral
)

// Labels lists every label in display order.
var Labels = []Label{Normal, Bacterial, Viral}

func (l Label) String() string {
	switch l {
	case Normal:
		return "Normal"
	case Bacterial:
		return "Bacterial"
	case Viral:
		return "Viral"
	default:
		return fmt.Sprintf("Label(%d)", uint8(l))
	}
}

func (l Label) MarshalText() ([]byte, error) {
	if l < Normal || l > Viral {
		return nil, fmt.Errorf("invalid label %d", uint8(l))
	}
	return []byte(l.String()), nil
}

func (l *Label) UnmarshalText(text []byte) error {
	parsed, err := ParseLabel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ParseLabel accepts the spellings used by the inference backends: "Normal",
// "normal", "NORMAL", "BACTERIAL PNEUMONIA", "viral" and so on.
func ParseLabel(s string) (Label, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.TrimSpace(strings.TrimSuffix(norm, "PNEUMONIA"))

	switch norm {
	case "NORMAL":
		return Normal, nil
	case "BACTERIAL":
		return Bacterial, nil
	case "VIRAL":
		return Viral, nil
	default:
		return 0, fmt.Errorf("unrecognized label %q", s)
	}
}
