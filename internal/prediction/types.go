package prediction

type Classification struct {
	Label Label
	// Confidences are percentages that sum to 100.
	Confidences    map[Label]float64
	ModelId        string
	ProcessingTime string
}

func (c *Classification) Confidence() float64 {
	return c.Confidences[c.Label]
}

type ExplanationState uint8

const (
	ExplanationNotRequested ExplanationState = iota
	ExplanationNotApplicable
	ExplanationImage
)

func (s ExplanationState) String() string {
	switch s {
	case ExplanationNotApplicable:
		return "not_applicable"
	case ExplanationImage:
		return "image"
	default:
		return "not_requested"
	}
}

type Explanation struct {
	State ExplanationState
	// Image is a data URI or an http(s) URL, set only in the image state.
	Image string
}
