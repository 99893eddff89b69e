// Package fairness classifies a user's give/receive history into a label
// shown to item owners when choosing a recipient. Classification is pure
// and advisory only; the owner picks freely.
package fairness

// Classification is the display-oriented result of classifying a stats
// snapshot.
type Classification struct {
	Score      float64 `json:"score"`
	Label      string  `json:"label"`
	ColorClass string  `json:"color_class"`
}

// Labels.
const (
	LabelNewUser   = "New User"
	LabelTakerOnly = "Taker Only"
	LabelVeryFair  = "Very Fair"
	LabelFair      = "Fair"
	LabelTakesMore = "Takes More"
)

// Classify derives a fairness label from give/receive counts.
//
// A user who has given but never received has an undefined literal ratio;
// they classify as Very Fair with the given count as score, since any
// nonzero giving against zero receiving exceeds the Very Fair threshold.
func Classify(given, received int) Classification {
	switch {
	case given == 0 && received == 0:
		return Classification{Score: 0, Label: LabelNewUser, ColorClass: "text-gray-500"}
	case given == 0:
		return Classification{Score: 0, Label: LabelTakerOnly, ColorClass: "text-red-600"}
	case received == 0:
		return Classification{Score: float64(given), Label: LabelVeryFair, ColorClass: "text-green-600"}
	}

	ratio := float64(given) / float64(received)
	switch {
	case ratio >= 2:
		return Classification{Score: ratio, Label: LabelVeryFair, ColorClass: "text-green-600"}
	case ratio >= 1:
		return Classification{Score: ratio, Label: LabelFair, ColorClass: "text-lime-600"}
	default:
		return Classification{Score: ratio, Label: LabelTakesMore, ColorClass: "text-orange-600"}
	}
}
