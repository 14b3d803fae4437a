package scoring

import "github.com/arne-braeckman/eventrunner-integrations/internal/models"

// Heat classification thresholds. Scores of warmThreshold or below are cold,
// scores of hotThreshold or above are hot.
const (
	warmThreshold = 5
	hotThreshold  = 16
)

// weights maps every interaction type to its fixed score contribution.
// Unknown types contribute 0.
var weights = map[models.InteractionType]int{
	models.InteractionSocialFollow:  1,
	models.InteractionSocialLike:    1,
	models.InteractionSocialComment: 2,
	models.InteractionSocialMessage: 3,
	models.InteractionWebsiteVisit:  2,
	models.InteractionEmailOpen:     1,
	models.InteractionEmailClick:    2,
	models.InteractionInfoRequest:   5,
	models.InteractionPhoneCall:     5,
	models.InteractionPriceQuote:    8,
	models.InteractionMeeting:       8,
	models.InteractionSiteVisit:     10,
	models.InteractionOther:         1,
}

// Weight returns the fixed weight of one interaction type, 0 for unknown.
func Weight(t models.InteractionType) int {
	return weights[t]
}

// Score sums the weights of the given interaction types. It is pure and
// order-independent; an empty slice scores 0.
func Score(types []models.InteractionType) int {
	total := 0
	for _, t := range types {
		total += weights[t]
	}
	return total
}

// ScoreInteractions scores a contact's stored interaction history.
func ScoreInteractions(interactions []models.Interaction) int {
	total := 0
	for _, in := range interactions {
		total += weights[in.Type]
	}
	return total
}

// Classify maps a score to a heat tier: cold up to 5, warm 6-15, hot from 16.
func Classify(score int) models.LeadHeat {
	switch {
	case score >= hotThreshold:
		return models.HeatHot
	case score > warmThreshold:
		return models.HeatWarm
	default:
		return models.HeatCold
	}
}
