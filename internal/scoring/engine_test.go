package scoring

import (
	"testing"

	"github.com/arne-braeckman/eventrunner-integrations/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestScore_Empty(t *testing.T) {
	assert.Equal(t, 0, Score(nil))
	assert.Equal(t, 0, Score([]models.InteractionType{}))
	assert.Equal(t, models.HeatCold, Classify(0))
}

func TestScore_UnknownTypeContributesZero(t *testing.T) {
	types := []models.InteractionType{
		models.InteractionSocialFollow,
		models.InteractionType("carrier_pigeon"),
	}
	assert.Equal(t, 1, Score(types))
}

func TestScore_OrderIndependent(t *testing.T) {
	forward := []models.InteractionType{
		models.InteractionSocialFollow,
		models.InteractionWebsiteVisit,
		models.InteractionInfoRequest,
		models.InteractionPriceQuote,
	}
	backward := []models.InteractionType{
		models.InteractionPriceQuote,
		models.InteractionInfoRequest,
		models.InteractionWebsiteVisit,
		models.InteractionSocialFollow,
	}
	assert.Equal(t, Score(forward), Score(backward))
}

func TestScore_EngagedProspectScenario(t *testing.T) {
	// follow(1) + website visit(2) + info request(5) + price quote(8) = 16
	types := []models.InteractionType{
		models.InteractionSocialFollow,
		models.InteractionWebsiteVisit,
		models.InteractionInfoRequest,
		models.InteractionPriceQuote,
	}
	score := Score(types)
	assert.Equal(t, 16, score)
	assert.Equal(t, models.HeatHot, Classify(score))
}

func TestClassify_Boundaries(t *testing.T) {
	tests := []struct {
		name     string
		score    int
		expected models.LeadHeat
	}{
		{"Zero is cold", 0, models.HeatCold},
		{"Upper cold boundary", 5, models.HeatCold},
		{"Lower warm boundary", 6, models.HeatWarm},
		{"Upper warm boundary", 15, models.HeatWarm},
		{"Lower hot boundary", 16, models.HeatHot},
		{"Well into hot", 40, models.HeatHot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.score))
		})
	}
}

func TestWeight_MatchesTable(t *testing.T) {
	assert.Equal(t, 5, Weight(models.InteractionInfoRequest))
	assert.Equal(t, 10, Weight(models.InteractionSiteVisit))
	assert.Equal(t, 0, Weight(models.InteractionType("unknown")))
}

func TestScoreInteractions(t *testing.T) {
	interactions := []models.Interaction{
		{Type: models.InteractionMeeting},
		{Type: models.InteractionEmailOpen},
		{Type: models.InteractionEmailClick},
	}
	assert.Equal(t, 11, ScoreInteractions(interactions))
	assert.Equal(t, models.HeatWarm, Classify(ScoreInteractions(interactions)))
}
