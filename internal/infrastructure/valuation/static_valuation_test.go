package valuation

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pokemon-trade-fraud-engine/internal/domain/entity"
	"pokemon-trade-fraud-engine/internal/infrastructure/config"
)

func newService() *StaticValuationService {
	return &StaticValuationService{config: &config.ValuationConfig{
		DefaultBaseValue: 100,
		SpeciesBaseValue: map[string]float64{"charizard": 5000},
		LevelMultiplier:  0.02,
		ShinyMultiplier:  10,
	}}
}

func TestEstimateItemValueDefaultSpecies(t *testing.T) {
	s := newService()

	// base 100 at level 80: 100 * (1 + 80*0.02) = 260
	v, err := s.EstimateItemValue(context.Background(), entity.TradeItem{
		PokemonID: "pkm-1", Species: "rattata", Level: 80,
	})
	require.NoError(t, err)
	assert.True(t, v.Equal(decimal.NewFromInt(260)), "got %s", v)
}

func TestEstimateItemValueShinyMultiplier(t *testing.T) {
	s := newService()

	v, err := s.EstimateItemValue(context.Background(), entity.TradeItem{
		PokemonID: "pkm-2", Species: "rattata", Level: 80, Shiny: true,
	})
	require.NoError(t, err)
	assert.True(t, v.Equal(decimal.NewFromInt(2600)), "got %s", v)
}

func TestEstimateItemValueSpeciesTableIsCaseInsensitive(t *testing.T) {
	s := newService()

	v, err := s.EstimateItemValue(context.Background(), entity.TradeItem{
		PokemonID: "pkm-3", Species: "Charizard", Level: 0,
	})
	require.NoError(t, err)
	assert.True(t, v.Equal(decimal.NewFromInt(5000)), "got %s", v)
}

func TestEstimateSideValueSumsCreditsAndItems(t *testing.T) {
	s := newService()

	v, err := s.EstimateSideValue(context.Background(), entity.TradeSide{
		UserID:  "u1",
		Credits: decimal.NewFromInt(1000),
		Items: []entity.TradeItem{
			{PokemonID: "pkm-1", Species: "rattata", Level: 80},
			{PokemonID: "pkm-2", Species: "charizard", Level: 50},
		},
	})
	require.NoError(t, err)

	// 1000 + 260 + 5000*2 = 11260
	assert.True(t, v.Equal(decimal.NewFromInt(11260)), "got %s", v)
}
