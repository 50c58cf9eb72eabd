package database

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"pokemon-trade-fraud-engine/internal/domain/entity"
)

func TestStringOrEmptyHandlesNullProperties(t *testing.T) {
	assert.Equal(t, "trainer-1", stringOrEmpty("trainer-1"))
	assert.Equal(t, "", stringOrEmpty(nil))
	assert.Equal(t, "", stringOrEmpty(int64(42)))
}

func TestTimeOrZeroHandlesNullProperties(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, at, timeOrZero(at))
	assert.True(t, timeOrZero(nil).IsZero())
	assert.True(t, timeOrZero("2026-03-01").IsZero())
}

func TestDecimalFromStoredDegradesToZero(t *testing.T) {
	assert.True(t, decimalFromStored("123.45").Equal(decimal.NewFromFloat(123.45)))
	assert.True(t, decimalFromStored(nil).IsZero())
	assert.True(t, decimalFromStored("not-a-number").IsZero())
	assert.True(t, decimalFromStored(int64(7)).IsZero())
}

func TestObtainMethodFromStoredDefaultsToUnknown(t *testing.T) {
	assert.Equal(t, entity.ObtainMethodTrade, obtainMethodFromStored("TRADE"))
	assert.Equal(t, entity.ObtainMethodUnknown, obtainMethodFromStored(nil))
	assert.Equal(t, entity.ObtainMethodUnknown, obtainMethodFromStored(""))
	assert.Equal(t, entity.ObtainMethodUnknown, obtainMethodFromStored(int64(3)))
}

func TestIsoTimeUsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+7", 7*3600)
	at := time.Date(2026, 3, 1, 19, 30, 0, 0, loc)
	assert.Equal(t, "2026-03-01T12:30:00.000Z", isoTime(at))
}
