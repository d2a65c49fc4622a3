package forecast

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTitle(t *testing.T) {
	assert.Equal(t, "Bo08", Title("bo08"))
	assert.Equal(t, "Ww3Med", Title("ww3MED"))
	assert.Equal(t, "Molita15", Title("MOLITA15"))
	assert.Equal(t, "", Title(""))
	assert.Equal(t, "Città", Title("città"))
}

func TestFormatDay(t *testing.T) {
	got, err := FormatDay("20240115")
	require.NoError(t, err)
	assert.Equal(t, "15 Gennaio 2024", got)

	got, err = FormatDay("2024120312")
	require.NoError(t, err)
	assert.Equal(t, "03 Dicembre 2024", got)

	_, err = FormatDay("2024")
	assert.Error(t, err)
	_, err = FormatDay("20241301")
	assert.Error(t, err)
}

func TestFormatRun(t *testing.T) {
	assert.Equal(t, "Corsa del 00 UTC", FormatRun("2024011500"))
	assert.Equal(t, "Corsa del 12 UTC", FormatRun("2024011512_extra"))
	assert.Equal(t, "Corsa del  UTC", FormatRun("20240115"))
}

func TestDayKey(t *testing.T) {
	rome, err := time.LoadLocation("Europe/Rome")
	require.NoError(t, err)
	late := time.Date(2024, 1, 15, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, "20240116", DayKey(late, rome))
	assert.Equal(t, "20240115", DayKey(late, time.UTC))
}
