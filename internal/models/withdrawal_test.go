package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUSDCValue(t *testing.T) {
	assert.Equal(t, "1", USDCValue(100, 100).String())
	assert.Equal(t, "1.5", USDCValue(150, 100).String())
	assert.Equal(t, "0.33", USDCValue(33, 100).String())
	assert.Equal(t, "12.35", USDCValue(1235, 100).String())
}

func TestUSDCValueInvalidRate(t *testing.T) {
	assert.True(t, USDCValue(100, 0).IsZero())
	assert.True(t, USDCValue(100, -5).IsZero())
}

func TestAirdropValidate(t *testing.T) {
	a := &Airdrop{Title: "Drop", Status: AirdropStatusActive}
	a.StartDate = a.EndDate // equal dates are invalid
	assert.ErrorIs(t, a.Validate(), ErrInvalidDates)

	a.EndDate = a.StartDate.AddDate(0, 1, 0)
	assert.NoError(t, a.Validate())

	a.Tasks = []Task{{ID: "t1", Type: "carrier-pigeon", Points: 10}}
	assert.ErrorIs(t, a.Validate(), ErrInvalidTaskType)

	a.Tasks = []Task{{ID: "t1", Type: TaskTypeTwitter, Points: 0}}
	assert.ErrorIs(t, a.Validate(), ErrInvalidTaskPoints)
}
