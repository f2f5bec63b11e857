package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/pinboard/internal/model"
	"github.com/d60-Lab/pinboard/internal/testutil"
)

func TestContainsPattern(t *testing.T) {
	assert.Equal(t, "%beach%", containsPattern("beach"))
	assert.Equal(t, "%!%%", containsPattern("%"))
	assert.Equal(t, "%b!_ach%", containsPattern("b_ach"))
	assert.Equal(t, "%a!!b%", containsPattern("a!b"))
}

func TestContainsPattern_LiteralMatch(t *testing.T) {
	db := testutil.NewDB(t)
	for _, name := range []string{"beach", "sunset", "50%_off", "wow!"} {
		require.NoError(t, db.Create(&model.Tag{Name: name}).Error)
	}

	cases := map[string][]string{
		"%":     {"50%_off"},
		"_":     {"50%_off"},
		"b_ach": nil,
		"%_":    {"50%_off"},
		"!":     {"wow!"},
		"each":  {"beach"},
	}
	for tok, want := range cases {
		var got []string
		err := db.Model(&model.Tag{}).
			Where("name LIKE ? ESCAPE '!'", containsPattern(tok)).
			Order("name").
			Pluck("name", &got).Error
		require.NoError(t, err, tok)
		assert.ElementsMatch(t, want, got, tok)
	}
}
