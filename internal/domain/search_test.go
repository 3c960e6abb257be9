package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"кожевник", "кожевников", 0.6667},
		{"кожевник", "кожевняк", 0.5},
		{"васиьлев", "васильев", 0.3846},
		{"васиьлев", "василий", 0.3077},
		{"бодибилдинг", "боибилдингвыа", 0.4444},
		{"Кожевник", "КОЖЕВНИК", 1},
		{"", "кожевник", 0},
	}

	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			assert.InDelta(t, tt.want, Similarity(tt.a, tt.b), 0.0001)
		})
	}
}

func TestTrigrams_PadsEachWord(t *testing.T) {
	got := Trigrams("ab")
	assert.Len(t, got, 3)
	assert.Contains(t, got, "  a")
	assert.Contains(t, got, " ab")
	assert.Contains(t, got, "ab ")
}

func TestWords(t *testing.T) {
	assert.Equal(t, []string{"иван", "петров", "2"}, Words("  Иван-Петров, №2 "))
	assert.Empty(t, Words(" ,.- "))
}

func TestWordSimilarity_BestWord(t *testing.T) {
	score := WordSimilarity("кожевник", "Тренер по боксу Кожевников")
	assert.InDelta(t, 0.6667, score, 0.0001)
}

func TestRankTrainers(t *testing.T) {
	ivan := &TrainerWithUser{FirstName: "Иван", LastName: "Кожевников", Trainer: Trainer{ID: "1", WholeExperience: 2}}
	petr := &TrainerWithUser{FirstName: "Пётр", LastName: "Васильев", Trainer: Trainer{ID: "2", Description: "бодибилдинг", WholeExperience: 7.5}}
	anna := &TrainerWithUser{FirstName: "Анна", LastName: "Смирнова", Trainer: Trainer{ID: "3", WholeExperience: 4}}
	all := []*TrainerWithUser{ivan, petr, anna}

	t.Run("empty query orders by experience", func(t *testing.T) {
		got := RankTrainers("  ", all)
		assert.Len(t, got, 3)
		assert.Equal(t, "2", got[0].ID)
		assert.Equal(t, "3", got[1].ID)
		assert.Equal(t, "1", got[2].ID)
	})

	t.Run("typo still matches", func(t *testing.T) {
		got := RankTrainers("кожевник", all)
		assert.Len(t, got, 1)
		assert.Equal(t, "1", got[0].ID)
		assert.InDelta(t, 0.6667, got[0].Score, 0.0001)
	})

	t.Run("scores add up over tokens", func(t *testing.T) {
		got := RankTrainers("васиьлев боибилдингвыа", all)
		assert.Len(t, got, 1)
		assert.Equal(t, "2", got[0].ID)
		assert.InDelta(t, 0.3846+0.4444, got[0].Score, 0.0001)
	})

	t.Run("below threshold is dropped", func(t *testing.T) {
		assert.Empty(t, RankTrainers("xyz", all))
	})
}
