// Package scoring считает долю выполненных пунктов чек-листа и раскладывает
// магазины в цветную сетку дашборда.
package scoring

import (
	"sort"

	"retail-audit/internal/models"
)

const (
	ColorNoData = "#E5E5E5"
	ColorGood   = "#A8D5BA"
	ColorFair   = "#FFF3B0"
	ColorPoor   = "#FFB5A7"

	GoodThreshold = 0.8
	FairThreshold = 0.5
)

// Score — доля категорий, отмеченных как выполненные.
// Категория без пункта в захвате считается невыполненной.
func Score(capture models.Capture, categories []models.Category) float64 {
	if len(categories) == 0 {
		return 0
	}
	compliant := 0
	for _, cat := range categories {
		if it, ok := capture.Item(cat.Key); ok && it.Compliant {
			compliant++
		}
	}
	return float64(compliant) / float64(len(categories))
}

func Color(score float64, hasData bool) string {
	if !hasData {
		return ColorNoData
	}
	if score >= GoodThreshold {
		return ColorGood
	}
	if score >= FairThreshold {
		return ColorFair
	}
	return ColorPoor
}

type Tile struct {
	Store   models.Store
	Capture *models.Capture
	Score   float64
	HasData bool
	Color   string
}

// Percent — оценка в процентах для подписи плитки
func (t Tile) Percent() float64 {
	return t.Score * 100
}

type Summary struct {
	Tiles []Tile
	// Coverage — доля магазинов с захватом за день
	Coverage float64
	// AverageScore считается только по магазинам с данными
	AverageScore float64
	StoreCount   int
	WithData     int
}

func Summarize(stores []models.Store, captures map[string]models.Capture, categories []models.Category) Summary {
	sorted := make([]models.Store, len(stores))
	copy(sorted, stores)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Code < sorted[j].Code })

	s := Summary{
		Tiles:      make([]Tile, 0, len(sorted)),
		StoreCount: len(sorted),
	}

	var total float64
	for _, store := range sorted {
		tile := Tile{Store: store}
		if c, ok := captures[store.Code]; ok {
			c := c
			tile.Capture = &c
			tile.HasData = true
			tile.Score = Score(c, categories)
			total += tile.Score
			s.WithData++
		}
		tile.Color = Color(tile.Score, tile.HasData)
		s.Tiles = append(s.Tiles, tile)
	}

	if s.StoreCount > 0 {
		s.Coverage = float64(s.WithData) / float64(s.StoreCount)
	}
	if s.WithData > 0 {
		s.AverageScore = total / float64(s.WithData)
	}
	return s
}
