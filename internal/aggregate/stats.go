// Package aggregate сводит извлечённые сегменты в статистику по элементам
// и временным бинам.
package aggregate

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/map-metadata/internal/domain"
	"github.com/map-metadata/internal/pkg/utils"
)

// DefaultAlpha соответствует 95% доверительному интервалу
const DefaultAlpha = 0.05

const (
	intervalPlaces = 2
	boxPlotMinimum = 4
	whiskerIQR     = 1.5
)

// Estimate - выборочное среднее с доверительным интервалом. Mean равен nil
// без выборки, Interval равен nil при менее чем двух значениях.
type Estimate struct {
	Mean     *float64
	Interval *domain.Interval
}

// ConfidenceInterval оценивает среднее по t-распределению Стьюдента с k-1
// степенями свободы и стандартной ошибкой с поправкой Бесселя. Границы
// округляются наружу до двух знаков, интервал всегда содержит среднее.
func ConfidenceInterval(samples []float64, alpha float64) Estimate {
	k := len(samples)
	switch k {
	case 0:
		return Estimate{}
	case 1:
		v := samples[0]
		return Estimate{Mean: &v}
	}

	mean, sd := stat.MeanStdDev(samples, nil)
	se := sd / math.Sqrt(float64(k))

	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(k - 1)}
	margin := t.Quantile(1-alpha/2) * se

	return Estimate{
		Mean: &mean,
		Interval: &domain.Interval{
			Lower: utils.RoundDown(mean-margin, intervalPlaces),
			Upper: utils.RoundUp(mean+margin, intervalPlaces),
		},
	}
}

// Summarize строит box plot выборки. Меньше четырёх значений сохраняются
// как есть.
func Summarize(samples []float64) *domain.BoxPlot {
	if len(samples) == 0 {
		return nil
	}
	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)

	if len(sorted) < boxPlotMinimum {
		return &domain.BoxPlot{Points: sorted}
	}

	q1, med, q3 := quantile(sorted, 0.25), quantile(sorted, 0.5), quantile(sorted, 0.75)
	iqr := q3 - q1
	loFence, hiFence := q1-whiskerIQR*iqr, q3+whiskerIQR*iqr

	whislo, whishi := sorted[len(sorted)-1], sorted[0]
	var fliers []float64
	for _, v := range sorted {
		if v < loFence || v > hiFence {
			fliers = append(fliers, v)
			continue
		}
		whislo = math.Min(whislo, v)
		whishi = math.Max(whishi, v)
	}

	return &domain.BoxPlot{
		Whislo: &whislo,
		Q1:     &q1,
		Med:    &med,
		Q3:     &q3,
		Whishi: &whishi,
		Fliers: fliers,
	}
}

// quantile линейно интерполирует между ближайшими рангами отсортированной
// выборки (индекс q*(n-1))
func quantile(sorted []float64, q float64) float64 {
	idx := q * float64(len(sorted)-1)
	lo, hi := int(math.Floor(idx)), int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
