// Package insights holds the regional disease figures shown on the public
// insights page.
package insights

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"
)

type Disease string

const (
	Malaria Disease = "malaria"
	Cholera Disease = "cholera"
	Dengue  Disease = "dengue"
)

var Diseases = []Disease{Malaria, Cholera, Dengue}

func ParseDisease(s string) (Disease, bool) {
	d := Disease(s)
	return d, slices.Contains(Diseases, d)
}

type State struct {
	Name       string
	Malaria    int
	Cholera    int
	Dengue     int
	Population int
}

func (s State) Cases(d Disease) int {
	switch d {
	case Malaria:
		return s.Malaria
	case Cholera:
		return s.Cholera
	case Dengue:
		return s.Dengue
	default:
		return 0
	}
}

func (s State) Total() int {
	return s.Malaria + s.Cholera + s.Dengue
}

// Per100k is the incidence of d per 100,000 inhabitants.
func (s State) Per100k(d Disease) float64 {
	if s.Population <= 0 {
		return 0
	}
	return float64(s.Cases(d)) / float64(s.Population) * 100_000
}

type YearCount struct {
	Year  int
	Cases int
}

// Dataset is one snapshot of regional figures.
type Dataset struct {
	States       []State
	MalariaTrend []YearCount
}

// Sudan returns the reference dataset for Sudanese states.
func Sudan() Dataset {
	return Dataset{
		States: []State{
			{Name: "Khartoum", Malaria: 12500, Cholera: 890, Dengue: 234, Population: 5274321},
			{Name: "Gezira", Malaria: 8900, Cholera: 567, Dengue: 123, Population: 3575280},
			{Name: "White Nile", Malaria: 7800, Cholera: 445, Dengue: 178, Population: 2000000},
			{Name: "Blue Nile", Malaria: 6700, Cholera: 234, Dengue: 89, Population: 1200000},
			{Name: "North Kordofan", Malaria: 5600, Cholera: 345, Dengue: 156, Population: 2920000},
			{Name: "South Kordofan", Malaria: 4500, Cholera: 123, Dengue: 67, Population: 1400000},
			{Name: "Darfur", Malaria: 9800, Cholera: 678, Dengue: 234, Population: 2500000},
		},
		MalariaTrend: []YearCount{
			{Year: 2019, Cases: 45230},
			{Year: 2020, Cases: 52340},
			{Year: 2021, Cases: 48756},
			{Year: 2022, Cases: 56890},
			{Year: 2023, Cases: 51234},
			{Year: 2024, Cases: 58912},
			{Year: 2025, Cases: 62145},
		},
	}
}

type Share struct {
	Disease Disease
	Cases   int
	Percent float64
}

type Summary struct {
	TotalCases   int
	Population   int
	Distribution []Share
	// HighestBurden maps each disease to the state with the highest incidence.
	HighestBurden map[Disease]string
	// TrendChange is the relative change of the last year over the one before.
	TrendChange float64
}

func (d Dataset) Total(disease Disease) int {
	total := 0
	for _, s := range d.States {
		total += s.Cases(disease)
	}
	return total
}

func (d Dataset) Summarize() Summary {
	summary := Summary{HighestBurden: make(map[Disease]string, len(Diseases))}

	for _, s := range d.States {
		summary.TotalCases += s.Total()
		summary.Population += s.Population
	}

	for _, disease := range Diseases {
		cases := d.Total(disease)
		share := Share{Disease: disease, Cases: cases}
		if summary.TotalCases > 0 {
			share.Percent = float64(cases) / float64(summary.TotalCases) * 100
		}
		summary.Distribution = append(summary.Distribution, share)

		best, bestRate := "", -1.0
		for _, s := range d.States {
			if rate := s.Per100k(disease); rate > bestRate {
				best, bestRate = s.Name, rate
			}
		}
		summary.HighestBurden[disease] = best
	}

	if n := len(d.MalariaTrend); n >= 2 && d.MalariaTrend[n-2].Cases > 0 {
		prev, last := d.MalariaTrend[n-2].Cases, d.MalariaTrend[n-1].Cases
		summary.TrendChange = float64(last-prev) / float64(prev) * 100
	}

	return summary
}

// SortedBy returns the states ordered by descending case count of disease.
func (d Dataset) SortedBy(disease Disease) []State {
	states := slices.Clone(d.States)
	slices.SortStableFunc(states, func(a, b State) int {
		return b.Cases(disease) - a.Cases(disease)
	})
	return states
}

// WriteCSV writes one row per state.
func (d Dataset) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"state", "population", "malaria", "cholera", "dengue", "malaria_per_100k"}); err != nil {
		return err
	}
	for _, s := range d.States {
		row := []string{
			s.Name,
			strconv.Itoa(s.Population),
			strconv.Itoa(s.Malaria),
			strconv.Itoa(s.Cholera),
			strconv.Itoa(s.Dengue),
			fmt.Sprintf("%.1f", s.Per100k(Malaria)),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
