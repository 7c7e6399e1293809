package journey

import (
	"fmt"
	"sort"
)

type ModuleStatus string

const (
	ModuleLocked  ModuleStatus = "locked"
	ModuleCurrent ModuleStatus = "current"
	ModulePast    ModuleStatus = "past"
)

// Module bundles the questions sharing the same age range.
type Module struct {
	Title         string       `json:"title"`
	MinMonths     int          `json:"min_months"`
	MaxMonths     int          `json:"max_months"`
	Status        ModuleStatus `json:"status"`
	Unlocked      bool         `json:"unlocked"`
	QuestionCount int          `json:"question_count"`
	Dimensions    []Dimension  `json:"dimensions"`
	Questions     []Question   `json:"-"`
}

func moduleTitle(min, max int) string {
	if min == max {
		return fmt.Sprintf("%d meses", min)
	}
	return fmt.Sprintf("%d a %d meses", min, max)
}

func sortQuestions(questions []Question) {
	sort.SliceStable(questions, func(i, j int) bool {
		qi, qj := questions[i], questions[j]
		if qi.MinMonths != qj.MinMonths {
			return qi.MinMonths < qj.MinMonths
		}
		if qi.MaxMonths != qj.MaxMonths {
			return qi.MaxMonths < qj.MaxMonths
		}
		if qi.OrderIndex != qj.OrderIndex {
			return qi.OrderIndex < qj.OrderIndex
		}
		return qi.ID < qj.ID
	})
}

// GroupModules groups the questions into modules keyed by (min_months, max_months),
// sorted by age ascending, each module's questions sorted by order index.
func GroupModules(questions []Question, ageMonths int) []Module {
	sorted := make([]Question, len(questions))
	copy(sorted, questions)
	sortQuestions(sorted)

	var modules []Module
	for _, q := range sorted {
		n := len(modules)
		if n == 0 || modules[n-1].MinMonths != q.MinMonths || modules[n-1].MaxMonths != q.MaxMonths {
			modules = append(modules, newModule(q.MinMonths, q.MaxMonths, ageMonths))
			n++
		}
		m := &modules[n-1]
		m.Questions = append(m.Questions, q)
		m.QuestionCount++
		if !containsDimension(m.Dimensions, q.Dimension) {
			m.Dimensions = append(m.Dimensions, q.Dimension)
		}
	}
	for i := range modules {
		sortDimensions(modules[i].Dimensions)
	}
	return modules
}

func newModule(min, max, ageMonths int) Module {
	m := Module{
		Title:     moduleTitle(min, max),
		MinMonths: min,
		MaxMonths: max,
		Unlocked:  ageMonths >= min,
	}
	switch {
	case ageMonths < min:
		m.Status = ModuleLocked
	case ageMonths > max:
		m.Status = ModulePast
	default:
		m.Status = ModuleCurrent
	}
	return m
}

// ActiveModules returns the current modules, or the most recent unlocked one when no module covers the age.
func ActiveModules(modules []Module) []Module {
	var active []Module
	for _, m := range modules {
		if m.Status == ModuleCurrent {
			active = append(active, m)
		}
	}
	if len(active) > 0 {
		return active
	}
	var latest *Module
	for i := range modules {
		if modules[i].Unlocked && (latest == nil || modules[i].MinMonths >= latest.MinMonths) {
			latest = &modules[i]
		}
	}
	if latest == nil {
		return nil
	}
	return []Module{*latest}
}

// ActiveQuestions flattens the questions of the active modules.
func ActiveQuestions(modules []Module) []Question {
	var questions []Question
	for _, m := range ActiveModules(modules) {
		questions = append(questions, m.Questions...)
	}
	return questions
}

func containsDimension(dims []Dimension, d Dimension) bool {
	for _, dim := range dims {
		if dim == d {
			return true
		}
	}
	return false
}
