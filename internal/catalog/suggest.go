package catalog

import (
	"strings"

	"github.com/dukerupert/focuspal/internal/model"
)

// Suggest picks the child's category for a free-text title such as a task
// name. It tries, case-insensitively, an exact category name, then a
// category name contained in the title, then keywords for the default
// categories. Inactive categories are never suggested.
func Suggest(title string, cats []model.Category) (model.Category, bool) {
	name := strings.ToLower(strings.TrimSpace(title))
	if name == "" {
		return model.Category{}, false
	}

	active := Active(cats)
	byName := make(map[string]model.Category, len(active))
	for _, c := range active {
		byName[strings.ToLower(c.Name)] = c
	}

	// Phase 1: exact match
	if c, ok := byName[name]; ok {
		return c, true
	}

	// Phase 2: a category named in the title, longest name first
	var bestName string
	for lower := range byName {
		if !strings.Contains(name, lower) {
			continue
		}
		if len(lower) > len(bestName) || (len(lower) == len(bestName) && lower < bestName) {
			bestName = lower
		}
	}
	if bestName != "" {
		return byName[bestName], true
	}

	// Phase 3: keywords, ordered longer/more-specific first
	for _, entry := range keywordMatches {
		if !strings.Contains(name, entry.keyword) {
			continue
		}
		if c, ok := byName[strings.ToLower(entry.category)]; ok {
			return c, true
		}
	}
	return model.Category{}, false
}

type keywordEntry struct {
	keyword  string
	category string
}

var keywordMatches = []keywordEntry{
	// Music, before sports so "piano practice" is not read as training
	{"piano", "Music"},
	{"guitar", "Music"},
	{"violin", "Music"},
	{"cello", "Music"},
	{"flute", "Music"},
	{"drum", "Music"},
	{"recorder", "Music"},
	{"choir", "Music"},
	{"singing", "Music"},
	{"band", "Music"},

	// Screen Time
	{"video game", "Screen Time"},
	{"youtube", "Screen Time"},
	{"tablet", "Screen Time"},
	{"ipad", "Screen Time"},
	{"minecraft", "Screen Time"},
	{"movie", "Screen Time"},
	{"cartoon", "Screen Time"},
	{"tv", "Screen Time"},
	{"screen", "Screen Time"},

	// Homework
	{"worksheet", "Homework"},
	{"spelling", "Homework"},
	{"math", "Homework"},
	{"science", "Homework"},
	{"history", "Homework"},
	{"essay", "Homework"},
	{"project", "Homework"},
	{"study", "Homework"},
	{"test prep", "Homework"},
	{"quiz", "Homework"},
	{"assignment", "Homework"},

	// Reading
	{"library", "Reading"},
	{"chapter", "Reading"},
	{"novel", "Reading"},
	{"comic", "Reading"},
	{"book", "Reading"},
	{"story", "Reading"},
	{"read", "Reading"},

	// Sports
	{"soccer", "Sports"},
	{"football", "Sports"},
	{"basketball", "Sports"},
	{"baseball", "Sports"},
	{"tennis", "Sports"},
	{"swim", "Sports"},
	{"karate", "Sports"},
	{"gymnastics", "Sports"},
	{"dance", "Sports"},
	{"bike", "Sports"},
	{"run", "Sports"},
	{"training", "Sports"},

	// Playing
	{"board game", "Playing"},
	{"lego", "Playing"},
	{"puzzle", "Playing"},
	{"toys", "Playing"},
	{"dolls", "Playing"},
	{"blocks", "Playing"},
	{"outside", "Playing"},
	{"playground", "Playing"},
	{"play", "Playing"},
}
