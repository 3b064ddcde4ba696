package chore

import "strings"

// DefaultCategory is used when a title matches no known chore.
const DefaultCategory = "General"

// Categories lists the household areas chores are filed under.
var Categories = []string{
	"General", "Bedroom", "Kitchen", "Bathroom", "Living Areas", "Pets", "Outdoor", "Study Time",
}

// Categorize returns the category for a chore title. It performs
// case-insensitive matching: exact match first, then substring match.
// Falls back to DefaultCategory if no match is found.
func Categorize(title string) string {
	name := strings.ToLower(strings.TrimSpace(title))
	if name == "" {
		return DefaultCategory
	}

	// Phase 1: exact match
	if cat, ok := exactMatch[name]; ok {
		return cat
	}

	// Phase 2: substring match (ordered longer/more-specific first)
	for _, entry := range substringMatches {
		if strings.Contains(name, entry.keyword) {
			return entry.category
		}
	}

	return DefaultCategory
}

// CategoryOr returns category when set, otherwise the category for title.
func CategoryOr(category, title string) string {
	if c := strings.TrimSpace(category); c != "" {
		return c
	}
	return Categorize(title)
}

var exactMatch = map[string]string{
	"dishes":       "Kitchen",
	"cooking":      "Kitchen",
	"set table":    "Kitchen",
	"clear table":  "Kitchen",
	"make bed":     "Bedroom",
	"tidy room":    "Bedroom",
	"clean room":   "Bedroom",
	"toilet":       "Bathroom",
	"bath":         "Bathroom",
	"vacuum":       "Living Areas",
	"vacuuming":    "Living Areas",
	"dusting":      "Living Areas",
	"mopping":      "Living Areas",
	"walk dog":     "Pets",
	"walk the dog": "Pets",
	"feed cat":     "Pets",
	"feed the cat": "Pets",
	"litter box":   "Pets",
	"weeding":      "Outdoor",
	"mow lawn":     "Outdoor",
	"homework":     "Study Time",
	"reading":      "Study Time",
	"piano":        "Study Time",
}

type substringEntry struct {
	keyword  string
	category string
}

var substringMatches = []substringEntry{
	// Contains "pet" and "car"
	{"carpet", "Living Areas"},

	// Pets
	{"litter", "Pets"},
	{"fish tank", "Pets"},
	{"aquarium", "Pets"},
	{"hamster", "Pets"},
	{"dog", "Pets"},
	{"cat", "Pets"},
	{"pet", "Pets"},

	// Kitchen
	{"dishwasher", "Kitchen"},
	{"counter", "Kitchen"},
	{"fridge", "Kitchen"},
	{"dishes", "Kitchen"},
	{"kitchen", "Kitchen"},
	{"table", "Kitchen"},
	{"lunch", "Kitchen"},
	{"dinner", "Kitchen"},
	{"bake", "Kitchen"},

	// Bathroom
	{"bathroom", "Bathroom"},
	{"bathtub", "Bathroom"},
	{"shower", "Bathroom"},
	{"toilet", "Bathroom"},
	{"sink", "Bathroom"},
	{"towel", "Bathroom"},

	// Bedroom
	{"bedroom", "Bedroom"},
	{"laundry", "Bedroom"},
	{"closet", "Bedroom"},
	{"clothes", "Bedroom"},
	{"toys", "Bedroom"},
	{"bed", "Bedroom"},

	// Outdoor
	{"garden", "Outdoor"},
	{"lawn", "Outdoor"},
	{"leaves", "Outdoor"},
	{"snow", "Outdoor"},
	{"plants", "Outdoor"},
	{"yard", "Outdoor"},
	{"trash", "Outdoor"},
	{"car", "Outdoor"},

	// Study Time
	{"homework", "Study Time"},
	{"practice", "Study Time"},
	{"study", "Study Time"},
	{"read", "Study Time"},

	// Living Areas
	{"living room", "Living Areas"},
	{"vacuum", "Living Areas"},
	{"sofa", "Living Areas"},
	{"couch", "Living Areas"},
	{"floor", "Living Areas"},
	{"dust", "Living Areas"},
	{"mop", "Living Areas"},
}
