package quantity

import "strings"

// unitVocabulary maps lowercase unit tokens (full and abbreviated forms,
// English and German) to a canonical unit. Recognition keeps the token as
// written; the canonical form only gates membership.
var unitVocabulary = map[string]string{
	// Metric weight
	"g": "g", "gram": "g", "grams": "g", "gramm": "g", "gr": "g",
	"kg": "kg", "kilogram": "kg", "kilograms": "kg", "kilo": "kg", "kilos": "kg",
	"mg": "mg", "milligram": "mg", "milligrams": "mg",

	// Metric volume
	"ml": "ml", "milliliter": "ml", "milliliters": "ml", "millilitre": "ml", "millilitres": "ml",
	"l": "l", "liter": "l", "liters": "l", "litre": "l", "litres": "l",
	"dl": "dl", "deciliter": "dl", "deciliters": "dl",

	// Imperial volume
	"cup": "cup", "cups": "cup",
	"tbsp": "tbsp", "tbs": "tbsp", "tablespoon": "tbsp", "tablespoons": "tbsp",
	"el": "tbsp", "esslöffel": "tbsp", "essloeffel": "tbsp",
	"tsp": "tsp", "teaspoon": "tsp", "teaspoons": "tsp",
	"tl": "tsp", "teelöffel": "tsp", "teeloeffel": "tsp",

	// Imperial weight
	"oz": "oz", "ounce": "oz", "ounces": "oz",
	"lb": "lb", "lbs": "lb", "pound": "lb", "pounds": "lb",

	// Count units
	"pinch": "pinch", "pinches": "pinch", "prise": "pinch", "prisen": "pinch",
	"clove": "clove", "cloves": "clove", "zehe": "clove", "zehen": "clove",
	"piece": "piece", "pieces": "piece", "stück": "piece", "stk": "piece",
	"can": "can", "cans": "can", "dose": "can", "dosen": "can",
	"bunch": "bunch", "bunches": "bunch", "bund": "bunch",
	"slice": "slice", "slices": "slice", "scheibe": "slice", "scheiben": "slice",
	"stick": "stick", "sticks": "stick", "stange": "stick", "stangen": "stick",
	"package": "package", "packages": "package", "pkg": "package",
	"packung": "package", "packungen": "package", "päckchen": "package",
}

// isUnit reports whether a token belongs to the unit vocabulary.
// Matching is case-insensitive and tolerates a trailing abbreviation dot.
func isUnit(token string) bool {
	token = strings.ToLower(strings.TrimSuffix(token, "."))
	_, ok := unitVocabulary[token]
	return ok
}
