package categorization

// Canonical category names.
const (
	Dining         = "Dining"
	Fuel           = "Fuel"
	Groceries      = "Groceries"
	Coffee         = "Coffee"
	Transportation = "Transportation"
	Entertainment  = "Entertainment"
	Health         = "Health"
	Shopping       = "Shopping"
	Utilities      = "Utilities"
)

// ChatAliases is the ordered alias table used by the chat intent classifier.
var ChatAliases = []Rule{
	{"restaurant", Dining},
	{"food", Dining},
	{"dining", Dining},
	{"gas", Fuel},
	{"fuel", Fuel},
	{"groceries", Groceries},
	{"coffee", Coffee},
	{"uber", Transportation},
	{"movies", Entertainment},
	{"pharmacy", Health},
	{"shopping", Shopping},
	{"utilities", Utilities},
}

// ReceiptKeywords is the ordered keyword table used when scanning receipt lines.
// Group order matters: groceries, fuel, health, dining, transportation, entertainment.
var ReceiptKeywords = []Rule{
	{"grocery", Groceries},
	{"groceries", Groceries},
	{"supermarket", Groceries},
	{"market", Groceries},
	{"walmart", Groceries},
	{"costco", Groceries},
	{"aldi", Groceries},
	{"kroger", Groceries},

	{"fuel", Fuel},
	{"gas", Fuel},
	{"petrol", Fuel},
	{"diesel", Fuel},
	{"chevron", Fuel},
	{"exxon", Fuel},

	{"pharmacy", Health},
	{"clinic", Health},
	{"hospital", Health},
	{"doctor", Health},
	{"dental", Health},
	{"walgreens", Health},

	{"restaurant", Dining},
	{"cafe", Dining},
	{"coffee", Dining},
	{"pizza", Dining},
	{"burger", Dining},
	{"diner", Dining},
	{"bistro", Dining},

	{"uber", Transportation},
	{"lyft", Transportation},
	{"taxi", Transportation},
	{"parking", Transportation},
	{"metro", Transportation},
	{"train", Transportation},

	{"cinema", Entertainment},
	{"movie", Entertainment},
	{"netflix", Entertainment},
	{"spotify", Entertainment},
	{"theater", Entertainment},
	{"concert", Entertainment},
}

// KnownCategories lists every canonical name the fuzzy normalizer snaps to.
var KnownCategories = []string{
	Dining, Fuel, Groceries, Coffee, Transportation, Entertainment, Health, Shopping, Utilities,
	"Income", "Salary", "Rent", "Subscriptions", "Travel", Uncategorized,
}
