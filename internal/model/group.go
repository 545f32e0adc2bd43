package model

// Group is a named recurring meetup records are associated with. The set
// is fixed and small, so it lives in code rather than in a table.
type Group struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Location    string `json:"location"`
	Day         string `json:"day"`
	Time        string `json:"time"`
	Description string `json:"description"`
}

// AvailableGroups is the full gathering catalogue. Record.Gathering stores
// the group Name.
var AvailableGroups = []Group{
	{
		ID:          "studio-730-cupertino",
		Name:        "Studio 7:30 (Cupertino)",
		Location:    "Cupertino",
		Day:         "Thursday",
		Time:        "7:30 PM",
		Description: "Join us every Thursday at 7:30 PM in Cupertino",
	},
	{
		ID:          "studio-800-palo-alto",
		Name:        "Studio 8:00 (Palo Alto)",
		Location:    "Palo Alto",
		Day:         "Sunday",
		Time:        "8:00 AM",
		Description: "Join us every Sunday at 8:00 AM in Palo Alto",
	},
}

// GroupByName looks a group up by its display name.
func GroupByName(name string) (Group, bool) {
	for _, g := range AvailableGroups {
		if g.Name == name {
			return g, true
		}
	}
	return Group{}, false
}

// GroupByID looks a group up by its identifier.
func GroupByID(id string) (Group, bool) {
	for _, g := range AvailableGroups {
		if g.ID == id {
			return g, true
		}
	}
	return Group{}, false
}
