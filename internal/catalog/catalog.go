// Package catalog holds the fixed list of volunteering activities.
package catalog

// Activity is a static catalog entry. Date and Duration are display strings;
// Volunteers is advisory and never checked against joins.
type Activity struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Date        string `json:"date"`
	Duration    string `json:"duration"`
	Volunteers  int    `json:"volunteers"`
	ImageURL    string `json:"image_url"`
}

var activities = []Activity{
	{
		ID:          "tree-plantation",
		Title:       "Tree Plantation Drive",
		Description: "Join us in planting trees to combat climate change and improve air quality in our community. Make a lasting environmental impact.",
		Icon:        "🌱",
		Date:        "March 25, 2024",
		Duration:    "4 hours",
		Volunteers:  25,
		ImageURL:    "https://images.unsplash.com/photo-1441974231531-c6227db76b6e?ixlib=rb-4.0.3&auto=format&fit=crop&w=800&h=400",
	},
	{
		ID:          "health-awareness",
		Title:       "Health Awareness Campaign",
		Description: "Help spread awareness about health and wellness in underserved communities. Educate families about preventive care and healthy living.",
		Icon:        "🏥",
		Date:        "March 30, 2024",
		Duration:    "6 hours",
		Volunteers:  15,
		ImageURL:    "https://images.unsplash.com/photo-1559757148-5c350d0d3c56?ixlib=rb-4.0.3&auto=format&fit=crop&w=800&h=400",
	},
	{
		ID:          "teaching-kids",
		Title:       "Teaching Kids Program",
		Description: "Share your knowledge and help underprivileged children with their education. Make a difference in young minds and their future.",
		Icon:        "👩‍🏫",
		Date:        "April 5, 2024",
		Duration:    "3 hours",
		Volunteers:  12,
		ImageURL:    "https://images.unsplash.com/photo-1497486751825-1233686d5d80?ixlib=rb-4.0.3&auto=format&fit=crop&w=800&h=400",
	},
	{
		ID:          "environment-cleanup",
		Title:       "Environment Cleanup",
		Description: "Join our community cleanup effort to remove litter and protect local wildlife. Help preserve our beautiful natural spaces for future generations.",
		Icon:        "♻️",
		Date:        "April 10, 2024",
		Duration:    "5 hours",
		Volunteers:  30,
		ImageURL:    "https://images.unsplash.com/photo-1558618666-fcd25c85cd64?ixlib=rb-4.0.3&auto=format&fit=crop&w=800&h=400",
	},
}

// List returns the catalog in declaration order. The slice is a copy.
func List() []Activity {
	out := make([]Activity, len(activities))
	copy(out, activities)
	return out
}

// Lookup finds an activity by id.
func Lookup(id string) (Activity, bool) {
	for _, a := range activities {
		if a.ID == id {
			return a, true
		}
	}
	return Activity{}, false
}
