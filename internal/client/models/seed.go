package models

import "math/rand"

// AvatarColors is the accent palette assigned to new contacts. A color is
// picked once at creation and never recomputed.
var AvatarColors = []string{
	"#FF6B6B", "#4ECDC4", "#45B7D1", "#96CEB4",
	"#D4A5A5", "#9B59B6", "#3498DB", "#E67E22",
	"#1ABC9C", "#F1C40F", "#E74C3C", "#8E44AD",
}

// RandomColor picks an accent color for a newly created contact.
func RandomColor() string {
	return AvatarColors[rand.Intn(len(AvatarColors))]
}

// SeedContacts returns the built-in sample contacts shown to a guest with no
// persisted data. Seed records are display-only: they are never persisted and
// never migrated into a signed-in account.
func SeedContacts() []Contact {
	return []Contact{
		{
			ID:      3,
			Name:    "Kim Minsoo",
			Company: "Hanbit Partners",
			Role:    "Sales Director",
			Phone:   "010-1234-5678",
			Email:   "minsoo.kim@hanbit.example",
			Tags:    []string{"sample"},
			Color:   "#45B7D1",
		},
		{
			ID:      2,
			Name:    "Lee Jiyeon",
			Company: "Studio Mado",
			Role:    "Product Designer",
			Phone:   "010-2345-6789",
			Email:   "jiyeon@mado.example",
			Tags:    []string{"sample", "design"},
			Color:   "#9B59B6",
		},
		{
			ID:      1,
			Name:    "Park Junho",
			Company: "Baro Logistics",
			Role:    "Operations Manager",
			Phone:   "010-3456-7890",
			Email:   "junho.park@baro.example",
			Tags:    []string{"sample"},
			Color:   "#1ABC9C",
		},
	}
}

// PlaceholderMyCard returns the guest placeholder profile shown before the
// user edits their own card.
func PlaceholderMyCard() Contact {
	return Contact{
		ID:      MyCardID,
		Name:    "My Card",
		Company: "Company",
		Role:    "Title",
		Phone:   "010-0000-0000",
		Email:   "email@example.com",
		Tags:    []string{"me"},
		Color:   "#2563eb",
	}
}
