// Package site holds the storefront template registry. Businesses pick one
// template at signup; the frontend renders the matching layout.
package site

// Template describes one storefront layout option.
type Template struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Icon        string   `json:"icon"`
	Features    []string `json:"features"`
	ColorScheme string   `json:"color_scheme"`
}

var templates = []Template{
	{
		ID:          "restaurant",
		Name:        "Restaurant / Cafe",
		Description: "Perfect for restaurants, cafes, and food businesses",
		Icon:        "utensils",
		Features:    []string{"Menu Display", "Food Ordering", "Table Booking", "Reviews"},
		ColorScheme: "warm",
	},
	{
		ID:          "salon",
		Name:        "Salon / Spa",
		Description: "Ideal for salons, spas, and beauty services",
		Icon:        "scissors",
		Features:    []string{"Service Catalog", "Appointment Booking", "Stylist Profiles", "Gallery"},
		ColorScheme: "elegant",
	},
	{
		ID:          "retail",
		Name:        "Retail Store",
		Description: "For retail shops and boutiques",
		Icon:        "shopping-bag",
		Features:    []string{"Product Catalog", "Online Orders", "Offers & Deals", "Size Guide"},
		ColorScheme: "vibrant",
	},
	{
		ID:          "grocery",
		Name:        "Grocery Store",
		Description: "For grocery stores and supermarkets",
		Icon:        "shopping-cart",
		Features:    []string{"Product Categories", "Bulk Orders", "Fresh Produce", "Home Delivery"},
		ColorScheme: "fresh",
	},
	{
		ID:          "clinic",
		Name:        "Clinic / Hospital",
		Description: "For clinics, hospitals, and medical centers",
		Icon:        "heart-pulse",
		Features:    []string{"Doctor Profiles", "Appointment Booking", "Services List", "Emergency Contact"},
		ColorScheme: "medical",
	},
	{
		ID:          "services",
		Name:        "Service Business",
		Description: "For general service providers",
		Icon:        "briefcase",
		Features:    []string{"Service Catalog", "Quote Request", "Portfolio", "Testimonials"},
		ColorScheme: "professional",
	},
	{
		ID:          "interior",
		Name:        "Interior Design",
		Description: "For interior designers and decorators",
		Icon:        "home",
		Features:    []string{"Portfolio Gallery", "Project Showcase", "Consultation Booking", "Style Guide"},
		ColorScheme: "creative",
	},
	{
		ID:          "realestate",
		Name:        "Real Estate",
		Description: "For real estate agents and property dealers",
		Icon:        "building",
		Features:    []string{"Property Listings", "Virtual Tours", "Enquiry Form", "Location Map"},
		ColorScheme: "modern",
	},
	{
		ID:          "diagnostic",
		Name:        "Diagnostic Center",
		Description: "For diagnostic labs and test centers",
		Icon:        "flask",
		Features:    []string{"Test Catalog", "Home Sample Collection", "Report Delivery", "Health Packages"},
		ColorScheme: "clinical",
	},
	{
		ID:          "doctor",
		Name:        "Doctor / Physician",
		Description: "For individual doctors and physicians",
		Icon:        "stethoscope",
		Features:    []string{"About Doctor", "Specializations", "Consultation Booking", "Patient Reviews"},
		ColorScheme: "trust",
	},
	{
		ID:          "repair",
		Name:        "Repair Services",
		Description: "For repair and maintenance services",
		Icon:        "wrench",
		Features:    []string{"Service List", "Emergency Support", "Pricing Guide", "Warranty Info"},
		ColorScheme: "utility",
	},
	{
		ID:          "ac_technician",
		Name:        "AC Technician",
		Description: "For AC installation and repair services",
		Icon:        "fan",
		Features:    []string{"Service Types", "AMC Plans", "Emergency Repair", "Spare Parts"},
		ColorScheme: "cool",
	},
	{
		ID:          "water_ro",
		Name:        "Water RO Services",
		Description: "For water purifier sales and services",
		Icon:        "droplet",
		Features:    []string{"Product Range", "Installation", "Maintenance Plans", "Water Testing"},
		ColorScheme: "aqua",
	},
	{
		ID:          "event",
		Name:        "Event Management",
		Description: "For event planners and organizers",
		Icon:        "calendar-star",
		Features:    []string{"Event Portfolio", "Service Packages", "Venue Options", "Booking Request"},
		ColorScheme: "festive",
	},
	{
		ID:          "car_rental",
		Name:        "Car Rental",
		Description: "For car rental and taxi services",
		Icon:        "car",
		Features:    []string{"Vehicle Fleet", "Pricing Plans", "Booking System", "Driver Details"},
		ColorScheme: "drive",
	},
}

// Templates returns the registry in display order.
func Templates() []Template {
	out := make([]Template, len(templates))
	copy(out, templates)
	return out
}

// ValidTemplate reports whether id names a registered template.
func ValidTemplate(id string) bool {
	for _, t := range templates {
		if t.ID == id {
			return true
		}
	}
	return false
}
