package domain

// Kind namespaces dataset keys in the reference resolver.
type Kind string

// Reference kinds.
const (
	KindCategory      Kind = "category"
	KindCustomization Kind = "customization"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindCategory || k == KindCustomization
}

// Category is a menu category as stored in the document store.
type Category struct {
	ID          string
	Name        string
	Description string
}

// Customization is an add-on that can be linked to menu items.
type Customization struct {
	ID    string
	Name  string
	Price float64
	Type  string
}

// MenuItem is a dish. ImageURL points to an asset already present in the blob store.
type MenuItem struct {
	ID          string
	Name        string
	Description string
	ImageURL    string
	Price       float64
	Rating      float64
	Calories    int
	Protein     int
	CategoryID  string
}

// MenuCustomizationLink is the junction record between a menu item and a customization.
type MenuCustomizationLink struct {
	ID              string
	MenuID          string
	CustomizationID string
}
