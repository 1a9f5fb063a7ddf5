package catalog

import "github.com/kailas-cloud/menuseed/internal/domain"

// Attribute names shared with the app that reads the store.
const (
	attrName            = "name"
	attrDescription     = "description"
	attrImageURL        = "image_url"
	attrPrice           = "price"
	attrRating          = "rating"
	attrCalories        = "calories"
	attrProtein         = "protein"
	attrCategoryID      = "categoryId"
	attrType            = "type"
	attrMenuID          = "menuId"
	attrCustomizationID = "customizationId"
)

func categoryData(c domain.Category) map[string]any {
	return map[string]any{
		attrName:        c.Name,
		attrDescription: c.Description,
	}
}

func customizationData(c domain.Customization) map[string]any {
	return map[string]any{
		attrName:  c.Name,
		attrPrice: c.Price,
		attrType:  c.Type,
	}
}

func menuItemData(m domain.MenuItem) map[string]any {
	return map[string]any{
		attrName:        m.Name,
		attrDescription: m.Description,
		attrImageURL:    m.ImageURL,
		attrPrice:       m.Price,
		attrRating:      m.Rating,
		attrCalories:    m.Calories,
		attrProtein:     m.Protein,
		attrCategoryID:  m.CategoryID,
	}
}

func linkData(l domain.MenuCustomizationLink) map[string]any {
	return map[string]any{
		attrMenuID:          l.MenuID,
		attrCustomizationID: l.CustomizationID,
	}
}
