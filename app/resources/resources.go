// Package resources holds the API shape of every model.
package resources

import (
	"github.com/shashiranjanraj/littlelemon/app/models"
	"github.com/shashiranjanraj/littlelemon/pkg/resource"
)

func User(u models.User) resource.Map {
	return resource.Map{
		"id":         u.ID,
		"username":   u.Username,
		"first_name": u.FirstName,
		"last_name":  u.LastName,
		"email":      u.Email,
	}
}

func Group(g models.Group) resource.Map {
	return resource.Map{"id": g.ID, "name": g.Name}
}

func Category(c models.Category) resource.Map {
	return resource.Map{"id": c.ID, "slug": c.Slug, "title": c.Title}
}

func MenuItem(m models.MenuItem) resource.Map {
	return resource.Map{
		"id":       m.ID,
		"title":    m.Title,
		"price":    resource.Money(m.Price),
		"category": m.CategoryID,
		"featured": m.Featured,
	}
}

// CartLine nests the full menu item.
func CartLine(c models.Cart) resource.Map {
	return resource.Map{
		"id":         c.ID,
		"menuitem":   MenuItem(c.MenuItem),
		"quantity":   c.Quantity,
		"unit_price": resource.Money(c.UnitPrice),
		"price":      resource.Money(c.Price),
	}
}

func OrderItem(i models.OrderItem) resource.Map {
	return resource.Map{
		"order":      i.OrderID,
		"menuitem":   i.MenuItemID,
		"title":      i.MenuItem.Title,
		"quantity":   i.Quantity,
		"unit_price": resource.Money(i.UnitPrice),
		"price":      resource.Money(i.Price),
	}
}

func Order(o models.Order) resource.Map {
	return resource.Map{
		"id":            o.ID,
		"user":          o.UserID,
		"delivery_crew": o.DeliveryCrewID,
		"status":        int(o.Status),
		"date":          resource.Date(o.Date),
		"total":         resource.Money(o.Total),
		"orderitem":     resource.Many(OrderItem, o.Items),
	}
}

// Token is the login response.
func Token(token string) resource.Map {
	return resource.Map{"auth_token": token}
}
