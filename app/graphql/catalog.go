// Package graphql exposes the menu as a read-only GraphQL schema:
//
//	{ categories { id slug title } }
//	{ menuItems(category: "mains", featured: true) { id title price featured category { slug title } } }
package graphql

import (
	"github.com/graphql-go/graphql"

	"github.com/shashiranjanraj/littlelemon/app/models"
	"github.com/shashiranjanraj/littlelemon/app/repositories"
	"github.com/shashiranjanraj/littlelemon/app/resources"
	"github.com/shashiranjanraj/littlelemon/app/services"
	gql "github.com/shashiranjanraj/littlelemon/pkg/graphql"
	"github.com/shashiranjanraj/littlelemon/pkg/resource"
)

var categoryType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Category",
	Fields: graphql.Fields{
		"id":    &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"slug":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"title": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
	},
})

var menuItemType = graphql.NewObject(graphql.ObjectConfig{
	Name: "MenuItem",
	Fields: graphql.Fields{
		"id":       &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"title":    &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"price":    &graphql.Field{Type: graphql.NewNonNull(graphql.String), Description: "Two-decimal amount, e.g. \"12.50\"."},
		"featured": &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
		"category": &graphql.Field{Type: graphql.NewNonNull(categoryType)},
	},
})

func menuItem(m models.MenuItem) resource.Map {
	out := resources.MenuItem(m)
	out["category"] = resources.Category(m.Category)
	return out
}

// Schema builds the catalog schema on top of catalog.
func Schema(catalog *services.CatalogService) (graphql.Schema, error) {
	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"categories": &graphql.Field{
				Type: graphql.NewList(categoryType),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					cats, err := catalog.Categories(p.Context)
					if err != nil {
						return nil, err
					}
					return resource.Many(resources.Category, cats), nil
				},
			},
			"menuItems": &graphql.Field{
				Type: graphql.NewList(menuItemType),
				Args: graphql.FieldConfigArgument{
					"category": &graphql.ArgumentConfig{Type: graphql.String, Description: "Category slug."},
					"featured": &graphql.ArgumentConfig{Type: graphql.Boolean},
					"search":   &graphql.ArgumentConfig{Type: graphql.String, Description: "Substring of the category title."},
					"ordering": &graphql.ArgumentConfig{Type: graphql.String, Description: "price, -price, title or -title."},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					var f repositories.MenuFilter
					f.CategorySlug, _ = p.Args["category"].(string)
					f.Search, _ = p.Args["search"].(string)
					f.Ordering, _ = p.Args["ordering"].(string)
					if featured, ok := p.Args["featured"].(bool); ok {
						f.Featured = &featured
					}

					items, err := catalog.Menu(p.Context, f)
					if err != nil {
						return nil, err
					}
					return resource.Many(menuItem, items), nil
				},
			},
		},
	})
	return gql.NewSchema(query)
}
