package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/placepicker/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to the selection controller.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	coordinateType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Coordinate",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	placeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Place",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.String},
			"name":        &graphql.Field{Type: graphql.String},
			"image_src":   &graphql.Field{Type: graphql.String},
			"description": &graphql.Field{Type: graphql.String},
			"coordinate":  &graphql.Field{Type: coordinateType},
			"distance":    &graphql.Field{Type: graphql.Float},
		},
	})

	availableType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Available",
		Fields: graphql.Fields{
			"status":   &graphql.Field{Type: graphql.String},
			"message":  &graphql.Field{Type: graphql.String},
			"observer": &graphql.Field{Type: coordinateType},
			"places":   &graphql.Field{Type: graphql.NewList(placeType)},
		},
	})

	removalType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Removal",
		Fields: graphql.Fields{
			"armed":     &graphql.Field{Type: graphql.Boolean},
			"target_id": &graphql.Field{Type: graphql.String},
		},
	})

	selectionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Selection",
		Fields: graphql.Fields{
			"picked":  &graphql.Field{Type: graphql.NewList(placeType)},
			"removal": &graphql.Field{Type: removalType},
		},
	})

	idArgs := graphql.FieldConfigArgument{
		"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
	}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"places": &graphql.Field{
				Type:        graphql.NewList(placeType),
				Description: "The full catalog in its original order",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Places.Catalog(), nil
				},
			},
			"place": &graphql.Field{
				Type:        placeType,
				Description: "Get a place by ID",
				Args:        idArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					place, err := deps.Places.Place(p.Args["id"].(string))
					if errors.Is(err, domain.ErrUnknownPlace) {
						return nil, nil
					}
					return place, err
				},
			},
			"picked": &graphql.Field{
				Type:        graphql.NewList(placeType),
				Description: "Picked places, most recent first",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Places.Picked(), nil
				},
			},
			"available": &graphql.Field{
				Type:        availableType,
				Description: "Places ranked by distance from the observer",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return toAvailableResponse(deps.Places.Available()), nil
				},
			},
			"removal": &graphql.Field{
				Type:        removalType,
				Description: "Pending removal confirmation",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Places.RemovalState(), nil
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"pick": &graphql.Field{
				Type:        selectionType,
				Description: "Add a place to the selection",
				Args:        idArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if err := deps.Places.Pick(p.Context, p.Args["id"].(string)); err != nil {
						return nil, err
					}
					return selectionResponse(deps), nil
				},
			},
			"requestRemoval": &graphql.Field{
				Type:        selectionType,
				Description: "Ask for confirmation before removing a place",
				Args:        idArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := p.Args["id"].(string)
					if _, err := deps.Places.Place(id); err != nil {
						return nil, err
					}
					deps.Places.RequestRemoval(id)
					return selectionResponse(deps), nil
				},
			},
			"confirmRemoval": &graphql.Field{
				Type:        selectionType,
				Description: "Remove the place pending confirmation",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					deps.Places.ConfirmRemoval(p.Context)
					return selectionResponse(deps), nil
				},
			},
			"cancelRemoval": &graphql.Field{
				Type:        selectionType,
				Description: "Keep the place pending confirmation",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					deps.Places.CancelRemoval()
					return selectionResponse(deps), nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
