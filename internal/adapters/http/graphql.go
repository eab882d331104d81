package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/meteorguard/internal/core/domain"
	"github.com/samirrijal/meteorguard/internal/pkg/geospatial"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	zoneType := graphql.NewObject(graphql.ObjectConfig{
		Name: "OverlayZone",
		Fields: graphql.Fields{
			"threshold": &graphql.Field{Type: graphql.String},
			"radius_m":  &graphql.Field{Type: graphql.Float},
			"stroke":    &graphql.Field{Type: graphql.NewList(graphql.Int)},
			"fill":      &graphql.Field{Type: graphql.NewList(graphql.Int)},
			"ring":      &graphql.Field{Type: graphql.NewList(geoPointType)},
		},
	})

	radiusType := graphql.NewObject(graphql.ObjectConfig{
		Name: "OverpressureRadius",
		Fields: graphql.Fields{
			"threshold": &graphql.Field{Type: graphql.String},
			"radius_m":  &graphql.Field{Type: graphql.Float},
		},
	})

	assessmentType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Assessment",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.String},
			"regime":     &graphql.Field{Type: graphql.String},
			"e_kt":       &graphql.Field{Type: graphql.Float},
			"center":     &graphql.Field{Type: geoPointType},
			"radii":      &graphql.Field{Type: graphql.NewList(radiusType)},
			"zones":      &graphql.Field{Type: graphql.NewList(zoneType)},
			"created_at": &graphql.Field{Type: graphql.String},
		},
	})

	neoType := graphql.NewObject(graphql.ObjectConfig{
		Name: "NEO",
		Fields: graphql.Fields{
			"des":       &graphql.Field{Type: graphql.String},
			"name":      &graphql.Field{Type: graphql.String},
			"spkid":     &graphql.Field{Type: graphql.String},
			"diameter":  &graphql.Field{Type: graphql.Float},
			"albedo":    &graphql.Field{Type: graphql.Float},
			"pha":       &graphql.Field{Type: graphql.String},
			"hazardous": &graphql.Field{Type: graphql.Boolean},
		},
	})

	circleType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Circle",
		Fields: graphql.Fields{
			"center":      &graphql.Field{Type: geoPointType},
			"radius_m":    &graphql.Field{Type: graphql.Float},
			"perimeter_m": &graphql.Field{Type: graphql.Float},
			"ring":        &graphql.Field{Type: graphql.NewList(geoPointType)},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"circle": &graphql.Field{
				Type:        circleType,
				Description: "Geodesic circle around a point",
				Args: graphql.FieldConfigArgument{
					"lat":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"radius": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"steps":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: geospatial.DefaultCircleSteps},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					center := domain.GeoPoint{Lat: p.Args["lat"].(float64), Lon: p.Args["lon"].(float64)}
					radius := p.Args["radius"].(float64)
					steps := p.Args["steps"].(int)
					if !geospatial.ValidPoint(center) {
						return nil, fmt.Errorf("%w: center out of range", domain.ErrInvalidInput)
					}
					if !(radius > 0 && radius <= MaxCircleRadiusMeters) || steps > MaxCircleSteps {
						return nil, fmt.Errorf("%w: radius or steps out of range", domain.ErrInvalidInput)
					}
					ring := geospatial.BuildCircle(center, radius, steps)
					return map[string]interface{}{
						"center":      pointMap(center),
						"radius_m":    radius,
						"perimeter_m": geospatial.Perimeter(ring),
						"ring":        ringMaps(ring),
					}, nil
				},
			},
			"assessment": &graphql.Field{
				Type:        assessmentType,
				Description: "Get an assessment by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					a, err := deps.Impact.Get(p.Context, p.Args["id"].(string))
					if err != nil {
						return nil, err
					}
					return assessmentMap(a), nil
				},
			},
			"recentAssessments": &graphql.Field{
				Type:        graphql.NewList(assessmentType),
				Description: "Newest assessments first",
				Args: graphql.FieldConfigArgument{
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					rows, err := deps.Impact.Recent(p.Context, p.Args["limit"].(int))
					if err != nil {
						return nil, err
					}
					result := make([]map[string]interface{}, 0, len(rows))
					for i := range rows {
						result = append(result, assessmentMap(&rows[i]))
					}
					return result, nil
				},
			},
			"neoSearch": &graphql.Field{
				Type:        graphql.NewList(neoType),
				Description: "Search near-earth objects",
				Args: graphql.FieldConfigArgument{
					"pha":   &graphql.ArgumentConfig{Type: graphql.Boolean, DefaultValue: false},
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: domain.DefaultNEOSearchLimit},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					rows, err := deps.NEO.Search(p.Context, domain.NEOSearchQuery{
						PHA:   p.Args["pha"].(bool),
						Limit: p.Args["limit"].(int),
					})
					if err != nil {
						return nil, err
					}
					result := make([]map[string]interface{}, 0, len(rows))
					for _, n := range rows {
						m := map[string]interface{}{
							"des":       n.Des,
							"name":      n.Name,
							"spkid":     n.SPKID,
							"pha":       n.PHA,
							"hazardous": n.Hazardous(),
						}
						if n.Diameter != nil {
							m["diameter"] = *n.Diameter
						}
						if n.Albedo != nil {
							m["albedo"] = *n.Albedo
						}
						result = append(result, m)
					}
					return result, nil
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"simulate": &graphql.Field{
				Type:        assessmentType,
				Description: "Run an impact simulation",
				Args: graphql.FieldConfigArgument{
					"diameter_m":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"velocity_kms":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"angle_deg":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lat":           &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon":           &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"density_kg_m3": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: domain.DefaultDensityKgM3},
					"composition":   &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: string(domain.DefaultComposition)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					a, err := deps.Impact.Run(p.Context, domain.EntryParams{
						DiameterM:   p.Args["diameter_m"].(float64),
						DensityKgM3: p.Args["density_kg_m3"].(float64),
						VelocityKmS: p.Args["velocity_kms"].(float64),
						AngleDeg:    p.Args["angle_deg"].(float64),
						Composition: domain.Composition(p.Args["composition"].(string)),
						Lat:         p.Args["lat"].(float64),
						Lon:         p.Args["lon"].(float64),
					})
					if err != nil {
						return nil, err
					}
					return assessmentMap(a), nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}

func pointMap(p domain.GeoPoint) map[string]interface{} {
	return map[string]interface{}{"lat": p.Lat, "lon": p.Lon}
}

func ringMaps(ring domain.Polygon) []map[string]interface{} {
	out := make([]map[string]interface{}, len(ring))
	for i, p := range ring {
		out[i] = pointMap(p)
	}
	return out
}

// assessmentMap flattens an assessment for GraphQL field resolution.
func assessmentMap(a *domain.Assessment) map[string]interface{} {
	m := map[string]interface{}{
		"id":         a.ID,
		"regime":     a.Result.Regime,
		"e_kt":       a.Result.EnergyKt,
		"created_at": a.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if a.Result.Center != nil {
		m["center"] = pointMap(*a.Result.Center)
	}

	radii := make([]map[string]interface{}, 0, len(a.Zones))
	zones := make([]map[string]interface{}, 0, len(a.Zones))
	for _, z := range a.Zones {
		radii = append(radii, map[string]interface{}{"threshold": z.Threshold, "radius_m": z.RadiusM})
		zones = append(zones, map[string]interface{}{
			"threshold": z.Threshold,
			"radius_m":  z.RadiusM,
			"stroke":    z.Stroke[:],
			"fill":      z.Fill[:],
			"ring":      ringMaps(z.Ring),
		})
	}
	m["radii"] = radii
	m["zones"] = zones
	return m
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
		if req.Query == "" {
			return errBadRequest(c, "query is required")
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
