package main

import (
	"fmt"
	"strconv"

	faker "github.com/go-faker/faker/v4"

	"github.com/Alp4ka/rowsgroup/grid"
)

type office struct {
	Region string `faker:"oneof: North, South, East, West"`
	City   string `faker:"oneof: Alpha, Bravo, Charlie"`
	Name   string `faker:"name"`
	Email  string `faker:"email"`
}

func demoColumns() []grid.Column {
	headcount := grid.NewColumn("headcount")
	headcount.Title = "Headcount"
	headcount.Searchable = false

	return []grid.Column{
		{Name: "region", Title: "Region", Searchable: true},
		{Name: "city", Title: "City", Searchable: true},
		{Name: "name", Title: "Manager", Searchable: true},
		{Name: "email", Title: "Email", Searchable: true},
		headcount,
	}
}

// seedRows fakes n offices. Regions and cities repeat on purpose so that the
// grouping columns have runs to merge.
func seedRows(n int) ([]grid.Row, error) {
	rows := make([]grid.Row, 0, n)
	for i := range n {
		var o office
		if err := faker.FakeData(&o); err != nil {
			return nil, fmt.Errorf("seed row %d: %w", i, err)
		}

		rows = append(rows, grid.Row{
			ID: strconv.Itoa(i + 1),
			Values: map[string]any{
				"region":    o.Region,
				"city":      o.City,
				"name":      o.Name,
				"email":     o.Email,
				"headcount": 5 + (i*7)%40,
			},
		})
	}

	return rows, nil
}
