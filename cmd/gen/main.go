package main

import (
	"cleancity/internal/infra/persistence/model"

	"gorm.io/gen"
)

// Generates typed query builders for the persistence models.
func main() {
	g := gen.NewGenerator(gen.Config{
		OutPath: "./internal/infra/persistence/postgres/query",
		Mode:    gen.WithDefaultQuery | gen.WithQueryInterface,
	})

	g.ApplyBasic(model.All()...)

	g.Execute()
}
