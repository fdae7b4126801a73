package models

// Schema is an authorization scope resolved by the schema registry.
type Schema struct {
	ID   int64
	Name string
}
