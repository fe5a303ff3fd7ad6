package models

import "time"

// Model is an entity stored in the database.
type Model interface {
	ID() string
	CreatedAt() time.Time
	UpdatedAt() time.Time
	// Validate reports whether the entity can be stored.
	Validate() error
}

// Repository stores one kind of [Model].
//
// Lookups that find nothing return an error wrapping the repository's not found error.
type Repository[T Model] interface {
	Create(model T) error
	Get(id string) (T, error)
	Update(model T) error
	Delete(id string) error
	// List returns the models matching repository specific criteria; nil lists everything.
	List(criteria map[string]any) ([]T, error)
}
