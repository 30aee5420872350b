package lookup

import "context"

// Repository is the table-level access surface for the five lookup tables.
type Repository interface {
	// ListNames returns the name→ID mapping for one lookup table.
	ListNames(ctx context.Context, kind Kind) (map[string]int64, error)

	ListCategories(ctx context.Context) ([]Category, error)
	ListDentistTypes(ctx context.Context) ([]DentistType, error)
	ListPhases(ctx context.Context) ([]Phase, error)
	ListPatientTypes(ctx context.Context) ([]PatientType, error)
	ListProducts(ctx context.Context) ([]Product, error)

	Insert(ctx context.Context, kind Kind, name string) (int64, error)
	Delete(ctx context.Context, kind Kind, id int64) error
	Rename(ctx context.Context, kind Kind, id int64, newName string) error

	// UnlinkCategory nulls procedures.category_id for rows referencing the
	// category, so the row can be deleted without violating the FK.
	UnlinkCategory(ctx context.Context, categoryID int64) error
	// UnlinkDentistType removes procedure_dentists rows referencing the
	// dentist type.
	UnlinkDentistType(ctx context.Context, dentistID int64) error
}
