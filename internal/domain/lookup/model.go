package lookup

// Kind identifies one of the flat lookup tables the admin screens manage.
type Kind string

const (
	KindCategory    Kind = "categories"
	KindDentistType Kind = "dentists"
	KindPhase       Kind = "phases"
	KindPatientType Kind = "patient_types"
	KindProduct     Kind = "products"
)

// ReservedName is the category/dentist-type name that can never be deleted.
const ReservedName = "All"

func ValidKind(k Kind) bool {
	switch k {
	case KindCategory, KindDentistType, KindPhase, KindPatientType, KindProduct:
		return true
	}
	return false
}

// Category maps to the categories table.
type Category struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// DentistType maps to the dentists table.
type DentistType struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Phase maps to the phases table.
type Phase struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// PatientType maps to the patient_types table.
type PatientType struct {
	ID          int64   `db:"id" json:"id"`
	Name        string  `db:"name" json:"name"`
	Description *string `db:"description" json:"description,omitempty"`
}

// Product maps to the products table.
type Product struct {
	ID          int64  `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	IsAvailable bool   `db:"is_available" json:"is_available"`
}

// Rename is a requested in-place product rename: the row keeps its ID.
type Rename struct {
	OldName string `json:"oldName"`
	NewName string `json:"newName"`
}
