package lookup

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

// tableName maps a Kind to its table. Kind is a closed enum, so table names
// never come from user input.
func tableName(kind Kind) (string, error) {
	if !ValidKind(kind) {
		return "", fmt.Errorf("unknown lookup kind: %s", kind)
	}
	return string(kind), nil
}

func (r *repoPG) ListNames(ctx context.Context, kind Kind) (map[string]int64, error) {
	table, err := tableName(kind)
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM `+table+` ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	defer rows.Close()

	names := make(map[string]int64)
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", table, err)
		}
		names[name] = id
	}
	return names, rows.Err()
}

func (r *repoPG) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var items []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

func (r *repoPG) ListDentistTypes(ctx context.Context) ([]DentistType, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM dentists ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list dentists: %w", err)
	}
	defer rows.Close()

	var items []DentistType
	for rows.Next() {
		var d DentistType
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

func (r *repoPG) ListPhases(ctx context.Context) ([]Phase, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM phases ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list phases: %w", err)
	}
	defer rows.Close()

	var items []Phase
	for rows.Next() {
		var p Phase
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (r *repoPG) ListPatientTypes(ctx context.Context) ([]PatientType, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, description FROM patient_types ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list patient_types: %w", err)
	}
	defer rows.Close()

	var items []PatientType
	for rows.Next() {
		var p PatientType
		if err := rows.Scan(&p.ID, &p.Name, &p.Description); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (r *repoPG) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, is_available FROM products ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var items []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.IsAvailable); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (r *repoPG) Insert(ctx context.Context, kind Kind, name string) (int64, error) {
	table, err := tableName(kind)
	if err != nil {
		return 0, err
	}
	var id int64
	// products rows default to available; patient_types get a NULL description.
	query := `INSERT INTO ` + table + ` (name) VALUES ($1) RETURNING id`
	if kind == KindProduct {
		query = `INSERT INTO products (name, is_available) VALUES ($1, TRUE) RETURNING id`
	}
	if err := r.pool.QueryRow(ctx, query, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert into %s: %w", table, err)
	}
	return id, nil
}

func (r *repoPG) Delete(ctx context.Context, kind Kind, id int64) error {
	table, err := tableName(kind)
	if err != nil {
		return err
	}
	if _, err := r.pool.Exec(ctx, `DELETE FROM `+table+` WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	return nil
}

func (r *repoPG) Rename(ctx context.Context, kind Kind, id int64, newName string) error {
	table, err := tableName(kind)
	if err != nil {
		return err
	}
	if _, err := r.pool.Exec(ctx, `UPDATE `+table+` SET name = $2 WHERE id = $1`, id, newName); err != nil {
		return fmt.Errorf("rename in %s: %w", table, err)
	}
	return nil
}

func (r *repoPG) UnlinkCategory(ctx context.Context, categoryID int64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE procedures SET category_id = NULL WHERE category_id = $1`, categoryID)
	if err != nil {
		return fmt.Errorf("unlink category %d: %w", categoryID, err)
	}
	return nil
}

func (r *repoPG) UnlinkDentistType(ctx context.Context, dentistID int64) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM procedure_dentists WHERE dentist_id = $1`, dentistID)
	if err != nil {
		return fmt.Errorf("unlink dentist type %d: %w", dentistID, err)
	}
	return nil
}
