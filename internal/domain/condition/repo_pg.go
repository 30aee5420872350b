package condition

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) ListProcedures(ctx context.Context) ([]ProcedureRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.name, p.category_id, c.name, p.pitch_points, p.patient_type
		FROM procedures p
		LEFT JOIN categories c ON c.id = p.category_id
		ORDER BY p.name`)
	if err != nil {
		return nil, fmt.Errorf("list procedures: %w", err)
	}
	defer rows.Close()

	var items []ProcedureRow
	for rows.Next() {
		var p ProcedureRow
		if err := rows.Scan(&p.ID, &p.Name, &p.CategoryID, &p.CategoryName, &p.PitchPoints, &p.PatientType); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (r *repoPG) ListPhaseLinks(ctx context.Context) ([]PhaseLinkRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT procedure_id, phase_id FROM procedure_phases ORDER BY procedure_id, phase_id`)
	if err != nil {
		return nil, fmt.Errorf("list procedure_phases: %w", err)
	}
	defer rows.Close()

	var items []PhaseLinkRow
	for rows.Next() {
		var l PhaseLinkRow
		if err := rows.Scan(&l.ProcedureID, &l.PhaseID); err != nil {
			return nil, err
		}
		items = append(items, l)
	}
	return items, rows.Err()
}

func (r *repoPG) ListDentistLinks(ctx context.Context) ([]DentistLinkRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT procedure_id, dentist_id FROM procedure_dentists ORDER BY procedure_id, dentist_id`)
	if err != nil {
		return nil, fmt.Errorf("list procedure_dentists: %w", err)
	}
	defer rows.Close()

	var items []DentistLinkRow
	for rows.Next() {
		var l DentistLinkRow
		if err := rows.Scan(&l.ProcedureID, &l.DentistID); err != nil {
			return nil, err
		}
		items = append(items, l)
	}
	return items, rows.Err()
}

func (r *repoPG) ListPhaseProducts(ctx context.Context) ([]PhaseProductRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT procedure_id, phase_id, product_id, patient_type_id
		FROM procedure_phase_products
		ORDER BY procedure_id, phase_id, product_id`)
	if err != nil {
		return nil, fmt.Errorf("list procedure_phase_products: %w", err)
	}
	defer rows.Close()

	var items []PhaseProductRow
	for rows.Next() {
		var p PhaseProductRow
		if err := rows.Scan(&p.ProcedureID, &p.PhaseID, &p.ProductID, &p.PatientTypeID); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

const detailCols = `id, procedure_id, product_id, scientific_rationale,
	clinical_evidence, handling_objections, pitch_points, fact_sheet_url`

func scanDetail(row pgx.Row) (*ProductDetailRow, error) {
	var d ProductDetailRow
	err := row.Scan(&d.ID, &d.ProcedureID, &d.ProductID, &d.ScientificRationale,
		&d.ClinicalEvidence, &d.HandlingObjections, &d.PitchPoints, &d.FactSheetURL)
	return &d, err
}

func (r *repoPG) ListProductDetails(ctx context.Context) ([]ProductDetailRow, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+detailCols+` FROM product_details ORDER BY procedure_id, id`)
	if err != nil {
		return nil, fmt.Errorf("list product_details: %w", err)
	}
	defer rows.Close()

	var items []ProductDetailRow
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	return items, rows.Err()
}

func (r *repoPG) ListUsage(ctx context.Context) ([]UsageRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT u.product_detail_id, d.procedure_id, d.product_id, u.phase_id, u.instructions
		FROM phase_specific_usage u
		JOIN product_details d ON d.id = u.product_detail_id
		ORDER BY d.procedure_id, d.product_id, u.phase_id`)
	if err != nil {
		return nil, fmt.Errorf("list phase_specific_usage: %w", err)
	}
	defer rows.Close()

	var items []UsageRow
	for rows.Next() {
		var u UsageRow
		if err := rows.Scan(&u.ProductDetailID, &u.ProcedureID, &u.ProductID, &u.PhaseID, &u.Instructions); err != nil {
			return nil, err
		}
		items = append(items, u)
	}
	return items, rows.Err()
}

func (r *repoPG) ListResearch(ctx context.Context) ([]ResearchRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, procedure_id, product_id, title, author, abstract, url
		FROM condition_product_research_articles
		ORDER BY procedure_id, product_id, id`)
	if err != nil {
		return nil, fmt.Errorf("list research articles: %w", err)
	}
	defer rows.Close()

	var items []ResearchRow
	for rows.Next() {
		var a ResearchRow
		if err := rows.Scan(&a.ID, &a.ProcedureID, &a.ProductID, &a.Title, &a.Author, &a.Abstract, &a.URL); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (r *repoPG) InsertProcedure(ctx context.Context, row *ProcedureRow) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO procedures (name, category_id, pitch_points, patient_type)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		row.Name, row.CategoryID, row.PitchPoints, row.PatientType).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert procedure %q: %w", row.Name, err)
	}
	row.ID = id
	return id, nil
}

func (r *repoPG) UpdateProcedure(ctx context.Context, row *ProcedureRow) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE procedures SET name=$2, category_id=$3, pitch_points=$4, patient_type=$5
		WHERE id = $1`,
		row.ID, row.Name, row.CategoryID, row.PitchPoints, row.PatientType)
	if err != nil {
		return fmt.Errorf("update procedure %d: %w", row.ID, err)
	}
	return nil
}

func (r *repoPG) DeleteProcedure(ctx context.Context, id int64) error {
	// Children first so the FK constraints hold.
	steps := []string{
		`DELETE FROM phase_specific_usage WHERE product_detail_id IN
			(SELECT id FROM product_details WHERE procedure_id = $1)`,
		`DELETE FROM product_details WHERE procedure_id = $1`,
		`DELETE FROM condition_product_research_articles WHERE procedure_id = $1`,
		`DELETE FROM procedure_phase_products WHERE procedure_id = $1`,
		`DELETE FROM procedure_phases WHERE procedure_id = $1`,
		`DELETE FROM procedure_dentists WHERE procedure_id = $1`,
		`DELETE FROM procedures WHERE id = $1`,
	}
	for _, q := range steps {
		if _, err := r.pool.Exec(ctx, q, id); err != nil {
			return fmt.Errorf("delete procedure %d: %w", id, err)
		}
	}
	return nil
}

func (r *repoPG) LinkedPhaseIDs(ctx context.Context, procedureID int64) ([]int64, error) {
	return r.linkedIDs(ctx, `SELECT phase_id FROM procedure_phases WHERE procedure_id = $1`, procedureID)
}

func (r *repoPG) LinkedDentistIDs(ctx context.Context, procedureID int64) ([]int64, error) {
	return r.linkedIDs(ctx, `SELECT dentist_id FROM procedure_dentists WHERE procedure_id = $1`, procedureID)
}

func (r *repoPG) linkedIDs(ctx context.Context, query string, procedureID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx, query, procedureID)
	if err != nil {
		return nil, fmt.Errorf("linked ids for procedure %d: %w", procedureID, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *repoPG) AddPhaseLinks(ctx context.Context, procedureID int64, phaseIDs []int64) error {
	for _, id := range phaseIDs {
		if _, err := r.pool.Exec(ctx,
			`INSERT INTO procedure_phases (procedure_id, phase_id) VALUES ($1, $2)`,
			procedureID, id); err != nil {
			return fmt.Errorf("link phase %d to procedure %d: %w", id, procedureID, err)
		}
	}
	return nil
}

func (r *repoPG) RemovePhaseLinks(ctx context.Context, procedureID int64, phaseIDs []int64) error {
	if len(phaseIDs) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx,
		`DELETE FROM procedure_phases WHERE procedure_id = $1 AND phase_id = ANY($2)`,
		procedureID, phaseIDs)
	if err != nil {
		return fmt.Errorf("unlink phases from procedure %d: %w", procedureID, err)
	}
	return nil
}

func (r *repoPG) AddDentistLinks(ctx context.Context, procedureID int64, dentistIDs []int64) error {
	for _, id := range dentistIDs {
		if _, err := r.pool.Exec(ctx,
			`INSERT INTO procedure_dentists (procedure_id, dentist_id) VALUES ($1, $2)`,
			procedureID, id); err != nil {
			return fmt.Errorf("link dentist %d to procedure %d: %w", id, procedureID, err)
		}
	}
	return nil
}

func (r *repoPG) RemoveDentistLinks(ctx context.Context, procedureID int64, dentistIDs []int64) error {
	if len(dentistIDs) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx,
		`DELETE FROM procedure_dentists WHERE procedure_id = $1 AND dentist_id = ANY($2)`,
		procedureID, dentistIDs)
	if err != nil {
		return fmt.Errorf("unlink dentists from procedure %d: %w", procedureID, err)
	}
	return nil
}

func (r *repoPG) DeletePhaseProducts(ctx context.Context, procedureID int64) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM procedure_phase_products WHERE procedure_id = $1`, procedureID)
	if err != nil {
		return fmt.Errorf("delete phase products for procedure %d: %w", procedureID, err)
	}
	return nil
}

func (r *repoPG) InsertPhaseProducts(ctx context.Context, rows []PhaseProductRow) error {
	for _, p := range rows {
		if _, err := r.pool.Exec(ctx, `
			INSERT INTO procedure_phase_products (procedure_id, phase_id, product_id, patient_type_id)
			VALUES ($1, $2, $3, $4)`,
			p.ProcedureID, p.PhaseID, p.ProductID, p.PatientTypeID); err != nil {
			return fmt.Errorf("insert phase product row for procedure %d: %w", p.ProcedureID, err)
		}
	}
	return nil
}

func (r *repoPG) DeleteProductDetails(ctx context.Context, procedureID int64) error {
	if _, err := r.pool.Exec(ctx, `
		DELETE FROM phase_specific_usage WHERE product_detail_id IN
			(SELECT id FROM product_details WHERE procedure_id = $1)`, procedureID); err != nil {
		return fmt.Errorf("delete usage rows for procedure %d: %w", procedureID, err)
	}
	if _, err := r.pool.Exec(ctx,
		`DELETE FROM product_details WHERE procedure_id = $1`, procedureID); err != nil {
		return fmt.Errorf("delete product details for procedure %d: %w", procedureID, err)
	}
	return nil
}

func (r *repoPG) InsertProductDetail(ctx context.Context, row *ProductDetailRow) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO product_details (procedure_id, product_id, scientific_rationale,
			clinical_evidence, handling_objections, pitch_points, fact_sheet_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		row.ProcedureID, row.ProductID, row.ScientificRationale,
		row.ClinicalEvidence, row.HandlingObjections, row.PitchPoints, row.FactSheetURL).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert product detail for procedure %d: %w", row.ProcedureID, err)
	}
	row.ID = id
	return id, nil
}

func (r *repoPG) InsertUsage(ctx context.Context, productDetailID, phaseID int64, instructions string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO phase_specific_usage (product_detail_id, phase_id, instructions)
		VALUES ($1, $2, $3)`, productDetailID, phaseID, instructions)
	if err != nil {
		return fmt.Errorf("insert usage for detail %d: %w", productDetailID, err)
	}
	return nil
}

func (r *repoPG) DeleteResearch(ctx context.Context, procedureID int64) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM condition_product_research_articles WHERE procedure_id = $1`, procedureID)
	if err != nil {
		return fmt.Errorf("delete research for procedure %d: %w", procedureID, err)
	}
	return nil
}

func (r *repoPG) InsertResearch(ctx context.Context, rows []ResearchRow) error {
	for _, a := range rows {
		if _, err := r.pool.Exec(ctx, `
			INSERT INTO condition_product_research_articles
				(procedure_id, product_id, title, author, abstract, url)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			a.ProcedureID, a.ProductID, a.Title, a.Author, a.Abstract, a.URL); err != nil {
			return fmt.Errorf("insert research article for procedure %d: %w", a.ProcedureID, err)
		}
	}
	return nil
}
