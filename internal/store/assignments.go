package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/erazemk/kristalball/internal/model"
)

const assignmentSelect = `SELECT s.id, s.asset_id, s.personnel_id, s.base_id, s.assignment_date,
	        s.expected_return_date, s.purpose, s.status, s.assigned_by, s.created_at,
	        a.serial_number, p.name, p.rank
	 FROM assignments s
	 JOIN assets a ON a.id = s.asset_id
	 JOIN personnel p ON p.id = s.personnel_id`

func scanAssignment(row interface{ Scan(...any) error }) (*model.Assignment, error) {
	s := &model.Assignment{}
	err := row.Scan(&s.ID, &s.AssetID, &s.PersonnelID, &s.BaseID, &s.AssignmentDate,
		&s.ExpectedReturnDate, &s.Purpose, &s.Status, &s.AssignedBy, &s.CreatedAt,
		&s.AssetSerialNumber, &s.PersonnelName, &s.PersonnelRank)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// CreateAssignment records a pending assignment. It does not touch the asset.
func CreateAssignment(ctx context.Context, db DBTX, s *model.Assignment) (*model.Assignment, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO assignments (asset_id, personnel_id, base_id, assignment_date, expected_return_date,
		                          purpose, status, assigned_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.AssetID, s.PersonnelID, s.BaseID, s.AssignmentDate, s.ExpectedReturnDate,
		s.Purpose, model.LedgerPending, s.AssignedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("recording assignment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting assignment id: %w", err)
	}

	return GetAssignment(ctx, db, id)
}

// GetAssignment returns an assignment by ID.
func GetAssignment(ctx context.Context, db DBTX, id int64) (*model.Assignment, error) {
	s, err := scanAssignment(db.QueryRowContext(ctx, assignmentSelect+` WHERE s.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting assignment: %w", err)
	}
	return s, nil
}

// ListAssignments returns assignments matching f.
func ListAssignments(ctx context.Context, db DBTX, f Filter, personnelID int64) ([]model.Assignment, error) {
	var where conditions
	if f.BaseID != nil {
		where.add("s.base_id = ?", *f.BaseID)
	}
	if f.OwnerID != nil {
		where.add("s.assigned_by = ?", *f.OwnerID)
	}
	if f.AssetID != nil {
		where.add("s.asset_id = ?", *f.AssetID)
	}
	if f.Status != "" {
		where.add("s.status = ?", f.Status)
	}
	if personnelID > 0 {
		where.add("s.personnel_id = ?", personnelID)
	}
	where.dateRange("s.assignment_date", f.StartDate, f.EndDate)

	rows, err := db.QueryContext(ctx,
		assignmentSelect+where.String()+` ORDER BY s.assignment_date DESC, s.id DESC`, where.args...)
	if err != nil {
		return nil, fmt.Errorf("listing assignments: %w", err)
	}
	defer rows.Close()

	var list []model.Assignment
	for rows.Next() {
		s, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning assignment: %w", err)
		}
		list = append(list, *s)
	}
	return list, rows.Err()
}

// UpdateAssignmentDetails changes the purpose and expected return date.
func UpdateAssignmentDetails(ctx context.Context, db DBTX, id int64, purpose, expectedReturnDate string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE assignments SET purpose = ?, expected_return_date = ? WHERE id = ?`,
		purpose, expectedReturnDate, id,
	)
	if err != nil {
		return fmt.Errorf("updating assignment: %w", err)
	}
	return nil
}

// SetAssignmentStatus moves an assignment from one status to another. It
// reports false if the assignment was no longer in the expected status.
func SetAssignmentStatus(ctx context.Context, db DBTX, id int64, from, to model.LedgerStatus) (bool, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE assignments SET status = ? WHERE id = ? AND status = ?`, to, id, from,
	)
	if err != nil {
		return false, fmt.Errorf("setting assignment status: %w", err)
	}
	ok, err := affected(result)
	if err != nil {
		return false, fmt.Errorf("setting assignment status: %w", err)
	}
	return ok, nil
}

// DeleteAssignment removes an assignment record.
func DeleteAssignment(ctx context.Context, db DBTX, id int64) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM assignments WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting assignment: %w", err)
	}
	return nil
}
