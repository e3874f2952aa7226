package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/adminotp/internal/adminotp/entity"
)

const selectPrincipal = `SELECT id, mobile, first_name, password, is_staff, is_active FROM admin_users `

func scanPrincipal(row pgx.Row) (*entity.Principal, error) {
	var p entity.Principal
	if err := row.Scan(&p.ID, &p.Mobile, &p.FirstName, &p.Password, &p.IsStaff, &p.IsActive); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *DB) GetPrincipalByMobile(ctx context.Context, mobile string) (_ *entity.Principal, err error) {
	ctx, span := s.startSpan(ctx, "GetPrincipalByMobile")
	defer func() { s.endSpan(span, err) }()

	p, err := scanPrincipal(s.conn.QueryRow(ctx, selectPrincipal+`WHERE mobile = $1`, mobile))
	if err != nil {
		return nil, s.mapError(err)
	}

	return p, nil
}

func (s *DB) GetPrincipalByID(ctx context.Context, id int64) (_ *entity.Principal, err error) {
	ctx, span := s.startSpan(ctx, "GetPrincipalByID")
	defer func() { s.endSpan(span, err) }()

	p, err := scanPrincipal(s.conn.QueryRow(ctx, selectPrincipal+`WHERE id = $1`, id))
	if err != nil {
		return nil, s.mapError(err)
	}

	return p, nil
}
