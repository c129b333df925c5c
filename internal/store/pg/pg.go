// Package pg implements the store port on PostgreSQL. Scalar fields
// map to columns; nested documents (locations, history, tasks,
// parameters) are stored as JSONB.
package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"mocdesk.org/internal/domain"
	"mocdesk.org/internal/store"
)

// Store is the PostgreSQL-backed implementation of store.Store.
type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// Open connects and applies pool settings.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing handle; used by tests.
func NewWithDB(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Facilities() store.FacilityStore        { return facilityStore{s} }
func (s *Store) Assets() store.AssetStore               { return assetStore{s} }
func (s *Store) MOCs() store.MOCStore                   { return mocStore{s} }
func (s *Store) Risks() store.RiskStore                 { return riskStore{s} }
func (s *Store) WorkOrders() store.WorkOrderStore       { return workOrderStore{s} }
func (s *Store) Users() store.UserStore                 { return userStore{s} }
func (s *Store) Standards() store.StandardStore         { return standardStore{s} }
func (s *Store) Links() store.LinkStore                 { return linkStore{s} }
func (s *Store) Audit() store.AuditStore                { return auditStore{s} }
func (s *Store) Notifications() store.NotificationStore { return notificationStore{s} }

// --- helpers ---

func asJSON(v any) ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

func fromJSON(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", domain.ErrConflict, pgErr.ConstraintName)
	}
	return err
}

func affectedOrNotFound(res sql.Result, err error) error {
	if err != nil {
		return mapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// --- facilities ---

type facilityStore struct{ s *Store }

func (f facilityStore) List(ctx context.Context) ([]domain.Facility, error) {
	rows, err := f.s.db.QueryContext(ctx, `
		select id, name, type, location, status, created_at, updated_at
		from facilities order by created_at asc, id asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Facility
	for rows.Next() {
		var fac domain.Facility
		var loc []byte
		if err := rows.Scan(&fac.ID, &fac.Name, &fac.Type, &loc, &fac.Status, &fac.CreatedAt, &fac.UpdatedAt); err != nil {
			return nil, err
		}
		if err := fromJSON(loc, &fac.Location); err != nil {
			return nil, err
		}
		res = append(res, fac)
	}
	return res, rows.Err()
}

func (f facilityStore) Get(ctx context.Context, id string) (domain.Facility, error) {
	var fac domain.Facility
	var loc []byte
	err := f.s.db.QueryRowContext(ctx, `
		select id, name, type, location, status, created_at, updated_at
		from facilities where id=$1`, id).
		Scan(&fac.ID, &fac.Name, &fac.Type, &loc, &fac.Status, &fac.CreatedAt, &fac.UpdatedAt)
	if err != nil {
		return domain.Facility{}, mapErr(err)
	}
	if err := fromJSON(loc, &fac.Location); err != nil {
		return domain.Facility{}, err
	}
	return fac, nil
}

func (f facilityStore) Create(ctx context.Context, fac domain.Facility) error {
	loc, err := asJSON(fac.Location)
	if err != nil {
		return err
	}
	_, err = f.s.db.ExecContext(ctx, `
		insert into facilities(id, name, type, location, status, created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7)`,
		fac.ID, fac.Name, fac.Type, loc, fac.Status, fac.CreatedAt, fac.UpdatedAt)
	return mapErr(err)
}

func (f facilityStore) Update(ctx context.Context, fac domain.Facility) error {
	loc, err := asJSON(fac.Location)
	if err != nil {
		return err
	}
	res, err := f.s.db.ExecContext(ctx, `
		update facilities set name=$2, type=$3, location=$4, status=$5, updated_at=$6
		where id=$1`,
		fac.ID, fac.Name, fac.Type, loc, fac.Status, fac.UpdatedAt)
	return affectedOrNotFound(res, err)
}

func (f facilityStore) Delete(ctx context.Context, id string) error {
	res, err := f.s.db.ExecContext(ctx, `delete from facilities where id=$1`, id)
	return affectedOrNotFound(res, err)
}

// --- assets ---

type assetStore struct{ s *Store }

const assetCols = `tag, id, name, facility_id, type, category, material, last_maint, parameters, attachments, created_at, updated_at`

func scanAsset(row interface{ Scan(...any) error }) (domain.Asset, error) {
	var a domain.Asset
	var params, attach []byte
	err := row.Scan(&a.Tag, &a.ID, &a.Name, &a.FacilityID, &a.Type, &a.Category, &a.Material,
		&a.LastMaint, &params, &attach, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return domain.Asset{}, err
	}
	if err := fromJSON(params, &a.Parameters); err != nil {
		return domain.Asset{}, err
	}
	if err := fromJSON(attach, &a.Attachments); err != nil {
		return domain.Asset{}, err
	}
	return a, nil
}

func (a assetStore) List(ctx context.Context) ([]domain.Asset, error) {
	rows, err := a.s.db.QueryContext(ctx,
		`select `+assetCols+` from assets order by created_at asc, tag asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Asset
	for rows.Next() {
		item, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, item)
	}
	return res, rows.Err()
}

func (a assetStore) GetByTag(ctx context.Context, tag string) (domain.Asset, error) {
	item, err := scanAsset(a.s.db.QueryRowContext(ctx,
		`select `+assetCols+` from assets where tag=$1`, tag))
	if err != nil {
		return domain.Asset{}, mapErr(err)
	}
	return item, nil
}

func (a assetStore) Create(ctx context.Context, item domain.Asset) error {
	params, err := asJSON(item.Parameters)
	if err != nil {
		return err
	}
	attach, err := asJSON(item.Attachments)
	if err != nil {
		return err
	}
	_, err = a.s.db.ExecContext(ctx, `
		insert into assets(`+assetCols+`)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		item.Tag, item.ID, item.Name, item.FacilityID, item.Type, item.Category, item.Material,
		item.LastMaint, params, attach, item.CreatedAt, item.UpdatedAt)
	return mapErr(err)
}

func (a assetStore) Update(ctx context.Context, item domain.Asset) error {
	params, err := asJSON(item.Parameters)
	if err != nil {
		return err
	}
	attach, err := asJSON(item.Attachments)
	if err != nil {
		return err
	}
	res, err := a.s.db.ExecContext(ctx, `
		update assets set name=$2, facility_id=$3, type=$4, category=$5, material=$6,
			last_maint=$7, parameters=$8, attachments=$9, updated_at=$10
		where tag=$1`,
		item.Tag, item.Name, item.FacilityID, item.Type, item.Category, item.Material,
		item.LastMaint, params, attach, item.UpdatedAt)
	return affectedOrNotFound(res, err)
}

func (a assetStore) DeleteByTag(ctx context.Context, tag string) error {
	res, err := a.s.db.ExecContext(ctx, `delete from assets where tag=$1`, tag)
	return affectedOrNotFound(res, err)
}

// --- change requests ---

type mocStore struct{ s *Store }

const mocCols = `id, title, requester, status, priority, change_type, discipline, facility_id,
	impacts, description, technical_summary, technical_assessment, risk_score, risk_assessment,
	attachments, tasks, history, related_asset_tags, created_at, updated_at`

func scanMOC(row interface{ Scan(...any) error }) (domain.MOCRequest, error) {
	var m domain.MOCRequest
	var impacts, riskDoc, attach, tasks, history, tags []byte
	err := row.Scan(&m.ID, &m.Title, &m.Requester, &m.Status, &m.Priority, &m.ChangeType,
		&m.Discipline, &m.FacilityID, &impacts, &m.Description, &m.TechnicalSummary,
		&m.TechnicalAssessment, &m.RiskScore, &riskDoc, &attach, &tasks, &history, &tags,
		&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return domain.MOCRequest{}, err
	}
	for _, pair := range []struct {
		raw []byte
		dst any
	}{
		{impacts, &m.Impacts},
		{riskDoc, &m.RiskAssessment},
		{attach, &m.Attachments},
		{tasks, &m.Tasks},
		{history, &m.History},
		{tags, &m.RelatedAssetTags},
	} {
		if err := fromJSON(pair.raw, pair.dst); err != nil {
			return domain.MOCRequest{}, err
		}
	}
	return m, nil
}

func mocArgs(m domain.MOCRequest) ([]any, error) {
	impacts, err := asJSON(m.Impacts)
	if err != nil {
		return nil, err
	}
	riskDoc, err := asJSON(m.RiskAssessment)
	if err != nil {
		return nil, err
	}
	attach, err := asJSON(m.Attachments)
	if err != nil {
		return nil, err
	}
	tasks, err := asJSON(m.Tasks)
	if err != nil {
		return nil, err
	}
	history, err := asJSON(m.History)
	if err != nil {
		return nil, err
	}
	tags, err := asJSON(m.RelatedAssetTags)
	if err != nil {
		return nil, err
	}
	return []any{m.ID, m.Title, m.Requester, m.Status, m.Priority, m.ChangeType,
		m.Discipline, m.FacilityID, impacts, m.Description, m.TechnicalSummary,
		m.TechnicalAssessment, m.RiskScore, riskDoc, attach, tasks, history, tags,
		m.CreatedAt, m.UpdatedAt}, nil
}

func (s mocStore) List(ctx context.Context) ([]domain.MOCRequest, error) {
	rows, err := s.s.db.QueryContext(ctx,
		`select `+mocCols+` from moc_requests order by created_at asc, id asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.MOCRequest
	for rows.Next() {
		m, err := scanMOC(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, m)
	}
	return res, rows.Err()
}

func (s mocStore) Get(ctx context.Context, id string) (domain.MOCRequest, error) {
	m, err := scanMOC(s.s.db.QueryRowContext(ctx,
		`select `+mocCols+` from moc_requests where id=$1`, id))
	if err != nil {
		return domain.MOCRequest{}, mapErr(err)
	}
	return m, nil
}

func (s mocStore) Create(ctx context.Context, m domain.MOCRequest) error {
	args, err := mocArgs(m)
	if err != nil {
		return err
	}
	_, err = s.s.db.ExecContext(ctx, `
		insert into moc_requests(`+mocCols+`)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)`,
		args...)
	return mapErr(err)
}

func (s mocStore) Update(ctx context.Context, m domain.MOCRequest) error {
	args, err := mocArgs(m)
	if err != nil {
		return err
	}
	res, err := s.s.db.ExecContext(ctx, `
		update moc_requests set title=$2, requester=$3, status=$4, priority=$5,
			change_type=$6, discipline=$7, facility_id=$8, impacts=$9, description=$10,
			technical_summary=$11, technical_assessment=$12, risk_score=$13,
			risk_assessment=$14, attachments=$15, tasks=$16, history=$17,
			related_asset_tags=$18, created_at=$19, updated_at=$20
		where id=$1`, args...)
	return affectedOrNotFound(res, err)
}

// --- risk assessments ---

type riskStore struct{ s *Store }

func (r riskStore) List(ctx context.Context) ([]domain.RiskAssessment, error) {
	rows, err := r.s.db.QueryContext(ctx, `
		select id, moc_id, probability, severity, score, rationale, assessed_at
		from risk_assessments order by assessed_at asc, moc_id asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.RiskAssessment
	for rows.Next() {
		var ra domain.RiskAssessment
		if err := rows.Scan(&ra.ID, &ra.MOCID, &ra.Probability, &ra.Severity, &ra.Score,
			&ra.Rationale, &ra.AssessedAt); err != nil {
			return nil, err
		}
		res = append(res, ra)
	}
	return res, rows.Err()
}

func (r riskStore) Upsert(ctx context.Context, ra domain.RiskAssessment) error {
	_, err := r.s.db.ExecContext(ctx, `
		insert into risk_assessments(moc_id, id, probability, severity, score, rationale, assessed_at)
		values ($1,$2,$3,$4,$5,$6,$7)
		on conflict (moc_id) do update set
			id=excluded.id, probability=excluded.probability, severity=excluded.severity,
			score=excluded.score, rationale=excluded.rationale, assessed_at=excluded.assessed_at`,
		ra.MOCID, ra.ID, ra.Probability, ra.Severity, ra.Score, ra.Rationale, ra.AssessedAt)
	return mapErr(err)
}

// --- work orders ---

type workOrderStore struct{ s *Store }

const workOrderCols = `id, coalesce(moc_id,''), title, assigned_to, due_date, status, created_at`

func scanWorkOrder(row interface{ Scan(...any) error }) (domain.WorkOrder, error) {
	var w domain.WorkOrder
	err := row.Scan(&w.ID, &w.MOCID, &w.Title, &w.AssignedTo, &w.DueDate, &w.Status, &w.CreatedAt)
	return w, err
}

func (s workOrderStore) list(ctx context.Context, where string, args ...any) ([]domain.WorkOrder, error) {
	rows, err := s.s.db.QueryContext(ctx,
		`select `+workOrderCols+` from work_orders `+where+` order by created_at asc, id asc`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.WorkOrder
	for rows.Next() {
		w, err := scanWorkOrder(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, w)
	}
	return res, rows.Err()
}

func (s workOrderStore) List(ctx context.Context) ([]domain.WorkOrder, error) {
	return s.list(ctx, ``)
}

func (s workOrderStore) ListByMOC(ctx context.Context, mocID string) ([]domain.WorkOrder, error) {
	return s.list(ctx, `where moc_id=$1`, mocID)
}

func (s workOrderStore) ListUnlinked(ctx context.Context) ([]domain.WorkOrder, error) {
	return s.list(ctx, `where moc_id is null`)
}

func (s workOrderStore) Get(ctx context.Context, id string) (domain.WorkOrder, error) {
	w, err := scanWorkOrder(s.s.db.QueryRowContext(ctx,
		`select `+workOrderCols+` from work_orders where id=$1`, id))
	if err != nil {
		return domain.WorkOrder{}, mapErr(err)
	}
	return w, nil
}

func (s workOrderStore) Create(ctx context.Context, w domain.WorkOrder) error {
	_, err := s.s.db.ExecContext(ctx, `
		insert into work_orders(id, moc_id, title, assigned_to, due_date, status, created_at)
		values ($1,nullif($2,''),$3,$4,$5,$6,$7)`,
		w.ID, w.MOCID, w.Title, w.AssignedTo, w.DueDate, w.Status, w.CreatedAt)
	return mapErr(err)
}

func (s workOrderStore) Update(ctx context.Context, w domain.WorkOrder) error {
	res, err := s.s.db.ExecContext(ctx, `
		update work_orders set moc_id=nullif($2,''), title=$3, assigned_to=$4, due_date=$5, status=$6
		where id=$1`,
		w.ID, w.MOCID, w.Title, w.AssignedTo, w.DueDate, w.Status)
	return affectedOrNotFound(res, err)
}

// --- users ---

type userStore struct{ s *Store }

const userCols = `id, name, email, role, active, password_hash, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.Active, &u.PasswordHash,
		&u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (s userStore) List(ctx context.Context) ([]domain.User, error) {
	rows, err := s.s.db.QueryContext(ctx,
		`select `+userCols+` from users order by created_at asc, id asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, u)
	}
	return res, rows.Err()
}

func (s userStore) Get(ctx context.Context, id string) (domain.User, error) {
	u, err := scanUser(s.s.db.QueryRowContext(ctx,
		`select `+userCols+` from users where id=$1`, id))
	if err != nil {
		return domain.User{}, mapErr(err)
	}
	return u, nil
}

func (s userStore) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	u, err := scanUser(s.s.db.QueryRowContext(ctx,
		`select `+userCols+` from users where lower(email)=lower($1)`, email))
	if err != nil {
		return domain.User{}, mapErr(err)
	}
	return u, nil
}

func (s userStore) Create(ctx context.Context, u domain.User) error {
	_, err := s.s.db.ExecContext(ctx, `
		insert into users(id, name, email, role, active, password_hash, created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8)`,
		u.ID, u.Name, u.Email, u.Role, u.Active, u.PasswordHash, u.CreatedAt, u.UpdatedAt)
	return mapErr(err)
}

func (s userStore) Update(ctx context.Context, u domain.User) error {
	res, err := s.s.db.ExecContext(ctx, `
		update users set name=$2, email=$3, role=$4, active=$5, password_hash=$6, updated_at=$7
		where id=$1`,
		u.ID, u.Name, u.Email, u.Role, u.Active, u.PasswordHash, u.UpdatedAt)
	return affectedOrNotFound(res, err)
}

// --- standards ---

type standardStore struct{ s *Store }

func (s standardStore) List(ctx context.Context) ([]domain.RegulatoryStandard, error) {
	rows, err := s.s.db.QueryContext(ctx, `
		select id, code, title, status, description, link from standards order by code asc, id asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.RegulatoryStandard
	for rows.Next() {
		var std domain.RegulatoryStandard
		if err := rows.Scan(&std.ID, &std.Code, &std.Title, &std.Status, &std.Description, &std.Link); err != nil {
			return nil, err
		}
		res = append(res, std)
	}
	return res, rows.Err()
}

func (s standardStore) Create(ctx context.Context, std domain.RegulatoryStandard) error {
	_, err := s.s.db.ExecContext(ctx, `
		insert into standards(id, code, title, status, description, link)
		values ($1,$2,$3,$4,$5,$6)`,
		std.ID, std.Code, std.Title, std.Status, std.Description, std.Link)
	return mapErr(err)
}

func (s standardStore) Update(ctx context.Context, std domain.RegulatoryStandard) error {
	res, err := s.s.db.ExecContext(ctx, `
		update standards set code=$2, title=$3, status=$4, description=$5, link=$6
		where id=$1`,
		std.ID, std.Code, std.Title, std.Status, std.Description, std.Link)
	return affectedOrNotFound(res, err)
}

func (s standardStore) Delete(ctx context.Context, id string) error {
	res, err := s.s.db.ExecContext(ctx, `delete from standards where id=$1`, id)
	return affectedOrNotFound(res, err)
}

// --- links ---

type linkStore struct{ s *Store }

func (s linkStore) List(ctx context.Context) ([]domain.UsefulLink, error) {
	rows, err := s.s.db.QueryContext(ctx,
		`select id, label, url, icon from links order by label asc, id asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.UsefulLink
	for rows.Next() {
		var l domain.UsefulLink
		if err := rows.Scan(&l.ID, &l.Label, &l.URL, &l.Icon); err != nil {
			return nil, err
		}
		res = append(res, l)
	}
	return res, rows.Err()
}

func (s linkStore) Create(ctx context.Context, l domain.UsefulLink) error {
	_, err := s.s.db.ExecContext(ctx,
		`insert into links(id, label, url, icon) values ($1,$2,$3,$4)`,
		l.ID, l.Label, l.URL, l.Icon)
	return mapErr(err)
}

func (s linkStore) Update(ctx context.Context, l domain.UsefulLink) error {
	res, err := s.s.db.ExecContext(ctx,
		`update links set label=$2, url=$3, icon=$4 where id=$1`,
		l.ID, l.Label, l.URL, l.Icon)
	return affectedOrNotFound(res, err)
}

func (s linkStore) Delete(ctx context.Context, id string) error {
	res, err := s.s.db.ExecContext(ctx, `delete from links where id=$1`, id)
	return affectedOrNotFound(res, err)
}

// --- audit trail ---

type auditStore struct{ s *Store }

func (s auditStore) List(ctx context.Context) ([]domain.AuditEntry, error) {
	rows, err := s.s.db.QueryContext(ctx, `
		select id, actor_id, actor_name, actor_role, action, resource, ts, details, changes
		from audit_entries order by seq desc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		var changes []byte
		if err := rows.Scan(&e.ID, &e.ActorID, &e.ActorName, &e.ActorRole, &e.Action,
			&e.Resource, &e.Timestamp, &e.Details, &changes); err != nil {
			return nil, err
		}
		if err := fromJSON(changes, &e.Changes); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// Append inserts the entry and evicts everything past the cap in the
// same transaction.
func (s auditStore) Append(ctx context.Context, e domain.AuditEntry) error {
	changes, err := asJSON(e.Changes)
	if err != nil {
		return err
	}
	tx, err := s.s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		insert into audit_entries(id, actor_id, actor_name, actor_role, action, resource, ts, details, changes)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		e.ID, e.ActorID, e.ActorName, e.ActorRole, e.Action, e.Resource, e.Timestamp, e.Details, changes); err != nil {
		return mapErr(err)
	}
	if _, err := tx.ExecContext(ctx, `
		delete from audit_entries
		where seq not in (select seq from audit_entries order by seq desc limit $1)`,
		store.MaxAuditEntries); err != nil {
		return err
	}
	return tx.Commit()
}

// --- notifications ---

type notificationStore struct{ s *Store }

func (s notificationStore) List(ctx context.Context) ([]domain.Notification, error) {
	rows, err := s.s.db.QueryContext(ctx, `
		select id, title, message, severity, ts, read, link
		from notifications order by seq desc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.Title, &n.Message, &n.Severity, &n.Timestamp, &n.Read, &n.Link); err != nil {
			return nil, err
		}
		res = append(res, n)
	}
	return res, rows.Err()
}

func (s notificationStore) Append(ctx context.Context, n domain.Notification) error {
	tx, err := s.s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		insert into notifications(id, title, message, severity, ts, read, link)
		values ($1,$2,$3,$4,$5,$6,$7)`,
		n.ID, n.Title, n.Message, n.Severity, n.Timestamp, n.Read, n.Link); err != nil {
		return mapErr(err)
	}
	if _, err := tx.ExecContext(ctx, `
		delete from notifications
		where seq not in (select seq from notifications order by seq desc limit $1)`,
		store.MaxNotifications); err != nil {
		return err
	}
	return tx.Commit()
}

func (s notificationStore) MarkRead(ctx context.Context, id string) error {
	res, err := s.s.db.ExecContext(ctx, `update notifications set read=true where id=$1`, id)
	return affectedOrNotFound(res, err)
}

func (s notificationStore) MarkAllRead(ctx context.Context) error {
	_, err := s.s.db.ExecContext(ctx, `update notifications set read=true`)
	return err
}

func (s notificationStore) Clear(ctx context.Context) error {
	_, err := s.s.db.ExecContext(ctx, `delete from notifications`)
	return err
}
