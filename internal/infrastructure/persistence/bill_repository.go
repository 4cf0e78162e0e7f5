package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/society/backend/internal/domain/billing"
	"github.com/society/backend/internal/domain/shared"
	"github.com/society/backend/internal/domain/society"
	"github.com/society/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormBillRepository implements billing.BillRepository
type GormBillRepository struct {
	db *gorm.DB
}

// NewGormBillRepository creates a new GormBillRepository
func NewGormBillRepository(db *gorm.DB) *GormBillRepository {
	return &GormBillRepository{db: db}
}

// SaveDefinition upserts a definition and replaces its additional costs
func (r *GormBillRepository) SaveDefinition(ctx context.Context, def *billing.BillDefinition) error {
	model := models.BillDefinitionModelFromDomain(def)
	costs := model.AdditionalCosts
	model.AdditionalCosts = nil

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(model).Error; err != nil {
			return err
		}
		if err := tx.Where("bill_definition_id = ?", def.ID).Delete(&models.AdditionalCostItemModel{}).Error; err != nil {
			return err
		}
		if len(costs) == 0 {
			return nil
		}
		return tx.Create(&costs).Error
	})
}

// SaveRecord upserts a bill record
func (r *GormBillRepository) SaveRecord(ctx context.Context, rec *billing.BillRecord) error {
	return r.db.WithContext(ctx).Save(models.BillRecordModelFromDomain(rec)).Error
}

// FindRecord finds a bill record of the company
func (r *GormBillRepository) FindRecord(ctx context.Context, companyID, id uuid.UUID) (*billing.BillRecord, error) {
	var model models.BillRecordModel
	if err := r.db.WithContext(ctx).Scopes(ForCompany(companyID)).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

type billRowScan struct {
	BillRecordID     uuid.UUID
	BillDefinitionID uuid.UUID
	BillName         string
	PeriodStart      time.Time
	ApartmentID      uuid.UUID
	Number           string
	Tower            string
	ApartmentTypeID  uuid.UUID
}

func (r *GormBillRepository) rowQuery(db *gorm.DB, companyID uuid.UUID) *gorm.DB {
	return db.Table("bill_records AS br").
		Select(`br.id AS bill_record_id, br.bill_definition_id, bd.name AS bill_name,
			bd.period_start, br.apartment_id, a.number, a.tower, a.apartment_type_id`).
		Joins("JOIN bill_definitions AS bd ON bd.id = br.bill_definition_id").
		Joins("JOIN apartments AS a ON a.id = br.apartment_id").
		Where("br.company_id = ?", companyID)
}

// FindRows loads the report window in three queries: the joined record rows,
// then the additional costs of their definitions, then their payments.
func (r *GormBillRepository) FindRows(ctx context.Context, q billing.ReportQuery) ([]billing.BillRow, error) {
	db := r.db.WithContext(ctx)
	query := r.rowQuery(db, q.CompanyID).
		Where("bd.period_start >= ? AND bd.period_start < ?", q.Start, q.End)
	if q.Category != "" && q.Category != billing.CategoryAll {
		query = query.Where("bd.category = ?", string(q.Category))
	}

	var scans []billRowScan
	if err := query.Order("bd.period_start, a.tower, a.number, br.installment").Scan(&scans).Error; err != nil {
		return nil, err
	}
	return r.hydrate(db, scans)
}

// FindGroupRows loads every record of one bill definition and apartment
func (r *GormBillRepository) FindGroupRows(ctx context.Context, companyID uuid.UUID, key billing.GroupKey) ([]billing.BillRow, error) {
	db := r.db.WithContext(ctx)
	var scans []billRowScan
	err := r.rowQuery(db, companyID).
		Where("br.bill_definition_id = ? AND br.apartment_id = ?", key.BillDefinitionID, key.ApartmentID).
		Order("br.installment").
		Scan(&scans).Error
	if err != nil {
		return nil, err
	}
	return r.hydrate(db, scans)
}

func (r *GormBillRepository) hydrate(db *gorm.DB, scans []billRowScan) ([]billing.BillRow, error) {
	if len(scans) == 0 {
		return []billing.BillRow{}, nil
	}

	defIDs := make([]uuid.UUID, 0, len(scans))
	recIDs := make([]uuid.UUID, 0, len(scans))
	seenDef := make(map[uuid.UUID]bool)
	for _, s := range scans {
		if !seenDef[s.BillDefinitionID] {
			seenDef[s.BillDefinitionID] = true
			defIDs = append(defIDs, s.BillDefinitionID)
		}
		recIDs = append(recIDs, s.BillRecordID)
	}

	var costRows []models.AdditionalCostItemModel
	if err := db.Where("bill_definition_id IN ?", defIDs).Order("name").Find(&costRows).Error; err != nil {
		return nil, err
	}
	costs := make(map[uuid.UUID][]billing.AdditionalCostItem, len(defIDs))
	for _, c := range costRows {
		costs[c.BillDefinitionID] = append(costs[c.BillDefinitionID], c.ToDomain())
	}

	var payRows []models.PaymentRecordModel
	if err := db.Where("bill_record_id IN ?", recIDs).Order("paid_at, created_at").Find(&payRows).Error; err != nil {
		return nil, err
	}
	payments := make(map[uuid.UUID][]billing.PaymentRecord, len(recIDs))
	for _, p := range payRows {
		payments[p.BillRecordID] = append(payments[p.BillRecordID], p.ToDomain())
	}

	rows := make([]billing.BillRow, 0, len(scans))
	for _, s := range scans {
		apt := society.Apartment{Number: s.Number, Tower: s.Tower}
		rows = append(rows, billing.BillRow{
			BillRecordID:     s.BillRecordID,
			BillDefinitionID: s.BillDefinitionID,
			BillName:         s.BillName,
			PeriodStart:      s.PeriodStart,
			ApartmentID:      s.ApartmentID,
			ApartmentLabel:   apt.Label(),
			ApartmentTypeID:  s.ApartmentTypeID,
			AdditionalCosts:  costs[s.BillDefinitionID],
			Payments:         payments[s.BillRecordID],
		})
	}
	return rows, nil
}

// GormPaymentRepository implements billing.PaymentRepository. There is no
// update or delete: corrections are appended as reversals.
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByBill lists a bill record's entries in the order they were recorded
func (r *GormPaymentRepository) FindByBill(ctx context.Context, billRecordID uuid.UUID) ([]billing.PaymentRecord, error) {
	var rows []models.PaymentRecordModel
	if err := r.db.WithContext(ctx).Where("bill_record_id = ?", billRecordID).Order("created_at").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]billing.PaymentRecord, 0, len(rows))
	for _, p := range rows {
		out = append(out, p.ToDomain())
	}
	return out, nil
}

// Append inserts one entry
func (r *GormPaymentRepository) Append(ctx context.Context, rec billing.PaymentRecord) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// the bill record row serialises appends to one ledger
		var bill models.BillRecordModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			Where("id = ?", rec.BillRecordID).
			First(&bill).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}

		if rec.IsReversal() {
			var amounts []decimal.Decimal
			if err := tx.Model(&models.PaymentRecordModel{}).
				Where("bill_record_id = ?", rec.BillRecordID).
				Pluck("amount", &amounts).Error; err != nil {
				return err
			}
			net := rec.Amount.Amount()
			for _, a := range amounts {
				net = net.Add(a)
			}
			if net.IsNegative() {
				return shared.NewValidationError(shared.FieldError{Field: "amount", Message: "reversal exceeds recorded payments"})
			}
		}

		return tx.Create(models.PaymentRecordModelFromDomain(rec)).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.ErrAlreadyExists
	}
	return err
}

var (
	_ billing.BillRepository    = (*GormBillRepository)(nil)
	_ billing.PaymentRepository = (*GormPaymentRepository)(nil)
)
