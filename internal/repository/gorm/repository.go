package gormrepository

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"launchpad/internal/models"
	"launchpad/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

// conn picks the caller's transaction when one is supplied; read paths may
// pass nil to use the ambient connection.
func (s *Store) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}

// --- sales -------------------------------------------------------------------

func (s *Store) CreateSaleTx(ctx context.Context, tx *gorm.DB, sale *models.Sale) error {
	if tx == nil || sale == nil {
		return nil
	}
	return tx.WithContext(ctx).Create(sale).Error
}

func (s *Store) SaveSaleTx(ctx context.Context, tx *gorm.DB, sale *models.Sale) error {
	if tx == nil || sale == nil {
		return nil
	}
	return tx.WithContext(ctx).Save(sale).Error
}

func (s *Store) DeleteSaleTx(ctx context.Context, tx *gorm.DB, id uint64) error {
	if tx == nil || id == 0 {
		return nil
	}
	return tx.WithContext(ctx).Delete(&models.Sale{}, id).Error
}

func (s *Store) GetSale(ctx context.Context, id uint64) (*models.Sale, error) {
	if s == nil || s.db == nil || id == 0 {
		return nil, nil
	}
	var sale models.Sale
	err := s.db.WithContext(ctx).First(&sale, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// GetSaleForUpdateTx locks the sale row for the rest of the transaction. Every
// mutating operation goes through it, which serializes operations per sale id.
func (s *Store) GetSaleForUpdateTx(ctx context.Context, tx *gorm.DB, id uint64) (*models.Sale, error) {
	if tx == nil || id == 0 {
		return nil, nil
	}
	var sale models.Sale
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&sale, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

func (s *Store) GetSaleBySaleToken(ctx context.Context, token string) (*models.Sale, error) {
	if s == nil || s.db == nil || strings.TrimSpace(token) == "" {
		return nil, nil
	}
	var sale models.Sale
	err := s.db.WithContext(ctx).Where("sale_token = ?", token).First(&sale).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

func (s *Store) ListSales(ctx context.Context, params repository.ListSalesParams) ([]models.Sale, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := applySaleFilters(s.db.WithContext(ctx).Model(&models.Sale{}), params)
	query = applyOrder(query, params.OrderBy, params.Asc, "id")
	limit := normalizeLimit(params.Limit, 100)
	offset := normalizeOffset(params.Offset)
	var items []models.Sale
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountSales(ctx context.Context, params repository.ListSalesParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var count int64
	query := applySaleFilters(s.db.WithContext(ctx).Model(&models.Sale{}), params)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applySaleFilters translates a status filter into time predicates so the
// whole listing is evaluated against the single clock reading in params.Now.
func applySaleFilters(query *gorm.DB, params repository.ListSalesParams) *gorm.DB {
	if params.Owner != nil && strings.TrimSpace(*params.Owner) != "" {
		query = query.Where("owner = ?", strings.TrimSpace(*params.Owner))
	}
	if params.PaymentToken != nil && strings.TrimSpace(*params.PaymentToken) != "" {
		query = query.Where("payment_token = ?", strings.TrimSpace(*params.PaymentToken))
	}
	if params.CreatedSince != nil && !params.CreatedSince.IsZero() {
		query = query.Where("created_at >= ?", *params.CreatedSince)
	}
	if params.Status != nil {
		switch *params.Status {
		case models.SaleStatusPending:
			query = query.Where("start_time > ?", params.Now)
		case models.SaleStatusActive:
			query = query.Where("start_time <= ?", params.Now).
				Where("end_time >= ?", params.Now)
		case models.SaleStatusEnded:
			query = query.Where("end_time < ?", params.Now).
				Where("settled = ?", false)
		case models.SaleStatusSettled:
			query = query.Where("end_time < ?", params.Now).
				Where("settled = ?", true)
		}
	}
	return query
}

func (s *Store) SumRaisedByPaymentToken(ctx context.Context) ([]repository.RaisedAggregate, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var rows []repository.RaisedAggregate
	err := s.db.WithContext(ctx).
		Model(&models.Sale{}).
		Select("payment_token, SUM(total_raised) AS total_raised, COUNT(*) AS sales").
		Group("payment_token").
		Order("payment_token asc").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// --- participations ----------------------------------------------------------

func (s *Store) GetParticipationTx(ctx context.Context, tx *gorm.DB, saleID uint64, participant string) (decimal.Decimal, error) {
	if s == nil || s.db == nil || saleID == 0 {
		return decimal.Zero, nil
	}
	var p models.Participation
	err := s.conn(tx).WithContext(ctx).
		Where("sale_id = ? AND participant = ?", saleID, participant).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return p.Amount, nil
}

func (s *Store) AddParticipationTx(ctx context.Context, tx *gorm.DB, saleID uint64, participant string, amount decimal.Decimal) error {
	if tx == nil || saleID == 0 {
		return nil
	}
	return tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "sale_id"}, {Name: "participant"}},
		DoUpdates: clause.Assignments(map[string]any{
			"amount":     gorm.Expr("participations.amount + ?", amount),
			"updated_at": gorm.Expr("NOW()"),
		}),
	}).Create(&models.Participation{
		SaleID:      saleID,
		Participant: participant,
		Amount:      amount,
	}).Error
}

func (s *Store) ListParticipants(ctx context.Context, saleID uint64, limit, offset int) ([]models.Participation, error) {
	if s == nil || s.db == nil || saleID == 0 {
		return nil, nil
	}
	var items []models.Participation
	err := s.db.WithContext(ctx).
		Where("sale_id = ?", saleID).
		Order("participant asc").
		Limit(normalizeLimit(limit, 100)).
		Offset(normalizeOffset(offset)).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListSaleIDsByParticipant(ctx context.Context, participant string) ([]uint64, error) {
	if s == nil || s.db == nil || strings.TrimSpace(participant) == "" {
		return nil, nil
	}
	var ids []uint64
	err := s.db.WithContext(ctx).
		Model(&models.Participation{}).
		Where("participant = ?", strings.TrimSpace(participant)).
		Order("sale_id asc").
		Pluck("sale_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *Store) ClearParticipationsTx(ctx context.Context, tx *gorm.DB, saleID uint64) (int64, error) {
	if tx == nil || saleID == 0 {
		return 0, nil
	}
	res := tx.WithContext(ctx).
		Where("sale_id = ?", saleID).
		Delete(&models.Participation{})
	return res.RowsAffected, res.Error
}

// --- whitelist ----------------------------------------------------------------

func (s *Store) AddWhitelistedTx(ctx context.Context, tx *gorm.DB, saleID uint64, participants []string) error {
	if tx == nil || saleID == 0 {
		return nil
	}
	entries := make([]models.WhitelistEntry, 0, len(participants))
	for _, raw := range cleanStrings(participants) {
		entries = append(entries, models.WhitelistEntry{SaleID: saleID, Participant: raw})
	}
	if len(entries) == 0 {
		return nil
	}
	return tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "sale_id"}, {Name: "participant"}},
		DoNothing: true,
	}).Create(&entries).Error
}

func (s *Store) RemoveWhitelistedTx(ctx context.Context, tx *gorm.DB, saleID uint64, participant string) error {
	if tx == nil || saleID == 0 {
		return nil
	}
	return tx.WithContext(ctx).
		Where("sale_id = ? AND participant = ?", saleID, participant).
		Delete(&models.WhitelistEntry{}).Error
}

func (s *Store) RemoveWhitelistBySaleTx(ctx context.Context, tx *gorm.DB, saleID uint64) error {
	if tx == nil || saleID == 0 {
		return nil
	}
	return tx.WithContext(ctx).
		Where("sale_id = ?", saleID).
		Delete(&models.WhitelistEntry{}).Error
}

func (s *Store) IsWhitelistedTx(ctx context.Context, tx *gorm.DB, saleID uint64, participant string) (bool, error) {
	if s == nil || s.db == nil || saleID == 0 {
		return false, nil
	}
	var count int64
	err := s.conn(tx).WithContext(ctx).
		Model(&models.WhitelistEntry{}).
		Where("sale_id = ? AND participant = ?", saleID, participant).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) ListWhitelisted(ctx context.Context, saleID uint64, limit, offset int) ([]models.WhitelistEntry, error) {
	if s == nil || s.db == nil || saleID == 0 {
		return nil, nil
	}
	var items []models.WhitelistEntry
	err := s.db.WithContext(ctx).
		Where("sale_id = ?", saleID).
		Order("participant asc").
		Limit(normalizeLimit(limit, 100)).
		Offset(normalizeOffset(offset)).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// --- deployments ----------------------------------------------------------------

func (s *Store) CreateDeploymentTx(ctx context.Context, tx *gorm.DB, dep *models.Deployment) error {
	if tx == nil || dep == nil {
		return nil
	}
	return tx.WithContext(ctx).Create(dep).Error
}

func (s *Store) GetDeploymentByAddress(ctx context.Context, address string) (*models.Deployment, error) {
	if s == nil || s.db == nil || strings.TrimSpace(address) == "" {
		return nil, nil
	}
	var dep models.Deployment
	err := s.db.WithContext(ctx).
		Where("address = ?", strings.TrimSpace(address)).
		First(&dep).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &dep, nil
}

// --- helpers ----------------------------------------------------------------

func applyOrder(query *gorm.DB, orderBy string, asc *bool, fallback string) *gorm.DB {
	column := strings.TrimSpace(orderBy)
	if column == "" {
		column = fallback
	}
	direction := "desc"
	if asc != nil && *asc {
		direction = "asc"
	}
	return query.Order(column + " " + direction)
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > 500 {
		return 500
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	seen := map[string]struct{}{}
	for _, raw := range items {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		if _, ok := seen[val]; ok {
			continue
		}
		seen[val] = struct{}{}
		out = append(out, val)
	}
	return out
}

var _ repository.Repository = (*Store)(nil)
