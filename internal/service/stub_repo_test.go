package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"launchpad/internal/models"
	"launchpad/internal/repository"
	"launchpad/internal/treasury"
)

// stubRepo is a test-only in-memory implementation of repository.Repository.
// InTx snapshots the whole state (treasury included) and restores it when fn
// fails, mirroring the all-or-nothing transaction of the real store.
type stubRepo struct {
	nextID         uint64
	sales          map[uint64]*models.Sale
	participations map[uint64]map[string]decimal.Decimal
	whitelist      map[uint64]map[string]bool
	deployments    map[string]uint64
	treas          *stubTreasury
}

func newStubRepo(treas *stubTreasury) *stubRepo {
	return &stubRepo{
		sales:          map[uint64]*models.Sale{},
		participations: map[uint64]map[string]decimal.Decimal{},
		whitelist:      map[uint64]map[string]bool{},
		deployments:    map[string]uint64{},
		treas:          treas,
	}
}

func (s *stubRepo) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	sales := make(map[uint64]*models.Sale, len(s.sales))
	for id, sale := range s.sales {
		c := *sale
		sales[id] = &c
	}
	parts := make(map[uint64]map[string]decimal.Decimal, len(s.participations))
	for id, m := range s.participations {
		cm := make(map[string]decimal.Decimal, len(m))
		for k, v := range m {
			cm[k] = v
		}
		parts[id] = cm
	}
	wl := make(map[uint64]map[string]bool, len(s.whitelist))
	for id, m := range s.whitelist {
		cm := make(map[string]bool, len(m))
		for k, v := range m {
			cm[k] = v
		}
		wl[id] = cm
	}
	deps := make(map[string]uint64, len(s.deployments))
	for k, v := range s.deployments {
		deps[k] = v
	}
	var bal map[string]decimal.Decimal
	if s.treas != nil {
		bal = make(map[string]decimal.Decimal, len(s.treas.balances))
		for k, v := range s.treas.balances {
			bal[k] = v
		}
	}
	nextID := s.nextID

	if err := fn(nil); err != nil {
		s.sales, s.participations, s.whitelist, s.deployments = sales, parts, wl, deps
		s.nextID = nextID
		if s.treas != nil {
			s.treas.balances = bal
		}
		return err
	}
	return nil
}

func (s *stubRepo) CreateSaleTx(ctx context.Context, tx *gorm.DB, sale *models.Sale) error {
	for _, existing := range s.sales {
		if existing.SaleToken == sale.SaleToken {
			return fmt.Errorf("duplicate sale_token %s", sale.SaleToken)
		}
	}
	s.nextID++
	sale.ID = s.nextID
	sale.CreatedAt = time.Now().UTC()
	c := *sale
	s.sales[sale.ID] = &c
	return nil
}

func (s *stubRepo) SaveSaleTx(ctx context.Context, tx *gorm.DB, sale *models.Sale) error {
	c := *sale
	s.sales[sale.ID] = &c
	return nil
}

func (s *stubRepo) DeleteSaleTx(ctx context.Context, tx *gorm.DB, id uint64) error {
	delete(s.sales, id)
	return nil
}

func (s *stubRepo) GetSale(ctx context.Context, id uint64) (*models.Sale, error) {
	sale, ok := s.sales[id]
	if !ok {
		return nil, nil
	}
	c := *sale
	return &c, nil
}

func (s *stubRepo) GetSaleForUpdateTx(ctx context.Context, tx *gorm.DB, id uint64) (*models.Sale, error) {
	return s.GetSale(ctx, id)
}

func (s *stubRepo) GetSaleBySaleToken(ctx context.Context, token string) (*models.Sale, error) {
	for _, sale := range s.sales {
		if sale.SaleToken == token {
			c := *sale
			return &c, nil
		}
	}
	return nil, nil
}

func (s *stubRepo) matches(sale *models.Sale, params repository.ListSalesParams) bool {
	if params.Status != nil && sale.StatusAt(params.Now) != *params.Status {
		return false
	}
	if params.Owner != nil && sale.Owner != *params.Owner {
		return false
	}
	if params.PaymentToken != nil && sale.PaymentToken != *params.PaymentToken {
		return false
	}
	if params.CreatedSince != nil && sale.CreatedAt.Before(*params.CreatedSince) {
		return false
	}
	return true
}

func (s *stubRepo) ListSales(ctx context.Context, params repository.ListSalesParams) ([]models.Sale, error) {
	var out []models.Sale
	for _, sale := range s.sales {
		if s.matches(sale, params) {
			out = append(out, *sale)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if params.Offset > 0 {
		if params.Offset >= len(out) {
			return nil, nil
		}
		out = out[params.Offset:]
	}
	if params.Limit > 0 && params.Limit < len(out) {
		out = out[:params.Limit]
	}
	return out, nil
}

func (s *stubRepo) CountSales(ctx context.Context, params repository.ListSalesParams) (int64, error) {
	var n int64
	for _, sale := range s.sales {
		if s.matches(sale, params) {
			n++
		}
	}
	return n, nil
}

func (s *stubRepo) SumRaisedByPaymentToken(ctx context.Context) ([]repository.RaisedAggregate, error) {
	byToken := map[string]*repository.RaisedAggregate{}
	for _, sale := range s.sales {
		agg, ok := byToken[sale.PaymentToken]
		if !ok {
			agg = &repository.RaisedAggregate{PaymentToken: sale.PaymentToken, TotalRaised: decimal.Zero}
			byToken[sale.PaymentToken] = agg
		}
		agg.TotalRaised = agg.TotalRaised.Add(sale.TotalRaised)
		agg.Sales++
	}
	var out []repository.RaisedAggregate
	for _, agg := range byToken {
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PaymentToken < out[j].PaymentToken })
	return out, nil
}

func (s *stubRepo) GetParticipationTx(ctx context.Context, tx *gorm.DB, saleID uint64, participant string) (decimal.Decimal, error) {
	if m, ok := s.participations[saleID]; ok {
		if amt, ok := m[participant]; ok {
			return amt, nil
		}
	}
	return decimal.Zero, nil
}

func (s *stubRepo) AddParticipationTx(ctx context.Context, tx *gorm.DB, saleID uint64, participant string, amount decimal.Decimal) error {
	m, ok := s.participations[saleID]
	if !ok {
		m = map[string]decimal.Decimal{}
		s.participations[saleID] = m
	}
	m[participant] = m[participant].Add(amount)
	return nil
}

func (s *stubRepo) ListParticipants(ctx context.Context, saleID uint64, limit, offset int) ([]models.Participation, error) {
	var out []models.Participation
	for participant, amount := range s.participations[saleID] {
		out = append(out, models.Participation{SaleID: saleID, Participant: participant, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Participant < out[j].Participant })
	return out, nil
}

func (s *stubRepo) ListSaleIDsByParticipant(ctx context.Context, participant string) ([]uint64, error) {
	var out []uint64
	for saleID, m := range s.participations {
		if _, ok := m[participant]; ok {
			out = append(out, saleID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (s *stubRepo) ClearParticipationsTx(ctx context.Context, tx *gorm.DB, saleID uint64) (int64, error) {
	n := int64(len(s.participations[saleID]))
	delete(s.participations, saleID)
	return n, nil
}

func (s *stubRepo) AddWhitelistedTx(ctx context.Context, tx *gorm.DB, saleID uint64, participants []string) error {
	m, ok := s.whitelist[saleID]
	if !ok {
		m = map[string]bool{}
		s.whitelist[saleID] = m
	}
	for _, p := range participants {
		m[p] = true
	}
	return nil
}

func (s *stubRepo) RemoveWhitelistedTx(ctx context.Context, tx *gorm.DB, saleID uint64, participant string) error {
	delete(s.whitelist[saleID], participant)
	return nil
}

func (s *stubRepo) RemoveWhitelistBySaleTx(ctx context.Context, tx *gorm.DB, saleID uint64) error {
	delete(s.whitelist, saleID)
	return nil
}

func (s *stubRepo) IsWhitelistedTx(ctx context.Context, tx *gorm.DB, saleID uint64, participant string) (bool, error) {
	return s.whitelist[saleID][participant], nil
}

func (s *stubRepo) ListWhitelisted(ctx context.Context, saleID uint64, limit, offset int) ([]models.WhitelistEntry, error) {
	var out []models.WhitelistEntry
	for participant := range s.whitelist[saleID] {
		out = append(out, models.WhitelistEntry{SaleID: saleID, Participant: participant})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Participant < out[j].Participant })
	return out, nil
}

func (s *stubRepo) CreateDeploymentTx(ctx context.Context, tx *gorm.DB, dep *models.Deployment) error {
	s.deployments[dep.Address] = dep.SaleID
	return nil
}

func (s *stubRepo) GetDeploymentByAddress(ctx context.Context, address string) (*models.Deployment, error) {
	saleID, ok := s.deployments[address]
	if !ok {
		return nil, nil
	}
	return &models.Deployment{Address: address, SaleID: saleID}, nil
}

var _ repository.Repository = (*stubRepo)(nil)

// stubTreasury is an in-memory Transferer with real balance checks so a test
// can make a disbursement fail by underfunding an account.
type stubTreasury struct {
	balances map[string]decimal.Decimal
}

func newStubTreasury() *stubTreasury {
	return &stubTreasury{balances: map[string]decimal.Decimal{}}
}

func acctKey(token, address string) string { return token + "|" + address }

func (t *stubTreasury) Send(ctx context.Context, tx *gorm.DB, token, from, to string, amount decimal.Decimal) error {
	if amount.IsNegative() || from == "" || to == "" || from == to {
		return treasury.ErrBadTransfer
	}
	if amount.IsZero() {
		return nil
	}
	have := t.balances[acctKey(token, from)]
	if have.LessThan(amount) {
		return fmt.Errorf("%w: %s holds %s %s", treasury.ErrInsufficientBalance, from, have.String(), token)
	}
	t.balances[acctKey(token, from)] = have.Sub(amount)
	t.balances[acctKey(token, to)] = t.balances[acctKey(token, to)].Add(amount)
	return nil
}

func (t *stubTreasury) credit(token, address string, amount decimal.Decimal) {
	t.balances[acctKey(token, address)] = t.balances[acctKey(token, address)].Add(amount)
}

func (t *stubTreasury) balance(token, address string) decimal.Decimal {
	return t.balances[acctKey(token, address)]
}

// fixedClock is a manually advanced Clock.
type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

func (c *fixedClock) set(unix int64) { c.now = time.Unix(unix, 0).UTC() }

// stubGovernance answers creator checks from a fixed set and can be forced to
// fail to exercise the abort-on-unreachable path.
type stubGovernance struct {
	creators map[string]bool
	feeToken string
	err      error
}

func (g *stubGovernance) IsCreator(ctx context.Context, address string) (bool, error) {
	if g.err != nil {
		return false, g.err
	}
	return g.creators[address], nil
}

func (g *stubGovernance) FeeToken(ctx context.Context) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return g.feeToken, nil
}
