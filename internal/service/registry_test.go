package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"launchpad/internal/models"
	"launchpad/internal/repository"
	"launchpad/internal/treasury"
)

func listAll() repository.ListSalesParams { return repository.ListSalesParams{} }

const (
	owner   = "erd1owner"
	alice   = "erd1alice"
	bob     = "erd1bob"
	govAddr = "erd1governance"

	saleToken = "MOON-5a7b9c"
	payToken  = "USDC-c76f1f"
	feeToken  = "FEE-abcdef"

	clockStart  = int64(1_700_000_000)
	windowStart = int64(1_700_000_100)
	windowEnd   = int64(1_700_000_200)
)

type fixture struct {
	repo       *stubRepo
	treas      *stubTreasury
	clock      *fixedClock
	gov        *stubGovernance
	registry   *RegistryService
	engine     *EngineService
	settlement *SettlementService
	query      *QueryService
}

func newFixture() *fixture {
	treas := newStubTreasury()
	repo := newStubRepo(treas)
	clock := &fixedClock{now: time.Unix(clockStart, 0).UTC()}
	gov := &stubGovernance{
		creators: map[string]bool{owner: true, govAddr: true},
		feeToken: feeToken,
	}
	f := &fixture{repo: repo, treas: treas, clock: clock, gov: gov}
	f.registry = &RegistryService{Repo: repo, Treasury: treas, Governance: gov, Clock: clock, TopUpPolicy: TopUpBeforeEnd}
	f.engine = &EngineService{Repo: repo, Treasury: treas, Clock: clock}
	f.settlement = &SettlementService{Repo: repo, Treasury: treas, Governance: gov, Clock: clock}
	f.query = &QueryService{Repo: repo, Clock: clock}
	return f
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// baseParams is a valid creation request: 500 whole units of inventory priced
// at 2.0 payment units each (6-decimal payment token), open window ahead.
func baseParams() CreateSaleParams {
	return CreateSaleParams{
		Caller:           owner,
		Owner:            owner,
		SaleToken:        saleToken,
		PaymentToken:     payToken,
		Price:            dec(2_000_000),
		MinBuyAmount:     decimal.Zero,
		MaxBuyAmount:     dec(1_000),
		StartTime:        windowStart,
		EndTime:          windowEnd,
		InitialInventory: dec(500),
	}
}

func (f *fixture) mustCreate(t *testing.T, p CreateSaleParams) *models.Sale {
	t.Helper()
	if p.InitialInventory.IsPositive() {
		f.treas.credit(p.SaleToken, p.Owner, p.InitialInventory)
	}
	sale, err := f.registry.Create(context.Background(), p)
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}
	return sale
}

func (f *fixture) openWindow()  { f.clock.set(windowStart + 1) }
func (f *fixture) closeWindow() { f.clock.set(windowEnd + 1) }

func TestCreate(t *testing.T) {
	f := newFixture()
	sale := f.mustCreate(t, baseParams())

	if sale.ID == 0 {
		t.Fatalf("expected assigned id")
	}
	if sale.FeeToken != feeToken {
		t.Fatalf("fee token not snapshotted: got %q", sale.FeeToken)
	}
	if got := sale.StatusAt(f.clock.Now().Unix()); got != models.SaleStatusPending {
		t.Fatalf("new sale status = %s, want pending", got)
	}
	if !f.treas.balance(saleToken, treasury.EscrowAddress).Equal(dec(500)) {
		t.Fatalf("escrow holds %s, want 500", f.treas.balance(saleToken, treasury.EscrowAddress))
	}
	if !f.treas.balance(saleToken, owner).IsZero() {
		t.Fatalf("owner still holds %s after escrow", f.treas.balance(saleToken, owner))
	}
}

func TestCreateValidations(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*CreateSaleParams)
		want   error
	}{
		{"zero price", func(p *CreateSaleParams) { p.Price = decimal.Zero }, ErrInvalidPrice},
		{"negative price", func(p *CreateSaleParams) { p.Price = dec(-1) }, ErrInvalidPrice},
		{"min above max", func(p *CreateSaleParams) { p.MinBuyAmount = dec(10); p.MaxBuyAmount = dec(5) }, ErrInvalidQuota},
		{"negative min", func(p *CreateSaleParams) { p.MinBuyAmount = dec(-1) }, ErrInvalidQuota},
		{"start in the past", func(p *CreateSaleParams) { p.StartTime = clockStart - 1 }, ErrInvalidWindow},
		{"start at now", func(p *CreateSaleParams) { p.StartTime = clockStart }, ErrInvalidWindow},
		{"end before start", func(p *CreateSaleParams) { p.EndTime = p.StartTime - 1 }, ErrInvalidWindow},
		{"end equals start", func(p *CreateSaleParams) { p.EndTime = p.StartTime }, ErrInvalidWindow},
		{"negative inventory", func(p *CreateSaleParams) { p.InitialInventory = dec(-1) }, ErrInvalidAmount},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			p := baseParams()
			tc.mutate(&p)
			if _, err := f.registry.Create(context.Background(), p); !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestCreateRequiresGovernanceApproval(t *testing.T) {
	f := newFixture()
	p := baseParams()
	p.Caller = alice
	if _, err := f.registry.Create(context.Background(), p); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("got %v, want %v", err, ErrNotAuthorized)
	}
}

func TestCreateAbortsWhenGovernanceUnreachable(t *testing.T) {
	f := newFixture()
	f.gov.err = errors.New("connection refused")
	if _, err := f.registry.Create(context.Background(), baseParams()); err == nil {
		t.Fatalf("expected error when governance is down")
	}
	if n, _ := f.repo.CountSales(context.Background(), listAll()); n != 0 {
		t.Fatalf("sale persisted despite governance failure")
	}
}

func TestCreateRejectsLaunchedToken(t *testing.T) {
	f := newFixture()
	f.mustCreate(t, baseParams())

	p := baseParams()
	p.PaymentToken = "EGLD-000000"
	if _, err := f.registry.Create(context.Background(), p); !errors.Is(err, ErrTokenAlreadyLaunched) {
		t.Fatalf("got %v, want %v", err, ErrTokenAlreadyLaunched)
	}
}

func TestCreateRollsBackWhenOwnerUnderfunded(t *testing.T) {
	f := newFixture()
	_, err := f.registry.Create(context.Background(), baseParams())
	if !errors.Is(err, treasury.ErrInsufficientBalance) {
		t.Fatalf("got %v, want insufficient balance", err)
	}
	if n, _ := f.repo.CountSales(context.Background(), listAll()); n != 0 {
		t.Fatalf("sale persisted despite failed escrow")
	}
}

func TestTopUp(t *testing.T) {
	f := newFixture()
	sale := f.mustCreate(t, baseParams())
	f.treas.credit(saleToken, owner, dec(100))

	updated, err := f.registry.TopUp(context.Background(), sale.ID, owner, saleToken, dec(100))
	if err != nil {
		t.Fatalf("top up: %v", err)
	}
	if !updated.InventoryAmount.Equal(dec(600)) {
		t.Fatalf("inventory = %s, want 600", updated.InventoryAmount)
	}
	if !f.treas.balance(saleToken, treasury.EscrowAddress).Equal(dec(600)) {
		t.Fatalf("escrow = %s, want 600", f.treas.balance(saleToken, treasury.EscrowAddress))
	}
}

func TestTopUpRejections(t *testing.T) {
	f := newFixture()
	sale := f.mustCreate(t, baseParams())
	f.treas.credit(saleToken, owner, dec(100))
	f.treas.credit(payToken, owner, dec(100))

	ctx := context.Background()
	if _, err := f.registry.TopUp(ctx, sale.ID, owner, saleToken, decimal.Zero); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero amount: got %v", err)
	}
	if _, err := f.registry.TopUp(ctx, sale.ID+99, owner, saleToken, dec(1)); !errors.Is(err, ErrSaleNotFound) {
		t.Fatalf("missing sale: got %v", err)
	}
	if _, err := f.registry.TopUp(ctx, sale.ID, alice, saleToken, dec(1)); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("non-owner: got %v", err)
	}
	if _, err := f.registry.TopUp(ctx, sale.ID, owner, payToken, dec(1)); !errors.Is(err, ErrWrongToken) {
		t.Fatalf("wrong token: got %v", err)
	}

	f.closeWindow()
	if _, err := f.registry.TopUp(ctx, sale.ID, owner, saleToken, dec(1)); !errors.Is(err, ErrWindowClosed) {
		t.Fatalf("after end: got %v", err)
	}
}

func TestTopUpBeforeStartPolicy(t *testing.T) {
	f := newFixture()
	f.registry.TopUpPolicy = TopUpBeforeStart
	sale := f.mustCreate(t, baseParams())
	f.treas.credit(saleToken, owner, dec(50))

	ctx := context.Background()
	if _, err := f.registry.TopUp(ctx, sale.ID, owner, saleToken, dec(25)); err != nil {
		t.Fatalf("top up before start: %v", err)
	}

	f.openWindow()
	if _, err := f.registry.TopUp(ctx, sale.ID, owner, saleToken, dec(25)); !errors.Is(err, ErrWindowClosed) {
		t.Fatalf("top up after start under strict policy: got %v", err)
	}
}

func TestCancelRefundsAndFreesToken(t *testing.T) {
	f := newFixture()
	sale := f.mustCreate(t, baseParams())
	if err := f.registry.WhitelistAdd(context.Background(), sale.ID, owner, []string{alice}); err != nil {
		t.Fatalf("whitelist: %v", err)
	}

	if err := f.registry.Cancel(context.Background(), sale.ID, owner); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if !f.treas.balance(saleToken, owner).Equal(dec(500)) {
		t.Fatalf("owner refund = %s, want 500", f.treas.balance(saleToken, owner))
	}
	if got, _ := f.repo.GetSale(context.Background(), sale.ID); got != nil {
		t.Fatalf("sale row survived cancel")
	}
	if ok, _ := f.repo.IsWhitelistedTx(context.Background(), nil, sale.ID, alice); ok {
		t.Fatalf("whitelist survived cancel")
	}

	// The token is free again.
	f.mustCreate(t, baseParams())
}

func TestCancelRejectsAfterFirstPurchase(t *testing.T) {
	f := newFixture()
	sale := f.mustCreate(t, baseParams())
	f.openWindow()
	f.treas.credit(payToken, alice, dec(2_000_000))
	if _, err := f.engine.Buy(context.Background(), sale.ID, alice, dec(2_000_000), payToken); err != nil {
		t.Fatalf("buy: %v", err)
	}

	if err := f.registry.Cancel(context.Background(), sale.ID, owner); !errors.Is(err, ErrCannotCancelAfterSale) {
		t.Fatalf("got %v, want %v", err, ErrCannotCancelAfterSale)
	}
}

func TestCancelAuthorization(t *testing.T) {
	f := newFixture()
	sale := f.mustCreate(t, baseParams())

	if err := f.registry.Cancel(context.Background(), sale.ID, alice); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("stranger cancel: got %v", err)
	}
	if err := f.registry.Cancel(context.Background(), sale.ID, govAddr); err != nil {
		t.Fatalf("governance cancel: %v", err)
	}
}

func TestWhitelistAddRemove(t *testing.T) {
	f := newFixture()
	p := baseParams()
	p.KycEnforced = true
	sale := f.mustCreate(t, p)
	ctx := context.Background()

	if err := f.registry.WhitelistAdd(ctx, sale.ID, alice, []string{bob}); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("non-owner add: got %v", err)
	}
	if err := f.registry.WhitelistAdd(ctx, sale.ID, owner, []string{alice, bob}); err != nil {
		t.Fatalf("add: %v", err)
	}
	// Re-adding is a no-op, not an error.
	if err := f.registry.WhitelistAdd(ctx, sale.ID, owner, []string{alice}); err != nil {
		t.Fatalf("re-add: %v", err)
	}
	entries, _ := f.repo.ListWhitelisted(ctx, sale.ID, 0, 0)
	if len(entries) != 2 {
		t.Fatalf("whitelist size = %d, want 2", len(entries))
	}

	if err := f.registry.WhitelistRemove(ctx, sale.ID, owner, bob); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if ok, _ := f.repo.IsWhitelistedTx(ctx, nil, sale.ID, bob); ok {
		t.Fatalf("bob still whitelisted after remove")
	}
}

func TestClearParticipations(t *testing.T) {
	f := newFixture()
	sale := f.mustCreate(t, baseParams())
	f.openWindow()
	f.treas.credit(payToken, alice, dec(10_000_000))
	if _, err := f.engine.Buy(context.Background(), sale.ID, alice, dec(10_000_000), payToken); err != nil {
		t.Fatalf("buy: %v", err)
	}

	if _, err := f.registry.ClearParticipations(context.Background(), sale.ID, alice); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("non-governance clear: got %v", err)
	}
	cleared, err := f.registry.ClearParticipations(context.Background(), sale.ID, govAddr)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if cleared != 1 {
		t.Fatalf("cleared = %d, want 1", cleared)
	}
	if got, _ := f.repo.GetParticipationTx(context.Background(), nil, sale.ID, alice); !got.IsZero() {
		t.Fatalf("participation survived clear: %s", got)
	}
}
