package store

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"wolfquant/internal/backend"
	"wolfquant/internal/config"
	"wolfquant/internal/models"
	"wolfquant/internal/position"
	"wolfquant/internal/session"
	"wolfquant/internal/testutil"
)

// The store tests run against the real embedded backend so every operation
// exercises the full command path: store -> gateway -> services -> store
// apply -> position book.

type fixture struct {
	db       *gorm.DB
	backend  *backend.Backend
	sessions *session.Manager
	book     *position.Book
	assets   *AssetStore
	groups   *GroupStore
	plans    *PlanStore
	tasks    *TaskStore
}

func testConfig() *config.Config {
	return &config.Config{
		Env:              "test",
		JWTSecret:        "test-secret",
		JWTExpirationDur: time.Hour,
		MinPasswordLen:   8,
		PlanCronSpec:     "@every 1m",
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	b := backend.New(db, testConfig())
	sessions := session.NewManager(b)
	book := position.NewBook()
	return &fixture{
		db:       db,
		backend:  b,
		sessions: sessions,
		book:     book,
		assets:   NewAssetStore(b, sessions, book),
		groups:   NewGroupStore(b, sessions),
		plans:    NewPlanStore(b, sessions, book),
		tasks:    NewTaskStore(b, sessions),
	}
}

func (f *fixture) login(t *testing.T, username string) *models.User {
	t.Helper()

	user := testutil.CreateTestUser(t, f.db, username)
	if _, err := f.sessions.Login(context.Background(), username, testutil.TestPassword); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	return user
}

func (f *fixture) cryptoTypeID(t *testing.T) uint {
	t.Helper()
	return testutil.GetAssetType(t, f.db, "crypto").ID
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func TestStores_RequireSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.assets.LoadAssets(ctx, nil, nil); err == nil {
		t.Error("expected asset load to fail without a session")
	} else {
		testutil.AssertAppError(t, err, "NOT_AUTHENTICATED")
	}
	_, err := f.groups.CreateGroup(ctx, 1, "Nope", nil)
	testutil.AssertAppError(t, err, "NOT_AUTHENTICATED")
	_, err = f.plans.LoadPlans(ctx, nil)
	testutil.AssertAppError(t, err, "NOT_AUTHENTICATED")
	_, err = f.tasks.Refresh(ctx)
	testutil.AssertAppError(t, err, "NOT_AUTHENTICATED")
}

func TestAssetStore_CreateReflectsPosition(t *testing.T) {
	f := newFixture(t)
	f.login(t, "alice")
	ctx := context.Background()
	typeID := f.cryptoTypeID(t)

	asset, err := f.assets.CreateAsset(ctx, typeID, nil, "BTC", "Bitcoin",
		floatPtr(50000), floatPtr(0.5), floatPtr(20000))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if got := f.assets.Assets(); len(got) != 1 || got[0].ID != asset.ID {
		t.Errorf("expected asset applied to collection, got %+v", got)
	}
	p, ok := f.book.Get("BTC")
	if !ok {
		t.Fatal("expected position entry for BTC")
	}
	if p.Cost != 20000 || p.Amount != 0.5 {
		t.Errorf("unexpected holding: %+v", p)
	}
	if p.HasSchedule() {
		t.Error("no plan exists yet, schedule must be absent")
	}
}

func TestAssetStore_CreateWithoutPositionLeavesBookAlone(t *testing.T) {
	f := newFixture(t)
	f.login(t, "bob")
	typeID := f.cryptoTypeID(t)

	if _, err := f.assets.CreateAsset(context.Background(), typeID, nil, "ETH", "Ethereum",
		nil, nil, nil); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, ok := f.book.Get("ETH"); ok {
		t.Error("asset without holding must not create a position entry")
	}
}

func TestAssetStore_ErrorLeavesStateUntouched(t *testing.T) {
	f := newFixture(t)
	f.login(t, "carol")
	ctx := context.Background()
	typeID := f.cryptoTypeID(t)

	if _, err := f.assets.CreateAsset(ctx, typeID, nil, "BTC", "Bitcoin", nil, nil, nil); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	_, err := f.assets.CreateAsset(ctx, typeID, nil, "BTC", "Duplicate", nil, nil, nil)
	testutil.AssertAppError(t, err, "DUPLICATE_CODE")

	if got := f.assets.Assets(); len(got) != 1 || got[0].Name != "Bitcoin" {
		t.Errorf("failed create must not touch the collection: %+v", got)
	}
	if f.assets.Err() == nil {
		t.Error("expected the failure recorded on the store")
	}
}

// Plan lifecycle against the position projection: create merges schedule
// into the existing holding, deactivate and delete clear only the
// schedule.
func TestPlanStore_ScheduleLifecycle(t *testing.T) {
	f := newFixture(t)
	f.login(t, "dave")
	ctx := context.Background()
	typeID := f.cryptoTypeID(t)

	asset, err := f.assets.CreateAsset(ctx, typeID, nil, "BTC", "Bitcoin",
		floatPtr(100), floatPtr(2), floatPtr(150))
	if err != nil {
		t.Fatalf("create asset failed: %v", err)
	}

	plan, err := f.plans.CreatePlan(ctx, asset.ID, "DCA", models.FrequencyWeekly, intPtr(5), nil, 50)
	if err != nil {
		t.Fatalf("create plan failed: %v", err)
	}

	p, ok := f.book.Get("BTC")
	if !ok || !p.HasSchedule() {
		t.Fatalf("expected merged position with schedule, got %+v (ok=%v)", p, ok)
	}
	if p.Cost != 150 || p.Amount != 2 {
		t.Errorf("holding fields lost on plan create: %+v", p)
	}
	if p.InvestmentType != "weekly" || *p.DayOfWeek != 5 || *p.InvestmentAmount != 50 {
		t.Errorf("unexpected schedule: %+v", p)
	}

	// Deactivate: schedule goes, holding stays.
	if _, err := f.plans.UpdatePlan(ctx, plan.ID, asset.ID, "DCA", models.FrequencyWeekly,
		intPtr(5), nil, 50, false); err != nil {
		t.Fatalf("update plan failed: %v", err)
	}
	p, _ = f.book.Get("BTC")
	if p.HasSchedule() {
		t.Errorf("expected schedule cleared after deactivation: %+v", p)
	}
	if p.Cost != 150 || p.Amount != 2 {
		t.Errorf("holding fields must survive deactivation: %+v", p)
	}

	// Reactivate, then delete: same end state.
	if _, err := f.plans.UpdatePlan(ctx, plan.ID, asset.ID, "DCA", models.FrequencyMonthly,
		nil, intPtr(15), 75, true); err != nil {
		t.Fatalf("reactivate failed: %v", err)
	}
	p, _ = f.book.Get("BTC")
	if p.InvestmentType != "monthly" || *p.DayOfMonth != 15 {
		t.Errorf("expected monthly schedule, got %+v", p)
	}

	if err := f.plans.DeletePlan(ctx, plan.ID); err != nil {
		t.Fatalf("delete plan failed: %v", err)
	}
	p, ok = f.book.Get("BTC")
	if !ok {
		t.Fatal("entry must survive plan deletion")
	}
	if p.HasSchedule() {
		t.Errorf("expected schedule cleared after deletion: %+v", p)
	}
	if p.Cost != 150 || p.Amount != 2 {
		t.Errorf("holding fields must survive plan deletion: %+v", p)
	}
}

func TestAssetStore_DeleteRemovesWholePosition(t *testing.T) {
	f := newFixture(t)
	f.login(t, "erin")
	ctx := context.Background()
	typeID := f.cryptoTypeID(t)

	asset, err := f.assets.CreateAsset(ctx, typeID, nil, "BTC", "Bitcoin",
		floatPtr(100), floatPtr(1), floatPtr(90))
	if err != nil {
		t.Fatalf("create asset failed: %v", err)
	}
	if _, err := f.plans.CreatePlan(ctx, asset.ID, "DCA", models.FrequencyDaily, nil, nil, 10); err != nil {
		t.Fatalf("create plan failed: %v", err)
	}

	if err := f.assets.DeleteAsset(ctx, asset.ID); err != nil {
		t.Fatalf("delete asset failed: %v", err)
	}

	if _, ok := f.book.Get("BTC"); ok {
		t.Error("expected whole position entry removed with the asset")
	}
	if len(f.assets.Assets()) != 0 {
		t.Error("expected asset removed from collection")
	}

	// The backend cascaded the plan; a reload confirms and leaves the
	// local plan collection consistent.
	plans, err := f.plans.LoadPlans(ctx, nil)
	if err != nil {
		t.Fatalf("load plans failed: %v", err)
	}
	if len(plans) != 0 {
		t.Errorf("expected no surviving plans, got %+v", plans)
	}
}

func TestAssetStore_LoadMergeReplace(t *testing.T) {
	f := newFixture(t)
	f.login(t, "frank")
	ctx := context.Background()

	types, err := f.assets.LoadAssetTypes(ctx)
	if err != nil {
		t.Fatalf("load types failed: %v", err)
	}
	var cryptoID, fundID uint
	for _, at := range types {
		switch at.Name {
		case "crypto":
			cryptoID = at.ID
		case "fund":
			fundID = at.ID
		}
	}

	if _, err := f.assets.CreateAsset(ctx, cryptoID, nil, "BTC", "Bitcoin", nil, nil, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := f.assets.CreateAsset(ctx, fundID, nil, "SP500", "Index fund", nil, nil, nil); err != nil {
		t.Fatal(err)
	}

	// A filtered load must replace only the matching region.
	fetched, err := f.assets.LoadAssets(ctx, &cryptoID, nil)
	if err != nil {
		t.Fatalf("filtered load failed: %v", err)
	}
	if len(fetched) != 1 || fetched[0].Code != "BTC" {
		t.Errorf("expected only crypto assets fetched, got %+v", fetched)
	}
	all := f.assets.Assets()
	if len(all) != 2 {
		t.Fatalf("fund asset must survive a crypto-filtered load, got %+v", all)
	}
}

// Listing with an unchanged filter twice must leave the collections with
// the same content; the merge-replace apply cannot duplicate or drop
// entries when nothing changed remotely.
func TestStores_ListIdempotence(t *testing.T) {
	f := newFixture(t)
	user := f.login(t, "judy")
	ctx := context.Background()

	crypto := testutil.GetAssetType(t, f.db, "crypto")
	fund := testutil.GetAssetType(t, f.db, "fund")
	group := testutil.CreateTestGroup(t, f.db, user.ID, crypto.ID, "Majors")
	btc := testutil.CreateTestAsset(t, f.db, user.ID, crypto.ID, "BTC")
	testutil.CreateTestAsset(t, f.db, user.ID, fund.ID, "SP500")
	testutil.CreateTestPlan(t, f.db, user.ID, btc.ID, "DCA")

	assetIDs := func() map[uint]bool {
		ids := make(map[uint]bool)
		for _, a := range f.assets.Assets() {
			ids[a.ID] = true
		}
		return ids
	}
	sameIDs := func(a, b map[uint]bool) bool {
		if len(a) != len(b) {
			return false
		}
		for id := range a {
			if !b[id] {
				return false
			}
		}
		return true
	}

	t.Run("assets_unfiltered", func(t *testing.T) {
		if _, err := f.assets.LoadAssets(ctx, nil, nil); err != nil {
			t.Fatal(err)
		}
		first := assetIDs()
		if len(first) != 2 {
			t.Fatalf("expected both seeded assets, got %v", first)
		}
		if _, err := f.assets.LoadAssets(ctx, nil, nil); err != nil {
			t.Fatal(err)
		}
		if second := assetIDs(); !sameIDs(first, second) {
			t.Errorf("repeated load changed the collection: %v vs %v", first, second)
		}
	})

	t.Run("assets_filtered", func(t *testing.T) {
		if _, err := f.assets.LoadAssets(ctx, &crypto.ID, nil); err != nil {
			t.Fatal(err)
		}
		first := assetIDs()
		if _, err := f.assets.LoadAssets(ctx, &crypto.ID, nil); err != nil {
			t.Fatal(err)
		}
		if second := assetIDs(); !sameIDs(first, second) {
			t.Errorf("repeated filtered load changed the collection: %v vs %v", first, second)
		}
	})

	t.Run("groups", func(t *testing.T) {
		if _, err := f.groups.LoadGroups(ctx, nil); err != nil {
			t.Fatal(err)
		}
		if _, err := f.groups.LoadGroups(ctx, nil); err != nil {
			t.Fatal(err)
		}
		got := f.groups.Groups()
		if len(got) != 1 || got[0].ID != group.ID {
			t.Errorf("repeated group load changed the collection: %+v", got)
		}
	})

	t.Run("plans", func(t *testing.T) {
		if _, err := f.plans.LoadPlans(ctx, nil); err != nil {
			t.Fatal(err)
		}
		if _, err := f.plans.LoadPlans(ctx, nil); err != nil {
			t.Fatal(err)
		}
		got := f.plans.Plans()
		if len(got) != 1 || got[0].AssetID != btc.ID {
			t.Errorf("repeated plan load changed the collection: %+v", got)
		}
	})
}

func TestGroupStore_CRUD(t *testing.T) {
	f := newFixture(t)
	f.login(t, "grace")
	ctx := context.Background()
	typeID := f.cryptoTypeID(t)

	group, err := f.groups.CreateGroup(ctx, typeID, "Majors", nil)
	if err != nil {
		t.Fatalf("create group failed: %v", err)
	}
	if len(f.groups.Groups()) != 1 {
		t.Error("expected group applied")
	}

	updated, err := f.groups.UpdateGroup(ctx, group.ID, "Large caps", nil)
	if err != nil {
		t.Fatalf("update group failed: %v", err)
	}
	if got := f.groups.Groups(); got[0].Name != updated.Name {
		t.Errorf("expected renamed group applied, got %+v", got)
	}

	// Put an asset in the group, delete the group, reload assets: the
	// asset survives detached.
	asset, err := f.assets.CreateAsset(ctx, typeID, &group.ID, "BTC", "Bitcoin", nil, nil, nil)
	if err != nil {
		t.Fatalf("create asset failed: %v", err)
	}
	if err := f.groups.DeleteGroup(ctx, group.ID); err != nil {
		t.Fatalf("delete group failed: %v", err)
	}
	if len(f.groups.Groups()) != 0 {
		t.Error("expected group removed locally")
	}

	reloaded, err := f.assets.LoadAssets(ctx, nil, nil)
	if err != nil {
		t.Fatalf("reload assets failed: %v", err)
	}
	if len(reloaded) != 1 || reloaded[0].ID != asset.ID {
		t.Fatalf("asset must survive group deletion, got %+v", reloaded)
	}
	if reloaded[0].GroupID != nil {
		t.Errorf("expected group reference cleared, got %v", *reloaded[0].GroupID)
	}
}

func TestPlanStore_LoadSyncsSchedules(t *testing.T) {
	f := newFixture(t)
	f.login(t, "heidi")
	ctx := context.Background()
	typeID := f.cryptoTypeID(t)

	asset, err := f.assets.CreateAsset(ctx, typeID, nil, "BTC", "Bitcoin",
		floatPtr(100), floatPtr(1), floatPtr(80))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.plans.CreatePlan(ctx, asset.ID, "DCA", models.FrequencyDaily, nil, nil, 10); err != nil {
		t.Fatal(err)
	}

	// A fresh shell against the same backend converges via list loads.
	fresh := position.NewBook()
	assets := NewAssetStore(f.backend, f.sessions, fresh)
	plans := NewPlanStore(f.backend, f.sessions, fresh)

	if _, err := assets.LoadAssets(ctx, nil, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := plans.LoadPlans(ctx, nil); err != nil {
		t.Fatal(err)
	}

	p, ok := fresh.Get("BTC")
	if !ok {
		t.Fatal("expected position rebuilt from list loads")
	}
	if p.Cost != 80 || p.Amount != 1 || p.InvestmentType != "daily" {
		t.Errorf("unexpected rebuilt position: %+v", p)
	}
}
