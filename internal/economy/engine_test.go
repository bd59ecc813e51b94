package economy

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jtafstn/webidle/internal/catalog"
	"github.com/jtafstn/webidle/internal/player"
	"github.com/jtafstn/webidle/internal/telemetry"
)

func fresh() *player.State {
	s := player.Default(time.Unix(1700000000, 0))
	return &s
}

func defaultEngine() *Engine {
	return New(catalog.Default(), nil)
}

func TestPurchase_ScenarioA(t *testing.T) {
	cat := catalog.MustBuild(catalog.Document{Items: []catalog.Entry{
		{ID: "lamp", Name: "Lamp", Cost: catalog.Fixed(10), Unlock: catalog.Always()},
	}})
	e := New(cat, nil)
	s := fresh()

	res := e.Purchase(s, "lamp")
	assert.False(t, res.Success)
	assert.Equal(t, ReasonInsufficientFunds, res.Reason)
	assert.ErrorIs(t, res.Err(), ErrInsufficientFunds)

	s.Gold = 10
	res = e.Purchase(s, "lamp")
	require.True(t, res.Success)
	assert.NoError(t, res.Err())
	assert.Equal(t, int64(0), s.Gold)
	assert.True(t, s.Upgrades.Has("lamp"))
	assert.Equal(t, int64(10), res.Cost)
}

func TestPurchase_OverflowingScaledCostIsRefused(t *testing.T) {
	cost := catalog.Cost{Kind: catalog.CostScaled, Counter: player.CounterMeat, Base: 10, Step: 10}
	boost := []catalog.Effect{{Kind: catalog.EffAddProduction, Amount: 100}}
	cat := catalog.MustBuild(catalog.Document{
		Items:  []catalog.Entry{{ID: "stall", Name: "Stall", Cost: cost, Unlock: catalog.Always(), Effects: boost}},
		Skills: []catalog.Entry{{ID: "haggle", Name: "Haggle", Cost: cost, Unlock: catalog.Always(), Effects: boost}},
	})
	e := New(cat, nil)
	s := fresh()
	s.SetCounter(player.CounterMeat, 1e18)
	before := s.Clone()

	res := e.Purchase(s, "stall")
	assert.False(t, res.Success)
	assert.Equal(t, ReasonInsufficientFunds, res.Reason)
	assert.Positive(t, res.Cost)

	res = e.Learn(s, "haggle")
	assert.False(t, res.Success)
	assert.Equal(t, ReasonInsufficientFunds, res.Reason)

	assert.Equal(t, before, *s)
}

func TestPurchase_FailuresLeaveStateUnchanged(t *testing.T) {
	e := defaultEngine()
	cases := []struct {
		name   string
		id     string
		setup  func(*player.State)
		reason Reason
		err    error
	}{
		{"unknown", "castle", func(s *player.State) { s.Gold = 1e6 }, ReasonUnknownItem, ErrUnknownItem},
		{"already owned", "farm1", func(s *player.State) { s.Gold = 1e6; s.Upgrades.Add("farm1") }, ReasonAlreadyOwned, ErrAlreadyOwned},
		{"chain gated", "farm3", func(s *player.State) { s.Gold = 1e6; s.Upgrades.Add("farm1") }, ReasonLocked, ErrLocked},
		{"mine gated", "core1", func(s *player.State) { s.Gold = 1999; s.MaxGold = 1999 }, ReasonLocked, ErrLocked},
		{"unaffordable", "farm2", func(s *player.State) { s.Gold = 14; s.Upgrades.Add("farm1") }, ReasonInsufficientFunds, ErrInsufficientFunds},
		{"skill id is not an item", "farm_a", func(s *player.State) { s.Gold = 1e6 }, ReasonUnknownItem, ErrUnknownItem},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := fresh()
			tc.setup(s)
			e.SyncUnlocked(s)
			before := s.Clone()

			res := e.Purchase(s, tc.id)
			assert.False(t, res.Success)
			assert.Equal(t, tc.reason, res.Reason)
			assert.ErrorIs(t, res.Err(), tc.err)
			assert.Equal(t, before, *s)
		})
	}
}

func TestPurchase_ChainGatingIgnoresWealth(t *testing.T) {
	e := defaultEngine()
	s := fresh()
	s.Gold = 1_000_000

	assert.Equal(t, ReasonLocked, e.Purchase(s, "farm3").Reason)
	require.True(t, e.Purchase(s, "farm1").Success)
	assert.Equal(t, ReasonLocked, e.Purchase(s, "farm3").Reason)
	require.True(t, e.Purchase(s, "farm2").Success)
	require.True(t, e.Purchase(s, "farm3").Success)
	assert.Equal(t, []string{"farm1", "farm2", "farm3"}, s.Upgrades.IDs())
	assert.Equal(t, 3.0, s.GPS)
	assert.Equal(t, int64(1_000_000-10-15-19), s.Gold)
}

func TestPurchase_StartAndFirstFarm(t *testing.T) {
	e := defaultEngine()
	s := fresh()

	require.True(t, e.Purchase(s, "start").Success)
	assert.Equal(t, int64(10), s.Gold)
	assert.Equal(t, int64(10), s.MaxGold)
	assert.Equal(t, ReasonAlreadyOwned, e.Purchase(s, "start").Reason)

	require.True(t, e.Purchase(s, "farm1").Success)
	assert.Equal(t, int64(0), s.Gold)
	assert.Equal(t, int64(10), s.MaxGold)
	assert.Equal(t, 1.0, s.GPS)
}

func TestPurchase_MineRecordsLevel(t *testing.T) {
	e := defaultEngine()
	s := fresh()
	s.Gold = 10_000
	s.RefreshMaxGold()

	require.True(t, e.Purchase(s, "core1").Success)
	require.True(t, e.Purchase(s, "core2").Success)
	assert.Equal(t, int64(2), s.Counter(player.CounterCoreLevel))
	assert.Equal(t, 10.0, s.GPS)
	assert.Equal(t, int64(10_000-2000-3162), s.Gold)
	assert.Equal(t, int64(10_000), s.MaxGold)
}

func TestPurchase_RepeatableNeverOwned(t *testing.T) {
	e := defaultEngine()
	s := fresh()
	s.Gold = 100
	e.SyncUnlocked(s)

	require.True(t, e.Purchase(s, "buy_meat_10").Success)
	require.True(t, e.Purchase(s, "buy_meat_10").Success)
	assert.Equal(t, int64(20), s.Counter(player.CounterMeat))
	assert.Equal(t, int64(40), s.Gold)
	assert.False(t, s.Upgrades.Has("buy_meat_10"))

	ids := idsOf(e.Purchasable(s))
	assert.Contains(t, ids, "buy_meat_10")
}

func TestPurchase_HireStaffMarginalPrice(t *testing.T) {
	e := defaultEngine()
	s := fresh()
	s.Gold = 5000

	r1 := e.Purchase(s, "hire_staff")
	r2 := e.Purchase(s, "hire_staff")
	require.True(t, r1.Success)
	require.True(t, r2.Success)
	assert.Equal(t, int64(500), r1.Cost)
	assert.Equal(t, int64(750), r2.Cost)
	assert.Equal(t, int64(2), s.Counter(player.CounterStaff))

	r3 := e.Purchase(s, "hire_staff")
	assert.Equal(t, ReasonLocked, r3.Reason, "staff cap is 2 without reputation")
	assert.Equal(t, int64(3750), s.Gold)
}

func TestSyncUnlocked_StickyAndIdempotent(t *testing.T) {
	e := defaultEngine()
	s := fresh()

	added := e.SyncUnlocked(s)
	assert.Equal(t, []string{"start", "farm1", "buy_meat_10", "buy_veg_10", "buy_grain_10", "hire_staff", "shop_expansion_1"}, added)
	assert.Nil(t, e.SyncUnlocked(s))
	assert.Equal(t, added, s.UnlockedItems.IDs())

	s.Gold = 2000
	require.True(t, e.Purchase(s, "shop_expansion_1").Success)
	assert.Empty(t, e.SyncUnlocked(s))
	assert.True(t, s.UnlockedItems.Has("shop_expansion_1"), "unlock survives the predicate turning false")
	assert.NotContains(t, idsOf(e.Purchasable(s)), "shop_expansion_1", "owned items leave the purchasable set")

	s.SetCounter(player.CounterStaff, 2)
	assert.Contains(t, idsOf(e.Purchasable(s)), "hire_staff", "repeatable item stays listed past its cap")
}

func TestSyncUnlocked_RevealsNextLevelAfterPurchase(t *testing.T) {
	e := defaultEngine()
	s := fresh()
	s.Gold = 10
	e.SyncUnlocked(s)
	require.True(t, e.Purchase(s, "farm1").Success)

	assert.Equal(t, []string{"farm2"}, e.SyncUnlocked(s))
	assert.True(t, s.UnlockedItems.Has("farm1"), "owned items are never removed from unlocked")
	assert.Equal(t, "farm2", e.Purchasable(s)[1].ID)
}

func TestSyncUnlocked_MineAppearsAtThreshold(t *testing.T) {
	e := defaultEngine()
	s := fresh()
	s.AddGold(2000)
	s.Spend(2000)

	assert.Contains(t, e.SyncUnlocked(s), "core1")
	assert.Equal(t, int64(0), s.Gold)
}

func orderingEngine(t *testing.T) *Engine {
	t.Helper()
	cat, err := catalog.Build(catalog.Document{
		Items: []catalog.Entry{{
			ID: "mill", Name: "Mill", Cost: catalog.Fixed(0), Unlock: catalog.Always(),
			Effects: []catalog.Effect{{Kind: catalog.EffProductionPerOwned, Source: catalog.SourceUpgrades, Prefix: "mill", Ratio: 1}},
		}},
		Skills: []catalog.Entry{{
			ID: "study", Name: "Study", Cost: catalog.Fixed(0), Unlock: catalog.Always(),
			Effects: []catalog.Effect{{Kind: catalog.EffProductionPerOwned, Source: catalog.SourceSkills, Prefix: "study", Ratio: 1}},
		}},
	})
	require.NoError(t, err)
	return New(cat, nil)
}

func TestPurchase_EffectRunsBeforeOwnershipIsMarked(t *testing.T) {
	e := orderingEngine(t)
	s := fresh()

	require.True(t, e.Purchase(s, "mill").Success)
	assert.Equal(t, 0.0, s.GPS, "effect saw the item as not yet owned")
	assert.True(t, s.Upgrades.Has("mill"))
}

func TestLearn_SkillIsMarkedBeforeEffectRuns(t *testing.T) {
	e := orderingEngine(t)
	s := fresh()

	require.True(t, e.Learn(s, "study").Success)
	assert.Equal(t, 1.0, s.GPS, "effect saw the skill as already learned")
	assert.True(t, s.LearnedSkills.Has("study"))
}

func TestLearn_Protocol(t *testing.T) {
	e := defaultEngine()
	s := fresh()

	assert.Equal(t, ReasonUnknownItem, e.Learn(s, "farm1").Reason)
	assert.Equal(t, ReasonLocked, e.Learn(s, "farm_a").Reason)

	for i := 1; i <= 6; i++ {
		s.Upgrades.Add("farm" + strconv.Itoa(i))
	}
	s.GPS = 6
	before := s.Clone()
	res := e.Learn(s, "farm_a")
	assert.Equal(t, ReasonInsufficientFunds, res.Reason)
	assert.Equal(t, int64(100), res.Cost)
	assert.Equal(t, before, *s)

	s.Gold = 350
	require.True(t, e.Learn(s, "farm_a").Success)
	assert.Equal(t, 7.0, s.GPS)
	assert.Equal(t, int64(250), s.Gold)
	assert.Equal(t, ReasonAlreadyOwned, e.Learn(s, "farm_a").Reason)

	require.True(t, e.Learn(s, "ledger").Success)
	assert.Equal(t, 9.0, s.GPS, "ledger counts farm_a and itself")
	assert.Equal(t, int64(0), s.Gold)
	assert.Equal(t, []string{"farm_a", "ledger"}, s.LearnedSkills.IDs())
	assert.Empty(t, e.Learnable(s))
	assert.Len(t, e.Learned(s), 2)
}

func TestEngine_NeverGoesNegative(t *testing.T) {
	e := defaultEngine()
	s := fresh()
	s.Gold = 3000
	s.RefreshMaxGold()

	for round := 0; round < 5; round++ {
		e.SyncUnlocked(s)
		for _, d := range e.Catalog().Items() {
			e.Purchase(s, d.ID)
			require.GreaterOrEqual(t, s.Gold, int64(0))
			require.GreaterOrEqual(t, s.MaxGold, s.Gold)
		}
		for _, d := range e.Catalog().Skills() {
			e.Learn(s, d.ID)
			require.GreaterOrEqual(t, s.Gold, int64(0))
		}
	}
}

func TestTickAndAct(t *testing.T) {
	e := defaultEngine()
	s := fresh()
	s.GPS = 1.5

	assert.Equal(t, int64(1), e.Tick(s))
	assert.Equal(t, int64(2), e.Tick(s))
	assert.Equal(t, int64(3), s.Gold)
	assert.Equal(t, int64(3), s.MaxGold)

	s.GPS = 2
	assert.Equal(t, int64(20), e.TickN(s, 10))
	assert.Equal(t, int64(0), e.TickN(s, -1))

	assert.Equal(t, int64(0), e.Act(s))
	s.GPC = 4
	assert.Equal(t, int64(4), e.Act(s))
	assert.Equal(t, int64(27), s.Gold)
}

func TestOwnedCollapsed(t *testing.T) {
	e := defaultEngine()
	s := fresh()
	for _, id := range []string{"core1", "farm1", "farm2", "start", "farm3", "shop_expansion_1"} {
		s.Upgrades.Add(id)
	}

	assert.Equal(t, []string{"start", "farm1", "farm2", "farm3", "core1", "shop_expansion_1"}, idsOf(e.Owned(s)))
	assert.Equal(t, []string{"start", "farm3", "core1", "shop_expansion_1"}, idsOf(e.OwnedCollapsed(s)))
	assert.Equal(t, []string{"shop_expansion_1"}, idsOf(InArea(e.Owned(s), catalog.AreaTavern)))
}

func TestQuoteAndDescriptor(t *testing.T) {
	e := defaultEngine()
	s := fresh()
	s.Upgrades.Add("farm1")
	s.Gold = 20
	p := e.Catalog().Printer("en")

	d, ok := e.Descriptor("farm2")
	require.True(t, ok)
	q := e.Quote(s, d, p)
	assert.Equal(t, int64(15), q.Cost)
	assert.True(t, q.Affordable)
	assert.True(t, q.Unlocked)
	assert.False(t, q.Owned)
	assert.Equal(t, "Farm Lv.2", q.Name)
	assert.Equal(t, "Produces 2 gold per second", q.Info)

	sk, ok := e.Descriptor("farm_a")
	require.True(t, ok)
	assert.Equal(t, catalog.KindSkill, sk.Kind)
	q = e.Quote(s, sk, p)
	assert.False(t, q.Unlocked)
	assert.False(t, q.Affordable)

	_, ok = e.Descriptor("nope")
	assert.False(t, ok)
}

func TestEngine_RecordsTelemetry(t *testing.T) {
	repo := telemetry.NewMemoryRepository()
	e := New(catalog.Default(), repo)
	s := fresh()

	e.SyncUnlocked(s)
	e.Purchase(s, "start")
	e.Purchase(s, "farm3")

	events, err := repo.GetEvents(time.Time{}, nil)
	require.NoError(t, err)
	stats, err := telemetry.CalculateStats(events, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Purchases)
	assert.Equal(t, 7, stats.ItemsUnlocked)
	assert.Equal(t, 1, stats.FailuresByReason[string(ReasonLocked)])
}

func idsOf(ds []*catalog.Descriptor) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.ID
	}
	return out
}
