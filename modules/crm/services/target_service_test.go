package services_test

import (
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacksonlee411/branch-crm/modules/crm/domain/aggregates/target"
	"github.com/jacksonlee411/branch-crm/pkg/serrors"
)

func TestTargetService_ConcurrentAchievements(t *testing.T) {
	f := newFixture(t)
	tg := f.revenueTarget(t, "rm-a", 1000)
	mgr := f.bank.User("mgr-a")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, v := range []int64{100, 50} {
		wg.Add(1)
		go func(i int, v int64) {
			defer wg.Done()
			_, errs[i] = f.targetSvc.RecordAchievement(f.ctx, mgr, tg.ID, &target.AchievementDTO{Value: decimal.NewFromInt(v)})
		}(i, v)
	}
	wg.Wait()
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	stored, err := f.targets.GetByID(f.ctx, tg.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(150).Equal(stored.AchievedValue), stored.AchievedValue.String())

	achievements, err := f.targetSvc.Achievements(f.ctx, mgr, tg.ID)
	require.NoError(t, err)
	assert.Len(t, achievements, 2)
}

func TestTargetService_RecordAchievementValidation(t *testing.T) {
	f := newFixture(t)
	tg := f.revenueTarget(t, "rm-a", 1000)

	for _, v := range []int64{0, -10} {
		_, err := f.targetSvc.RecordAchievement(f.ctx, f.bank.User("mgr-a"), tg.ID, &target.AchievementDTO{Value: decimal.NewFromInt(v)})
		require.ErrorIs(t, err, serrors.ErrValidation)
	}
	stored, err := f.targets.GetByID(f.ctx, tg.ID)
	require.NoError(t, err)
	assert.True(t, stored.AchievedValue.IsZero())
}

func TestTargetService_RecordAchievementRequiresCapability(t *testing.T) {
	f := newFixture(t)
	tg := f.revenueTarget(t, "rm-a", 1000)

	_, err := f.targetSvc.RecordAchievement(f.ctx, f.bank.User("rm-a"), tg.ID, &target.AchievementDTO{Value: decimal.NewFromInt(10)})
	require.ErrorIs(t, err, serrors.ErrAccessDenied)
	assert.Equal(t, "missing_capability", f.sink.Last().Reason)

	_, err = f.targetSvc.RecordAchievement(f.ctx, f.bank.User("mgr-b"), tg.ID, &target.AchievementDTO{Value: decimal.NewFromInt(10)})
	require.ErrorIs(t, err, serrors.ErrAccessDenied)
	assert.Equal(t, "outside_scope", f.sink.Last().Reason)
}

func TestTargetService_Create(t *testing.T) {
	f := newFixture(t)
	now := time.Now().UTC()
	dto := func(assignee string) *target.CreateDTO {
		return &target.CreateDTO{
			Name:        "Q4 revenue",
			Type:        target.TypeRevenue,
			Period:      target.PeriodQuarterly,
			StartDate:   now,
			EndDate:     now.AddDate(0, 3, 0),
			TargetValue: decimal.NewFromInt(50000),
			AssigneeID:  f.bank.User(assignee).ID,
		}
	}

	_, err := f.targetSvc.Create(f.ctx, f.bank.User("rm-a"), dto("rm-a"))
	require.ErrorIs(t, err, serrors.ErrAccessDenied)
	assert.Equal(t, "missing_capability", f.sink.Last().Reason)
	assert.Equal(t, "crm.targets", f.sink.Last().ResourceType)

	_, err = f.targetSvc.Create(f.ctx, f.bank.User("mgr-a"), dto("rm-b"))
	require.ErrorIs(t, err, serrors.ErrAccessDenied)
	assert.Equal(t, "outside_scope", f.sink.Last().Reason)

	created, err := f.targetSvc.Create(f.ctx, f.bank.User("mgr-a"), dto("rm-a"))
	require.NoError(t, err)
	assert.Equal(t, f.bank.UnitID("RM-A"), created.OwningUnitID)
	assert.True(t, created.AchievedValue.IsZero())

	bad := dto("rm-a")
	bad.TargetValue = decimal.Zero
	_, err = f.targetSvc.Create(f.ctx, f.bank.User("mgr-a"), bad)
	require.ErrorIs(t, err, serrors.ErrValidation)

	bad = dto("rm-a")
	bad.EndDate = now.AddDate(0, 0, -1)
	_, err = f.targetSvc.Create(f.ctx, f.bank.User("mgr-a"), bad)
	require.ErrorIs(t, err, serrors.ErrValidation)
}

func TestTargetService_ListVisibleToAssignee(t *testing.T) {
	f := newFixture(t)
	f.revenueTarget(t, "rm-a", 1000)
	f.revenueTarget(t, "rm-b", 1000)

	items, total, err := f.targetSvc.List(f.ctx, f.bank.User("rm-a"), nil)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, f.bank.User("rm-a").ID, items[0].AssigneeID)

	items, _, err = f.targetSvc.List(f.ctx, f.bank.User("exec"), nil)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}
