package store

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/anirpro14/tidykitty/internal/ledger"
	"github.com/anirpro14/tidykitty/internal/model"
)

func createTestReward(t *testing.T, s *testStores, familyID string, cost int, available bool) *model.Reward {
	t.Helper()
	r, err := s.rewards.Create(model.Reward{
		FamilyID: familyID, Title: "Ice Cream Trip", Description: "Go get ice cream!",
		Cost: cost, Category: "Treats", Available: available,
	})
	if err != nil {
		t.Fatalf("create reward: %v", err)
	}
	return r
}

func TestRewardCRUD(t *testing.T) {
	s := setupTestDB(t)
	fam, _, _ := seedFamily(t, s)

	// Create
	reward := createTestReward(t, s, fam.ID, 50, true)
	if reward.Title != "Ice Cream Trip" {
		t.Errorf("title = %q, want %q", reward.Title, "Ice Cream Trip")
	}
	if reward.Cost != 50 {
		t.Errorf("cost = %d, want 50", reward.Cost)
	}
	if !reward.Available {
		t.Error("expected available")
	}

	// Update
	reward.Title = "Movie Night"
	reward.Cost = 100
	reward.Available = false
	updated, err := s.rewards.Update(*reward)
	if err != nil {
		t.Fatalf("update reward: %v", err)
	}
	if updated.Title != "Movie Night" || updated.Cost != 100 || updated.Available {
		t.Errorf("updated = %+v", updated)
	}

	// Delete
	if err := s.rewards.Delete(reward.ID); err != nil {
		t.Fatalf("delete reward: %v", err)
	}
	got, err := s.rewards.GetByID(reward.ID)
	if err != nil {
		t.Fatalf("get deleted: %v", err)
	}
	if got != nil {
		t.Error("expected nil after delete")
	}
}

func TestRewardCreateRejectsZeroCost(t *testing.T) {
	s := setupTestDB(t)
	fam, _, _ := seedFamily(t, s)

	if _, err := s.rewards.Create(model.Reward{FamilyID: fam.ID, Title: "Free", Cost: 0}); err == nil {
		t.Fatal("expected error for zero cost")
	}
}

func TestRewardListAvailableOnly(t *testing.T) {
	s := setupTestDB(t)
	fam, _, _ := seedFamily(t, s)

	createTestReward(t, s, fam.ID, 50, true)
	createTestReward(t, s, fam.ID, 20, false)

	all, err := s.rewards.ListByFamily(fam.ID, false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("all = %d, want 2", len(all))
	}
	if !all[0].Available {
		t.Error("expected available rewards first")
	}

	avail, _ := s.rewards.ListByFamily(fam.ID, true)
	if len(avail) != 1 {
		t.Errorf("available = %d, want 1", len(avail))
	}
}

func TestRewardRedeem(t *testing.T) {
	s := setupTestDB(t)
	fam, _, child := seedFamily(t, s)
	reward := createTestReward(t, s, fam.ID, 50, true)
	setWallet(t, s, child.ID, 75)

	at := time.Date(2026, 2, 5, 15, 0, 0, 0, time.UTC)
	red, err := s.rewards.Redeem(child.ID, reward.ID, at)
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if red.PointsSpent != 50 {
		t.Errorf("points_spent = %d, want 50", red.PointsSpent)
	}
	if !red.RedeemedAt.Equal(at) {
		t.Errorf("redeemed_at = %v, want %v", red.RedeemedAt, at)
	}

	u, _ := s.users.GetByID(child.ID)
	if u.WalletBalance != 25 {
		t.Errorf("wallet = %d, want 25", u.WalletBalance)
	}

	history, err := s.rewards.ListRedemptionsByUser(child.ID)
	if err != nil {
		t.Fatalf("list redemptions: %v", err)
	}
	if len(history) != 1 || history[0].RewardID != reward.ID {
		t.Errorf("history = %+v", history)
	}
}

func TestRewardRedeemRejections(t *testing.T) {
	s := setupTestDB(t)
	fam, _, child := seedFamily(t, s)
	setWallet(t, s, child.ID, 20)

	pricey := createTestReward(t, s, fam.ID, 50, true)
	if _, err := s.rewards.Redeem(child.ID, pricey.ID, time.Now()); !errors.Is(err, ledger.ErrInsufficientPoints) {
		t.Errorf("err = %v, want ErrInsufficientPoints", err)
	}

	off := createTestReward(t, s, fam.ID, 5, false)
	if _, err := s.rewards.Redeem(child.ID, off.ID, time.Now()); !errors.Is(err, ledger.ErrRewardUnavailable) {
		t.Errorf("err = %v, want ErrRewardUnavailable", err)
	}

	if _, err := s.rewards.Redeem(child.ID, "missing", time.Now()); !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}

	u, _ := s.users.GetByID(child.ID)
	if u.WalletBalance != 20 {
		t.Errorf("wallet = %d, want 20", u.WalletBalance)
	}
	history, _ := s.rewards.ListRedemptionsByUser(child.ID)
	if len(history) != 0 {
		t.Errorf("history = %d, want 0", len(history))
	}
}

func TestRewardRedeemConcurrentNeverOverdraws(t *testing.T) {
	s := setupTestDB(t)
	fam, _, child := seedFamily(t, s)
	reward := createTestReward(t, s, fam.ID, 50, true)
	setWallet(t, s, child.ID, 75)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.rewards.Redeem(child.ID, reward.ID, time.Now())
		}(i)
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ledger.ErrInsufficientPoints):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 {
		t.Errorf("successful redemptions = %d, want 1", ok)
	}
	u, _ := s.users.GetByID(child.ID)
	if u.WalletBalance != 25 {
		t.Errorf("wallet = %d, want 25", u.WalletBalance)
	}
}

func TestRewardRedeemConcurrentOnFileDB(t *testing.T) {
	s := setupFileDB(t)
	fam, _, child := seedFamily(t, s)
	reward := createTestReward(t, s, fam.ID, 1, true)
	setWallet(t, s, child.ID, 1000)

	const n = 20
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.rewards.Redeem(child.ID, reward.ID, time.Now())
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("redeem %d: %v", i, err)
		}
	}
	u, _ := s.users.GetByID(child.ID)
	if u.WalletBalance != 1000-n {
		t.Errorf("wallet = %d, want %d", u.WalletBalance, 1000-n)
	}
	history, err := s.rewards.ListRedemptionsByUser(child.ID)
	if err != nil {
		t.Fatalf("list redemptions: %v", err)
	}
	if len(history) != n {
		t.Errorf("redemptions = %d, want %d", len(history), n)
	}
}
