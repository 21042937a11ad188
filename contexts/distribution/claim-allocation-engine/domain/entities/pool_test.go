package entities

import (
	"errors"
	"testing"
	"time"

	domainerrors "codedrop/contexts/distribution/claim-allocation-engine/domain/errors"
)

var poolNow = time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

func TestNewPoolDefaultsStartTimeAndCountsCodes(t *testing.T) {
	pool, err := NewPool("pool_1", "owner_1", 2, SingleUseCodes{Codes: []string{"A", "B"}}, GateConfig{MinRiskThreshold: 30}, poolNow)
	if err != nil {
		t.Fatalf("new pool failed: %v", err)
	}
	if !pool.Gate.StartTime.Equal(poolNow) {
		t.Fatalf("expected start time to default to now, got %s", pool.Gate.StartTime)
	}
	if pool.Mode != ModeSingle || pool.CodeCount != 2 || !pool.InventoryConsistent() {
		t.Fatalf("unexpected single pool: %+v", pool)
	}
}

func TestNewPoolRejectsInvalidInput(t *testing.T) {
	end := poolNow
	cases := []struct {
		name  string
		quota int
		mode  ModeConfig
		gate  GateConfig
		want  error
	}{
		{"nil mode", 1, nil, GateConfig{MinRiskThreshold: 30}, domainerrors.ErrInvalidPoolInput},
		{"zero quota", 0, SharedCodeConfig{Code: "X"}, GateConfig{MinRiskThreshold: 30}, domainerrors.ErrInvalidPoolInput},
		{"code mismatch", 3, SingleUseCodes{Codes: []string{"A"}}, GateConfig{MinRiskThreshold: 30}, domainerrors.ErrCodeInventoryMismatch},
		{"blank code", 1, SingleUseCodes{Codes: []string{"  "}}, GateConfig{MinRiskThreshold: 30}, domainerrors.ErrInvalidPoolInput},
		{"duplicate code", 2, SingleUseCodes{Codes: []string{"A", "A"}}, GateConfig{MinRiskThreshold: 30}, domainerrors.ErrDuplicateCode},
		{"blank shared code", 1, SharedCodeConfig{Code: " "}, GateConfig{MinRiskThreshold: 30}, domainerrors.ErrInvalidPoolInput},
		{"missing question", 1, ManualReview{}, GateConfig{MinRiskThreshold: 30}, domainerrors.ErrInvalidPoolInput},
		{"end equals start", 1, SharedCodeConfig{Code: "X"}, GateConfig{StartTime: poolNow, EndTime: &end, MinRiskThreshold: 30}, domainerrors.ErrInvalidPoolInput},
		{"risk below floor", 1, SharedCodeConfig{Code: "X"}, GateConfig{MinRiskThreshold: 29}, domainerrors.ErrInvalidPoolInput},
		{"risk above ceiling", 1, SharedCodeConfig{Code: "X"}, GateConfig{MinRiskThreshold: 91}, domainerrors.ErrInvalidPoolInput},
		{"negative trust", 1, SharedCodeConfig{Code: "X"}, GateConfig{MinTrustLevel: -1, MinRiskThreshold: 30}, domainerrors.ErrInvalidPoolInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewPool("pool_1", "owner_1", tc.quota, tc.mode, tc.gate, poolNow)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestPoolWindowIsHalfOpen(t *testing.T) {
	end := poolNow.Add(time.Hour)
	pool, err := NewPool("pool_1", "owner_1", 1, SharedCodeConfig{Code: "X"}, GateConfig{
		StartTime:        poolNow,
		EndTime:          &end,
		MinRiskThreshold: 30,
	}, poolNow)
	if err != nil {
		t.Fatalf("new pool failed: %v", err)
	}

	if pool.InWindow(poolNow.Add(-time.Second)) {
		t.Fatal("expected closed before start")
	}
	if !pool.InWindow(poolNow) {
		t.Fatal("expected open at start")
	}
	if pool.InWindow(end) {
		t.Fatal("expected closed at end")
	}
	if pool.IsExpired(end) || !pool.IsExpired(end.Add(time.Nanosecond)) {
		t.Fatal("expected expiry strictly after end")
	}
}

func TestPoolRemainingNeverNegative(t *testing.T) {
	pool := Pool{TotalQuota: 2, ClaimedCount: 3}
	if pool.Remaining() != 0 || !pool.IsExhausted() {
		t.Fatalf("unexpected remaining %d", pool.Remaining())
	}
}

func TestNormalizePage(t *testing.T) {
	cases := []struct {
		page, size         int
		wantPage, wantSize int
	}{
		{0, 0, 1, DefaultPageSize},
		{-3, -1, 1, 1},
		{2, 500, 2, MaxPageSize},
		{4, 10, 4, 10},
	}
	for _, tc := range cases {
		page, size := NormalizePage(tc.page, tc.size)
		if page != tc.wantPage || size != tc.wantSize {
			t.Fatalf("NormalizePage(%d, %d) = %d, %d", tc.page, tc.size, page, size)
		}
	}
}
