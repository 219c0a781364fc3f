package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"retail-audit/internal/models"
)

var dbCounter atomic.Int64

func newTestDB(t *testing.T) {
	t.Helper()

	db, err := OpenMemory(fmt.Sprintf("dbtest%d", dbCounter.Add(1)))
	if err != nil {
		t.Fatalf("OpenMemory error: %v", err)
	}
	prev := DB
	DB = db
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
		DB = prev
	})
}

func seedStore(t *testing.T, code, city string) {
	t.Helper()
	store := models.Store{Code: code, Name: "Tienda " + code, City: city}
	if err := CreateStore(&store); err != nil {
		t.Fatalf("CreateStore error: %v", err)
	}
}

func intPtr(v int) *int { return &v }

func TestCreateStore_NormalizesAndRejectsDuplicates(t *testing.T) {
	newTestDB(t)

	store := models.Store{Code: " t001 ", Name: "Centro", City: "CDMX"}
	if err := CreateStore(&store); err != nil {
		t.Fatalf("CreateStore error: %v", err)
	}
	if store.Code != "T001" {
		t.Errorf("expected normalized code T001, got %q", store.Code)
	}
	if store.Status != models.StoreOpen {
		t.Errorf("expected default status open, got %q", store.Status)
	}

	dup := models.Store{Code: "T001", Name: "Otra"}
	if err := CreateStore(&dup); !errors.Is(err, ErrDuplicateStore) {
		t.Fatalf("expected ErrDuplicateStore, got %v", err)
	}
}

func TestCreateStore_RejectsCodesUnusableForPhotos(t *testing.T) {
	newTestDB(t)

	for _, code := range []string{"T.01", "t 01", "T/01", ""} {
		store := models.Store{Code: code, Name: "Centro"}
		if err := CreateStore(&store); !errors.Is(err, ErrInvalidStoreCode) {
			t.Errorf("code %q: expected ErrInvalidStoreCode, got %v", code, err)
		}
	}

	stores, err := ListStores(StoreFilter{})
	if err != nil {
		t.Fatalf("ListStores error: %v", err)
	}
	if len(stores) != 0 {
		t.Errorf("expected nothing to be stored, got %d stores", len(stores))
	}
}

func TestCreateStore_ReportsLookupFailure(t *testing.T) {
	newTestDB(t)
	sqlDB, err := DB.DB()
	if err != nil {
		t.Fatalf("DB() error: %v", err)
	}
	_ = sqlDB.Close()

	store := models.Store{Code: "T001", Name: "Centro"}
	err = CreateStore(&store)
	if err == nil || !strings.Contains(err.Error(), "check store code") {
		t.Fatalf("expected lookup error, got %v", err)
	}
}

func TestListStores_Filters(t *testing.T) {
	newTestDB(t)
	seedStore(t, "T002", "Monterrey")
	seedStore(t, "T001", "CDMX")
	seedStore(t, "T003", "CDMX")

	closed, _ := FindStore("T003")
	closed.Status = models.StoreClosed
	if err := SaveStore(closed); err != nil {
		t.Fatalf("SaveStore error: %v", err)
	}

	all, err := ListStores(StoreFilter{})
	if err != nil {
		t.Fatalf("ListStores error: %v", err)
	}
	if len(all) != 3 || all[0].Code != "T001" || all[2].Code != "T003" {
		t.Fatalf("expected stores sorted by code, got %+v", all)
	}

	cdmxOpen, err := ListStores(StoreFilter{City: "CDMX", Status: models.StoreOpen})
	if err != nil {
		t.Fatalf("ListStores error: %v", err)
	}
	if len(cdmxOpen) != 1 || cdmxOpen[0].Code != "T001" {
		t.Fatalf("expected only T001, got %+v", cdmxOpen)
	}

	cities, err := Cities()
	if err != nil {
		t.Fatalf("Cities error: %v", err)
	}
	if len(cities) != 2 || cities[0] != "CDMX" || cities[1] != "Monterrey" {
		t.Fatalf("unexpected cities: %v", cities)
	}
}

func TestFindStore_NotFound(t *testing.T) {
	newTestDB(t)
	if _, err := FindStore("NOPE"); !errors.Is(err, ErrStoreNotFound) {
		t.Fatalf("expected ErrStoreNotFound, got %v", err)
	}
}

func TestUpsertCapture_CreatesThenUpdatesSameRow(t *testing.T) {
	newTestDB(t)
	seedStore(t, "T001", "CDMX")
	ctx := context.Background()

	first, err := UpsertCapture(ctx, CaptureInput{
		Date:      "2026-10-15",
		StoreCode: "T001",
		Notes:     "primera visita",
		Items: []ItemInput{
			{Category: "vitrina", Compliant: true},
			{Category: "maniquies", Compliant: false, Notes: "sin ropa"},
		},
	})
	if err != nil {
		t.Fatalf("UpsertCapture #1 error: %v", err)
	}
	if len(first.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(first.Items))
	}

	second, err := UpsertCapture(ctx, CaptureInput{
		Date:      "2026-10-15",
		StoreCode: "T001",
		Notes:     "segunda visita",
		Items: []ItemInput{
			{Category: "maniquies", Compliant: true},
		},
	})
	if err != nil {
		t.Fatalf("UpsertCapture #2 error: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected same capture id %d, got %d", first.ID, second.ID)
	}
	if second.Notes != "segunda visita" {
		t.Errorf("expected notes to be overwritten, got %q", second.Notes)
	}

	var count int64
	DB.Model(&models.Capture{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected exactly one capture row, got %d", count)
	}

	item, ok := second.Item("maniquies")
	if !ok || !item.Compliant || item.Notes != "" {
		t.Errorf("expected maniquies updated to compliant with empty notes, got %+v", item)
	}
	if item, ok := second.Item("vitrina"); !ok || !item.Compliant {
		t.Errorf("expected vitrina item to be kept, got %+v", item)
	}
}

func TestUpsertCapture_RatingRules(t *testing.T) {
	newTestDB(t)
	seedStore(t, "T001", "CDMX")
	ctx := context.Background()

	_, err := UpsertCapture(ctx, CaptureInput{
		Date: "2026-10-15", StoreCode: "T001", AllowRating: true,
		Items: []ItemInput{{Category: "vitrina", Rating: intPtr(6)}},
	})
	if !errors.Is(err, ErrInvalidRating) {
		t.Fatalf("expected ErrInvalidRating, got %v", err)
	}

	_, err = UpsertCapture(ctx, CaptureInput{
		Date: "2026-10-15", StoreCode: "T001", AllowRating: true,
		Items: []ItemInput{{Category: "vitrina", Compliant: true, Rating: intPtr(4)}},
	})
	if err != nil {
		t.Fatalf("admin upsert error: %v", err)
	}

	// менеджер не может поменять оценку
	got, err := UpsertCapture(ctx, CaptureInput{
		Date: "2026-10-15", StoreCode: "T001",
		Items: []ItemInput{{Category: "vitrina", Compliant: false, Rating: intPtr(1)}},
	})
	if err != nil {
		t.Fatalf("manager upsert error: %v", err)
	}
	item, _ := got.Item("vitrina")
	if item.Rating == nil || *item.Rating != 4 {
		t.Fatalf("expected rating 4 to be preserved, got %v", item.Rating)
	}
	if item.Compliant {
		t.Errorf("expected compliant to be updated to false")
	}
}

func TestUpsertCapture_Validation(t *testing.T) {
	newTestDB(t)
	ctx := context.Background()

	if _, err := UpsertCapture(ctx, CaptureInput{Date: "15/10/2026", StoreCode: "T001"}); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
	if _, err := UpsertCapture(ctx, CaptureInput{Date: "2026-10-15", StoreCode: "T404"}); !errors.Is(err, ErrStoreNotFound) {
		t.Fatalf("expected ErrStoreNotFound, got %v", err)
	}
}

func TestCaptureQueries(t *testing.T) {
	newTestDB(t)
	seedStore(t, "T001", "CDMX")
	seedStore(t, "T002", "CDMX")
	ctx := context.Background()

	for _, in := range []CaptureInput{
		{Date: "2026-10-14", StoreCode: "T001"},
		{Date: "2026-10-15", StoreCode: "T002"},
		{Date: "2026-10-15", StoreCode: "T001"},
		{Date: "2026-10-16", StoreCode: "T001"},
	} {
		if _, err := UpsertCapture(ctx, in); err != nil {
			t.Fatalf("UpsertCapture error: %v", err)
		}
	}

	missing, err := FindCapture("2026-10-13", "T001")
	if err != nil || missing != nil {
		t.Fatalf("expected nil capture without error, got %v, %v", missing, err)
	}

	byStore, err := CapturesOn("2026-10-15")
	if err != nil {
		t.Fatalf("CapturesOn error: %v", err)
	}
	if len(byStore) != 2 {
		t.Fatalf("expected 2 captures on day, got %d", len(byStore))
	}

	between, err := CapturesBetween("2026-10-15", "2026-10-16")
	if err != nil {
		t.Fatalf("CapturesBetween error: %v", err)
	}
	want := []string{"2026-10-15/T001", "2026-10-15/T002", "2026-10-16/T001"}
	if len(between) != len(want) {
		t.Fatalf("expected %d captures, got %d", len(want), len(between))
	}
	for i, c := range between {
		if got := c.Date + "/" + c.StoreCode; got != want[i] {
			t.Errorf("capture[%d] = %s, want %s", i, got, want[i])
		}
	}
}

func TestEnsureAdminAndAuthenticate(t *testing.T) {
	newTestDB(t)

	if err := EnsureAdmin("admin@test", "secret123"); err != nil {
		t.Fatalf("EnsureAdmin error: %v", err)
	}
	// повторный вызов не создаёт второго админа
	if err := EnsureAdmin("other@test", "secret123"); err != nil {
		t.Fatalf("EnsureAdmin #2 error: %v", err)
	}
	var count int64
	DB.Model(&models.User{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected 1 user, got %d", count)
	}

	if _, ok := Authenticate("admin@test", "secret123"); !ok {
		t.Fatalf("expected authentication to succeed")
	}
	if _, ok := Authenticate("admin@test", "wrong"); ok {
		t.Fatalf("expected wrong password to fail")
	}
}
