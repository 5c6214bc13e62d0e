package regionalsync

import (
	"testing"

	"github.com/seplag/artistalbum_backend/models"
	"github.com/seplag/artistalbum_backend/utils"
)

func activeRow(id uint, name string, code *int) models.Regional {
	return models.Regional{
		ID:           id,
		Name:         name,
		Active:       utils.NewTrue(),
		ExternalCode: code,
	}
}

func record(name string, code *int) ExternalRecord {
	return ExternalRecord{Name: name, ExternalCode: code}
}

func TestReconcileEmptyMirrorCreatesEverything(t *testing.T) {
	snap := buildSnapshot(nil)
	mutations := reconcile([]ExternalRecord{
		record("Centro", utils.IntPtr(10)),
		record("Norte", nil),
	}, snap)

	if len(mutations) != 2 {
		t.Fatalf("expected 2 mutations, got %d: %+v", len(mutations), mutations)
	}
	if mutations[0].Kind != MutationCreate || mutations[0].Name != "Centro" ||
		mutations[0].ExternalCode == nil || *mutations[0].ExternalCode != 10 {
		t.Errorf("unexpected first mutation: %+v", mutations[0])
	}
	if mutations[1].Kind != MutationCreate || mutations[1].Name != "Norte" || mutations[1].ExternalCode != nil {
		t.Errorf("unexpected second mutation: %+v", mutations[1])
	}
}

func TestReconcileUnchangedFeedEmitsNothing(t *testing.T) {
	snap := buildSnapshot([]models.Regional{
		activeRow(1, "Centro", utils.IntPtr(10)),
		activeRow(2, "Norte", nil),
	})
	mutations := reconcile([]ExternalRecord{
		record("Centro", utils.IntPtr(10)),
		record("Norte", nil),
	}, snap)

	if len(mutations) != 0 {
		t.Fatalf("expected no mutations, got %+v", mutations)
	}
}

func TestReconcileRenameByCodeReplacesRow(t *testing.T) {
	snap := buildSnapshot([]models.Regional{
		activeRow(1, "Centro", utils.IntPtr(10)),
	})
	mutations := reconcile([]ExternalRecord{
		record("Central", utils.IntPtr(10)),
	}, snap)

	if len(mutations) != 2 {
		t.Fatalf("expected retire+create, got %+v", mutations)
	}
	if mutations[0].Kind != MutationRetire || mutations[0].RetireId != 1 {
		t.Errorf("expected retire of row 1, got %+v", mutations[0])
	}
	if mutations[1].Kind != MutationCreate || mutations[1].Name != "Central" ||
		mutations[1].ExternalCode == nil || *mutations[1].ExternalCode != 10 {
		t.Errorf("replacement must carry the external code: %+v", mutations[1])
	}
}

func TestReconcileCodeBearingRecordNeverMatchesByName(t *testing.T) {
	// The mirror has a code-less "Leste"; the feed now sends "Leste"
	// with a code. The two must not be joined: the code-bearing record
	// creates a fresh row and the code-less one retires as unseen.
	snap := buildSnapshot([]models.Regional{
		activeRow(3, "Leste", nil),
	})
	mutations := reconcile([]ExternalRecord{
		record("Leste", utils.IntPtr(5)),
	}, snap)

	if len(mutations) != 2 {
		t.Fatalf("expected create+retire, got %+v", mutations)
	}
	if mutations[0].Kind != MutationCreate || mutations[0].Name != "Leste" ||
		mutations[0].ExternalCode == nil || *mutations[0].ExternalCode != 5 {
		t.Errorf("unexpected create: %+v", mutations[0])
	}
	if mutations[1].Kind != MutationRetire || mutations[1].RetireId != 3 {
		t.Errorf("expected retire of the code-less row: %+v", mutations[1])
	}
}

func TestReconcileCodeBearingDuplicateNameCreatesSecondRow(t *testing.T) {
	// The feed carries both a code-less "Leste" (matching the existing
	// row) and a code-bearing "Leste". The code-bearing record is new,
	// so afterwards two active rows share the display name.
	snap := buildSnapshot([]models.Regional{
		activeRow(3, "Leste", nil),
	})
	mutations := reconcile([]ExternalRecord{
		record("Leste", nil),
		record("Leste", utils.IntPtr(5)),
	}, snap)

	if len(mutations) != 1 {
		t.Fatalf("expected a single create, got %+v", mutations)
	}
	if mutations[0].Kind != MutationCreate || mutations[0].ExternalCode == nil || *mutations[0].ExternalCode != 5 {
		t.Errorf("expected create with code 5, got %+v", mutations[0])
	}
}

func TestReconcileDisappearedRowsRetireInIdOrder(t *testing.T) {
	snap := buildSnapshot([]models.Regional{
		activeRow(7, "Oeste", utils.IntPtr(70)),
		activeRow(2, "Sul", nil),
		activeRow(5, "Norte", utils.IntPtr(50)),
	})
	mutations := reconcile(nil, snap)

	if len(mutations) != 3 {
		t.Fatalf("expected 3 retires, got %+v", mutations)
	}
	wantOrder := []uint{2, 5, 7}
	for i, want := range wantOrder {
		if mutations[i].Kind != MutationRetire || mutations[i].RetireId != want {
			t.Errorf("retire %d: want row %d, got %+v", i, want, mutations[i])
		}
	}
}

func TestReconcileDuplicateCodesFirstOccurrenceWins(t *testing.T) {
	snap := buildSnapshot([]models.Regional{
		activeRow(1, "Centro", utils.IntPtr(10)),
	})
	mutations := reconcile([]ExternalRecord{
		record("Central", utils.IntPtr(10)),
		record("Centro Novo", utils.IntPtr(10)),
	}, snap)

	// Only the first duplicate drives the replacement; the second is
	// ignored so the row is not replaced twice.
	if len(mutations) != 2 {
		t.Fatalf("expected retire+create only, got %+v", mutations)
	}
	if mutations[1].Name != "Central" {
		t.Errorf("first occurrence must win, got %+v", mutations[1])
	}
}

func TestReconcileDuplicateNamesCreateOnce(t *testing.T) {
	snap := buildSnapshot(nil)
	mutations := reconcile([]ExternalRecord{
		record("Norte", nil),
		record("Norte", nil),
	}, snap)

	if len(mutations) != 1 {
		t.Fatalf("expected a single create, got %+v", mutations)
	}
}

func TestReconcileSnapshotDuplicateNameLowestIdWins(t *testing.T) {
	// Two active rows share a name (historical data). The name join
	// must target the lowest id; the other row retires as unseen.
	snap := buildSnapshot([]models.Regional{
		activeRow(4, "Leste", nil),
		activeRow(9, "Leste", nil),
	})
	mutations := reconcile([]ExternalRecord{
		record("Leste", nil),
	}, snap)

	if len(mutations) != 1 {
		t.Fatalf("expected one retire, got %+v", mutations)
	}
	if mutations[0].Kind != MutationRetire || mutations[0].RetireId != 9 {
		t.Errorf("expected the higher-id duplicate to retire, got %+v", mutations[0])
	}
}

// replay applies a plan to an in-memory mirror the way applyMutations
// would, so a second reconcile can prove the plan converges.
func replay(rows []models.Regional, mutations []Mutation) []models.Regional {
	var nextId uint
	for _, r := range rows {
		if r.ID > nextId {
			nextId = r.ID
		}
	}

	byId := make(map[uint]int)
	out := append([]models.Regional(nil), rows...)
	for i, r := range out {
		byId[r.ID] = i
	}

	for _, m := range mutations {
		switch m.Kind {
		case MutationRetire:
			if i, ok := byId[m.RetireId]; ok {
				out[i].Active = utils.NewFalse()
			}
		case MutationCreate:
			nextId++
			out = append(out, models.Regional{
				ID:           nextId,
				Name:         m.Name,
				Active:       utils.NewTrue(),
				ExternalCode: m.ExternalCode,
			})
			byId[nextId] = len(out) - 1
		}
	}

	var active []models.Regional
	for _, r := range out {
		if r.Active != nil && *r.Active {
			active = append(active, r)
		}
	}
	return active
}

func TestReconcileConvergesAfterOnePass(t *testing.T) {
	rows := []models.Regional{
		activeRow(1, "Centro", utils.IntPtr(10)),
		activeRow(2, "Norte", nil),
		activeRow(3, "Sul", utils.IntPtr(30)),
	}
	records := []ExternalRecord{
		record("Central", utils.IntPtr(10)), // rename
		record("Norte", nil),                // unchanged
		record("Oeste", utils.IntPtr(40)),   // new
		// "Sul" disappeared
	}

	first := reconcile(records, buildSnapshot(rows))
	if len(first) == 0 {
		t.Fatal("expected mutations on the first pass")
	}

	afterFirst := replay(rows, first)
	second := reconcile(records, buildSnapshot(afterFirst))
	if len(second) != 0 {
		t.Fatalf("second pass over the same feed must be a no-op, got %+v", second)
	}
}
