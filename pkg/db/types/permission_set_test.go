package dbtypes

import (
	"testing"

	"github.com/angelmondragon/stockpos-backend/pkg/enums"
)

func TestPermissionSetScanValue(t *testing.T) {
	var set PermissionSet
	if err := set.Scan(`{"view_reports",manage_pos,manage_pos}`); err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if len(set) != 2 {
		t.Fatalf("expected deduplicated set of 2, got %v", set)
	}
	if !set.Has(enums.PermissionManagePOS) || set.Has(enums.PermissionManageRoles) {
		t.Fatalf("unexpected membership: %v", set)
	}

	v, err := set.Value()
	if err != nil {
		t.Fatalf("value failed: %v", err)
	}
	if v != "{manage_pos,view_reports}" {
		t.Fatalf("unexpected literal %v", v)
	}
}

func TestPermissionSetRejectsUnknown(t *testing.T) {
	var set PermissionSet
	if err := set.Scan([]byte("{fly}")); err == nil {
		t.Fatal("expected error for unknown permission")
	}
	if err := set.Scan(nil); err != nil || len(set) != 0 {
		t.Fatalf("nil scan should produce empty set, got %v %v", set, err)
	}
	empty, _ := PermissionSet{}.Value()
	if empty != "{}" {
		t.Fatalf("expected empty literal, got %v", empty)
	}
}
