package nfts

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestImportWithoutCollectionIsIdempotent(t *testing.T) {
	ctx := context.Background()
	token := fmt.Sprintf("orphan-%d", time.Now().UnixNano())

	first, err := repo.Import(ctx, ImportRequest{TokenID: token, Name: "Orphan"})
	if err != nil {
		t.Fatalf("first import failed: %v", err)
	}

	second, err := repo.Import(ctx, ImportRequest{TokenID: token, Name: "Orphan Renamed"})
	if err != nil {
		t.Fatalf("second import failed: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("re-import created a new row: id %d then %d", first.ID, second.ID)
	}
	if second.Name != "Orphan Renamed" {
		t.Errorf("Name = %q, want updated name", second.Name)
	}

	var count int
	if err := db.QueryRow(ctx, `
		SELECT COUNT(*) FROM nfts WHERE token_id = $1 AND collection_id IS NULL`, token).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("row count = %d, want 1", count)
	}
}

func TestImportWithCollectionIsIdempotent(t *testing.T) {
	ctx := context.Background()
	token := fmt.Sprintf("member-%d", time.Now().UnixNano())
	slug := fmt.Sprintf("collection-%d", time.Now().UnixNano())

	first, err := repo.Import(ctx, ImportRequest{TokenID: token, Name: "Member", CollectionSlug: slug})
	if err != nil {
		t.Fatalf("first import failed: %v", err)
	}

	second, err := repo.Import(ctx, ImportRequest{TokenID: token, Name: "Member", CollectionSlug: slug})
	if err != nil {
		t.Fatalf("second import failed: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("re-import created a new row: id %d then %d", first.ID, second.ID)
	}
}
