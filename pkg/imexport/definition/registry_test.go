package definition

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/gui-xie/import-export/pkg/imexport/models"
)

const ordersYAML = "name: orders\ncolumns:\n  - key: id\n    name: ID\n"

func writeDef(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRegistryLoad(t *testing.T) {
	dir := t.TempDir()
	writeDef(t, dir, "orders.yaml", ordersYAML)
	writeDef(t, dir, "users.jsonc", `{"name": "users", "columns": [{"key": "id", "name": "ID"},]}`)
	writeDef(t, dir, "broken.json", `{"name": `)
	writeDef(t, dir, "readme.txt", "ignored")

	r := NewRegistry(zerolog.Nop())
	count := -1
	r.OnChange(func(n int) { count = n })
	n, err := r.Load(dir)
	if err == nil {
		t.Error("Expected error for broken definition")
	}
	if n != 2 {
		t.Errorf("Expected 2 definitions loaded, got %d", n)
	}

	if count != 2 {
		t.Errorf("Expected change callback with 2, got %d", count)
	}

	names := r.Names()
	if len(names) != 2 || names[0] != "orders" || names[1] != "users" {
		t.Errorf("Expected [orders users], got %v", names)
	}
}

func TestRegistryLoadMissingDir(t *testing.T) {
	r := NewRegistry(zerolog.Nop())
	if _, err := r.Load(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("Expected error, got nil")
	}
}

func TestRegistryGetReturnsCopy(t *testing.T) {
	r := NewRegistry(zerolog.Nop())
	r.Put("orders", &models.TableDefinition{
		Name:    "orders",
		Columns: []models.ColumnDefinition{{Key: "id", Name: "ID"}},
	})

	def, ok := r.Get("orders")
	if !ok {
		t.Fatal("Expected definition")
	}
	def.Columns[0].Name = "changed"

	again, _ := r.Get("orders")
	if again.Columns[0].Name != "ID" {
		t.Errorf("Expected stored definition unchanged, got %q", again.Columns[0].Name)
	}

	r.Remove("orders")
	if _, ok := r.Get("orders"); ok {
		t.Error("Expected definition removed")
	}
	if r.Len() != 0 {
		t.Errorf("Expected empty registry, got %d", r.Len())
	}
}

func TestRegistryWatch(t *testing.T) {
	dir := t.TempDir()
	r := NewRegistry(zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := r.Watch(ctx, dir); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	path := writeDef(t, dir, "orders.yaml", ordersYAML)
	waitFor(t, func() bool {
		_, ok := r.Get("orders")
		return ok
	})

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool {
		_, ok := r.Get("orders")
		return !ok
	})
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("Timed out waiting for condition")
}
