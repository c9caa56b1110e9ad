package db

import (
	"testing"

	"github.com/interiohub/interio/internal/config"
)

func TestOpenSQLite(t *testing.T) {
	conn, err := Open(config.DatabaseConfig{Driver: "sqlite", DSN: "file:dbtest?mode=memory&cache=shared", MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	var one int
	if err := conn.Raw("SELECT 1").Scan(&one).Error; err != nil {
		t.Fatalf("query: %v", err)
	}
	if one != 1 {
		t.Fatalf("expected 1, got %d", one)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(config.DatabaseConfig{Driver: "oracle"}); err == nil {
		t.Fatalf("expected unsupported driver error")
	}
}
