package kv

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/juju/clock/testclock"
)

// exerciseStore runs the contract every backend must satisfy.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("Get(missing) = ok %v, err %v; want absent", ok, err)
	}
	if err := s.Set(ctx, "k", []byte(`[{"id":"1"}]`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, ok, err := s.Get(ctx, "k")
	if err != nil || !ok || string(v) != `[{"id":"1"}]` {
		t.Fatalf("Get(k) = %q, %v, %v", v, ok, err)
	}
	if err := s.Set(ctx, "k", []byte(`[]`)); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	v, _, _ = s.Get(ctx, "k")
	if string(v) != `[]` {
		t.Errorf("after overwrite Get(k) = %q, want []", v)
	}
	if err := s.Ping(ctx); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	s := NewMemoryStore()
	in := []byte("abc")
	_ = s.Set(context.Background(), "k", in)
	in[0] = 'x'
	v, _, _ := s.Get(context.Background(), "k")
	if string(v) != "abc" {
		t.Errorf("stored value changed through caller slice: %q", v)
	}
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing store: %v", err)
		}
	})
	exerciseStore(t, s)
}

func TestPostgresStore_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT value FROM kv_store WHERE key = \$1`).
		WithArgs("gearbox_equipment_v1").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(`[]`))

	s := NewPostgresStore(db)
	v, ok, err := s.Get(context.Background(), "gearbox_equipment_v1")
	if err != nil || !ok || string(v) != "[]" {
		t.Fatalf("Get = %q, %v, %v", v, ok, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestPostgresStore_Get_Missing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT value FROM kv_store WHERE key = \$1`).
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)

	s := NewPostgresStore(db)
	_, ok, err := s.Get(context.Background(), "nope")
	if err != nil || ok {
		t.Fatalf("Get(nope) = ok %v, err %v; want absent", ok, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestPostgresStore_Set(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`INSERT INTO kv_store .* ON CONFLICT \(key\) DO UPDATE SET value = EXCLUDED.value`).
		WithArgs("k", `["x"]`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	s := NewPostgresStore(db)
	if err := s.Set(context.Background(), "k", []byte(`["x"]`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestPostgresStore_Set_Error(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	boom := errors.New("connection reset")
	mock.ExpectExec(`INSERT INTO kv_store`).WillReturnError(boom)

	s := NewPostgresStore(db)
	if err := s.Set(context.Background(), "k", []byte(`[]`)); !errors.Is(err, boom) {
		t.Errorf("Set error = %v, want wrapped %v", err, boom)
	}
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client, err := DialRedis(context.Background(), addr, os.Getenv("REDIS_PASSWORD"), 0)
	if err != nil {
		t.Fatalf("DialRedis: %v", err)
	}
	s := NewRedisStore(client, "gearbox_test:"+time.Now().Format("150405.000000")+":")
	defer s.Close()
	exerciseStore(t, s)
}

func TestWithLatency_WaitsForClock(t *testing.T) {
	clk := testclock.NewClock(time.Now())
	mem := NewMemoryStore()
	_ = mem.Set(context.Background(), "k", []byte("v"))
	s := WithLatency(mem, 300*time.Millisecond, clk)

	done := make(chan []byte, 1)
	go func() {
		v, _, _ := s.Get(context.Background(), "k")
		done <- v
	}()

	if err := clk.WaitAdvance(300*time.Millisecond, time.Second, 1); err != nil {
		t.Fatalf("WaitAdvance: %v", err)
	}
	select {
	case v := <-done:
		if string(v) != "v" {
			t.Errorf("Get = %q, want v", v)
		}
	case <-time.After(time.Second):
		t.Fatal("Get did not return after the clock advanced")
	}
}

func TestWithLatency_Canceled(t *testing.T) {
	clk := testclock.NewClock(time.Now())
	s := WithLatency(NewMemoryStore(), time.Hour, clk)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Set(ctx, "k", []byte("v")); !errors.Is(err, context.Canceled) {
		t.Errorf("Set on canceled ctx = %v, want context.Canceled", err)
	}
}

func TestWithLatency_ZeroIsPassthrough(t *testing.T) {
	mem := NewMemoryStore()
	if got := WithLatency(mem, 0, nil); got != Store(mem) {
		t.Error("zero latency should return the backend unchanged")
	}
}
