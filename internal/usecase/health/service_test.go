package health

import (
	"context"
	"errors"
	"testing"
)

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

type mockChecker struct {
	err error
}

func (m *mockChecker) HealthCheck(_ context.Context) error { return m.err }

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockPinger{}, &mockChecker{})

	report := svc.Check(context.Background())
	if report.Status != Healthy {
		t.Fatalf("status = %s, want %s", report.Status, Healthy)
	}
	if report.Checks["database"] != CheckOK || report.Checks["embedding"] != CheckOK {
		t.Fatalf("checks = %+v", report.Checks)
	}
}

func TestCheck_DatabaseDownIsUnhealthy(t *testing.T) {
	svc := New(&mockPinger{err: errors.New("refused")}, &mockChecker{})

	report := svc.Check(context.Background())
	if report.Status != Unhealthy {
		t.Fatalf("status = %s, want %s", report.Status, Unhealthy)
	}
	if report.Checks["database"] != CheckError {
		t.Fatalf("checks = %+v", report.Checks)
	}
}

func TestCheck_EmbeddingDownIsDegraded(t *testing.T) {
	svc := New(&mockPinger{}, &mockChecker{err: errors.New("quota")})

	report := svc.Check(context.Background())
	if report.Status != Degraded {
		t.Fatalf("embedding failure alone degrades, got %s", report.Status)
	}
}

func TestCheck_DatabaseOutranksEmbedding(t *testing.T) {
	svc := New(&mockPinger{err: errors.New("refused")}, &mockChecker{err: errors.New("quota")})

	if report := svc.Check(context.Background()); report.Status != Unhealthy {
		t.Fatalf("status = %s, want %s", report.Status, Unhealthy)
	}
}

func TestCheck_NoEmbedder(t *testing.T) {
	svc := New(&mockPinger{}, nil)

	report := svc.Check(context.Background())
	if report.Status != Healthy {
		t.Fatalf("status = %s, want %s", report.Status, Healthy)
	}
	if _, ok := report.Checks["embedding"]; ok {
		t.Error("no embedder configured means no embedding check")
	}
}
