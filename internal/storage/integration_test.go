package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"tracehub/internal/models"
)

func getTestDatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

func skipIfNoDatabase(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	if getTestDatabaseURL() == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}
}

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewDB(DBConfig{
		DSN:             getTestDatabaseURL(),
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: 15 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
		APIKeyCacheSize: 100,
		APIKeyCacheTTL:  5 * time.Minute,
	})
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.Ping(ctx); err != nil {
		t.Fatalf("Failed to ping database: %v", err)
	}
	if err := db.EnsureSchema(ctx); err != nil {
		t.Fatalf("Failed to ensure schema: %v", err)
	}

	return db
}

func cleanupProject(t *testing.T, db *DB, projectID uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	// Scores are keyed by trace, not project.
	if _, err := db.conn.ExecContext(ctx,
		"DELETE FROM scores WHERE trace_id IN (SELECT id FROM traces WHERE project_id = $1)", projectID); err != nil {
		t.Logf("Cleanup of scores failed: %v", err)
	}

	for _, table := range []string{"observations", "traces", "audit_logs", "api_keys"} {
		if _, err := db.conn.ExecContext(ctx, "DELETE FROM "+table+" WHERE project_id = $1", projectID); err != nil {
			t.Logf("Cleanup of %s failed: %v", table, err)
		}
	}
}

func strPtr(s string) *string {
	return &s
}

// seedUsageFixture creates two users in one project: user-a with two traces,
// observations and scores, user-b with one bare trace and nothing else.
func seedUsageFixture(t *testing.T, db *DB, projectID uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	traces := db.NewTraceRepository()
	observations := db.NewObservationRepository()
	scores := db.NewScoreRepository()

	base := time.Now().Add(-time.Hour).Truncate(time.Second)

	traceA1 := &models.Trace{ID: uuid.New(), ProjectID: projectID, UserID: strPtr("user-a"), Timestamp: base, Name: "checkout"}
	traceA2 := &models.Trace{ID: uuid.New(), ProjectID: projectID, UserID: strPtr("user-a"), Timestamp: base.Add(10 * time.Minute), Name: "search"}
	traceB := &models.Trace{ID: uuid.New(), ProjectID: projectID, UserID: strPtr("user-b"), Timestamp: base.Add(5 * time.Minute), Name: "browse"}
	anonymous := &models.Trace{ID: uuid.New(), ProjectID: projectID, Timestamp: base, Name: "healthcheck"}

	if err := traces.CreateBatch(ctx, []*models.Trace{traceA1, traceA2, traceB, anonymous}); err != nil {
		t.Fatalf("Failed to seed traces: %v", err)
	}

	err := observations.CreateBatch(ctx, []*models.Observation{
		{ID: uuid.New(), ProjectID: projectID, TraceID: traceA1.ID, StartTime: base.Add(time.Minute), PromptTokens: 100, CompletionTokens: 50, TotalTokens: 150},
		{ID: uuid.New(), ProjectID: projectID, TraceID: traceA2.ID, StartTime: base.Add(11 * time.Minute), PromptTokens: 200, CompletionTokens: 100, TotalTokens: 300},
	})
	if err != nil {
		t.Fatalf("Failed to seed observations: %v", err)
	}

	err = scores.CreateBatch(ctx, []*models.Score{
		{ID: uuid.New(), TraceID: &traceA1.ID, Timestamp: base.Add(2 * time.Minute), Name: "quality", Value: 0.4},
		{ID: uuid.New(), TraceID: &traceA2.ID, Timestamp: base.Add(12 * time.Minute), Name: "quality", Value: 0.9},
	})
	if err != nil {
		t.Fatalf("Failed to seed scores: %v", err)
	}
}

func TestUsageRepository_ListUserUsage(t *testing.T) {
	skipIfNoDatabase(t)

	db := setupTestDB(t)
	defer db.Close()

	projectID := uuid.New()
	defer cleanupProject(t, db, projectID)
	seedUsageFixture(t, db, projectID)

	repo := db.NewUsageRepository()
	ctx := context.Background()

	usages, total, err := repo.ListUserUsage(ctx, projectID, 50, 0)
	if err != nil {
		t.Fatalf("ListUserUsage failed: %v", err)
	}

	if total != 2 {
		t.Errorf("Expected 2 user groups, got %d", total)
	}
	if len(usages) != 2 {
		t.Fatalf("Expected 2 rollups, got %d", len(usages))
	}

	// Ordered by total tokens descending: user-a (450) before user-b (0)
	if usages[0].UserID != "user-a" || usages[1].UserID != "user-b" {
		t.Fatalf("Unexpected ordering: %s, %s", usages[0].UserID, usages[1].UserID)
	}

	a := usages[0]
	if a.TotalTraces != 2 || a.TotalObservations != 2 {
		t.Errorf("user-a counts wrong: %+v", a)
	}
	if a.TotalPromptTokens != 300 || a.TotalCompletionTokens != 150 || a.TotalTokens != 450 {
		t.Errorf("user-a token sums wrong: %+v", a)
	}
	if a.FirstTrace == nil || a.LastTrace == nil || !a.LastTrace.After(*a.FirstTrace) {
		t.Errorf("user-a trace bounds wrong: %+v", a)
	}

	// A user with traces but no observations still appears, with zero sums
	// and nil observation bounds.
	b := usages[1]
	if b.TotalTraces != 1 || b.TotalObservations != 0 || b.TotalTokens != 0 {
		t.Errorf("user-b rollup wrong: %+v", b)
	}
	if b.FirstObservation != nil || b.LastObservation != nil {
		t.Errorf("user-b observation bounds must be nil: %+v", b)
	}
}

func TestUsageRepository_Pagination(t *testing.T) {
	skipIfNoDatabase(t)

	db := setupTestDB(t)
	defer db.Close()

	projectID := uuid.New()
	defer cleanupProject(t, db, projectID)
	seedUsageFixture(t, db, projectID)

	repo := db.NewUsageRepository()
	ctx := context.Background()

	usages, total, err := repo.ListUserUsage(ctx, projectID, 1, 1)
	if err != nil {
		t.Fatalf("ListUserUsage failed: %v", err)
	}

	// The window count reports all groups, not just the page.
	if total != 2 {
		t.Errorf("Expected total 2 across pages, got %d", total)
	}
	if len(usages) != 1 || usages[0].UserID != "user-b" {
		t.Errorf("Expected second page to hold user-b, got %+v", usages)
	}

	usages, total, err = repo.ListUserUsage(ctx, projectID, 50, 10)
	if err != nil {
		t.Fatalf("ListUserUsage failed: %v", err)
	}
	if len(usages) != 0 || total != 0 {
		t.Errorf("Expected empty page past the data, got %d rows total %d", len(usages), total)
	}
}

func TestUsageRepository_LastScores(t *testing.T) {
	skipIfNoDatabase(t)

	db := setupTestDB(t)
	defer db.Close()

	projectID := uuid.New()
	defer cleanupProject(t, db, projectID)
	seedUsageFixture(t, db, projectID)

	repo := db.NewUsageRepository()
	ctx := context.Background()

	scores, err := repo.LastScores(ctx, projectID, []string{"user-a", "user-b"})
	if err != nil {
		t.Fatalf("LastScores failed: %v", err)
	}

	if len(scores) != 1 {
		t.Fatalf("Expected 1 score row, got %d", len(scores))
	}
	if scores[0].UserID != "user-a" {
		t.Errorf("Expected score for user-a, got %s", scores[0].UserID)
	}
	// The newer of the two seeded scores wins.
	if scores[0].Value != 0.9 {
		t.Errorf("Expected most recent score 0.9, got %f", scores[0].Value)
	}
}

func TestUsageRepository_GetUserUsage(t *testing.T) {
	skipIfNoDatabase(t)

	db := setupTestDB(t)
	defer db.Close()

	projectID := uuid.New()
	defer cleanupProject(t, db, projectID)
	seedUsageFixture(t, db, projectID)

	repo := db.NewUsageRepository()
	ctx := context.Background()

	usage, err := repo.GetUserUsage(ctx, projectID, "user-a")
	if err != nil {
		t.Fatalf("GetUserUsage failed: %v", err)
	}
	if usage == nil || usage.TotalTokens != 450 {
		t.Errorf("Unexpected rollup: %+v", usage)
	}

	usage, err = repo.GetUserUsage(ctx, projectID, "nobody")
	if err != nil {
		t.Fatalf("GetUserUsage failed: %v", err)
	}
	if usage != nil {
		t.Errorf("Expected nil for unknown user, got %+v", usage)
	}

	// Another project's data is invisible.
	usage, err = repo.GetUserUsage(ctx, uuid.New(), "user-a")
	if err != nil {
		t.Fatalf("GetUserUsage failed: %v", err)
	}
	if usage != nil {
		t.Errorf("Expected nil across projects, got %+v", usage)
	}
}

func TestAuditLogRepository_InsertAndList(t *testing.T) {
	skipIfNoDatabase(t)

	db := setupTestDB(t)
	defer db.Close()

	projectID := uuid.New()
	defer cleanupProject(t, db, projectID)

	repo := db.NewAuditLogRepository()
	ctx := context.Background()

	before := `{"name":"old"}`
	entry := &models.AuditLogEntry{
		ProjectID:       projectID,
		UserID:          "user-1",
		UserProjectRole: "ADMIN",
		ResourceType:    models.ResourceTrace,
		ResourceID:      "trace-1",
		Action:          "delete",
		Before:          &before,
	}

	if err := repo.Insert(ctx, entry); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if entry.ID == uuid.Nil || entry.CreatedAt.IsZero() {
		t.Errorf("Insert must assign id and created_at: %+v", entry)
	}

	entries, err := repo.List(ctx, AuditLogFilter{ProjectID: projectID})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}

	got := entries[0]
	if got.Before == nil || *got.Before != before {
		t.Errorf("Before snapshot mismatch: %v", got.Before)
	}
	if got.After != nil {
		t.Errorf("Absent snapshot must read back as nil, got %q", *got.After)
	}

	entries, err = repo.List(ctx, AuditLogFilter{ProjectID: projectID, ResourceType: models.ResourceAPIKey})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected no entries for other resource type, got %d", len(entries))
	}
}

func TestAPIKeyRepository_Lifecycle(t *testing.T) {
	skipIfNoDatabase(t)

	db := setupTestDB(t)
	defer db.Close()

	projectID := uuid.New()
	defer cleanupProject(t, db, projectID)

	repo := db.NewAPIKeyRepository()
	ctx := context.Background()

	key, plaintext, err := repo.Create(ctx, projectID, "integration-key")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if plaintext == "" {
		t.Fatal("Expected plaintext key")
	}

	record, err := repo.Lookup(ctx, plaintext)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if record.ID != key.ID || record.Revoked {
		t.Errorf("Unexpected lookup record: %+v", record)
	}

	if err := repo.Revoke(ctx, projectID, key.ID); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}

	record, err = repo.Lookup(ctx, plaintext)
	if err != nil {
		t.Fatalf("Lookup after revoke failed: %v", err)
	}
	if !record.Revoked {
		t.Error("Expected the record to read back revoked")
	}
}
