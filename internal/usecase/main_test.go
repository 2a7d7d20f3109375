package usecase

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/user/schema-cache/internal/adapter/memory"
	"github.com/user/schema-cache/internal/entity"
	"github.com/user/schema-cache/pkg/metrics"
)

func TestMain(m *testing.M) {
	metrics.Init()
	os.Exit(m.Run())
}

const (
	testOrgID  = "org-a"
	testAPIKey = "secret-a"
)

// tickingClock returns a time source that advances one second per call.
func tickingClock() func() time.Time {
	t := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newTestStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.NewStore().WithClock(tickingClock())
	for _, org := range []entity.Organization{
		{ID: testOrgID, Domain: "x.com", APIKey: testAPIKey},
		{ID: "org-b", Domain: "y.com", APIKey: "secret-b"},
	} {
		_, err := store.Organizations().SaveByDomain(context.Background(), &org)
		require.NoError(t, err)
	}
	return store
}
