package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/text/language"

	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/metrics"
	"github.com/mmynk/settleup/internal/middleware"
	"github.com/mmynk/settleup/internal/storage/sqlite"
	"github.com/mmynk/settleup/pkg/api"
	"github.com/mmynk/settleup/pkg/api/apiconnect"
)

const testUserID = "user-alice"

// testAuthInterceptor returns a Connect interceptor that sets a test user ID in the context.
func testAuthInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			return next(middleware.WithUser(ctx, testUserID, "alice@example.com"), req)
		}
	}
}

type testClients struct {
	groups  apiconnect.GroupServiceClient
	ledger  apiconnect.LedgerServiceClient
	metrics *metrics.Metrics
}

// setupTestServer serves both services over a temporary SQLite database.
func setupTestServer(t *testing.T) testClients {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	m := metrics.New(prometheus.NewRegistry())
	formatter := calculator.NewFormatter(language.English, "EUR")

	authInterceptor := connect.WithInterceptors(testAuthInterceptor())
	groupPath, groupHandler := apiconnect.NewGroupServiceHandler(NewGroupService(store, "EUR"), authInterceptor)
	ledgerPath, ledgerHandler := apiconnect.NewLedgerServiceHandler(NewLedgerService(store, formatter, m), authInterceptor)

	mux := http.NewServeMux()
	mux.Handle(groupPath, groupHandler)
	mux.Handle(ledgerPath, ledgerHandler)

	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		server.Close()
		store.Close()
	})

	return testClients{
		groups:  apiconnect.NewGroupServiceClient(http.DefaultClient, server.URL),
		ledger:  apiconnect.NewLedgerServiceClient(http.DefaultClient, server.URL),
		metrics: m,
	}
}

// createGroup creates a group and returns it with member IDs by name.
func createGroup(t *testing.T, c testClients, currency string, names ...string) (*api.Group, map[string]string) {
	t.Helper()

	resp, err := c.groups.CreateGroup(context.Background(), connect.NewRequest(&api.CreateGroupRequest{
		Name:     "Test group",
		Currency: currency,
		Members:  names,
	}))
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	ids := make(map[string]string, len(names))
	for _, m := range resp.Msg.Group.Members {
		ids[m.Name] = m.Id
	}
	return resp.Msg.Group, ids
}

func assertCode(t *testing.T, err error, want connect.Code) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected %v error, got nil", want)
	}
	if got := connect.CodeOf(err); got != want {
		t.Errorf("expected %v, got %v (%v)", want, got, err)
	}
}
