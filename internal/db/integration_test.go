package db_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/tocos/ledger-service/internal/db"
	"github.com/tocos/ledger-service/internal/domain"
)

// TestLedgerIntegration is an end-to-end test against a real PostgreSQL
// instance: it sets up the schema and stored procedures, then walks the
// account and transfer scenarios through the domain services.
func TestLedgerIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	postgresContainer, dbURL := startPostgresContainer(t, ctx)
	defer func() {
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate postgres container: %v", err)
		}
	}()

	pool, err := db.NewPool(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to create database pool: %v", err)
	}
	defer pool.Close()

	if err := pool.Setup(ctx, false); err != nil {
		t.Fatalf("failed to set up schema: %v", err)
	}
	// Setup must be idempotent across restarts.
	if err := pool.Setup(ctx, false); err != nil {
		t.Fatalf("second schema setup failed: %v", err)
	}

	accountRepo := db.NewAccountRepository(pool)
	ledgerRepo := db.NewLedgerRepository(pool)
	txManager := db.NewTransactionManager(pool)

	accounts := domain.NewAccountService(accountRepo)
	transfers := domain.NewTransferService(accountRepo, ledgerRepo, txManager, nil, nil)

	t.Run("query before creation fails", func(t *testing.T) {
		id := int64(1)
		_, err := accounts.GetAccounts(ctx, &id)
		if !domain.IsKind(err, domain.KindSenderDoesNotExist) {
			t.Fatalf("expected KindSenderDoesNotExist, got %v", err)
		}
	})

	t.Run("list all on empty store", func(t *testing.T) {
		got, err := accounts.GetAccounts(ctx, nil)
		if err != nil {
			t.Fatalf("GetAccounts failed: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected no accounts, got %+v", got)
		}
	})

	t.Run("create and read back", func(t *testing.T) {
		ack, err := accounts.CreateAccount(ctx, domain.Account{ID: 1, Balance: 10000})
		if err != nil {
			t.Fatalf("CreateAccount failed: %v", err)
		}
		if ack != domain.AccountCreatedAck {
			t.Errorf("unexpected ack %q", ack)
		}

		id := int64(1)
		got, err := accounts.GetAccounts(ctx, &id)
		if err != nil {
			t.Fatalf("GetAccounts failed: %v", err)
		}
		if len(got) != 1 || got[0].Balance != 10000 {
			t.Fatalf("expected one account with balance 10000, got %+v", got)
		}
	})

	t.Run("duplicate id rejected without mutation", func(t *testing.T) {
		_, err := accounts.CreateAccount(ctx, domain.Account{ID: 1, Balance: 555})
		if !domain.IsKind(err, domain.KindAccountExists) {
			t.Fatalf("expected KindAccountExists, got %v", err)
		}

		if balance := accountBalance(t, ctx, accounts, 1); balance != 10000 {
			t.Errorf("existing account mutated by failed create: %d", balance)
		}
	})

	t.Run("transfer below threshold rejected", func(t *testing.T) {
		if _, err := accounts.CreateAccount(ctx, domain.Account{ID: 2, Balance: 10}); err != nil {
			t.Fatalf("CreateAccount failed: %v", err)
		}

		_, err := transfers.ExecuteTransfer(ctx, 2, 1, 100)
		if !domain.IsKind(err, domain.KindNotEnoughBalance) {
			t.Fatalf("expected KindNotEnoughBalance, got %v", err)
		}

		if balance := accountBalance(t, ctx, accounts, 2); balance != 10 {
			t.Errorf("sender balance changed on rejected transfer: %d", balance)
		}
		if balance := accountBalance(t, ctx, accounts, 1); balance != 10000 {
			t.Errorf("receiver balance changed on rejected transfer: %d", balance)
		}

		entries, err := transfers.ListTransactions(ctx, domain.MaxWindowSize)
		if err != nil {
			t.Fatalf("ListTransactions failed: %v", err)
		}
		if len(entries) != 0 {
			t.Errorf("ledger entry appended on rejected transfer: %+v", entries)
		}
	})

	t.Run("successful transfer moves balance and appends entry", func(t *testing.T) {
		if _, err := accounts.CreateAccount(ctx, domain.Account{ID: 3, Balance: 10000}); err != nil {
			t.Fatalf("CreateAccount failed: %v", err)
		}

		ack, err := transfers.ExecuteTransfer(ctx, 1, 3, 100)
		if err != nil {
			t.Fatalf("ExecuteTransfer failed: %v", err)
		}
		if ack != domain.TransferAck {
			t.Errorf("unexpected ack %q", ack)
		}

		sender := accountBalance(t, ctx, accounts, 1)
		receiver := accountBalance(t, ctx, accounts, 3)
		if sender != 9900 {
			t.Errorf("expected sender balance 9900, got %d", sender)
		}
		if receiver != 10100 {
			t.Errorf("expected receiver balance 10100, got %d", receiver)
		}
		if sender+receiver != 20000 {
			t.Errorf("transfer did not conserve balances: %d", sender+receiver)
		}

		entries, err := transfers.ListTransactions(ctx, 1)
		if err != nil {
			t.Fatalf("ListTransactions failed: %v", err)
		}
		want := domain.Transaction{FromID: 1, ToID: 3, Amount: 100}
		if len(entries) != 1 || entries[0] != want {
			t.Errorf("expected latest entry %+v, got %+v", want, entries)
		}
	})

	t.Run("transfer to missing recipient rejected", func(t *testing.T) {
		_, err := transfers.ExecuteTransfer(ctx, 1, 404, 100)
		if !domain.IsKind(err, domain.KindRecipientDoesNotExist) {
			t.Fatalf("expected KindRecipientDoesNotExist, got %v", err)
		}
		if balance := accountBalance(t, ctx, accounts, 1); balance != 9900 {
			t.Errorf("sender balance changed on rejected transfer: %d", balance)
		}
	})

	t.Run("transfer from missing sender rejected", func(t *testing.T) {
		_, err := transfers.ExecuteTransfer(ctx, 404, 1, 100)
		if !domain.IsKind(err, domain.KindSenderDoesNotExist) {
			t.Fatalf("expected KindSenderDoesNotExist, got %v", err)
		}
	})

	t.Run("ledger window ordering", func(t *testing.T) {
		if _, err := transfers.ExecuteTransfer(ctx, 3, 1, 40); err != nil {
			t.Fatalf("ExecuteTransfer failed: %v", err)
		}
		if _, err := transfers.ExecuteTransfer(ctx, 1, 3, 60); err != nil {
			t.Fatalf("ExecuteTransfer failed: %v", err)
		}

		entries, err := transfers.ListTransactions(ctx, 2)
		if err != nil {
			t.Fatalf("ListTransactions failed: %v", err)
		}
		if len(entries) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(entries))
		}
		if entries[0].Amount != 60 || entries[1].Amount != 40 {
			t.Errorf("entries not newest first: %+v", entries)
		}
	})

	t.Run("concurrent transfers never break the threshold", func(t *testing.T) {
		// Account 10 holds 104: exactly one transfer of 50 can succeed
		// (104-50 >= 5 but 54-50 < 5), no matter how the requests race.
		if _, err := accounts.CreateAccount(ctx, domain.Account{ID: 10, Balance: 104}); err != nil {
			t.Fatalf("CreateAccount failed: %v", err)
		}
		if _, err := accounts.CreateAccount(ctx, domain.Account{ID: 11, Balance: 0}); err != nil {
			t.Fatalf("CreateAccount failed: %v", err)
		}

		const attempts = 8
		var wg sync.WaitGroup
		errs := make([]error, attempts)
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = transfers.ExecuteTransfer(ctx, 10, 11, 50)
			}(i)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
			} else if !domain.IsKind(err, domain.KindNotEnoughBalance) {
				t.Errorf("unexpected transfer error: %v", err)
			}
		}
		if succeeded != 1 {
			t.Errorf("expected exactly 1 successful transfer, got %d", succeeded)
		}

		sender := accountBalance(t, ctx, accounts, 10)
		receiver := accountBalance(t, ctx, accounts, 11)
		if sender < domain.MinBalance {
			t.Errorf("sender driven below minimum balance: %d", sender)
		}
		if sender+receiver != 104 {
			t.Errorf("balances not conserved under concurrency: %d", sender+receiver)
		}
	})

	t.Run("window limits enforced defensively", func(t *testing.T) {
		for _, limit := range []int{0, domain.MaxWindowSize + 1} {
			if _, err := transfers.ListTransactions(ctx, limit); !domain.IsKind(err, domain.KindWindowLimitExceeded) {
				t.Errorf("limit %d: expected KindWindowLimitExceeded, got %v", limit, err)
			}
		}
		if _, err := transfers.ListTransactions(ctx, domain.MaxWindowSize); err != nil {
			t.Errorf("limit %d: unexpected error %v", domain.MaxWindowSize, err)
		}
	})

	t.Run("schema reset drops state", func(t *testing.T) {
		if err := pool.Setup(ctx, true); err != nil {
			t.Fatalf("reset setup failed: %v", err)
		}
		got, err := accounts.GetAccounts(ctx, nil)
		if err != nil {
			t.Fatalf("GetAccounts after reset failed: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("accounts survived a reset: %+v", got)
		}
	})
}

// accountBalance reads one balance through the service layer.
func accountBalance(t *testing.T, ctx context.Context, accounts *domain.AccountService, id int64) int64 {
	t.Helper()
	got, err := accounts.GetAccounts(ctx, &id)
	if err != nil {
		t.Fatalf("GetAccounts(%d) failed: %v", id, err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one account for id %d, got %d", id, len(got))
	}
	return got[0].Balance
}

// startPostgresContainer starts a PostgreSQL testcontainer and returns
// the connection URL.
func startPostgresContainer(t *testing.T, ctx context.Context) (testcontainers.Container, string) {
	req := testcontainers.ContainerRequest{
		Image:        "postgres:15",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get postgres host: %v", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("failed to get postgres port: %v", err)
	}

	dbURL := fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port())
	return container, dbURL
}
