package sql

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myuser/txkv/internal/storage"
)

func mustExec(t *testing.T, engine storage.Engine, sql string) *Result {
	t.Helper()
	res, err := ExecuteString(sql, engine)
	require.NoError(t, err, "%q failed", sql)
	return res
}

func TestExecutor_TransactionControl(t *testing.T) {
	store := storage.NewMemoryStore()

	assert.Equal(t, "BEGIN", mustExec(t, store, "begin").Message)
	assert.Equal(t, storage.StateInTransaction, store.State())
	assert.Equal(t, "ROLLBACK", mustExec(t, store, "ROLLBACK;").Message)
	assert.Equal(t, storage.StateIdle, store.State())
	assert.Equal(t, "BEGIN", mustExec(t, store, "START TRANSACTION").Message)
	assert.Equal(t, "COMMIT", mustExec(t, store, "COMMIT").Message)
	assert.Equal(t, storage.StateIdle, store.State())
}

func TestExecutor_InsertSelect(t *testing.T) {
	store := storage.NewMemoryStore()

	mustExec(t, store, "BEGIN")
	res := mustExec(t, store, "INSERT INTO kv (k, v) VALUES ('alice', 30), ('bob', 7)")
	assert.Equal(t, "INSERT 2", res.Message)

	// Not visible before commit
	res = mustExec(t, store, "SELECT v FROM kv WHERE k = 'alice'")
	assert.Empty(t, res.Rows)

	mustExec(t, store, "COMMIT")

	res = mustExec(t, store, "SELECT v FROM kv WHERE k = 'alice'")
	assert.Equal(t, []Row{{"alice", "30"}}, res.Rows)
}

func TestExecutor_Scenario(t *testing.T) {
	store := storage.NewMemoryStore()

	for _, sql := range []string{
		"BEGIN",
		"INSERT INTO kv VALUES ('a', 1)",
		"INSERT INTO kv VALUES ('b', 2)",
		"COMMIT",
		"BEGIN",
		"INSERT INTO kv VALUES ('a', 99)",
		"ROLLBACK",
	} {
		mustExec(t, store, sql)
	}

	tests := []struct {
		key  string
		want string
	}{
		{"a", "1"},
		{"b", "2"},
	}
	for _, tt := range tests {
		res := mustExec(t, store, "SELECT * FROM kv WHERE k = '"+tt.key+"'")
		assert.Equal(t, []Row{{tt.key, tt.want}}, res.Rows)
	}
}

func TestExecutor_TransactionErrors(t *testing.T) {
	store := storage.NewMemoryStore()

	for _, sql := range []string{
		"COMMIT",
		"ROLLBACK",
		"INSERT INTO kv VALUES ('a', 1)",
		// Transaction state wins over a bad row.
		"INSERT INTO kv VALUES (1, 'a')",
	} {
		_, err := ExecuteString(sql, store)
		assert.True(t, storage.IsTransactionError(err), "%q: want TransactionError, got %v", sql, err)
	}

	mustExec(t, store, "BEGIN")
	_, err := ExecuteString("BEGIN", store)
	assert.ErrorIs(t, err, storage.ErrTxnInProgress)
}

func TestExecutor_ValidationErrors(t *testing.T) {
	store := storage.NewMemoryStore()
	mustExec(t, store, "BEGIN")

	for _, sql := range []string{
		"INSERT INTO kv VALUES ('k', 'not-an-int')",
		"INSERT INTO kv VALUES (123, 1)",
		"INSERT INTO kv VALUES ('', 1)",
		"INSERT INTO kv VALUES ('k', 1.5)",
		"INSERT INTO kv VALUES ('k', NULL)",
		"SELECT * FROM kv WHERE k = 123",
	} {
		_, err := ExecuteString(sql, store)
		assert.True(t, storage.IsValidationError(err), "%q: want ValidationError, got %v", sql, err)
	}
}

func TestExecutor_InsertIsAllOrNothing(t *testing.T) {
	store := storage.NewMemoryStore()
	mustExec(t, store, "BEGIN")

	_, err := ExecuteString("INSERT INTO kv VALUES ('good', 1), ('bad', 'x')", store)
	require.True(t, storage.IsValidationError(err), "want ValidationError, got %v", err)
	assert.Contains(t, err.Error(), "entry 2: ")
	mustExec(t, store, "COMMIT")

	assert.Zero(t, store.Len())
}

// A COMMIT from another caller must never split a multi-row INSERT.
func TestExecutor_InsertAtomicAgainstConcurrentCommit(t *testing.T) {
	const rows = 40
	values := make([]string, rows)
	for i := range values {
		values[i] = fmt.Sprintf("('k%d', %d)", i, i)
	}
	insert := "INSERT INTO kv VALUES " + strings.Join(values, ", ")

	for iter := 0; iter < 100; iter++ {
		store := storage.NewMemoryStore()
		mustExec(t, store, "BEGIN")

		var insertErr, commitErr error
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, insertErr = ExecuteString(insert, store)
		}()
		go func() {
			defer wg.Done()
			_, commitErr = ExecuteString("COMMIT", store)
		}()
		wg.Wait()
		require.NoError(t, commitErr)

		if insertErr == nil {
			require.Equal(t, rows, store.Len(), "iteration %d", iter)
		} else {
			require.True(t, storage.IsTransactionError(insertErr), "iteration %d: %v", iter, insertErr)
			require.Zero(t, store.Len(), "iteration %d", iter)
		}
	}
}

func TestExecutor_MissingKey(t *testing.T) {
	store := storage.NewMemoryStore()
	res := mustExec(t, store, "SELECT * FROM kv WHERE k = 'never-set'")
	require.NotNil(t, res.Rows)
	assert.Empty(t, res.Rows)
}
