package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"k8s.io/klog/v2"

	"github.com/myuser/txkv/internal/sql"
	"github.com/myuser/txkv/internal/storage"
)

type step struct {
	stmt string
	// want is the expected "key=value" row for point reads, "" for none.
	want    string
	wantErr func(error) bool
}

func run(store storage.Engine, s step) error {
	res, err := sql.ExecuteString(s.stmt, store)
	if s.wantErr != nil {
		if !s.wantErr(err) {
			return fmt.Errorf("%s -> unexpected error result: %v", s.stmt, err)
		}
		fmt.Printf("%s -> rejected: %v\n", s.stmt, err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s -> %v", s.stmt, err)
	}
	if !strings.HasPrefix(strings.ToUpper(s.stmt), "SELECT") {
		fmt.Printf("%s -> %s\n", s.stmt, res.Message)
		return nil
	}

	got := ""
	if len(res.Rows) > 0 {
		got = strings.Join(res.Rows[0], "=")
	}
	if got != s.want {
		return fmt.Errorf("%s -> got %q, want %q", s.stmt, got, s.want)
	}
	fmt.Printf("%s -> %q\n", s.stmt, got)
	return nil
}

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	store := storage.NewMemoryStore()

	steps := []step{
		{stmt: "BEGIN"},
		{stmt: "INSERT INTO kv VALUES ('a', 1)"},
		{stmt: "INSERT INTO kv VALUES ('b', 2)"},
		// Staged writes stay invisible until commit
		{stmt: "SELECT v FROM kv WHERE k = 'a'", want: ""},
		{stmt: "BEGIN", wantErr: storage.IsTransactionError},
		{stmt: "COMMIT"},
		{stmt: "SELECT v FROM kv WHERE k = 'a'", want: "a=1"},
		{stmt: "SELECT v FROM kv WHERE k = 'b'", want: "b=2"},
		{stmt: "BEGIN"},
		{stmt: "INSERT INTO kv VALUES ('a', 99)"},
		{stmt: "INSERT INTO kv VALUES ('a', 'not-an-int')", wantErr: storage.IsValidationError},
		{stmt: "ROLLBACK"},
		{stmt: "SELECT v FROM kv WHERE k = 'a'", want: "a=1"},
		{stmt: "SELECT v FROM kv WHERE k = 'never-set'", want: ""},
		{stmt: "COMMIT", wantErr: storage.IsTransactionError},
		{stmt: "ROLLBACK", wantErr: storage.IsTransactionError},
		{stmt: "SELECT v FROM kv WHERE k = 123", wantErr: storage.IsValidationError},
	}

	for i, s := range steps {
		fmt.Printf("%2d. ", i+1)
		if err := run(store, s); err != nil {
			fmt.Println("FAIL")
			klog.Errorf("Step %d failed: %v", i+1, err)
			klog.Flush()
			os.Exit(1)
		}
	}
	fmt.Println("All steps passed.")
}
