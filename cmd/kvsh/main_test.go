package main

import (
	"bytes"
	"errors"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myuser/txkv/internal/config"
)

func TestRunDumpsCommittedContents(t *testing.T) {
	cfg := config.Default()
	cfg.Prompt = ""
	in := bytes.NewBufferString("BEGIN\nINSERT INTO kv VALUES ('b', 2), ('a', 1)\nCOMMIT\nBEGIN\nINSERT INTO kv VALUES ('c', 3)\n")
	var out bytes.Buffer

	require.NoError(t, run(cfg, nil, in, &out, true))
	assert.Equal(t, "BEGIN\nINSERT 2\nCOMMIT\nBEGIN\nINSERT 1\nopen transaction rolled back\na\t1\nb\t2\n", out.String())
}

func TestRunStatementErrorsAreNotFatal(t *testing.T) {
	cfg := config.Default()
	var out bytes.Buffer

	assert.NoError(t, run(cfg, nil, bytes.NewBufferString("COMMIT\nnot sql\n"), &out, false))
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("boom") }

func TestRunReturnsReadError(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, run(config.Default(), nil, failingReader{}, &out, false))
}

func TestRunShutsDownMetricsListener(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	url := "http://" + ln.Addr().String() + "/metrics"

	pr, pw := io.Pipe()
	done := make(chan error, 1)
	go func() {
		done <- run(config.Default(), ln, pr, io.Discard, false)
	}()

	_, err = pw.Write([]byte("BEGIN\n"))
	require.NoError(t, err)

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(url)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "txkv_transaction_active")

	require.NoError(t, pw.Close())
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after EOF")
	}

	client.CloseIdleConnections()
	_, err = client.Get(url)
	assert.Error(t, err, "metrics listener still serving after run returned")
}
