package rpcclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/web3ekko/ekko-streams/pkg/rpcclient"
)

func TestHTTPClientGetBlockByHashSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"transactions":[{"hash":"0x1"}]}}`))
	}))
	defer srv.Close()

	c := rpcclient.NewHTTPClient(rpcclient.RetryConfig{MaxAttempts: 3, Pause: time.Millisecond, Timeout: time.Second})
	result, err := c.GetBlockByHash(context.Background(), srv.URL, "0xabc")
	require.NoError(t, err)

	var probe struct {
		Transactions []json.RawMessage `json:"transactions"`
	}
	require.NoError(t, json.Unmarshal(result, &probe))
	require.Len(t, probe.Transactions, 1)
}

func TestHTTPClientMissingTransactionsIsTerminal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"number":"0x1"}}`))
	}))
	defer srv.Close()

	var calls int
	srv.Config.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"number":"0x1"}}`))
	})

	c := rpcclient.NewHTTPClient(rpcclient.RetryConfig{MaxAttempts: 3, Pause: time.Millisecond, Timeout: time.Second})
	_, err := c.GetBlockByHash(context.Background(), srv.URL, "0xabc")
	require.Error(t, err)
	require.ErrorIs(t, err, rpcclient.ErrParse)
	require.Equal(t, 1, calls) // parse errors are terminal, not retried
}

func TestHTTPClientRetriesOnNon2xxStatus(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"transactions":[]}}`))
	}))
	defer srv.Close()

	c := rpcclient.NewHTTPClient(rpcclient.RetryConfig{MaxAttempts: 3, Pause: time.Millisecond, Timeout: time.Second})
	_, err := c.GetBlockByHash(context.Background(), srv.URL, "0xabc")
	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestHTTPClientGetBlockNumberSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":"0x1b4"}`))
	}))
	defer srv.Close()

	c := rpcclient.NewHTTPClient(rpcclient.RetryConfig{MaxAttempts: 3, Pause: time.Millisecond, Timeout: time.Second})
	n, err := c.GetBlockNumber(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, uint64(0x1b4), n)
}

func TestHTTPClientRpcErrorFieldIsRetriableThenTerminal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32000,"message":"boom"}}`))
	}))
	defer srv.Close()

	c := rpcclient.NewHTTPClient(rpcclient.RetryConfig{MaxAttempts: 2, Pause: time.Millisecond, Timeout: time.Second})
	_, err := c.GetLogs(context.Background(), srv.URL, 1, 1)
	require.Error(t, err)
}
