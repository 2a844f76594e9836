package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRestRecordStoreLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		switch r.URL.Path {
		case "/v1/permits/1":
			_, _ = io.WriteString(w, `{"code":0,"msg":"ok","data":{"list":[{"id":"1","nonce":"1","transaction":"0xabc"}]}}`)
		case "/v1/permits/2":
			_, _ = io.WriteString(w, `{"code":0,"msg":"ok","data":{"list":[{"id":"2","nonce":"2","transaction":null}]}}`)
		case "/v1/permits/3":
			_, _ = io.WriteString(w, `{"code":0,"msg":"ok","data":{"list":[]}}`)
		case "/v1/permits/5":
			_, _ = io.WriteString(w, `{"code":0,"msg":"ok","data":{"list":[{"id":"5","nonce":"5","transaction":null,"spent_at":1700000000000}]}}`)
		default:
			_, _ = io.WriteString(w, `{"code":1,"msg":"boom"}`)
		}
	}))
	defer srv.Close()

	store := NewRestRecordStore(srv.URL+"/", nil)
	ctx := context.Background()

	tx, found, err := store.LookupTransaction(ctx, "1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "0xabc", tx)

	for _, nonce := range []string{"2", "3"} {
		_, found, err = store.LookupTransaction(ctx, nonce)
		require.NoError(t, err)
		assert.False(t, found, nonce)
	}

	tx, found, err = store.LookupTransaction(ctx, "5")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, tx)

	_, _, err = store.LookupTransaction(ctx, "4")
	assert.ErrorIs(t, err, ErrRecordStore)
}

func TestRestRecordStoreRecordRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/v1/permits/9/transaction", r.URL.Path)

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "0xabc", body["transaction"])

		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = io.WriteString(w, `{"code":0,"msg":"ok"}`)
	}))
	defer srv.Close()

	store := NewRestRecordStore(srv.URL, nil)
	require.NoError(t, store.RecordTransaction(context.Background(), "9", "0xabc"))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestRestRecordStoreRecordPermanentFailure(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = io.WriteString(w, `{"code":1,"msg":"invalid nonce"}`)
	}))
	defer srv.Close()

	store := NewRestRecordStore(srv.URL, nil)
	store.MaxElapsed = time.Second

	err := store.RecordTransaction(context.Background(), "9", "0xabc")
	assert.ErrorIs(t, err, ErrRecordStore)
	assert.Contains(t, err.Error(), "invalid nonce")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
