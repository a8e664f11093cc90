package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/oliveigah/banking-prototype/internal/adapter/storage/file"
	"github.com/oliveigah/banking-prototype/internal/core/domain"
	"github.com/oliveigah/banking-prototype/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAccessKey = "operator-key"

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	pool, err := file.NewPool(filepath.Join(t.TempDir(), "data"), 3, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	rates, err := service.NewRatesService(
		service.NewStaticRateSource(map[string]float64{"USD": 1, "BRL": 5.45}),
		pool, time.Hour, zerolog.Nop(),
	)
	require.NoError(t, err)

	registry, err := service.NewAccountRegistry(
		pool, rates,
		domain.NewAccountArgs{DefaultCurrency: "BRL", Limit: -500},
		time.Minute, 16, zerolog.Nop(),
	)
	require.NoError(t, err)
	t.Cleanup(registry.Close)

	hashSvc := service.NewArgon2HashService()
	hash, err := hashSvc.Hash(testAccessKey)
	require.NoError(t, err)
	tokenSvc := service.NewJWTTokenService("test-secret", time.Hour, "banking-prototype")
	authSvc := service.NewAuthService(hash, hashSvc, tokenSvc)

	return SetupRouter(RouterDeps{
		AuthSvc:    authSvc,
		AccountSvc: service.NewAccountEngine(registry),
		TokenSvc:   tokenSvc,
		Logger:     zerolog.Nop(),
	})
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func issueToken(t *testing.T, r *gin.Engine, accountID int64) string {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/token", "", gin.H{
		"account_id": accountID,
		"access_key": testAccessKey,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.Token)
	return resp.Data.Token
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t)
	w := doJSON(t, r, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuth_Token_WrongKey(t *testing.T) {
	r := newTestRouter(t)
	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/token", "", gin.H{
		"account_id": 1,
		"access_key": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAccounts_RequireBearerToken(t *testing.T) {
	r := newTestRouter(t)
	w := doJSON(t, r, http.MethodPost, "/api/v1/accounts/deposit", "", gin.H{
		"amount": 100, "currency": "BRL",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAccounts_DepositAndBalance(t *testing.T) {
	r := newTestRouter(t)
	token := issueToken(t, r, 1)

	w := doJSON(t, r, http.MethodPost, "/api/v1/accounts/deposit", token, gin.H{
		"amount": 5000, "currency": "BRL", "note": "salary",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data struct {
			Balance   int64 `json:"balance"`
			Operation struct {
				ID     int64          `json:"id"`
				Type   string         `json:"type"`
				Status string         `json:"status"`
				Data   map[string]any `json:"data"`
			} `json:"operation"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(5000), resp.Data.Balance)
	assert.Equal(t, "deposit", resp.Data.Operation.Type)
	assert.Equal(t, "done", resp.Data.Operation.Status)
	assert.Equal(t, "salary", resp.Data.Operation.Data["note"])

	w = doJSON(t, r, http.MethodGet, "/api/v1/accounts/balance?currency=BRL", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"balance":5000`)
}

func TestAccounts_WithdrawDenialIsAnOutcome(t *testing.T) {
	r := newTestRouter(t)
	token := issueToken(t, r, 1)

	w := doJSON(t, r, http.MethodPost, "/api/v1/accounts/withdraw", token, gin.H{
		"amount": 9999, "currency": "BRL",
	})
	// Denials are recorded outcomes, not errors.
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"denied":true`)
	assert.Contains(t, w.Body.String(), "No BRL funds")
}

func TestAccounts_ValidationErrors(t *testing.T) {
	r := newTestRouter(t)
	token := issueToken(t, r, 1)

	w := doJSON(t, r, http.MethodPost, "/api/v1/accounts/deposit", token, gin.H{
		"amount": -5, "currency": "BRL",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAccounts_TransferBetweenAccounts(t *testing.T) {
	r := newTestRouter(t)
	sender := issueToken(t, r, 1)
	recipient := issueToken(t, r, 2)

	w := doJSON(t, r, http.MethodPost, "/api/v1/accounts/deposit", sender, gin.H{
		"amount": 5000, "currency": "BRL",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/v1/accounts/transfer", sender, gin.H{
		"amount": 2000, "currency": "BRL", "recipient_account_id": 2,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"transfer_out"`)
	assert.Contains(t, w.Body.String(), `"transfer_in"`)

	w = doJSON(t, r, http.MethodGet, "/api/v1/accounts/balance?currency=BRL", recipient, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"balance":2000`)
}

func TestAccounts_RefundNotFound(t *testing.T) {
	r := newTestRouter(t)
	token := issueToken(t, r, 1)

	w := doJSON(t, r, http.MethodPost, "/api/v1/accounts/refund", token, gin.H{
		"operation_to_refund_id": 42,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "ACC_001")
}

func TestAccounts_Operations(t *testing.T) {
	r := newTestRouter(t)
	token := issueToken(t, r, 1)

	for i := 0; i < 3; i++ {
		w := doJSON(t, r, http.MethodPost, "/api/v1/accounts/deposit", token, gin.H{
			"amount": 100, "currency": "BRL",
		})
		require.Equal(t, http.StatusOK, w.Code)
	}

	today := time.Now().UTC().Format("2006-01-02")
	w := doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/v1/accounts/operations?date=%s", today), token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Operations []json.RawMessage `json:"operations"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data.Operations, 3)

	w = doJSON(t, r, http.MethodGet, "/api/v1/accounts/operations/2", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":2`)
}
