package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sovrlabs/checkout-gateway/internal/oracle"
)

func getBalance(f *testFixture, query string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/api/oracle-ledger/balance"+query, nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestOracleBalance_RequiresUserID(t *testing.T) {
	f := newFixture(t)

	w := getBalance(f, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestOracleBalance_NewUserStarter(t *testing.T) {
	f := newFixture(t)

	w := getBalance(f, "?userId=0xnewuser")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	resp := decodeJSON(t, w)
	data := resp["data"].(map[string]interface{})
	if data["available"].(float64) != 100000 {
		t.Errorf("available = %v, want 100000", data["available"])
	}
	if data["availableUSD"].(string) != "1000" {
		t.Errorf("availableUSD = %v", data["availableUSD"])
	}
}

func TestOracleBalance_SingleAccount(t *testing.T) {
	f := newFixture(t)

	w := getBalance(f, "?userId=0xu&accountId=1000")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	data := decodeJSON(t, w)["data"].(map[string]interface{})
	if data["balance"].(float64) != 50000000 {
		t.Errorf("Cash-ODFI balance = %v, want 50000000", data["balance"])
	}

	w = getBalance(f, "?userId=0xu&accountId=notanumber")
	if w.Code != http.StatusBadRequest {
		t.Errorf("non-integer accountId: status = %d, want 400", w.Code)
	}
}

func TestOracleBalance_CreditPost(t *testing.T) {
	f := newFixture(t)

	// Establish the user first so the credit lands on an existing balance.
	if w := getBalance(f, "?userId=0xbuyer"); w.Code != http.StatusOK {
		t.Fatalf("seed user: status = %d", w.Code)
	}

	body := []byte(`{"userId": "0xbuyer", "amount": 25.00, "source": "PROMO"}`)
	w := f.post("/api/oracle-ledger/balance", body, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	resp := decodeJSON(t, w)
	if resp["success"] != true {
		t.Errorf("success = %v", resp["success"])
	}
	if resp["journalEntryId"] == nil || resp["journalEntryId"] == "" {
		t.Errorf("journalEntryId missing")
	}

	balance := resp["balance"].(map[string]interface{})
	if balance["available"].(float64) != 100000+2500 {
		t.Errorf("available after credit = %v, want 102500", balance["available"])
	}

	// Both sides of the entry folded into the accounts.
	if got := f.cfg.Oracle.AccountBalance(oracle.AccountCashVaultUSDC); got != 25000000-2500 {
		t.Errorf("Cash-Vault = %d", got)
	}
	if got := f.cfg.Oracle.AccountBalance(oracle.AccountCashODFI); got != 50000000+2500 {
		t.Errorf("Cash-ODFI = %d", got)
	}
}

func TestOracleBalance_CreditValidation(t *testing.T) {
	f := newFixture(t)

	for name, body := range map[string][]byte{
		"missing userId": []byte(`{"amount": 10}`),
		"zero amount":    []byte(`{"userId": "0xu", "amount": 0}`),
	} {
		w := f.post("/api/oracle-ledger/balance", body, nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", name, w.Code)
		}
	}
}
