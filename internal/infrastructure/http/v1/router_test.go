package v1_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estoque/internal/core/id"
	"estoque/internal/domain/adjustment"
	"estoque/internal/infrastructure/export/xlsx"
	v1 "estoque/internal/infrastructure/http/v1"
	"estoque/internal/infrastructure/storage/memory"
	"estoque/pkg/logger"
)

type apiEnv struct {
	router   http.Handler
	periodID id.ID
}

func newAPI(t *testing.T) *apiEnv {
	t.Helper()

	store := memory.New()
	periodID := memory.NewFixture(store).Demo()

	router := v1.NewRouter(v1.RouterConfig{
		Logger:         logger.Nop(),
		Storage:        "memory",
		Periods:        store,
		Records:        store,
		Products:       store,
		Transfers:      store,
		AuditSink:      store,
		TxManager:      store,
		PageSize:       2,
		OverdrawPolicy: adjustment.OverdrawReject,
	})
	return &apiEnv{router: router, periodID: periodID}
}

func (e *apiEnv) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

type rowView struct {
	Code        string              `json:"code"`
	Description string              `json:"description"`
	Received    decimal.Decimal     `json:"received"`
	Given       decimal.Decimal     `json:"given"`
	Theoretical decimal.Decimal     `json:"theoreticalQty"`
	FinalQty    decimal.Decimal     `json:"finalQty"`
	AverageCost decimal.NullDecimal `json:"averageCost"`
	ExitOnly    bool                `json:"exitOnly"`
}

func (e *apiEnv) consolidation(t *testing.T) map[string]rowView {
	t.Helper()

	w := e.do(t, http.MethodGet, "/api/v1/periods/"+e.periodID.String()+"/consolidation", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Rows []rowView `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	out := make(map[string]rowView, len(body.Rows))
	for _, r := range body.Rows {
		out[r.Code] = r
	}
	return out
}

func TestHealth(t *testing.T) {
	api := newAPI(t)

	assert.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/health/live", nil).Code)
	assert.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/health/ready", nil).Code)

	w := api.do(t, http.MethodGet, "/health/info", nil)
	assert.Contains(t, w.Body.String(), `"storage":"memory"`)
}

func TestConsolidation_DemoPeriod(t *testing.T) {
	api := newAPI(t)
	rows := api.consolidation(t)

	one := rows["000001"]
	assert.True(t, decimal.NewFromInt(20).Equal(one.Theoretical), "100 + 50 - 130, got %s", one.Theoretical)
	require.True(t, one.AverageCost.Valid)
	assert.True(t, decimal.RequireFromString("2.5").Equal(one.AverageCost.Decimal))

	four := rows["000004"]
	assert.True(t, four.ExitOnly)
	assert.Equal(t, "PORCA SEXTAVADA M6", four.Description)
	assert.False(t, four.AverageCost.Valid)
}

func TestConsolidation_XLSX(t *testing.T) {
	api := newAPI(t)

	w := api.do(t, http.MethodGet, "/api/v1/periods/"+api.periodID.String()+"/consolidation?format=xlsx", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsx.ContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")
	assert.NotZero(t, w.Body.Len())

	w = api.do(t, http.MethodGet, "/api/v1/periods/"+api.periodID.String()+"/consolidation?format=pdf", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdjustments_CreateDeleteAndHistory(t *testing.T) {
	api := newAPI(t)
	before := api.consolidation(t)

	w := api.do(t, http.MethodPost, "/api/v1/adjustments", map[string]any{
		"periodId":    api.periodID.String(),
		"codNegativo": "1",
		"codPositivo": "2",
		"quantity":    "5",
		"unitCost":    "10",
	}, "X-Operator-ID", "maria")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		ID          string `json:"id"`
		CodNegativo string `json:"codNegativo"`
		CreatedBy   string `json:"createdBy"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "000001", created.CodNegativo)
	assert.Equal(t, "maria", created.CreatedBy)

	after := api.consolidation(t)
	assert.True(t, before["000001"].FinalQty.Add(decimal.NewFromInt(5)).Equal(after["000001"].FinalQty))
	assert.True(t, before["000002"].FinalQty.Sub(decimal.NewFromInt(5)).Equal(after["000002"].FinalQty))
	assert.True(t, before["000003"].FinalQty.Equal(after["000003"].FinalQty))

	w = api.do(t, http.MethodGet, "/api/v1/adjustments?periodId="+api.periodID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":0`, "unscoped list excludes transfers bound to the ledger batch")

	w = api.do(t, http.MethodDelete, "/api/v1/adjustments/"+created.ID, nil, "X-Operator-ID", "joao")
	require.Equal(t, http.StatusNoContent, w.Code)

	restored := api.consolidation(t)
	assert.True(t, before["000001"].FinalQty.Equal(restored["000001"].FinalQty))

	w = api.do(t, http.MethodGet, "/api/v1/adjustments/"+created.ID+"/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history struct {
		Items []struct {
			Action     string `json:"action"`
			OperatorID string `json:"operatorId"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	require.Len(t, history.Items, 2)
	assert.Equal(t, "delete", history.Items[0].Action)
	assert.Equal(t, "joao", history.Items[0].OperatorID)
	assert.Equal(t, "maria", history.Items[1].OperatorID)
}

func TestAdjustments_Errors(t *testing.T) {
	api := newAPI(t)

	tests := []struct {
		name     string
		body     map[string]any
		wantCode int
		wantErr  string
	}{
		{
			name:     "blank code",
			body:     map[string]any{"periodId": api.periodID.String(), "codNegativo": " ", "codPositivo": "2", "quantity": "1"},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "bad period id",
			body:     map[string]any{"periodId": "x", "codNegativo": "1", "codPositivo": "2", "quantity": "1"},
			wantCode: http.StatusBadRequest,
			wantErr:  "VALIDATION_ERROR",
		},
		{
			name:     "unknown code",
			body:     map[string]any{"periodId": api.periodID.String(), "codNegativo": "1", "codPositivo": "999", "quantity": "1"},
			wantCode: http.StatusUnprocessableEntity,
			wantErr:  "UNKNOWN_ITEM_CODE",
		},
		{
			name:     "overdraw rejected",
			body:     map[string]any{"periodId": api.periodID.String(), "codNegativo": "1", "codPositivo": "3", "quantity": "500"},
			wantCode: http.StatusUnprocessableEntity,
			wantErr:  "OVERDRAW_REJECTED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.do(t, http.MethodPost, "/api/v1/adjustments", tt.body)
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
			if tt.wantErr != "" {
				assert.Contains(t, w.Body.String(), tt.wantErr)
			}
		})
	}

	w := api.do(t, http.MethodDelete, "/api/v1/adjustments/"+id.New().String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPeriodsAndBatches(t *testing.T) {
	api := newAPI(t)

	w := api.do(t, http.MethodPost, "/api/v1/periods", map[string]any{"year": 2024, "month": 2})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var p struct {
		ID    string `json:"id"`
		Label string `json:"label"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Equal(t, "02/2024", p.Label)

	w = api.do(t, http.MethodPost, "/api/v1/periods/"+p.ID+"/activate", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = api.do(t, http.MethodGet, "/api/v1/periods/active", nil)
	assert.Contains(t, w.Body.String(), p.ID)

	w = api.do(t, http.MethodPost, "/api/v1/batches", map[string]any{"sourceType": "ledger", "name": "sped-fev.txt"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var b struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &b))

	w = api.do(t, http.MethodPut, "/api/v1/batches/"+b.ID+"/base", map[string]any{"isBase": true})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "unlinked batch cannot be base")

	w = api.do(t, http.MethodPut, "/api/v1/batches/"+b.ID+"/period", map[string]any{"periodId": p.ID})
	require.Equal(t, http.StatusNoContent, w.Code)
	w = api.do(t, http.MethodPut, "/api/v1/batches/"+b.ID+"/base", map[string]any{"isBase": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(t, http.MethodGet, "/api/v1/periods/"+p.ID+"/resolution", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ledgerBatchId":"`+b.ID+`"`)

	w = api.do(t, http.MethodGet, "/api/v1/periods/not-an-id/batches", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOverridesAndConversions(t *testing.T) {
	api := newAPI(t)

	w := api.do(t, http.MethodGet, "/api/v1/exits", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodPost, "/api/v1/conversions", map[string]any{
		"code": "7", "fromUnit": "fd", "toUnit": "un", "factor": "24",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"code":"000007"`)
	assert.Contains(t, w.Body.String(), `"fromUnit":"FD"`)

	w = api.do(t, http.MethodGet, "/api/v1/conversions?code=000007", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)

	w = api.do(t, http.MethodPut, "/api/v1/batches/"+id.New().String()+"/entry-lines/missing/override", map[string]any{"adjustedQuantity": "1"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(t, http.MethodPut, "/api/v1/batches/not-an-id/entry-lines/missing/override", map[string]any{"adjustedQuantity": "1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodPut, "/api/v1/products/4", map[string]any{"description": "PORCA M6", "unit": "un"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	rows := api.consolidation(t)
	assert.Equal(t, "PORCA M6", rows["000004"].Description)
}

func TestEntryOverride_ScopedToLedgerBatch(t *testing.T) {
	api := newAPI(t)

	w := api.do(t, http.MethodGet, "/api/v1/periods/"+api.periodID.String()+"/resolution", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res struct {
		StockBatchID  string `json:"stockBatchId"`
		LedgerBatchID string `json:"ledgerBatchId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.NotEmpty(t, res.LedgerBatchID)

	// The demo ledger's first entry line (code 1, 50 units) is E-000005.
	ledgerPath := "/api/v1/batches/" + res.LedgerBatchID + "/entry-lines/E-000005/override"
	stockPath := "/api/v1/batches/" + res.StockBatchID + "/entry-lines/E-000005/override"

	w = api.do(t, http.MethodPut, stockPath, map[string]any{"adjustedQuantity": "40"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(t, http.MethodPut, ledgerPath, map[string]any{"adjustedQuantity": "40"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, decimal.NewFromInt(10).Equal(api.consolidation(t)["000001"].Theoretical))

	w = api.do(t, http.MethodDelete, ledgerPath, nil)
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
	assert.True(t, decimal.NewFromInt(20).Equal(api.consolidation(t)["000001"].Theoretical))
}
