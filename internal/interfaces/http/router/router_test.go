package router

import (
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	cashierapp "github.com/juliohebert/loja-sub000/internal/application/cashier"
	financeapp "github.com/juliohebert/loja-sub000/internal/application/finance"
	inventoryapp "github.com/juliohebert/loja-sub000/internal/application/inventory"
	partnerapp "github.com/juliohebert/loja-sub000/internal/application/partner"
	tradeapp "github.com/juliohebert/loja-sub000/internal/application/trade"
	"github.com/juliohebert/loja-sub000/internal/domain/shared"
	"github.com/juliohebert/loja-sub000/internal/domain/tenant"
	"github.com/juliohebert/loja-sub000/internal/infrastructure/lock"
	"github.com/juliohebert/loja-sub000/internal/infrastructure/persistence"
	"github.com/juliohebert/loja-sub000/internal/infrastructure/persistence/models"
	"github.com/juliohebert/loja-sub000/internal/interfaces/http/handler"
	"github.com/juliohebert/loja-sub000/internal/interfaces/http/middleware"
	"github.com/juliohebert/loja-sub000/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testAPI struct {
	db       *gorm.DB
	engine   *gin.Engine
	tenantID uuid.UUID
	userID   uuid.UUID
	client   *testutil.APIClient
}

// newTestAPI wires the real services over an in-memory sqlite database.
func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	database, err := persistence.OpenSQLite(":memory:", persistence.Options{})
	require.NoError(t, err)
	require.NoError(t, persistence.AutoMigrate(database.DB))
	t.Cleanup(func() { _ = database.Close() })

	db := database.DB
	scope := persistence.NewGormTransactionScope(db)
	directory := persistence.NewGormPartnerDirectory(db)
	locker := lock.NewLocalLocker()

	sessions := cashierapp.NewCashSessionService(scope,
		persistence.NewGormSettingsProvider(db, tenant.StaticSettingsProvider{}), nil)
	accounts := partnerapp.NewCustomerAccountService(scope, locker, nil)
	accounts.SetCustomerDirectory(directory)
	orders := tradeapp.NewPurchaseOrderService(scope, nil)
	orders.SetSupplierDirectory(directory)
	orders.SetPayableTermDays(30)
	sales := tradeapp.NewSaleService(scope, sessions, locker, nil)
	sales.SetCustomerDirectory(directory)
	ledger := financeapp.NewLedgerService(scope, nil)
	ledger.SetCustomerLocker(locker)

	engine := New(Config{}, Handlers{
		Sales:          handler.NewSaleHandler(sales),
		Ledger:         handler.NewLedgerHandler(ledger),
		Accounts:       handler.NewCustomerAccountHandler(accounts),
		PurchaseOrders: handler.NewPurchaseOrderHandler(orders),
		CashSessions:   handler.NewCashSessionHandler(sessions),
		StockUnits:     handler.NewStockUnitHandler(inventoryapp.NewStockLedgerService(scope, nil)),
		Health:         handler.NewHealthHandler(database, "test"),
	})

	api := &testAPI{db: db, engine: engine, tenantID: uuid.New(), userID: uuid.New()}
	api.client = testutil.NewAPIClient(t, engine).
		WithHeader(middleware.TenantHeaderKey, api.tenantID.String()).
		WithHeader(middleware.UserHeaderKey, api.userID.String())
	return api
}

func (a *testAPI) defineStockUnit(t *testing.T, qty int) inventoryapp.StockUnitResponse {
	t.Helper()
	resp := a.client.Post("/api/v1/stock-units", inventoryapp.DefineStockUnitRequest{
		ProductID:        uuid.New(),
		Variant:          "M / black",
		ReorderThreshold: 1,
		InitialQuantity:  qty,
	})
	testutil.RequireStatus(t, resp, http.StatusCreated)
	return testutil.Decode[inventoryapp.StockUnitResponse](t, resp)
}

func (a *testAPI) stockQuantity(t *testing.T, id uuid.UUID) int {
	t.Helper()
	resp := a.client.Get("/api/v1/stock-units/" + id.String())
	testutil.RequireStatus(t, resp, http.StatusOK)
	return testutil.Decode[inventoryapp.StockUnitResponse](t, resp).Quantity
}

func (a *testAPI) seedPartner(t *testing.T, model any) {
	t.Helper()
	require.NoError(t, a.db.Create(model).Error)
}

func (a *testAPI) partner(name string) models.PartnerModel {
	return models.PartnerModel{ID: uuid.New(), TenantID: a.tenantID, Name: name, CreatedAt: time.Now()}
}

func cashSale(unitID uuid.UUID, qty int, price string) tradeapp.FinalizeSaleRequest {
	return tradeapp.FinalizeSaleRequest{
		Items:         []tradeapp.SaleLineRequest{{StockUnitID: unitID, Quantity: qty, UnitPrice: decimal.RequireFromString(price)}},
		PaymentMethod: "cash",
	}
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)
	// no tenant header needed
	resp := testutil.NewAPIClient(t, api.engine).Get("/health")
	testutil.RequireStatus(t, resp, http.StatusOK)

	body := testutil.Decode[handler.HealthResponse](t, resp)
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "ok", body.Checks["database"])
	assert.NotEmpty(t, resp.Header.Get(middleware.RequestIDHeader))
}

func TestAPI_RequiresTenant(t *testing.T) {
	api := newTestAPI(t)
	resp := testutil.NewAPIClient(t, api.engine).Get("/api/v1/cash-sessions/current")
	testutil.AssertError(t, resp, http.StatusBadRequest, shared.CodeTenantRequired)
}

func TestAPI_LastUnitSellsOnce(t *testing.T) {
	api := newTestAPI(t)
	unit := api.defineStockUnit(t, 1)

	first := api.client.Post("/api/v1/sales", cashSale(unit.ID, 1, "49.90"))
	testutil.RequireStatus(t, first, http.StatusCreated)
	sale := testutil.Decode[tradeapp.SaleResponse](t, first)
	assert.Equal(t, "active", sale.Status)
	assert.Equal(t, api.userID, sale.SellerID)
	assert.True(t, sale.Total.Equal(decimal.RequireFromString("49.90")))

	second := api.client.Post("/api/v1/sales", cashSale(unit.ID, 1, "49.90"))
	testutil.AssertError(t, second, http.StatusUnprocessableEntity, shared.CodeInsufficientStock)
	assert.Equal(t, unit.ID.String(), second.Error.Details["stock_unit_id"])
	assert.EqualValues(t, 0, second.Error.Details["available"])

	assert.Zero(t, api.stockQuantity(t, unit.ID))

	movements := api.client.Get("/api/v1/stock-units/" + unit.ID.String() + "/movements")
	testutil.RequireStatus(t, movements, http.StatusOK)
	list := testutil.Decode[[]inventoryapp.StockMovementResponse](t, movements)
	require.Len(t, list, 2)
	directions := []string{list[0].Direction, list[1].Direction}
	assert.ElementsMatch(t, []string{"credit", "debit"}, directions)
}

func TestAPI_ConcurrentSales(t *testing.T) {
	// outcomes runs n sales at once and counts responses by status and error code.
	outcomes := func(api *testAPI, n int, req tradeapp.FinalizeSaleRequest) map[string]int {
		var (
			wg     sync.WaitGroup
			mu     sync.Mutex
			counts = map[string]int{}
		)
		start := make(chan struct{})
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				resp := api.client.Post("/api/v1/sales", req)
				key := fmt.Sprint(resp.Code)
				if resp.Error != nil {
					key += " " + resp.Error.Code
				}
				mu.Lock()
				counts[key]++
				mu.Unlock()
			}()
		}
		close(start)
		wg.Wait()
		return counts
	}

	t.Run("last unit sells once", func(t *testing.T) {
		api := newTestAPI(t)
		unit := api.defineStockUnit(t, 1)

		counts := outcomes(api, 8, cashSale(unit.ID, 1, "49.90"))

		soldOut := "422 " + shared.CodeInsufficientStock
		assert.Equal(t, map[string]int{"201": 1, soldOut: 7}, counts)
		assert.Zero(t, api.stockQuantity(t, unit.ID))

		movements := api.client.Get("/api/v1/stock-units/" + unit.ID.String() + "/movements")
		testutil.RequireStatus(t, movements, http.StatusOK)
		assert.Len(t, testutil.Decode[[]inventoryapp.StockMovementResponse](t, movements), 2)
	})

	t.Run("credit limit holds across parallel credit sales", func(t *testing.T) {
		api := newTestAPI(t)
		customer := models.CustomerModel{PartnerModel: api.partner("Joana Lima")}
		api.seedPartner(t, &customer)
		customerID := customer.ID
		base := "/api/v1/customers/" + customerID.String()
		unit := api.defineStockUnit(t, 10)

		limit := api.client.Post(base+"/transactions", partnerapp.RecordTransactionRequest{
			Kind: "credit_increase", Amount: decimal.NewFromInt(50),
		})
		testutil.RequireStatus(t, limit, http.StatusCreated)

		req := cashSale(unit.ID, 1, "20")
		req.PaymentMethod = "credit"
		req.CustomerID = &customerID
		counts := outcomes(api, 5, req)

		overLimit := "422 " + shared.CodeCreditLimitExceeded
		assert.Equal(t, map[string]int{"201": 2, overLimit: 3}, counts)
		assert.Equal(t, 8, api.stockQuantity(t, unit.ID))

		account := testutil.Decode[partnerapp.CustomerAccountResponse](t, api.client.Get(base+"/account"))
		assert.True(t, account.DebtBalance.Equal(decimal.NewFromInt(40)))
	})
}

func TestAPI_SaleValidation(t *testing.T) {
	api := newTestAPI(t)

	t.Run("empty cart", func(t *testing.T) {
		resp := api.client.Post("/api/v1/sales", tradeapp.FinalizeSaleRequest{PaymentMethod: "pix"})
		testutil.AssertError(t, resp, http.StatusUnprocessableEntity, shared.CodeEmptyCart)
	})

	t.Run("missing payment method", func(t *testing.T) {
		resp := api.client.Post("/api/v1/sales", map[string]any{"items": []any{}})
		testutil.AssertError(t, resp, http.StatusBadRequest, shared.CodeValidation)
	})

	t.Run("credit sale needs a customer", func(t *testing.T) {
		unit := api.defineStockUnit(t, 3)
		req := cashSale(unit.ID, 1, "10")
		req.PaymentMethod = "credit"
		resp := api.client.Post("/api/v1/sales", req)
		testutil.AssertError(t, resp, http.StatusUnprocessableEntity, shared.CodeCustomerRequired)
		assert.Equal(t, 3, api.stockQuantity(t, unit.ID))
	})

	t.Run("unknown customer", func(t *testing.T) {
		unit := api.defineStockUnit(t, 3)
		req := cashSale(unit.ID, 1, "10")
		stranger := uuid.New()
		req.CustomerID = &stranger
		resp := api.client.Post("/api/v1/sales", req)
		testutil.AssertError(t, resp, http.StatusNotFound, shared.CodeNotFound)
		assert.Equal(t, 3, api.stockQuantity(t, unit.ID))
	})

	t.Run("unknown sale", func(t *testing.T) {
		resp := api.client.Get("/api/v1/sales/" + uuid.NewString())
		testutil.AssertError(t, resp, http.StatusNotFound, shared.CodeNotFound)
	})

	t.Run("malformed id", func(t *testing.T) {
		resp := api.client.Get("/api/v1/sales/not-a-uuid")
		testutil.AssertError(t, resp, http.StatusBadRequest, shared.CodeValidation)
	})
}

func TestAPI_IdempotentFinalizeAndCancel(t *testing.T) {
	api := newTestAPI(t)
	unit := api.defineStockUnit(t, 5)
	client := api.client.WithHeader(handler.IdempotencyKeyHeader, "checkout-42")

	first := client.Post("/api/v1/sales", cashSale(unit.ID, 2, "10"))
	testutil.RequireStatus(t, first, http.StatusCreated)
	replay := client.Post("/api/v1/sales", cashSale(unit.ID, 2, "10"))
	testutil.RequireStatus(t, replay, http.StatusOK)

	original := testutil.Decode[tradeapp.SaleResponse](t, first)
	replayed := testutil.Decode[tradeapp.SaleResponse](t, replay)
	assert.Equal(t, original.ID, replayed.ID)
	assert.True(t, replayed.Replayed)
	assert.Equal(t, 3, api.stockQuantity(t, unit.ID))

	path := fmt.Sprintf("/api/v1/sales/%s/cancel", original.ID)
	t.Run("reason is required", func(t *testing.T) {
		resp := api.client.Post(path, map[string]any{})
		testutil.AssertError(t, resp, http.StatusBadRequest, shared.CodeValidation)
	})

	cancelled := api.client.Post(path, tradeapp.CancelSaleRequest{Reason: "customer changed their mind"})
	testutil.RequireStatus(t, cancelled, http.StatusOK)
	assert.Equal(t, "cancelled", testutil.Decode[tradeapp.SaleResponse](t, cancelled).Status)
	assert.Equal(t, 5, api.stockQuantity(t, unit.ID))

	again := api.client.Post(path, tradeapp.CancelSaleRequest{Reason: "twice"})
	testutil.AssertError(t, again, http.StatusConflict, shared.CodeSaleAlreadyCancelled)
}

func TestAPI_CreditSaleAgainstCustomerAccount(t *testing.T) {
	api := newTestAPI(t)
	customer := models.CustomerModel{PartnerModel: api.partner("Maria Souza")}
	api.seedPartner(t, &customer)
	customerID := customer.ID
	base := "/api/v1/customers/" + customerID.String()
	unit := api.defineStockUnit(t, 10)

	limit := api.client.Post(base+"/transactions", partnerapp.RecordTransactionRequest{
		Kind: "credit_increase", Amount: decimal.NewFromInt(100), Description: "initial limit",
	})
	testutil.RequireStatus(t, limit, http.StatusCreated)

	check := api.client.Get(base + "/credit-check?amount=150")
	testutil.RequireStatus(t, check, http.StatusOK)
	assert.False(t, testutil.Decode[partnerapp.CreditCheckResponse](t, check).Allowed)

	bad := api.client.Get(base + "/credit-check?amount=lots")
	testutil.AssertError(t, bad, http.StatusBadRequest, shared.CodeValidation)

	req := cashSale(unit.ID, 2, "40")
	req.PaymentMethod = "credit"
	req.CustomerID = &customerID
	sale := api.client.Post("/api/v1/sales", req)
	testutil.RequireStatus(t, sale, http.StatusCreated)
	creditSale := testutil.Decode[tradeapp.SaleResponse](t, sale)
	assert.NotNil(t, creditSale.CustomerTransactionID)
	require.NotNil(t, creditSale.ReceivableID)

	account := api.client.Get(base + "/account")
	testutil.RequireStatus(t, account, http.StatusOK)
	acc := testutil.Decode[partnerapp.CustomerAccountResponse](t, account)
	assert.True(t, acc.DebtBalance.Equal(decimal.NewFromInt(80)))
	assert.True(t, acc.AvailableCredit.Equal(decimal.NewFromInt(20)))

	over := cashSale(unit.ID, 1, "30")
	over.PaymentMethod = "credit"
	over.CustomerID = &customerID
	rejected := api.client.Post("/api/v1/sales", over)
	testutil.AssertError(t, rejected, http.StatusUnprocessableEntity, shared.CodeCreditLimitExceeded)
	assert.Equal(t, 8, api.stockQuantity(t, unit.ID))

	txs := api.client.Get(base + "/transactions?page=1&page_size=10")
	testutil.RequireStatus(t, txs, http.StatusOK)
	history := testutil.Decode[[]partnerapp.CustomerTransactionResponse](t, txs)
	require.Len(t, history, 2)

	// paying the sale's receivable pays down the customer's debt
	settle := api.client.Post("/api/v1/ledger/entries/"+creditSale.ReceivableID.String()+"/settle", financeapp.SettleLedgerEntryRequest{
		Amount: decimal.NewFromInt(80), PaymentMethod: "pix",
	})
	testutil.RequireStatus(t, settle, http.StatusOK)
	paid := testutil.Decode[partnerapp.CustomerAccountResponse](t, api.client.Get(base+"/account"))
	assert.True(t, paid.DebtBalance.IsZero())
	assert.True(t, paid.AvailableCredit.Equal(decimal.NewFromInt(100)))

	testutil.RequireStatus(t, api.client.Post("/api/v1/sales", over), http.StatusCreated)
	assert.Equal(t, 7, api.stockQuantity(t, unit.ID))

	// reverse the limit increase: the debt stays, the limit goes back to zero
	var limitTx partnerapp.CustomerTransactionResponse
	for _, tx := range history {
		if tx.Kind == "credit_increase" {
			limitTx = tx
		}
	}
	reversePath := fmt.Sprintf("%s/transactions/%s/reverse", base, limitTx.ID)
	testutil.RequireStatus(t, api.client.Post(reversePath, nil), http.StatusCreated)
	again := api.client.Post(reversePath, nil)
	testutil.AssertError(t, again, http.StatusConflict, shared.CodeTransactionReversed)

	// customers without history read as a zero account
	fresh := api.client.Get("/api/v1/customers/" + uuid.NewString() + "/account")
	testutil.RequireStatus(t, fresh, http.StatusOK)
	assert.True(t, testutil.Decode[partnerapp.CustomerAccountResponse](t, fresh).DebtBalance.IsZero())
}

func TestAPI_CashSessions(t *testing.T) {
	api := newTestAPI(t)

	t.Run("actor is required", func(t *testing.T) {
		anonymous := testutil.NewAPIClient(t, api.engine).WithHeader(middleware.TenantHeaderKey, api.tenantID.String())
		resp := anonymous.Post("/api/v1/cash-sessions", cashierapp.OpenCashSessionRequest{})
		testutil.AssertError(t, resp, http.StatusBadRequest, shared.CodeValidation)
	})

	t.Run("negative opening amount", func(t *testing.T) {
		resp := api.client.Post("/api/v1/cash-sessions", map[string]any{"opening_amount": "-5"})
		testutil.AssertError(t, resp, http.StatusBadRequest, shared.CodeValidation)
	})

	none := api.client.Get("/api/v1/cash-sessions/current")
	assert.Equal(t, http.StatusNotFound, none.Code)

	opened := api.client.Post("/api/v1/cash-sessions", cashierapp.OpenCashSessionRequest{OpeningAmount: decimal.NewFromInt(100)})
	testutil.RequireStatus(t, opened, http.StatusCreated)
	session := testutil.Decode[cashierapp.CashSessionResponse](t, opened)
	assert.Equal(t, api.userID, session.OpenedBy)

	dup := api.client.Post("/api/v1/cash-sessions", cashierapp.OpenCashSessionRequest{})
	testutil.AssertError(t, dup, http.StatusConflict, shared.CodeSessionAlreadyOpen)

	current := api.client.Get("/api/v1/cash-sessions/current")
	testutil.RequireStatus(t, current, http.StatusOK)
	assert.Equal(t, session.ID, testutil.Decode[cashierapp.CashSessionResponse](t, current).ID)

	// an open session is attached to sales even when the tenant does not require one
	unit := api.defineStockUnit(t, 1)
	sale := api.client.Post("/api/v1/sales", cashSale(unit.ID, 1, "5"))
	testutil.RequireStatus(t, sale, http.StatusCreated)
	assert.Equal(t, &session.ID, testutil.Decode[tradeapp.SaleResponse](t, sale).CashSessionID)

	closePath := fmt.Sprintf("/api/v1/cash-sessions/%s/close", session.ID)
	testutil.RequireStatus(t, api.client.Post(closePath, nil), http.StatusOK)
	again := api.client.Post(closePath, nil)
	testutil.AssertError(t, again, http.StatusUnprocessableEntity, shared.CodeInvalidTransition)
}

func TestAPI_PurchaseOrderReceipt(t *testing.T) {
	api := newTestAPI(t)
	supplier := models.SupplierModel{PartnerModel: api.partner("Tecidos Lima")}
	api.seedPartner(t, &supplier)
	unit := api.defineStockUnit(t, 0)

	t.Run("negative shipping cost", func(t *testing.T) {
		resp := api.client.Post("/api/v1/purchase-orders", map[string]any{
			"supplier_id":   supplier.ID,
			"items":         []map[string]any{{"stock_unit_id": unit.ID, "quantity": 1, "unit_cost": "10"}},
			"shipping_cost": "-1",
		})
		testutil.AssertError(t, resp, http.StatusBadRequest, shared.CodeValidation)
	})

	submitted := api.client.Post("/api/v1/purchase-orders", tradeapp.SubmitPurchaseOrderRequest{
		SupplierID:   supplier.ID,
		Items:        []tradeapp.PurchaseOrderLineRequest{{StockUnitID: unit.ID, Quantity: 6, UnitCost: decimal.RequireFromString("12.50")}},
		ShippingCost: decimal.NewFromInt(5),
	})
	testutil.RequireStatus(t, submitted, http.StatusCreated)
	order := testutil.Decode[tradeapp.PurchaseOrderResponse](t, submitted)
	assert.Equal(t, "pending", order.Status)
	assert.True(t, order.Total.Equal(decimal.NewFromInt(80)))
	base := "/api/v1/purchase-orders/" + order.ID.String()

	// a unit referenced by an open order cannot be deleted
	inUse := api.client.Do(http.MethodDelete, "/api/v1/stock-units/"+unit.ID.String(), nil)
	testutil.AssertError(t, inUse, http.StatusConflict, shared.CodeStockUnitInUse)

	toReceived := api.client.Post(base+"/status", tradeapp.AdvancePurchaseOrderRequest{Status: "received"})
	testutil.AssertError(t, toReceived, http.StatusUnprocessableEntity, shared.CodeInvalidTransition)

	approved := api.client.Post(base+"/status", tradeapp.AdvancePurchaseOrderRequest{Status: "approved"})
	testutil.RequireStatus(t, approved, http.StatusOK)
	assert.Equal(t, "approved", testutil.Decode[tradeapp.PurchaseOrderResponse](t, approved).Status)

	received := api.client.Post(base+"/receive", nil)
	testutil.RequireStatus(t, received, http.StatusOK)
	assert.Equal(t, "received", testutil.Decode[tradeapp.PurchaseOrderResponse](t, received).Status)
	assert.Equal(t, 6, api.stockQuantity(t, unit.ID))

	again := api.client.Post(base+"/receive", nil)
	testutil.AssertError(t, again, http.StatusConflict, shared.CodeAlreadyReceived)
	assert.Equal(t, 6, api.stockQuantity(t, unit.ID))

	payables := api.client.Get("/api/v1/ledger/entries?kind=payable&counterparty_id=" + supplier.ID.String())
	testutil.RequireStatus(t, payables, http.StatusOK)
	entries := testutil.Decode[[]financeapp.LedgerEntryResponse](t, payables)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Amount.Equal(decimal.NewFromInt(80)))
	assert.Equal(t, order.ID.String(), entries[0].SourceID)
}

func TestAPI_LedgerEntries(t *testing.T) {
	api := newTestAPI(t)

	created := api.client.Post("/api/v1/ledger/entries", financeapp.CreateLedgerEntryRequest{
		Kind:        "receivable",
		Description: "consignment",
		Amount:      decimal.NewFromInt(100),
		DueDate:     time.Now().AddDate(0, 0, 10),
	})
	testutil.RequireStatus(t, created, http.StatusCreated)
	entries := testutil.Decode[[]financeapp.LedgerEntryResponse](t, created)
	require.Len(t, entries, 1)
	base := "/api/v1/ledger/entries/" + entries[0].ID.String()

	settled := api.client.Post(base+"/settle", financeapp.SettleLedgerEntryRequest{Amount: decimal.NewFromInt(40), PaymentMethod: "pix"})
	testutil.RequireStatus(t, settled, http.StatusOK)
	entry := testutil.Decode[financeapp.LedgerEntryResponse](t, settled)
	assert.True(t, entry.OutstandingAmount.Equal(decimal.NewFromInt(60)))

	over := api.client.Post(base+"/settle", financeapp.SettleLedgerEntryRequest{Amount: decimal.NewFromInt(100)})
	testutil.AssertError(t, over, http.StatusUnprocessableEntity, shared.CodeOverSettlement)

	zero := api.client.Post(base+"/settle", map[string]any{"amount": "0"})
	testutil.AssertError(t, zero, http.StatusUnprocessableEntity, shared.CodeInvalidAmount)

	writtenOff := api.client.Post(base+"/write-off", financeapp.CloseLedgerEntryRequest{Reason: "customer moved away"})
	testutil.RequireStatus(t, writtenOff, http.StatusOK)
	assert.Equal(t, "cancelled", testutil.Decode[financeapp.LedgerEntryResponse](t, writtenOff).Status)

	cancelled := api.client.Post(base+"/cancel", nil)
	testutil.AssertError(t, cancelled, http.StatusUnprocessableEntity, shared.CodeEntryCancelled)

	list := api.client.Get("/api/v1/ledger/entries?status=cancelled")
	testutil.RequireStatus(t, list, http.StatusOK)
	assert.Len(t, testutil.Decode[[]financeapp.LedgerEntryResponse](t, list), 1)

	badFilter := api.client.Get("/api/v1/ledger/entries?status=open")
	testutil.AssertError(t, badFilter, http.StatusBadRequest, shared.CodeValidation)

	missing := api.client.Get("/api/v1/ledger/entries/" + uuid.NewString())
	testutil.AssertError(t, missing, http.StatusNotFound, shared.CodeNotFound)
}
