package service

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/littlelemon/api/internal/database"
	"github.com/littlelemon/api/internal/enum"
	"github.com/shopspring/decimal"
)

// --- Mock implementations ---

// mockTx implements pgx.Tx with only the methods we need.
// The unused methods panic so we catch accidental calls.
type mockTx struct {
	commitErr   error
	rollbackErr error
	committed   bool
	rolledBack  bool
}

func (m *mockTx) Begin(ctx context.Context) (pgx.Tx, error) { panic("not implemented") }
func (m *mockTx) Commit(ctx context.Context) error {
	m.committed = true
	return m.commitErr
}
func (m *mockTx) Rollback(ctx context.Context) error {
	m.rolledBack = true
	return m.rollbackErr
}
func (m *mockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}
func (m *mockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}
func (m *mockTx) LargeObjects() pgx.LargeObjects { panic("not implemented") }
func (m *mockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}
func (m *mockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}
func (m *mockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("not implemented")
}
func (m *mockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	panic("not implemented")
}
func (m *mockTx) Conn() *pgx.Conn { panic("not implemented") }

// mockTxBeginner implements TxBeginner.
type mockTxBeginner struct {
	tx  pgx.Tx
	err error
}

func (m *mockTxBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	return m.tx, m.err
}

// mockOrderStore implements OrderStore with configurable behavior.
type mockOrderStore struct {
	listCartItemsForUpdateFn func(ctx context.Context, userID int64) ([]database.CartItem, error)
	createOrderFn            func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	createOrderItemFn        func(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	clearCartFn              func(ctx context.Context, userID int64) error
}

func (m *mockOrderStore) ListCartItemsForUpdate(ctx context.Context, userID int64) ([]database.CartItem, error) {
	return m.listCartItemsForUpdateFn(ctx, userID)
}
func (m *mockOrderStore) CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
	return m.createOrderFn(ctx, arg)
}
func (m *mockOrderStore) CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error) {
	return m.createOrderItemFn(ctx, arg)
}
func (m *mockOrderStore) ClearCart(ctx context.Context, userID int64) error {
	return m.clearCartFn(ctx, userID)
}

// --- Test helpers ---

func makeNumeric(val string) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(val)
	return n
}

func numericEquals(n pgtype.Numeric, expected string) bool {
	d := numericToDecimal(n)
	exp, _ := decimal.NewFromString(expected)
	return d.Equal(exp)
}

func cartRow(id, userID, menuItemID int64, quantity int16, unitPrice, price string) database.CartItem {
	return database.CartItem{
		ID:         id,
		UserID:     userID,
		MenuItemID: menuItemID,
		Quantity:   quantity,
		UnitPrice:  makeNumeric(unitPrice),
		Price:      makeNumeric(price),
	}
}

// newTestOrderService creates an OrderService with mocked dependencies.
func newTestOrderService(store *mockOrderStore) (*OrderService, *mockTx) {
	tx := &mockTx{}
	pool := &mockTxBeginner{tx: tx}
	newStore := func(db database.DBTX) OrderStore { return store }
	return NewOrderService(pool, newStore), tx
}

// --- Tests ---

func TestCreateFromCart_EmptyCart(t *testing.T) {
	store := &mockOrderStore{
		listCartItemsForUpdateFn: func(ctx context.Context, userID int64) ([]database.CartItem, error) {
			return nil, nil
		},
		createOrderFn: func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
			t.Fatal("no order should be created from an empty cart")
			return database.Order{}, nil
		},
	}
	svc, tx := newTestOrderService(store)

	_, err := svc.CreateFromCart(context.Background(), 10)
	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("got %v, want ErrEmptyCart", err)
	}
	if tx.committed {
		t.Error("transaction must not commit")
	}
	if !tx.rolledBack {
		t.Error("transaction should roll back")
	}
}

func TestCreateFromCart_SumsTotalsAndClearsCart(t *testing.T) {
	var gotOrder database.CreateOrderParams
	var gotItems []database.CreateOrderItemParams
	var clearedUser int64

	store := &mockOrderStore{
		listCartItemsForUpdateFn: func(ctx context.Context, userID int64) ([]database.CartItem, error) {
			return []database.CartItem{
				cartRow(1, 10, 100, 2, "12.50", "25.00"),
				cartRow(2, 10, 101, 1, "6.50", "6.50"),
			}, nil
		},
		createOrderFn: func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
			gotOrder = arg
			return database.Order{ID: 77, UserID: arg.UserID, Status: arg.Status, Total: arg.Total}, nil
		},
		createOrderItemFn: func(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error) {
			gotItems = append(gotItems, arg)
			return database.OrderItem{
				ID:         int64(len(gotItems)),
				OrderID:    arg.OrderID,
				MenuItemID: arg.MenuItemID,
				Quantity:   arg.Quantity,
				UnitPrice:  arg.UnitPrice,
				Price:      arg.Price,
			}, nil
		},
		clearCartFn: func(ctx context.Context, userID int64) error {
			clearedUser = userID
			return nil
		},
	}
	svc, tx := newTestOrderService(store)

	result, err := svc.CreateFromCart(context.Background(), 10)
	if err != nil {
		t.Fatalf("create from cart: %v", err)
	}

	if gotOrder.UserID != 10 {
		t.Errorf("order user: got %d, want 10", gotOrder.UserID)
	}
	if gotOrder.Status != enum.OrderStatusPending {
		t.Errorf("order status: got %d, want pending", gotOrder.Status)
	}
	if !numericEquals(gotOrder.Total, "31.50") {
		t.Errorf("order total: got %v, want 31.50", gotOrder.Total)
	}

	if len(gotItems) != 2 {
		t.Fatalf("order items: got %d, want 2", len(gotItems))
	}
	if gotItems[0].OrderID != 77 || gotItems[1].OrderID != 77 {
		t.Error("order items must reference the created order")
	}
	if gotItems[0].Quantity != 2 || !numericEquals(gotItems[0].Price, "25.00") {
		t.Errorf("first item snapshot wrong: %+v", gotItems[0])
	}

	if clearedUser != 10 {
		t.Errorf("cart cleared for user %d, want 10", clearedUser)
	}
	if !tx.committed {
		t.Error("transaction should commit")
	}
	if len(result.Items) != 2 {
		t.Errorf("result items: got %d, want 2", len(result.Items))
	}
}

func TestCreateFromCart_ItemInsertFailureAborts(t *testing.T) {
	insertErr := errors.New("insert failed")
	store := &mockOrderStore{
		listCartItemsForUpdateFn: func(ctx context.Context, userID int64) ([]database.CartItem, error) {
			return []database.CartItem{cartRow(1, 10, 100, 1, "5.00", "5.00")}, nil
		},
		createOrderFn: func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
			return database.Order{ID: 77}, nil
		},
		createOrderItemFn: func(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error) {
			return database.OrderItem{}, insertErr
		},
		clearCartFn: func(ctx context.Context, userID int64) error {
			t.Fatal("cart must not be cleared when an item insert fails")
			return nil
		},
	}
	svc, tx := newTestOrderService(store)

	_, err := svc.CreateFromCart(context.Background(), 10)
	if !errors.Is(err, insertErr) {
		t.Fatalf("got %v, want wrapped insert error", err)
	}
	if tx.committed {
		t.Error("transaction must not commit")
	}
}

func TestCreateFromCart_CommitFailure(t *testing.T) {
	store := &mockOrderStore{
		listCartItemsForUpdateFn: func(ctx context.Context, userID int64) ([]database.CartItem, error) {
			return []database.CartItem{cartRow(1, 10, 100, 1, "5.00", "5.00")}, nil
		},
		createOrderFn: func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
			return database.Order{ID: 77}, nil
		},
		createOrderItemFn: func(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error) {
			return database.OrderItem{ID: 1, OrderID: arg.OrderID}, nil
		},
		clearCartFn: func(ctx context.Context, userID int64) error { return nil },
	}
	svc, tx := newTestOrderService(store)
	tx.commitErr = errors.New("commit failed")

	if _, err := svc.CreateFromCart(context.Background(), 10); err == nil {
		t.Fatal("expected commit error to propagate")
	}
}
