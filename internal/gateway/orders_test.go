package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderClient_ListCustomerOrders_FiltersByCustomer(t *testing.T) {
	var gotUsername, gotAuthUser, gotAuthToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUsername = r.URL.Query().Get("username")
		gotAuthUser = r.Header.Get("X-Auth-Username")
		gotAuthToken = r.Header.Get("X-Auth-Token")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"orders": [
			{"order_id": "N1001", "username": "acme", "grand_total": "1500.00",
			 "payments": [{"amount": 500}, {"amount": "300.00"}],
			 "date_due": "2024-05-01"}
		]}`))
	}))
	defer srv.Close()

	client := NewOrderClient(srv.URL, "api-user", "api-key")
	orders, err := client.ListCustomerOrders(context.Background(), "acme")
	require.NoError(t, err)

	// The customer filter must survive; auth lives in headers.
	assert.Equal(t, "acme", gotUsername)
	assert.Equal(t, "api-user", gotAuthUser)
	assert.Equal(t, "api-key", gotAuthToken)

	require.Len(t, orders, 1)
	assert.Equal(t, "N1001", orders[0].ID)
	assert.Equal(t, "1500", orders[0].GrandTotal.String())
	require.Len(t, orders[0].Payments, 2)
	assert.Equal(t, "500", orders[0].Payments[0].Amount.String())
	assert.Equal(t, "300", orders[0].Payments[1].Amount.String())
	assert.Equal(t, "2024-05-01", orders[0].DueDate)
}

func TestOrderClient_ListCustomers_Pagination(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("page") == "1" {
			_, _ = w.Write([]byte(`{"customers": [{"username": "acme", "company": "Acme Pty", "email_address": "ap@acme.test"}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"customers": []}`))
	}))
	defer srv.Close()

	client := NewOrderClient(srv.URL, "api-user", "api-key")

	page1, err := client.ListCustomers(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, page1, 1)
	assert.Equal(t, "acme", page1[0].Ref)
	assert.Equal(t, "Acme Pty", page1[0].Company)

	page2, err := client.ListCustomers(context.Background(), 2)
	require.NoError(t, err)
	assert.Empty(t, page2)
}

func TestOrderClient_GetOrder_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewOrderClient(srv.URL, "api-user", "api-key")
	_, err := client.GetOrder(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestOrderClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	client := NewOrderClient(srv.URL, "api-user", "api-key")
	_, err := client.GetOrder(context.Background(), "N1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrOrderNotFound)
	assert.Contains(t, err.Error(), "502")
}
