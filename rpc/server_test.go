package rpc

import (
	"bytes"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xssnick/tonutils-go/address"

	"tonescrow/contract/escrow"
	"tonescrow/core/events"
	"tonescrow/vm"
)

func testAddr(fill byte) *address.Address {
	return address.NewAddress(0, 0, bytes.Repeat([]byte{fill}, 32))
}

func newTestServer(t *testing.T) (*vm.Sandbox, *httptest.Server) {
	t.Helper()
	deal := &escrow.Deal{
		ContextID: 9,
		Seller:    testAddr(0x01),
		Guarantor: testAddr(0x02),
		Amount:    big.NewInt(1_000_000_000),
		Royalty:   1000,
		Asset:     escrow.NativeAsset(),
		State:     escrow.DealInit,
	}
	sandbox, err := vm.NewSandbox(testAddr(0xEE), deal, big.NewInt(0))
	require.NoError(t, err)

	history := events.NewMemoryEmitter()
	sandbox.Engine().SetEmitter(history)

	srv := httptest.NewServer(NewServer(sandbox, history, nil).Router())
	t.Cleanup(srv.Close)
	return sandbox, srv
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return resp.StatusCode
}

func TestDealEndpoint(t *testing.T) {
	_, srv := newTestServer(t)
	var result DealResult
	status := getJSON(t, srv.URL+"/v1/deal", &result)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, uint32(9), result.ContextID)
	require.Equal(t, "init", result.State)
	require.Equal(t, "native", result.Asset)
	require.Equal(t, "1000000000", result.Amount)
	require.Nil(t, result.Buyer)
}

func TestStateAndRoyaltyEndpoints(t *testing.T) {
	sandbox, srv := newTestServer(t)

	var state StateResult
	getJSON(t, srv.URL+"/v1/deal/state", &state)
	require.Equal(t, "init", state.State)

	var royalty RoyaltyResult
	getJSON(t, srv.URL+"/v1/deal/royalty", &royalty)
	require.Equal(t, "10000000", royalty.Royalty)

	_, err := sandbox.Deliver(&escrow.Message{Sender: testAddr(0x03), Value: big.NewInt(1_000_000_000)})
	require.NoError(t, err)

	getJSON(t, srv.URL+"/v1/deal/state", &state)
	require.Equal(t, "funded", state.State)

	var deal DealResult
	getJSON(t, srv.URL+"/v1/deal", &deal)
	require.NotNil(t, deal.Buyer)
	require.Equal(t, testAddr(0x03).String(), *deal.Buyer)
}

func TestEventsEndpoint(t *testing.T) {
	sandbox, srv := newTestServer(t)
	_, err := sandbox.Deliver(&escrow.Message{Sender: testAddr(0x03), Value: big.NewInt(1_000_000_000)})
	require.NoError(t, err)

	var results []EventResult
	getJSON(t, srv.URL+"/v1/deal/events", &results)
	require.Len(t, results, 1)
	require.Equal(t, escrow.EventTypeDealFunded, results[0].Type)
	require.Equal(t, "funded", results[0].Attributes["state"])
}

func TestDestroyedDealReportsGone(t *testing.T) {
	sandbox, srv := newTestServer(t)
	_, err := sandbox.Deliver(&escrow.Message{Sender: testAddr(0x03), Value: big.NewInt(1_000_000_000)})
	require.NoError(t, err)
	_, err = sandbox.Deliver(&escrow.Message{Sender: testAddr(0x02), Value: big.NewInt(100_000_000), Body: escrow.BuildTopUp()})
	require.NoError(t, err)
	_, err = sandbox.Deliver(&escrow.Message{Sender: testAddr(0x02), Value: big.NewInt(0), Body: escrow.BuildCancel()})
	require.NoError(t, err)

	var state StateResult
	status := getJSON(t, srv.URL+"/v1/deal/state", &state)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "destroyed", state.State)

	var deal DealResult
	status = getJSON(t, srv.URL+"/v1/deal", &deal)
	require.Equal(t, http.StatusGone, status)
}

func TestHealthz(t *testing.T) {
	_, srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
