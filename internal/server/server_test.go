package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hav/internal/accounts"
	"hav/internal/ledger"
	"hav/internal/ws"
)

const secret = "test-secret"

type env struct {
	srv    *httptest.Server
	ledger *ledger.Ledger
	store  *accounts.MemoryStore
	accs   []accounts.Account
}

func newEnv(t *testing.T) *env {
	t.Helper()
	log, _ := logtest.NewNullLogger()
	accs := accounts.DevAccounts(3, accounts.DevBalance)
	store := accounts.NewMemoryStore(accs...)

	hub := ws.NewHub(log)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	l := ledger.New(ledger.WithLogger(log), ledger.WithHashCost(4), ledger.WithObserver(hub))
	s := NewServer(":0", l, ledger.AddressFromHash([]byte("instance")), store, hub, secret, 1, log)
	srv := httptest.NewServer(s.Router())
	t.Cleanup(srv.Close)
	return &env{srv: srv, ledger: l, store: store, accs: accs}
}

type response struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func (e *env) do(t *testing.T, method, path, token string, body any) (int, response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	var out response
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	return res.StatusCode, out
}

func (e *env) token(t *testing.T, a accounts.Account) string {
	t.Helper()
	status, res := e.do(t, http.MethodPost, "/auth/token", "", map[string]string{"address": a.Address.String()})
	require.Equal(t, http.StatusOK, status)
	var data struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(res.Data, &data))
	return data.Token
}

func (e *env) owner(t *testing.T, query ledger.Address) (int, response) {
	return e.do(t, http.MethodGet, "/room/owner?address="+query.String(), "", nil)
}

func ownerOf(t *testing.T, res response) ledger.Address {
	t.Helper()
	var data struct {
		Owner ledger.Address `json:"owner"`
	}
	require.NoError(t, json.Unmarshal(res.Data, &data))
	return data.Owner
}

func (e *env) balance(t *testing.T, a accounts.Account) ledger.Wei {
	t.Helper()
	got, err := e.store.Get(context.Background(), a.Address)
	require.NoError(t, err)
	return got.Balance
}

func TestHealth(t *testing.T) {
	e := newEnv(t)
	status, res := e.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, res.Success)
}

func TestBookApproveRevokeLeaveOverHTTP(t *testing.T) {
	e := newEnv(t)
	a, b, c := e.accs[0], e.accs[1], e.accs[2]
	tok := e.token(t, a)

	status, res := e.do(t, http.MethodPost, "/room/book", tok, map[string]string{"password": "password", "value": "50000 gwei"})
	require.Equal(t, http.StatusOK, status, res.Message)

	status, res = e.owner(t, a.Address)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, a.Address, ownerOf(t, res))
	assert.Equal(t, accounts.DevBalance-50_000*ledger.Gwei, e.balance(t, a))

	for _, step := range []struct{ path, delegate string }{
		{"/room/approve", b.Address.String()},
		{"/room/approve", c.Address.String()},
		{"/room/revoke", b.Address.String()},
	} {
		status, res = e.do(t, http.MethodPost, step.path, tok, map[string]string{"delegate": step.delegate})
		require.Equal(t, http.StatusOK, status, res.Message)
	}
	assert.Equal(t, []ledger.Address{c.Address}, e.ledger.Approved())

	status, _ = e.do(t, http.MethodPost, "/room/leave", tok, nil)
	require.Equal(t, http.StatusOK, status)

	status, res = e.owner(t, a.Address)
	assert.Equal(t, http.StatusNotFound, status)
	assert.False(t, res.Success)
	assert.Equal(t, "NoOwner", res.Error)
	assert.Empty(t, e.ledger.Approved())
}

func TestBookForOverHTTP(t *testing.T) {
	e := newEnv(t)
	a, b := e.accs[0], e.accs[1]

	status, res := e.do(t, http.MethodPost, "/room/book-for", e.token(t, a),
		map[string]string{"recipient": b.Address.String(), "password": "password", "value": "50000 gwei"})
	require.Equal(t, http.StatusOK, status, res.Message)

	_, res = e.owner(t, b.Address)
	owner := ownerOf(t, res)
	assert.Equal(t, b.Address, owner)
	assert.NotEqual(t, a.Address, owner)

	// The payer was charged, the recipient was not.
	assert.Equal(t, accounts.DevBalance-50_000*ledger.Gwei, e.balance(t, a))
	assert.Equal(t, accounts.DevBalance, e.balance(t, b))
}

func TestInsufficientPaymentIsRefunded(t *testing.T) {
	e := newEnv(t)
	a := e.accs[0]

	status, res := e.do(t, http.MethodPost, "/room/book", e.token(t, a), map[string]string{"password": "pw", "value": "49999 gwei"})
	assert.Equal(t, http.StatusPaymentRequired, status)
	assert.Equal(t, "InsufficientPayment", res.Error)
	assert.Equal(t, accounts.DevBalance, e.balance(t, a))

	status, _ = e.owner(t, a.Address)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestBookWithoutFunds(t *testing.T) {
	e := newEnv(t)
	a := e.accs[0]

	status, res := e.do(t, http.MethodPost, "/room/book", e.token(t, a), map[string]string{"value": "11 ether"})
	assert.Equal(t, http.StatusPaymentRequired, status)
	assert.Equal(t, "InsufficientFunds", res.Error)
	assert.False(t, e.ledger.Snapshot().Occupied())
}

func TestNonOwnerIsRejected(t *testing.T) {
	e := newEnv(t)
	a, b := e.accs[0], e.accs[1]
	require.NoError(t, e.ledger.Book(ledger.Call{Sender: a.Address, Value: e.ledger.RequiredFee()}, "pw"))
	tok := e.token(t, b)

	for _, path := range []string{"/room/approve", "/room/revoke", "/room/leave"} {
		status, res := e.do(t, http.MethodPost, path, tok, map[string]string{"delegate": b.Address.String()})
		assert.Equal(t, http.StatusForbidden, status, path)
		assert.Equal(t, "Unauthorized", res.Error, path)
	}

	owner, err := e.ledger.ViewOwner(b.Address)
	require.NoError(t, err)
	assert.Equal(t, a.Address, owner)
	assert.Empty(t, e.ledger.Approved())
}

func TestVacantRoomRejectsOwnerOperations(t *testing.T) {
	e := newEnv(t)
	status, res := e.do(t, http.MethodPost, "/room/leave", e.token(t, e.accs[0]), nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "NotOccupied", res.Error)
}

func TestAdmitOverHTTP(t *testing.T) {
	e := newEnv(t)
	a, b, c := e.accs[0], e.accs[1], e.accs[2]
	tokA := e.token(t, a)

	status, _ := e.do(t, http.MethodPost, "/room/book", tokA, map[string]string{"password": "open sesame", "value": "50000 gwei"})
	require.Equal(t, http.StatusOK, status)
	status, _ = e.do(t, http.MethodPost, "/room/approve", tokA, map[string]string{"delegate": b.Address.String()})
	require.Equal(t, http.StatusOK, status)

	status, _ = e.do(t, http.MethodPost, "/room/admit", e.token(t, b), map[string]string{"password": "open sesame"})
	assert.Equal(t, http.StatusOK, status)

	status, res := e.do(t, http.MethodPost, "/room/admit", e.token(t, b), map[string]string{"password": "nope"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "WrongPassword", res.Error)

	status, res = e.do(t, http.MethodPost, "/room/admit", e.token(t, c), map[string]string{"password": "open sesame"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Unauthorized", res.Error)
}

func TestRoomState(t *testing.T) {
	e := newEnv(t)
	status, res := e.do(t, http.MethodGet, "/room", "", nil)
	require.Equal(t, http.StatusOK, status)

	var room struct {
		Occupied       bool   `json:"occupied"`
		RequiredFee    string `json:"required_fee"`
		RequiredFeeWei string `json:"required_fee_wei"`
	}
	require.NoError(t, json.Unmarshal(res.Data, &room))
	assert.False(t, room.Occupied)
	assert.Equal(t, "50000 gwei", room.RequiredFee)
	assert.Equal(t, "50000000000000", room.RequiredFeeWei)
}

func TestAuthErrors(t *testing.T) {
	e := newEnv(t)

	status, _ := e.do(t, http.MethodPost, "/room/book", "", map[string]string{"value": "50000 gwei"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = e.do(t, http.MethodPost, "/room/book", "garbage", map[string]string{"value": "50000 gwei"})
	assert.Equal(t, http.StatusUnauthorized, status)

	unknown := ledger.AddressFromHash([]byte("stranger"))
	status, _ = e.do(t, http.MethodPost, "/auth/token", "", map[string]string{"address": unknown.String()})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = e.do(t, http.MethodPost, "/auth/token", "", map[string]string{"address": "not-an-address"})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestBadRequests(t *testing.T) {
	e := newEnv(t)
	tok := e.token(t, e.accs[0])

	status, _ := e.do(t, http.MethodPost, "/room/book", tok, map[string]string{"value": "many"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = e.do(t, http.MethodPost, "/room/approve", tok, map[string]string{"delegate": "0x1"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = e.do(t, http.MethodGet, "/room/owner?address=zzz", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAccounts(t *testing.T) {
	e := newEnv(t)

	status, res := e.do(t, http.MethodGet, "/accounts", "", nil)
	require.Equal(t, http.StatusOK, status)
	var list []struct {
		Address ledger.Address `json:"address"`
		Label   string         `json:"label"`
	}
	require.NoError(t, json.Unmarshal(res.Data, &list))
	require.Len(t, list, 3)
	assert.Equal(t, e.accs[0].Address, list[0].Address)

	status, res = e.do(t, http.MethodGet, "/accounts/me", e.token(t, e.accs[1]), nil)
	require.Equal(t, http.StatusOK, status)
	var me struct {
		Address    ledger.Address `json:"address"`
		BalanceWei string         `json:"balance_wei"`
	}
	require.NoError(t, json.Unmarshal(res.Data, &me))
	assert.Equal(t, e.accs[1].Address, me.Address)
	assert.Equal(t, "10000000000000000000", me.BalanceWei)
}

func TestEventStream(t *testing.T) {
	e := newEnv(t)
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(e.srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	a := e.accs[0]
	tok := e.token(t, a)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))

	// The subscriber registers asynchronously; keep producing events until one arrives.
	got := make(chan ledger.Event, 1)
	go func() {
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				close(got)
				return
			}
			var m struct {
				Event ledger.Event `json:"event"`
			}
			if json.Unmarshal(msg, &m) == nil && m.Event.Kind == ledger.EventBooked {
				got <- m.Event
				return
			}
		}
	}()

	deadline := time.After(3 * time.Second)
	for {
		status, _ := e.do(t, http.MethodPost, "/room/book", tok, map[string]string{"password": "pw", "value": "50000 gwei"})
		require.Equal(t, http.StatusOK, status)
		select {
		case ev, ok := <-got:
			require.True(t, ok, "websocket closed before an event arrived")
			assert.Equal(t, a.Address, ev.Owner)
			return
		case <-deadline:
			t.Fatal("no event received")
		case <-time.After(50 * time.Millisecond):
		}
		status, _ = e.do(t, http.MethodPost, "/room/leave", tok, nil)
		require.Equal(t, http.StatusOK, status)
	}
}
