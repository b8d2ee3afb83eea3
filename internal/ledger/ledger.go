package ledger

import (
	"encoding/hex"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"hav/internal/utils"
)

// Call is the per-call context: who is calling and what they attached.
type Call struct {
	Sender Address
	Value  Wei
}

// Room is a point-in-time copy of the ledger state.
type Room struct {
	Owner       *Address
	Approved    []Address
	RequiredFee Wei
	Balance     Wei
}

func (r Room) Occupied() bool { return r.Owner != nil }

// Ledger holds exclusive occupancy of a single room. All methods are safe
// for concurrent use; each call is applied atomically or not at all.
type Ledger struct {
	mu           sync.Mutex
	owner        *Address
	approved     map[Address]struct{}
	passwordHash string
	balance      Wei

	fee       Wei
	hashCost  int
	observers []Observer
	log       logrus.FieldLogger
	now       func() time.Time
}

type Option func(*Ledger)

func WithRequiredFee(fee Wei) Option {
	return func(l *Ledger) { l.fee = fee }
}

func WithObserver(o Observer) Option {
	return func(l *Ledger) { l.observers = append(l.observers, o) }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(l *Ledger) { l.log = log }
}

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithHashCost sets the bcrypt cost used for booking passwords.
func WithHashCost(cost int) Option {
	return func(l *Ledger) { l.hashCost = cost }
}

// New returns a vacant ledger.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		approved: make(map[Address]struct{}),
		fee:      DefaultRequiredFee,
		hashCost: utils.DefaultPasswordCost,
		log:      logrus.StandardLogger(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Book gives the room to the caller.
func (l *Ledger) Book(call Call, password string) error {
	return l.book("book", call, call.Sender, password)
}

// BookFor gives the room to recipient; the caller pays.
func (l *Ledger) BookFor(call Call, recipient Address, password string) error {
	return l.book("bookFor", call, recipient, password)
}

func (l *Ledger) book(op string, call Call, owner Address, password string) error {
	if owner.IsZero() {
		return revert(op, call.Sender, ErrInvalidAddress)
	}
	// Hash outside the lock; bcrypt is slow on purpose.
	hash, err := l.hashPassword(password)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.owner != nil {
		return revert(op, call.Sender, ErrOccupied)
	}
	if call.Value < l.fee {
		return revert(op, call.Sender, ErrInsufficientPayment)
	}
	if l.balance > math.MaxUint64-call.Value {
		return revert(op, call.Sender, ErrBalanceOverflow)
	}

	l.owner = &owner
	l.approved = make(map[Address]struct{})
	l.passwordHash = hash
	l.balance += call.Value

	l.log.WithFields(logrus.Fields{
		"op":     op,
		"sender": call.Sender.String(),
		"owner":  owner.String(),
		"value":  call.Value.String(),
	}).Info("room booked")
	l.emit(Event{Kind: EventBooked, Sender: call.Sender, Owner: owner, Value: call.Value})
	return nil
}

// Approve grants delegate standing in the room. Owner only.
func (l *Ledger) Approve(call Call, delegate Address) error {
	if delegate.IsZero() {
		return revert("approve", call.Sender, ErrInvalidAddress)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkOwner(call.Sender); err != nil {
		return revert("approve", call.Sender, err)
	}
	l.approved[delegate] = struct{}{}

	l.log.WithFields(logrus.Fields{"owner": call.Sender.String(), "delegate": delegate.String()}).Debug("delegate approved")
	l.emit(Event{Kind: EventApproved, Sender: call.Sender, Owner: *l.owner, Delegate: &delegate})
	return nil
}

// Revoke withdraws delegate's standing. Revoking an address that was never
// approved succeeds and changes nothing.
func (l *Ledger) Revoke(call Call, delegate Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkOwner(call.Sender); err != nil {
		return revert("revoke", call.Sender, err)
	}
	if _, ok := l.approved[delegate]; !ok {
		return nil
	}
	delete(l.approved, delegate)

	l.log.WithFields(logrus.Fields{"owner": call.Sender.String(), "delegate": delegate.String()}).Debug("delegate revoked")
	l.emit(Event{Kind: EventRevoked, Sender: call.Sender, Owner: *l.owner, Delegate: &delegate})
	return nil
}

// Leave vacates the room and forgets every approved delegate. Owner only.
func (l *Ledger) Leave(call Call) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkOwner(call.Sender); err != nil {
		return revert("leave", call.Sender, err)
	}
	owner := *l.owner
	l.owner = nil
	l.approved = make(map[Address]struct{})
	l.passwordHash = ""

	l.log.WithField("owner", owner.String()).Info("room vacated")
	l.emit(Event{Kind: EventLeft, Sender: call.Sender, Owner: owner})
	return nil
}

// ViewOwner returns the current owner. The query address is not used to
// select anything: every query sees the single room's owner.
func (l *Ledger) ViewOwner(_ Address) (Address, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.owner == nil {
		return ZeroAddress, revert("viewOwner", ZeroAddress, ErrNoOwner)
	}
	return *l.owner, nil
}

// Admit checks that sender may enter the room: the room must be occupied,
// sender must be the owner or an approved delegate, and password must match
// the one given at booking.
func (l *Ledger) Admit(sender Address, password string) error {
	l.mu.Lock()
	err := l.checkStanding(sender)
	hash := l.passwordHash
	l.mu.Unlock()

	if err != nil {
		return revert("admit", sender, err)
	}
	if !utils.CheckPassword(passwordDigest(password), hash) {
		return revert("admit", sender, ErrWrongPassword)
	}
	return nil
}

func (l *Ledger) IsApproved(a Address) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.approved[a]
	return ok
}

// Approved lists the approved delegates in byte order.
func (l *Ledger) Approved() []Address {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.approvedLocked()
}

func (l *Ledger) RequiredFee() Wei { return l.fee }

// Balance is the total of all accepted booking payments.
func (l *Ledger) Balance() Wei {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance
}

func (l *Ledger) Snapshot() Room {
	l.mu.Lock()
	defer l.mu.Unlock()

	r := Room{
		Approved:    l.approvedLocked(),
		RequiredFee: l.fee,
		Balance:     l.balance,
	}
	if l.owner != nil {
		owner := *l.owner
		r.Owner = &owner
	}
	return r
}

func (l *Ledger) checkOwner(sender Address) error {
	if l.owner == nil {
		return ErrNotOccupied
	}
	if *l.owner != sender {
		return ErrUnauthorized
	}
	return nil
}

func (l *Ledger) checkStanding(sender Address) error {
	if l.owner == nil {
		return ErrNoOwner
	}
	if *l.owner == sender {
		return nil
	}
	if _, ok := l.approved[sender]; ok {
		return nil
	}
	return ErrUnauthorized
}

func (l *Ledger) approvedLocked() []Address {
	out := make([]Address, 0, len(l.approved))
	for a := range l.approved {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		return string(out[i][:]) < string(out[j][:])
	})
	return out
}

func (l *Ledger) emit(e Event) {
	e.ID = uuid.New()
	e.At = l.now().UTC()
	for _, o := range l.observers {
		o.Observe(e)
	}
}

func (l *Ledger) hashPassword(password string) (string, error) {
	return utils.HashPasswordCost(passwordDigest(password), l.hashCost)
}

// passwordDigest lets passwords of any length through bcrypt's 72 byte limit.
func passwordDigest(password string) string {
	return hex.EncodeToString(Keccak256([]byte(password)))
}
