// Copyright (C) 2024 the quixsi maintainers
// See root-dir/LICENSE for more information

package attendance

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/quixsi/checkin/internal/model"
)

type State int

const (
	Idle State = iota
	ScannerOpen
	GuestFound
	ManualSelectGuest
	ConfirmPending
	Admitted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case ScannerOpen:
		return "ScannerOpen"
	case GuestFound:
		return "GuestFound"
	case ManualSelectGuest:
		return "ManualSelectGuest"
	case ConfirmPending:
		return "ConfirmPending"
	case Admitted:
		return "Admitted"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

var (
	ErrAlreadyAdmitted = errors.New("Guest has already been admitted")
	ErrWrongEvent      = errors.New("Guest is not invited to this event")
	ErrBusy            = errors.New("Another request is in progress")
)

// TransitionError is returned when an action is not allowed in the current
// state.
type TransitionError struct {
	Action string
	State  State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s in state %s", e.Action, e.State)
}

// Toaster shows short lived notifications to the operator.
type Toaster interface {
	Success(msg string)
	Error(msg string)
}

// Scanner delivers decoded QR payloads. After a decode it stops by itself and
// has to be opened again for the next code.
type Scanner interface {
	Open(ctx context.Context, onDecode func(text string)) error
	Retry(ctx context.Context) error
	Close() error
}

// Confirmation is the text shown for a guest before and after admission.
type Confirmation struct {
	Title string
	Name  string
	Seat  string
}

// Lines renders the confirmation. The seat line is left out for guests
// without a seat.
func (c Confirmation) Lines() []string {
	lines := []string{c.Title, c.Name}
	if c.Seat != "" {
		lines = append(lines, "Seat Number: "+c.Seat)
	}
	return lines
}

const (
	TitleConfirm  = "Confirm Admission"
	TitleAdmitted = "Guest Admitted Successfully"
)

func confirmationFor(title string, g *model.Guest) Confirmation {
	return Confirmation{Title: title, Name: g.FullName(), Seat: g.SeatNumber}
}

type FlowOption func(*Flow)

// WithScanner lets the flow drive a camera scanner. Without one, payloads are
// fed through HandleScan.
func WithScanner(sc Scanner) FlowOption {
	return func(f *Flow) { f.scanner = sc }
}

// WithTransitionHook calls fn after every state change.
func WithTransitionHook(fn func(from, to State)) FlowOption {
	return func(f *Flow) { f.onTransition = fn }
}

// Flow is the admission state machine:
//
//	Idle -> ScannerOpen -> GuestFound -> ConfirmPending -> Admitted -> Idle
//	Idle -> ManualSelectGuest -> ConfirmPending -> Admitted -> Idle
type Flow struct {
	session      *Session
	toaster      Toaster
	scanner      Scanner
	onTransition func(from, to State)

	mu    sync.Mutex
	state State
	guest *model.Guest
	last  *Confirmation
	busy  bool
	// gen changes whenever the scanner is closed, so late restarts of a
	// closed session are dropped.
	gen uint64
}

func NewFlow(session *Session, toaster Toaster, opts ...FlowOption) *Flow {
	f := &Flow{session: session, toaster: toaster, state: Idle}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Guest returns the guest under review, if any.
func (f *Flow) Guest() *model.Guest {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.guest == nil {
		return nil
	}
	return f.guest.Clone()
}

// LastAdmitted returns the confirmation of the most recent admission.
func (f *Flow) LastAdmitted() (Confirmation, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.last == nil {
		return Confirmation{}, false
	}
	return *f.last, true
}

func (f *Flow) setState(to State) {
	from := f.state
	f.state = to
	if f.onTransition != nil && from != to {
		f.onTransition(from, to)
	}
}

// OpenScanner starts scanning. Camera failures are reported through the
// toaster; the flow stays in ScannerOpen so RetryScanner can be used.
func (f *Flow) OpenScanner(ctx context.Context) error {
	f.mu.Lock()
	if f.state != Idle && f.state != ScannerOpen {
		defer f.mu.Unlock()
		return &TransitionError{Action: "open scanner", State: f.state}
	}
	f.setState(ScannerOpen)
	gen := f.gen
	f.mu.Unlock()

	return f.startScanner(ctx, gen)
}

// RetryScanner requests the camera again after a failure.
func (f *Flow) RetryScanner(ctx context.Context) error {
	f.mu.Lock()
	if f.state != ScannerOpen {
		defer f.mu.Unlock()
		return &TransitionError{Action: "retry scanner", State: f.state}
	}
	f.mu.Unlock()
	if f.scanner == nil {
		return nil
	}
	if err := f.scanner.Retry(ctx); err != nil {
		f.toaster.Error(err.Error())
		return err
	}
	return nil
}

// scanning reports whether the scanner session gen is still current.
func (f *Flow) scanning(gen uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state == ScannerOpen && f.gen == gen
}

func (f *Flow) startScanner(ctx context.Context, gen uint64) error {
	if f.scanner == nil || !f.scanning(gen) {
		return nil
	}
	err := f.scanner.Open(ctx, func(text string) {
		f.HandleScan(ctx, text)
	})
	if err != nil {
		f.toaster.Error(err.Error())
		return err
	}
	f.mu.Lock()
	closed := f.gen != gen
	f.mu.Unlock()
	if closed {
		return f.scanner.Close()
	}
	return nil
}

// HandleScan looks up the guest behind a scanned payload. A miss keeps the
// scanner open for the next attempt.
func (f *Flow) HandleScan(ctx context.Context, payload string) (*model.Guest, error) {
	f.mu.Lock()
	if f.state != ScannerOpen {
		defer f.mu.Unlock()
		return nil, &TransitionError{Action: "handle scan", State: f.state}
	}
	if f.busy {
		f.mu.Unlock()
		return nil, ErrBusy
	}
	f.busy = true
	gen := f.gen
	f.mu.Unlock()

	guest, err := f.session.GetGuestByToken(ctx, payload)
	if err == nil {
		switch {
		case guest.EventID != f.session.EventID():
			err = ErrWrongEvent
		case guest.Admitted():
			err = fmt.Errorf("%s: %w", guest.FullName(), ErrAlreadyAdmitted)
		}
	}

	f.mu.Lock()
	f.busy = false
	if f.state != ScannerOpen || f.gen != gen {
		// cancelled while the lookup was running
		defer f.mu.Unlock()
		return nil, &TransitionError{Action: "handle scan", State: f.state}
	}
	if err != nil {
		f.mu.Unlock()
		f.toaster.Error(err.Error())
		if serr := f.startScanner(ctx, gen); serr != nil {
			return nil, errors.Join(err, serr)
		}
		return nil, err
	}
	f.guest = guest
	f.setState(GuestFound)
	f.mu.Unlock()
	return guest.Clone(), nil
}

// Review moves a scanned guest to confirmation.
func (f *Flow) Review() (Confirmation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != GuestFound {
		return Confirmation{}, &TransitionError{Action: "review", State: f.state}
	}
	f.setState(ConfirmPending)
	return confirmationFor(TitleConfirm, f.guest), nil
}

// StartManualSelect begins admitting a guest picked from the list.
func (f *Flow) StartManualSelect() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != Idle {
		return &TransitionError{Action: "select manually", State: f.state}
	}
	f.setState(ManualSelectGuest)
	return nil
}

// SelectGuest picks a loaded guest for confirmation. Admitted guests are
// refused.
func (f *Flow) SelectGuest(id uuid.UUID) (Confirmation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != ManualSelectGuest {
		return Confirmation{}, &TransitionError{Action: "select guest", State: f.state}
	}
	guest, ok := f.session.Guest(id)
	if !ok {
		return Confirmation{}, ErrGuestNotFound
	}
	if guest.Admitted() {
		return Confirmation{}, fmt.Errorf("%s: %w", guest.FullName(), ErrAlreadyAdmitted)
	}
	f.guest = guest
	f.setState(ConfirmPending)
	return confirmationFor(TitleConfirm, guest), nil
}

// Confirm admits the guest under review. On failure the flow stays in
// ConfirmPending so the operator can confirm again.
func (f *Flow) Confirm(ctx context.Context) (Confirmation, error) {
	f.mu.Lock()
	if f.state != ConfirmPending {
		defer f.mu.Unlock()
		return Confirmation{}, &TransitionError{Action: "confirm", State: f.state}
	}
	if f.busy {
		f.mu.Unlock()
		return Confirmation{}, ErrBusy
	}
	f.busy = true
	guest := f.guest
	f.mu.Unlock()

	err := f.session.UpdateAttendanceStatus(ctx, guest.ID, model.AttendanceAdmitted)

	f.mu.Lock()
	f.busy = false
	if err != nil {
		f.mu.Unlock()
		f.toaster.Error(err.Error())
		return Confirmation{}, err
	}
	conf := confirmationFor(TitleAdmitted, guest)
	f.last = &conf
	f.guest = nil
	f.setState(Admitted)
	f.setState(Idle)
	f.mu.Unlock()

	f.toaster.Success(guest.FullName() + " admitted")
	return conf, nil
}

// Cancel abandons the current step and closes the scanner. The flow is Idle
// afterwards even when closing the scanner fails.
func (f *Flow) Cancel() error {
	return f.cancel(false)
}

// CloseScanner stops a scan that has not found a guest yet. Other steps are
// left alone.
func (f *Flow) CloseScanner() error {
	return f.cancel(true)
}

func (f *Flow) cancel(scanOnly bool) error {
	f.mu.Lock()
	wasScanning := f.state == ScannerOpen
	if scanOnly && !wasScanning {
		defer f.mu.Unlock()
		return &TransitionError{Action: "close scanner", State: f.state}
	}
	f.guest = nil
	f.gen++
	f.setState(Idle)
	f.mu.Unlock()

	if wasScanning && f.scanner != nil {
		if err := f.scanner.Close(); err != nil {
			return fmt.Errorf("close scanner: %w", err)
		}
	}
	return nil
}
