// Copyright (C) 2024 the quixsi maintainers
// See root-dir/LICENSE for more information

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"github.com/quixsi/checkin/internal/attendance"
	"github.com/quixsi/checkin/internal/qr"
)

const help = `commands:
  list                  show the current page
  search <text>         filter by name or email, empty clears
  filter <all|admitted|not_admitted>
  page <n> | next | prev
  size <n>              guests per page
  scan                  open the camera
  retry                 request the camera again
  select <n|id>         pick guest n of the current page
  confirm               review the scanned guest, then admit
  cancel                abandon the current step
  qr <n>                print the entry code of guest n
  reload                fetch the guest list again
  quit`

// consoleToaster prints notifications on their own line.
type consoleToaster struct {
	mu  sync.Mutex
	out io.Writer
}

func (t *consoleToaster) Success(msg string) { t.print("ok", msg) }
func (t *consoleToaster) Error(msg string)   { t.print("error", msg) }

func (t *consoleToaster) print(kind, msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, "[%s] %s\n", kind, msg)
}

type desk struct {
	out         io.Writer
	eventID     uuid.UUID
	publicURL   string
	scanTimeout time.Duration
	session     *attendance.Session
	flow        *attendance.Flow
	toaster     attendance.Toaster

	cancelScan context.CancelFunc
}

func printLines(w io.Writer, lines []string) {
	for _, l := range lines {
		fmt.Fprintln(w, "  "+l)
	}
}

// exec runs one command line. It reports false once the operator quits.
func (d *desk) exec(ctx context.Context, line string) bool {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	var err error
	switch strings.ToLower(cmd) {
	case "":
	case "help", "?":
		fmt.Fprintln(d.out, help)
	case "quit", "exit", "q":
		d.stopScan()
		if err := d.flow.Cancel(); err != nil {
			fmt.Fprintln(d.out, "error:", err)
		}
		return false
	case "list", "ls":
		d.list()
	case "search":
		d.session.SetSearch(arg)
		d.list()
	case "filter":
		var f attendance.Filter
		if f, err = attendance.ParseFilter(arg); err == nil {
			d.session.SetAttendanceFilter(f)
			d.list()
		}
	case "page":
		var n int
		if n, err = strconv.Atoi(arg); err == nil {
			d.session.SetPage(n)
			d.list()
		}
	case "next":
		d.session.SetPage(d.session.Page() + 1)
		d.list()
	case "prev":
		d.session.SetPage(d.session.Page() - 1)
		d.list()
	case "size":
		var n int
		if n, err = strconv.Atoi(arg); err == nil {
			d.session.SetPageSize(n)
			d.list()
		}
	case "reload":
		if err = d.session.Load(ctx, d.eventID); err == nil {
			d.list()
		}
	case "scan":
		err = d.scan(ctx)
	case "retry":
		err = d.flow.RetryScanner(ctx)
	case "select":
		err = d.selectGuest(arg)
	case "confirm":
		err = d.confirm(ctx)
	case "cancel":
		d.stopScan()
		err = d.flow.Cancel()
	case "qr":
		err = d.printQR(arg)
	default:
		err = fmt.Errorf("unknown command %q, type help", cmd)
	}
	if err != nil {
		fmt.Fprintln(d.out, "error:", err)
	}
	return true
}

func (d *desk) list() {
	if msg := d.session.Err(); msg != "" {
		fmt.Fprintln(d.out, "error:", msg)
		return
	}
	tw := tabwriter.NewWriter(d.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tEMAIL\tSEAT\tSTATUS")
	for i, g := range d.session.PageGuests() {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i+1, g.FullName(), g.Email, g.SeatNumber, g.AttendanceStatus)
	}
	tw.Flush()
	fmt.Fprintf(d.out, "page %d/%d, %d guests, filter %s", d.session.Page(), d.session.TotalPages(), len(d.session.FilteredGuests()), d.session.Filter())
	if s := d.session.Search(); s != "" {
		fmt.Fprintf(d.out, ", search %q", s)
	}
	fmt.Fprintln(d.out)
}

func (d *desk) scan(ctx context.Context) error {
	d.stopScan()
	scanCtx, cancel := context.WithTimeout(ctx, d.scanTimeout)
	d.cancelScan = cancel
	if err := d.flow.OpenScanner(scanCtx); err != nil {
		return err
	}
	go d.expireScan(scanCtx)
	fmt.Fprintln(d.out, "scanning, hold the code in front of the camera")
	return nil
}

// expireScan closes a scan that found nobody before the scan timeout.
func (d *desk) expireScan(ctx context.Context) {
	<-ctx.Done()
	if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return
	}
	err := d.flow.CloseScanner()
	var tErr *attendance.TransitionError
	switch {
	case errors.As(err, &tErr):
		// a guest was found or the scan was already cancelled
	case err != nil:
		d.toaster.Error("scan timed out: " + err.Error())
	default:
		d.toaster.Error("scan timed out, type scan to try again")
	}
}

func (d *desk) stopScan() {
	if d.cancelScan != nil {
		d.cancelScan()
		d.cancelScan = nil
	}
}

// guestRef resolves a page position or a guest id.
func (d *desk) guestRef(arg string) (uuid.UUID, error) {
	if id, err := uuid.Parse(arg); err == nil {
		return id, nil
	}
	n, err := strconv.Atoi(arg)
	if err != nil {
		return uuid.Nil, fmt.Errorf("expected a list position or guest id, got %q", arg)
	}
	page := d.session.PageGuests()
	if n < 1 || n > len(page) {
		return uuid.Nil, fmt.Errorf("no guest %d on this page", n)
	}
	return page[n-1].ID, nil
}

func (d *desk) selectGuest(arg string) error {
	id, err := d.guestRef(arg)
	if err != nil {
		return err
	}
	if d.flow.State() != attendance.ManualSelectGuest {
		if err := d.flow.StartManualSelect(); err != nil {
			return err
		}
	}
	conf, err := d.flow.SelectGuest(id)
	if err != nil {
		return err
	}
	printLines(d.out, conf.Lines())
	fmt.Fprintln(d.out, "type confirm to admit or cancel")
	return nil
}

func (d *desk) confirm(ctx context.Context) error {
	if d.flow.State() == attendance.GuestFound {
		conf, err := d.flow.Review()
		if err != nil {
			return err
		}
		printLines(d.out, conf.Lines())
		fmt.Fprintln(d.out, "type confirm to admit or cancel")
		return nil
	}
	conf, err := d.flow.Confirm(ctx)
	if err != nil {
		var terr *attendance.TransitionError
		if errors.As(err, &terr) {
			return err
		}
		// already shown by the toaster
		return nil
	}
	d.stopScan()
	printLines(d.out, conf.Lines())
	return nil
}

func (d *desk) printQR(arg string) error {
	id, err := d.guestRef(arg)
	if err != nil {
		return err
	}
	guest, ok := d.session.Guest(id)
	if !ok {
		return attendance.ErrGuestNotFound
	}
	code, err := qr.Terminal(qr.ValidationURL(d.publicURL, guest.Token))
	if err != nil {
		return err
	}
	fmt.Fprint(d.out, code)
	return nil
}
