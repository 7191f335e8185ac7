// Copyright (C) 2024 the quixsi maintainers
// See root-dir/LICENSE for more information

package portal

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/quixsi/checkin/internal/model"
	"github.com/quixsi/checkin/internal/parser/form"
	"github.com/quixsi/checkin/internal/qr"
	"github.com/quixsi/checkin/internal/service"
)

type guestHandlerFunc func(w http.ResponseWriter, r *http.Request, guest *model.Guest, event *model.Event)

// requireGuest resolves the {token} path value before calling next.
func (p *Portal) requireGuest(next guestHandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		guest, err := p.guests.GuestByToken(ctx, r.PathValue("token"))
		if err != nil {
			p.fail(w, r, err)
			return
		}
		event, err := p.events.GetEvent(ctx, guest.EventID)
		if err != nil {
			p.fail(w, r, err)
			return
		}
		next(w, r, guest, event)
	})
}

type invitationData struct {
	Guest     *model.Guest
	Event     *model.Event
	RSVPOpen  bool
	Submitted bool
	QRPath    string
}

func (p *Portal) invitation(w http.ResponseWriter, r *http.Request, guest *model.Guest, event *model.Event) {
	ctx := r.Context()
	data := invitationData{
		Guest:     guest,
		Event:     event,
		RSVPOpen:  event.RSVPOpen(p.now()),
		Submitted: r.URL.Query().Has("submitted"),
		QRPath:    "/invite/qr/" + url.PathEscape(guest.Token),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := p.tmplInvitation.ExecuteTemplate(w, "main", data); err != nil {
		p.logger.ErrorContext(ctx, "failed to execute template", "error", err)
	}
}

type rsvpForm struct {
	Response model.Response `form:"response"`
	Message  string         `form:"message"`
}

func (p *Portal) rsvp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	span := trace.SpanFromContext(ctx)

	if err := r.ParseForm(); err != nil {
		p.render(w, r, http.StatusBadRequest, model.ErrorReasonInvalid)
		return
	}
	var in rsvpForm
	if err := form.Unmarshal(r.PostForm, &in); err != nil {
		span.RecordError(err)
		p.render(w, r, http.StatusBadRequest, model.ErrorReasonInvalid)
		return
	}

	token := r.PathValue("token")
	guest, err := p.guests.SubmitRSVP(ctx, token, in.Response, in.Message)
	if err != nil {
		p.fail(w, r, err)
		return
	}
	p.logger.InfoContext(ctx, "rsvp submitted", "guest", guest.ID, "response", guest.Response)
	http.Redirect(w, r, "/invite/"+url.PathEscape(token)+"?submitted=1", http.StatusSeeOther)
}

func (p *Portal) qrCode(w http.ResponseWriter, r *http.Request, guest *model.Guest, _ *model.Event) {
	png, err := qr.PNG(qr.ValidationURL(p.publicURL, guest.Token), qr.DefaultSize)
	if err != nil {
		p.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Write(png)
}

type validation struct {
	Valid            bool                   `json:"valid"`
	Message          string                 `json:"message,omitempty"`
	Name             string                 `json:"name,omitempty"`
	Event            string                 `json:"event,omitempty"`
	SeatNumber       string                 `json:"seat_number,omitempty"`
	AttendanceStatus model.AttendanceStatus `json:"attendance_status,omitempty"`
}

// validate is the target of the QR code. It only reports what the token
// belongs to, admission happens at the desk.
func (p *Portal) validate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	res := validation{}
	status := http.StatusOK

	guest, err := p.guests.GuestByToken(ctx, r.PathValue("token"))
	switch {
	case err == nil:
		res.Valid = true
		res.Name = guest.FullName()
		res.SeatNumber = guest.SeatNumber
		res.AttendanceStatus = guest.AttendanceStatus
		if event, err := p.events.GetEvent(ctx, guest.EventID); err == nil {
			res.Event = event.Title
		}
	case service.IsNotFound(err):
		status = http.StatusNotFound
		res.Message = service.ErrGuestNotFound.Error()
	default:
		p.record(r, err)
		status = http.StatusInternalServerError
		res.Message = model.ErrorReasonProcess.Message()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(res); err != nil {
		p.logger.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (p *Portal) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case service.IsNotFound(err):
		p.render(w, r, http.StatusNotFound, model.ErrorReasonNotFound)
	case errors.Is(err, service.ErrRSVPClosed):
		p.render(w, r, http.StatusUnprocessableEntity, model.ErrorReasonDeadline)
	case errors.As(err, &verr):
		p.render(w, r, http.StatusBadRequest, model.ErrorReasonInvalid)
	default:
		p.record(r, err)
		p.render(w, r, http.StatusInternalServerError, model.ErrorReasonProcess)
	}
}

func (p *Portal) record(r *http.Request, err error) {
	span := trace.SpanFromContext(r.Context())
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	p.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
}

func (p *Portal) render(w http.ResponseWriter, r *http.Request, status int, reason model.ErrorReason) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := p.tmplError.ExecuteTemplate(w, "main", reason.Message()); err != nil {
		p.logger.ErrorContext(r.Context(), "failed to execute template", "error", err)
	}
}
