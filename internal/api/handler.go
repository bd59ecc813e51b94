// Package api exposes the session over a small JSON HTTP interface.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jtafstn/webidle/internal/economy"
	"github.com/jtafstn/webidle/internal/game"
	"github.com/jtafstn/webidle/internal/player"
	"github.com/jtafstn/webidle/internal/telemetry"
)

const maxBody = 1 << 16

type Options struct {
	Session *game.Session
	Events  telemetry.Repository
	Lang    string
	Logger  *slog.Logger
	Now     func() time.Time
}

type Handler struct {
	session *game.Session
	events  telemetry.Repository
	lang    string
	log     *slog.Logger
	now     func() time.Time
}

func NewHandler(opts Options) *Handler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Handler{
		session: opts.Session,
		events:  opts.Events,
		lang:    opts.Lang,
		log:     opts.Logger,
		now:     opts.Now,
	}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/state", h.State)
	mux.HandleFunc("GET /api/items", h.Items)
	mux.HandleFunc("GET /api/items/{id}", h.Item)
	mux.HandleFunc("GET /api/skills", h.Skills)
	mux.HandleFunc("POST /api/purchase", h.Purchase)
	mux.HandleFunc("POST /api/learn", h.Learn)
	mux.HandleFunc("POST /api/act", h.Act)
	mux.HandleFunc("POST /api/save", h.Save)
	mux.HandleFunc("POST /api/reset", h.Reset)
	mux.HandleFunc("GET /api/stats", h.Stats)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, out any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(out)
}

// language picks ?lang= over Accept-Language over the configured default.
func (h *Handler) language(r *http.Request) string {
	if q := strings.TrimSpace(r.URL.Query().Get("lang")); q != "" {
		return q
	}
	if al := strings.TrimSpace(r.Header.Get("Accept-Language")); al != "" {
		return al
	}
	return h.lang
}

// StateView is the state snapshot plus values derived from the catalog.
type StateView struct {
	State     player.State     `json:"state"`
	Limits    map[string]int64 `json:"limits"`
	Owned     []economy.Quote  `json:"owned"`
	Lang      string           `json:"lang"`
	Languages []string         `json:"languages"`
}

// GET /api/state
func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	var view StateView
	h.session.Do(func(e *economy.Engine, st *player.State) {
		cat := e.Catalog()
		loc := cat.Localizer()
		p := loc.Printer(h.language(r))

		view.State = st.Clone()
		view.Limits = make(map[string]int64)
		for _, name := range cat.TableNames() {
			t, _ := cat.Table(name)
			view.Limits[name] = t.Lookup(st)
		}
		view.Owned = e.Quotes(st, e.OwnedCollapsed(st), p)
		view.Lang = loc.Match(h.language(r)).String()
		view.Languages = loc.Languages()
	})
	writeJSON(w, http.StatusOK, view)
}

type itemsResponse struct {
	Area        string          `json:"area,omitempty"`
	Purchasable []economy.Quote `json:"purchasable"`
	Owned       []economy.Quote `json:"owned"`
}

// GET /api/items?area=
func (h *Handler) Items(w http.ResponseWriter, r *http.Request) {
	area := strings.TrimSpace(r.URL.Query().Get("area"))
	resp := itemsResponse{Area: area}
	h.session.Do(func(e *economy.Engine, st *player.State) {
		e.SyncUnlocked(st)
		p := e.Catalog().Printer(h.language(r))
		resp.Purchasable = e.Quotes(st, economy.InArea(e.Purchasable(st), area), p)
		resp.Owned = e.Quotes(st, economy.InArea(e.OwnedCollapsed(st), area), p)
	})
	writeJSON(w, http.StatusOK, resp)
}

// GET /api/items/{id}
func (h *Handler) Item(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var (
		q     economy.Quote
		found bool
	)
	h.session.Do(func(e *economy.Engine, st *player.State) {
		d, ok := e.Descriptor(id)
		if !ok {
			return
		}
		found = true
		q = e.Quote(st, d, e.Catalog().Printer(h.language(r)))
	})
	if !found {
		writeErr(w, http.StatusNotFound, "unknown item")
		return
	}
	writeJSON(w, http.StatusOK, q)
}

type skillsResponse struct {
	Learnable []economy.Quote `json:"learnable"`
	Learned   []economy.Quote `json:"learned"`
}

// GET /api/skills
func (h *Handler) Skills(w http.ResponseWriter, r *http.Request) {
	var resp skillsResponse
	h.session.Do(func(e *economy.Engine, st *player.State) {
		p := e.Catalog().Printer(h.language(r))
		resp.Learnable = e.Quotes(st, e.Learnable(st), p)
		resp.Learned = e.Quotes(st, e.Learned(st), p)
	})
	writeJSON(w, http.StatusOK, resp)
}

type idRequest struct {
	ID string `json:"id"`
}

type outcomeResponse struct {
	OK     bool           `json:"ok"`
	ID     string         `json:"id"`
	Reason economy.Reason `json:"reason,omitempty"`
	Cost   int64          `json:"cost"`
	State  player.State   `json:"state"`
}

// POST /api/purchase
func (h *Handler) Purchase(w http.ResponseWriter, r *http.Request) {
	h.transact(w, r, h.session.Purchase)
}

// POST /api/learn
func (h *Handler) Learn(w http.ResponseWriter, r *http.Request) {
	h.transact(w, r, h.session.Learn)
}

func (h *Handler) transact(w http.ResponseWriter, r *http.Request, op func(string) (economy.Result, player.State)) {
	var in idRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	id := strings.TrimSpace(in.ID)
	if id == "" {
		writeErr(w, http.StatusBadRequest, `missing field "id"`)
		return
	}

	res, st := op(id)
	writeJSON(w, statusFor(res), outcomeResponse{
		OK:     res.Success,
		ID:     res.ID,
		Reason: res.Reason,
		Cost:   res.Cost,
		State:  st,
	})
}

func statusFor(res economy.Result) int {
	switch res.Reason {
	case "":
		return http.StatusOK
	case economy.ReasonUnknownItem:
		return http.StatusNotFound
	case economy.ReasonAlreadyOwned:
		return http.StatusConflict
	case economy.ReasonLocked:
		return http.StatusForbidden
	case economy.ReasonInsufficientFunds:
		return http.StatusPaymentRequired
	default:
		return http.StatusUnprocessableEntity
	}
}

// POST /api/act
func (h *Handler) Act(w http.ResponseWriter, r *http.Request) {
	gained, st := h.session.Act()
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "gained": gained, "state": st})
}

// POST /api/save
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Save(r.Context()); err != nil {
		h.log.Error("manual save failed", "err", err)
		writeErr(w, http.StatusInternalServerError, "could not save")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// POST /api/reset
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Reset(r.Context()); err != nil {
		h.log.Error("reset save failed", "err", err)
		writeErr(w, http.StatusInternalServerError, "could not save")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "state": h.session.Snapshot()})
}

// GET /api/stats?since=RFC3339
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	since := h.now().Add(-24 * time.Hour)
	if raw := strings.TrimSpace(r.URL.Query().Get("since")); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeErr(w, http.StatusBadRequest, "since must be RFC3339")
			return
		}
		since = t
	}
	if h.events == nil {
		writeErr(w, http.StatusServiceUnavailable, "telemetry disabled")
		return
	}
	events, err := h.events.GetEvents(since, nil)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "could not read events")
		return
	}
	stats, err := telemetry.CalculateStats(events, since)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "could not compute stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
