package web

import (
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/JonMunkholm/dipsw/internal/dipsw"
	"github.com/JonMunkholm/dipsw/internal/logging"
	"github.com/JonMunkholm/dipsw/internal/store"
	"github.com/a-h/templ"
)

// placeholderFunctions are function names of rows that carry no setting.
// They are hidden while browsing and shown when searching.
var placeholderFunctions = []string{"", "-", "Function"}

// switchGroup is the records of one switch number, in bit order.
type switchGroup struct {
	Switch  int
	Records []dipsw.Record
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	models, err := s.store.ListModels(r.Context())
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	render(w, r, indexPage(models))
}

// handleViewer renders the settings of one model grouped by switch.
// Optional query parameters: switch narrows to one switch, q searches the
// function and setting text.
func (s *Server) handleViewer(w http.ResponseWriter, r *http.Request) {
	q, err := switchQuery(r)
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}
	search := strings.TrimSpace(r.URL.Query().Get("q"))

	records, err := s.store.ListSwitches(r.Context(), store.SwitchQuery{Model: q.Model, Switch: q.Switch})
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	groups := groupBySwitch(filterSwitches(records, search))
	render(w, r, viewerPage(q.Model, search, groups))
}

// render buffers c and writes it only when rendering succeeded.
func render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	buf := templ.GetBuffer()
	defer templ.ReleaseBuffer(buf)

	if err := c.Render(r.Context(), buf); err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		logging.FromContext(r.Context()).Warn("write page", "error", err)
	}
}

// filterSwitches keeps records whose function or settings contain search
// (case-insensitive). With no search, placeholder rows are dropped instead.
func filterSwitches(records []dipsw.Record, search string) []dipsw.Record {
	needle := strings.ToLower(search)
	out := make([]dipsw.Record, 0, len(records))
	for _, rec := range records {
		if needle == "" {
			if isPlaceholder(rec) {
				continue
			}
			out = append(out, rec)
			continue
		}
		for _, field := range []*string{rec.FunctionName, rec.Setting0, rec.Setting1} {
			if strings.Contains(strings.ToLower(dipsw.Deref(field)), needle) {
				out = append(out, rec)
				break
			}
		}
	}
	return out
}

func isPlaceholder(rec dipsw.Record) bool {
	return slices.Contains(placeholderFunctions, strings.TrimSpace(dipsw.Deref(rec.FunctionName)))
}

// groupBySwitch groups consecutive records by switch number. Records are
// expected in switch order, as ListSwitches returns them.
func groupBySwitch(records []dipsw.Record) []switchGroup {
	var groups []switchGroup
	for _, rec := range records {
		if n := len(groups); n > 0 && groups[n-1].Switch == rec.SwitchNumber {
			groups[n-1].Records = append(groups[n-1].Records, rec)
			continue
		}
		groups = append(groups, switchGroup{Switch: rec.SwitchNumber, Records: []dipsw.Record{rec}})
	}
	return groups
}

func viewerURL(model string) templ.SafeURL {
	return templ.SafeURL("/dipswitches?model=" + url.QueryEscape(model))
}

func exportURL(model string) templ.SafeURL {
	return templ.SafeURL("/api/models/" + url.PathEscape(model) + "/export")
}
