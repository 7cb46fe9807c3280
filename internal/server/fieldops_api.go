package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/supankharikap/ServiceTeam/internal/routing"
	"github.com/supankharikap/ServiceTeam/modules/fieldops/domain/query"
	"github.com/supankharikap/ServiceTeam/modules/fieldops/domain/types"
)

func requestPrincipal(r *http.Request) query.Principal {
	p, ok := currentPrincipal(r.Context())
	if !ok {
		return query.Principal{}
	}
	return p.queryPrincipal()
}

func limitParam(r *http.Request) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func resultJSON(res types.Result) map[string]any {
	return map[string]any{
		"columns": res.Columns,
		"rows":    res.Rows,
	}
}

func (h *handler) kpi(w http.ResponseWriter, r *http.Request) {
	report, err := h.browse.KPI(r.Context(), requestPrincipal(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{
		"installBaseTotal": report.InstallBaseTotal,
		"customers":        report.Customers,
	})
}

func (h *handler) installBaseList(w http.ResponseWriter, r *http.Request) {
	res, err := h.browse.InstallBaseList(r.Context(), requestPrincipal(r), r.URL.Query().Get("q"), limitParam(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resultJSON(res))
}

func (h *handler) installBaseSave(w http.ResponseWriter, r *http.Request) {
	var payload map[string]string
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusUnprocessableEntity, "invalid_json", "invalid json")
		return
	}
	outcome, err := h.upsert.SaveInstallBase(r.Context(), requestPrincipal(r), payload)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"action":  outcome.Action,
		"message": outcome.Message,
	})
}

func (h *handler) installBaseSuggest(w http.ResponseWriter, r *http.Request) {
	out, err := h.suggest.InstallBaseSuggest(r.Context(), requestPrincipal(r), r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"suggestions": out})
}

func (h *handler) customerSuggest(w http.ResponseWriter, r *http.Request) {
	out, err := h.suggest.CustomerSuggest(r.Context(), requestPrincipal(r), r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"suggestions": out})
}

func (h *handler) serialSuggest(w http.ResponseWriter, r *http.Request) {
	out, err := h.suggest.SerialSuggest(r.Context(), requestPrincipal(r), r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"suggestions": out})
}

func (h *handler) installBaseBySerial(w http.ResponseWriter, r *http.Request) {
	res, err := h.browse.InstallBaseBySerial(r.Context(), requestPrincipal(r), r.URL.Query().Get("serial"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resultJSON(res))
}

func (h *handler) installBaseRows(w http.ResponseWriter, r *http.Request) {
	res, err := h.browse.InstallBaseRowsByCustomer(r.Context(), requestPrincipal(r), r.URL.Query().Get("customer"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resultJSON(res))
}

func (h *handler) reportList(w http.ResponseWriter, r *http.Request) {
	res, err := h.browse.ReportList(r.Context(), requestPrincipal(r), r.URL.Query().Get("q"), limitParam(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resultJSON(res))
}

func (h *handler) reportSubmit(w http.ResponseWriter, r *http.Request) {
	var payload map[string]string
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusUnprocessableEntity, "invalid_json", "invalid json")
		return
	}
	if err := h.upsert.SubmitReport(r.Context(), payload); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *handler) reportSuggest(w http.ResponseWriter, r *http.Request) {
	out, err := h.suggest.ReportSuggest(r.Context(), requestPrincipal(r), r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"suggestions": out})
}
