package httpapi

import (
	"net/http"
	"strings"

	"mocdesk.org/internal/domain"
)

func (a *API) handleMOCsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		items, err := a.svc.ListMOCs(r.Context())
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, items)
	case http.MethodPost:
		var m domain.MOCRequest
		if err := decodeJSON(w, r, &m); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		created, err := a.svc.CreateMOC(r.Context(), m)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		w.Header().Set("Location", "/v1/mocs/"+created.ID)
		writeJSON(w, http.StatusCreated, created)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleMOCResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/mocs/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	if strings.HasSuffix(path, "/work-orders") {
		id := strings.TrimSuffix(strings.TrimSuffix(path, "/work-orders"), "/")
		if id == "" {
			writeError(w, r, http.StatusNotFound, "resource not found")
			return
		}
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		items, err := a.svc.ListWorkOrdersByMOC(r.Context(), id)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, items)
		return
	}

	if strings.Contains(path, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		m, err := a.svc.GetMOC(r.Context(), path)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, m)
	case http.MethodPut:
		var m domain.MOCRequest
		if err := decodeJSON(w, r, &m); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		m.ID = path
		updated, err := a.svc.UpdateMOC(r.Context(), m)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut)
	}
}

func (a *API) handleRisksCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		items, err := a.svc.ListRisks(r.Context())
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, items)
	case http.MethodPost:
		var assessment domain.RiskAssessment
		if err := decodeJSON(w, r, &assessment); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		saved, err := a.svc.SaveRiskAssessment(r.Context(), assessment)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, saved)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

type linkWorkOrdersRequest struct {
	MOCID        string   `json:"moc_id"`
	WorkOrderIDs []string `json:"work_order_ids"`
}

func (a *API) handleWorkOrdersCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		items, err := a.svc.ListWorkOrders(r.Context())
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, items)
	case http.MethodPost:
		var wo domain.WorkOrder
		if err := decodeJSON(w, r, &wo); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		created, err := a.svc.CreateWorkOrder(r.Context(), wo)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		w.Header().Set("Location", "/v1/work-orders/"+created.ID)
		writeJSON(w, http.StatusCreated, created)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleUnlinkedWorkOrders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	items, err := a.svc.ListUnlinkedWorkOrders(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (a *API) handleLinkWorkOrders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req linkWorkOrdersRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.MOCID == "" || len(req.WorkOrderIDs) == 0 {
		writeError(w, r, http.StatusBadRequest, "moc_id and work_order_ids are required")
		return
	}
	if err := a.svc.LinkWorkOrders(r.Context(), req.MOCID, req.WorkOrderIDs); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleWorkOrderResource(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/work-orders/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if r.Method != http.MethodPut {
		methodNotAllowed(w, r, http.MethodPut)
		return
	}
	var wo domain.WorkOrder
	if err := decodeJSON(w, r, &wo); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	wo.ID = id
	updated, err := a.svc.UpdateWorkOrder(r.Context(), wo)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}
