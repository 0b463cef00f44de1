package handlers

import (
	"net/http"

	"restaurant-crm-api/middleware"
	"restaurant-crm-api/models"
	"restaurant-crm-api/services"
	"restaurant-crm-api/statemachine"

	"github.com/gin-gonic/gin"
)

type SetStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) GetLeads(c *gin.Context) {
	leads, err := h.leads.List(c.Request.Context(), pageFromQuery(c))
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"leads": leads}, "Leads fetched successfully")
}

func (h *Handler) GetLead(c *gin.Context) {
	id, ok := paramID(c, "leadID", "Lead")
	if !ok {
		return
	}
	lead, err := h.leads.Get(c.Request.Context(), id)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"lead": lead}, "Lead fetched successfully")
}

// AddLead creates a lead with its order lines, stamped with the caller as creator
func (h *Handler) AddLead(c *gin.Context) {
	var req services.CreateLeadInput
	if !bind(c, &req) {
		return
	}
	lead, err := h.leads.Create(c.Request.Context(), req, middleware.GetAccountID(c))
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"lead": lead}, "Lead created successfully")
}

func (h *Handler) GetLeadOrders(c *gin.Context) {
	id, ok := paramID(c, "leadID", "Lead")
	if !ok {
		return
	}
	orders, err := h.leads.ListOrders(c.Request.Context(), id)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"orders": orders}, "Orders fetched successfully")
}

func (h *Handler) DeleteLead(c *gin.Context) {
	id, ok := paramID(c, "leadID", "Lead")
	if !ok {
		return
	}
	if err := h.leads.Delete(c.Request.Context(), id); err != nil {
		middleware.Abort(c, err)
		return
	}
	respond(c, http.StatusAccepted, nil, "Lead deleted successfully")
}

func (h *Handler) AddCall(c *gin.Context) {
	id, ok := paramID(c, "leadID", "Lead")
	if !ok {
		return
	}
	var req services.AddCallInput
	if !bind(c, &req) {
		return
	}
	call, err := h.leads.AddCall(c.Request.Context(), id, req, middleware.GetAccountID(c))
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"call": call}, "Call added successfully")
}

func (h *Handler) GetCalls(c *gin.Context) {
	id, ok := paramID(c, "leadID", "Lead")
	if !ok {
		return
	}
	calls, err := h.leads.ListCalls(c.Request.Context(), id)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"calls": calls}, "Calls fetched successfully")
}

// SetLeadStatus moves a lead to done or cancelled
func (h *Handler) SetLeadStatus(c *gin.Context) {
	id, ok := paramID(c, "leadID", "Lead")
	if !ok {
		return
	}
	var req SetStatusRequest
	if !bind(c, &req) {
		return
	}
	lead, err := h.leads.SetStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"lead_id": lead.ID, "status": lead.Status}, "Status changed successfully")
}

// GetLeadStateMachine returns the lead status transitions for documentation
func (h *Handler) GetLeadStateMachine(c *gin.Context) {
	respond(c, http.StatusOK, gin.H{
		"state_machine":  statemachine.GetAllTransitions(),
		"initial_state":  models.LeadOpen,
		"allowed_inputs": []models.LeadStatus{models.LeadDone, models.LeadCancelled},
	}, "Lead status lifecycle")
}
