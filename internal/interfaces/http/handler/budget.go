package handler

import (
	budgetapp "github.com/bizledger/backend/internal/application/budget"
	"github.com/bizledger/backend/internal/interfaces/http/dto"
	"github.com/bizledger/backend/internal/interfaces/http/middleware"
	"github.com/bizledger/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
)

// BudgetHandler handles budget event endpoints
type BudgetHandler struct {
	BaseHandler
	budgetService *budgetapp.BudgetService
}

// NewBudgetHandler creates a new BudgetHandler
func NewBudgetHandler(budgetService *budgetapp.BudgetService) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService}
}

// ListBudgetsQuery holds the query parameters of the budget list
type ListBudgetsQuery struct {
	dto.ListRequest
	Type string `form:"type" binding:"omitempty,budget_type"`
}

// BudgetRoutes creates the route group for budget endpoints. Writes are
// admin only.
func BudgetRoutes(h *BudgetHandler) *router.DomainGroup {
	admin := middleware.RequireAdmin()

	group := router.NewDomainGroup("budgets", "/budgets")
	group.POST("", admin, h.Create)
	group.GET("", h.List)
	group.GET("/:id", h.GetByID)
	group.PUT("/:id", admin, h.Update)

	revisions := group.Group("revisions", "/:id/revisions")
	revisions.POST("", admin, h.Revise)
	revisions.GET("", h.ListRevisions)
	revisions.GET("/latest", h.LatestRevision)
	return group
}

// Create godoc
// @ID           createBudget
// @Summary      Create a budget event
// @Description  Create a named income or expense target for a date range
// @Tags         budgets
// @Accept       json
// @Produce      json
// @Param        request body budgetapp.CreateBudgetRequest true "Budget creation request"
// @Success      201 {object} APIResponse[budgetapp.BudgetResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /budgets [post]
func (h *BudgetHandler) Create(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var req budgetapp.CreateBudgetRequest
	if !h.BindJSON(c, &req) {
		return
	}

	resp, err := h.budgetService.Create(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// List godoc
// @ID           listBudgets
// @Summary      List budget events
// @Description  List budget reports with pagination, search and an optional type filter
// @Tags         budgets
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Param        order_by query string false "Order by field" default(created_at)
// @Param        order_dir query string false "Order direction" Enums(asc, desc) default(desc)
// @Param        search query string false "Search in event name"
// @Param        type query string false "Budget type" Enums(income, expense)
// @Success      200 {object} APIResponse[[]budgetapp.BudgetResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /budgets [get]
func (h *BudgetHandler) List(c *gin.Context) {
	query := ListBudgetsQuery{ListRequest: dto.DefaultListRequest()}
	if err := c.ShouldBindQuery(&query); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	filter := query.Filter()
	if query.Type != "" {
		filter.Filters["type"] = query.Type
	}

	page, err := h.budgetService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// GetByID godoc
// @ID           getBudget
// @Summary      Get a budget report
// @Description  Budget figures with achieved amount, effective target and percentage achieved
// @Tags         budgets
// @Produce      json
// @Param        id path int true "Budget ID"
// @Success      200 {object} APIResponse[budgetapp.BudgetResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /budgets/{id} [get]
func (h *BudgetHandler) GetByID(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.budgetService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Update godoc
// @ID           updateBudget
// @Summary      Update a budget event
// @Description  Change name, type, dates or notes. The budgeted amount may only change before the first revision.
// @Tags         budgets
// @Accept       json
// @Produce      json
// @Param        id path int true "Budget ID"
// @Param        request body budgetapp.UpdateBudgetRequest true "Budget update request"
// @Success      200 {object} APIResponse[budgetapp.BudgetResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /budgets/{id} [put]
func (h *BudgetHandler) Update(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req budgetapp.UpdateBudgetRequest
	if !h.BindJSON(c, &req) {
		return
	}

	resp, err := h.budgetService.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Revise godoc
// @ID           reviseBudget
// @Summary      Revise a budget target
// @Description  Record an auditable change of the budget target with a reason
// @Tags         budgets
// @Accept       json
// @Produce      json
// @Param        id path int true "Budget ID"
// @Param        request body budgetapp.ReviseBudgetRequest true "Revision request"
// @Success      201 {object} APIResponse[budgetapp.ReviseBudgetResult]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /budgets/{id}/revisions [post]
func (h *BudgetHandler) Revise(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req budgetapp.ReviseBudgetRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.budgetService.Revise(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// ListRevisions godoc
// @ID           listBudgetRevisions
// @Summary      List budget revisions
// @Description  Full revision history of a budget, oldest first
// @Tags         budgets
// @Produce      json
// @Param        id path int true "Budget ID"
// @Success      200 {object} APIResponse[[]budgetapp.RevisionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /budgets/{id}/revisions [get]
func (h *BudgetHandler) ListRevisions(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	revisions, err := h.budgetService.ListRevisions(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, revisions)
}

// LatestRevision godoc
// @ID           getLatestBudgetRevision
// @Summary      Get the latest budget revision
// @Description  Most recent revision of a budget; data is null when the budget was never revised
// @Tags         budgets
// @Produce      json
// @Param        id path int true "Budget ID"
// @Success      200 {object} APIResponse[budgetapp.RevisionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /budgets/{id}/revisions/latest [get]
func (h *BudgetHandler) LatestRevision(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	revision, err := h.budgetService.LatestRevision(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if revision == nil {
		h.Success(c, nil)
		return
	}
	h.Success(c, revision)
}
