package economy

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"starledger/internal/api"
	"starledger/internal/auth"
	"starledger/internal/wallet"
)

// IdempotencyHeader carries the client's retry key on earn and spend.
const IdempotencyHeader = "Idempotency-Key"

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

type EarnBody struct {
	Action   string          `json:"action" validate:"max=64"`
	Amount   *int64          `json:"amount,omitempty"`
	Metadata wallet.Metadata `json:"metadata,omitempty"`
}

type SpendBody struct {
	Amount      int64           `json:"amount"`
	Purpose     string          `json:"purpose" validate:"max=64"`
	Description string          `json:"description" validate:"max=500"`
	Metadata    wallet.Metadata `json:"metadata,omitempty"`
}

type RuleToggleBody struct {
	Active *bool `json:"active" validate:"required"`
}

type EarnResponse struct {
	Success bool `json:"success" example:"true"`
	EarnResult
}

type SpendResponse struct {
	Success bool `json:"success" example:"true"`
	SpendResult
}

var statusByKind = map[string]int{
	KindInvalidRequest:      http.StatusBadRequest,
	KindInvalidAmount:       http.StatusBadRequest,
	KindInvalidRule:         http.StatusBadRequest,
	KindInsufficientBalance: http.StatusBadRequest,
	KindDailyLimitReached:   http.StatusTooManyRequests,
	KindNotFound:            http.StatusNotFound,
	KindConflict:            http.StatusConflict,
}

var messageByKind = map[string]string{
	KindInvalidAmount:       "amount must be greater than zero",
	KindInvalidRule:         "invalid earning rule",
	KindInsufficientBalance: "insufficient balance",
	KindDailyLimitReached:   "daily limit reached",
	KindNotFound:            "account not found",
	KindConflict:            "request with this idempotency key was already submitted",
}

// respondError maps a service error to its status. Internal details are
// never echoed.
func respondError(c *gin.Context, err error) {
	kind := Kind(err)
	status, ok := statusByKind[kind]
	if !ok {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "internal server error", Kind: KindInternal})
		return
	}

	msg := messageByKind[kind]
	if kind == KindInvalidRequest {
		msg = err.Error()
	}
	c.JSON(status, api.ErrorResponse{Error: msg, Kind: kind})
}

func accountID(c *gin.Context) (string, bool) {
	id, ok := auth.GetAccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated", Kind: "unauthenticated"})
		return "", false
	}
	return id, true
}

// GetBalance godoc
// @Summary      Get star balance
// @Description  Returns the caller's balance, creating the account with the signup grant on first sight.
// @Tags         star-economy
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  api.DataResponse{data=Balance}
// @Failure      401  {object}  api.ErrorResponse
// @Failure      500  {object}  api.ErrorResponse
// @Router       /star-economy/balance [get]
func (h *Handler) GetBalance(c *gin.Context) {
	id, ok := accountID(c)
	if !ok {
		return
	}

	bal, err := h.service.Balance(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.DataResponse{Success: true, Data: bal})
}

// Earn godoc
// @Summary      Earn stars
// @Description  Credits the reward of the named action. The reward is bounded by the rule's daily limit.
// @Tags         star-economy
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header    string    false  "Retry key"
// @Param        body             body      EarnBody  true   "Action"
// @Success      200              {object}  EarnResponse
// @Failure      400              {object}  api.ErrorResponse
// @Failure      401              {object}  api.ErrorResponse
// @Failure      409              {object}  api.ErrorResponse
// @Failure      429              {object}  api.ErrorResponse
// @Failure      500              {object}  api.ErrorResponse
// @Router       /star-economy/earn [post]
func (h *Handler) Earn(c *gin.Context) {
	id, ok := accountID(c)
	if !ok {
		return
	}

	var body EarnBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request body", Kind: KindInvalidRequest})
		return
	}
	if errs := api.ValidateStruct(body); len(errs) > 0 {
		api.RespondWithValidationErrors(c, errs)
		return
	}

	res, err := h.service.Earn(c.Request.Context(), EarnRequest{
		AccountID:      id,
		Action:         body.Action,
		Amount:         body.Amount,
		Metadata:       body.Metadata,
		IdempotencyKey: c.GetHeader(IdempotencyHeader),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, EarnResponse{Success: true, EarnResult: *res})
}

// Spend godoc
// @Summary      Spend stars
// @Description  Debits the caller's balance. Fails without side effects when the balance is too low.
// @Tags         star-economy
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header    string     false  "Retry key"
// @Param        body             body      SpendBody  true   "Spend"
// @Success      200              {object}  SpendResponse
// @Failure      400              {object}  api.ErrorResponse
// @Failure      401              {object}  api.ErrorResponse
// @Failure      409              {object}  api.ErrorResponse
// @Failure      500              {object}  api.ErrorResponse
// @Router       /star-economy/spend [post]
func (h *Handler) Spend(c *gin.Context) {
	id, ok := accountID(c)
	if !ok {
		return
	}

	var body SpendBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request body", Kind: KindInvalidRequest})
		return
	}
	if errs := api.ValidateStruct(body); len(errs) > 0 {
		api.RespondWithValidationErrors(c, errs)
		return
	}

	res, err := h.service.Spend(c.Request.Context(), SpendRequest{
		AccountID:      id,
		Amount:         body.Amount,
		Purpose:        body.Purpose,
		Description:    body.Description,
		Metadata:       body.Metadata,
		IdempotencyKey: c.GetHeader(IdempotencyHeader),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SpendResponse{Success: true, SpendResult: *res})
}

// ListTransactions godoc
// @Summary      List star transactions
// @Description  Most recent first.
// @Tags         star-economy
// @Security     BearerAuth
// @Produce      json
// @Param        limit   query     int  false  "Page size"  default(20)
// @Param        offset  query     int  false  "Offset"     default(0)
// @Success      200     {object}  api.DataResponse{data=TransactionPage}
// @Failure      400     {object}  api.ErrorResponse
// @Failure      401     {object}  api.ErrorResponse
// @Failure      500     {object}  api.ErrorResponse
// @Router       /star-economy/transactions [get]
func (h *Handler) ListTransactions(c *gin.Context) {
	id, ok := accountID(c)
	if !ok {
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(wallet.DefaultPageSize)))
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "limit must be a non-negative integer", Kind: KindInvalidRequest})
		return
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "offset must be a non-negative integer", Kind: KindInvalidRequest})
		return
	}

	page, err := h.service.Transactions(c.Request.Context(), id, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.DataResponse{Success: true, Data: page})
}

// ListRules godoc
// @Summary      List earning rules
// @Tags         star-economy
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  api.DataResponse{data=[]rules.Rule}
// @Router       /star-economy/rules [get]
func (h *Handler) ListRules(c *gin.Context) {
	c.JSON(http.StatusOK, api.DataResponse{Success: true, Data: h.service.Rules(false)})
}

// GetAccount godoc
// @Summary      Look up an account
// @Description  Read-only. Unknown accounts are not created.
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        accountID  path      string  true  "Account ID"
// @Success      200        {object}  api.DataResponse{data=wallet.Account}
// @Failure      404        {object}  api.ErrorResponse
// @Failure      500        {object}  api.ErrorResponse
// @Router       /admin/accounts/{accountID} [get]
func (h *Handler) GetAccount(c *gin.Context) {
	acc, err := h.service.Account(c.Request.Context(), c.Param("accountID"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.DataResponse{Success: true, Data: acc})
}

// ToggleRule godoc
// @Summary      Activate or deactivate an earning rule
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        action  path      string          true  "Rule action"
// @Param        body    body      RuleToggleBody  true  "State"
// @Success      200     {object}  api.DataResponse{data=rules.Rule}
// @Failure      400     {object}  api.ErrorResponse
// @Router       /admin/rules/{action} [patch]
func (h *Handler) ToggleRule(c *gin.Context) {
	var body RuleToggleBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request body", Kind: KindInvalidRequest})
		return
	}
	if errs := api.ValidateStruct(body); len(errs) > 0 {
		api.RespondWithValidationErrors(c, errs)
		return
	}

	rule, err := h.service.SetRuleActive(c.Param("action"), *body.Active)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.DataResponse{Success: true, Data: rule})
}

// RegisterRoutes mounts the member routes on an authenticated group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/balance", h.GetBalance)
	rg.POST("/earn", h.Earn)
	rg.POST("/spend", h.Spend)
	rg.GET("/transactions", h.ListTransactions)
	rg.GET("/rules", h.ListRules)
}

// RegisterAdminRoutes mounts the operator routes on an admin-only group.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/accounts/:accountID", h.GetAccount)
	rg.PATCH("/rules/:action", h.ToggleRule)
}
