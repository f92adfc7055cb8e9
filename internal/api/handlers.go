package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/myrizq/rizq/internal/ledger"
	"github.com/myrizq/rizq/internal/model"
	"github.com/myrizq/rizq/internal/service"
)

// Handler serves the ledger API on top of a LedgerService.
type Handler struct {
	svc    *service.LedgerService
	logger *slog.Logger
}

// NewHandler returns a Handler for svc.
func NewHandler(svc *service.LedgerService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// bind decodes the JSON body into p and applies the Idempotency-Key header.
func bind[P any](c *gin.Context, p *P, key *string) bool {
	if err := c.ShouldBindJSON(p); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return false
	}
	if v := c.GetHeader(IdempotencyHeader); v != "" {
		*key = v
	}
	return true
}

// respond writes v or the error that replaced it.
func respond[R any](h *Handler, c *gin.Context, status int, v R, err error) {
	if err != nil {
		h.fail(c, err)
		return
	}
	success(c, status, v)
}

func (h *Handler) summary(c *gin.Context) {
	s, err := h.svc.Summary(c.Request.Context())
	respond(h, c, http.StatusOK, s, err)
}

func (h *Handler) listAccounts(c *gin.Context) {
	a, err := h.svc.Accounts(c.Request.Context())
	respond(h, c, http.StatusOK, a, err)
}

func (h *Handler) getAccount(c *gin.Context) {
	a, err := h.svc.Account(c.Request.Context(), c.Param("id"))
	respond(h, c, http.StatusOK, a, err)
}

func (h *Handler) createAccount(c *gin.Context) {
	var p ledger.CreateAccountParams
	if !bind(c, &p, &p.IdempotencyKey) {
		return
	}
	a, err := h.svc.CreateAccount(c.Request.Context(), p)
	respond(h, c, http.StatusCreated, a, err)
}

func (h *Handler) updateAccount(c *gin.Context) {
	var p ledger.UpdateAccountParams
	if !bind(c, &p, &p.IdempotencyKey) {
		return
	}
	p.ID = c.Param("id")
	a, err := h.svc.UpdateAccount(c.Request.Context(), p)
	respond(h, c, http.StatusOK, a, err)
}

func (h *Handler) listTransactions(c *gin.Context) {
	f, ok := transactionFilter(c)
	if !ok {
		return
	}
	page, err := h.svc.Transactions(c.Request.Context(), f)
	respond(h, c, http.StatusOK, page, err)
}

// transactionFilter reads the listing query: from, to, type (repeatable or
// comma separated), q, account_id, category_id, page and page_size.
func transactionFilter(c *gin.Context) (ledger.TransactionFilter, bool) {
	f := ledger.TransactionFilter{
		Text:       c.Query("q"),
		AccountID:  c.Query("account_id"),
		CategoryID: c.Query("category_id"),
	}
	for _, name := range []string{"from", "to"} {
		v := c.Query(name)
		if v == "" {
			continue
		}
		t, err := parseDate(v)
		if err != nil {
			badRequest(c, name+": "+err.Error())
			return f, false
		}
		if name == "from" {
			f.From = t
		} else {
			f.To = t
		}
	}
	for _, raw := range c.QueryArray("type") {
		for _, v := range strings.Split(raw, ",") {
			t := model.TransactionType(strings.TrimSpace(v))
			if !t.Valid() {
				badRequest(c, "type: unknown transaction type "+strconv.Quote(string(t)))
				return f, false
			}
			f.Types = append(f.Types, t)
		}
	}
	for name, dst := range map[string]*int{"page": &f.Page, "page_size": &f.PageSize} {
		v := c.Query(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			badRequest(c, name+": must be a positive integer")
			return f, false
		}
		*dst = n
	}
	return f, true
}

func (h *Handler) recordTransaction(c *gin.Context) {
	var p ledger.TransactionParams
	if !bind(c, &p, &p.IdempotencyKey) {
		return
	}
	t, err := h.svc.RecordTransaction(c.Request.Context(), p)
	respond(h, c, http.StatusCreated, t, err)
}

func (h *Handler) listCategories(c *gin.Context) {
	cats, err := h.svc.Categories(c.Request.Context())
	respond(h, c, http.StatusOK, cats, err)
}

func (h *Handler) createCategory(c *gin.Context) {
	var p ledger.CreateCategoryParams
	if !bind(c, &p, &p.IdempotencyKey) {
		return
	}
	cat, err := h.svc.CreateCategory(c.Request.Context(), p)
	respond(h, c, http.StatusCreated, cat, err)
}

func (h *Handler) listBudgets(c *gin.Context) {
	b, err := h.svc.Budgets(c.Request.Context())
	respond(h, c, http.StatusOK, b, err)
}

func (h *Handler) getBudget(c *gin.Context) {
	b, err := h.svc.Budget(c.Request.Context(), c.Param("id"))
	respond(h, c, http.StatusOK, b, err)
}

func (h *Handler) createBudget(c *gin.Context) {
	var p ledger.CreateBudgetParams
	if !bind(c, &p, &p.IdempotencyKey) {
		return
	}
	b, err := h.svc.CreateBudget(c.Request.Context(), p)
	respond(h, c, http.StatusCreated, b, err)
}

func (h *Handler) updateBudget(c *gin.Context) {
	var p ledger.UpdateBudgetParams
	if !bind(c, &p, &p.IdempotencyKey) {
		return
	}
	p.ID = c.Param("id")
	b, err := h.svc.UpdateBudget(c.Request.Context(), p)
	respond(h, c, http.StatusOK, b, err)
}

func (h *Handler) listGoals(c *gin.Context) {
	g, err := h.svc.Goals(c.Request.Context())
	respond(h, c, http.StatusOK, g, err)
}

func (h *Handler) getGoal(c *gin.Context) {
	g, err := h.svc.Goal(c.Request.Context(), c.Param("id"))
	respond(h, c, http.StatusOK, g, err)
}

func (h *Handler) createGoal(c *gin.Context) {
	var p ledger.CreateGoalParams
	if !bind(c, &p, &p.IdempotencyKey) {
		return
	}
	g, err := h.svc.CreateGoal(c.Request.Context(), p)
	respond(h, c, http.StatusCreated, g, err)
}

func (h *Handler) updateGoal(c *gin.Context) {
	var p ledger.UpdateGoalParams
	if !bind(c, &p, &p.IdempotencyKey) {
		return
	}
	p.ID = c.Param("id")
	g, err := h.svc.UpdateGoal(c.Request.Context(), p)
	respond(h, c, http.StatusOK, g, err)
}

func (h *Handler) listLoans(c *gin.Context) {
	l, err := h.svc.Loans(c.Request.Context())
	respond(h, c, http.StatusOK, l, err)
}

func (h *Handler) getLoan(c *gin.Context) {
	l, err := h.svc.Loan(c.Request.Context(), c.Param("id"))
	respond(h, c, http.StatusOK, l, err)
}

func (h *Handler) createLoan(c *gin.Context) {
	var p ledger.CreateLoanParams
	if !bind(c, &p, &p.IdempotencyKey) {
		return
	}
	l, err := h.svc.CreateLoan(c.Request.Context(), p)
	respond(h, c, http.StatusCreated, l, err)
}

func (h *Handler) updateLoan(c *gin.Context) {
	var p ledger.UpdateLoanParams
	if !bind(c, &p, &p.IdempotencyKey) {
		return
	}
	p.ID = c.Param("id")
	l, err := h.svc.UpdateLoan(c.Request.Context(), p)
	respond(h, c, http.StatusOK, l, err)
}

type cancelRequest struct {
	IdempotencyKey string `json:"idempotency_key"`
}

// cancelWith handles POST /<kind>/:id/cancel. The body is optional.
func cancelWith[R any](h *Handler, fn func(context.Context, string, string) (R, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req cancelRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				badRequest(c, "invalid request body: "+err.Error())
				return
			}
		}
		if v := c.GetHeader(IdempotencyHeader); v != "" {
			req.IdempotencyKey = v
		}
		v, err := fn(c.Request.Context(), req.IdempotencyKey, c.Param("id"))
		respond(h, c, http.StatusOK, v, err)
	}
}

func (h *Handler) activity(c *gin.Context) {
	entries, err := h.svc.Activity(c.Request.Context())
	if errors.Is(err, service.ErrNoActivityLog) {
		c.AbortWithStatusJSON(http.StatusNotFound, errorBody{Code: "not_found", Message: err.Error()})
		return
	}
	respond(h, c, http.StatusOK, entries, err)
}

func (h *Handler) export(c *gin.Context) {
	// Resolve the session first so a failure can still be reported as JSON.
	if _, err := h.svc.Session(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="transactions.csv"`)
	c.Status(http.StatusOK)
	if err := h.svc.ExportTransactions(c.Request.Context(), c.Writer); err != nil {
		h.logger.ErrorContext(c.Request.Context(), "export failed", "err", err)
	}
}

func (h *Handler) importStatement(c *gin.Context) {
	format, accountID := c.Query("format"), c.Query("account_id")
	if format == "" || accountID == "" {
		badRequest(c, "format and account_id are required")
		return
	}
	res, err := h.svc.ImportStatement(c.Request.Context(), format, accountID, c.Request.Body)
	respond(h, c, http.StatusOK, res, err)
}

func (h *Handler) importJournal(c *gin.Context) {
	n, err := h.svc.ImportTransactions(c.Request.Context(), c.Request.Body)
	if err != nil {
		h.fail(c, err)
		return
	}
	success(c, http.StatusOK, gin.H{"recorded": n})
}
