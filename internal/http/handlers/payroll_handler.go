// README: Driver payroll endpoints.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fleetops/internal/modules/payroll"
	"fleetops/internal/types"
)

type PayrollHandler struct {
	payroll *payroll.Service
}

func NewPayrollHandler(p *payroll.Service) *PayrollHandler {
	return &PayrollHandler{payroll: p}
}

func (h *PayrollHandler) ForDriver(c *gin.Context) {
	earnings, err := h.payroll.ForDriver(
		c.Request.Context(),
		types.ID(c.Param("id")),
		c.Query("from"),
		c.Query("to"),
	)
	if err != nil {
		writePayrollError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"earnings": earnings})
}

func (h *PayrollHandler) MarkPaid(c *gin.Context) {
	if err := h.payroll.MarkPaid(c.Request.Context(), types.ID(c.Param("id"))); err != nil {
		writePayrollError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
