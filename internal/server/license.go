package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	licensedomain "github.com/veilcrypt/licensed/internal/license/domain"
)

type createLicenseRequest struct {
	Plan      string   `json:"plan"`
	PaymentID *string  `json:"payment_id,omitempty"`
	Amount    *float64 `json:"amount,omitempty"`
}

// CreateLicense issues a license for the authenticated caller.
func (s *Server) CreateLicense(c *gin.Context) {
	identity := identityFrom(c)
	if identity == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req createLicenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	view, err := s.licenseSvc.Create(c.Request.Context(), licensedomain.CreateRequest{
		UserID:    identity.UserID,
		Plan:      strings.TrimSpace(req.Plan),
		PaymentID: req.PaymentID,
		Amount:    req.Amount,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": view})
}

// ValidateLicense is the public multi-step validity check. Rejections are
// structured results, not HTTP failures.
func (s *Server) ValidateLicense(c *gin.Context) {
	var req licensedomain.ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	result, err := s.licenseSvc.Validate(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// ProcessCrypt accounts for one metered crypt operation.
func (s *Server) ProcessCrypt(c *gin.Context) {
	var req licensedomain.ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	result, err := s.licenseSvc.RecordUsage(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (s *Server) ListMyLicenses(c *gin.Context) {
	identity := identityFrom(c)
	if identity == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	views, err := s.licenseSvc.ListByUser(c.Request.Context(), identity.UserID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": views})
}

func (s *Server) LicenseHistory(c *gin.Context) {
	key := strings.TrimSpace(c.Param("key"))

	records, err := s.licenseSvc.History(c.Request.Context(), key)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": records})
}

func (s *Server) StubInfo(c *gin.Context) {
	info, err := s.stubSvc.Latest(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if info == nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": info})
}
