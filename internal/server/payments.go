package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	purchasedomain "github.com/musichub/musichub/internal/purchase/domain"
	"github.com/musichub/musichub/pkg/db/pagination"
)

type createPaymentRequest struct {
	SongID        string `json:"song_id"`
	ArtistID      string `json:"artist_id"`
	Amount        int64  `json:"amount"`
	PaymentMethod string `json:"payment_method"`
	PhoneNumber   string `json:"phone_number"`
	CardNumber    string `json:"card_number"`
}

func (s *Server) CreatePayment(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}

	var req createPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.purchaseSvc.Record(c.Request.Context(), purchasedomain.RecordRequest{
		UserID:        principal.SubjectID.String(),
		SongID:        strings.TrimSpace(req.SongID),
		ArtistID:      strings.TrimSpace(req.ArtistID),
		Amount:        req.Amount,
		PaymentMethod: strings.TrimSpace(req.PaymentMethod),
		PhoneNumber:   strings.TrimSpace(req.PhoneNumber),
		CardNumber:    strings.TrimSpace(req.CardNumber),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListPayments(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}

	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.purchaseSvc.ListByBuyer(c.Request.Context(), purchasedomain.ListRequest{
		UserID:     principal.SubjectID.String(),
		Pagination: page,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
