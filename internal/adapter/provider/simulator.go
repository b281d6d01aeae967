package provider

import (
	"net/http"
	"time"

	"github.com/Andorta/payments-reliability-milestone/config"
	"github.com/Andorta/payments-reliability-milestone/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Simulator is a stand-in payment provider mounted on the same server under
// /_provider. It rolls once per charge: timeout first, then decline,
// otherwise success. A "timeout" stalls past the client deadline so the
// caller observes a real expired request, then answers anyway, which is
// exactly the ambiguous outcome a pending-payment path has to absorb.
type Simulator struct {
	timeoutRate float64
	declineRate float64
	stall       time.Duration
	roll        func() float64
	log         zerolog.Logger
}

// NewSimulator creates a simulator from config, rolling with rnd. Pass a
// deterministic rnd in tests.
func NewSimulator(cfg config.ProviderConfig, rnd func() float64, log zerolog.Logger) *Simulator {
	return &Simulator{
		timeoutRate: cfg.TimeoutRate,
		declineRate: cfg.DeclineRate,
		stall:       cfg.Timeout * 3,
		roll:        rnd,
		log:         log.With().Str("component", "provider_simulator").Logger(),
	}
}

// Charge handles POST /_provider/charge.
func (s *Simulator) Charge(c *gin.Context) {
	var req ports.ChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid charge request"})
		return
	}

	r := s.roll()
	switch {
	case r < s.timeoutRate:
		s.log.Info().Str("buyer_id", req.BuyerID).Msg("simulating provider timeout")
		select {
		case <-time.After(s.stall):
		case <-c.Request.Context().Done():
			return
		}
		// The client is long gone; answer for completeness.
		c.JSON(http.StatusOK, ports.ChargeResult{Status: ports.ProviderStatusSucceeded})
	case r < s.timeoutRate+s.declineRate:
		s.log.Info().Str("buyer_id", req.BuyerID).Msg("simulating provider decline")
		c.JSON(http.StatusOK, ports.ChargeResult{Status: ports.ProviderStatusDeclined})
	default:
		paymentID := "sim_" + uuid.NewString()
		c.JSON(http.StatusOK, ports.ChargeResult{
			Status:            ports.ProviderStatusSucceeded,
			ProviderPaymentID: &paymentID,
		})
	}
}
