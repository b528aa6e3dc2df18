package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	StripeSignatureHeader = "Stripe-Signature"
	// Stripe's default replay window.
	stripeTolerance = 5 * time.Minute
	maxWebhookBody  = 64 << 10
)

// StripeWebhookAuth verifies the Stripe-Signature header against the raw body and puts the body
// back for the handler.
func StripeWebhookAuth(secret string, logger *zap.Logger) gin.HandlerFunc {
	return stripeWebhookAuth(secret, logger, time.Now)
}

func stripeWebhookAuth(secret string, logger *zap.Logger, now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody+1))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read webhook body"})
			c.Abort()
			return
		}
		if len(payload) > maxWebhookBody {
			logger.Warn("stripe webhook body too large", zap.String("client_ip", c.ClientIP()))
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "webhook body too large"})
			c.Abort()
			return
		}

		header := c.GetHeader(StripeSignatureHeader)
		if header == "" {
			c.JSON(http.StatusForbidden, gin.H{"error": "missing webhook signature"})
			c.Abort()
			return
		}

		if !validStripeSignature(secret, header, payload, now()) {
			logger.Warn("stripe webhook signature rejected", zap.String("client_ip", c.ClientIP()))
			c.JSON(http.StatusForbidden, gin.H{"error": "invalid webhook signature"})
			c.Abort()
			return
		}

		c.Request.Body = io.NopCloser(bytes.NewReader(payload))
		c.Next()
	}
}

// validStripeSignature checks a "t=<unix>,v1=<hex>[,v1=...]" header.
func validStripeSignature(secret, header string, payload []byte, now time.Time) bool {
	var timestamp string
	var signatures []string
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			timestamp = v
		case "v1":
			signatures = append(signatures, v)
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return false
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return false
	}
	age := now.Sub(time.Unix(ts, 0))
	if age > stripeTolerance || age < -stripeTolerance {
		return false
	}

	expected := SignStripePayload(secret, timestamp, payload)
	for _, sig := range signatures {
		if hmac.Equal([]byte(sig), []byte(expected)) {
			return true
		}
	}
	return false
}

// SignStripePayload computes the v1 signature Stripe sends for payload at timestamp.
func SignStripePayload(secret, timestamp string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
